package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"smartplay-service/internal/domain"
)

// PlayerRepository persists players with bun.
type PlayerRepository struct {
	db *bun.DB
}

func NewPlayerRepository(db *bun.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (domain.Player, error) {
	var row playerRow
	err := r.db.NewSelect().Model(&row).Where("p.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.Player{}, fmt.Errorf("get player: %w", err)
	}
	return row.toDomain(), nil
}

func (r *PlayerRepository) GetByName(ctx context.Context, name string) (domain.Player, error) {
	var row playerRow
	err := r.db.NewSelect().Model(&row).Where("p.name = ?", name).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.Player{}, fmt.Errorf("get player by name: %w", err)
	}
	return row.toDomain(), nil
}

func (r *PlayerRepository) Create(ctx context.Context, name, passwordHash string) (domain.Player, error) {
	row := playerRow{Name: name, PasswordHash: passwordHash}
	if _, err := r.db.NewInsert().Model(&row).Returning("*").Exec(ctx); err != nil {
		return domain.Player{}, fmt.Errorf("create player: %w", err)
	}
	return row.toDomain(), nil
}
