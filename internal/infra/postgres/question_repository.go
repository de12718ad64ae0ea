package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"smartplay-service/internal/domain"
)

// QuestionRepository persists scenario questions with bun.
type QuestionRepository struct {
	db *bun.DB
}

func NewQuestionRepository(db *bun.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (domain.Question, error) {
	var row questionRow
	err := r.db.NewSelect().Model(&row).Where("q.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return row.toDomain(), nil
}

func (r *QuestionRepository) RandomByTheme(ctx context.Context, theme string, limit int) ([]domain.Question, error) {
	var rows []questionRow
	q := r.db.NewSelect().Model(&rows).OrderExpr("random()").Limit(limit)
	if theme != "" {
		q = q.Where("q.theme = ?", theme)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("random questions: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrQuestionNotFound
	}
	out := make([]domain.Question, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *QuestionRepository) Create(ctx context.Context, theme, text string) (domain.Question, error) {
	row := questionRow{Theme: theme, Text: text}
	if _, err := r.db.NewInsert().Model(&row).Returning("*").Exec(ctx); err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	return row.toDomain(), nil
}

func (r *QuestionRepository) BulkCreate(ctx context.Context, questions []domain.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	rows := make([]questionRow, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, questionRow{Theme: q.Theme, Text: q.Text})
	}
	res, err := r.db.NewInsert().Model(&rows).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("bulk create questions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return len(rows), nil
	}
	return int(n), nil
}
