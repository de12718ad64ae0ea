package memory

import (
	"context"
	"sync"
	"time"

	"smartplay-service/internal/domain"
)

// PlayerRepository is an in-memory implementation of app.PlayerRepository,
// used in tests and when running without a database.
type PlayerRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]domain.Player
	byName map[string]int64
}

func NewPlayerRepository() *PlayerRepository {
	return &PlayerRepository{
		nextID: 1,
		byID:   make(map[int64]domain.Player),
		byName: make(map[string]int64),
	}
}

func (r *PlayerRepository) GetByID(_ context.Context, id int64) (domain.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	player, ok := r.byID[id]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return player, nil
}

func (r *PlayerRepository) GetByName(_ context.Context, name string) (domain.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return r.byID[id], nil
}

func (r *PlayerRepository) Create(_ context.Context, name, passwordHash string) (domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byName[name]; ok {
		return r.byID[id], nil
	}
	player := domain.Player{
		ID:           r.nextID,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	r.nextID++
	r.byID[player.ID] = player
	r.byName[name] = player.ID
	return player, nil
}

// adjustScore folds a score delta into the player's running total.
func (r *PlayerRepository) adjustScore(id int64, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	player, ok := r.byID[id]
	if !ok {
		return
	}
	player.Score += delta
	r.byID[id] = player
}

// snapshot returns all players, for leaderboard assembly.
func (r *PlayerRepository) snapshot() []domain.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	players := make([]domain.Player, 0, len(r.byID))
	for _, p := range r.byID {
		players = append(players, p)
	}
	return players
}
