package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"smartplay-service/internal/domain"
)

type responseKey struct {
	playerID   int64
	questionID int64
}

// ResponseRepository is an in-memory implementation of app.ResponseRepository.
// Upsert keeps the player's running total in sync, mirroring the transactional
// behavior of the postgres tier.
type ResponseRepository struct {
	mu        sync.RWMutex
	rows      map[responseKey]domain.StoredResponse
	players   *PlayerRepository
	questions *QuestionRepository
}

func NewResponseRepository(players *PlayerRepository, questions *QuestionRepository) *ResponseRepository {
	return &ResponseRepository{
		rows:      make(map[responseKey]domain.StoredResponse),
		players:   players,
		questions: questions,
	}
}

func (r *ResponseRepository) FindByAnswerText(_ context.Context, answerText string, questionID int64, questionText string) (*domain.StoredResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, row := range r.rows {
		if row.AnswerText != answerText || row.EvaluationText == "" {
			continue
		}
		if row.QuestionID == questionID || (questionText != "" && r.questions.textOf(row.QuestionID) == questionText) {
			found := row
			return &found, nil
		}
	}
	return nil, nil
}

func (r *ResponseRepository) Upsert(_ context.Context, playerID, questionID int64, answerText string, score int, verdict domain.Verdict, evaluationText string) (domain.StoredResponse, error) {
	r.mu.Lock()
	key := responseKey{playerID, questionID}
	now := time.Now()

	prevScore := 0
	row, ok := r.rows[key]
	if ok {
		prevScore = row.Score
	} else {
		row = domain.StoredResponse{PlayerID: playerID, QuestionID: questionID, CreatedAt: now}
	}
	row.AnswerText = answerText
	row.Score = score
	row.Verdict = verdict
	row.EvaluationText = evaluationText
	row.UpdatedAt = now
	r.rows[key] = row
	r.mu.Unlock()

	if delta := score - prevScore; delta != 0 {
		r.players.adjustScore(playerID, delta)
	}
	return row, nil
}

func (r *ResponseRepository) GetByKey(_ context.Context, playerID, questionID int64) (domain.StoredResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[responseKey{playerID, questionID}]
	if !ok {
		return domain.StoredResponse{}, domain.ErrResponseNotFound
	}
	return row, nil
}

func (r *ResponseRepository) ListByPlayer(_ context.Context, playerID int64, liked *bool) ([]domain.StoredResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.StoredResponse, 0)
	for _, row := range r.rows {
		if row.PlayerID != playerID {
			continue
		}
		if liked != nil && (row.Liked == nil || *row.Liked != *liked) {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (r *ResponseRepository) SetLiked(_ context.Context, playerID, questionID int64, liked bool) (domain.StoredResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := responseKey{playerID, questionID}
	row, ok := r.rows[key]
	if !ok {
		return domain.StoredResponse{}, domain.ErrResponseNotFound
	}
	row.Liked = &liked
	row.UpdatedAt = time.Now()
	r.rows[key] = row
	return row, nil
}

// snapshot returns all responses, for leaderboard assembly.
func (r *ResponseRepository) snapshot() []domain.StoredResponse {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := make([]domain.StoredResponse, 0, len(r.rows))
	for _, row := range r.rows {
		rows = append(rows, row)
	}
	return rows
}
