package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"smartplay-service/internal/domain"
)

// QuestionRepository is an in-memory implementation of app.QuestionRepository.
type QuestionRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]domain.Question
	rnd    *rand.Rand
}

func NewQuestionRepository() *QuestionRepository {
	return &QuestionRepository{
		nextID: 1,
		byID:   make(map[int64]domain.Question),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) GetByID(_ context.Context, id int64) (domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	question, ok := r.byID[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return question, nil
}

func (r *QuestionRepository) RandomByTheme(_ context.Context, theme string, limit int) ([]domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matching := make([]domain.Question, 0)
	for _, q := range r.byID {
		if theme == "" || q.Theme == theme {
			matching = append(matching, q)
		}
	}
	if len(matching) == 0 {
		return nil, domain.ErrQuestionNotFound
	}

	r.rnd.Shuffle(len(matching), func(i, j int) {
		matching[i], matching[j] = matching[j], matching[i]
	})
	if len(matching) > limit {
		matching = matching[:limit]
	}
	return matching, nil
}

func (r *QuestionRepository) Create(_ context.Context, theme, text string) (domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	question := domain.Question{ID: r.nextID, Theme: theme, Text: text}
	r.nextID++
	r.byID[question.ID] = question
	return question, nil
}

func (r *QuestionRepository) BulkCreate(ctx context.Context, questions []domain.Question) (int, error) {
	for _, q := range questions {
		if _, err := r.Create(ctx, q.Theme, q.Text); err != nil {
			return 0, err
		}
	}
	return len(questions), nil
}

// textOf returns a question's text, for answer-cache matching.
func (r *QuestionRepository) textOf(id int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id].Text
}

// snapshot returns all questions, for leaderboard assembly.
func (r *QuestionRepository) snapshot() map[int64]domain.Question {
	r.mu.RLock()
	defer r.mu.RUnlock()
	questions := make(map[int64]domain.Question, len(r.byID))
	for id, q := range r.byID {
		questions[id] = q
	}
	return questions
}
