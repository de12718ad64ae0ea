package app

import (
	"context"
	"errors"
	"log"
	"strings"

	"smartplay-service/internal/auth"
	"smartplay-service/internal/domain"
	"smartplay-service/internal/eval"
)

// PlayerRepository stores registered players and their running totals.
type PlayerRepository interface {
	GetByID(ctx context.Context, id int64) (domain.Player, error)
	GetByName(ctx context.Context, name string) (domain.Player, error)
	Create(ctx context.Context, name, passwordHash string) (domain.Player, error)
}

// QuestionRepository stores scenario questions grouped by theme.
type QuestionRepository interface {
	GetByID(ctx context.Context, id int64) (domain.Question, error)
	RandomByTheme(ctx context.Context, theme string, limit int) ([]domain.Question, error)
	Create(ctx context.Context, theme, text string) (domain.Question, error)
	BulkCreate(ctx context.Context, questions []domain.Question) (int, error)
}

// ResponseRepository stores answered questions. It embeds the evaluator's
// storage contract; Upsert also folds the score delta into the player total.
type ResponseRepository interface {
	eval.ResponseStore
	GetByKey(ctx context.Context, playerID, questionID int64) (domain.StoredResponse, error)
	ListByPlayer(ctx context.Context, playerID int64, liked *bool) ([]domain.StoredResponse, error)
	SetLiked(ctx context.Context, playerID, questionID int64, liked bool) (domain.StoredResponse, error)
}

// LeaderboardSource produces ranked scoreboards, optionally per theme.
type LeaderboardSource interface {
	Leaderboard(ctx context.Context, theme string) (domain.Leaderboard, error)
	Details(ctx context.Context, theme string) ([]domain.LeaderboardDetail, error)
}

// LeaderboardInvalidator drops cached scoreboards after a scoring event.
// The source may implement it; a nil invalidator is fine.
type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context, themes ...string) error
}

// AnswerEvaluator grades one answer; see eval.Evaluator.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, req eval.Request) (domain.StoredResponse, bool, error)
}

// QuestionGenerator drafts a fresh scenario question for a theme; see
// eval.QuestionGenerator. It reports the theme actually used, since an empty
// theme draws a random one.
type QuestionGenerator interface {
	Generate(ctx context.Context, theme string) (string, string)
}

// GameService contains the quiz game use cases.
type GameService struct {
	players     PlayerRepository
	questions   QuestionRepository
	responses   ResponseRepository
	evaluator   AnswerEvaluator
	generator   QuestionGenerator
	board       LeaderboardSource
	invalidator LeaderboardInvalidator
	hub         *LeaderboardHub
}

func NewGameService(
	players PlayerRepository,
	questions QuestionRepository,
	responses ResponseRepository,
	evaluator AnswerEvaluator,
	generator QuestionGenerator,
	board LeaderboardSource,
	invalidator LeaderboardInvalidator,
	hub *LeaderboardHub,
) *GameService {
	return &GameService{
		players:     players,
		questions:   questions,
		responses:   responses,
		evaluator:   evaluator,
		generator:   generator,
		board:       board,
		invalidator: invalidator,
		hub:         hub,
	}
}

// LoginOrRegister resolves a player by name, creating the account on first
// login. A player registered with a password must present it on later logins;
// players registered without one stay password-less.
func (s *GameService) LoginOrRegister(ctx context.Context, name, password string) (domain.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Player{}, domain.ErrInvalidCredentials
	}

	player, err := s.players.GetByName(ctx, name)
	if errors.Is(err, domain.ErrPlayerNotFound) {
		hash := ""
		if password != "" {
			if hash, err = auth.HashPassword(password); err != nil {
				return domain.Player{}, err
			}
		}
		return s.players.Create(ctx, name, hash)
	}
	if err != nil {
		return domain.Player{}, err
	}

	if player.PasswordHash != "" && !auth.CheckPassword(player.PasswordHash, password) {
		return domain.Player{}, domain.ErrInvalidCredentials
	}
	return player, nil
}

// GetPlayer returns a player by id.
func (s *GameService) GetPlayer(ctx context.Context, id int64) (domain.Player, error) {
	return s.players.GetByID(ctx, id)
}

// GetQuestion returns a question by id.
func (s *GameService) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	return s.questions.GetByID(ctx, id)
}

// CreateQuestion stores a new scenario question.
func (s *GameService) CreateQuestion(ctx context.Context, theme, text string) (domain.Question, error) {
	theme = strings.ToLower(strings.TrimSpace(theme))
	text = strings.TrimSpace(text)
	if theme == "" || text == "" {
		return domain.Question{}, errors.New("theme and question text are required")
	}
	return s.questions.Create(ctx, theme, text)
}

// GenerateQuestion drafts a new scenario question with the model. The draft
// is returned unpersisted so a curator can approve it via CreateQuestion;
// model failures degrade to a canned per-theme question, never an error.
func (s *GameService) GenerateQuestion(ctx context.Context, theme string) (domain.Question, error) {
	usedTheme, text := s.generator.Generate(ctx, theme)
	return domain.Question{Theme: usedTheme, Text: text}, nil
}

const (
	defaultQuestionDraw = 5
	maxQuestionDraw     = 20
)

// RandomQuestions draws up to limit random questions for a theme.
func (s *GameService) RandomQuestions(ctx context.Context, theme string, limit int) ([]domain.Question, error) {
	if limit <= 0 {
		limit = defaultQuestionDraw
	}
	if limit > maxQuestionDraw {
		limit = maxQuestionDraw
	}
	return s.questions.RandomByTheme(ctx, strings.ToLower(strings.TrimSpace(theme)), limit)
}

// SubmitAnswer grades a player's free-text answer to a question, persists the
// (possibly cached) evaluation, and refreshes the leaderboard. An empty
// answer is not rejected here: the judge is instructed to score it zero.
func (s *GameService) SubmitAnswer(ctx context.Context, playerID, questionID int64, answerText string) (domain.StoredResponse, bool, error) {
	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return domain.StoredResponse{}, false, err
	}

	resp, cached, err := s.evaluator.Evaluate(ctx, eval.Request{
		PlayerID:     playerID,
		QuestionID:   question.ID,
		QuestionText: question.Text,
		AnswerText:   answerText,
		Theme:        question.Theme,
	})
	if err != nil {
		return domain.StoredResponse{}, false, err
	}

	s.refreshLeaderboard(ctx, question.Theme)
	return resp, cached, nil
}

// refreshLeaderboard invalidates cached snapshots and pushes the new global
// scoreboard to live subscribers. Both are best-effort: a cache or broadcast
// hiccup must not fail an already-persisted answer.
func (s *GameService) refreshLeaderboard(ctx context.Context, theme string) {
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, "", theme); err != nil {
			log.Printf("leaderboard cache invalidation failed: %v", err)
		}
	}
	if s.hub == nil {
		return
	}
	lb, err := s.board.Leaderboard(ctx, "")
	if err != nil {
		log.Printf("leaderboard refresh failed: %v", err)
		return
	}
	s.hub.Broadcast(lb)
}

// SetFeedback records a like/dislike on one of the player's own responses.
// The (player, question) storage key scopes the write to the caller, so a
// player can never rate anyone else's evaluation.
func (s *GameService) SetFeedback(ctx context.Context, playerID, questionID int64, liked bool) (domain.StoredResponse, error) {
	return s.responses.SetLiked(ctx, playerID, questionID, liked)
}

// ListFeedback returns the player's responses, optionally filtered by liked
// status.
func (s *GameService) ListFeedback(ctx context.Context, playerID int64, liked *bool) ([]domain.StoredResponse, error) {
	return s.responses.ListByPlayer(ctx, playerID, liked)
}

// Leaderboard returns the ranked scoreboard, optionally restricted to a theme.
func (s *GameService) Leaderboard(ctx context.Context, theme string) (domain.Leaderboard, error) {
	return s.board.Leaderboard(ctx, strings.ToLower(strings.TrimSpace(theme)))
}

// LeaderboardDetails returns question/answer/score rows for review.
func (s *GameService) LeaderboardDetails(ctx context.Context, theme string) ([]domain.LeaderboardDetail, error) {
	return s.board.Details(ctx, strings.ToLower(strings.TrimSpace(theme)))
}

// SubscribeLeaderboard returns the current scoreboard plus a channel of live
// updates. The caller must invoke the cancel function to avoid leaks.
func (s *GameService) SubscribeLeaderboard(ctx context.Context) (domain.Leaderboard, <-chan domain.Leaderboard, func(), error) {
	current, err := s.board.Leaderboard(ctx, "")
	if err != nil {
		return domain.Leaderboard{}, nil, nil, err
	}
	ch, cancel := s.hub.Subscribe()
	return current, ch, cancel, nil
}
