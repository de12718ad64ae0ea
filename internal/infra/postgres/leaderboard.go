package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"smartplay-service/internal/domain"
)

// LeaderboardSource reads ranking aggregates straight from Postgres.
type LeaderboardSource struct {
	pool *pgxpool.Pool
}

func NewLeaderboardSource(pool *pgxpool.Pool) *LeaderboardSource {
	return &LeaderboardSource{pool: pool}
}

// Leaderboard ranks players by total score, or by the sum of their scores
// for one theme when theme is non-empty.
func (s *LeaderboardSource) Leaderboard(ctx context.Context, theme string) (domain.Leaderboard, error) {
	query := `SELECT id, name, score FROM players ORDER BY score DESC, name ASC`
	args := []interface{}{}
	if theme != "" {
		query = `SELECT p.id, p.name, COALESCE(SUM(r.score), 0)::int AS total
		FROM players p
		JOIN responses r ON r.player_id = p.id
		JOIN questions q ON q.id = r.question_id
		WHERE q.theme = $1
		GROUP BY p.id, p.name
		ORDER BY total DESC, p.name ASC`
		args = append(args, theme)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	board := domain.Leaderboard{Theme: theme, UpdatedAt: time.Now()}
	for rows.Next() {
		var entry domain.LeaderboardEntry
		if err := rows.Scan(&entry.PlayerID, &entry.Name, &entry.Score); err != nil {
			return domain.Leaderboard{}, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entry.Rank = len(board.Entries) + 1
		board.Entries = append(board.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return domain.Leaderboard{}, fmt.Errorf("read leaderboard: %w", err)
	}
	return board, nil
}

// Details returns every graded answer joined with its player and question,
// highest scores first.
func (s *LeaderboardSource) Details(ctx context.Context, theme string) ([]domain.LeaderboardDetail, error) {
	query := `SELECT p.name, q.theme, q.question_text, r.answer_text, r.score, r.evaluation_text
	FROM responses r
	JOIN players p ON p.id = r.player_id
	JOIN questions q ON q.id = r.question_id`
	args := []interface{}{}
	if theme != "" {
		query += ` WHERE q.theme = $1`
		args = append(args, theme)
	}
	query += ` ORDER BY r.score DESC, p.name ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard details: %w", err)
	}
	defer rows.Close()

	var details []domain.LeaderboardDetail
	for rows.Next() {
		var d domain.LeaderboardDetail
		if err := rows.Scan(&d.PlayerName, &d.Theme, &d.QuestionText, &d.AnswerText, &d.Score, &d.EvaluationText); err != nil {
			return nil, fmt.Errorf("scan detail row: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read leaderboard details: %w", err)
	}
	return details, nil
}
