package memory

import (
	"context"
	"sort"
	"time"

	"smartplay-service/internal/domain"
)

// LeaderboardSource assembles scoreboards from the in-memory repositories.
type LeaderboardSource struct {
	players   *PlayerRepository
	questions *QuestionRepository
	responses *ResponseRepository
}

func NewLeaderboardSource(players *PlayerRepository, questions *QuestionRepository, responses *ResponseRepository) *LeaderboardSource {
	return &LeaderboardSource{players: players, questions: questions, responses: responses}
}

func (s *LeaderboardSource) Leaderboard(_ context.Context, theme string) (domain.Leaderboard, error) {
	players := s.players.snapshot()

	totals := make(map[int64]int, len(players))
	if theme == "" {
		for _, p := range players {
			totals[p.ID] = p.Score
		}
	} else {
		questions := s.questions.snapshot()
		for _, row := range s.responses.snapshot() {
			if questions[row.QuestionID].Theme == theme {
				totals[row.PlayerID] += row.Score
			}
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(players))
	for _, p := range players {
		score, answered := totals[p.ID]
		if theme != "" && !answered {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			PlayerID: p.ID,
			Name:     p.Name,
			Score:    score,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Name < entries[j].Name
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return domain.Leaderboard{Theme: theme, Entries: entries, UpdatedAt: time.Now()}, nil
}

func (s *LeaderboardSource) Details(_ context.Context, theme string) ([]domain.LeaderboardDetail, error) {
	players := s.players.snapshot()
	names := make(map[int64]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}
	questions := s.questions.snapshot()

	details := make([]domain.LeaderboardDetail, 0)
	for _, row := range s.responses.snapshot() {
		question := questions[row.QuestionID]
		if theme != "" && question.Theme != theme {
			continue
		}
		details = append(details, domain.LeaderboardDetail{
			PlayerName:     names[row.PlayerID],
			Theme:          question.Theme,
			QuestionText:   question.Text,
			AnswerText:     row.AnswerText,
			Score:          row.Score,
			EvaluationText: row.EvaluationText,
		})
	}
	sort.Slice(details, func(i, j int) bool {
		if details[i].Score != details[j].Score {
			return details[i].Score > details[j].Score
		}
		return details[i].PlayerName < details[j].PlayerName
	})
	return details, nil
}
