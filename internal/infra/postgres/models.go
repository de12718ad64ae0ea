package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"smartplay-service/internal/domain"
)

type playerRow struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Name         string    `bun:"name,notnull"`
	PasswordHash string    `bun:"password_hash"`
	Score        int       `bun:"score,notnull,default:0"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (r playerRow) toDomain() domain.Player {
	return domain.Player{
		ID:           r.ID,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		Score:        r.Score,
		CreatedAt:    r.CreatedAt,
	}
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Theme string `bun:"theme,notnull"`
	Text  string `bun:"question_text,notnull"`
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{ID: r.ID, Theme: r.Theme, Text: r.Text}
}

type responseRow struct {
	bun.BaseModel `bun:"table:responses,alias:r"`

	PlayerID       int64     `bun:"player_id,pk"`
	QuestionID     int64     `bun:"question_id,pk"`
	AnswerText     string    `bun:"answer_text,notnull"`
	Score          int       `bun:"score,notnull,default:0"`
	Verdict        string    `bun:"verdict"`
	EvaluationText string    `bun:"evaluation_text"`
	Liked          *bool     `bun:"liked"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r responseRow) toDomain() domain.StoredResponse {
	return domain.StoredResponse{
		PlayerID:       r.PlayerID,
		QuestionID:     r.QuestionID,
		AnswerText:     r.AnswerText,
		Score:          r.Score,
		Verdict:        domain.Verdict(r.Verdict),
		EvaluationText: r.EvaluationText,
		Liked:          r.Liked,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
