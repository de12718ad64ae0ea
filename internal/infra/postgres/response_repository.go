package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"smartplay-service/internal/domain"
)

// ResponseRepository persists graded answers with bun. Upserts run in a
// transaction so the player total and the response row move together.
type ResponseRepository struct {
	db *bun.DB
}

func NewResponseRepository(db *bun.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// FindByAnswerText looks for a prior evaluation of the same answer, matching
// either the question id or the question wording. Rows without evaluation
// text are skipped so failed gradings do not get replayed from storage.
func (r *ResponseRepository) FindByAnswerText(ctx context.Context, answerText string, questionID int64, questionText string) (*domain.StoredResponse, error) {
	var row responseRow
	err := r.db.NewSelect().Model(&row).
		Join("JOIN questions AS q ON q.id = r.question_id").
		Where("r.answer_text = ?", answerText).
		Where("r.evaluation_text <> ''").
		Where("(r.question_id = ? OR q.question_text = ?)", questionID, questionText).
		OrderExpr("r.updated_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find response by answer: %w", err)
	}
	resp := row.toDomain()
	return &resp, nil
}

func (r *ResponseRepository) Upsert(ctx context.Context, playerID, questionID int64, answerText string, score int, verdict domain.Verdict, evaluationText string) (domain.StoredResponse, error) {
	var out responseRow
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var prevScore int
		err := tx.NewSelect().Model((*responseRow)(nil)).
			Column("score").
			Where("r.player_id = ? AND r.question_id = ?", playerID, questionID).
			Scan(ctx, &prevScore)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		now := time.Now()
		out = responseRow{
			PlayerID:       playerID,
			QuestionID:     questionID,
			AnswerText:     answerText,
			Score:          score,
			Verdict:        string(verdict),
			EvaluationText: evaluationText,
			UpdatedAt:      now,
		}
		_, err = tx.NewInsert().Model(&out).
			On("CONFLICT (player_id, question_id) DO UPDATE").
			Set("answer_text = EXCLUDED.answer_text").
			Set("score = EXCLUDED.score").
			Set("verdict = EXCLUDED.verdict").
			Set("evaluation_text = EXCLUDED.evaluation_text").
			Set("updated_at = EXCLUDED.updated_at").
			Returning("*").
			Exec(ctx)
		if err != nil {
			return err
		}

		if delta := score - prevScore; delta != 0 {
			_, err = tx.NewUpdate().Model((*playerRow)(nil)).
				Set("score = score + ?", delta).
				Where("id = ?", playerID).
				Exec(ctx)
		}
		return err
	})
	if err != nil {
		return domain.StoredResponse{}, fmt.Errorf("upsert response: %w", err)
	}
	return out.toDomain(), nil
}

func (r *ResponseRepository) GetByKey(ctx context.Context, playerID, questionID int64) (domain.StoredResponse, error) {
	var row responseRow
	err := r.db.NewSelect().Model(&row).
		Where("r.player_id = ? AND r.question_id = ?", playerID, questionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StoredResponse{}, domain.ErrResponseNotFound
	}
	if err != nil {
		return domain.StoredResponse{}, fmt.Errorf("get response: %w", err)
	}
	return row.toDomain(), nil
}

func (r *ResponseRepository) ListByPlayer(ctx context.Context, playerID int64, liked *bool) ([]domain.StoredResponse, error) {
	var rows []responseRow
	q := r.db.NewSelect().Model(&rows).
		Where("r.player_id = ?", playerID).
		Order("question_id ASC")
	if liked != nil {
		q = q.Where("r.liked = ?", *liked)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	out := make([]domain.StoredResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ResponseRepository) SetLiked(ctx context.Context, playerID, questionID int64, liked bool) (domain.StoredResponse, error) {
	var row responseRow
	res, err := r.db.NewUpdate().Model(&row).
		Set("liked = ?", liked).
		Set("updated_at = ?", time.Now()).
		Where("player_id = ? AND question_id = ?", playerID, questionID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.StoredResponse{}, fmt.Errorf("set liked: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.StoredResponse{}, domain.ErrResponseNotFound
	}
	return row.toDomain(), nil
}
