package eval

import (
	"context"
	"fmt"
	"log"

	"smartplay-service/internal/domain"
)

// ResponseStore is the narrow storage contract the evaluator depends on.
// FindByAnswerText returns (nil, nil) when no prior evaluation matches;
// a non-nil error always means the storage layer itself failed.
type ResponseStore interface {
	FindByAnswerText(ctx context.Context, answerText string, questionID int64, questionText string) (*domain.StoredResponse, error)
	Upsert(ctx context.Context, playerID, questionID int64, answerText string, score int, verdict domain.Verdict, evaluationText string) (domain.StoredResponse, error)
}

// Request carries one answer through the pipeline.
type Request struct {
	PlayerID     int64
	QuestionID   int64
	QuestionText string
	AnswerText   string
	Theme        string
}

// Fallback scores for the two failure paths. An unreachable judge awards
// nothing; a judge that replied but produced unusable output awards one
// point, keeping whatever prose it did produce.
const (
	transportFallbackScore = 0
	malformedFallbackScore = 1
)

// Evaluator drives the grading pipeline: cache lookup, prompt construction,
// model call, reply parsing, fallback policy, and persistence.
type Evaluator struct {
	client ModelClient
	store  ResponseStore
}

func NewEvaluator(client ModelClient, store ResponseStore) *Evaluator {
	return &Evaluator{client: client, store: store}
}

// Evaluate grades one answer and returns the persisted response row along
// with whether the evaluation was served from cache. Identical
// (question, answer-text) pairs reuse a stored evaluation regardless of which
// player produced it, so repeated submissions never re-invoke the model.
//
// Model failures of any kind degrade to a fixed BAD/low-score result instead
// of propagating; storage failures do propagate, because silently dropping a
// player's answer would report a false success.
//
// Two concurrent misses for the same pair may both call the model and the
// later write wins. That race is accepted; there is no per-key deduplication.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (domain.StoredResponse, bool, error) {
	hit, err := e.store.FindByAnswerText(ctx, req.AnswerText, req.QuestionID, req.QuestionText)
	if err != nil {
		return domain.StoredResponse{}, false, fmt.Errorf("evaluation cache lookup: %w", err)
	}
	if hit != nil {
		if hit.PlayerID == req.PlayerID && hit.QuestionID == req.QuestionID {
			return *hit, true, nil
		}
		// Another player's evaluation of the identical text pair: reuse the
		// verdict and prose, but this player still gets their own row.
		cached := hit.Evaluation()
		resp, err := e.store.Upsert(ctx, req.PlayerID, req.QuestionID, req.AnswerText, cached.Score, cached.Verdict, cached.Text)
		if err != nil {
			return domain.StoredResponse{}, false, fmt.Errorf("persist cached evaluation: %w", err)
		}
		return resp, true, nil
	}

	result := e.judge(ctx, req)

	resp, err := e.store.Upsert(ctx, req.PlayerID, req.QuestionID, req.AnswerText, result.Score, result.Verdict, result.Text)
	if err != nil {
		return domain.StoredResponse{}, false, fmt.Errorf("persist evaluation: %w", err)
	}
	return resp, false, nil
}

// judge runs prompt -> model -> parse and applies the fallback policy. It
// never returns an error: every failure maps to a deterministic BAD result.
func (e *Evaluator) judge(ctx context.Context, req Request) domain.Evaluation {
	system := BuildSystemPrompt(req.Theme)
	user := BuildUserMessage(req.Theme, req.QuestionText, req.AnswerText)

	raw, err := e.client.Chat(ctx, system, user)
	if err != nil {
		log.Printf("model call failed for question %d, using fallback: %v", req.QuestionID, err)
		return domain.Evaluation{Verdict: domain.VerdictBad, Score: transportFallbackScore}
	}

	parsed := Parse(raw)
	if !parsed.Valid() {
		log.Printf("model reply for question %d had no usable verdict/score, using fallback", req.QuestionID)
		return domain.Evaluation{Text: parsed.Text, Verdict: domain.VerdictBad, Score: malformedFallbackScore}
	}
	return domain.Evaluation{Text: parsed.Text, Verdict: *parsed.Verdict, Score: *parsed.Score}
}
