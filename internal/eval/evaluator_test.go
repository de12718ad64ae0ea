package eval

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartplay-service/internal/domain"
)

const cannedReply = `The plan is clear and immediate. It adapts to the tools at hand. ` +
	`It shows awareness of the risks to others. The consequences are survivable. {"verdict":"GOOD","score":4}`

func TestEvaluateCacheReuseSamePlayer(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{reply: cannedReply}
	store := newFakeStore()
	evaluator := NewEvaluator(client, store)

	req := Request{PlayerID: 1, QuestionID: 10, QuestionText: "You're lost at night.", AnswerText: "I boil the water to purify it.", Theme: "survival"}

	first, cached, err := evaluator.Evaluate(ctx, req)
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	if cached {
		t.Fatalf("first call should miss the cache")
	}
	if first.Verdict != domain.VerdictGood || first.Score != 4 {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second, cached, err := evaluator.Evaluate(ctx, req)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if !cached {
		t.Fatalf("second call should hit the cache")
	}
	if client.calls != 1 {
		t.Fatalf("expected exactly one model call, got %d", client.calls)
	}
	if second.Score != first.Score || second.EvaluationText != first.EvaluationText {
		t.Fatalf("cached result diverged: %+v vs %+v", second, first)
	}
	if len(store.rows) != 1 {
		t.Fatalf("expected one stored row, got %d", len(store.rows))
	}
}

func TestEvaluateCacheReuseAcrossPlayers(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{reply: cannedReply}
	store := newFakeStore()
	evaluator := NewEvaluator(client, store)

	base := Request{QuestionID: 10, QuestionText: "You're lost at night.", AnswerText: "I boil the water to purify it.", Theme: "survival"}

	first := base
	first.PlayerID = 1
	if _, _, err := evaluator.Evaluate(ctx, first); err != nil {
		t.Fatalf("first evaluate: %v", err)
	}

	second := base
	second.PlayerID = 2
	resp, cached, err := evaluator.Evaluate(ctx, second)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if !cached {
		t.Fatalf("identical text pair should reuse the stored evaluation")
	}
	if client.calls != 1 {
		t.Fatalf("expected the model call counter to stay at 1, got %d", client.calls)
	}
	if resp.PlayerID != 2 || resp.Score != 4 {
		t.Fatalf("second player should get their own row with the cached score, got %+v", resp)
	}
	if len(store.rows) != 2 {
		t.Fatalf("expected a row per player, got %d", len(store.rows))
	}
}

func TestEvaluateMatchesByQuestionText(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{reply: cannedReply}
	store := newFakeStore()
	store.questionTexts[10] = "You're lost at night."
	evaluator := NewEvaluator(client, store)

	if _, _, err := evaluator.Evaluate(ctx, Request{PlayerID: 1, QuestionID: 10, QuestionText: "You're lost at night.", AnswerText: "I wait for dawn.", Theme: "survival"}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	// Same question text under a different id still hits the cache.
	_, cached, err := evaluator.Evaluate(ctx, Request{PlayerID: 1, QuestionID: 99, QuestionText: "You're lost at night.", AnswerText: "I wait for dawn.", Theme: "survival"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !cached || client.calls != 1 {
		t.Fatalf("expected textual question match to reuse the evaluation, cached=%v calls=%d", cached, client.calls)
	}
}

func TestEvaluateTransportFallback(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{err: &ModelCallError{Err: errors.New("connection refused")}}
	store := newFakeStore()
	evaluator := NewEvaluator(client, store)

	resp, cached, err := evaluator.Evaluate(ctx, Request{PlayerID: 1, QuestionID: 10, QuestionText: "q", AnswerText: "a", Theme: "work"})
	if err != nil {
		t.Fatalf("transport failure must not surface: %v", err)
	}
	if cached {
		t.Fatalf("fallback is not a cache hit")
	}
	if resp.Verdict != domain.VerdictBad || resp.Score != 0 || resp.EvaluationText != "" {
		t.Fatalf("expected BAD/0 with empty text, got %+v", resp)
	}
}

func TestEvaluateMalformedFallback(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{reply: "I refuse to answer in the requested format."}
	store := newFakeStore()
	evaluator := NewEvaluator(client, store)

	resp, _, err := evaluator.Evaluate(ctx, Request{PlayerID: 1, QuestionID: 10, QuestionText: "q", AnswerText: "a", Theme: "work"})
	if err != nil {
		t.Fatalf("malformed reply must not surface: %v", err)
	}
	if resp.Verdict != domain.VerdictBad || resp.Score != 1 {
		t.Fatalf("expected BAD/1 fallback, got %+v", resp)
	}
	if resp.EvaluationText != "I refuse to answer in the requested format." {
		t.Fatalf("prose from the reply should be kept, got %q", resp.EvaluationText)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	ctx := context.Background()
	req := Request{PlayerID: 1, QuestionID: 10, QuestionText: "q", AnswerText: "a", Theme: "interview"}

	run := func() domain.StoredResponse {
		evaluator := NewEvaluator(&fakeClient{reply: cannedReply}, newFakeStore())
		resp, _, err := evaluator.Evaluate(ctx, req)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		return resp
	}

	first, second := run(), run()
	if first.Verdict != second.Verdict || first.Score != second.Score || first.EvaluationText != second.EvaluationText {
		t.Fatalf("identical inputs diverged: %+v vs %+v", first, second)
	}
}

func TestEvaluateStorageErrorPropagates(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.failWith = errors.New("connection reset")
	evaluator := NewEvaluator(&fakeClient{reply: cannedReply}, store)

	if _, _, err := evaluator.Evaluate(ctx, Request{PlayerID: 1, QuestionID: 10, QuestionText: "q", AnswerText: "a"}); err == nil {
		t.Fatalf("storage failures must surface to the caller")
	}
}

type fakeClient struct {
	reply      string
	err        error
	calls      int
	lastSystem string
	lastUser   string
}

func (c *fakeClient) Chat(_ context.Context, system, user string) (string, error) {
	c.calls++
	c.lastSystem = system
	c.lastUser = user
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

type responseKey struct {
	playerID   int64
	questionID int64
}

type fakeStore struct {
	rows          map[responseKey]domain.StoredResponse
	questionTexts map[int64]string
	failWith      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:          make(map[responseKey]domain.StoredResponse),
		questionTexts: make(map[int64]string),
	}
}

func (s *fakeStore) FindByAnswerText(_ context.Context, answerText string, questionID int64, questionText string) (*domain.StoredResponse, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	for _, row := range s.rows {
		if row.AnswerText != answerText || row.EvaluationText == "" {
			continue
		}
		if row.QuestionID == questionID || (questionText != "" && s.questionTexts[row.QuestionID] == questionText) {
			found := row
			return &found, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Upsert(_ context.Context, playerID, questionID int64, answerText string, score int, verdict domain.Verdict, evaluationText string) (domain.StoredResponse, error) {
	if s.failWith != nil {
		return domain.StoredResponse{}, s.failWith
	}
	key := responseKey{playerID, questionID}
	now := time.Now()
	row, ok := s.rows[key]
	if !ok {
		row = domain.StoredResponse{PlayerID: playerID, QuestionID: questionID, CreatedAt: now}
	}
	row.AnswerText = answerText
	row.Score = score
	row.Verdict = verdict
	row.EvaluationText = evaluationText
	row.UpdatedAt = now
	s.rows[key] = row
	return row, nil
}
