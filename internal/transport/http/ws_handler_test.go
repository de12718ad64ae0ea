package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"smartplay-service/internal/domain"
)

func TestWebSocketLeaderboardFeed(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "ada")

	resp := env.do(t, token, http.MethodPost, "/questions", map[string]string{
		"theme": "survival",
		"text":  "A storm is coming. What do you do?",
	})
	var question struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, resp, &question)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	u := "ws" + env.server.URL[len("http"):] + "/leaderboard/live"
	conn, _, err := websocket.DefaultDialer.Dial(u, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot arrives before any scoring.
	board := readBoard(conn, t)
	if len(board.Entries) != 1 {
		t.Fatalf("expected one registered player, got %d entries", len(board.Entries))
	}
	if board.Entries[0].Score != 0 {
		t.Fatalf("expected zero score before answering, got %d", board.Entries[0].Score)
	}

	answer := env.do(t, token, http.MethodPost, "/responses/answer", map[string]any{
		"question_id": question.ID,
		"answer_text": "Find shelter before it hits.",
	})
	answer.Body.Close()
	if answer.StatusCode != http.StatusOK {
		t.Fatalf("submit answer status %d", answer.StatusCode)
	}

	board = readBoard(conn, t)
	if board.Entries[0].Score != 4 {
		t.Fatalf("expected pushed score 4, got %d", board.Entries[0].Score)
	}
}

func TestWebSocketRejectsAnonymous(t *testing.T) {
	env := newTestEnv(t)

	u := "ws" + env.server.URL[len("http"):] + "/leaderboard/live"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %+v", resp)
	}
}

func readBoard(conn *websocket.Conn, t *testing.T) domain.Leaderboard {
	t.Helper()
	var msg struct {
		Type    string             `json:"type"`
		Payload domain.Leaderboard `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "leaderboard" {
		t.Fatalf("expected leaderboard message, got %s", msg.Type)
	}
	return msg.Payload
}
