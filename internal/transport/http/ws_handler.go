package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"smartplay-service/internal/app"
	"smartplay-service/internal/domain"
)

// WSHandler streams leaderboard snapshots to connected clients.
type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type boardMessage struct {
	Type    string             `json:"type"`
	Payload domain.Leaderboard `json:"payload"`
}

// Serve upgrades the request, sends the current scoreboard, then pushes every
// update until the client disconnects.
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	current, updates, cancel, err := h.service.SubscribeLeaderboard(c.Request.Context())
	if err != nil {
		_ = conn.WriteJSON(gin.H{"type": "error", "payload": gin.H{"message": "leaderboard unavailable"}})
		return
	}
	defer cancel()

	if err := conn.WriteJSON(boardMessage{Type: "leaderboard", Payload: current}); err != nil {
		return
	}

	// Reader goroutine exists only to notice the peer closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(boardMessage{Type: "leaderboard", Payload: update}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}
