package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"minigames/internal/domain"
	"minigames/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
	sendBuffer = 64
)

// Subscribe upgrades to WebSocket and pushes every committed snapshot of
// the room, redacted for the viewer named by the player_id query param.
// Snapshots arrive in commit order; the first frame is the current state so
// the client can render before the first push.
func (h *Handler) Subscribe(c *gin.Context) {
	roomID := c.Param("id")
	playerID := c.Query("player_id")

	cur, err := h.Manager.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		writeError(c, err)
		return
	}

	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("ws upgrade failed", "room_id", roomID, "error", err)
		return
	}

	// send stays open for the life of the process; writePump exits via
	// done instead, so a straggling callback can never hit a closed channel.
	send := make(chan []byte, sendBuffer)
	done := make(chan struct{})
	queue := func(r domain.Room) {
		data, err := json.Marshal(viewFor(r, playerID))
		if err != nil {
			return
		}
		select {
		case send <- data:
		default:
			// Slow consumer: drop this snapshot, a newer one follows.
		}
	}

	sub, err := h.Manager.Subscribe(c.Request.Context(), roomID, queue)
	if err != nil {
		_ = conn.Close()
		return
	}

	queue(cur)

	go writePump(conn, send, done)

	// Read pump: the subscribe socket is push-only, inbound frames are
	// discarded. A read error means the client went away.
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	sub.Unsubscribe()
	close(done)
}

func writePump(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
