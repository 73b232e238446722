package bridge

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/echo-gravitas/openhamclock/pkg/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket mirrors the push stream over a websocket for
// dashboard clients that prefer it to server-sent events. Same
// contract: one init message, then per-field updates.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Debugf("bridge", "websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch, cancel := s.store.Subscribe()
	defer cancel()

	// drain client frames so close/ping handling works; the bridge
	// never reads commands over the socket
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	snap := s.store.Snapshot()
	init := gin.H{
		"type":      "init",
		"connected": snap.Connected,
		"freq":      snap.Frequency,
		"mode":      snap.Mode,
		"width":     snap.Width,
		"ptt":       snap.PTT,
	}
	if err := conn.WriteJSON(init); err != nil {
		return
	}

	for change := range ch {
		event := gin.H{"type": "update", "prop": change.Prop, "value": change.Value}
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}
