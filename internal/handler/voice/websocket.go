package voice

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/voicerelay/backend/internal/service/session"
)

const (
	readWait     = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Handler upgrades voice connections and hands each one to its own session
// machine. The registry entry lives exactly as long as the connection.
type Handler struct {
	registry *session.Registry
	upgrader websocket.Upgrader
}

// New creates the voice WebSocket handler. A nil registry means the voice
// pipeline is not configured; connections are refused with 503.
func New(registry *session.Registry) *Handler {
	return &Handler{
		registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the voice endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/voice", h.handleVoice)
}

func (h *Handler) handleVoice(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		http.Error(w, "voice pipeline unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})

	go h.pingLoop(ctx, conn)
	go func() {
		// Unblocks a read waiting for the next inbound unit when the server
		// shuts down.
		<-ctx.Done()
		conn.Close()
	}()

	machine := h.registry.Create(newTransport(conn))
	defer h.registry.Remove(machine.ID())

	log.Printf("[websocket] new voice connection session=%s", machine.ID())
	machine.Run(ctx)
	log.Printf("[websocket] voice connection closed session=%s", machine.ID())
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
