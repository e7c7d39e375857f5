package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mollybeach/ai-rug-checker/internal/risk"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// hub fans assessments out to connected WebSocket clients. Only run writes
// data frames, so each connection has a single writer.
type hub struct {
	upgrader websocket.Upgrader
	metrics  MetricsInterface

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub(metrics MetricsInterface) *hub {
	return &hub{
		upgrader: websocket.Upgrader{
			HandshakeTimeout: writeWait,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
		metrics: metrics,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	h.add(conn)
	defer h.remove(conn)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// The feed is one-way; reading only detects the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("WebSocket client dropped")
			}
			return
		}
	}
}

// run broadcasts until ctx ends or feed closes.
func (h *hub) run(ctx context.Context, feed <-chan risk.Assessment) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case a, ok := <-feed:
			if !ok {
				return
			}
			h.broadcast(a)
		case <-ticker.C:
			h.ping()
		}
	}
}

func (h *hub) broadcast(a risk.Assessment) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(a); err != nil {
			log.Warn().Err(err).Msg("Failed to send assessment to WebSocket client")
			h.dropLocked(conn)
		}
	}
}

func (h *hub) ping() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
			h.dropLocked(conn)
		}
	}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.report(n)
	log.Info().Str("remote", conn.RemoteAddr().String()).Int("clients", n).Msg("WebSocket client connected")
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	h.dropLocked(conn)
	h.mu.Unlock()
}

func (h *hub) dropLocked(conn *websocket.Conn) {
	if _, ok := h.clients[conn]; !ok {
		return
	}
	delete(h.clients, conn)
	conn.Close()
	h.report(len(h.clients))
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		h.dropLocked(conn)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) report(n int) {
	if h.metrics != nil {
		h.metrics.WSClientsSet(n)
	}
}
