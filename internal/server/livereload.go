package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/norgolith/norgolith/internal/log"
)

// liveReloadMessage is the wire shape of every server -> client frame on
// the /__livereload channel, per SPEC_FULL.md §6.
type liveReloadMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// Broadcaster fans reload/error notifications out to every connected
// live-reload WebSocket client. Grounded on dalemusser-waffle's
// pantry/websocket wrapper: websocket.Accept, a mutex-guarded write path,
// and StatusGoingAway-style closes on shutdown.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	logger  log.Logger
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster(logger log.Logger) *Broadcaster {
	if logger == nil {
		logger = log.Nop()
	}
	return &Broadcaster{clients: map[*websocket.Conn]struct{}{}, logger: logger}
}

// Handler upgrades a request to the live-reload WebSocket and blocks
// until the client disconnects; disconnecting clients are dropped
// without further bookkeeping (§6).
func (b *Broadcaster) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		b.logger.Warn("live-reload accept failed", "error", err.Error())
		return
	}

	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.clients, conn)
		b.mu.Unlock()
	}()

	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}
	}
}

// BroadcastReload sends {"type":"reload"} to every connected client.
func (b *Broadcaster) BroadcastReload(ctx context.Context) {
	b.broadcast(ctx, liveReloadMessage{Type: "reload"})
}

// BroadcastError sends {"type":"error","message":"…"} to every connected
// client, used for a persistent build error (§7).
func (b *Broadcaster) BroadcastError(ctx context.Context, message string) {
	b.broadcast(ctx, liveReloadMessage{Type: "error", Message: message})
}

func (b *Broadcaster) broadcast(ctx context.Context, msg liveReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for c := range b.clients {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	for _, c := range conns {
		if err := c.Write(ctx, websocket.MessageText, data); err != nil {
			b.logger.Debug("live-reload write failed, dropping client", "error", err.Error())
		}
	}
}

// Shutdown closes every connected client with code 1001 (Going Away).
func (b *Broadcaster) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		c.Close(websocket.StatusGoingAway, "server shutting down")
		delete(b.clients, c)
	}
}
