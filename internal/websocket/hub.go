package websocket

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/instaprep/instaprep-backend/internal/model"
)

// Conn wraps a websocket connection with a write lock. The read loop and the
// hub's pushes write concurrently, and gorilla connections allow only one
// writer at a time.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// NewConn wraps a raw websocket connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// Write sends a typed payload under the write lock.
func (c *Conn) Write(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return WriteTyped(c.ws, v)
}

// WriteError sends a typed ErrorResponse.
func (c *Conn) WriteError(errMsg string) error {
	return c.Write(ErrorResponse{Event: EventError, Error: errMsg})
}

// Read decodes the next client message.
func (c *Conn) Read(v interface{}) error {
	return ReadJSON(c.ws, v)
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	return c.ws.Close()
}

// Hub fans server-side session events out to the connections watching each
// session. A session normally has one connection, but a reconnect can
// briefly overlap with a dying socket, so the hub keeps a set.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*Conn]struct{}
	log   zerolog.Logger
}

// NewHub creates an empty Hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		conns: make(map[string]map[*Conn]struct{}),
		log:   log.With().Str("component", "ws_hub").Logger(),
	}
}

// Register attaches a connection to a session's fan-out set.
func (h *Hub) Register(sessionID string, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[sessionID]
	if !ok {
		set = make(map[*Conn]struct{})
		h.conns[sessionID] = set
	}
	set[conn] = struct{}{}
}

// Unregister detaches a connection. The caller closes the socket.
func (h *Hub) Unregister(sessionID string, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[sessionID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, sessionID)
		}
	}
}

func (h *Hub) broadcast(sessionID string, v interface{}) {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns[sessionID]))
	for conn := range h.conns[sessionID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.Write(v); err != nil {
			h.log.Debug().Err(err).Str("session_id", sessionID).Msg("Push write failed")
		}
	}
}

// Warning pushes a warning increment.
func (h *Hub) Warning(sessionID string, count, threshold int, reason string) {
	h.broadcast(sessionID, WarningResponse{
		Event:     EventWarning,
		Count:     count,
		Threshold: threshold,
		Reason:    reason,
	})
}

// Expired pushes timer expiry.
func (h *Hub) Expired(sessionID string) {
	h.broadcast(sessionID, ExpiredResponse{Event: EventExpired})
}

// Finalized pushes the graded outcome.
func (h *Hub) Finalized(sessionID string, attempt model.TestAttempt) {
	h.broadcast(sessionID, FinalizedResponse{
		Event:                  EventFinalized,
		AttemptID:              attempt.ID.String(),
		Status:                 string(attempt.Status),
		Score:                  attempt.Score,
		Feedback:               attempt.Feedback,
		DisqualificationReason: attempt.DisqualificationReason,
		WarningCount:           attempt.WarningCount,
	})
}
