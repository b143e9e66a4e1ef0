package services

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

const pushWriteWait = 10 * time.Second

// Conn is the slice of a websocket connection the hub uses. Satisfied by
// *websocket.Conn.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// client wraps one connection with its write mutex. Websocket writes
// allow a single concurrent writer per connection.
type client struct {
	conn Conn
	mu   sync.Mutex
}

// Hub tracks open websocket connections per user and pushes new portal
// messages to them as they arrive. Delivery is best-effort: a user with
// no open connection simply fetches on next load.
type Hub struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]map[Conn]*client
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uuid.UUID]map[Conn]*client)}
}

func (h *Hub) Register(userID uuid.UUID, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[Conn]*client)
	}
	h.conns[userID][c] = &client{conn: c}
}

func (h *Hub) Unregister(userID uuid.UUID, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
}

// Push sends an event to every open connection of one user. The registry
// lock is released before any network write; writes are serialized per
// connection and bounded by a deadline, and a connection that fails its
// write is dropped.
func (h *Hub) Push(userID uuid.UUID, event string, payload interface{}) {
	body, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  payload,
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.conns[userID]))
	for _, cl := range h.conns[userID] {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		cl.mu.Lock()
		cl.conn.SetWriteDeadline(time.Now().Add(pushWriteWait))
		err := cl.conn.WriteMessage(websocket.TextMessage, body)
		cl.mu.Unlock()

		if err != nil {
			slog.Debug("Websocket push failed, dropping connection", "user_id", userID, "error", err)
			h.Unregister(userID, cl.conn)
			cl.conn.Close()
		}
	}
}

// Online reports whether the user has at least one open connection.
func (h *Hub) Online(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}
