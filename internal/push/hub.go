// Package push is the realtime notification channel. It replaces a
// module-global socket handle with an injected Broadcaster so the workflow
// layer never touches transport state directly.
package push

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Broadcaster is the fire-and-forget push collaborator. Neither method
// reports delivery: a dropped client or a full queue loses the message.
type Broadcaster interface {
	EmitToUser(userID int64, event string, data any)
	EmitToAll(event string, data any)
}

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan envelope
}

// Hub keeps one room per authenticated user, mirroring the per-user rooms of
// the web frontend.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*client]struct{}

	upgrader websocket.Upgrader
	log      *zerolog.Logger
}

func NewHub(log *zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// ServeWS upgrades the request and keeps the connection registered in the
// caller's room until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID int64) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Int64("user_id", userID).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan envelope, 16)}

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()

	h.log.Info().Int64("user_id", userID).Msg("websocket client connected")

	go h.writePump(c)
	h.readPump(c, userID)
}

func (h *Hub) readPump(c *client, userID int64) {
	defer func() {
		h.mu.Lock()
		delete(h.clients[userID], c)
		if len(h.clients[userID]) == 0 {
			delete(h.clients, userID)
		}
		h.mu.Unlock()
		close(c.send)
		_ = c.conn.Close()
		h.log.Info().Int64("user_id", userID).Msg("websocket client disconnected")
	}()

	c.conn.SetReadLimit(512)
	for {
		// Clients do not send application messages; the read loop only
		// notices closes.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (h *Hub) EmitToUser(userID int64, event string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		h.deliver(c, envelope{Event: event, Data: data})
	}
}

func (h *Hub) EmitToAll(event string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, room := range h.clients {
		for c := range room {
			h.deliver(c, envelope{Event: event, Data: data})
		}
	}
}

func (h *Hub) deliver(c *client, msg envelope) {
	select {
	case c.send <- msg:
	default:
		// Slow consumer; drop rather than block the workflow.
	}
}
