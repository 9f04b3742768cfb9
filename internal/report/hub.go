package report

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Message is the envelope pushed to every connected client, adapted from
// the teacher's websocket hub message shape (Type + Data).
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan Message
}

// Hub broadcasts convergence Records to every connected live-progress
// client (spec.md §6's display sink — no TUI is built here, per the
// Non-goals in spec.md §1, but the transport is real and independently
// testable). Adapted from the teacher's internal/websocket hub: a
// register/unregister channel pair feeding a single broadcast goroutine
// so client-set mutation never races with the broadcast loop.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool

	register   chan *client
	unregister chan *client
	broadcast  chan Message
}

// NewHub constructs a Hub. Call Run in its own goroutine before serving
// HandleWebSocket requests.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Message, 64),
	}
}

// Run drives the hub's register/unregister/broadcast loop until the
// hub's broadcast channel is closed.
func (h *Hub) Run() {
	for {
		select {
		case c, ok := <-h.register:
			if !ok {
				return
			}
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case msg, ok := <-h.broadcast:
			if !ok {
				return
			}
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					log.Warn().Msg("report: client send buffer full, dropping message")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// HandleWebSocket upgrades r into a live-progress connection.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("report: websocket upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan Message, 16)}
	h.register <- c

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (h *Hub) readPump(c *client) {
	defer func() { h.unregister <- c }()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Emit implements Sink by broadcasting r as a Message.
func (h *Hub) Emit(r Record) {
	select {
	case h.broadcast <- Message{Type: "resource_report", Data: r}:
	default:
		log.Warn().Msg("report: broadcast channel full, dropping record")
	}
}
