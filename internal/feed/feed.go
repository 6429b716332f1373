// Package feed streams session snapshots to websocket clients and passes
// their control commands back to the loop.
package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/derekprior/courtsim/internal/driver"
	"github.com/derekprior/courtsim/internal/schedule"
)

// CommandSink accepts commands parsed from client messages.
type CommandSink interface {
	Send(ctx context.Context, cmd driver.Command) error
}

// Message is the envelope for everything the hub writes to a client.
type Message struct {
	Type     string             `json:"type"` // "snapshot" or "error"
	Snapshot *schedule.Snapshot `json:"snapshot,omitempty"`
	Error    string             `json:"error,omitempty"`
}

const sendBuffer = 32

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub is an http.Handler that upgrades every request to a websocket.
type Hub struct {
	log      zerolog.Logger
	sink     CommandSink
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	closed  bool
}

func NewHub(sink CommandSink, log zerolog.Logger) *Hub {
	return &Hub{
		log:  log,
		sink: sink,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish sends snap to every connected client. Clients too slow to keep
// up are disconnected.
func (h *Hub) Publish(snap schedule.Snapshot) {
	msg, err := json.Marshal(Message{Type: "snapshot", Snapshot: &snap})
	if err != nil {
		h.log.Error().Err(err).Msg("encoding snapshot")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("client too slow, dropping")
			h.removeLocked(c)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.log.Debug().Err(err).Msg("unable to upgrade connection")
		return
	}
	h.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.add(c) {
		conn.Close()
		return
	}
	go h.write(c)
	h.read(r.Context(), c)
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// write owns all writes to the connection.
func (h *Hub) write(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Debug().Err(err).Msg("write failed")
			h.remove(c)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) read(ctx context.Context, c *client) {
	defer h.remove(c)
	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			h.log.Info().Str("remote", c.conn.RemoteAddr().String()).Msg("client disconnected")
			return
		}
		if typ != websocket.TextMessage {
			continue
		}

		cmd, err := driver.ParseCommand(string(data))
		if err == nil {
			err = h.sink.Send(ctx, cmd)
		}
		if err != nil {
			h.reply(c, err)
		}
	}
}

func (h *Hub) reply(c *client, err error) {
	msg, _ := json.Marshal(Message{Type: "error", Error: err.Error()})

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
