package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/framewatch/framewatch/internal/log"
)

// Hub maintains the set of active clients and fans broadcast messages
// out to them. Slow clients are dropped rather than allowed to stall the
// processing loop that feeds the hub.
type Hub struct {
	name   string
	logger *slog.Logger

	clients map[*Client]bool

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client

	// done is closed when Run returns so clients blocked on register
	// or unregister can give up instead of leaking.
	done chan struct{}

	// mu guards clients for the count snapshot; the run loop is the
	// only mutator.
	mu sync.RWMutex
}

// New creates a hub. Run must be started before clients connect.
func New(name string) *Hub {
	return &Hub{
		name:       name,
		logger:     log.With("component", "hub", "stream", name),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run executes the hub loop until ctx is cancelled, then closes every
// client. Call in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			// Closing done (deferred) tells the write pumps to send
			// their close frames; the send channels stay open so a
			// concurrent replay Queue cannot hit a closed channel.
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client connected", "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", "clients", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Send buffer full: the client cannot keep up
					// with the frame stream.
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("dropped slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a message for all connected clients. Never blocks;
// when the hub itself is backed up the message is dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// BroadcastJSON encodes and broadcasts a JSON message.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// BroadcastBinary broadcasts binary data, used for JPEG frames.
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
