package ws

import (
	"context"
	"sync"

	"scamfeed/internal/domain"
	"scamfeed/internal/logger"
)

// Hub fans feed events out to every connected client.
type Hub struct {
	clients    map[*Client]struct{}
	mu         sync.RWMutex
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	// done is closed when Run returns
	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is done, then closes all clients.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			logger.Debug("ws client registered", "user_id", c.UserID, "clients", h.Count())

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for c := range h.clients {
				select {
				case c.Send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			// a client that cannot keep up is dropped rather than block the feed
			for _, c := range slow {
				logger.Warn("ws client too slow, disconnecting", "user_id", c.UserID)
				h.remove(c)
			}

		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.Send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PostCreated broadcasts a new post. It never blocks the caller.
func (h *Hub) PostCreated(p *domain.Post) {
	msg, err := encode(MsgPostCreated, PostCreatedPayload{Post: p, CreatedAt: p.CreatedAt})
	if err != nil {
		logger.Error("encode post_created", "error", err, "post_id", p.ID)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		logger.Warn("ws broadcast queue full, dropping event", "post_id", p.ID)
	}
}
