package infrastructure

import (
	"encoding/json"
	"log/slog"
	"sync"

	"customerSyncWs/internal/modules/realtime/domain"
)

// Hub is the connection registry: the single owner of every live Client.
// The transport loops, the command handlers, the fanout router, and the
// reaper all race on the same entries, so every mutation and iteration is
// serialized behind one lock.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	topics  map[string]map[*Client]struct{}
}

// NewHub returns an empty registry.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		topics:  make(map[string]map[*Client]struct{}),
	}
}

// Attach registers a freshly accepted connection: unauthenticated, no
// subscriptions, alive.
func (h *Hub) Attach(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	slog.Info("connection attached", slog.String("connectionId", c.id))
}

// Subscribe adds the client to a subscription key. Ownership is not
// enforced here; commands that mutate data check the binding at command
// time instead.
func (h *Hub) Subscribe(c *Client, key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.topics[key] == nil {
		h.topics[key] = make(map[*Client]struct{})
	}
	h.topics[key][c] = struct{}{}
	c.subscribed[key] = struct{}{}
}

// Unsubscribe removes the key; removing an absent key is a no-op.
func (h *Hub) Unsubscribe(c *Client, key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.topics[key]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, key)
		}
	}
	delete(c.subscribed, key)
}

// IsSubscribed reports whether the client currently holds the key.
func (h *Hub) IsSubscribed(c *Client, key string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := c.subscribed[key]
	return ok
}

// Detach removes the connection from the registry and closes it. Safe to
// call more than once; used on transport close, reaper termination, and
// shutdown alike.
func (h *Hub) Detach(c *Client) {
	if c == nil {
		return
	}
	h.mu.Lock()
	for key := range c.subscribed {
		if subs, ok := h.topics[key]; ok {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.topics, key)
			}
		}
	}
	c.subscribed = make(map[string]struct{})
	_, registered := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()

	c.close()
	if registered {
		slog.Info("connection detached", slog.String("connectionId", c.id))
	}
}

// Broadcast delivers one frame per matching connection. A connection
// matches on the derived topic, or on the bare event type for subscribers
// watching every entity of a kind; each client receives at most one frame
// per publish. Enqueueing is non-blocking, so a slow or dead peer cannot
// stall delivery to the rest.
func (h *Hub) Broadcast(eventType, topic string, data any) {
	frame := domain.NewFrame(eventType, data)
	raw, err := json.Marshal(frame)
	if err != nil {
		slog.Error("broadcast marshal error", slog.String("eventType", eventType), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	var stalled []*Client
	seen := make(map[*Client]struct{})
	for _, key := range []string{topic, eventType} {
		for c := range h.topics[key] {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			if c.trySend(raw) == sendFull {
				stalled = append(stalled, c)
			}
		}
		if topic == eventType {
			break
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		slog.Warn("connection not draining, detaching", slog.String("connectionId", c.id))
		go h.Detach(c)
	}
}

// Clients snapshots the registry for the reaper.
func (h *Hub) Clients() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

// Len reports the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown detaches every connection; used on graceful stop.
func (h *Hub) Shutdown() {
	for _, c := range h.Clients() {
		h.Detach(c)
	}
}
