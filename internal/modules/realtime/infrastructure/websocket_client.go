package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"customerSyncWs/internal/modules/realtime/domain"
)

const (
	readLimit   = 1 << 16
	readWait    = 60 * time.Second
	controlWait = 5 * time.Second
)

// Client is one live bidirectional connection. The hub owns its lifetime;
// nothing else holds a reference past a single dispatch call. boundCustomerID
// is set at most once by an authenticate command and immutable afterwards.
type Client struct {
	id       string
	hub      *Hub
	conn     *websocket.Conn
	commands *CommandProcessor

	mu     sync.Mutex
	send   chan []byte
	closed bool

	customerID atomic.Value // string, set at most once
	// subscribed is guarded by the hub's lock together with the topic maps.
	subscribed map[string]struct{}

	// alive is refreshed only by the transport pong handler, never by the
	// application-level ping command.
	alive     atomic.Bool
	closeOnce sync.Once
}

// NewClient registers nothing; callers attach the client to the hub after
// construction.
func NewClient(hub *Hub, conn *websocket.Conn, buffer int, commands *CommandProcessor) *Client {
	if buffer <= 0 {
		buffer = 8
	}
	c := &Client{
		id:         uuid.NewString(),
		hub:        hub,
		conn:       conn,
		commands:   commands,
		send:       make(chan []byte, buffer),
		subscribed: make(map[string]struct{}),
	}
	c.alive.Store(true)
	return c
}

// ID returns the connection id.
func (c *Client) ID() string { return c.id }

// BoundCustomerID returns the customer binding, empty until authenticated.
func (c *Client) BoundCustomerID() string {
	if v, ok := c.customerID.Load().(string); ok {
		return v
	}
	return ""
}

// Bind sets the customer binding once; rebinding is rejected.
func (c *Client) Bind(customerID string) error {
	if !c.customerID.CompareAndSwap(nil, customerID) {
		return domain.ErrAlreadyAuthenticated
	}
	return nil
}

// Alive reports whether the connection answered the last liveness probe.
func (c *Client) Alive() bool { return c.alive.Load() }

// probe sends a transport-level ping. A connection that never answers is
// terminated by the reaper on its next tick.
func (c *Client) probe() {
	if c.conn == nil {
		return
	}
	if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(controlWait)); err != nil {
		slog.Warn("liveness probe failed", slog.String("connectionId", c.id), slog.Any("error", err))
	}
}

// SendFrame marshals and enqueues a frame. A connection that is not
// writable (closed, or its buffer full) is skipped; a full buffer also
// schedules detachment because the peer stopped draining.
func (c *Client) SendFrame(frame domain.Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		slog.Error("frame marshal error", slog.String("type", frame.Type), slog.Any("error", err))
		return
	}
	switch c.trySend(data) {
	case sendOK, sendClosed:
	case sendFull:
		slog.Warn("connection send buffer full, detaching", slog.String("connectionId", c.id))
		go c.hub.Detach(c)
	}
}

type sendResult int

const (
	sendOK sendResult = iota
	sendFull
	sendClosed
)

func (c *Client) trySend(data []byte) sendResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return sendClosed
	}
	select {
	case c.send <- data:
		return sendOK
	default:
		return sendFull
	}
}

// close releases the send channel and the transport. Idempotent.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// WritePump is the single writer for the connection, so frames for one
// client are delivered in publish order.
func (c *Client) WritePump() {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			slog.Warn("websocket write error", slog.String("connectionId", c.id), slog.Any("error", err))
			c.hub.Detach(c)
			return
		}
	}
}

// ReadPump consumes inbound frames until the transport closes. Malformed
// frames produce an error reply and the connection stays open; only a
// transport-level read failure tears it down.
func (c *Client) ReadPump(ctx context.Context) {
	defer c.hub.Detach(c)

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		c.alive.Store(true)
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("websocket read error", slog.String("connectionId", c.id), slog.Any("error", err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
		c.commands.Process(ctx, c, raw)
	}
}
