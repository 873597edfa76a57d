package stream

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one WebSocket subscriber. Snapshots flow through the
// buffered Send channel; the hub's writePump drains it.
type Client struct {
	ID            string
	Conn          *websocket.Conn
	Send          chan []byte
	subscriptions map[string]bool
	lastPong      time.Time
	createdAt     time.Time
	closed        bool
	mu            sync.RWMutex
	closeOnce     sync.Once
}

// NewClient wraps an upgraded connection with a send buffer of the
// given size.
func NewClient(id string, conn *websocket.Conn, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	now := time.Now()
	return &Client{
		ID:            id,
		Conn:          conn,
		Send:          make(chan []byte, sendBuffer),
		subscriptions: make(map[string]bool),
		lastPong:      now,
		createdAt:     now,
	}
}

// Subscribe adds symbols to the client's subscription set.
func (c *Client) Subscribe(symbols []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range symbols {
		if s != "" {
			c.subscriptions[s] = true
		}
	}
}

// Unsubscribe removes symbols from the client's subscription set.
func (c *Client) Unsubscribe(symbols []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range symbols {
		delete(c.subscriptions, s)
	}
}

// WantsSymbol reports whether the client should receive snapshots for a
// symbol. A client with no subscriptions receives everything.
func (c *Client) WantsSymbol(symbol string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.subscriptions) == 0 {
		return true
	}
	return c.subscriptions[symbol]
}

// Symbols returns the client's current subscription set.
func (c *Client) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.subscriptions))
	for s := range c.subscriptions {
		out = append(out, s)
	}
	return out
}

// UpdateLastPong records pong receipt for staleness checks.
func (c *Client) UpdateLastPong() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastPong = time.Now()
}

// LastPong returns the time of the most recent pong.
func (c *Client) LastPong() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastPong
}

// TrySend queues a payload without blocking. It reports false when the
// client's buffer is full or the client is closed. The read lock keeps
// Close from closing the channel mid-send.
func (c *Client) TrySend(payload []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// SendError queues an error frame, dropped silently if the buffer is full.
func (c *Client) SendError(code, message string) {
	data, err := json.Marshal(map[string]interface{}{
		"type":    "error",
		"code":    code,
		"message": message,
	})
	if err != nil {
		return
	}
	c.TrySend(data)
}

// Close closes the send channel and the underlying connection. Safe to
// call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.Send)
		c.Conn.Close()
	})
}
