package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mohamedkhairy/pineseries/internal/models"
	"github.com/mohamedkhairy/pineseries/pkg/logger"
)

// WebSocketConfig holds connection settings for the websocket provider.
type WebSocketConfig struct {
	URL               string
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	HandshakeTimeout  time.Duration
	PongWait          time.Duration
	PingPeriod        time.Duration
	WriteTimeout      time.Duration
}

func (c *WebSocketConfig) defaults() {
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = time.Second
	}
	if c.MaxReconnectDelay <= 0 {
		c.MaxReconnectDelay = 30 * time.Second
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.PingPeriod <= 0 {
		c.PingPeriod = 54 * time.Second // must stay below PongWait
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
}

// WebSocket consumes tick frames from an upstream websocket feed and
// reconnects with exponential backoff when the connection drops.
// Subscriptions are replayed after every reconnect.
type WebSocket struct {
	config     WebSocketConfig
	conn       *websocket.Conn
	connected  bool
	subscribed map[string]bool
	reconnects int
	tickChan   chan *models.Tick
	mu         sync.RWMutex
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// NewWebSocket creates a websocket provider. Zero config fields get
// sensible defaults.
func NewWebSocket(config WebSocketConfig) *WebSocket {
	config.defaults()
	return &WebSocket{
		config:     config,
		subscribed: make(map[string]bool),
		tickChan:   make(chan *models.Tick, 256),
	}
}

// Connect dials the feed. The first dial is synchronous so startup fails
// fast on a bad URL; later drops reconnect in the background.
func (w *WebSocket) Connect(ctx context.Context) error {
	w.mu.Lock()
	if w.connected {
		w.mu.Unlock()
		return ErrAlreadyConnected
	}
	w.mu.Unlock()

	conn, err := w.dial()
	if err != nil {
		return fmt.Errorf("failed to dial feed: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.cancel = cancel
	w.mu.Unlock()

	logger.Info("feed connected", logger.String("url", w.config.URL))

	w.wg.Add(2)
	go w.run(ctx)
	go w.pingLoop(ctx)
	return nil
}

// Subscribe implements Provider.
func (w *WebSocket) Subscribe(ctx context.Context, symbols []string) (<-chan *models.Tick, error) {
	w.mu.Lock()
	if !w.connected {
		w.mu.Unlock()
		return nil, ErrNotConnected
	}
	for _, symbol := range symbols {
		if symbol == "" {
			w.mu.Unlock()
			return nil, ErrInvalidSymbol
		}
		w.subscribed[symbol] = true
	}
	w.mu.Unlock()

	if err := w.send(models.SubscribeFrame{Action: "subscribe", Symbols: symbols}); err != nil {
		return nil, err
	}
	return w.tickChan, nil
}

// Unsubscribe implements Provider.
func (w *WebSocket) Unsubscribe(ctx context.Context, symbols []string) error {
	w.mu.Lock()
	if !w.connected {
		w.mu.Unlock()
		return ErrNotConnected
	}
	for _, symbol := range symbols {
		delete(w.subscribed, symbol)
	}
	w.mu.Unlock()

	return w.send(models.SubscribeFrame{Action: "unsubscribe", Symbols: symbols})
}

// Close implements Provider.
func (w *WebSocket) Close() error {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connected = false
	w.mu.Unlock()

	w.wg.Wait()
	w.closeOnce.Do(func() { close(w.tickChan) })
	return nil
}

// IsConnected implements Provider.
func (w *WebSocket) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

// Name implements Provider.
func (w *WebSocket) Name() string {
	return "websocket"
}

// Reconnects returns how many reconnect attempts have been made.
func (w *WebSocket) Reconnects() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.reconnects
}

func (w *WebSocket) dial() (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: w.config.HandshakeTimeout}
	conn, _, err := dialer.Dial(w.config.URL, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadDeadline(time.Now().Add(w.config.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(w.config.PongWait))
		return nil
	})
	return conn, nil
}

func (w *WebSocket) send(frame models.SubscribeFrame) error {
	w.mu.RLock()
	conn := w.conn
	w.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// run reads frames until the connection drops, then reconnects until the
// context is cancelled.
func (w *WebSocket) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		err := w.readLoop(ctx)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("feed connection lost",
			logger.String("url", w.config.URL),
			logger.ErrorField(err),
		)
		w.mu.Lock()
		w.connected = false
		if w.conn != nil {
			w.conn.Close()
			w.conn = nil
		}
		w.mu.Unlock()

		if !w.reconnect(ctx) {
			return
		}
	}
}

func (w *WebSocket) readLoop(ctx context.Context) error {
	for {
		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn == nil {
			return errors.New("connection gone")
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var frame models.TickFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			logger.Warn("feed sent malformed frame", logger.ErrorField(err))
			continue
		}
		if err := frame.Validate(); err != nil {
			logger.Warn("feed sent invalid frame",
				logger.String("symbol", frame.Symbol),
				logger.ErrorField(err),
			)
			continue
		}

		select {
		case w.tickChan <- frame.Tick():
		case <-ctx.Done():
			return ctx.Err()
		default:
			logger.Warn("tick channel full, dropping tick", logger.String("symbol", frame.Symbol))
		}
	}
}

// reconnect dials with exponential backoff until success or cancellation.
// Returns false only when the context ended.
func (w *WebSocket) reconnect(ctx context.Context) bool {
	delay := w.config.ReconnectDelay

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}

		logger.Info("reconnecting feed",
			logger.String("url", w.config.URL),
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
		)
		logger.FeedReconnects.WithLabelValues("websocket").Inc()

		w.mu.Lock()
		w.reconnects++
		w.mu.Unlock()

		conn, err := w.dial()
		if err == nil {
			w.mu.Lock()
			w.conn = conn
			w.connected = true
			symbols := make([]string, 0, len(w.subscribed))
			for s := range w.subscribed {
				symbols = append(symbols, s)
			}
			w.mu.Unlock()

			logger.Info("feed reconnected", logger.String("url", w.config.URL))
			if len(symbols) > 0 {
				if err := w.send(models.SubscribeFrame{Action: "subscribe", Symbols: symbols}); err != nil {
					logger.Error("failed to resubscribe after reconnect", logger.ErrorField(err))
				}
			}
			return true
		}
		logger.Warn("feed dial failed", logger.ErrorField(err))

		delay *= 2
		if delay > w.config.MaxReconnectDelay {
			delay = w.config.MaxReconnectDelay
		}
	}
}

func (w *WebSocket) pingLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.mu.RLock()
			conn := w.conn
			connected := w.connected
			w.mu.RUnlock()
			if !connected || conn == nil {
				continue
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(w.config.WriteTimeout)); err != nil {
				logger.Warn("failed to ping feed", logger.ErrorField(err))
			}
		}
	}
}
