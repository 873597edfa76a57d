// Package stream pushes plot snapshots to WebSocket subscribers. Every
// engine recalculation fans out to the clients subscribed to that
// symbol; clients that cannot keep up are disconnected rather than
// allowed to stall the broadcast path.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mohamedkhairy/pineseries/internal/config"
	"github.com/mohamedkhairy/pineseries/internal/engine"
	"github.com/mohamedkhairy/pineseries/internal/models"
	"github.com/mohamedkhairy/pineseries/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub manages WebSocket clients and broadcasts plot snapshots.
type Hub struct {
	config  config.StreamConfig
	engine  *engine.Engine
	clients map[string]*Client
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
}

// NewHub creates a hub. The engine reference serves initial snapshots
// to freshly subscribed clients.
func NewHub(cfg config.StreamConfig, eng *engine.Engine) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		config:  cfg,
		engine:  eng,
		clients: make(map[string]*Client),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start marks the hub as accepting connections.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = true
	logger.Info("Starting stream hub",
		logger.Duration("ping_interval", h.config.PingInterval),
		logger.Int("send_buffer", h.config.SendBuffer),
	)
}

// Stop disconnects all clients and waits for their pumps to finish.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	logger.Info("Stopping stream hub")
	h.cancel()

	h.mu.Lock()
	for id, client := range h.clients {
		client.Close()
		delete(h.clients, id)
	}
	h.mu.Unlock()

	h.wg.Wait()
	logger.Info("Stream hub stopped")
}

// ServeWS upgrades an HTTP request and registers the client. Mount it
// on the stream listener's /ws route.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		http.Error(w, "stream hub not running", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := NewClient(uuid.New().String(), conn, h.config.SendBuffer)
	h.register(client)
}

// Broadcast fans a snapshot out to every subscribed client. Wire it to
// the engine's snapshot callback.
func (h *Hub) Broadcast(snap models.PlotSnapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		logger.Error("Failed to marshal snapshot",
			logger.ErrorField(err),
			logger.String("symbol", snap.Symbol),
		)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if !client.WantsSymbol(snap.Symbol) {
			continue
		}
		if !client.TrySend(payload) {
			logger.Warn("Dropping slow stream client",
				logger.String("client_id", client.ID),
				logger.String("symbol", snap.Symbol),
			)
			logger.StreamDropped.Inc()
			h.unregister(client)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	total := len(h.clients)
	h.mu.Unlock()

	logger.StreamClients.Inc()
	logger.Info("Stream client connected",
		logger.String("client_id", client.ID),
		logger.Int("total_clients", total),
	)

	h.wg.Add(2)
	go h.writePump(client)
	go h.readPump(client)
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	_, present := h.clients[client.ID]
	if present {
		delete(h.clients, client.ID)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if !present {
		return
	}
	client.Close()

	logger.StreamClients.Dec()
	logger.Info("Stream client disconnected",
		logger.String("client_id", client.ID),
		logger.Int("total_clients", total),
	)
}

// readPump consumes subscribe/unsubscribe frames until the client hangs
// up. It owns the read side of the connection.
func (h *Hub) readPump(client *Client) {
	defer h.wg.Done()
	defer h.unregister(client)

	pongWait := h.pongWait()
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.UpdateLastPong()
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Debug("WebSocket read error",
					logger.ErrorField(err),
					logger.String("client_id", client.ID),
				)
			}
			return
		}

		var frame models.SubscribeFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			client.SendError("invalid_message", "failed to parse message")
			continue
		}
		h.handleFrame(client, &frame)
	}
}

// handleFrame applies one subscription change and answers a subscribe
// with the current snapshot of each symbol so clients render immediately
// instead of waiting for the next bar.
func (h *Hub) handleFrame(client *Client, frame *models.SubscribeFrame) {
	switch frame.Action {
	case "subscribe":
		client.Subscribe(frame.Symbols)
		for _, symbol := range frame.Symbols {
			snap, err := h.engine.Snapshot(symbol)
			if err != nil {
				continue
			}
			if payload, err := json.Marshal(snap); err == nil {
				client.TrySend(payload)
			}
		}
	case "unsubscribe":
		client.Unsubscribe(frame.Symbols)
	default:
		client.SendError("unknown_action", "action must be subscribe or unsubscribe")
	}
}

// writePump drains the client's send buffer and keeps the connection
// alive with pings. It owns the write side of the connection.
func (h *Hub) writePump(client *Client) {
	defer h.wg.Done()
	defer h.unregister(client)

	ticker := time.NewTicker(h.pingInterval())
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(h.writeTimeout()))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(h.writeTimeout()))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) pingInterval() time.Duration {
	if h.config.PingInterval > 0 {
		return h.config.PingInterval
	}
	return 30 * time.Second
}

// pongWait gives clients two ping cycles to answer before the read
// deadline trips.
func (h *Hub) pongWait() time.Duration {
	return 2 * h.pingInterval()
}

func (h *Hub) writeTimeout() time.Duration {
	if h.config.WriteTimeout > 0 {
		return h.config.WriteTimeout
	}
	return 10 * time.Second
}
