package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/pineseries/internal/catalog"
	"github.com/mohamedkhairy/pineseries/internal/config"
	"github.com/mohamedkhairy/pineseries/internal/engine"
	"github.com/mohamedkhairy/pineseries/internal/models"
	"github.com/mohamedkhairy/pineseries/pkg/runtime"
)

var barTime = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

func testStreamConfig() config.StreamConfig {
	return config.StreamConfig{
		Port:         8081,
		PingInterval: time.Second,
		WriteTimeout: time.Second,
		SendBuffer:   8,
	}
}

// testEngine returns an engine tracking AAPL with two bars and an SMA plot.
func testEngine() *engine.Engine {
	bindings := []catalog.Binding{{
		ID:   "sma",
		Kind: "sma",
		Apply: func(c *runtime.Context) error {
			c.Plot("sma", c.SMA(c.Close(), 2), runtime.PlotOptions{})
			return nil
		},
	}}
	eng := engine.New(config.EngineConfig{BarInterval: time.Minute}, bindings)
	for i, close := range []float64{10, 12} {
		eng.OnBarUpdate(models.Candle{
			Symbol:    "AAPL",
			Timestamp: barTime.Add(time.Duration(i) * time.Minute),
			Open:      close, High: close + 1, Low: close - 1, Close: close,
			Volume: 100,
		}, true)
	}
	return eng
}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(testStreamConfig(), testEngine())
	hub.Start()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		hub.Stop()
		server.Close()
	})
	return hub, server
}

func dialHub(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + server.URL[4:]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n },
		2*time.Second, 10*time.Millisecond)
}

func readSnapshot(t *testing.T, conn *websocket.Conn) models.PlotSnapshot {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var snap models.PlotSnapshot
	require.NoError(t, json.Unmarshal(payload, &snap))
	return snap
}

func snapshotFor(symbol string, timeMs int64, value float64) models.PlotSnapshot {
	return models.PlotSnapshot{
		Type:   "snapshot",
		Symbol: symbol,
		TimeMs: timeMs,
		Values: map[string]models.NullFloat{"sma": models.NullFloat(value)},
	}
}

func TestSubscribeDeliversCurrentSnapshot(t *testing.T) {
	hub, server := startHub(t)
	conn := dialHub(t, server)
	waitForClients(t, hub, 1)

	sub := models.SubscribeFrame{Action: "subscribe", Symbols: []string{"AAPL"}}
	require.NoError(t, conn.WriteJSON(sub))

	snap := readSnapshot(t, conn)
	assert.Equal(t, "snapshot", snap.Type)
	assert.Equal(t, "AAPL", snap.Symbol)
	assert.InDelta(t, 11.0, float64(snap.Values["sma"]), 1e-9)
}

func TestBroadcastFiltersBySubscription(t *testing.T) {
	hub, server := startHub(t)
	conn := dialHub(t, server)
	waitForClients(t, hub, 1)

	require.NoError(t, conn.WriteJSON(models.SubscribeFrame{Action: "subscribe", Symbols: []string{"AAPL"}}))
	readSnapshot(t, conn) // initial snapshot

	hub.Broadcast(snapshotFor("MSFT", 1, 400))
	hub.Broadcast(snapshotFor("AAPL", 2, 12.5))

	snap := readSnapshot(t, conn)
	assert.Equal(t, "AAPL", snap.Symbol, "MSFT snapshot must be filtered out")
	assert.Equal(t, int64(2), snap.TimeMs)
}

func TestClientWithoutSubscriptionsReceivesAll(t *testing.T) {
	hub, server := startHub(t)
	conn := dialHub(t, server)
	waitForClients(t, hub, 1)

	hub.Broadcast(snapshotFor("MSFT", 1, 400))
	hub.Broadcast(snapshotFor("AAPL", 2, 190))

	assert.Equal(t, "MSFT", readSnapshot(t, conn).Symbol)
	assert.Equal(t, "AAPL", readSnapshot(t, conn).Symbol)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub, server := startHub(t)
	conn := dialHub(t, server)
	waitForClients(t, hub, 1)

	require.NoError(t, conn.WriteJSON(models.SubscribeFrame{Action: "subscribe", Symbols: []string{"AAPL", "MSFT"}}))
	readSnapshot(t, conn) // initial AAPL snapshot; MSFT has no engine state

	require.NoError(t, conn.WriteJSON(models.SubscribeFrame{Action: "unsubscribe", Symbols: []string{"MSFT"}}))

	// The unsubscribe frame is handled by the same readPump that handles
	// broadcasts, so give it a moment to apply.
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		for _, c := range hub.clients {
			return !c.WantsSymbol("MSFT")
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(snapshotFor("MSFT", 1, 400))
	hub.Broadcast(snapshotFor("AAPL", 2, 12.5))

	snap := readSnapshot(t, conn)
	assert.Equal(t, "AAPL", snap.Symbol)
}

func TestUnknownActionGetsErrorFrame(t *testing.T) {
	hub, server := startHub(t)
	conn := dialHub(t, server)
	waitForClients(t, hub, 1)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "dance"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &frame))
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "unknown_action", frame["code"])
}

func TestMalformedFrameGetsErrorFrame(t *testing.T) {
	hub, server := startHub(t)
	conn := dialHub(t, server)
	waitForClients(t, hub, 1)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &frame))
	assert.Equal(t, "invalid_message", frame["code"])
}

func TestBroadcastDropsClientWithFullBuffer(t *testing.T) {
	hub, server := startHub(t)
	conn := dialHub(t, server)
	waitForClients(t, hub, 1)

	// Swap in a client with a tiny buffer and no running pumps so the
	// buffer genuinely fills.
	stuck := NewClient("stuck", conn, 1)
	hub.mu.Lock()
	for id := range hub.clients {
		delete(hub.clients, id)
	}
	hub.clients[stuck.ID] = stuck
	hub.mu.Unlock()

	hub.Broadcast(snapshotFor("AAPL", 1, 10)) // fills the buffer
	hub.Broadcast(snapshotFor("AAPL", 2, 11)) // overflows, client dropped

	assert.Equal(t, 0, hub.ClientCount())
}

func TestClientLifecycle_DisconnectUnregisters(t *testing.T) {
	hub, server := startHub(t)
	conn := dialHub(t, server)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestServeWS_UnavailableBeforeStart(t *testing.T) {
	hub := NewHub(testStreamConfig(), testEngine())
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	wsURL := "ws" + server.URL[4:]
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStop_DisconnectsClients(t *testing.T) {
	hub := NewHub(testStreamConfig(), testEngine())
	hub.Start()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	conn := dialHub(t, server)
	waitForClients(t, hub, 1)

	hub.Stop()
	assert.Equal(t, 0, hub.ClientCount())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestClient_TrySendRespectsBufferAndClose(t *testing.T) {
	_, server := startHub(t)
	conn := dialHub(t, server)

	client := NewClient("c1", conn, 1)
	assert.True(t, client.TrySend([]byte("one")))
	assert.False(t, client.TrySend([]byte("two")), "buffer of one is full")

	client.Close()
	assert.False(t, client.TrySend([]byte("three")), "closed client accepts nothing")
}
