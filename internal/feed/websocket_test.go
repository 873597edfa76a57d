package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/pineseries/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsURL(server *httptest.Server) string {
	return "ws" + server.URL[4:]
}

// tickServer upgrades, waits for a subscribe frame, then writes the given
// payloads and holds the connection open.
func tickServer(t *testing.T, subscribes chan<- models.SubscribeFrame, payloads ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub models.SubscribeFrame
		if err := json.Unmarshal(msg, &sub); err == nil && subscribes != nil {
			subscribes <- sub
		}

		for _, p := range payloads {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(p)); err != nil {
				return
			}
		}
		// Hold open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestWebSocket_ReceivesValidTicksOnly(t *testing.T) {
	subscribes := make(chan models.SubscribeFrame, 1)
	server := tickServer(t, subscribes,
		`{"type":"tick","symbol":"AAPL","price":150.5,"size":100,"time":1704187800000}`,
		`this is not json`,
		`{"type":"quote","symbol":"AAPL","price":1,"size":1,"time":1704187800000}`,
		`{"type":"tick","symbol":"MSFT","price":400.25,"size":50,"time":1704187801000}`,
	)
	defer server.Close()

	ws := NewWebSocket(WebSocketConfig{URL: wsURL(server)})
	require.NoError(t, ws.Connect(context.Background()))
	defer ws.Close()
	assert.Equal(t, "websocket", ws.Name())
	require.True(t, ws.IsConnected())

	ticks, err := ws.Subscribe(context.Background(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)

	select {
	case sub := <-subscribes:
		assert.Equal(t, "subscribe", sub.Action)
		assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, sub.Symbols)
	case <-time.After(5 * time.Second):
		t.Fatal("server never saw the subscribe frame")
	}

	var got []*models.Tick
	deadline := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case tick := <-ticks:
			got = append(got, tick)
		case <-deadline:
			t.Fatalf("timed out, received %d ticks", len(got))
		}
	}

	assert.Equal(t, "AAPL", got[0].Symbol)
	assert.Equal(t, 150.5, got[0].Price)
	assert.Equal(t, int64(100), got[0].Size)
	assert.Equal(t, "MSFT", got[1].Symbol, "junk and non-tick frames must be skipped")
}

func TestWebSocket_ConnectFailsFast(t *testing.T) {
	ws := NewWebSocket(WebSocketConfig{URL: "ws://127.0.0.1:1/feed"})

	err := ws.Connect(context.Background())
	require.Error(t, err)
	assert.False(t, ws.IsConnected())
}

func TestWebSocket_DoubleConnect(t *testing.T) {
	server := tickServer(t, nil)
	defer server.Close()

	ws := NewWebSocket(WebSocketConfig{URL: wsURL(server)})
	require.NoError(t, ws.Connect(context.Background()))
	defer ws.Close()

	assert.ErrorIs(t, ws.Connect(context.Background()), ErrAlreadyConnected)
}

func TestWebSocket_SubscribeRequiresConnect(t *testing.T) {
	ws := NewWebSocket(WebSocketConfig{URL: "ws://127.0.0.1:1/feed"})

	_, err := ws.Subscribe(context.Background(), []string{"AAPL"})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestWebSocket_ReconnectsAndResubscribes(t *testing.T) {
	var conns atomic.Int32
	subscribes := make(chan models.SubscribeFrame, 2)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		n := conns.Add(1)

		_, msg, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return
		}
		var sub models.SubscribeFrame
		if err := json.Unmarshal(msg, &sub); err == nil {
			subscribes <- sub
		}

		if n == 1 {
			// Drop the first connection to force a reconnect.
			conn.Close()
			return
		}

		frame := `{"type":"tick","symbol":"AAPL","price":151,"size":10,"time":1704187800000}`
		conn.WriteMessage(websocket.TextMessage, []byte(frame))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}))
	defer server.Close()

	ws := NewWebSocket(WebSocketConfig{
		URL:            wsURL(server),
		ReconnectDelay: 10 * time.Millisecond,
	})
	require.NoError(t, ws.Connect(context.Background()))
	defer ws.Close()

	ticks, err := ws.Subscribe(context.Background(), []string{"AAPL"})
	require.NoError(t, err)

	// First subscribe lands on the doomed connection.
	select {
	case <-subscribes:
	case <-time.After(5 * time.Second):
		t.Fatal("server never saw the first subscribe")
	}

	// After the drop the client reconnects and resubscribes by itself.
	select {
	case sub := <-subscribes:
		assert.Equal(t, "subscribe", sub.Action)
		assert.Equal(t, []string{"AAPL"}, sub.Symbols)
	case <-time.After(5 * time.Second):
		t.Fatal("client never resubscribed after reconnect")
	}

	select {
	case tick := <-ticks:
		assert.Equal(t, "AAPL", tick.Symbol)
		assert.Equal(t, 151.0, tick.Price)
	case <-time.After(5 * time.Second):
		t.Fatal("no tick after reconnect")
	}

	assert.GreaterOrEqual(t, ws.Reconnects(), 1)
}
