package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/domingochavezspecops/TradingScripts/internal/domain"
	"github.com/domingochavezspecops/TradingScripts/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type collectingHandler struct {
	mu     sync.Mutex
	events []domain.LiquidationEvent
}

func (c *collectingHandler) HandleLiquidation(_ context.Context, ev domain.LiquidationEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collectingHandler) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// newFeedServer serves each connection the given messages and then hangs up.
func newFeedServer(t *testing.T, messages []string, connections *int32) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		atomic.AddInt32(connections, 1)

		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestListenerParsesAndReconnects(t *testing.T) {
	var connections int32
	srv := newFeedServer(t, []string{
		`{"e":"forceOrder","E":1,"o":{"s":"BTCUSDT","S":"SELL","p":"60000","q":"1","T":1}}`,
		`{"e":"forceOrder","o":{"s":"","S":"SELL","p":"1","q":"1"}}`,
		`not json`,
	}, &connections)
	defer srv.Close()

	handler := &collectingHandler{}
	l := NewListener(Config{URL: wsURL(srv), ReconnectDelay: 10 * time.Millisecond},
		handler, metrics.NewCollector(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&connections) >= 2 && handler.count() >= 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	for _, ev := range handler.events {
		assert.Equal(t, "BTCUSDT", ev.Symbol)
		assert.Equal(t, domain.SideSell, ev.Side)
	}
}

func TestListenerRetriesUnreachableServer(t *testing.T) {
	l := NewListener(Config{URL: "ws://127.0.0.1:1/ws", ReconnectDelay: 5 * time.Millisecond},
		&collectingHandler{}, nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, l.Run(ctx))
	assert.False(t, l.Connected())
}

func TestListenerStopsOnCancelWhileConnected(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// hold the connection open until the client leaves
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	l := NewListener(Config{URL: wsURL(srv)}, &collectingHandler{}, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	assert.Eventually(t, l.Connected, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestDisconnectedErrorUnwraps(t *testing.T) {
	inner := websocket.ErrBadHandshake
	err := &DisconnectedError{URL: "ws://x", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "ws://x")
}
