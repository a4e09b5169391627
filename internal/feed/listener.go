// internal/feed/listener.go
package feed

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/domingochavezspecops/TradingScripts/internal/domain"
	"github.com/domingochavezspecops/TradingScripts/internal/liquidation"
	"github.com/domingochavezspecops/TradingScripts/internal/metrics"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	DefaultURL              = "wss://fstream.binance.com/ws/!forceOrder@arr"
	DefaultReconnectDelay   = 5 * time.Second
	DefaultReadTimeout      = 10 * time.Minute
	DefaultPingInterval     = 3 * time.Minute
	DefaultHandshakeTimeout = 10 * time.Second

	readLimit = 1 << 20
)

// EventHandler receives every well-formed liquidation from the feed.
type EventHandler interface {
	HandleLiquidation(ctx context.Context, ev domain.LiquidationEvent)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, ev domain.LiquidationEvent)

func (f EventHandlerFunc) HandleLiquidation(ctx context.Context, ev domain.LiquidationEvent) {
	f(ctx, ev)
}

// Config configures the Listener.
type Config struct {
	URL              string
	ReconnectDelay   time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration
	HandshakeTimeout time.Duration
}

// DisconnectedError reports that a feed connection ended or could not be
// established.
type DisconnectedError struct {
	URL string
	Err error
}

func (e *DisconnectedError) Error() string {
	return fmt.Sprintf("feed %s disconnected: %v", e.URL, e.Err)
}

func (e *DisconnectedError) Unwrap() error {
	return e.Err
}

// Listener consumes the liquidation stream and reconnects after a fixed
// delay for as long as its context lives.
type Listener struct {
	cfg       Config
	handler   EventHandler
	metrics   *metrics.Collector
	logger    *zap.Logger
	dialer    *websocket.Dialer
	now       func() time.Time
	connected atomic.Bool
}

// NewListener creates a listener. Zero config fields take defaults.
func NewListener(cfg Config, handler EventHandler, m *metrics.Collector, logger *zap.Logger) *Listener {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}
	return &Listener{
		cfg:     cfg,
		handler: handler,
		metrics: m,
		logger:  logger.Named("feed"),
		dialer:  &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
		now:     time.Now,
	}
}

// Connected reports whether a feed connection is currently open.
func (l *Listener) Connected() bool {
	return l.connected.Load()
}

// Run consumes the feed until ctx is cancelled. It returns nil on
// cancellation; connection failures are retried indefinitely.
func (l *Listener) Run(ctx context.Context) error {
	op := func() (struct{}, error) {
		err := l.consume(ctx)
		if ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(ctx.Err())
		}
		return struct{}{}, err
	}

	notify := func(err error, delay time.Duration) {
		l.metrics.FeedReconnect()
		l.logger.Warn("Websocket connection closed, reconnecting",
			zap.Error(err),
			zap.Duration("delay", delay))
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(l.cfg.ReconnectDelay)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify))

	if ctx.Err() != nil {
		l.logger.Info("Feed listener stopped")
		return nil
	}
	return err
}

// consume runs one connection. It always returns a non-nil error.
func (l *Listener) consume(ctx context.Context) error {
	conn, _, err := l.dialer.DialContext(ctx, l.cfg.URL, nil)
	if err != nil {
		return &DisconnectedError{URL: l.cfg.URL, Err: fmt.Errorf("dial: %w", err)}
	}
	defer conn.Close()

	l.setConnected(true)
	defer l.setConnected(false)
	l.logger.Info("Websocket connection opened", zap.String("url", l.cfg.URL))

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(l.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(l.cfg.ReadTimeout))
	})

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.keepAlive(connCtx, conn)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &DisconnectedError{URL: l.cfg.URL, Err: err}
		}
		_ = conn.SetReadDeadline(time.Now().Add(l.cfg.ReadTimeout))

		ev, err := liquidation.Parse(message, l.now())
		if err != nil {
			l.metrics.Malformed()
			l.logger.Warn("Dropping malformed message", zap.Error(err))
			continue
		}
		l.handler.HandleLiquidation(ctx, ev)
	}
}

// keepAlive pings the server and closes conn when ctx ends so a blocked
// read returns.
func (l *Listener) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(l.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				l.logger.Warn("Websocket ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (l *Listener) setConnected(v bool) {
	l.connected.Store(v)
	l.metrics.FeedConnected(v)
}
