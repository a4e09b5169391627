// internal/monitor/engine.go
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/domingochavezspecops/TradingScripts/internal/aggregate"
	"github.com/domingochavezspecops/TradingScripts/internal/domain"
	"github.com/domingochavezspecops/TradingScripts/internal/events"
	"github.com/domingochavezspecops/TradingScripts/internal/ledger"
	"github.com/domingochavezspecops/TradingScripts/internal/metrics"
	"github.com/domingochavezspecops/TradingScripts/internal/pricefeed"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultTradeSize is the USD notional committed per qualifying event.
const DefaultTradeSize = 100

// Config configures an Engine.
type Config struct {
	Ledger         ledger.Config
	Window         aggregate.Config
	TradeSize      decimal.Decimal
	MinLiquidation decimal.Decimal
}

// DefaultConfig returns the stock settings with no minimum liquidation value.
func DefaultConfig() Config {
	return Config{
		Ledger:         ledger.DefaultConfig(),
		Window:         aggregate.DefaultConfig(),
		TradeSize:      decimal.NewFromInt(DefaultTradeSize),
		MinLiquidation: decimal.Zero,
	}
}

// Publisher accepts engine events. *events.Bus satisfies it.
type Publisher interface {
	Publish(event events.Event) error
}

// Messenger queues outbound notifications. Messages passed in one call are
// queued or dropped together. *notify.Dispatcher satisfies it.
type Messenger interface {
	Enqueue(messages ...string) bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPublisher sends engine events to p.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.bus = p }
}

// Engine owns the ledger, the aggregation window and the tracked symbols.
// Every mutation goes through mu. Notifications and events are emitted after
// mu is released, under reportMu, which is taken before mu is released so
// reports leave in mutation order.
type Engine struct {
	mu             sync.Mutex
	reportMu       sync.Mutex
	ledger         *ledger.Ledger
	window         *aggregate.Window
	tradeSize      decimal.Decimal
	minLiquidation decimal.Decimal
	processed      uint64
	lastEventAt    time.Time

	messenger Messenger
	bus       Publisher
	metrics   *metrics.Collector
	logger    *zap.Logger
	now       func() time.Time
}

// NewEngine creates an engine. The first aggregation window starts now.
func NewEngine(cfg Config, messenger Messenger, m *metrics.Collector, logger *zap.Logger, opts ...Option) *Engine {
	if !cfg.TradeSize.IsPositive() {
		cfg.TradeSize = decimal.NewFromInt(DefaultTradeSize)
	}
	e := &Engine{
		ledger:         ledger.New(cfg.Ledger),
		tradeSize:      cfg.TradeSize,
		minLiquidation: cfg.MinLiquidation,
		messenger:      messenger,
		metrics:        m,
		logger:         logger.Named("engine"),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.window = aggregate.NewWindow(cfg.Window, e.now())
	e.publishAccount(e.ledger.Account(), 0)
	return e
}

// SetMinLiquidation sets the notional below which events are ignored.
func (e *Engine) SetMinLiquidation(v decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.minLiquidation = v
}

// MinLiquidation returns the current minimum.
func (e *Engine) MinLiquidation() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.minLiquidation
}

// outcome collects everything a locked section produced so it can be
// reported after unlocking.
type outcome struct {
	evicted  *ledger.Record
	opened   *domain.Position
	rejected error
	closures []ledger.Closure
	skipped  []string
	report   *aggregate.Report
	account  ledger.Account
	tracked  int
}

// HandleLiquidation applies one liquidation event: it tracks the symbol,
// feeds the aggregation window, enters a simulated position and runs the
// risk check at the event price.
func (e *Engine) HandleLiquidation(_ context.Context, ev domain.LiquidationEvent) {
	e.mu.Lock()
	if ev.Notional.LessThan(e.minLiquidation) {
		e.mu.Unlock()
		e.metrics.Event("below_minimum")
		return
	}

	var out outcome
	now := e.now()
	e.processed++
	e.lastEventAt = now

	out.evicted = e.ledger.Observe(ev.Symbol, ev.Notional)
	e.window.Accumulate(ev.Symbol, ev.Notional)
	out.report = e.window.MaybeFlush(now)

	pos, err := e.ledger.Enter(ev.Symbol, ev.Side.Direction(), ev.Price, e.tradeSize)
	if err != nil {
		out.rejected = err
	} else {
		out.opened = &pos
		e.ledger.MarkToMarket(ev.Symbol, ev.Price)
		if reason, hit := e.ledger.Evaluate(ev.Symbol, ev.Price); hit {
			if c, ok := e.ledger.Close(ev.Symbol, ev.Price, reason); ok {
				out.closures = append(out.closures, c)
			}
		}
	}
	out.account = e.ledger.Account()
	out.tracked = len(e.ledger.Symbols())
	e.reportMu.Lock()
	e.mu.Unlock()
	defer e.reportMu.Unlock()

	e.metrics.Event("accepted")
	e.report(ev, now, out)
}

// ApplyTickers revalues tracked positions at the latest prices and closes
// any that hit stop-loss or take-profit. Tickers without a positive last
// price are skipped.
func (e *Engine) ApplyTickers(_ context.Context, tickers []pricefeed.Ticker) {
	e.mu.Lock()
	var out outcome
	for _, t := range tickers {
		if !e.ledger.SetPriceChange(t.Symbol, t.PriceChangePercent) {
			continue
		}
		if !t.LastPrice.IsPositive() {
			out.skipped = append(out.skipped, t.Symbol)
			continue
		}
		e.ledger.MarkToMarket(t.Symbol, t.LastPrice)
		if reason, hit := e.ledger.Evaluate(t.Symbol, t.LastPrice); hit {
			if c, ok := e.ledger.Close(t.Symbol, t.LastPrice, reason); ok {
				out.closures = append(out.closures, c)
			}
		}
	}
	out.account = e.ledger.Account()
	out.tracked = len(e.ledger.Symbols())
	now := e.now()
	e.reportMu.Lock()
	e.mu.Unlock()
	defer e.reportMu.Unlock()

	e.report(domain.LiquidationEvent{}, now, out)
}

// report logs, counts and publishes an outcome. It must be called with
// reportMu held and mu released.
func (e *Engine) report(ev domain.LiquidationEvent, at time.Time, out outcome) {
	for _, sym := range out.skipped {
		e.logger.Warn("Ignoring ticker without a positive last price", zap.String("symbol", sym))
	}

	if out.evicted != nil {
		e.metrics.Evicted()
		evictedPos := out.evicted.Position
		if evictedPos.IsOpen() {
			e.logger.Warn("Evicted symbol with open position",
				zap.String("symbol", evictedPos.Symbol),
				zap.String("direction", string(evictedPos.Direction)),
				zap.String("size", evictedPos.Size.StringFixed(2)))
		}
		e.publish(events.SymbolEvictedEvent{
			BaseEvent: events.NewBase(events.SymbolEvicted, at),
			Symbol:    evictedPos.Symbol,
			Position:  evictedPos,
		})
	}

	if out.report != nil {
		e.dispatchReport(out.report, at)
	}

	if out.opened != nil {
		e.metrics.Entry(string(ev.Side.Direction()))
		e.logger.Debug("Entered position",
			zap.String("symbol", ev.Symbol),
			zap.String("direction", string(out.opened.Direction)),
			zap.String("price", ev.Price.String()),
			zap.String("entry", out.opened.EntryPrice.String()))
		e.publish(events.PositionOpenedEvent{
			BaseEvent: events.NewBase(events.PositionOpened, at),
			Symbol:    ev.Symbol,
			Direction: out.opened.Direction,
			Price:     ev.Price,
			Notional:  e.tradeSize,
			Position:  *out.opened,
		})
	}

	if out.rejected != nil {
		reason := "invalid"
		switch {
		case errors.Is(out.rejected, ledger.ErrInsufficientBalance):
			reason = "insufficient_balance"
			e.logger.Info("Insufficient balance to enter trade",
				zap.String("symbol", ev.Symbol), zap.Error(out.rejected))
		case errors.Is(out.rejected, ledger.ErrDirectionConflict):
			reason = "direction_conflict"
			e.logger.Info("Entry rejected", zap.String("symbol", ev.Symbol), zap.Error(out.rejected))
		default:
			e.logger.Warn("Entry failed", zap.String("symbol", ev.Symbol), zap.Error(out.rejected))
		}
		e.metrics.EntryRejected(reason)
		e.publish(events.EntryRejectedEvent{
			BaseEvent: events.NewBase(events.EntryRejected, at),
			Symbol:    ev.Symbol,
			Direction: ev.Side.Direction(),
			Reason:    out.rejected.Error(),
		})
	}

	for _, c := range out.closures {
		e.metrics.Closed(string(c.Reason))
		e.logger.Info("Position closed",
			zap.String("symbol", c.Symbol),
			zap.String("result", c.Result),
			zap.String("exit_price", c.ExitPrice.String()))
		e.publish(events.PositionClosedEvent{
			BaseEvent:  events.NewBase(events.PositionClosed, at),
			Symbol:     c.Symbol,
			Direction:  c.Direction,
			Size:       c.Size,
			EntryPrice: c.EntryPrice,
			ExitPrice:  c.ExitPrice,
			PnL:        c.PnL,
			Reason:     string(c.Reason),
			Result:     c.Result,
		})
	}

	e.publishAccount(out.account, out.tracked)
}

func (e *Engine) dispatchReport(r *aggregate.Report, at time.Time) {
	e.metrics.WindowFlushed()
	for _, a := range r.Alerts {
		e.metrics.Alert(a.Symbol)
		e.logger.Info("Liquidation threshold reached",
			zap.String("symbol", a.Symbol),
			zap.String("total", a.Total.StringFixed(2)))
		e.publish(events.AlertFiredEvent{
			BaseEvent: events.NewBase(events.AlertFired, at),
			Symbol:    a.Symbol,
			Total:     a.Total,
			Message:   a.Message,
		})
	}
	msgs := r.Messages()
	if e.messenger == nil || len(msgs) == 0 {
		return
	}
	if !e.messenger.Enqueue(msgs...) {
		e.logger.Warn("Window report dropped", zap.Int("messages", len(msgs)))
	}
}

func (e *Engine) publish(ev events.Event) {
	if e.bus == nil {
		return
	}
	_ = e.bus.Publish(ev)
}

func (e *Engine) publishAccount(a ledger.Account, tracked int) {
	e.metrics.Account(
		a.Balance.InexactFloat64(),
		a.MaxDrawdownPct.InexactFloat64(),
		a.TotalRealizedPnL.InexactFloat64(),
		tracked)
}
