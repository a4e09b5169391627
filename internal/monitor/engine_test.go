package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/domingochavezspecops/TradingScripts/internal/domain"
	"github.com/domingochavezspecops/TradingScripts/internal/events"
	"github.com/domingochavezspecops/TradingScripts/internal/ledger"
	"github.com/domingochavezspecops/TradingScripts/internal/metrics"
	"github.com/domingochavezspecops/TradingScripts/internal/notify"
	"github.com/domingochavezspecops/TradingScripts/internal/pricefeed"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(dur time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(dur)
}

type recordingMessenger struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingMessenger) Enqueue(msgs ...string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msgs...)
	return true
}

func (r *recordingMessenger) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type()
	}
	return out
}

func liq(symbol string, side domain.Side, price, qty string) domain.LiquidationEvent {
	return domain.NewLiquidationEvent(symbol, side, d(price), d(qty), time.Now())
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *fakeClock, *recordingMessenger, *recordingPublisher) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	msgr := &recordingMessenger{}
	pub := &recordingPublisher{}
	e := NewEngine(cfg, msgr, metrics.NewCollector(), zap.NewNop(),
		WithClock(clock.Now), WithPublisher(pub))
	return e, clock, msgr, pub
}

func TestHandleLiquidationEntersFollowingPosition(t *testing.T) {
	e, _, _, pub := newTestEngine(t, DefaultConfig())

	e.HandleLiquidation(context.Background(), liq("BTCUSDT", domain.SideSell, "60000", "1"))

	snap := e.Snapshot()
	require.Len(t, snap.Rows, 1)
	row := snap.Rows[0]
	assert.Equal(t, domain.DirectionLong, row.Position.Direction)
	assert.True(t, row.Position.Size.Equal(d("100")))
	assert.True(t, row.Position.EntryPrice.Equal(d("60000")))
	assert.True(t, row.LastLiquidation.Equal(d("60000")))
	assert.True(t, snap.Account.Balance.Equal(d("9900")))
	assert.Equal(t, uint64(1), snap.Processed)
	assert.Equal(t, []events.EventType{events.PositionOpened}, pub.types())
}

func TestHandleLiquidationBelowMinimumIsIgnored(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinLiquidation = d("1000")
	e, _, _, pub := newTestEngine(t, cfg)

	e.HandleLiquidation(context.Background(), liq("BTCUSDT", domain.SideBuy, "100", "9.99"))

	snap := e.Snapshot()
	assert.Empty(t, snap.Rows)
	assert.Empty(t, snap.WindowTotals)
	assert.True(t, snap.Account.Balance.Equal(d("10000")))
	assert.Empty(t, pub.types())

	e.SetMinLiquidation(d("500"))
	e.HandleLiquidation(context.Background(), liq("BTCUSDT", domain.SideBuy, "100", "9.99"))
	assert.Len(t, e.Snapshot().Rows, 1)
	assert.True(t, e.MinLiquidation().Equal(d("500")))
}

func TestWindowAlertsAfterInterval(t *testing.T) {
	e, clock, msgr, pub := newTestEngine(t, DefaultConfig())
	ctx := context.Background()

	e.HandleLiquidation(ctx, liq("BTCUSDT", domain.SideSell, "60000", "1"))
	assert.Empty(t, msgr.sent())

	clock.Advance(5 * time.Minute)
	e.HandleLiquidation(ctx, liq("ETHUSDT", domain.SideBuy, "3000", "1"))

	msgs := msgr.sent()
	require.Len(t, msgs, 2)
	assert.Equal(t, "🚨 Large liquidations for BTCUSDT in the last 5 minutes: $60,000.00", msgs[0])
	assert.Equal(t, "📊 Liquidation Summary (last 5 minutes):\nBTCUSDT: $60,000.00\nETHUSDT: $3,000.00\n", msgs[1])
	assert.Contains(t, pub.types(), events.AlertFired)

	snap := e.Snapshot()
	assert.Empty(t, snap.WindowTotals)
	assert.Equal(t, clock.Now(), snap.WindowStart)
}

func TestWindowUnderThresholdSendsNothing(t *testing.T) {
	e, clock, msgr, _ := newTestEngine(t, DefaultConfig())
	ctx := context.Background()

	e.HandleLiquidation(ctx, liq("BTCUSDT", domain.SideSell, "100", "1"))
	clock.Advance(6 * time.Minute)
	e.HandleLiquidation(ctx, liq("BTCUSDT", domain.SideSell, "100", "1"))

	assert.Empty(t, msgr.sent())
	assert.Empty(t, e.Snapshot().WindowTotals)
}

func TestInsufficientBalanceRejectsEntry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ledger.StartingBalance = d("50")
	e, _, _, pub := newTestEngine(t, cfg)

	e.HandleLiquidation(context.Background(), liq("BTCUSDT", domain.SideSell, "60000", "1"))

	snap := e.Snapshot()
	require.Len(t, snap.Rows, 1)
	assert.False(t, snap.Rows[0].Position.IsOpen())
	assert.True(t, snap.Account.Balance.Equal(d("50")))
	assert.Equal(t, []events.EventType{events.EntryRejected}, pub.types())
}

func TestApplyTickersClosesOnStopLoss(t *testing.T) {
	e, _, _, pub := newTestEngine(t, DefaultConfig())
	ctx := context.Background()

	e.HandleLiquidation(ctx, liq("BTCUSDT", domain.SideSell, "100", "1000"))

	for _, p := range []string{"100", "95", "90"} {
		e.ApplyTickers(ctx, []pricefeed.Ticker{
			{Symbol: "BTCUSDT", LastPrice: d(p), PriceChangePercent: d("-10")},
			{Symbol: "UNTRACKED", LastPrice: d("1")},
		})
	}

	snap := e.Snapshot()
	row := snap.Rows[0]
	assert.Equal(t, domain.DirectionNone, row.Position.Direction)
	assert.Equal(t, "Stop Loss: Loss $10.00", row.Position.LastResult)
	assert.True(t, row.PriceChange24h.Equal(d("-10")))
	assert.True(t, snap.Account.TotalRealizedPnL.Equal(d("-10")))
	assert.True(t, snap.Account.Balance.Equal(d("9990")))
	assert.Contains(t, pub.types(), events.PositionClosed)
}

func TestEvictionPublishesEvent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ledger.Capacity = 2
	e, _, _, pub := newTestEngine(t, cfg)
	ctx := context.Background()

	for _, sym := range []string{"AUSDT", "BUSDT", "CUSDT"} {
		e.HandleLiquidation(ctx, liq(sym, domain.SideSell, "10", "10"))
	}

	snap := e.Snapshot()
	require.Len(t, snap.Rows, 2)
	assert.Equal(t, "CUSDT", snap.Rows[0].Position.Symbol)
	assert.Equal(t, "BUSDT", snap.Rows[1].Position.Symbol)
	assert.Contains(t, pub.types(), events.SymbolEvicted)
}

func TestRejectOppositeReentry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ledger.Reentry = ledger.ReentryRejectOpposite
	e, _, _, pub := newTestEngine(t, cfg)
	ctx := context.Background()

	e.HandleLiquidation(ctx, liq("BTCUSDT", domain.SideSell, "100", "10"))
	e.HandleLiquidation(ctx, liq("BTCUSDT", domain.SideBuy, "100", "10"))

	snap := e.Snapshot()
	assert.Equal(t, domain.DirectionLong, snap.Rows[0].Position.Direction)
	assert.True(t, snap.Rows[0].Position.Size.Equal(d("100")))
	assert.Equal(t, []events.EventType{events.PositionOpened, events.EntryRejected}, pub.types())
}

// balance + open size - unrealized PnL always equals start + realized PnL
// while no open position has been evicted.
func assertConservation(t *testing.T, snap Snapshot, start decimal.Decimal) {
	t.Helper()
	size, unrealized := snap.OpenExposure()
	lhs := snap.Account.Balance.Add(size).Sub(unrealized)
	rhs := start.Add(snap.Account.TotalRealizedPnL)
	assert.True(t, lhs.Equal(rhs), "conservation violated: %s != %s", lhs, rhs)
}

func TestConcurrentWorkers(t *testing.T) {
	e, _, _, _ := newTestEngine(t, DefaultConfig())
	ctx := context.Background()
	symbols := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "XRPUSDT"}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				side := domain.SideSell
				if (i+w)%2 == 0 {
					side = domain.SideBuy
				}
				price := fmt.Sprintf("%d", 90+(i*7+w)%25)
				e.HandleLiquidation(ctx, liq(symbols[(i+w)%len(symbols)], side, price, "10"))
			}
		}(w)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			tickers := make([]pricefeed.Ticker, 0, len(symbols))
			for j, sym := range symbols {
				tickers = append(tickers, pricefeed.Ticker{
					Symbol:    sym,
					LastPrice: decimal.NewFromInt(int64(85 + (i+j)%30)),
				})
			}
			e.ApplyTickers(ctx, tickers)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			assertConservation(t, e.Snapshot(), d("10000"))
		}
	}()

	wg.Wait()

	snap := e.Snapshot()
	assert.Equal(t, uint64(200), snap.Processed)
	assert.Len(t, snap.Rows, len(symbols))
	assertConservation(t, snap, d("10000"))
	assert.True(t, snap.Account.MaxDrawdownPct.GreaterThanOrEqual(decimal.Zero))
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Send(_ context.Context, msg string) (notify.Result, error) {
	time.Sleep(time.Millisecond)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return notify.Delivered, nil
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

func TestWindowFlushDeliversEveryAlertAndSummary(t *testing.T) {
	const symbols = 80
	notifier := &recordingNotifier{}
	dispatcher := notify.NewDispatcher(notifier, 0, time.Second, metrics.NewCollector(), zap.NewNop())

	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	e := NewEngine(DefaultConfig(), dispatcher, metrics.NewCollector(), zap.NewNop(), WithClock(clock.Now))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = dispatcher.Run(ctx) }()

	for i := 0; i < symbols; i++ {
		e.HandleLiquidation(ctx, liq(fmt.Sprintf("S%03dUSDT", i), domain.SideSell, "60000", "1"))
	}
	clock.Advance(5 * time.Minute)
	e.HandleLiquidation(ctx, liq("TRIGUSDT", domain.SideSell, "1", "1"))

	require.Eventually(t, func() bool { return len(notifier.sent()) == symbols+1 }, 5*time.Second, 5*time.Millisecond)

	sent := notifier.sent()
	alerts := 0
	for _, msg := range sent[:symbols] {
		if strings.HasPrefix(msg, "🚨 Large liquidations for ") {
			alerts++
		}
	}
	assert.Equal(t, symbols, alerts)
	assert.True(t, strings.HasPrefix(sent[symbols], "📊 Liquidation Summary (last 5 minutes):"))
	assert.Contains(t, sent[symbols], "TRIGUSDT: $1.00")
}

func TestApplyTickersSkipsNonPositivePrice(t *testing.T) {
	e, _, _, pub := newTestEngine(t, DefaultConfig())
	ctx := context.Background()

	e.HandleLiquidation(ctx, liq("BTCUSDT", domain.SideSell, "100", "1"))
	e.ApplyTickers(ctx, []pricefeed.Ticker{{Symbol: "BTCUSDT", LastPrice: d("103")}})

	before := e.Snapshot()
	require.True(t, before.Rows[0].Position.CurrentPnL.Equal(d("3")))

	e.ApplyTickers(ctx, []pricefeed.Ticker{
		{Symbol: "BTCUSDT", LastPrice: decimal.Zero},
		{Symbol: "BTCUSDT", LastPrice: d("-5")},
	})

	after := e.Snapshot()
	row := after.Rows[0]
	assert.True(t, row.Position.IsOpen())
	assert.Equal(t, domain.DirectionLong, row.Position.Direction)
	assert.True(t, row.Position.CurrentPnL.Equal(d("3")))
	assert.Empty(t, row.Position.LastResult)
	assert.True(t, after.Account.Balance.Equal(before.Account.Balance))
	assert.NotContains(t, pub.types(), events.PositionClosed)
}

func TestEventsPublishedInMutationOrder(t *testing.T) {
	e, _, _, pub := newTestEngine(t, DefaultConfig())
	ctx := context.Background()
	symbols := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "XRPUSDT"}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			side := domain.SideSell
			if i%2 == 0 {
				side = domain.SideBuy
			}
			e.HandleLiquidation(ctx, liq(symbols[i%len(symbols)], side, "100", "1"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			price := d("80")
			if i%2 == 0 {
				price = d("120")
			}
			tickers := make([]pricefeed.Ticker, 0, len(symbols))
			for _, sym := range symbols {
				tickers = append(tickers, pricefeed.Ticker{Symbol: sym, LastPrice: price})
			}
			e.ApplyTickers(ctx, tickers)
		}
	}()
	wg.Wait()

	e.HandleLiquidation(ctx, liq("BTCUSDT", domain.SideSell, "100", "1"))
	e.ApplyTickers(ctx, []pricefeed.Ticker{{Symbol: "BTCUSDT", LastPrice: d("80")}})

	pub.mu.Lock()
	defer pub.mu.Unlock()
	open := make(map[string]bool)
	closes := 0
	for i, ev := range pub.events {
		switch v := ev.(type) {
		case events.PositionOpenedEvent:
			open[v.Symbol] = true
		case events.PositionClosedEvent:
			require.True(t, open[v.Symbol], "event %d closes %s before it was opened", i, v.Symbol)
			open[v.Symbol] = false
			closes++
		case events.SymbolEvictedEvent:
			open[v.Symbol] = false
		}
	}
	assert.Positive(t, closes)
}
