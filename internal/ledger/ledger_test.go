package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/domingochavezspecops/TradingScripts/internal/domain"
	"github.com/domingochavezspecops/TradingScripts/internal/risk"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), append([]interface{}{"want %s, got %s", want, got}, msgAndArgs...)...)
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l := New(DefaultConfig())
	l.Observe("BTCUSDT", d("60000"))
	return l
}

func TestEnterDebitsBalanceAndSetsLevels(t *testing.T) {
	l := newTestLedger(t)

	pos, err := l.Enter("BTCUSDT", domain.DirectionLong, d("100"), d("100"))
	require.NoError(t, err)

	assert.Equal(t, domain.DirectionLong, pos.Direction)
	assertDecimal(t, "100", pos.Size)
	assertDecimal(t, "100", pos.EntryPrice)
	assertDecimal(t, "90", pos.StopLossPrice)
	assertDecimal(t, "105", pos.TakeProfitPrice)
	assertDecimal(t, "9900", l.Account().Balance)
}

func TestEnterVolumeWeightedEntry(t *testing.T) {
	l := newTestLedger(t)

	entries := []struct{ price, amount string }{
		{"100", "100"},
		{"110", "100"},
		{"95", "200"},
	}
	for _, e := range entries {
		_, err := l.Enter("BTCUSDT", domain.DirectionLong, d(e.price), d(e.amount))
		require.NoError(t, err)
	}

	pos, ok := l.Position("BTCUSDT")
	require.True(t, ok)
	// (100*100 + 100*110 + 200*95) / 400
	assertDecimal(t, "100", pos.EntryPrice)
	assertDecimal(t, "400", pos.Size)
	assertDecimal(t, "9600", l.Account().Balance)
}

func TestEnterInsufficientBalance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartingBalance = d("50")
	l := New(cfg)
	l.Observe("ETHUSDT", d("1000"))

	_, err := l.Enter("ETHUSDT", domain.DirectionShort, d("3000"), d("100"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientBalance))

	var balanceErr *InsufficientBalanceError
	require.True(t, errors.As(err, &balanceErr))
	assertDecimal(t, "50", balanceErr.Balance)
	assertDecimal(t, "100", balanceErr.Required)

	pos, ok := l.Position("ETHUSDT")
	require.True(t, ok)
	assert.False(t, pos.IsOpen())
	assert.Equal(t, domain.DirectionNone, pos.Direction)
	assertDecimal(t, "50", l.Account().Balance)
}

func TestEnterUntrackedSymbol(t *testing.T) {
	l := New(DefaultConfig())

	_, err := l.Enter("XRPUSDT", domain.DirectionLong, d("1"), d("100"))
	assert.True(t, errors.Is(err, ErrUnknownSymbol))
}

func TestEnterInvalid(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Enter("BTCUSDT", domain.DirectionNone, d("1"), d("100"))
	assert.True(t, errors.Is(err, ErrInvalidEntry))

	_, err = l.Enter("BTCUSDT", domain.DirectionLong, d("0"), d("100"))
	assert.True(t, errors.Is(err, ErrInvalidEntry))
}

func TestMarkToMarketIsIdempotentAtSamePrice(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Enter("BTCUSDT", domain.DirectionLong, d("100"), d("100"))
	require.NoError(t, err)

	delta := l.MarkToMarket("BTCUSDT", d("110"))
	assertDecimal(t, "10", delta)
	assertDecimal(t, "9910", l.Account().Balance)

	delta = l.MarkToMarket("BTCUSDT", d("110"))
	assert.True(t, delta.IsZero())
	assertDecimal(t, "9910", l.Account().Balance)
}

func TestMarkToMarketShort(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Enter("BTCUSDT", domain.DirectionShort, d("200"), d("100"))
	require.NoError(t, err)

	delta := l.MarkToMarket("BTCUSDT", d("190"))
	assertDecimal(t, "5", delta)

	pos, _ := l.Position("BTCUSDT")
	assertDecimal(t, "5", pos.CurrentPnL)
}

func TestMarkToMarketFlatPositionIsNoop(t *testing.T) {
	l := newTestLedger(t)

	assert.True(t, l.MarkToMarket("BTCUSDT", d("123")).IsZero())
	assert.True(t, l.MarkToMarket("UNKNOWN", d("123")).IsZero())
	assertDecimal(t, "10000", l.Account().Balance)
}

func runPriceSequence(t *testing.T, l *Ledger, symbol string, prices ...string) (Closure, bool) {
	t.Helper()
	for _, p := range prices {
		price := d(p)
		l.MarkToMarket(symbol, price)
		if reason, hit := l.Evaluate(symbol, price); hit {
			return l.Close(symbol, price, reason)
		}
	}
	return Closure{}, false
}

func TestStopLossSequence(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Enter("BTCUSDT", domain.DirectionLong, d("100"), d("100"))
	require.NoError(t, err)

	closure, closed := runPriceSequence(t, l, "BTCUSDT", "100", "95", "90")
	require.True(t, closed)

	assert.Equal(t, risk.StopLoss, closure.Reason)
	assertDecimal(t, "-10", closure.PnL)
	assert.Equal(t, "Stop Loss: Loss $10.00", closure.Result)

	acct := l.Account()
	assertDecimal(t, "-10", acct.TotalRealizedPnL)
	assertDecimal(t, "9990", acct.Balance)

	pos, _ := l.Position("BTCUSDT")
	assert.Equal(t, domain.DirectionNone, pos.Direction)
	assert.True(t, pos.Size.IsZero())
	assert.True(t, pos.CurrentPnL.IsZero())
	assert.True(t, pos.StopLossPrice.IsZero())
	assert.True(t, pos.TakeProfitPrice.IsZero())
	assert.Equal(t, "Stop Loss: Loss $10.00", pos.LastResult)
}

func TestTakeProfitSequence(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Enter("BTCUSDT", domain.DirectionLong, d("100"), d("100"))
	require.NoError(t, err)

	closure, closed := runPriceSequence(t, l, "BTCUSDT", "100", "103", "105")
	require.True(t, closed)

	assert.Equal(t, risk.TakeProfit, closure.Reason)
	assertDecimal(t, "5", closure.PnL)
	assert.Equal(t, "Take Profit: Profit $5.00", closure.Result)
	assertDecimal(t, "10005", l.Account().Balance)
	assertDecimal(t, "5", l.Account().TotalRealizedPnL)
}

func TestCloseIsIdempotent(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Enter("BTCUSDT", domain.DirectionLong, d("100"), d("100"))
	require.NoError(t, err)

	_, closed := l.Close("BTCUSDT", d("100"), risk.TakeProfit)
	require.True(t, closed)
	balance := l.Account().Balance

	_, closed = l.Close("BTCUSDT", d("100"), risk.TakeProfit)
	assert.False(t, closed)
	assert.True(t, l.Account().Balance.Equal(balance))
}

func TestTrackedCapacityEvictsOldest(t *testing.T) {
	l := New(DefaultConfig())

	for i := 0; i < DefaultCapacity; i++ {
		assert.Nil(t, l.Observe(fmt.Sprintf("SYM%02dUSDT", i), d("1")))
	}
	_, err := l.Enter("SYM00USDT", domain.DirectionLong, d("10"), d("100"))
	require.NoError(t, err)

	evicted := l.Observe("NEWUSDT", d("1"))
	require.NotNil(t, evicted)
	assert.Equal(t, "SYM00USDT", evicted.Position.Symbol)
	assert.True(t, evicted.Position.IsOpen())

	symbols := l.Symbols()
	assert.Len(t, symbols, DefaultCapacity)
	assert.Equal(t, "SYM01USDT", symbols[0])
	assert.Equal(t, "NEWUSDT", symbols[len(symbols)-1])

	_, ok := l.Position("SYM00USDT")
	assert.False(t, ok)
	// the committed notional goes with the evicted record
	assertDecimal(t, "9900", l.Account().Balance)
}

func TestObserveUpdatesLiquidationStats(t *testing.T) {
	l := New(DefaultConfig())
	l.Observe("BTCUSDT", d("1000"))
	l.Observe("ETHUSDT", d("10"))
	l.Observe("BTCUSDT", d("500"))

	rec, ok := l.Record("BTCUSDT")
	require.True(t, ok)
	assertDecimal(t, "500", rec.LastLiquidation)
	assertDecimal(t, "1500", rec.TotalLiquidations)

	require.True(t, l.SetPriceChange("BTCUSDT", d("-2.5")))
	assert.False(t, l.SetPriceChange("DOGEUSDT", d("1")))

	records := l.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "ETHUSDT", records[0].Position.Symbol)
	assertDecimal(t, "-2.5", records[1].PriceChange24h)
}

func TestMaxDrawdown(t *testing.T) {
	l := New(DefaultConfig())

	l.adjustBalance(d("2000"))
	l.adjustBalance(d("-3000"))

	acct := l.Account()
	assertDecimal(t, "12000", acct.MaxBalanceSeen)
	assertDecimal(t, "25", acct.MaxDrawdownPct)

	l.adjustBalance(d("1000"))
	assertDecimal(t, "25", l.Account().MaxDrawdownPct)
}

func TestReentryFollowEvent(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Enter("BTCUSDT", domain.DirectionLong, d("100"), d("100"))
	require.NoError(t, err)

	pos, err := l.Enter("BTCUSDT", domain.DirectionShort, d("110"), d("100"))
	require.NoError(t, err)

	assert.Equal(t, domain.DirectionShort, pos.Direction)
	assertDecimal(t, "200", pos.Size)
	assertDecimal(t, "105", pos.EntryPrice)
	assertDecimal(t, "115.5", pos.StopLossPrice)
	assertDecimal(t, "99.75", pos.TakeProfitPrice)
}

func TestReentryRejectOpposite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Reentry = ReentryRejectOpposite
	l := New(cfg)
	l.Observe("BTCUSDT", d("1"))

	_, err := l.Enter("BTCUSDT", domain.DirectionLong, d("100"), d("100"))
	require.NoError(t, err)

	_, err = l.Enter("BTCUSDT", domain.DirectionShort, d("110"), d("100"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDirectionConflict))
	assertDecimal(t, "9900", l.Account().Balance)

	pos, err := l.Enter("BTCUSDT", domain.DirectionLong, d("110"), d("100"))
	require.NoError(t, err)
	assertDecimal(t, "105", pos.EntryPrice)
}

func TestParseReentryPolicy(t *testing.T) {
	p, err := ParseReentryPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ReentryFollowEvent, p)

	p, err = ParseReentryPolicy("Reject_Opposite")
	require.NoError(t, err)
	assert.Equal(t, ReentryRejectOpposite, p)

	_, err = ParseReentryPolicy("flip")
	assert.Error(t, err)
}

func TestFormatResult(t *testing.T) {
	assert.Equal(t, "Take Profit: Profit $5.00", FormatResult(risk.TakeProfit, d("5")))
	assert.Equal(t, "Stop Loss: Loss $0.00", FormatResult(risk.StopLoss, d("0")))
	assert.Equal(t, "Stop Loss: Loss $12.35", FormatResult(risk.StopLoss, d("-12.345")))
}

func TestTrackedSetLookupsKeepInsertionOrder(t *testing.T) {
	s := NewTrackedSet(3)
	for _, sym := range []string{"AUSDT", "BUSDT", "CUSDT"} {
		_, evicted := s.Add(sym)
		assert.Nil(t, evicted)
	}

	_, ok := s.Get("AUSDT")
	require.True(t, ok)
	rec, evicted := s.Add("AUSDT")
	assert.Nil(t, evicted)
	assert.Equal(t, "AUSDT", rec.Position.Symbol)

	_, evicted = s.Add("DUSDT")
	require.NotNil(t, evicted)
	assert.Equal(t, "AUSDT", evicted.Position.Symbol)
	assert.Equal(t, []string{"BUSDT", "CUSDT", "DUSDT"}, s.Symbols())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, DefaultCapacity, NewTrackedSet(0).Capacity())
}

func TestEvaluateIgnoresNonPositivePrice(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Enter("BTCUSDT", domain.DirectionLong, d("100"), d("100"))
	require.NoError(t, err)

	_, hit := l.Evaluate("BTCUSDT", decimal.Zero)
	assert.False(t, hit)
	_, hit = l.Evaluate("BTCUSDT", d("-1"))
	assert.False(t, hit)

	reason, hit := l.Evaluate("BTCUSDT", d("90"))
	assert.True(t, hit)
	assert.Equal(t, risk.StopLoss, reason)
}
