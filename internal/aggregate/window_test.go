package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMaybeFlushBeforeInterval(t *testing.T) {
	w := NewWindow(DefaultConfig(), t0)
	w.Accumulate("BTCUSDT", d("60000"))

	assert.Nil(t, w.MaybeFlush(t0.Add(299*time.Second)))
	assert.Len(t, w.Totals(), 1)
}

func TestMaybeFlushAlertAndSummary(t *testing.T) {
	w := NewWindow(DefaultConfig(), t0)
	w.Accumulate("BTCUSDT", d("40000"))
	w.Accumulate("BTCUSDT", d("20000"))
	w.Accumulate("ETHUSDT", d("1500.5"))

	now := t0.Add(300 * time.Second)
	report := w.MaybeFlush(now)
	require.NotNil(t, report)

	require.Len(t, report.Alerts, 1)
	assert.Equal(t, "BTCUSDT", report.Alerts[0].Symbol)
	assert.Equal(t, "🚨 Large liquidations for BTCUSDT in the last 5 minutes: $60,000.00", report.Alerts[0].Message)
	assert.Equal(t, "📊 Liquidation Summary (last 5 minutes):\nBTCUSDT: $60,000.00\nETHUSDT: $1,500.50\n", report.Summary)

	msgs := report.Messages()
	assert.Len(t, msgs, 2)

	assert.Empty(t, w.Totals())
	assert.Equal(t, now, w.Start())
}

func TestMaybeFlushUnderThresholdStillClears(t *testing.T) {
	w := NewWindow(DefaultConfig(), t0)
	w.Accumulate("BTCUSDT", d("49999.99"))
	w.Accumulate("SOLUSDT", d("100"))

	report := w.MaybeFlush(t0.Add(10 * time.Minute))
	require.NotNil(t, report)

	assert.Empty(t, report.Alerts)
	assert.Empty(t, report.Summary)
	assert.Empty(t, report.Messages())
	assert.Len(t, report.Totals, 2)
	assert.Empty(t, w.Totals())
}

func TestThresholdIsInclusive(t *testing.T) {
	w := NewWindow(DefaultConfig(), t0)
	w.Accumulate("BTCUSDT", d("50000"))

	report := w.MaybeFlush(t0.Add(DefaultInterval))
	require.NotNil(t, report)
	assert.Len(t, report.Alerts, 1)
}

func TestSummaryOrderingAndZeroes(t *testing.T) {
	w := NewWindow(Config{Threshold: d("100"), Interval: time.Minute}, t0)
	w.Accumulate("AAAUSDT", d("150"))
	w.Accumulate("BBBUSDT", d("300"))
	w.Accumulate("CCCUSDT", d("150"))
	w.Accumulate("ZERUSDT", d("0"))

	report := w.MaybeFlush(t0.Add(time.Minute))
	require.NotNil(t, report)

	require.Len(t, report.Alerts, 3)
	assert.Equal(t, "BBBUSDT", report.Alerts[0].Symbol)
	assert.Equal(t,
		"📊 Liquidation Summary (last 1 minute):\nBBBUSDT: $300.00\nAAAUSDT: $150.00\nCCCUSDT: $150.00\n",
		report.Summary)
}

func TestAccumulateRejectsNegative(t *testing.T) {
	w := NewWindow(DefaultConfig(), t0)
	assert.False(t, w.Accumulate("BTCUSDT", d("-1")))
	assert.Empty(t, w.Totals())
}

func TestFormatInterval(t *testing.T) {
	assert.Equal(t, "5 minutes", FormatInterval(5*time.Minute))
	assert.Equal(t, "1 hour", FormatInterval(time.Hour))
	assert.Equal(t, "90 seconds", FormatInterval(90*time.Second))
	assert.Equal(t, "1.5s", FormatInterval(1500*time.Millisecond))
}
