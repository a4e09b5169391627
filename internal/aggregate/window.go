// internal/aggregate/window.go
package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/domingochavezspecops/TradingScripts/internal/money"
	"github.com/shopspring/decimal"
)

const (
	DefaultThreshold = 50000
	DefaultInterval  = 5 * time.Minute
)

// Config configures an aggregation window.
type Config struct {
	Threshold decimal.Decimal
	Interval  time.Duration
}

// DefaultConfig returns a $50,000 threshold over five minutes.
func DefaultConfig() Config {
	return Config{
		Threshold: decimal.NewFromInt(DefaultThreshold),
		Interval:  DefaultInterval,
	}
}

// SymbolTotal is the liquidation value accumulated for one symbol.
type SymbolTotal struct {
	Symbol string
	Total  decimal.Decimal
}

// Alert is raised for a symbol whose window total reached the threshold.
type Alert struct {
	Symbol  string
	Total   decimal.Decimal
	Message string
}

// Report is produced when a window completes.
type Report struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Totals      []SymbolTotal // non-zero, largest first
	Alerts      []Alert
	Summary     string // empty unless an alert fired
}

// Messages returns the notifications to send: alerts first, then the summary.
func (r *Report) Messages() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Alerts)+1)
	for _, a := range r.Alerts {
		out = append(out, a.Message)
	}
	if r.Summary != "" {
		out = append(out, r.Summary)
	}
	return out
}

// Window accumulates liquidation value per symbol for a fixed interval. It is
// not safe for concurrent use.
type Window struct {
	threshold decimal.Decimal
	interval  time.Duration
	start     time.Time
	totals    map[string]decimal.Decimal
}

// NewWindow creates a window whose first interval begins at start.
func NewWindow(cfg Config, start time.Time) *Window {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Window{
		threshold: cfg.Threshold,
		interval:  cfg.Interval,
		start:     start,
		totals:    make(map[string]decimal.Decimal),
	}
}

// Accumulate adds value to symbol's running total. Negative values are
// ignored.
func (w *Window) Accumulate(symbol string, value decimal.Decimal) bool {
	if value.IsNegative() {
		return false
	}
	w.totals[symbol] = w.totals[symbol].Add(value)
	return true
}

// MaybeFlush closes the window if at least one interval has elapsed since it
// started. It returns nil while the window is still open. A completed window
// is always cleared and restarted at now, whether or not alerts fired.
func (w *Window) MaybeFlush(now time.Time) *Report {
	if now.Sub(w.start) < w.interval {
		return nil
	}

	report := &Report{
		WindowStart: w.start,
		WindowEnd:   now,
		Totals:      w.sortedTotals(),
	}

	for _, st := range report.Totals {
		if st.Total.GreaterThanOrEqual(w.threshold) {
			report.Alerts = append(report.Alerts, Alert{
				Symbol:  st.Symbol,
				Total:   st.Total,
				Message: AlertMessage(st.Symbol, st.Total, w.interval),
			})
		}
	}
	if len(report.Alerts) > 0 {
		report.Summary = SummaryMessage(report.Totals, w.interval)
	}

	w.totals = make(map[string]decimal.Decimal)
	w.start = now
	return report
}

// Totals returns the running totals of the open window, largest first.
func (w *Window) Totals() []SymbolTotal {
	return w.sortedTotals()
}

// Start returns when the open window began.
func (w *Window) Start() time.Time {
	return w.start
}

// Interval returns the window length.
func (w *Window) Interval() time.Duration {
	return w.interval
}

func (w *Window) sortedTotals() []SymbolTotal {
	out := make([]SymbolTotal, 0, len(w.totals))
	for sym, total := range w.totals {
		if total.IsZero() {
			continue
		}
		out = append(out, SymbolTotal{Symbol: sym, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// AlertMessage renders a threshold alert.
func AlertMessage(symbol string, total decimal.Decimal, interval time.Duration) string {
	return fmt.Sprintf("🚨 Large liquidations for %s in the last %s: %s",
		symbol, FormatInterval(interval), money.USD(total))
}

// SummaryMessage renders the per-symbol window summary.
func SummaryMessage(totals []SymbolTotal, interval time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Liquidation Summary (last %s):\n", FormatInterval(interval))
	for _, st := range totals {
		fmt.Fprintf(&b, "%s: %s\n", st.Symbol, money.USD(st.Total))
	}
	return b.String()
}

// FormatInterval renders an interval as "5 minutes", "1 hour" or "30 seconds".
func FormatInterval(d time.Duration) string {
	plural := func(n int64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int64(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int64(d/time.Minute), "minute")
	case d >= time.Second && d%time.Second == 0:
		return plural(int64(d/time.Second), "second")
	default:
		return d.String()
	}
}
