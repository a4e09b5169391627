package monitor

import (
	"time"

	"github.com/domingochavezspecops/TradingScripts/internal/aggregate"
	"github.com/domingochavezspecops/TradingScripts/internal/ledger"
	"github.com/shopspring/decimal"
)

// Snapshot is a consistent read-only copy of engine state for display.
type Snapshot struct {
	TakenAt        time.Time
	MinLiquidation decimal.Decimal
	Account        ledger.Account
	Rows           []ledger.Record // newest first
	Capacity       int
	WindowStart    time.Time
	WindowInterval time.Duration
	WindowTotals   []aggregate.SymbolTotal
	Processed      uint64
	LastEventAt    time.Time
}

// Snapshot copies the current state under the lock.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		TakenAt:        e.now(),
		MinLiquidation: e.minLiquidation,
		Account:        e.ledger.Account(),
		Rows:           e.ledger.Records(),
		Capacity:       e.ledger.Capacity(),
		WindowStart:    e.window.Start(),
		WindowInterval: e.window.Interval(),
		WindowTotals:   e.window.Totals(),
		Processed:      e.processed,
		LastEventAt:    e.lastEventAt,
	}
}

// OpenExposure sums the size and unrealized PnL of open positions.
func (s Snapshot) OpenExposure() (size, unrealized decimal.Decimal) {
	for _, r := range s.Rows {
		if r.Position.IsOpen() {
			size = size.Add(r.Position.Size)
			unrealized = unrealized.Add(r.Position.CurrentPnL)
		}
	}
	return size, unrealized
}
