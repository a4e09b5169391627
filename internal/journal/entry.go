// internal/journal/entry.go
package journal

import (
	"fmt"
	"time"

	"github.com/domingochavezspecops/TradingScripts/internal/events"
	"github.com/domingochavezspecops/TradingScripts/internal/money"
	"github.com/shopspring/decimal"
)

// Entry is one journaled engine event.
type Entry struct {
	ID        string           `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Event     events.EventType `json:"event"`
	Symbol    string           `json:"symbol"`
	Direction string           `json:"direction,omitempty"`
	Price     decimal.Decimal  `json:"price"`
	Size      decimal.Decimal  `json:"size"`
	PnL       decimal.Decimal  `json:"pnl"`
	Detail    string           `json:"detail,omitempty"`
}

// ToCSV converts the entry to a CSV record matching CSVHeaders.
func (e Entry) ToCSV() []string {
	return []string{
		e.ID,
		e.Timestamp.Format(time.RFC3339),
		string(e.Event),
		e.Symbol,
		e.Direction,
		e.Price.String(),
		e.Size.StringFixed(2),
		e.PnL.StringFixed(2),
		e.Detail,
	}
}

// CSVHeaders returns the header row for journal files.
func CSVHeaders() []string {
	return []string{
		"id",
		"timestamp",
		"event",
		"symbol",
		"direction",
		"price",
		"size",
		"pnl",
		"detail",
	}
}

// String renders the entry as a single activity line.
func (e Entry) String() string {
	ts := e.Timestamp.Format("15:04:05")
	switch e.Event {
	case events.PositionOpened:
		return fmt.Sprintf("%s  %s %s @ %s (size %s)", ts, e.Direction, e.Symbol, e.Price, money.USD(e.Size))
	case events.PositionClosed:
		return fmt.Sprintf("%s  %s closed @ %s: %s", ts, e.Symbol, e.Price, e.Detail)
	case events.SymbolEvicted:
		return fmt.Sprintf("%s  %s evicted %s", ts, e.Symbol, e.Detail)
	case events.EntryRejected:
		return fmt.Sprintf("%s  %s entry rejected: %s", ts, e.Symbol, e.Detail)
	case events.AlertFired:
		return fmt.Sprintf("%s  ALERT %s %s", ts, e.Symbol, money.USD(e.Size))
	default:
		return fmt.Sprintf("%s  %s %s", ts, e.Event, e.Symbol)
	}
}

// FromEvent converts a bus event into an entry. It reports false for
// event types the journal does not record.
func FromEvent(ev events.Event) (Entry, bool) {
	entry := Entry{
		Timestamp: ev.Timestamp(),
		Event:     ev.Type(),
	}

	switch e := ev.(type) {
	case events.PositionOpenedEvent:
		entry.Symbol = e.Symbol
		entry.Direction = string(e.Direction)
		entry.Price = e.Price
		entry.Size = e.Position.Size
		entry.Detail = "entry " + e.Position.EntryPrice.String()
	case events.PositionClosedEvent:
		entry.Symbol = e.Symbol
		entry.Direction = string(e.Direction)
		entry.Price = e.ExitPrice
		entry.Size = e.Size
		entry.PnL = e.PnL
		entry.Detail = e.Result
	case events.SymbolEvictedEvent:
		entry.Symbol = e.Symbol
		entry.Direction = string(e.Position.Direction)
		entry.Size = e.Position.Size
		entry.PnL = e.Position.CurrentPnL
		if e.Position.IsOpen() {
			entry.Detail = "with open position"
		}
	case events.EntryRejectedEvent:
		entry.Symbol = e.Symbol
		entry.Direction = string(e.Direction)
		entry.Detail = e.Reason
	case events.AlertFiredEvent:
		entry.Symbol = e.Symbol
		entry.Size = e.Total
		entry.Detail = e.Message
	default:
		return Entry{}, false
	}
	return entry, true
}
