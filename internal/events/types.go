// internal/events/types.go
package events

import (
	"time"

	"github.com/domingochavezspecops/TradingScripts/internal/domain"
	"github.com/shopspring/decimal"
)

// EventType names a kind of engine event.
type EventType string

const (
	PositionOpened EventType = "position.opened"
	PositionClosed EventType = "position.closed"
	SymbolEvicted  EventType = "symbol.evicted"
	EntryRejected  EventType = "entry.rejected"
	AlertFired     EventType = "alert.fired"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

func (e BaseEvent) Type() EventType {
	return e.EventType
}

func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// NewBase stamps an event of type t at time at.
func NewBase(t EventType, at time.Time) BaseEvent {
	return BaseEvent{EventType: t, EventTime: at}
}

// PositionOpenedEvent is emitted after every successful entry, including
// additions to an open position.
type PositionOpenedEvent struct {
	BaseEvent
	Symbol    string
	Direction domain.Direction
	Price     decimal.Decimal // fill price of this entry
	Notional  decimal.Decimal
	Position  domain.Position // after the entry
}

// PositionClosedEvent is emitted when stop-loss or take-profit closes a position.
type PositionClosedEvent struct {
	BaseEvent
	Symbol     string
	Direction  domain.Direction
	Size       decimal.Decimal
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	PnL        decimal.Decimal
	Reason     string
	Result     string
}

// SymbolEvictedEvent is emitted when a symbol leaves the tracked set.
type SymbolEvictedEvent struct {
	BaseEvent
	Symbol   string
	Position domain.Position
}

// EntryRejectedEvent is emitted when an entry is refused.
type EntryRejectedEvent struct {
	BaseEvent
	Symbol    string
	Direction domain.Direction
	Reason    string
}

// AlertFiredEvent is emitted for each threshold alert.
type AlertFiredEvent struct {
	BaseEvent
	Symbol  string
	Total   decimal.Decimal
	Message string
}
