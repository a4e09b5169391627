// internal/domain/liquidation.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the side of the forced order reported by the exchange.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Direction returns the direction a position takes when following a
// liquidation on this side. A forced BUY closes shorts, so we go SHORT;
// a forced SELL closes longs, so we go LONG.
func (s Side) Direction() Direction {
	switch s {
	case SideBuy:
		return DirectionShort
	case SideSell:
		return DirectionLong
	default:
		return DirectionNone
	}
}

// LiquidationEvent is a normalized forced-liquidation order.
type LiquidationEvent struct {
	Symbol     string          `json:"symbol"`
	Side       Side            `json:"side"`
	Price      decimal.Decimal `json:"price"`
	Quantity   decimal.Decimal `json:"quantity"`
	Notional   decimal.Decimal `json:"notional"`
	ObservedAt time.Time       `json:"observed_at"`
}

// NewLiquidationEvent builds an event and derives its notional value.
func NewLiquidationEvent(symbol string, side Side, price, quantity decimal.Decimal, observedAt time.Time) LiquidationEvent {
	return LiquidationEvent{
		Symbol:     symbol,
		Side:       side,
		Price:      price,
		Quantity:   quantity,
		Notional:   price.Mul(quantity),
		ObservedAt: observedAt,
	}
}
