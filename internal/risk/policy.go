// internal/risk/policy.go
package risk

import (
	"github.com/domingochavezspecops/TradingScripts/internal/domain"
	"github.com/shopspring/decimal"
)

// Reason explains why a position was closed.
type Reason string

const (
	StopLoss   Reason = "Stop Loss"
	TakeProfit Reason = "Take Profit"
)

func (r Reason) String() string {
	return string(r)
}

const (
	DefaultStopLossPct   = 10
	DefaultTakeProfitPct = 5
)

var hundred = decimal.NewFromInt(100)

// Policy holds stop-loss and take-profit distances expressed in percent of
// the entry price.
type Policy struct {
	StopLossPct   decimal.Decimal
	TakeProfitPct decimal.Decimal
}

// DefaultPolicy returns the 10% stop-loss / 5% take-profit policy.
func DefaultPolicy() Policy {
	return Policy{
		StopLossPct:   decimal.NewFromInt(DefaultStopLossPct),
		TakeProfitPct: decimal.NewFromInt(DefaultTakeProfitPct),
	}
}

// Levels computes stop-loss and take-profit prices for a position entered at
// entry. Both are zero for DirectionNone.
func (p Policy) Levels(direction domain.Direction, entry decimal.Decimal) (stopLoss, takeProfit decimal.Decimal) {
	sl := p.StopLossPct.Div(hundred)
	tp := p.TakeProfitPct.Div(hundred)
	one := decimal.NewFromInt(1)

	switch direction {
	case domain.DirectionLong:
		return entry.Mul(one.Sub(sl)), entry.Mul(one.Add(tp))
	case domain.DirectionShort:
		return entry.Mul(one.Add(sl)), entry.Mul(one.Sub(tp))
	default:
		return decimal.Zero, decimal.Zero
	}
}

// Evaluate decides whether pos must be closed at price. Stop-loss wins when
// both levels are crossed. Levels are inclusive.
func (p Policy) Evaluate(pos domain.Position, price decimal.Decimal) (Reason, bool) {
	if !pos.IsOpen() {
		return "", false
	}

	switch pos.Direction {
	case domain.DirectionLong:
		if price.LessThanOrEqual(pos.StopLossPrice) {
			return StopLoss, true
		}
		if price.GreaterThanOrEqual(pos.TakeProfitPrice) {
			return TakeProfit, true
		}
	case domain.DirectionShort:
		if price.GreaterThanOrEqual(pos.StopLossPrice) {
			return StopLoss, true
		}
		if price.LessThanOrEqual(pos.TakeProfitPrice) {
			return TakeProfit, true
		}
	}
	return "", false
}
