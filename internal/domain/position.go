// internal/domain/position.go
package domain

import "github.com/shopspring/decimal"

// Direction of a simulated position.
type Direction string

const (
	DirectionNone  Direction = "NONE"
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Position is the simulated exposure held for one symbol. Size is the USD
// notional currently committed.
type Position struct {
	Symbol          string          `json:"symbol"`
	Direction       Direction       `json:"direction"`
	Size            decimal.Decimal `json:"size"`
	EntryPrice      decimal.Decimal `json:"entry_price"`
	CurrentPnL      decimal.Decimal `json:"current_pnl"`
	StopLossPrice   decimal.Decimal `json:"stop_loss_price"`
	TakeProfitPrice decimal.Decimal `json:"take_profit_price"`
	LastResult      string          `json:"last_result,omitempty"`
}

// IsOpen reports whether the position currently holds any size.
func (p Position) IsOpen() bool {
	return p.Size.IsPositive()
}
