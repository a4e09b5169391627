package ledger

import (
	"errors"
	"fmt"

	"github.com/domingochavezspecops/TradingScripts/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDirectionConflict   = errors.New("direction conflicts with open position")
	ErrUnknownSymbol       = errors.New("symbol is not tracked")
	ErrInvalidEntry        = errors.New("invalid entry")
)

// InsufficientBalanceError is returned by Enter when the balance cannot
// cover the requested notional.
type InsufficientBalanceError struct {
	Symbol   string
	Balance  decimal.Decimal
	Required decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance to enter %s: have %s, need %s",
		e.Symbol, e.Balance.StringFixed(2), e.Required.StringFixed(2))
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// DirectionConflictError is returned when an entry opposes the open
// position and the reentry policy rejects it.
type DirectionConflictError struct {
	Symbol    string
	Open      domain.Direction
	Requested domain.Direction
}

func (e *DirectionConflictError) Error() string {
	return fmt.Sprintf("cannot enter %s %s: %s position is open", e.Symbol, e.Requested, e.Open)
}

func (e *DirectionConflictError) Unwrap() error {
	return ErrDirectionConflict
}
