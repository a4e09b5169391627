// internal/ledger/ledger.go
package ledger

import (
	"fmt"
	"strings"

	"github.com/domingochavezspecops/TradingScripts/internal/domain"
	"github.com/domingochavezspecops/TradingScripts/internal/risk"
	"github.com/shopspring/decimal"
)

// DefaultStartingBalance is the simulated account balance in USD.
const DefaultStartingBalance = 10000

var hundred = decimal.NewFromInt(100)

// ReentryPolicy controls what happens when an entry arrives for a symbol
// that already holds a position in the other direction.
type ReentryPolicy string

const (
	// ReentryFollowEvent adds to the position and adopts the new direction.
	ReentryFollowEvent ReentryPolicy = "follow_event"
	// ReentryRejectOpposite refuses entries against the open direction.
	ReentryRejectOpposite ReentryPolicy = "reject_opposite"
)

// ParseReentryPolicy validates a policy name. Empty selects follow_event.
func ParseReentryPolicy(s string) (ReentryPolicy, error) {
	switch p := ReentryPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ReentryFollowEvent, nil
	case ReentryFollowEvent, ReentryRejectOpposite:
		return p, nil
	default:
		return "", fmt.Errorf("unknown reentry policy %q", s)
	}
}

// Config configures a Ledger.
type Config struct {
	StartingBalance decimal.Decimal
	Capacity        int
	Risk            risk.Policy
	Reentry         ReentryPolicy
}

// DefaultConfig returns the stock simulation settings.
func DefaultConfig() Config {
	return Config{
		StartingBalance: decimal.NewFromInt(DefaultStartingBalance),
		Capacity:        DefaultCapacity,
		Risk:            risk.DefaultPolicy(),
		Reentry:         ReentryFollowEvent,
	}
}

// Account is a snapshot of the simulated cash account.
type Account struct {
	StartingBalance  decimal.Decimal
	Balance          decimal.Decimal
	MaxBalanceSeen   decimal.Decimal
	MaxDrawdownPct   decimal.Decimal
	TotalRealizedPnL decimal.Decimal
}

// Closure describes a position that was just closed.
type Closure struct {
	Symbol     string
	Direction  domain.Direction
	Size       decimal.Decimal
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	PnL        decimal.Decimal
	Reason     risk.Reason
	Result     string
}

// Ledger owns positions, tracked symbols and the account balance. It is not
// safe for concurrent use; callers serialize access.
type Ledger struct {
	policy  risk.Policy
	reentry ReentryPolicy
	tracked *TrackedSet
	account Account
}

// New creates a ledger with the given configuration.
func New(cfg Config) *Ledger {
	if cfg.Reentry == "" {
		cfg.Reentry = ReentryFollowEvent
	}
	return &Ledger{
		policy:  cfg.Risk,
		reentry: cfg.Reentry,
		tracked: NewTrackedSet(cfg.Capacity),
		account: Account{
			StartingBalance:  cfg.StartingBalance,
			Balance:          cfg.StartingBalance,
			MaxBalanceSeen:   cfg.StartingBalance,
			MaxDrawdownPct:   decimal.Zero,
			TotalRealizedPnL: decimal.Zero,
		},
	}
}

// Observe records a qualifying liquidation for symbol, tracking the symbol
// if it is new. If tracking it evicted the oldest symbol, that record is
// returned; its position, open or not, is discarded.
func (l *Ledger) Observe(symbol string, value decimal.Decimal) (evicted *Record) {
	rec, evicted := l.tracked.Add(symbol)
	rec.LastLiquidation = value
	rec.TotalLiquidations = rec.TotalLiquidations.Add(value)
	return evicted
}

// SetPriceChange stores the 24h price change for a tracked symbol.
func (l *Ledger) SetPriceChange(symbol string, pct decimal.Decimal) bool {
	rec, ok := l.tracked.Get(symbol)
	if !ok {
		return false
	}
	rec.PriceChange24h = pct
	return true
}

// Enter commits notional USD to symbol in direction at price. The balance is
// debited and the entry price becomes the volume-weighted average of all
// entries.
func (l *Ledger) Enter(symbol string, direction domain.Direction, price, notional decimal.Decimal) (domain.Position, error) {
	if direction == domain.DirectionNone || !price.IsPositive() || !notional.IsPositive() {
		return domain.Position{}, fmt.Errorf("%w: %s %s at %s for %s", ErrInvalidEntry, symbol, direction, price, notional)
	}

	rec, ok := l.tracked.Get(symbol)
	if !ok {
		return domain.Position{}, fmt.Errorf("enter %s: %w", symbol, ErrUnknownSymbol)
	}

	pos := &rec.Position
	if pos.IsOpen() && pos.Direction != direction && l.reentry == ReentryRejectOpposite {
		return domain.Position{}, &DirectionConflictError{Symbol: symbol, Open: pos.Direction, Requested: direction}
	}

	if l.account.Balance.LessThan(notional) {
		return domain.Position{}, &InsufficientBalanceError{
			Symbol:   symbol,
			Balance:  l.account.Balance,
			Required: notional,
		}
	}

	l.adjustBalance(notional.Neg())

	if pos.IsOpen() {
		newSize := pos.Size.Add(notional)
		pos.EntryPrice = pos.Size.Mul(pos.EntryPrice).Add(notional.Mul(price)).Div(newSize)
		pos.Size = newSize
	} else {
		pos.Size = notional
		pos.EntryPrice = price
		pos.CurrentPnL = decimal.Zero
	}
	pos.Direction = direction
	pos.StopLossPrice, pos.TakeProfitPrice = l.policy.Levels(direction, pos.EntryPrice)

	return *pos, nil
}

// MarkToMarket revalues the position for symbol at price and moves the PnL
// change into the balance. It returns that change; zero when nothing is open.
func (l *Ledger) MarkToMarket(symbol string, price decimal.Decimal) decimal.Decimal {
	rec, ok := l.tracked.Get(symbol)
	if !ok || !rec.Position.IsOpen() || !price.IsPositive() {
		return decimal.Zero
	}

	pos := &rec.Position
	var pct decimal.Decimal
	switch pos.Direction {
	case domain.DirectionLong:
		pct = price.Sub(pos.EntryPrice).Div(pos.EntryPrice).Mul(hundred)
	case domain.DirectionShort:
		pct = pos.EntryPrice.Sub(price).Div(pos.EntryPrice).Mul(hundred)
	default:
		return decimal.Zero
	}

	newPnL := pos.Size.Mul(pct).Div(hundred)
	delta := newPnL.Sub(pos.CurrentPnL)
	pos.CurrentPnL = newPnL
	if !delta.IsZero() {
		l.adjustBalance(delta)
	}
	return delta
}

// Evaluate asks the risk policy whether the position for symbol should be
// closed at price. A non-positive price never triggers a close.
func (l *Ledger) Evaluate(symbol string, price decimal.Decimal) (risk.Reason, bool) {
	rec, ok := l.tracked.Get(symbol)
	if !ok || !price.IsPositive() {
		return "", false
	}
	return l.policy.Evaluate(rec.Position, price)
}

// Close realizes the current PnL, returns the committed size to the balance
// and resets the position. Closing a flat position does nothing.
func (l *Ledger) Close(symbol string, price decimal.Decimal, reason risk.Reason) (Closure, bool) {
	rec, ok := l.tracked.Get(symbol)
	if !ok || !rec.Position.IsOpen() {
		return Closure{}, false
	}

	pos := &rec.Position
	pnl := pos.CurrentPnL
	result := FormatResult(reason, pnl)

	closure := Closure{
		Symbol:     symbol,
		Direction:  pos.Direction,
		Size:       pos.Size,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  price,
		PnL:        pnl,
		Reason:     reason,
		Result:     result,
	}

	l.account.TotalRealizedPnL = l.account.TotalRealizedPnL.Add(pnl)
	l.adjustBalance(pos.Size)

	*pos = domain.Position{
		Symbol:     symbol,
		Direction:  domain.DirectionNone,
		LastResult: result,
	}
	return closure, true
}

// FormatResult renders a closed position outcome, e.g. "Take Profit: Profit $5.00".
func FormatResult(reason risk.Reason, pnl decimal.Decimal) string {
	outcome := "Loss"
	if pnl.IsPositive() {
		outcome = "Profit"
	}
	return fmt.Sprintf("%s: %s $%s", reason, outcome, pnl.Abs().StringFixed(2))
}

// Position returns a copy of the position for symbol.
func (l *Ledger) Position(symbol string) (domain.Position, bool) {
	rec, ok := l.tracked.Get(symbol)
	if !ok {
		return domain.Position{}, false
	}
	return rec.Position, true
}

// Record returns a copy of the tracked record for symbol.
func (l *Ledger) Record(symbol string) (Record, bool) {
	rec, ok := l.tracked.Get(symbol)
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Records returns copies of all tracked records, newest first.
func (l *Ledger) Records() []Record {
	out := make([]Record, 0, l.tracked.Len())
	l.tracked.each(func(r *Record) {
		out = append(out, *r)
	})
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Symbols returns tracked symbols, oldest first.
func (l *Ledger) Symbols() []string {
	return l.tracked.Symbols()
}

// Capacity returns the tracked symbol limit.
func (l *Ledger) Capacity() int {
	return l.tracked.Capacity()
}

// Account returns a snapshot of the account.
func (l *Ledger) Account() Account {
	return l.account
}

// adjustBalance applies delta and refreshes peak balance and drawdown.
func (l *Ledger) adjustBalance(delta decimal.Decimal) {
	l.account.Balance = l.account.Balance.Add(delta)

	if l.account.Balance.GreaterThan(l.account.MaxBalanceSeen) {
		l.account.MaxBalanceSeen = l.account.Balance
	}
	if !l.account.MaxBalanceSeen.IsPositive() {
		return
	}

	drawdown := l.account.MaxBalanceSeen.Sub(l.account.Balance).
		Div(l.account.MaxBalanceSeen).
		Mul(hundred)
	if drawdown.GreaterThan(l.account.MaxDrawdownPct) {
		l.account.MaxDrawdownPct = drawdown
	}
}
