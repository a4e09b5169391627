// internal/ledger/tracked.go
package ledger

import (
	"github.com/domingochavezspecops/TradingScripts/internal/domain"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/shopspring/decimal"
)

// DefaultCapacity is the number of symbols tracked at once.
const DefaultCapacity = 15

// Record is everything kept for one tracked symbol.
type Record struct {
	Position          domain.Position
	LastLiquidation   decimal.Decimal
	TotalLiquidations decimal.Decimal
	PriceChange24h    decimal.Decimal
}

// TrackedSet is a bounded, insertion-ordered set of records. When full, adding
// a new symbol evicts the oldest one. Lookups use Peek so reads never change
// the order.
type TrackedSet struct {
	capacity int
	lru      *simplelru.LRU[string, *Record]
}

// NewTrackedSet creates a set holding at most capacity symbols.
func NewTrackedSet(capacity int) *TrackedSet {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	// only fails for a non-positive size
	lru, _ := simplelru.NewLRU[string, *Record](capacity, nil)
	return &TrackedSet{capacity: capacity, lru: lru}
}

// Get returns the live record for symbol.
func (s *TrackedSet) Get(symbol string) (*Record, bool) {
	return s.lru.Peek(symbol)
}

// Add returns the record for symbol, inserting a fresh one if needed. The
// record evicted to make room, if any, is returned as well.
func (s *TrackedSet) Add(symbol string) (rec *Record, evicted *Record) {
	if rec, ok := s.lru.Peek(symbol); ok {
		return rec, nil
	}

	if s.lru.Len() >= s.capacity {
		if _, oldest, ok := s.lru.RemoveOldest(); ok {
			evicted = oldest
		}
	}

	rec = &Record{Position: domain.Position{Symbol: symbol, Direction: domain.DirectionNone}}
	s.lru.Add(symbol, rec)
	return rec, evicted
}

// Len returns the number of tracked symbols.
func (s *TrackedSet) Len() int {
	return s.lru.Len()
}

// Capacity returns the maximum number of tracked symbols.
func (s *TrackedSet) Capacity() int {
	return s.capacity
}

// Symbols returns tracked symbols, oldest first.
func (s *TrackedSet) Symbols() []string {
	return s.lru.Keys()
}

// each visits records oldest first.
func (s *TrackedSet) each(fn func(*Record)) {
	for _, rec := range s.lru.Values() {
		fn(rec)
	}
}
