package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Snapshot is a point-in-time valuation of the portfolio.
// Snapshots are append-only; no two share a Timestamp.
type Snapshot struct {
	ID             uuid.UUID
	Timestamp      time.Time
	Date           time.Time       // Calendar date the holdings were taken as of (midnight UTC)
	TotalValue     decimal.Decimal // Market value of holdings with an available price
	TotalCostBasis decimal.Decimal
	Breakdown      []SymbolValue // Sorted by symbol
}

// SymbolValue is one symbol's share of a snapshot.
// An Unpriced entry records the shares held but has no price or value.
type SymbolValue struct {
	Symbol   string
	Shares   decimal.Decimal
	Price    decimal.Decimal
	Value    decimal.Decimal
	Unpriced bool
}

// Validate ensures the snapshot adheres to domain rules
func (s *Snapshot) Validate() error {
	if s.Timestamp.IsZero() {
		return errors.New("snapshot timestamp is required")
	}
	if s.TotalValue.IsNegative() {
		return errors.New("snapshot total value cannot be negative")
	}
	return nil
}

// ValuationDate returns Date, or the calendar date of Timestamp for
// snapshots recorded without one
func (s *Snapshot) ValuationDate() time.Time {
	if !s.Date.IsZero() {
		return s.Date
	}
	return DateOf(s.Timestamp)
}

// Holding returns the breakdown entry for symbol, if present
func (s *Snapshot) Holding(symbol string) (SymbolValue, bool) {
	for _, v := range s.Breakdown {
		if v.Symbol == symbol {
			return v, true
		}
	}
	return SymbolValue{}, false
}

// Price returns the price recorded for symbol, if present and priced
func (s *Snapshot) Price(symbol string) (decimal.Decimal, bool) {
	v, ok := s.Holding(symbol)
	if !ok || v.Unpriced {
		return decimal.Zero, false
	}
	return v.Price, true
}
