package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HoldingPeriod classifies how long shares were held for tax purposes
type HoldingPeriod string

const (
	HoldingPeriodShortTerm HoldingPeriod = "SHORT_TERM"
	HoldingPeriodLongTerm  HoldingPeriod = "LONG_TERM"
)

// Lot represents one purchase of shares (a tax lot).
// Only Shares, Closed, Sale and Notes change after creation:
//   - a partial sale reduces Shares on the lot and creates a closed sibling lot
//     holding the sold portion
//   - a full sale sets Closed and attaches the Sale
type Lot struct {
	ID           uuid.UUID
	OriginID     uuid.UUID // ID of the purchase this lot came from. Equal to ID for the purchase itself.
	Symbol       string
	Shares       decimal.Decimal // Open shares, or the disposed shares once Closed
	CostBasis    decimal.Decimal // Per share
	PurchaseDate time.Time       // Calendar date (midnight UTC)
	Closed       bool
	Sale         *Sale // Set when Closed
	Notes        string
}

// Sale represents the disposal of shares from a lot.
// RealizedGain is fixed when the sale is recorded and never recomputed.
type Sale struct {
	ID               uuid.UUID
	LotID            uuid.UUID // The lot that was sold from
	ClosedLotID      uuid.UUID // The closed lot holding the sold shares (LotID on a full disposal)
	Symbol           string
	Shares           decimal.Decimal
	CostBasis        decimal.Decimal // Per share, copied from the lot
	PurchaseDate     time.Time
	SaleDate         time.Time
	ProceedsPerShare decimal.Decimal
	RealizedGain     decimal.Decimal // Shares * (ProceedsPerShare - CostBasis)
}

// Purchase is a single buy event as seen by wash-sale analysis.
// Shares is the purchase's original share count, regardless of later sales.
type Purchase struct {
	LotID         uuid.UUID
	Symbol        string
	Shares        decimal.Decimal
	PricePerShare decimal.Decimal
	Date          time.Time
}

// NormalizeSymbol upper-cases and trims a ticker symbol
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Validate ensures the lot adheres to domain rules
// Returns an error wrapping ErrInvalidLot if validation fails
func (l *Lot) Validate() error {
	if l.Symbol == "" {
		return fmt.Errorf("%w: symbol cannot be empty", ErrInvalidLot)
	}
	if l.Symbol != NormalizeSymbol(l.Symbol) {
		return fmt.Errorf("%w: symbol %q must be upper-case without surrounding spaces", ErrInvalidLot, l.Symbol)
	}
	if !l.Shares.IsPositive() {
		return fmt.Errorf("%w: shares must be positive, got %s", ErrInvalidLot, l.Shares)
	}
	if l.CostBasis.IsNegative() {
		return fmt.Errorf("%w: cost basis cannot be negative, got %s", ErrInvalidLot, l.CostBasis)
	}
	if l.PurchaseDate.IsZero() {
		return fmt.Errorf("%w: purchase date is required", ErrInvalidLot)
	}
	if l.Closed && l.Sale == nil {
		return fmt.Errorf("%w: closed lot %s has no sale", ErrInvalidLot, l.ID)
	}
	return nil
}

// TotalCost returns Shares * CostBasis
func (l *Lot) TotalCost() decimal.Decimal {
	return l.Shares.Mul(l.CostBasis)
}

// HeldOn reports whether the lot's shares were in the portfolio at the end of
// the given calendar date: bought on or before it, and not sold on or before it.
func (l *Lot) HeldOn(date time.Time) bool {
	date = DateOf(date)
	if l.PurchaseDate.After(date) {
		return false
	}
	if l.Closed && l.Sale != nil && !l.Sale.SaleDate.After(date) {
		return false
	}
	return true
}

// IsLoss reports whether the sale realized a loss
func (s *Sale) IsLoss() bool {
	return s.RealizedGain.IsNegative()
}

// Proceeds returns the total sale proceeds
func (s *Sale) Proceeds() decimal.Decimal {
	return s.Shares.Mul(s.ProceedsPerShare)
}
