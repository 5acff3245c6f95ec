package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the latest known price for a symbol. Quotes are supplied by a
// QuoteGateway and never persisted.
type Quote struct {
	Symbol        string
	Price         decimal.Decimal
	PreviousClose decimal.Decimal // Zero when the source does not report one
	Timestamp     time.Time
}

// DayChange returns Price - PreviousClose per share.
// Returns false when the previous close is unknown.
func (q Quote) DayChange() (decimal.Decimal, bool) {
	if !q.PreviousClose.IsPositive() {
		return decimal.Zero, false
	}
	return q.Price.Sub(q.PreviousClose), true
}

// QuoteBook holds already-resolved quotes keyed by symbol.
// Analytics only read from a QuoteBook; they never call a gateway.
type QuoteBook map[string]Quote

// Price returns the price for symbol, if known
func (b QuoteBook) Price(symbol string) (decimal.Decimal, bool) {
	q, ok := b[symbol]
	if !ok {
		return decimal.Zero, false
	}
	return q.Price, true
}

// QuoteGateway supplies current prices
type QuoteGateway interface {
	// GetQuote returns the latest quote for symbol.
	// Returns an error wrapping ErrNoQuote if the symbol has no price.
	GetQuote(ctx context.Context, symbol string) (Quote, error)
}
