// Package quote provides domain.QuoteGateway implementations
package quote

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/lotwise-backend/internal/domain"
)

// Static serves prices from an in-memory table.
// It is safe for concurrent use.
type Static struct {
	mu     sync.RWMutex
	quotes map[string]domain.Quote
	now    func() time.Time
}

// NewStatic creates a Static gateway seeded with prices
func NewStatic(prices map[string]decimal.Decimal) *Static {
	s := &Static{quotes: make(map[string]domain.Quote), now: time.Now}
	for symbol, price := range prices {
		s.Set(symbol, price)
	}
	return s
}

// ParseStatic builds a Static gateway from "SYM=PRICE,SYM=PRICE". A price may
// be followed by the previous close, as in "AAPL=190/187.5".
func ParseStatic(list string) (*Static, error) {
	s := NewStatic(nil)
	for _, pair := range strings.Split(list, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		symbol, priceStr, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid quote %q: expected SYMBOL=PRICE", pair)
		}
		symbol = domain.NormalizeSymbol(symbol)
		if symbol == "" {
			return nil, fmt.Errorf("invalid quote %q: empty symbol", pair)
		}
		priceStr, prevStr, hasPrev := strings.Cut(priceStr, "/")
		price, err := parsePrice(symbol, priceStr)
		if err != nil {
			return nil, err
		}
		var prev decimal.Decimal
		if hasPrev {
			if prev, err = parsePrice(symbol, prevStr); err != nil {
				return nil, err
			}
		}
		s.SetWithPreviousClose(symbol, price, prev)
	}
	return s, nil
}

func parsePrice(symbol, s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price for %s: %w", symbol, err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid price for %s: cannot be negative", symbol)
	}
	return price, nil
}

// Set records the current price of symbol with no previous close
func (s *Static) Set(symbol string, price decimal.Decimal) {
	s.SetWithPreviousClose(symbol, price, decimal.Zero)
}

// SetWithPreviousClose records the current price and previous close of symbol
func (s *Static) SetWithPreviousClose(symbol string, price, previousClose decimal.Decimal) {
	symbol = domain.NormalizeSymbol(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[symbol] = domain.Quote{Symbol: symbol, Price: price, PreviousClose: previousClose, Timestamp: s.now()}
}

// GetQuote implements domain.QuoteGateway
func (s *Static) GetQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[symbol]
	if !ok {
		return domain.Quote{}, fmt.Errorf("%w: %s", domain.ErrNoQuote, symbol)
	}
	return q, nil
}
