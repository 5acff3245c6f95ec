package quote

import (
	"context"
	"sync"
	"time"

	"github.com/simaogato/lotwise-backend/internal/domain"
)

type cachedQuote struct {
	quote   domain.Quote
	fetched time.Time
}

// Cached wraps a gateway and keeps each successful quote for ttl.
// Failures are not cached.
type Cached struct {
	next  domain.QuoteGateway
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	cache map[string]cachedQuote
}

// NewCached creates a caching gateway around next
func NewCached(next domain.QuoteGateway, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]cachedQuote),
	}
}

// GetQuote implements domain.QuoteGateway
func (c *Cached) GetQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)

	c.mu.RLock()
	if e, ok := c.cache[symbol]; ok && c.now().Sub(e.fetched) < c.ttl {
		c.mu.RUnlock()
		return e.quote, nil
	}
	c.mu.RUnlock()

	q, err := c.next.GetQuote(ctx, symbol)
	if err != nil {
		return domain.Quote{}, err
	}

	c.mu.Lock()
	c.cache[symbol] = cachedQuote{quote: q, fetched: c.now()}
	c.mu.Unlock()
	return q, nil
}
