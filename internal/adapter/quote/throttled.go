package quote

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/simaogato/lotwise-backend/internal/domain"
)

// Throttled wraps a gateway and allows at most limit lookups in any sliding
// window. A lookup over the limit waits until the oldest one in the window
// expires, or fails with the context's error if ctx ends first.
type Throttled struct {
	next   domain.QuoteGateway
	limit  int
	window time.Duration
	now    func() time.Time
	wait   func(ctx context.Context, d time.Duration) error
	log    zerolog.Logger

	mu     sync.Mutex
	recent []time.Time // Start times of lookups inside the window, oldest first
}

// NewThrottled limits next to perMinute lookups per minute
func NewThrottled(next domain.QuoteGateway, perMinute int, log zerolog.Logger) *Throttled {
	return &Throttled{
		next:   next,
		limit:  perMinute,
		window: time.Minute,
		now:    time.Now,
		wait:   sleep,
		log:    log.With().Str("component", "quote_throttle").Logger(),
	}
}

// GetQuote implements domain.QuoteGateway
func (t *Throttled) GetQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	if err := t.acquire(ctx); err != nil {
		return domain.Quote{}, err
	}
	return t.next.GetQuote(ctx, symbol)
}

func (t *Throttled) acquire(ctx context.Context) error {
	if t.limit <= 0 {
		return nil
	}
	for {
		t.mu.Lock()
		now := t.now()
		t.expire(now)
		if len(t.recent) < t.limit {
			t.recent = append(t.recent, now)
			t.mu.Unlock()
			return nil
		}
		delay := t.recent[0].Add(t.window).Sub(now)
		t.mu.Unlock()

		t.log.Debug().Dur("delay", delay).Int("limit", t.limit).Msg("quote lookups throttled")
		if err := t.wait(ctx, delay); err != nil {
			return err
		}
	}
}

func (t *Throttled) expire(now time.Time) {
	i := 0
	for i < len(t.recent) && !now.Before(t.recent[i].Add(t.window)) {
		i++
	}
	t.recent = t.recent[i:]
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
