package guard

import (
	"context"
	"sync"

	"github.com/fwojciec/docserve"
	"golang.org/x/time/rate"
)

// Ensure Pacer implements docserve.SourcePacer at compile time.
var _ docserve.SourcePacer = (*Pacer)(nil)

// Pacer provides per-source rate limiting using token buckets.
// It creates a separate rate limiter for each configured source, allowing
// concurrent requests to different sources while enforcing the configured
// spacing within each source. Pacer state is process-wide: every caller of
// a source shares the same limiter.
type Pacer struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limits   map[string]int // requests per minute, per source
}

// NewPacer creates a new Pacer. The limits map assigns each source its
// requests-per-minute cap; sources absent from the map are not paced.
func NewPacer(limits map[string]int) *Pacer {
	return &Pacer{
		limiters: make(map[string]*rate.Limiter),
		limits:   limits,
	}
}

// Pace blocks until the rate limit allows a request to the source.
// Each source gets a limiter with a burst of 1, so consecutive calls are
// spaced at least 60s/limit apart. Returns an error only if the context is
// canceled before the wait completes.
func (p *Pacer) Pace(ctx context.Context, sourceID string) error {
	rpm, ok := p.limits[sourceID]
	if !ok || rpm <= 0 {
		return nil
	}

	p.mu.Lock()
	limiter, ok := p.limiters[sourceID]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
		p.limiters[sourceID] = limiter
	}
	p.mu.Unlock()

	return limiter.Wait(ctx)
}
