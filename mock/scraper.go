// Package mock provides mock implementations of docserve interfaces for testing.
package mock

import (
	"context"

	"github.com/fwojciec/docserve"
)

var _ docserve.Scraper = (*Scraper)(nil)

// Scraper is a mock implementation of docserve.Scraper.
type Scraper struct {
	SourceIDFn func() string
	ScrapeFn   func(ctx context.Context, intent docserve.ScrapeIntent) *docserve.ScrapeResult
	CacheKeyFn func(intent docserve.ScrapeIntent) string
}

func (s *Scraper) SourceID() string {
	return s.SourceIDFn()
}

func (s *Scraper) Scrape(ctx context.Context, intent docserve.ScrapeIntent) *docserve.ScrapeResult {
	return s.ScrapeFn(ctx, intent)
}

func (s *Scraper) CacheKey(intent docserve.ScrapeIntent) string {
	return s.CacheKeyFn(intent)
}
