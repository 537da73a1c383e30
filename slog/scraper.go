// Package slog provides logging decorators for the core interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docserve"
)

// Ensure LoggingScraper implements docserve.Scraper.
var _ docserve.Scraper = (*LoggingScraper)(nil)

// LoggingScraper wraps a Scraper with timing and outcome logging.
type LoggingScraper struct {
	next   docserve.Scraper
	logger *slog.Logger
}

// NewLoggingScraper creates a new LoggingScraper.
func NewLoggingScraper(next docserve.Scraper, logger *slog.Logger) *LoggingScraper {
	return &LoggingScraper{next: next, logger: logger}
}

// SourceID delegates to the wrapped scraper.
func (s *LoggingScraper) SourceID() string {
	return s.next.SourceID()
}

// CacheKey delegates to the wrapped scraper.
func (s *LoggingScraper) CacheKey(intent docserve.ScrapeIntent) string {
	return s.next.CacheKey(intent)
}

// Scrape logs the operation, entry count, error count and duration.
func (s *LoggingScraper) Scrape(ctx context.Context, intent docserve.ScrapeIntent) *docserve.ScrapeResult {
	begin := time.Now()
	result := s.next.Scrape(ctx, intent)
	s.logger.Info("scrape",
		"source", s.next.SourceID(),
		"op", string(intent.Op),
		"entries", len(result.Entries),
		"errors", len(result.Errors),
		"duration", time.Since(begin),
	)
	return result
}
