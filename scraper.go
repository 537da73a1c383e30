package docserve

import (
	"context"
	"time"
)

// ScrapeOp identifies the retrieval operation an intent serves.
type ScrapeOp string

// Scrape operations understood by source adapters.
const (
	OpSearch    ScrapeOp = "search"
	OpReference ScrapeOp = "reference"
	OpExamples  ScrapeOp = "examples"
	OpMigration ScrapeOp = "migration"
)

// ScrapeIntent describes what a caller wants from a source adapter.
// Zero-valued fields are ignored when the adapter builds its fetch plan
// and when the intent is fingerprinted for caching.
type ScrapeIntent struct {
	Op          ScrapeOp `json:"op"`
	Query       string   `json:"query,omitempty"`
	APIName     string   `json:"apiName,omitempty"`
	Topic       string   `json:"topic,omitempty"`
	Language    string   `json:"language,omitempty"`
	Version     string   `json:"version,omitempty"`
	FromVersion string   `json:"fromVersion,omitempty"`
	ToVersion   string   `json:"toVersion,omitempty"`
}

// SourceError records a failure scoped to a single source. Adapters collect
// these instead of returning errors so one origin's failure can never abort
// a multi-source query.
type SourceError struct {
	SourceID string `json:"source"`
	Message  string `json:"message"`
}

// Error implements the error interface.
func (e SourceError) Error() string {
	return e.SourceID + ": " + e.Message
}

// ScrapeResult is the outcome of a single adapter invocation.
type ScrapeResult struct {
	SourceID  string        `json:"source"`
	Entries   []*Entry      `json:"entries"`
	ScrapedAt time.Time     `json:"scrapedAt"`
	Errors    []SourceError `json:"errors,omitempty"`
}

// Scraper retrieves and parses documentation from one external origin.
//
// Scrape never returns an error: every internal failure (network, parse,
// guard rejection) is appended to the result's Errors slice and Entries
// defaults to empty. The context controls timeout and cancellation of the
// underlying fetches.
type Scraper interface {
	// SourceID returns the stable identifier of the origin (e.g. "electron").
	SourceID() string

	// Scrape executes the intent against the origin.
	Scrape(ctx context.Context, intent ScrapeIntent) *ScrapeResult

	// CacheKey returns the fingerprint key for an intent. Adapter-level and
	// orchestrator-level caching use the same fingerprinting rule so the two
	// can never diverge.
	CacheKey(intent ScrapeIntent) string
}

// ScraperConfig holds per-origin scraper settings.
type ScraperConfig struct {
	// BaseURL is the root of the documentation site.
	BaseURL string

	// RateLimitPerMinute caps outbound calls to the origin. Zero disables
	// pacing for the source.
	RateLimitPerMinute int

	// Timeout bounds each outbound fetch. Defaults to 30s if zero.
	Timeout time.Duration

	// Headers are added to every outbound request.
	Headers map[string]string

	// Sitemap enables sitemap-driven discovery of guide and migration pages.
	Sitemap bool

	// Aggregator marks lower-trust aggregator origins; example ranking
	// prefers entries from non-aggregator sources.
	Aggregator bool
}

// Validate returns an error if the config contains invalid fields.
func (c *ScraperConfig) Validate() error {
	if c.BaseURL == "" {
		return Errorf(EINVALID, "scraper base URL required")
	}
	if c.RateLimitPerMinute < 0 {
		return Errorf(EINVALID, "scraper rate limit must not be negative")
	}
	return nil
}
