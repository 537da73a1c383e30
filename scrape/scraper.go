package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/docserve"
	"github.com/fwojciec/docserve/cache"
)

// DefaultFetchTimeout bounds each outbound fetch unless the scraper config
// overrides it.
const DefaultFetchTimeout = 30 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 5 << 20

// DefaultMaxPages caps sitemap-driven discovery per scrape.
const DefaultMaxPages = 5

// Ensure SiteScraper implements docserve.Scraper at compile time.
var _ docserve.Scraper = (*SiteScraper)(nil)

// SiteScraper retrieves documentation from one origin over HTTP. Every
// outbound call runs through the fetch guard (URL validation, then per-
// source pacing) before a socket opens.
//
// Scrape never returns an error: failures become SourceError records on
// the result so one origin can never abort a multi-source query.
type SiteScraper struct {
	sourceID  string
	config    docserve.ScraperConfig
	validator docserve.URLValidator
	pacer     docserve.SourcePacer
	client    *http.Client
	parser    *Parser
	maxPages  int
	now       func() time.Time
}

// Option configures a SiteScraper.
type Option func(*SiteScraper)

// WithHTTPClient sets the HTTP client. The client's timeout is left as-is;
// callers overriding the client own its timeout policy.
func WithHTTPClient(client *http.Client) Option {
	return func(s *SiteScraper) {
		s.client = client
	}
}

// WithParser sets the markup parser. Defaults to NewParser().
func WithParser(p *Parser) Option {
	return func(s *SiteScraper) {
		s.parser = p
	}
}

// WithMaxPages caps sitemap-driven page discovery. Defaults to
// DefaultMaxPages.
func WithMaxPages(n int) Option {
	return func(s *SiteScraper) {
		s.maxPages = n
	}
}

// WithClock sets the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *SiteScraper) {
		s.now = now
	}
}

// New creates a SiteScraper for one origin.
func New(sourceID string, config docserve.ScraperConfig, validator docserve.URLValidator, pacer docserve.SourcePacer, opts ...Option) (*SiteScraper, error) {
	if sourceID == "" {
		return nil, docserve.Errorf(docserve.EINVALID, "scraper source ID required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	s := &SiteScraper{
		sourceID:  sourceID,
		config:    config,
		validator: validator,
		pacer:     pacer,
		client:    &http.Client{Timeout: timeout},
		parser:    NewParser(),
		maxPages:  DefaultMaxPages,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SourceID returns the origin's stable identifier.
func (s *SiteScraper) SourceID() string {
	return s.sourceID
}

// CacheKey fingerprints an intent with the same rule the orchestrator
// uses, so adapter-level and orchestrator-level caching never diverge.
func (s *SiteScraper) CacheKey(intent docserve.ScrapeIntent) string {
	return cache.Fingerprint("scrape-"+s.sourceID, intent)
}

// Scrape executes the intent against the origin.
func (s *SiteScraper) Scrape(ctx context.Context, intent docserve.ScrapeIntent) *docserve.ScrapeResult {
	result := &docserve.ScrapeResult{
		SourceID:  s.sourceID,
		Entries:   []*docserve.Entry{},
		ScrapedAt: s.now().UTC(),
	}

	switch intent.Op {
	case docserve.OpReference:
		s.scrapeReference(ctx, intent, result)
	case docserve.OpMigration:
		s.scrapeMigration(ctx, intent, result)
	default:
		s.scrapePages(ctx, result)
	}

	return result
}

// scrapePages fetches the base documentation page plus sitemap-discovered
// pages when sitemap discovery is enabled for the source.
func (s *SiteScraper) scrapePages(ctx context.Context, result *docserve.ScrapeResult) {
	urls := []string{s.config.BaseURL}

	if s.config.Sitemap {
		discovered, err := discoverURLs(ctx, s.fetchBody, s.config.BaseURL, s.maxPages)
		if err != nil {
			result.Errors = append(result.Errors, s.sourceError(err))
		}
		for _, u := range discovered {
			if u != s.config.BaseURL {
				urls = append(urls, u)
			}
		}
	}

	for _, u := range urls {
		entries, err := s.fetchAndParse(ctx, u)
		if err != nil {
			result.Errors = append(result.Errors, s.sourceError(err))
			continue
		}
		result.Entries = append(result.Entries, entries...)
	}
}

// scrapeReference looks up a named API. It tries the literal name first,
// then alternate naming conventions, stopping at the first candidate page
// that yields entries. Candidate errors are only surfaced when every
// candidate failed; a 404 on the literal spelling is expected when the
// origin uses normalized paths.
func (s *SiteScraper) scrapeReference(ctx context.Context, intent docserve.ScrapeIntent, result *docserve.ScrapeResult) {
	var pending []docserve.SourceError

	for _, candidate := range referenceCandidates(s.config.BaseURL, intent.APIName) {
		entries, err := s.fetchAndParse(ctx, candidate)
		if err != nil {
			pending = append(pending, s.sourceError(err))
			continue
		}
		if len(entries) > 0 {
			result.Entries = append(result.Entries, entries...)
			return
		}
	}

	// All naming conventions exhausted: treat as not-found. Fetch errors
	// are reported only when no candidate produced anything.
	result.Errors = append(result.Errors, pending...)
}

// scrapeMigration fetches migration pages and relabels their section
// entries as migration-kind, stamped with the requested version range.
func (s *SiteScraper) scrapeMigration(ctx context.Context, intent docserve.ScrapeIntent, result *docserve.ScrapeResult) {
	urls := migrationCandidates(s.config.BaseURL)

	if s.config.Sitemap {
		discovered, err := discoverURLs(ctx, s.fetchBody, s.config.BaseURL, s.maxPages)
		if err != nil {
			result.Errors = append(result.Errors, s.sourceError(err))
		}
		for _, u := range discovered {
			lower := strings.ToLower(u)
			if strings.Contains(lower, "migration") || strings.Contains(lower, "breaking") {
				urls = append(urls, u)
			}
		}
	}

	var pending []docserve.SourceError
	for _, u := range urls {
		entries, err := s.fetchAndParse(ctx, u)
		if err != nil {
			pending = append(pending, s.sourceError(err))
			continue
		}
		for _, e := range entries {
			if e.Kind != docserve.KindAPI {
				continue
			}
			e.Kind = docserve.KindMigration
			if e.Metadata == nil {
				e.Metadata = make(map[string]string)
			}
			e.Metadata["fromVersion"] = intent.FromVersion
			e.Metadata["toVersion"] = intent.ToVersion
			result.Entries = append(result.Entries, e)
		}
	}

	if len(result.Entries) == 0 {
		result.Errors = append(result.Errors, pending...)
	}
}

// fetchAndParse retrieves one page through the guard and parses it.
func (s *SiteScraper) fetchAndParse(ctx context.Context, rawURL string) ([]*docserve.Entry, error) {
	body, err := s.fetchBody(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	markup, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return nil, docserve.Errorf(docserve.ESOURCE, "reading %s: %v", rawURL, err)
	}

	entries := s.parser.Parse(string(markup), rawURL)
	scrapedAt := s.now().UTC()
	for _, e := range entries {
		e.SourceID = s.sourceID
		e.LastUpdated = scrapedAt
	}
	return entries, nil
}

// fetchBody performs a guarded GET: URL validation, then pacing, then the
// request itself. Validation runs before every call because DNS answers
// change between calls.
func (s *SiteScraper) fetchBody(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if err := s.validator.Validate(ctx, rawURL); err != nil {
		return nil, err
	}
	if err := s.pacer.Pace(ctx, s.sourceID); err != nil {
		return nil, docserve.Errorf(docserve.ESOURCE, "pacing interrupted: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, docserve.Errorf(docserve.ESOURCE, "building request for %s: %v", rawURL, err)
	}
	for k, v := range s.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, docserve.Errorf(docserve.ESOURCE, "fetching %s: %v", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, docserve.Errorf(docserve.ESOURCE, "HTTP %d for %s", resp.StatusCode, rawURL)
	}

	return resp.Body, nil
}

func (s *SiteScraper) sourceError(err error) docserve.SourceError {
	return docserve.SourceError{
		SourceID: s.sourceID,
		Message:  docserve.ErrorMessage(err),
	}
}

// referenceCandidates builds the candidate URLs for a named API lookup:
// the literal name first, then the normalized-case spelling.
func referenceCandidates(baseURL, apiName string) []string {
	variants := []string{apiName}
	if normalized := normalizeAPIName(apiName); normalized != apiName {
		variants = append(variants, normalized)
	}
	if lower := strings.ToLower(apiName); lower != apiName && lower != normalizeAPIName(apiName) {
		variants = append(variants, lower)
	}

	urls := make([]string, 0, len(variants))
	for _, v := range variants {
		urls = append(urls, joinPath(baseURL, "api", url.PathEscape(v)))
	}
	return urls
}

// migrationCandidates lists the conventional locations of migration docs.
func migrationCandidates(baseURL string) []string {
	return []string{
		joinPath(baseURL, "breaking-changes"),
		joinPath(baseURL, "migration"),
	}
}

// normalizeAPIName converts CamelCase names to kebab-case, the convention
// most documentation sites use for page slugs (BrowserWindow →
// browser-window).
func normalizeAPIName(name string) string {
	var sb strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r + ('a' - 'A'))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func joinPath(baseURL string, parts ...string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.Join(parts, "/")
}

// String implements fmt.Stringer for logging.
func (s *SiteScraper) String() string {
	return fmt.Sprintf("scraper(%s)", s.sourceID)
}
