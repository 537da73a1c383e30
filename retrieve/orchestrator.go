// Package retrieve implements the retrieval orchestrator: four cache-checked
// operations that fan out over the configured source adapters, merge their
// entries and errors, and rank the results.
package retrieve

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/fwojciec/docserve"
	"github.com/fwojciec/docserve/cache"
	"golang.org/x/sync/errgroup"
)

// Cache TTLs per operation.
const (
	SearchTTL    = 30 * time.Minute
	ReferenceTTL = time.Hour
	ExamplesTTL  = 30 * time.Minute
	MigrationTTL = 2 * time.Hour
)

// Ensure Orchestrator implements docserve.Orchestrator at compile time.
var _ docserve.Orchestrator = (*Orchestrator)(nil)

// Orchestrator coordinates the source adapters and the shared cache. It
// holds no per-request state: concurrent requests share only the adapters,
// the cache, and the pacer state inside the adapters.
type Orchestrator struct {
	scrapers    map[string]docserve.Scraper
	order       []string
	cache       docserve.Cache
	aggregators map[string]bool
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithAggregators marks lower-trust aggregator sources; example ranking
// prefers entries from sources not named here.
func WithAggregators(sourceIDs ...string) Option {
	return func(o *Orchestrator) {
		for _, id := range sourceIDs {
			o.aggregators[id] = true
		}
	}
}

// New creates an Orchestrator over the given adapters. Adapter order is
// preserved for "query all sources" fan-outs.
func New(scrapers []docserve.Scraper, c docserve.Cache, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		scrapers:    make(map[string]docserve.Scraper, len(scrapers)),
		cache:       c,
		aggregators: make(map[string]bool),
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, s := range scrapers {
		id := s.SourceID()
		if _, ok := o.scrapers[id]; ok {
			continue
		}
		o.scrapers[id] = s
		o.order = append(o.order, id)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Search implements full-query documentation search across sources.
func (o *Orchestrator) Search(ctx context.Context, req docserve.SearchRequest) (*docserve.SearchResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := cache.Fingerprint("search", req)
	return cached(ctx, o, key, SearchTTL, func() (*docserve.SearchResult, error) {
		intent := docserve.ScrapeIntent{Op: docserve.OpSearch, Query: req.Query}
		entries, errs := o.fanOut(ctx, req.Sources, intent)

		matched := rankSearch(entries, req.Query, req.Kind)
		total := len(matched)
		if len(matched) > req.Limit {
			matched = matched[:req.Limit]
		}

		return &docserve.SearchResult{
			Entries:    matched,
			TotalCount: total,
			Errors:     errs,
		}, nil
	})
}

// Reference implements the named API lookup against a single source.
func (o *Orchestrator) Reference(ctx context.Context, req docserve.ReferenceRequest) (*docserve.ReferenceResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := cache.Fingerprint("reference", req)
	return cached(ctx, o, key, ReferenceTTL, func() (*docserve.ReferenceResult, error) {
		intent := docserve.ScrapeIntent{
			Op:      docserve.OpReference,
			APIName: req.APIName,
			Version: req.Version,
		}
		entries, errs := o.fanOut(ctx, []string{req.Source}, intent)

		return &docserve.ReferenceResult{
			Entry:  pickReference(entries, req.APIName),
			Errors: errs,
		}, nil
	})
}

// Examples implements the code example search across sources.
func (o *Orchestrator) Examples(ctx context.Context, req docserve.ExamplesRequest) (*docserve.ExamplesResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := cache.Fingerprint("examples", req)
	return cached(ctx, o, key, ExamplesTTL, func() (*docserve.ExamplesResult, error) {
		intent := docserve.ScrapeIntent{
			Op:       docserve.OpExamples,
			Topic:    req.Topic,
			Language: req.Language,
		}
		entries, errs := o.fanOut(ctx, req.Sources, intent)

		matched := o.rankExamples(entries, req.Topic, req.Language)
		total := len(matched)
		if len(matched) > req.Limit {
			matched = matched[:req.Limit]
		}

		return &docserve.ExamplesResult{
			Entries:    matched,
			TotalCount: total,
			Errors:     errs,
		}, nil
	})
}

// MigrationGuide implements the migration guide lookup against a single
// source.
func (o *Orchestrator) MigrationGuide(ctx context.Context, req docserve.MigrationRequest) (*docserve.MigrationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := cache.Fingerprint("migration", req)
	return cached(ctx, o, key, MigrationTTL, func() (*docserve.MigrationResult, error) {
		intent := docserve.ScrapeIntent{
			Op:          docserve.OpMigration,
			FromVersion: req.FromVersion,
			ToVersion:   req.ToVersion,
		}
		entries, errs := o.fanOut(ctx, []string{req.Source}, intent)

		guides := make([]*docserve.Entry, 0, len(entries))
		for _, e := range entries {
			if e.Kind == docserve.KindMigration && e.SourceID == req.Source {
				guides = append(guides, e)
			}
		}

		return &docserve.MigrationResult{
			Entries: guides,
			Errors:  errs,
		}, nil
	})
}

// cached wraps an operation in a fingerprint-keyed cache lookup. Two
// concurrent first-time requests for the same key may both miss and both
// scrape; the second write wins, which is fine for a read-mostly workload.
func cached[T any](ctx context.Context, o *Orchestrator, key string, ttl time.Duration, fn func() (*T, error)) (*T, error) {
	if raw, ok := o.cache.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			o.logger.Debug("retrieve: cache hit", "key", key)
			return &v, nil
		}
		o.logger.Warn("retrieve: cached value unreadable, refetching", "key", key)
	}

	v, err := fn()
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(v); err == nil {
		o.cache.Set(ctx, key, raw, ttl)
	}
	return v, nil
}

// fanOut invokes every target adapter concurrently and merges entries and
// errors. Naming an unconfigured source yields a soft error entry, never a
// failure: the operation still returns whatever the remaining sources
// produced.
func (o *Orchestrator) fanOut(ctx context.Context, sources []string, intent docserve.ScrapeIntent) ([]*docserve.Entry, []docserve.SourceError) {
	var errs []docserve.SourceError

	targets := sources
	if len(targets) == 0 {
		targets = o.order
	}

	var scrapers []docserve.Scraper
	for _, id := range targets {
		s, ok := o.scrapers[id]
		if !ok {
			errs = append(errs, docserve.SourceError{
				SourceID: id,
				Message:  "source not configured",
			})
			continue
		}
		scrapers = append(scrapers, s)
	}

	o.logger.Debug("retrieve: fanning out", "op", intent.Op, "sources", len(scrapers))

	results := make([]*docserve.ScrapeResult, len(scrapers))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range scrapers {
		g.Go(func() error {
			results[i] = s.Scrape(gctx, intent)
			return nil
		})
	}
	_ = g.Wait() // scrapers never return errors

	var entries []*docserve.Entry
	for _, r := range results {
		if r == nil {
			continue
		}
		entries = append(entries, r.Entries...)
		errs = append(errs, r.Errors...)
	}
	return entries, errs
}

// rankSearch filters entries to those containing every query term and
// scores them: 100 for an exact title match, +50 when the title contains
// the whole query, +10 per query term in the title, +2 per query term in
// the content.
func rankSearch(entries []*docserve.Entry, query string, kind docserve.Kind) []*docserve.Entry {
	lowerQuery := strings.ToLower(strings.TrimSpace(query))
	terms := strings.Fields(lowerQuery)

	type scored struct {
		entry *docserve.Entry
		score int
	}
	var matched []scored

	for _, e := range entries {
		if kind != "" && e.Kind != kind {
			continue
		}

		title := strings.ToLower(e.Title)
		content := strings.ToLower(e.Content)
		haystack := title + " " + content

		all := true
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				all = false
				break
			}
		}
		if !all {
			continue
		}

		score := 0
		if title == lowerQuery {
			score += 100
		}
		if strings.Contains(title, lowerQuery) {
			score += 50
		}
		for _, term := range terms {
			if strings.Contains(title, term) {
				score += 10
			}
			if strings.Contains(content, term) {
				score += 2
			}
		}

		matched = append(matched, scored{entry: e, score: score})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
	})

	out := make([]*docserve.Entry, len(matched))
	for i, m := range matched {
		out[i] = m.entry
	}
	return out
}

// pickReference selects the best candidate for a named API lookup: first
// exact title match, else first substring match, else first entry whose
// title contains any token of the name, else the first entry, else nil.
func pickReference(entries []*docserve.Entry, apiName string) *docserve.Entry {
	if len(entries) == 0 {
		return nil
	}

	lowerName := strings.ToLower(apiName)

	for _, e := range entries {
		if strings.ToLower(e.Title) == lowerName {
			return e
		}
	}
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Title), lowerName) {
			return e
		}
	}

	tokens := strings.FieldsFunc(lowerName, func(r rune) bool {
		return r == '.' || r == '-' || r == '_'
	})
	for _, e := range entries {
		title := strings.ToLower(e.Title)
		for _, token := range tokens {
			if token != "" && strings.Contains(title, token) {
				return e
			}
		}
	}

	return entries[0]
}

// rankExamples filters entries to example-kind (optionally by language)
// and scores them: +50 when the title contains the topic, +20 per topic
// term in the title, +5 per topic term in the content, +10 for a
// description, +15 when the source is not a lower-trust aggregator.
func (o *Orchestrator) rankExamples(entries []*docserve.Entry, topic, language string) []*docserve.Entry {
	lowerTopic := strings.ToLower(strings.TrimSpace(topic))
	terms := strings.Fields(lowerTopic)
	lowerLang := strings.ToLower(language)

	type scored struct {
		entry *docserve.Entry
		score int
	}
	var matched []scored

	for _, e := range entries {
		if e.Kind != docserve.KindExample {
			continue
		}
		if lowerLang != "" && strings.ToLower(e.Meta("language")) != lowerLang {
			continue
		}

		title := strings.ToLower(e.Title)
		content := strings.ToLower(e.Content)

		score := 0
		if strings.Contains(title, lowerTopic) {
			score += 50
		}
		for _, term := range terms {
			if strings.Contains(title, term) {
				score += 20
			}
			if strings.Contains(content, term) {
				score += 5
			}
		}
		if e.Meta("description") != "" {
			score += 10
		}
		if !o.aggregators[e.SourceID] {
			score += 15
		}

		matched = append(matched, scored{entry: e, score: score})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
	})

	out := make([]*docserve.Entry, len(matched))
	for i, m := range matched {
		out[i] = m.entry
	}
	return out
}
