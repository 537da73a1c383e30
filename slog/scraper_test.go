package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fwojciec/docserve"
	"github.com/fwojciec/docserve/mock"
	docslog "github.com/fwojciec/docserve/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingScraper_Scrape(t *testing.T) {
	t.Parallel()

	t.Run("logs source, counts and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Scraper{
			SourceIDFn: func() string { return "electron" },
			ScrapeFn: func(context.Context, docserve.ScrapeIntent) *docserve.ScrapeResult {
				return &docserve.ScrapeResult{
					SourceID: "electron",
					Entries:  []*docserve.Entry{{Title: "BrowserWindow"}},
					Errors:   []docserve.SourceError{{SourceID: "electron", Message: "partial"}},
				}
			},
		}

		s := docslog.NewLoggingScraper(inner, logger)
		result := s.Scrape(context.Background(), docserve.ScrapeIntent{Op: docserve.OpSearch, Query: "window"})

		require.Len(t, result.Entries, 1)
		output := buf.String()
		assert.Contains(t, output, "scrape")
		assert.Contains(t, output, "source=electron")
		assert.Contains(t, output, "op=search")
		assert.Contains(t, output, "entries=1")
		assert.Contains(t, output, "errors=1")
		assert.Contains(t, output, "duration=")
	})

	t.Run("delegates identity methods", func(t *testing.T) {
		t.Parallel()

		inner := &mock.Scraper{
			SourceIDFn: func() string { return "react" },
			CacheKeyFn: func(docserve.ScrapeIntent) string { return "scrape-react:abc" },
		}

		s := docslog.NewLoggingScraper(inner, slog.New(slog.DiscardHandler))

		assert.Equal(t, "react", s.SourceID())
		assert.Equal(t, "scrape-react:abc", s.CacheKey(docserve.ScrapeIntent{}))
	})
}
