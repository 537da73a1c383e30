package main

import (
	"time"

	"github.com/fwojciec/docserve"
)

// Source pairs a source id with its scraping configuration.
type Source struct {
	ID     string
	Config docserve.ScraperConfig
}

const userAgent = "docserve/" + version + " (+https://github.com/fwojciec/docserve)"

// defaultSources is the built-in source set. Order is fan-out order for
// requests that name no sources.
func defaultSources() []Source {
	headers := map[string]string{"User-Agent": userAgent}
	return []Source{
		{
			ID: "electron",
			Config: docserve.ScraperConfig{
				BaseURL:            "https://www.electronjs.org/docs/latest",
				RateLimitPerMinute: 30,
				Timeout:            30 * time.Second,
				Headers:            headers,
				Sitemap:            true,
			},
		},
		{
			ID: "react",
			Config: docserve.ScraperConfig{
				BaseURL:            "https://react.dev/reference/react",
				RateLimitPerMinute: 30,
				Timeout:            30 * time.Second,
				Headers:            headers,
			},
		},
		{
			ID: "node",
			Config: docserve.ScraperConfig{
				BaseURL:            "https://nodejs.org/api",
				RateLimitPerMinute: 30,
				Timeout:            30 * time.Second,
				Headers:            headers,
			},
		},
		{
			ID: "devdocs",
			Config: docserve.ScraperConfig{
				BaseURL:            "https://devdocs.io",
				RateLimitPerMinute: 10,
				Timeout:            30 * time.Second,
				Headers:            headers,
				Aggregator:         true,
			},
		},
	}
}

// sourceRateLimits maps each source to its per-minute request budget for
// the shared pacer.
func sourceRateLimits() map[string]int {
	limits := make(map[string]int)
	for _, source := range defaultSources() {
		if source.Config.RateLimitPerMinute > 0 {
			limits[source.ID] = source.Config.RateLimitPerMinute
		}
	}
	return limits
}
