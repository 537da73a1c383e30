package scrape

import (
	"bufio"
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/beevik/etree"
)

// fetchFunc retrieves the body at a URL. The scraper supplies one that runs
// the fetch guard first, so sitemap traversal is paced and validated like
// every other outbound call.
type fetchFunc func(ctx context.Context, rawURL string) (io.ReadCloser, error)

// discoverURLs finds documentation page URLs from a site's sitemap. It
// checks robots.txt for Sitemap directives, falls back to /sitemap.xml,
// resolves sitemap indexes recursively, keeps only URLs under the base
// URL's path, and caps the result at limit.
func discoverURLs(ctx context.Context, fetch fetchFunc, baseURL string, limit int) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	origin := *base
	origin.Path = ""

	sitemapURLs := sitemapsFromRobots(ctx, fetch, origin.ResolveReference(&url.URL{Path: "/robots.txt"}).String())
	if len(sitemapURLs) == 0 {
		sitemapURLs = []string{origin.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()}
	}

	pathPrefix := base.Path
	if pathPrefix == "/" {
		pathPrefix = ""
	}

	seenSitemaps := make(map[string]bool)
	seenURLs := make(map[string]bool)
	var out []string

	for _, sitemapURL := range sitemapURLs {
		urls, err := walkSitemap(ctx, fetch, sitemapURL, seenSitemaps)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		for _, u := range urls {
			if seenURLs[u] || !underPathPrefix(u, pathPrefix) {
				continue
			}
			seenURLs[u] = true
			out = append(out, u)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}

	return out, nil
}

// sitemapsFromRobots extracts Sitemap: directives from robots.txt.
// Errors are treated as "no directives".
func sitemapsFromRobots(ctx context.Context, fetch fetchFunc, robotsURL string) []string {
	body, err := fetch(ctx, robotsURL)
	if err != nil {
		return nil
	}
	defer body.Close()

	var sitemaps []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(strings.ToLower(line), "sitemap:") {
			if u := strings.TrimSpace(line[len("sitemap:"):]); u != "" {
				sitemaps = append(sitemaps, u)
			}
		}
	}
	return sitemaps
}

// walkSitemap fetches and parses a sitemap, handling both urlset and
// sitemapindex documents.
func walkSitemap(ctx context.Context, fetch fetchFunc, sitemapURL string, seen map[string]bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seen[sitemapURL] {
		return nil, nil
	}
	seen[sitemapURL] = true

	body, err := fetch(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, err
	}

	root := doc.Root()
	if root == nil {
		return nil, nil
	}

	if root.Tag == "sitemapindex" {
		var all []string
		for _, sitemap := range root.SelectElements("sitemap") {
			loc := sitemap.SelectElement("loc")
			if loc == nil {
				continue
			}
			child := strings.TrimSpace(loc.Text())
			if child == "" {
				continue
			}
			urls, err := walkSitemap(ctx, fetch, child, seen)
			if err != nil {
				continue
			}
			all = append(all, urls...)
		}
		return all, nil
	}

	var urls []string
	for _, urlEl := range root.SelectElements("url") {
		loc := urlEl.SelectElement("loc")
		if loc == nil {
			continue
		}
		if u := strings.TrimSpace(loc.Text()); u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// underPathPrefix checks if a URL's path starts with the given prefix,
// respecting path boundaries.
func underPathPrefix(rawURL, prefix string) bool {
	if prefix == "" {
		return true
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(parsed.Path, prefix) || parsed.Path+"/" == prefix
}
