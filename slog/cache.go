package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docserve"
)

// Ensure LoggingCache implements docserve.Cache.
var _ docserve.Cache = (*LoggingCache)(nil)

// LoggingCache wraps a Cache with debug logging for hits and misses.
type LoggingCache struct {
	next   docserve.Cache
	logger *slog.Logger
}

// NewLoggingCache creates a new LoggingCache.
func NewLoggingCache(next docserve.Cache, logger *slog.Logger) *LoggingCache {
	return &LoggingCache{next: next, logger: logger}
}

// Get logs whether the lookup hit.
func (c *LoggingCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, ok := c.next.Get(ctx, key)
	c.logger.Debug("cache get", "key", key, "hit", ok)
	return value, ok
}

// Set logs the write with its size and TTL.
func (c *LoggingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.next.Set(ctx, key, value, ttl)
	c.logger.Debug("cache set", "key", key, "bytes", len(value), "ttl", ttl)
}

// Delete delegates to the wrapped cache.
func (c *LoggingCache) Delete(ctx context.Context, key string) {
	c.next.Delete(ctx, key)
	c.logger.Debug("cache delete", "key", key)
}

// Clear delegates to the wrapped cache.
func (c *LoggingCache) Clear(ctx context.Context) {
	c.next.Clear(ctx)
	c.logger.Info("cache cleared")
}
