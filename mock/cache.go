package mock

import (
	"context"
	"time"

	"github.com/fwojciec/docserve"
)

var _ docserve.Cache = (*Cache)(nil)

// Cache is a mock implementation of docserve.Cache.
type Cache struct {
	GetFn    func(ctx context.Context, key string) ([]byte, bool)
	SetFn    func(ctx context.Context, key string, value []byte, ttl time.Duration)
	DeleteFn func(ctx context.Context, key string)
	ClearFn  func(ctx context.Context)
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	return c.GetFn(ctx, key)
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.SetFn(ctx, key, value, ttl)
}

func (c *Cache) Delete(ctx context.Context, key string) {
	c.DeleteFn(ctx, key)
}

func (c *Cache) Clear(ctx context.Context) {
	c.ClearFn(ctx)
}
