package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/fwojciec/docserve"
)

// Ensure TwoTier implements docserve.Cache at compile time.
var _ docserve.Cache = (*TwoTier)(nil)

// Default sizing and timing for the two-tier cache.
const (
	DefaultSweepInterval = time.Hour

	bloomExpectedKeys = 10_000
	bloomFPRate       = 0.01
)

type memoryEntry struct {
	value     []byte
	createdAt time.Time
	ttl       time.Duration
}

func (e *memoryEntry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// TwoTier is a memory + durable TTL cache. Reads check the memory tier
// first and fall through to the durable tier, repopulating memory on a
// durable hit. Durable-tier faults are logged and swallowed so the cache
// degrades to memory-only rather than failing the caller.
//
// A Bloom filter tracks which keys have ever been written to the durable
// tier so cold misses skip the disk entirely. The filter is seeded from the
// durable tier's existing keys at construction time; deletes leave stale
// filter bits behind, which only costs a disk read that misses.
type TwoTier struct {
	durable Durable
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.RWMutex
	memory map[string]memoryEntry

	filterMu sync.Mutex
	filter   *bloom.BloomFilter

	sweepInterval time.Duration
	done          chan struct{}
	closeOnce     sync.Once
}

// Option configures a TwoTier.
type Option func(*TwoTier)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *TwoTier) {
		c.logger = logger
	}
}

// WithSweepInterval sets how often the background sweep scans the durable
// tier. Defaults to DefaultSweepInterval. A non-positive interval disables
// the background sweep; Sweep can still be called directly.
func WithSweepInterval(d time.Duration) Option {
	return func(c *TwoTier) {
		c.sweepInterval = d
	}
}

// WithClock sets the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *TwoTier) {
		c.now = now
	}
}

// NewTwoTier creates a TwoTier over the given durable tier and starts the
// background sweep. Call Close to stop it.
func NewTwoTier(durable Durable, opts ...Option) *TwoTier {
	c := &TwoTier{
		durable:       durable,
		logger:        slog.New(slog.DiscardHandler),
		now:           time.Now,
		memory:        make(map[string]memoryEntry),
		filter:        bloom.NewWithEstimates(bloomExpectedKeys, bloomFPRate),
		sweepInterval: DefaultSweepInterval,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.seedFilter()

	if c.sweepInterval > 0 {
		go c.sweepLoop()
	}

	return c
}

// seedFilter loads existing durable keys into the Bloom filter so a cold
// process still finds entries persisted by an earlier instance.
func (c *TwoTier) seedFilter() {
	names, err := c.durable.Keys()
	if err != nil {
		c.logger.Warn("cache: durable key scan failed", "error", err)
		return
	}
	for _, name := range names {
		c.filter.AddString(name)
	}
}

func (c *TwoTier) Get(ctx context.Context, key string) ([]byte, bool) {
	now := c.now()

	c.mu.RLock()
	entry, ok := c.memory[key]
	c.mu.RUnlock()

	if ok {
		if !entry.expired(now) {
			return entry.value, true
		}
		c.mu.Lock()
		delete(c.memory, key)
		c.mu.Unlock()
	}

	name, err := Filename(key)
	if err != nil {
		c.logger.Warn("cache: key rejected", "error", err)
		return nil, false
	}

	c.filterMu.Lock()
	mightExist := c.filter.TestString(name)
	c.filterMu.Unlock()
	if !mightExist {
		return nil, false
	}

	env, ok := c.durable.Read(key)
	if !ok {
		return nil, false
	}
	if env.Expired(now) {
		if err := c.durable.Remove(key); err != nil {
			c.logger.Warn("cache: durable remove failed", "key", key, "error", err)
		}
		return nil, false
	}

	value := []byte(env.Payload)
	c.mu.Lock()
	c.memory[key] = memoryEntry{
		value:     value,
		createdAt: env.CreatedAt,
		ttl:       time.Duration(env.TTLSeconds * float64(time.Second)),
	}
	c.mu.Unlock()

	return value, true
}

func (c *TwoTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	now := c.now()

	c.mu.Lock()
	c.memory[key] = memoryEntry{value: value, createdAt: now, ttl: ttl}
	c.mu.Unlock()

	name, err := Filename(key)
	if err != nil {
		c.logger.Warn("cache: key rejected", "error", err)
		return
	}

	env := Envelope{
		Payload:    json.RawMessage(value),
		CreatedAt:  now,
		TTLSeconds: ttl.Seconds(),
	}
	if err := c.durable.Write(key, env); err != nil {
		// Degrade to memory-only rather than failing the request.
		c.logger.Warn("cache: durable write failed", "key", key, "error", err)
		return
	}

	c.filterMu.Lock()
	c.filter.AddString(name)
	c.filterMu.Unlock()
}

func (c *TwoTier) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.memory, key)
	c.mu.Unlock()

	if err := c.durable.Remove(key); err != nil {
		c.logger.Warn("cache: durable remove failed", "key", key, "error", err)
	}
}

func (c *TwoTier) Clear(ctx context.Context) {
	c.mu.Lock()
	c.memory = make(map[string]memoryEntry)
	c.mu.Unlock()

	if err := c.durable.RemoveAll(); err != nil {
		c.logger.Warn("cache: durable clear failed", "error", err)
	}
}

// Sweep removes expired entries from both tiers. Foreground callers never
// wait on it; it runs in the background loop and in tests.
func (c *TwoTier) Sweep() {
	now := c.now()

	c.mu.Lock()
	for key, entry := range c.memory {
		if entry.expired(now) {
			delete(c.memory, key)
		}
	}
	c.mu.Unlock()

	removed, err := c.durable.Sweep(now)
	if err != nil {
		c.logger.Warn("cache: durable sweep failed", "error", err)
		return
	}
	if removed > 0 {
		c.logger.Debug("cache: sweep removed expired entries", "count", removed)
	}
}

func (c *TwoTier) sweepLoop() {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.done:
			return
		}
	}
}

// Close stops the background sweep. It is safe to call multiple times.
func (c *TwoTier) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}
