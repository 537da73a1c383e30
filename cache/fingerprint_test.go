package cache_test

import (
	"testing"

	"github.com/fwojciec/docserve/cache"
	"github.com/stretchr/testify/assert"
)

// Story: Fingerprint Stability
// Parameter objects differing only in key order or in absent/null fields
// must produce identical cache keys.

func TestFingerprint_KeyOrderIndependent(t *testing.T) {
	t.Parallel()

	a := cache.Fingerprint("search", map[string]any{"query": "window", "limit": 5})
	b := cache.Fingerprint("search", map[string]any{"limit": 5, "query": "window"})

	assert.Equal(t, a, b)
}

func TestFingerprint_NullFieldsIgnored(t *testing.T) {
	t.Parallel()

	a := cache.Fingerprint("search", map[string]any{"query": "window"})
	b := cache.Fingerprint("search", map[string]any{"query": "window", "type": nil})

	assert.Equal(t, a, b)
}

func TestFingerprint_NestedNullFieldsIgnored(t *testing.T) {
	t.Parallel()

	a := cache.Fingerprint("search", map[string]any{"filter": map[string]any{"kind": "api"}})
	b := cache.Fingerprint("search", map[string]any{"filter": map[string]any{"kind": "api", "lang": nil}})

	assert.Equal(t, a, b)
}

func TestFingerprint_StructAndMapEquivalent(t *testing.T) {
	t.Parallel()

	type params struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}

	a := cache.Fingerprint("search", params{Query: "window", Limit: 5})
	b := cache.Fingerprint("search", map[string]any{"query": "window", "limit": 5})

	assert.Equal(t, a, b)
}

func TestFingerprint_DistinguishesParameters(t *testing.T) {
	t.Parallel()

	a := cache.Fingerprint("search", map[string]any{"query": "window"})
	b := cache.Fingerprint("search", map[string]any{"query": "menu"})
	c := cache.Fingerprint("reference", map[string]any{"query": "window"})

	assert.NotEqual(t, a, b, "different parameters should produce different keys")
	assert.NotEqual(t, a, c, "different operations should produce different keys")
}

func TestFingerprint_KeyCarriesOperationPrefix(t *testing.T) {
	t.Parallel()

	key := cache.Fingerprint("search", map[string]any{"query": "window"})

	assert.Regexp(t, `^search:[0-9a-f]{16}$`, key)
}
