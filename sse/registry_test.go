package sse_test

import (
	"testing"

	"github.com/fwojciec/docserve/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_OpenMintsUniqueIDs(t *testing.T) {
	t.Parallel()

	registry := sse.NewRegistry()

	seen := make(map[string]bool)
	for range 100 {
		s := registry.Open()
		require.NotEmpty(t, s.ID)
		require.False(t, seen[s.ID], "session ids must be unique")
		require.False(t, s.CreatedAt.IsZero())
		seen[s.ID] = true
	}
	assert.Equal(t, 100, registry.Len())
}

func TestRegistry_GetAfterClose(t *testing.T) {
	t.Parallel()

	registry := sse.NewRegistry()
	s := registry.Open()

	got, ok := registry.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, s, got)

	registry.Close(s.ID)
	_, ok = registry.Get(s.ID)
	assert.False(t, ok)
}

func TestRegistry_CloseUnknownIsNoop(t *testing.T) {
	t.Parallel()

	registry := sse.NewRegistry()
	registry.Close("never-opened")
	assert.Zero(t, registry.Len())
}

func TestRegistry_CloseAll(t *testing.T) {
	t.Parallel()

	registry := sse.NewRegistry()
	a := registry.Open()
	b := registry.Open()

	registry.CloseAll()

	assert.Zero(t, registry.Len())
	_, ok := registry.Get(a.ID)
	assert.False(t, ok)
	_, ok = registry.Get(b.ID)
	assert.False(t, ok)
}
