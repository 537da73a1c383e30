package cache_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/docserve"
	"github.com/fwojciec/docserve/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Story: Path Safety
// A key containing "../" or starting with "." is rejected before any
// durable read or write, never silently remapped.

func TestFilename_RejectsTraversalKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
	}{
		{"parent traversal", "../etc/passwd"},
		{"embedded traversal", "search/../../secret"},
		{"leading dot", ".hidden"},
		{"double dot only", ".."},
		{"empty key", ""},
		{"dots after sanitization", "a..b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := cache.Filename(tt.key)

			require.Error(t, err)
			assert.Equal(t, docserve.ESECURITY, docserve.ErrorCode(err))
		})
	}
}

func TestFilename_SanitizesAndCollapses(t *testing.T) {
	t.Parallel()

	name, err := cache.Filename("search:abc/def ghi")

	require.NoError(t, err)
	assert.Equal(t, "search_abc_def_ghi.json", name)
}

func TestFilename_CapsLength(t *testing.T) {
	t.Parallel()

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}

	name, err := cache.Filename(string(long))

	require.NoError(t, err)
	assert.LessOrEqual(t, len(name), 100+len(".json"))
}

func TestFileCache_WriteReadRoundtrip(t *testing.T) {
	t.Parallel()

	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	env := cache.Envelope{
		Payload:    json.RawMessage(`{"results":[]}`),
		CreatedAt:  time.Now().UTC(),
		TTLSeconds: 1800,
	}
	require.NoError(t, fc.Write("search:abc", env))

	got, ok := fc.Read("search:abc")
	require.True(t, ok)
	assert.JSONEq(t, `{"results":[]}`, string(got.Payload))
	assert.Equal(t, float64(1800), got.TTLSeconds)
}

func TestFileCache_CreatesRootWithOwnerOnlyAccess(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "docserve-cache")
	_, err := cache.NewFileCache(root)
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestFileCache_SweepRemovesOnlyExpired(t *testing.T) {
	t.Parallel()

	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, fc.Write("fresh", cache.Envelope{
		Payload: json.RawMessage(`1`), CreatedAt: now, TTLSeconds: 3600,
	}))
	require.NoError(t, fc.Write("stale", cache.Envelope{
		Payload: json.RawMessage(`2`), CreatedAt: now.Add(-2 * time.Hour), TTLSeconds: 3600,
	}))

	removed, err := fc.Sweep(now)

	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok := fc.Read("fresh")
	assert.True(t, ok, "fresh entry should survive the sweep")
	_, ok = fc.Read("stale")
	assert.False(t, ok, "stale entry should be removed")
}

func TestFileCache_SweepRemovesCorruptFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	fc, err := cache.NewFileCache(root)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "corrupt.json"), []byte("not json"), 0600))

	removed, err := fc.Sweep(time.Now())

	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestFileCache_RemoveAbsentKeyIsNoOp(t *testing.T) {
	t.Parallel()

	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, fc.Remove("never-written"))
}
