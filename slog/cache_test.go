package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/fwojciec/docserve/mock"
	docslog "github.com/fwojciec/docserve/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggingCache_Get(t *testing.T) {
	t.Parallel()

	t.Run("logs a hit", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Cache{
			GetFn: func(context.Context, string) ([]byte, bool) { return []byte(`{}`), true },
		}

		c := docslog.NewLoggingCache(inner, debugLogger(&buf))
		value, ok := c.Get(context.Background(), "search:abc")

		require.True(t, ok)
		assert.Equal(t, []byte(`{}`), value)
		output := buf.String()
		assert.Contains(t, output, "cache get")
		assert.Contains(t, output, "key=search:abc")
		assert.Contains(t, output, "hit=true")
	})

	t.Run("logs a miss", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Cache{
			GetFn: func(context.Context, string) ([]byte, bool) { return nil, false },
		}

		c := docslog.NewLoggingCache(inner, debugLogger(&buf))
		_, ok := c.Get(context.Background(), "search:abc")

		require.False(t, ok)
		assert.Contains(t, buf.String(), "hit=false")
	})
}

func TestLoggingCache_Set(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var gotKey string
	inner := &mock.Cache{
		SetFn: func(_ context.Context, key string, _ []byte, _ time.Duration) { gotKey = key },
	}

	c := docslog.NewLoggingCache(inner, debugLogger(&buf))
	c.Set(context.Background(), "search:abc", []byte(`{"x":1}`), 30*time.Minute)

	assert.Equal(t, "search:abc", gotKey, "writes must reach the wrapped cache")
	output := buf.String()
	assert.Contains(t, output, "cache set")
	assert.Contains(t, output, "bytes=7")
	assert.Contains(t, output, "ttl=30m")
}

func TestLoggingCache_DeleteAndClear(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	deleted := false
	cleared := false
	inner := &mock.Cache{
		DeleteFn: func(context.Context, string) { deleted = true },
		ClearFn:  func(context.Context) { cleared = true },
	}

	c := docslog.NewLoggingCache(inner, debugLogger(&buf))
	c.Delete(context.Background(), "search:abc")
	c.Clear(context.Background())

	assert.True(t, deleted)
	assert.True(t, cleared)
	assert.Contains(t, buf.String(), "cache delete")
	assert.Contains(t, buf.String(), "cache cleared")
}
