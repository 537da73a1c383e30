package docserve

import (
	"context"
	"time"
)

// Cache is a TTL key-value store for serialized operation results.
//
// Implementations degrade rather than fail: a fault in a durable backing
// tier must never surface to the caller as an error, only as a miss (on
// reads) or a memory-only write (on writes).
type Cache interface {
	// Get returns the value stored under key, or ok=false on a miss or when
	// the stored value has expired.
	Get(ctx context.Context, key string) (value []byte, ok bool)

	// Set stores value under key with the given time-to-live.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Delete removes key from every tier.
	Delete(ctx context.Context, key string)

	// Clear removes all entries from every tier.
	Clear(ctx context.Context)
}
