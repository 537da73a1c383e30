package docserve

import "context"

// URLValidator screens outbound URLs before any socket opens.
//
// Validate must run before every network call, not only at configuration
// time: DNS answers change, and a hostname that resolved publicly yesterday
// may resolve to a private address today.
type URLValidator interface {
	// Validate returns an ESECURITY error unless the URL uses an http(s)
	// scheme and its hostname resolves only to public unicast addresses.
	Validate(ctx context.Context, rawURL string) error
}

// SourcePacer spaces outbound calls per source.
type SourcePacer interface {
	// Pace blocks until the source's rate limit admits another call.
	// Sources without a configured limit pass through immediately.
	// Returns an error only if the context is canceled while waiting.
	Pace(ctx context.Context, sourceID string) error
}
