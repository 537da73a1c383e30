package docserve

import "time"

// Session binds a long-lived client stream to an opaque identifier.
// A session is created when a stream is accepted and destroyed when the
// stream closes; destruction invalidates all future requests bearing its id.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionRegistry tracks live sessions by id.
type SessionRegistry interface {
	// Open mints a session with a unique, cryptographically random,
	// URL-safe id and registers it.
	Open() *Session

	// Get returns the session for id, or ok=false if it was never opened
	// or has been closed.
	Get(id string) (s *Session, ok bool)

	// Close destroys the session for id. Closing an unknown id is a no-op.
	Close(id string)

	// Len returns the number of live sessions.
	Len() int
}
