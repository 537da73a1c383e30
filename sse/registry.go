// Package sse implements the streaming HTTP binding: a GET opens a
// Server-Sent Events stream and mints a session, a POST bearing the session
// id carries protocol requests.
package sse

import (
	"sync"
	"time"

	"github.com/fwojciec/docserve"
	"github.com/google/uuid"
)

// Ensure Registry implements docserve.SessionRegistry at compile time.
var _ docserve.SessionRegistry = (*Registry)(nil)

// Registry tracks live sessions in memory. Session ids are UUIDv4: unique,
// unguessable, URL-safe.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*docserve.Session
	now      func() time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*docserve.Session),
		now:      time.Now,
	}
}

// Open mints and registers a new session.
func (r *Registry) Open() *docserve.Session {
	s := &docserve.Session{
		ID:        uuid.NewString(),
		CreatedAt: r.now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return s
}

// Get returns the live session for id.
func (r *Registry) Get(id string) (*docserve.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Close destroys the session for id. Closing an unknown id is a no-op.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// CloseAll destroys every live session. Used on server shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.sessions)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
