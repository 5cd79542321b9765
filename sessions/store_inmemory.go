package sessions

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-swipe-client/internal/errors"
)

// InMemoryStore is a thread-safe in-memory implementation of Store.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session // browser session id -> Session
}

// NewInMemoryStore creates a new in-memory session store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]Session),
	}
}

// Upsert creates or replaces the session for id
func (r *InMemoryStore) Upsert(_ context.Context, id string, s Session) error {
	if id == "" {
		return fmt.Errorf("session id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[id] = s
	return nil
}

// Get retrieves the session for id
func (r *InMemoryStore) Get(_ context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, errors.ErrSessionNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, errors.ErrSessionNotFound
	}
	return s, nil
}

// Delete removes the session for id. Deleting a missing session is not an error.
func (r *InMemoryStore) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}
