package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"veristay/internal/verification/models"
	"veristay/pkg/platform/sentinel"
)

// InMemorySessionStore keeps sessions in a mutex-guarded map. The single lock
// also serializes Execute callbacks, which is exactly the atomicity the state
// machine needs in a one-instance deployment.
type InMemorySessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]models.Session
}

// NewInMemorySessionStore constructs an empty store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[uuid.UUID]models.Session)}
}

// Create persists a new session.
func (s *InMemorySessionStore) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; ok {
		return sentinel.ErrConflict
	}
	s.sessions[session.ID] = *session
	return nil
}

// Get returns a copy of the session.
func (s *InMemorySessionStore) Get(_ context.Context, id uuid.UUID) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := session
	return &out, nil
}

// Execute applies fn under the store lock and persists the mutated session.
func (s *InMemorySessionStore) Execute(_ context.Context, id uuid.UUID, fn func(*models.Session) error) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	working := session
	if err := fn(&working); err != nil {
		return nil, err
	}

	working.Version = session.Version + 1
	s.sessions[id] = working
	out := working
	return &out, nil
}

// Delete removes the session.
func (s *InMemorySessionStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
