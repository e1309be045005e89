package otp

import (
	"context"
	"sync"

	"veristay/pkg/platform/sentinel"
)

// InMemoryStore keeps issued codes in a mutex-guarded map. Suitable for
// single-instance deployments and tests; shared deployments use RedisStore.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Issued
}

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Issued)}
}

// Put records an issued code, replacing any previous one for the identifier.
func (s *InMemoryStore) Put(_ context.Context, identifier string, rec Issued) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[identifier] = rec
	return nil
}

// Get returns the issued record. Expiry is the verifier's judgment: the
// record stays until deleted so the expired case can be reported distinctly.
func (s *InMemoryStore) Get(_ context.Context, identifier string) (*Issued, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[identifier]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := rec
	return &out, nil
}

// Delete removes the record. Deleting an absent record is not an error.
func (s *InMemoryStore) Delete(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, identifier)
	return nil
}
