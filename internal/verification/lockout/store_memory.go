package lockout

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count     int
	expiresAt time.Time
}

// InMemoryStore keeps counters and locks in mutex-guarded maps. Suitable for
// single-instance deployments and tests; shared deployments use RedisStore.
type InMemoryStore struct {
	mu       sync.Mutex
	failures map[string]window
	resends  map[string]window
	locks    map[string]time.Time
}

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		failures: make(map[string]window),
		resends:  make(map[string]window),
		locks:    make(map[string]time.Time),
	}
}

func incr(m map[string]window, identifier string, now time.Time, ttl time.Duration) int {
	w, ok := m[identifier]
	if !ok || now.After(w.expiresAt) {
		w = window{count: 0, expiresAt: now.Add(ttl)}
	}
	w.count++
	m[identifier] = w
	return w.count
}

// IncrFailure bumps the failure counter for the current window.
func (s *InMemoryStore) IncrFailure(_ context.Context, identifier string, now time.Time, ttl time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return incr(s.failures, identifier, now, ttl), nil
}

// IncrResend bumps the resend counter for the current window.
func (s *InMemoryStore) IncrResend(_ context.Context, identifier string, now time.Time, ttl time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return incr(s.resends, identifier, now, ttl), nil
}

// Lock hard-locks the identifier until the given time.
func (s *InMemoryStore) Lock(_ context.Context, identifier string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks[identifier] = until
	return nil
}

// IsLocked reports whether a lock is still in force at now. Elapsed locks are
// dropped on read.
func (s *InMemoryStore) IsLocked(_ context.Context, identifier string, now time.Time) (bool, *time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.locks[identifier]
	if !ok {
		return false, nil, nil
	}
	if now.After(until) {
		delete(s.locks, identifier)
		return false, nil, nil
	}
	out := until
	return true, &out, nil
}

// Clear drops all state for the identifier.
func (s *InMemoryStore) Clear(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, identifier)
	delete(s.resends, identifier)
	delete(s.locks, identifier)
	return nil
}
