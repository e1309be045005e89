package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"veristay/internal/listing/models"
	"veristay/pkg/platform/sentinel"
)

// InMemoryStore keeps listings in a mutex-guarded map.
type InMemoryStore struct {
	mu       sync.RWMutex
	listings map[uuid.UUID]models.Listing
	order    []uuid.UUID
}

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{listings: make(map[uuid.UUID]models.Listing)}
}

// Create persists a new listing.
func (s *InMemoryStore) Create(_ context.Context, listing *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[listing.ID]; ok {
		return sentinel.ErrConflict
	}
	s.listings[listing.ID] = *listing
	s.order = append(s.order, listing.ID)
	return nil
}

// Get returns a copy of the listing.
func (s *InMemoryStore) Get(_ context.Context, id uuid.UUID) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := listing
	return &out, nil
}

// ListByUser returns the user's listings in insertion order.
func (s *InMemoryStore) ListByUser(_ context.Context, userID string) ([]models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Listing
	for _, id := range s.order {
		if listing := s.listings[id]; listing.UserID == userID {
			out = append(out, listing)
		}
	}
	return out, nil
}
