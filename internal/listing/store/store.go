// Package store persists listings. Postgres in production, memory for tests
// and single-instance demos.
package store

import (
	"context"

	"github.com/google/uuid"

	"veristay/internal/listing/models"
)

// Store is the listing persistence boundary. Implementations return
// sentinel.ErrNotFound for missing listings and sentinel.ErrConflict for
// duplicate IDs.
type Store interface {
	Create(ctx context.Context, listing *models.Listing) error
	Get(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListByUser(ctx context.Context, userID string) ([]models.Listing, error)
}
