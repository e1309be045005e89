// Package store persists verification sessions. All state-machine mutations
// go through Execute so the read-mutate-write cycle is atomic per session:
// the in-memory store serializes on a lock, the Redis store on optimistic
// WATCH retries. This is what makes the double-tap guard hold.
package store

import (
	"context"

	"github.com/google/uuid"

	"veristay/internal/verification/models"
)

// SessionStore is the persistence boundary for verification sessions.
// Implementations return sentinel.ErrNotFound for missing sessions and
// sentinel.ErrConflict for version clashes.
type SessionStore interface {
	// Create persists a new session. Fails with sentinel.ErrConflict if the
	// ID is already taken.
	Create(ctx context.Context, session *models.Session) error

	// Get returns a copy of the session.
	Get(ctx context.Context, id uuid.UUID) (*models.Session, error)

	// Execute atomically applies fn to the session and persists the result.
	// If fn returns an error nothing is written and the error is returned
	// unchanged. The returned session reflects the persisted state.
	Execute(ctx context.Context, id uuid.UUID, fn func(*models.Session) error) (*models.Session, error)

	// Delete removes the session. Deleting an absent session is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}
