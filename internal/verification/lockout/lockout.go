// Package lockout bounds OTP confirmation attempts and resends. A 4-digit
// code is trivially brute-forced without this: five mismatches inside the
// window hard-locks the identifier, and resends are capped per window.
package lockout

import (
	"context"
	"time"
)

// Config carries the attempt and resend budgets.
type Config struct {
	// AttemptsPerWindow is how many failed confirmations are tolerated
	// inside Window before the identifier hard-locks.
	AttemptsPerWindow int
	Window            time.Duration
	HardLockDuration  time.Duration

	// ResendsPerWindow caps OTP dispatches inside ResendWindow.
	ResendsPerWindow int
	ResendWindow     time.Duration
}

// DefaultConfig returns the production budgets.
func DefaultConfig() Config {
	return Config{
		AttemptsPerWindow: 5,
		Window:            15 * time.Minute,
		HardLockDuration:  15 * time.Minute,
		ResendsPerWindow:  3,
		ResendWindow:      10 * time.Minute,
	}
}

// Store tracks failure and resend counters per identifier. Counters expire
// with their window; locks expire with the hard-lock duration.
type Store interface {
	// IncrFailure bumps the failure counter, starting a fresh window if the
	// previous one elapsed, and returns the count within the current window.
	IncrFailure(ctx context.Context, identifier string, now time.Time, window time.Duration) (int, error)

	// IncrResend does the same for dispatch attempts.
	IncrResend(ctx context.Context, identifier string, now time.Time, window time.Duration) (int, error)

	// Lock hard-locks the identifier until the given time.
	Lock(ctx context.Context, identifier string, until time.Time) error

	// IsLocked reports whether the identifier is locked at now, and until when.
	IsLocked(ctx context.Context, identifier string, now time.Time) (bool, *time.Time, error)

	// Clear removes all counters and locks for the identifier.
	Clear(ctx context.Context, identifier string) error
}
