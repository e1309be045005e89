package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrExpired: code/session has expired
// - ErrAlreadyUsed: one-time code already consumed
// - ErrInvalidState: session in wrong state for requested operation
// - ErrTooManyAttempts: attempt budget for a code exhausted
// - ErrThrottled: resend window exhausted
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrExpired         = errors.New("expired")
	ErrAlreadyUsed     = errors.New("already used")
	ErrInvalidState    = errors.New("invalid state")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrThrottled       = errors.New("throttled")
	ErrUnavailable     = errors.New("unavailable")
)
