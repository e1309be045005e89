// Package otp owns one-time code issuance and confirmation. Only bcrypt
// hashes of codes are ever stored; the plain code exists in memory just long
// enough to hand to the SMS boundary. Verification is exact string equality
// against the hash, one shot per issued code.
package otp

import (
	"context"
	"time"
)

// Issued is the stored record for one dispatched code.
type Issued struct {
	CodeHash     string    `json:"code_hash"`
	MobileMasked string    `json:"mobile_masked"`
	SentAt       time.Time `json:"sent_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Store persists issued codes keyed by the dispatch identifier.
// Implementations return sentinel.ErrNotFound for unknown identifiers.
type Store interface {
	Put(ctx context.Context, identifier string, rec Issued) error
	Get(ctx context.Context, identifier string) (*Issued, error)
	Delete(ctx context.Context, identifier string) error
}

// Sender is the out-of-band SMS boundary. The provider resolves the mobile
// number linked to the identifier; this service only ever sees a masked hint.
type Sender interface {
	Send(ctx context.Context, identifier, message string) (mobileMasked string, err error)
}

// Verifier checks a user-submitted code. Implementations: StoreVerifier for
// production, Static for the demo flow. Injecting the verifier keeps the
// accepted code out of workflow logic entirely.
type Verifier interface {
	Verify(ctx context.Context, identifier, code string) error
}
