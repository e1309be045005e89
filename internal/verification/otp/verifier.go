package otp

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"veristay/internal/verification/models"
	dErrors "veristay/pkg/domain-errors"
	"veristay/pkg/platform/sentinel"
	"veristay/pkg/requestcontext"
)

// StoreVerifier confirms codes against the bcrypt hash recorded at issue
// time. A confirmed code is deleted so it can never be replayed.
type StoreVerifier struct {
	store Store
}

// NewStoreVerifier constructs the production verifier.
func NewStoreVerifier(store Store) *StoreVerifier {
	return &StoreVerifier{store: store}
}

// Verify succeeds iff the submitted code exactly matches the issued one and
// the code has not expired. Mismatches leave the issued record in place so
// the user can retry (bounded by the lockout service).
func (v *StoreVerifier) Verify(ctx context.Context, identifier, code string) error {
	rec, err := v.store.Get(ctx, identifier)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeBadRequest, "code expired or not requested")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load issued code")
	}

	now := requestcontext.Now(ctx)
	if now.After(rec.ExpiresAt) {
		_ = v.store.Delete(ctx, identifier)
		return dErrors.Wrap(sentinel.ErrExpired, dErrors.CodeBadRequest, "code expired, please resend")
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) != nil {
		return dErrors.Wrap(models.ErrOTPMismatch, dErrors.CodeBadRequest, "invalid code")
	}

	_ = v.store.Delete(ctx, identifier)
	return nil
}

// Static accepts a single fixed code. Demo/development stand-in only — it is
// constructed exclusively under demo mode and must never ship as production
// wiring.
type Static struct {
	code string
}

// NewStatic constructs the demo verifier for the given fixed code.
func NewStatic(code string) *Static {
	return &Static{code: code}
}

// Verify compares against the fixed code.
func (s *Static) Verify(_ context.Context, _ string, code string) error {
	if code != s.code {
		return dErrors.Wrap(models.ErrOTPMismatch, dErrors.CodeBadRequest, "invalid code")
	}
	return nil
}
