package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"veristay/internal/verification/models"
	dErrors "veristay/pkg/domain-errors"
	"veristay/pkg/requestcontext"
)

const codeSpace = 10000 // 4-digit codes

// Issuer generates, dispatches, and records one-time codes.
type Issuer struct {
	store  Store
	sender Sender
	ttl    time.Duration
	logger *slog.Logger
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) IssuerOption {
	return func(i *Issuer) { i.logger = l }
}

// NewIssuer constructs an Issuer. ttl bounds how long a dispatched code stays
// confirmable.
func NewIssuer(store Store, sender Sender, ttl time.Duration, opts ...IssuerOption) *Issuer {
	iss := &Issuer{store: store, sender: sender, ttl: ttl, logger: slog.Default()}
	for _, opt := range opts {
		opt(iss)
	}
	return iss
}

// Issue generates a fresh 4-digit code, dispatches it via SMS, and stores its
// bcrypt hash with TTL. Returns the masked mobile hint for display. Each call
// issues a new code; resend throttling is the lockout service's job.
func (i *Issuer) Issue(ctx context.Context, identifier string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
	}

	masked, err := i.sender.Send(ctx, identifier, fmt.Sprintf("Your verification code is %s", code))
	if err != nil {
		return "", dErrors.Wrap(models.ErrOTPDispatch, dErrors.CodeUnavailable, "failed to send verification code")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash code")
	}

	now := requestcontext.Now(ctx)
	rec := Issued{
		CodeHash:     string(hash),
		MobileMasked: masked,
		SentAt:       now,
		ExpiresAt:    now.Add(i.ttl),
	}
	if err := i.store.Put(ctx, identifier, rec); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to record issued code")
	}

	i.logger.InfoContext(ctx, "otp issued", "mobile_masked", masked)
	return masked, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
