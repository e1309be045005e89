package lockout

import (
	"context"
	"log/slog"

	dErrors "veristay/pkg/domain-errors"
	"veristay/pkg/platform/sentinel"
	"veristay/pkg/requestcontext"
)

// Service enforces the attempt and resend budgets on top of a Store.
type Service struct {
	store  Store
	cfg    Config
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithConfig overrides the default budgets.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// New constructs a lockout service.
func New(store Store, opts ...Option) *Service {
	svc := &Service{store: store, cfg: DefaultConfig(), logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CheckAttempt rejects confirmation attempts while the identifier is locked.
func (s *Service) CheckAttempt(ctx context.Context, identifier string) error {
	now := requestcontext.Now(ctx)
	locked, until, err := s.store.IsLocked(ctx, identifier, now)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check lockout")
	}
	if locked {
		s.logger.WarnContext(ctx, "otp attempt while locked", "locked_until", until)
		return dErrors.Wrap(sentinel.ErrTooManyAttempts, dErrors.CodeRateLimited, "too many attempts, please resend later")
	}
	return nil
}

// RecordFailure counts one failed confirmation. It returns true when this
// failure exhausted the budget and hard-locked the identifier.
func (s *Service) RecordFailure(ctx context.Context, identifier string) (bool, error) {
	now := requestcontext.Now(ctx)
	count, err := s.store.IncrFailure(ctx, identifier, now, s.cfg.Window)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record otp failure")
	}
	if count < s.cfg.AttemptsPerWindow {
		return false, nil
	}

	until := now.Add(s.cfg.HardLockDuration)
	if err := s.store.Lock(ctx, identifier, until); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply lockout")
	}
	s.logger.WarnContext(ctx, "otp lockout triggered", "locked_until", until)
	return true, nil
}

// AllowResend counts a dispatch and rejects it when the resend budget for the
// window is spent. Locked identifiers cannot resend either.
func (s *Service) AllowResend(ctx context.Context, identifier string) error {
	if err := s.CheckAttempt(ctx, identifier); err != nil {
		return err
	}
	now := requestcontext.Now(ctx)
	count, err := s.store.IncrResend(ctx, identifier, now, s.cfg.ResendWindow)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record otp resend")
	}
	if count > s.cfg.ResendsPerWindow {
		return dErrors.Wrap(sentinel.ErrThrottled, dErrors.CodeRateLimited, "too many requests, try later")
	}
	return nil
}

// Clear wipes all counters after a successful verification.
func (s *Service) Clear(ctx context.Context, identifier string) error {
	if err := s.store.Clear(ctx, identifier); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear lockout state")
	}
	return nil
}
