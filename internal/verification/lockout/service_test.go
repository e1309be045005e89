package lockout_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veristay/internal/verification/lockout"
	dErrors "veristay/pkg/domain-errors"
	"veristay/pkg/platform/sentinel"
	"veristay/pkg/requestcontext"
)

type LockoutSuite struct {
	suite.Suite
	svc *lockout.Service
	cfg lockout.Config
}

func TestLockoutSuite(t *testing.T) {
	suite.Run(t, new(LockoutSuite))
}

func (s *LockoutSuite) SetupTest() {
	s.cfg = lockout.Config{
		AttemptsPerWindow: 3,
		Window:            15 * time.Minute,
		HardLockDuration:  15 * time.Minute,
		ResendsPerWindow:  2,
		ResendWindow:      10 * time.Minute,
	}
	s.svc = lockout.New(lockout.NewInMemoryStore(), lockout.WithConfig(s.cfg))
}

func (s *LockoutSuite) ctxAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *LockoutSuite) TestLocksAfterBudgetExhausted() {
	now := time.Now()
	ctx := s.ctxAt(now)

	for i := 0; i < s.cfg.AttemptsPerWindow-1; i++ {
		locked, err := s.svc.RecordFailure(ctx, "session-1")
		s.Require().NoError(err)
		s.False(locked)
		s.NoError(s.svc.CheckAttempt(ctx, "session-1"))
	}

	locked, err := s.svc.RecordFailure(ctx, "session-1")
	s.Require().NoError(err)
	s.True(locked)

	err = s.svc.CheckAttempt(ctx, "session-1")
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrTooManyAttempts)
	s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))
}

func (s *LockoutSuite) TestLockExpires() {
	now := time.Now()
	ctx := s.ctxAt(now)

	for i := 0; i < s.cfg.AttemptsPerWindow; i++ {
		_, err := s.svc.RecordFailure(ctx, "session-1")
		s.Require().NoError(err)
	}
	s.Error(s.svc.CheckAttempt(ctx, "session-1"))

	later := s.ctxAt(now.Add(s.cfg.HardLockDuration + time.Second))
	s.NoError(s.svc.CheckAttempt(later, "session-1"))
}

func (s *LockoutSuite) TestWindowResetsCounter() {
	now := time.Now()
	ctx := s.ctxAt(now)

	for i := 0; i < s.cfg.AttemptsPerWindow-1; i++ {
		_, err := s.svc.RecordFailure(ctx, "session-1")
		s.Require().NoError(err)
	}

	// One more failure in a fresh window starts from zero.
	later := s.ctxAt(now.Add(s.cfg.Window + time.Second))
	locked, err := s.svc.RecordFailure(later, "session-1")
	s.Require().NoError(err)
	s.False(locked)
	s.NoError(s.svc.CheckAttempt(later, "session-1"))
}

func (s *LockoutSuite) TestIdentifiersAreIndependent() {
	ctx := s.ctxAt(time.Now())

	for i := 0; i < s.cfg.AttemptsPerWindow; i++ {
		_, err := s.svc.RecordFailure(ctx, "session-1")
		s.Require().NoError(err)
	}

	s.Error(s.svc.CheckAttempt(ctx, "session-1"))
	s.NoError(s.svc.CheckAttempt(ctx, "session-2"))
}

func (s *LockoutSuite) TestResendBudget() {
	now := time.Now()
	ctx := s.ctxAt(now)

	for i := 0; i < s.cfg.ResendsPerWindow; i++ {
		s.Require().NoError(s.svc.AllowResend(ctx, "session-1"))
	}

	err := s.svc.AllowResend(ctx, "session-1")
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrThrottled)
	s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))

	later := s.ctxAt(now.Add(s.cfg.ResendWindow + time.Second))
	s.NoError(s.svc.AllowResend(later, "session-1"))
}

func (s *LockoutSuite) TestLockedIdentifierCannotResend() {
	ctx := s.ctxAt(time.Now())

	for i := 0; i < s.cfg.AttemptsPerWindow; i++ {
		_, err := s.svc.RecordFailure(ctx, "session-1")
		s.Require().NoError(err)
	}

	err := s.svc.AllowResend(ctx, "session-1")
	s.ErrorIs(err, sentinel.ErrTooManyAttempts)
}

func (s *LockoutSuite) TestClearResetsEverything() {
	ctx := s.ctxAt(time.Now())

	for i := 0; i < s.cfg.AttemptsPerWindow; i++ {
		_, err := s.svc.RecordFailure(ctx, "session-1")
		s.Require().NoError(err)
	}
	for i := 0; i < s.cfg.ResendsPerWindow; i++ {
		_ = s.svc.AllowResend(ctx, "session-1")
	}

	s.Require().NoError(s.svc.Clear(ctx, "session-1"))

	s.NoError(s.svc.CheckAttempt(ctx, "session-1"))
	s.NoError(s.svc.AllowResend(ctx, "session-1"))

	locked, err := s.svc.RecordFailure(ctx, "session-1")
	s.Require().NoError(err)
	s.False(locked)
}
