package otp

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veristay/internal/verification/models"
	"veristay/pkg/platform/sentinel"
	"veristay/pkg/requestcontext"
)

// captureSender records dispatched messages so tests can read the plain code.
type captureSender struct {
	messages []string
	fail     bool
}

func (c *captureSender) Send(_ context.Context, _ string, message string) (string, error) {
	if c.fail {
		return "", errors.New("sms gateway down")
	}
	c.messages = append(c.messages, message)
	return "******8923", nil
}

var codePattern = regexp.MustCompile(`\d{4}`)

type OTPSuite struct {
	suite.Suite
	store    *InMemoryStore
	sender   *captureSender
	issuer   *Issuer
	verifier *StoreVerifier
	ctx      context.Context
}

func TestOTPSuite(t *testing.T) {
	suite.Run(t, new(OTPSuite))
}

func (s *OTPSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.sender = &captureSender{}
	s.issuer = NewIssuer(s.store, s.sender, 5*time.Minute, WithLogger(slog.Default()))
	s.verifier = NewStoreVerifier(s.store)
	s.ctx = context.Background()
}

func (s *OTPSuite) issuedCode() string {
	s.Require().NotEmpty(s.sender.messages)
	code := codePattern.FindString(s.sender.messages[len(s.sender.messages)-1])
	s.Require().Len(code, 4)
	return code
}

func (s *OTPSuite) TestIssueAndVerify() {
	masked, err := s.issuer.Issue(s.ctx, "234567890123")
	s.Require().NoError(err)
	s.Equal("******8923", masked)

	s.Run("correct code verifies exactly once", func() {
		code := s.issuedCode()
		s.Require().NoError(s.verifier.Verify(s.ctx, "234567890123", code))

		// Replay is rejected: the record was consumed.
		err := s.verifier.Verify(s.ctx, "234567890123", code)
		s.Require().Error(err)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *OTPSuite) TestVerifyMismatch() {
	_, err := s.issuer.Issue(s.ctx, "234567890123")
	s.Require().NoError(err)

	code := s.issuedCode()
	wrong := "0000"
	if wrong == code {
		wrong = "0001"
	}

	err = s.verifier.Verify(s.ctx, "234567890123", wrong)
	s.Require().Error(err)
	s.ErrorIs(err, models.ErrOTPMismatch)

	// The record survives a mismatch so the user can retry.
	s.Require().NoError(s.verifier.Verify(s.ctx, "234567890123", code))
}

func (s *OTPSuite) TestVerifyWithoutIssue() {
	err := s.verifier.Verify(s.ctx, "234567890123", "1234")
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *OTPSuite) TestVerifyExpiredCode() {
	issuedAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, issuedAt)

	_, err := s.issuer.Issue(ctx, "234567890123")
	s.Require().NoError(err)
	code := s.issuedCode()

	late := requestcontext.WithTime(s.ctx, issuedAt.Add(6*time.Minute))
	err = s.verifier.Verify(late, "234567890123", code)
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrExpired)
}

func (s *OTPSuite) TestDispatchFailure() {
	s.sender.fail = true

	_, err := s.issuer.Issue(s.ctx, "234567890123")
	s.Require().Error(err)
	s.ErrorIs(err, models.ErrOTPDispatch)

	// Nothing was stored for the failed dispatch.
	_, err = s.store.Get(s.ctx, "234567890123")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *OTPSuite) TestEachIssueGeneratesFreshCode() {
	_, err := s.issuer.Issue(s.ctx, "234567890123")
	s.Require().NoError(err)
	first := s.issuedCode()

	_, err = s.issuer.Issue(s.ctx, "234567890123")
	s.Require().NoError(err)
	second := s.issuedCode()

	// The second issue replaces the first record; only the new code verifies.
	if first != second {
		err = s.verifier.Verify(s.ctx, "234567890123", first)
		s.Require().Error(err)
	}
	s.Require().NoError(s.verifier.Verify(s.ctx, "234567890123", second))
}

func TestStaticVerifier(t *testing.T) {
	v := NewStatic("1234")
	ctx := context.Background()

	if err := v.Verify(ctx, "any", "1234"); err != nil {
		t.Fatalf("expected demo code to verify, got %v", err)
	}
	if err := v.Verify(ctx, "any", "4321"); !errors.Is(err, models.ErrOTPMismatch) {
		t.Fatalf("expected mismatch error, got %v", err)
	}
	if err := v.Verify(ctx, "any", ""); !errors.Is(err, models.ErrOTPMismatch) {
		t.Fatalf("expected mismatch for empty code, got %v", err)
	}
}
