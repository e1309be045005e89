// Package service orchestrates the identity verification state machine:
// IDLE -> SCANNING -> REVIEW -> OTP -> VERIFIED. Transitions are applied
// atomically through the session store's Execute callback, and the session's
// in-flight flag rejects concurrent mutations so a double-tap cannot run two
// extractions or dispatch two codes for the same session.
package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"veristay/internal/audit"
	"veristay/internal/platform/metrics"
	"veristay/internal/platform/token"
	"veristay/internal/verification/classifier"
	"veristay/internal/verification/lockout"
	"veristay/internal/verification/models"
	"veristay/internal/verification/ocr"
	"veristay/internal/verification/otp"
	"veristay/internal/verification/store"
	dErrors "veristay/pkg/domain-errors"
	"veristay/pkg/platform/sentinel"
	"veristay/pkg/requestcontext"
)

// aadhaarPattern is the published format: 12 digits, first digit 2-9.
var aadhaarPattern = regexp.MustCompile(`^[2-9][0-9]{11}$`)

// Issuer dispatches a one-time code for an identifier and returns the masked
// mobile hint. Satisfied by otp.Issuer.
type Issuer interface {
	Issue(ctx context.Context, identifier string) (string, error)
}

// Service implements the verification workflow.
type Service struct {
	sessions  store.SessionStore
	extractor ocr.Extractor
	issuer    Issuer
	verifier  otp.Verifier
	lockout   *lockout.Service
	tokens    *token.Signer

	classifierCfg classifier.Config
	emitter       *audit.Emitter
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	logger        *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditEmitter attaches the audit emitter.
func WithAuditEmitter(e *audit.Emitter) Option {
	return func(s *Service) { s.emitter = e }
}

// WithClassifierConfig overrides the default keyword heuristic.
func WithClassifierConfig(cfg classifier.Config) Option {
	return func(s *Service) { s.classifierCfg = cfg }
}

// New constructs the verification service.
func New(
	sessions store.SessionStore,
	extractor ocr.Extractor,
	issuer Issuer,
	verifier otp.Verifier,
	lockoutSvc *lockout.Service,
	tokens *token.Signer,
	opts ...Option,
) *Service {
	s := &Service{
		sessions:      sessions,
		extractor:     extractor,
		issuer:        issuer,
		verifier:      verifier,
		lockout:       lockoutSvc,
		tokens:        tokens,
		classifierCfg: classifier.DefaultConfig(),
		tracer:        otel.Tracer("veristay/verification"),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emit(ctx context.Context, action, sessionID, reason string, fields ...audit.Field) {
	if s.emitter != nil {
		s.emitter.Emit(ctx, action, sessionID, reason, fields...)
	}
}

// Start opens a fresh IDLE session for the acting user.
func (s *Service) Start(ctx context.Context) (*models.Session, error) {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeForbidden, "user identity required")
	}

	session := models.NewSession(uuid.New(), userID, requestcontext.Now(ctx))
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}

	s.metrics.IncSessionsStarted()
	s.emit(ctx, audit.ActionSessionStarted, session.ID.String(), "")
	s.logger.InfoContext(ctx, "verification session started", "session_id", session.ID)
	return session, nil
}

// Get returns the caller's session. Other users' sessions read as not found.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "session not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if session.UserID != requestcontext.UserID(ctx) {
		return nil, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "session not found")
	}
	return session, nil
}

// acquire transitions the session into an in-flight mutation if fromStates
// allows it. Exactly one caller can win; everyone else gets a conflict.
func (s *Service) acquire(ctx context.Context, id uuid.UUID, fromStates ...models.State) (*models.Session, error) {
	userID := requestcontext.UserID(ctx)
	session, err := s.sessions.Execute(ctx, id, func(sess *models.Session) error {
		if sess.UserID != userID {
			return sentinel.ErrNotFound
		}
		if sess.InFlight {
			return sentinel.ErrConflict
		}
		for _, from := range fromStates {
			if sess.State == from {
				sess.InFlight = true
				sess.UpdatedAt = requestcontext.Now(ctx)
				return nil
			}
		}
		return sentinel.ErrInvalidState
	})
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "session not found")
	case errors.Is(err, sentinel.ErrConflict):
		return nil, dErrors.Wrap(err, dErrors.CodeConflict, "another operation is in progress")
	case errors.Is(err, sentinel.ErrInvalidState):
		return nil, dErrors.Wrap(err, dErrors.CodeConflict, "operation not allowed in current state")
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update session")
	}
	return session, nil
}

// release applies mutate and drops the in-flight flag in one write.
func (s *Service) release(ctx context.Context, id uuid.UUID, mutate func(*models.Session)) (*models.Session, error) {
	session, err := s.sessions.Execute(ctx, id, func(sess *models.Session) error {
		if mutate != nil {
			mutate(sess)
		}
		sess.InFlight = false
		sess.UpdatedAt = requestcontext.Now(ctx)
		return nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update session")
	}
	return session, nil
}

// SubmitDocument runs extraction and classification for a captured document
// image. On accept the session lands in REVIEW carrying the derived display
// fields; on reject or extraction failure it returns to IDLE so the user can
// recapture.
func (s *Service) SubmitDocument(ctx context.Context, id uuid.UUID, image []byte, filename string) (*models.Session, error) {
	ctx, span := s.tracer.Start(ctx, "verification.submit_document",
		trace.WithAttributes(attribute.String("session.id", id.String())))
	defer span.End()

	if len(image) == 0 {
		return nil, dErrors.Wrap(models.ErrNoDocument, dErrors.CodeBadRequest, "document image is required")
	}

	// Recapture from REVIEW is allowed; once a code is out the document is
	// settled.
	session, err := s.acquire(ctx, id, models.StateIdle, models.StateReview)
	if err != nil {
		return nil, err
	}

	// SCANNING keeps the in-flight guard held until extraction settles.
	_, err = s.sessions.Execute(ctx, id, func(sess *models.Session) error {
		sess.State = models.StateScanning
		sess.DocumentRef = filename
		sess.UpdatedAt = requestcontext.Now(ctx)
		return nil
	})
	if err != nil {
		// Drop the guard acquired above or the session stays stuck rejecting
		// mutations until an explicit reset.
		if _, rerr := s.release(ctx, id, nil); rerr != nil {
			s.logger.ErrorContext(ctx, "failed to release session guard", "session_id", id, "error", rerr)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update session")
	}

	s.metrics.IncDocumentsScanned()
	started := time.Now()
	extracted, err := s.extractor.Extract(ctx, image, filename)
	s.metrics.ObserveOCRLatency(time.Since(started))
	if err != nil {
		s.logger.ErrorContext(ctx, "document extraction failed", "session_id", id, "error", err)
		if _, rerr := s.release(ctx, id, func(sess *models.Session) {
			sess.ApplyReset(requestcontext.Now(ctx))
		}); rerr != nil {
			return nil, rerr
		}
		if dErrors.HasCode(err, dErrors.CodeUnavailable) {
			return nil, err
		}
		return nil, dErrors.Wrap(models.ErrExtraction, dErrors.CodeUnavailable, "could not read the document, please try again")
	}

	verdict := classifier.Classify(extracted.Text, s.classifierCfg)
	if !verdict.Accepted {
		s.metrics.IncClassifierRejected(string(verdict.Reason))
		s.emit(ctx, audit.ActionDocumentRejected, session.ID.String(), string(verdict.Reason))
		// Returning to IDLE clears every derived field so a rejected rescan
		// cannot surface the previous document's data.
		if _, rerr := s.release(ctx, id, func(sess *models.Session) {
			sess.ApplyReset(requestcontext.Now(ctx))
		}); rerr != nil {
			return nil, rerr
		}
		return nil, dErrors.Wrap(models.ErrClassificationRejected, dErrors.CodeBadRequest, verdict.Reason.Message())
	}

	updated, err := s.release(ctx, id, func(sess *models.Session) {
		sess.State = models.StateReview
		sess.ExtractedText = extracted.Text
		sess.Confidence = extracted.Confidence
		sess.IDFragment = verdict.IDFragment
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncClassifierAccepted()
	s.emit(ctx, audit.ActionDocumentAccepted, session.ID.String(), "",
		audit.String("id_fragment", verdict.IDFragment))
	s.logger.InfoContext(ctx, "document accepted", "session_id", id,
		"confidence", extracted.Confidence, "id_fragment", verdict.IDFragment)
	return updated, nil
}

// Confirm accepts the user's typed ID number and dispatches a one-time code,
// moving the session to OTP. Calling it again from OTP re-dispatches a fresh
// code, bounded by the resend budget.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, aadhaarNumber string) (*models.Session, error) {
	ctx, span := s.tracer.Start(ctx, "verification.confirm",
		trace.WithAttributes(attribute.String("session.id", id.String())))
	defer span.End()

	if !aadhaarPattern.MatchString(aadhaarNumber) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid aadhaar number")
	}

	session, err := s.acquire(ctx, id, models.StateReview, models.StateOTP)
	if err != nil {
		return nil, err
	}

	if err := s.lockout.AllowResend(ctx, session.ID.String()); err != nil {
		if _, rerr := s.release(ctx, id, nil); rerr != nil {
			return nil, rerr
		}
		return nil, err
	}

	masked, err := s.issuer.Issue(ctx, aadhaarNumber)
	if err != nil {
		s.logger.ErrorContext(ctx, "otp dispatch failed", "session_id", id, "error", err)
		if _, rerr := s.release(ctx, id, nil); rerr != nil {
			return nil, rerr
		}
		return nil, err
	}

	updated, err := s.release(ctx, id, func(sess *models.Session) {
		sess.State = models.StateOTP
		sess.AadhaarRef = aadhaarNumber
		sess.MobileMasked = masked
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOTPSent()
	s.emit(ctx, audit.ActionOTPSent, session.ID.String(), "",
		audit.String("mobile_masked", masked))
	s.logger.InfoContext(ctx, "otp dispatched", "session_id", id, "mobile_masked", masked)
	return updated, nil
}

// VerifyCode confirms the one-time code. Success is terminal: the session
// reaches VERIFIED and the listing gate opens. A mismatch leaves the session
// in OTP and burns one attempt from the lockout budget.
func (s *Service) VerifyCode(ctx context.Context, id uuid.UUID, code string) (*models.Session, error) {
	ctx, span := s.tracer.Start(ctx, "verification.verify_code",
		trace.WithAttributes(attribute.String("session.id", id.String())))
	defer span.End()

	session, err := s.acquire(ctx, id, models.StateOTP)
	if err != nil {
		return nil, err
	}

	if err := s.lockout.CheckAttempt(ctx, session.ID.String()); err != nil {
		if _, rerr := s.release(ctx, id, nil); rerr != nil {
			return nil, rerr
		}
		return nil, err
	}

	if err := s.verifier.Verify(ctx, session.AadhaarRef, code); err != nil {
		if _, rerr := s.release(ctx, id, nil); rerr != nil {
			return nil, rerr
		}
		if errors.Is(err, models.ErrOTPMismatch) {
			s.metrics.IncOTPMismatches()
			s.emit(ctx, audit.ActionOTPMismatch, session.ID.String(), "wrong code")
			locked, lerr := s.lockout.RecordFailure(ctx, session.ID.String())
			if lerr != nil {
				return nil, lerr
			}
			if locked {
				s.metrics.IncOTPLockouts()
				s.emit(ctx, audit.ActionLockout, session.ID.String(), "attempt budget exhausted")
				return nil, dErrors.Wrap(sentinel.ErrTooManyAttempts, dErrors.CodeRateLimited, "too many attempts, please resend later")
			}
		}
		return nil, err
	}

	now := requestcontext.Now(ctx)
	updated, err := s.release(ctx, id, func(sess *models.Session) {
		sess.State = models.StateVerified
		sess.VerifiedAt = &now
	})
	if err != nil {
		return nil, err
	}

	if err := s.lockout.Clear(ctx, session.ID.String()); err != nil {
		s.logger.WarnContext(ctx, "failed to clear lockout state", "session_id", id, "error", err)
	}

	s.metrics.IncIdentitiesVerified()
	s.emit(ctx, audit.ActionVerified, session.ID.String(), "",
		audit.String("id_fragment", updated.IDFragment))
	s.logger.InfoContext(ctx, "identity verified", "session_id", id)
	return updated, nil
}

// Reset returns the session to IDLE from any state, clearing every derived
// field. The lockout budget survives a reset so cycling sessions does not
// buy extra OTP attempts.
func (s *Service) Reset(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	userID := requestcontext.UserID(ctx)
	now := requestcontext.Now(ctx)
	session, err := s.sessions.Execute(ctx, id, func(sess *models.Session) error {
		if sess.UserID != userID {
			return sentinel.ErrNotFound
		}
		sess.ApplyReset(now)
		return nil
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "session not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset session")
	}

	s.metrics.IncSessionsReset()
	s.emit(ctx, audit.ActionSessionReset, session.ID.String(), "")
	return session, nil
}

// Cancel abandons the session entirely.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete session")
	}
	s.emit(ctx, audit.ActionSessionCancelled, id.String(), "")
	return nil
}

// CanSubmitListing reports whether the listing gate is open for the session.
func (s *Service) CanSubmitListing(ctx context.Context, id uuid.UUID) (bool, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return session.CanSubmitListing(), nil
}

// Summary returns the display-safe verified identity payload for a VERIFIED
// session, including the signed token downstream services check.
func (s *Service) Summary(ctx context.Context, id uuid.UUID) (*models.VerifiedIdentitySummary, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.CanSubmitListing() || session.VerifiedAt == nil {
		return nil, dErrors.Wrap(models.ErrNotVerified, dErrors.CodeForbidden, "identity not verified")
	}

	signed, err := s.tokens.Issue(session.ID, session.UserID, session.IDFragment, *session.VerifiedAt)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign identity token")
	}

	return &models.VerifiedIdentitySummary{
		SessionID:  session.ID,
		IDFragment: session.IDFragment,
		VerifiedAt: *session.VerifiedAt,
		Token:      signed,
	}, nil
}
