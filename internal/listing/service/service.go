// Package service owns listing submission. The verification gate is enforced
// here and fails closed: no listing is ever created unless the linked session
// is currently VERIFIED, and any doubt (gate error, missing session) blocks
// the submission.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"veristay/internal/audit"
	listingmodels "veristay/internal/listing/models"
	"veristay/internal/listing/store"
	"veristay/internal/platform/metrics"
	verificationmodels "veristay/internal/verification/models"
	dErrors "veristay/pkg/domain-errors"
	"veristay/pkg/requestcontext"
)

// Gate is the verification service surface the listing flow depends on.
type Gate interface {
	CanSubmitListing(ctx context.Context, sessionID uuid.UUID) (bool, error)
	Summary(ctx context.Context, sessionID uuid.UUID) (*verificationmodels.VerifiedIdentitySummary, error)
}

// Service creates listings behind the verification gate.
type Service struct {
	listings store.Store
	gate     Gate
	emitter  *audit.Emitter
	metrics  *metrics.Metrics
	logger   *slog.Logger
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

// New constructs the listing service.
func New(listings store.Store, gate Gate, opts ...Option) *Service {
	s := &Service{listings: listings, gate: gate, logger: slog.Default()}
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

// Create validates the input, checks the gate, and persists the listing with
// the verified identity summary attached.
func (s *Service) Create(ctx context.Context, in listingmodels.CreateInput) (*listingmodels.Listing, error) {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeForbidden, "user identity required")
	}
	if err := in.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, err.Error())
	}

	ok, err := s.gate.CanSubmitListing(ctx, in.SessionID)
	if err != nil || !ok {
		s.metrics.IncListingsBlocked()
		s.emit(ctx, audit.ActionListingBlocked, in.SessionID.String(), "identity not verified")
		s.logger.WarnContext(ctx, "listing submission blocked", "session_id", in.SessionID, "error", err)
		if err != nil {
			return nil, err
		}
		return nil, dErrors.Wrap(verificationmodels.ErrNotVerified, dErrors.CodeForbidden, "verify your identity before submitting a listing")
	}

	summary, err := s.gate.Summary(ctx, in.SessionID)
	if err != nil {
		s.metrics.IncListingsBlocked()
		s.emit(ctx, audit.ActionListingBlocked, in.SessionID.String(), "summary unavailable")
		return nil, err
	}

	listing := &listingmodels.Listing{
		ID:                    uuid.New(),
		UserID:                userID,
		Title:                 in.Title,
		Description:           in.Description,
		PropertyType:          in.PropertyType,
		City:                  in.City,
		Address:               in.Address,
		PriceMonthly:          in.PriceMonthly,
		PhotoURLs:             in.PhotoURLs,
		VerificationSessionID: summary.SessionID,
		IDFragment:            summary.IDFragment,
		IdentityToken:         summary.Token,
		CreatedAt:             requestcontext.Now(ctx),
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create listing")
	}

	s.metrics.IncListingsCreated()
	s.emit(ctx, audit.ActionListingCreated, summary.SessionID.String(), "",
		audit.String("listing_id", listing.ID.String()))
	s.logger.InfoContext(ctx, "listing created", "listing_id", listing.ID, "city", listing.City)
	return listing, nil
}

// Get returns the caller's listing. Other users' listings read as not found.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*listingmodels.Listing, error) {
	listing, err := s.listings.Get(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "listing not found")
	}
	if listing.UserID != requestcontext.UserID(ctx) {
		return nil, dErrors.New(dErrors.CodeNotFound, "listing not found")
	}
	return listing, nil
}

// ListMine returns the caller's listings.
func (s *Service) ListMine(ctx context.Context) ([]listingmodels.Listing, error) {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeForbidden, "user identity required")
	}
	listings, err := s.listings.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list listings")
	}
	return listings, nil
}
