// Package audit records the security-relevant actions of the verification
// workflow. Emission is fire-and-forget through a bounded ring buffer; a
// background worker drains the buffer into sinks (memory, Kafka). A slow or
// down sink must never stall a verification request.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actions recorded by the verification and listing services.
const (
	ActionSessionStarted   = "verification.session.started"
	ActionDocumentAccepted = "verification.document.accepted"
	ActionDocumentRejected = "verification.document.rejected"
	ActionOTPSent          = "verification.otp.sent"
	ActionOTPMismatch      = "verification.otp.mismatch"
	ActionLockout          = "verification.otp.lockout"
	ActionVerified         = "verification.identity.verified"
	ActionSessionReset     = "verification.session.reset"
	ActionSessionCancelled = "verification.session.cancelled"
	ActionListingCreated   = "listing.created"
	ActionListingBlocked   = "listing.blocked"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Action    string            `json:"action"`
	UserID    string            `json:"user_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Device    string            `json:"device,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Store is an append-only sink for drained events.
type Store interface {
	Append(ctx context.Context, events []Event) error
}
