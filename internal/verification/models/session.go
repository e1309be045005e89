// Package models defines the verification session value object and its state
// machine vocabulary. The session is the single source of truth for what the
// client may do next; all transition rules live in the service layer, while
// validity predicates and reset semantics live here so they stay independently
// testable.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is the closed set of verification workflow states.
type State string

const (
	// StateIdle: no document processed yet, or a previous attempt was reset.
	StateIdle State = "IDLE"
	// StateScanning: an OCR extraction is in flight for this session.
	StateScanning State = "SCANNING"
	// StateReview: the classifier accepted the document; awaiting user confirmation.
	StateReview State = "REVIEW"
	// StateOTP: an OTP was dispatched; awaiting the user's code.
	StateOTP State = "OTP"
	// StateVerified: terminal success state. The listing gate opens only here.
	StateVerified State = "VERIFIED"
)

// Valid reports whether s is a member of the closed state set.
func (s State) Valid() bool {
	switch s {
	case StateIdle, StateScanning, StateReview, StateOTP, StateVerified:
		return true
	}
	return false
}

func (s State) String() string { return string(s) }

// Session represents one user's attempt to verify identity for one listing
// submission. Sessions are ephemeral: they are created when the listing form
// opens and reset on submission or abandonment. There is no durability
// requirement; re-verification is expected after an interruption.
type Session struct {
	ID     uuid.UUID `json:"id"`
	UserID string    `json:"user_id"`
	State  State     `json:"state"`

	// InFlight guards against concurrent transitions from rapid double-taps.
	// Exactly one mutating operation may hold it at a time.
	InFlight bool `json:"-"`

	// DocumentRef points at the uploaded document image. Owned by the
	// session; discarded on reset.
	DocumentRef string `json:"document_ref,omitempty"`

	// ExtractedText is the raw OCR output, empty before scanning.
	ExtractedText string `json:"-"`

	// Confidence is the OCR score in [0,100], meaningful only after extraction.
	Confidence float64 `json:"confidence,omitempty"`

	// IDFragment is the masked fragment derived by the classifier
	// (e.g. "xxxx-xxxx-9012"). Cosmetic confirmation data only; never an
	// authoritative identity credential.
	IDFragment string `json:"id_fragment,omitempty"`

	// MobileMasked is the display-only masked phone string. The full number
	// never reaches this service.
	MobileMasked string `json:"mobile_masked,omitempty"`

	// AadhaarRef is the identifier used for OTP dispatch. Held only while the
	// session is live, cleared on reset.
	AadhaarRef string `json:"-"`

	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Version supports optimistic concurrency in shared stores.
	Version int64 `json:"-"`
}

// NewSession creates a fresh IDLE session for the given user.
func NewSession(id uuid.UUID, userID string, now time.Time) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		State:     StateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanSubmitListing reports whether the listing-submission gate is open.
// True iff the last successful transition was OTP -> VERIFIED and no reset
// has occurred since.
func (s *Session) CanSubmitListing() bool {
	return s.State == StateVerified
}

// ApplyReset returns the session to IDLE and clears all derived fields.
// Invoking it from any state is legal and idempotent.
func (s *Session) ApplyReset(now time.Time) {
	s.State = StateIdle
	s.InFlight = false
	s.DocumentRef = ""
	s.ExtractedText = ""
	s.Confidence = 0
	s.IDFragment = ""
	s.MobileMasked = ""
	s.AadhaarRef = ""
	s.VerifiedAt = nil
	s.UpdatedAt = now
}

// VerifiedIdentitySummary is the masked, display-safe summary attached to the
// outbound listing payload once verification succeeds. It carries the masked
// fragment and a signed token, never the underlying ID number.
type VerifiedIdentitySummary struct {
	SessionID  uuid.UUID `json:"session_id"`
	IDFragment string    `json:"id_fragment"`
	VerifiedAt time.Time `json:"verified_at"`
	Token      string    `json:"token"`
}

// MaskMobile renders a display-safe masked phone string ("******8923").
func MaskMobile(number string) string {
	if len(number) < 4 {
		return "****"
	}
	return "******" + number[len(number)-4:]
}

// MaskID renders a display-safe masked identifier keeping the last 4 digits.
func MaskID(idNumber string) string {
	if len(idNumber) < 4 {
		return "****"
	}
	return strings.Repeat("*", len(idNumber)-4) + idNumber[len(idNumber)-4:]
}
