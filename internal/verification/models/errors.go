package models

import "errors"

// Workflow error identities. Services wrap these with domain-error codes for
// transport mapping; callers test with errors.Is.
var (
	// ErrNoDocument: no document image attached to the session yet.
	ErrNoDocument = errors.New("no document captured")

	// ErrExtraction: the OCR call itself failed (network or provider).
	ErrExtraction = errors.New("document extraction failed")

	// ErrClassificationRejected: OCR succeeded but the text does not match the
	// expected document type.
	ErrClassificationRejected = errors.New("document classification rejected")

	// ErrOTPDispatch: the OTP request failed; the session stays where it was.
	ErrOTPDispatch = errors.New("otp dispatch failed")

	// ErrOTPMismatch: wrong code entered; the session remains in OTP.
	ErrOTPMismatch = errors.New("otp mismatch")

	// ErrNotVerified: listing submission attempted while the session is not
	// VERIFIED. Always fatal to the submit action, never bypassed.
	ErrNotVerified = errors.New("identity not verified")
)
