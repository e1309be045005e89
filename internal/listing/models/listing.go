// Package models defines the property listing submitted once the owner's
// identity is verified.
package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Listing is one property offered by a verified owner. The identity fields
// are the masked summary captured at submission time, never raw ID data.
type Listing struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	PropertyType string    `json:"property_type"`
	City         string    `json:"city"`
	Address      string    `json:"address,omitempty"`
	// PriceMonthly is the asking rent in whole rupees.
	PriceMonthly int64 `json:"price_monthly"`
	// PhotoURLs reference images already pushed through the upload endpoint.
	PhotoURLs []string `json:"photo_urls,omitempty"`

	// VerificationSessionID links back to the session that opened the gate.
	VerificationSessionID uuid.UUID `json:"verification_session_id"`
	// IDFragment is the masked identity fragment shown alongside the listing.
	IDFragment string `json:"id_fragment"`
	// IdentityToken is the signed proof attached for downstream consumers.
	// Stored, not displayed.
	IdentityToken string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// CreateInput is what the owner supplies; identity fields are filled in by
// the service from the verified session.
type CreateInput struct {
	SessionID    uuid.UUID
	Title        string
	Description  string
	PropertyType string
	City         string
	Address      string
	PriceMonthly int64
	PhotoURLs    []string
}

const maxPhotos = 10

var propertyTypes = map[string]bool{
	"apartment": true,
	"house":     true,
	"villa":     true,
	"room":      true,
	"plot":      true,
}

// Validate checks field shape only; the verification gate is the service's
// concern.
func (in CreateInput) Validate() error {
	if in.SessionID == uuid.Nil {
		return errors.New("session_id is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("title is required")
	}
	if len(in.Title) > 200 {
		return errors.New("title must be at most 200 characters")
	}
	if !propertyTypes[in.PropertyType] {
		return errors.New("property_type must be one of apartment, house, villa, room, plot")
	}
	if strings.TrimSpace(in.City) == "" {
		return errors.New("city is required")
	}
	if in.PriceMonthly <= 0 {
		return errors.New("price_monthly must be positive")
	}
	if len(in.PhotoURLs) > maxPhotos {
		return errors.New("at most 10 photos per listing")
	}
	for _, u := range in.PhotoURLs {
		if strings.TrimSpace(u) == "" {
			return errors.New("photo_urls must not contain blank entries")
		}
	}
	return nil
}
