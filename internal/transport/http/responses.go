package httptransport

import (
	"time"

	listingmodels "veristay/internal/listing/models"
	"veristay/internal/verification/models"
)

// sessionResponse is the wire shape for a verification session. Extracted
// text and the raw ID number never leave the service; only masked display
// fields are serialized.
type sessionResponse struct {
	ID               string     `json:"id"`
	State            string     `json:"state"`
	DocumentRef      string     `json:"document_ref,omitempty"`
	Confidence       float64    `json:"confidence,omitempty"`
	IDFragment       string     `json:"id_fragment,omitempty"`
	MobileMasked     string     `json:"mobile_masked,omitempty"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
	CanSubmitListing bool       `json:"can_submit_listing"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toSessionResponse(s *models.Session) sessionResponse {
	return sessionResponse{
		ID:               s.ID.String(),
		State:            s.State.String(),
		DocumentRef:      s.DocumentRef,
		Confidence:       s.Confidence,
		IDFragment:       s.IDFragment,
		MobileMasked:     s.MobileMasked,
		VerifiedAt:       s.VerifiedAt,
		CanSubmitListing: s.CanSubmitListing(),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

// listingResponse is the wire shape for a listing. The identity token is
// stored, not served.
type listingResponse struct {
	ID                    string    `json:"id"`
	Title                 string    `json:"title"`
	Description           string    `json:"description,omitempty"`
	PropertyType          string    `json:"property_type"`
	City                  string    `json:"city"`
	Address               string    `json:"address,omitempty"`
	PriceMonthly          int64     `json:"price_monthly"`
	PhotoURLs             []string  `json:"photo_urls,omitempty"`
	VerificationSessionID string    `json:"verification_session_id"`
	IDFragment            string    `json:"id_fragment"`
	CreatedAt             time.Time `json:"created_at"`
}

func toListingResponse(l *listingmodels.Listing) listingResponse {
	return listingResponse{
		ID:                    l.ID.String(),
		Title:                 l.Title,
		Description:           l.Description,
		PropertyType:          l.PropertyType,
		City:                  l.City,
		Address:               l.Address,
		PriceMonthly:          l.PriceMonthly,
		PhotoURLs:             l.PhotoURLs,
		VerificationSessionID: l.VerificationSessionID.String(),
		IDFragment:            l.IDFragment,
		CreatedAt:             l.CreatedAt,
	}
}
