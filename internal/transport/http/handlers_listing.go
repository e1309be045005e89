package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	listingmodels "veristay/internal/listing/models"
	dErrors "veristay/pkg/domain-errors"
	"veristay/pkg/platform/httputil"
)

// ListingService is the listing surface the handler depends on.
type ListingService interface {
	Create(ctx context.Context, in listingmodels.CreateInput) (*listingmodels.Listing, error)
	Get(ctx context.Context, id uuid.UUID) (*listingmodels.Listing, error)
	ListMine(ctx context.Context) ([]listingmodels.Listing, error)
}

// ListingHandler wires the listing endpoints to the service.
type ListingHandler struct {
	service ListingService
	logger  *slog.Logger
}

// NewListingHandler constructs the handler.
func NewListingHandler(service ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{service: service, logger: logger}
}

// Register mounts the listing endpoints.
func (h *ListingHandler) Register(r chi.Router) {
	r.Route("/listings", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleListMine)
		r.Get("/{listingID}", h.handleGet)
	})
}

func (h *ListingHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[createListingRequest](w, r)
	if !ok {
		return
	}

	sessionID, err := uuid.Parse(req.VerificationSessionID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid verification_session_id"))
		return
	}

	listing, err := h.service.Create(r.Context(), listingmodels.CreateInput{
		SessionID:    sessionID,
		Title:        req.Title,
		Description:  req.Description,
		PropertyType: req.PropertyType,
		City:         req.City,
		Address:      req.Address,
		PriceMonthly: req.PriceMonthly,
		PhotoURLs:    req.PhotoURLs,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toListingResponse(listing))
}

func (h *ListingHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "listingID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid listing id"))
		return
	}
	listing, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListingResponse(listing))
}

func (h *ListingHandler) handleListMine(w http.ResponseWriter, r *http.Request) {
	listings, err := h.service.ListMine(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]listingResponse, 0, len(listings))
	for i := range listings {
		out = append(out, toListingResponse(&listings[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"listings": out})
}

type createListingRequest struct {
	VerificationSessionID string   `json:"verification_session_id"`
	Title                 string   `json:"title"`
	Description           string   `json:"description"`
	PropertyType          string   `json:"property_type"`
	City                  string   `json:"city"`
	Address               string   `json:"address"`
	PriceMonthly          int64    `json:"price_monthly"`
	PhotoURLs             []string `json:"photo_urls"`
}
