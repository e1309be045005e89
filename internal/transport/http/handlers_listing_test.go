package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	listingmodels "veristay/internal/listing/models"
	"veristay/internal/transport/http/mocks"
	dErrors "veristay/pkg/domain-errors"
)

//go:generate mockgen -source=handlers_listing.go -destination=mocks/listing-mocks.go -package=mocks
type ListingHandlerSuite struct {
	suite.Suite
}

func (s *ListingHandlerSuite) TestHandler_Create() {
	sessionID := uuid.New()
	validBody := `{
		"verification_session_id": "` + sessionID.String() + `",
		"title": "2BHK near the lake",
		"property_type": "apartment",
		"city": "Bengaluru",
		"price_monthly": 32000
	}`

	s.T().Run("creates a listing with identity attached - 201", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		created := &listingmodels.Listing{
			ID:                    uuid.New(),
			UserID:                testUserID,
			Title:                 "2BHK near the lake",
			PropertyType:          "apartment",
			City:                  "Bengaluru",
			PriceMonthly:          32000,
			VerificationSessionID: sessionID,
			IDFragment:            "xxxx-xxxx-9012",
			CreatedAt:             time.Now().UTC(),
		}
		mockService.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, in listingmodels.CreateInput) (*listingmodels.Listing, error) {
				assert.Equal(t, sessionID, in.SessionID)
				assert.Equal(t, "2BHK near the lake", in.Title)
				assert.Equal(t, "apartment", in.PropertyType)
				assert.Equal(t, "Bengaluru", in.City)
				assert.Equal(t, int64(32000), in.PriceMonthly)
				return created, nil
			})

		status, got, errBody := s.doRequest(t, router, http.MethodPost, "/listings", validBody)

		assert.Equal(t, http.StatusCreated, status)
		require.NotNil(t, got)
		assert.Nil(t, errBody)
		assert.Equal(t, created.ID.String(), got.ID)
		assert.Equal(t, "xxxx-xxxx-9012", got.IDFragment)
		assert.Equal(t, sessionID.String(), got.VerificationSessionID)
	})

	s.T().Run("rejects a malformed session id - 400", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		body := `{"verification_session_id":"nope","title":"x","property_type":"apartment","city":"Pune","price_monthly":1}`
		status, got, errBody := s.doRequest(t, router, http.MethodPost, "/listings", body)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Nil(t, got)
		assert.Equal(t, string(dErrors.CodeBadRequest), errBody["error"])
	})

	s.T().Run("rejects invalid json - 400", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		status, got, errBody := s.doRequest(t, router, http.MethodPost, "/listings", "{bad-json")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Nil(t, got)
		assert.Equal(t, string(dErrors.CodeBadRequest), errBody["error"])
	})

	s.T().Run("blocked when identity is not verified - 403", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "verify your identity before submitting a listing"))

		status, got, errBody := s.doRequest(t, router, http.MethodPost, "/listings", validBody)

		assert.Equal(t, http.StatusForbidden, status)
		assert.Nil(t, got)
		assert.Equal(t, string(dErrors.CodeForbidden), errBody["error"])
		assert.Contains(t, errBody["error_description"], "verify your identity")
	})

	s.T().Run("rejects anonymous requests - 403", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		req := httptest.NewRequest(http.MethodPost, "/listings", strings.NewReader(validBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func (s *ListingHandlerSuite) TestHandler_Get() {
	s.T().Run("returns the listing - 200", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		listing := &listingmodels.Listing{
			ID:                    uuid.New(),
			UserID:                testUserID,
			Title:                 "Studio",
			PropertyType:          "room",
			City:                  "Mumbai",
			PriceMonthly:          18000,
			VerificationSessionID: uuid.New(),
			IDFragment:            "xxxx-xxxx-4242",
			CreatedAt:             time.Now().UTC(),
		}
		mockService.EXPECT().Get(gomock.Any(), listing.ID).Return(listing, nil)

		status, got, errBody := s.doRequest(t, router, http.MethodGet, "/listings/"+listing.ID.String(), "")

		assert.Equal(t, http.StatusOK, status)
		require.NotNil(t, got)
		assert.Nil(t, errBody)
		assert.Equal(t, "Studio", got.Title)
	})

	s.T().Run("returns 404 for another user's listing", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		id := uuid.New()
		mockService.EXPECT().Get(gomock.Any(), id).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "listing not found"))

		status, got, errBody := s.doRequest(t, router, http.MethodGet, "/listings/"+id.String(), "")

		assert.Equal(t, http.StatusNotFound, status)
		assert.Nil(t, got)
		assert.Equal(t, string(dErrors.CodeNotFound), errBody["error"])
	})
}

func (s *ListingHandlerSuite) TestHandler_ListMine() {
	s.T().Run("returns the caller's listings - 200", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		listings := []listingmodels.Listing{
			{ID: uuid.New(), UserID: testUserID, Title: "First", PropertyType: "house", City: "Pune", PriceMonthly: 1, VerificationSessionID: uuid.New()},
			{ID: uuid.New(), UserID: testUserID, Title: "Second", PropertyType: "villa", City: "Goa", PriceMonthly: 2, VerificationSessionID: uuid.New()},
		}
		mockService.EXPECT().ListMine(gomock.Any()).Return(listings, nil)

		httpReq := httptest.NewRequest(http.MethodGet, "/listings", nil)
		httpReq.Header.Set("X-User-ID", testUserID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httpReq)

		assert.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			Listings []listingResponse `json:"listings"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Len(t, body.Listings, 2)
		assert.Equal(t, "First", body.Listings[0].Title)
		assert.Equal(t, "Second", body.Listings[1].Title)
	})

	s.T().Run("empty result serializes as an empty array", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().ListMine(gomock.Any()).Return(nil, nil)

		httpReq := httptest.NewRequest(http.MethodGet, "/listings", nil)
		httpReq.Header.Set("X-User-ID", testUserID)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httpReq)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"listings":[]`)
	})
}

func TestListingHandlerSuite(t *testing.T) {
	suite.Run(t, new(ListingHandlerSuite))
}

func (s *ListingHandlerSuite) newHandler(t *testing.T) (*mocks.MockListingService, *chi.Mux) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	mockService := mocks.NewMockListingService(ctrl)
	handler := NewListingHandler(mockService, logger)
	r := chi.NewRouter()
	r.Use(RequireUser)
	handler.Register(r)
	return mockService, r
}

func (s *ListingHandlerSuite) doRequest(t *testing.T, router *chi.Mux, method, path, body string) (int, *listingResponse, map[string]string) {
	t.Helper()
	httpReq := httptest.NewRequest(method, path, strings.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-User-ID", testUserID)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, httpReq)

	raw, err := io.ReadAll(rr.Body)
	require.NoError(t, err)

	if rr.Code >= 200 && rr.Code < 300 {
		var res listingResponse
		require.NoError(t, json.Unmarshal(raw, &res))
		return rr.Code, &res, nil
	}
	var errBody map[string]string
	require.NoError(t, json.Unmarshal(raw, &errBody))
	return rr.Code, nil, errBody
}
