// Package httptransport mounts the HTTP API. Authentication is delegated to
// the application shell: requests arrive with X-User-ID already resolved, and
// this layer only propagates it. Everything else — request IDs, client
// metadata, request-scoped time, timeouts, latency metrics — is middleware.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"veristay/internal/platform/metrics"
	"veristay/internal/platform/middleware"
	dErrors "veristay/pkg/domain-errors"
	"veristay/pkg/platform/httputil"
	"veristay/pkg/platform/middleware/metadata"
	"veristay/pkg/platform/middleware/requesttime"
	"veristay/pkg/requestcontext"
)

// Dependencies carries everything the router needs.
type Dependencies struct {
	Verification VerificationService
	Uploads      UploadStore
	Listings     ListingService
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	// RequestTimeout bounds each request end to end, including OCR and OTP
	// provider calls.
	RequestTimeout time.Duration
	// Health reports readiness of backing stores; nil means always healthy.
	Health func() error
}

// NewRouter builds the chi router with the full middleware chain.
func NewRouter(deps Dependencies) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(deps.Metrics))
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", handleHealth(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	verification := NewVerificationHandler(deps.Verification, deps.Uploads, logger)
	listings := NewListingHandler(deps.Listings, logger)

	r.Group(func(r chi.Router) {
		r.Use(RequireUser)
		verification.Register(r)
		listings.Register(r)
	})

	return r
}

// RequireUser propagates the shell-authenticated user and rejects anonymous
// requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "user identity required"))
			return
		}
		ctx := requestcontext.WithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func handleHealth(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
					"error":  err.Error(),
				})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
