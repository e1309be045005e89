package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veristay/internal/platform/metrics"
	"veristay/internal/platform/middleware"
)

func TestLatencyRecordsRoutePattern(t *testing.T) {
	m := metrics.New()

	r := chi.NewRouter()
	r.Use(middleware.Latency(m))
	r.Get("/verification/sessions/{sessionID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Two different session IDs must land in the same series; one series per
	// UUID would grow the histogram without bound.
	r.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/verification/sessions/"+uuid.NewString(), nil))
	r.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/verification/sessions/"+uuid.NewString(), nil))

	routes := latencyRouteLabels(t)
	require.Len(t, routes, 1)
	assert.Equal(t, "/verification/sessions/{sessionID}", routes[0])
}

func TestLatencyWithoutMetrics(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middleware.Latency(nil))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func latencyRouteLabels(t *testing.T) []string {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	var routes []string
	for _, mf := range families {
		if mf.GetName() != "veristay_http_request_latency_seconds" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "route" {
					routes = append(routes, label.GetValue())
				}
			}
		}
	}
	return routes
}
