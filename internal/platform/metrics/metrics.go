// Package metrics holds the Prometheus instruments for the verification
// workflow. Everything is registered once via promauto at construction.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SessionsStarted       prometheus.Counter
	DocumentsScanned      prometheus.Counter
	ClassifierAccepted    prometheus.Counter
	ClassifierRejected    *prometheus.CounterVec
	OTPSent               prometheus.Counter
	OTPMismatches         prometheus.Counter
	OTPLockouts           prometheus.Counter
	IdentitiesVerified    prometheus.Counter
	SessionsReset         prometheus.Counter
	ListingsCreated       prometheus.Counter
	ListingsBlocked       prometheus.Counter
	OCRLatencySeconds     prometheus.Histogram
	RequestLatencySeconds *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veristay_verification_sessions_started_total",
			Help: "Total number of verification sessions started",
		}),
		DocumentsScanned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veristay_documents_scanned_total",
			Help: "Total number of document images submitted for OCR",
		}),
		ClassifierAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veristay_classifier_accepted_total",
			Help: "Total number of documents accepted by the classifier",
		}),
		ClassifierRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veristay_classifier_rejected_total",
			Help: "Total number of documents rejected by the classifier",
		}, []string{"reason"}),
		OTPSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veristay_otp_sent_total",
			Help: "Total number of OTP dispatches",
		}),
		OTPMismatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veristay_otp_mismatch_total",
			Help: "Total number of rejected OTP confirmation attempts",
		}),
		OTPLockouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veristay_otp_lockouts_total",
			Help: "Total number of OTP attempt lockouts triggered",
		}),
		IdentitiesVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veristay_identities_verified_total",
			Help: "Total number of sessions reaching the VERIFIED state",
		}),
		SessionsReset: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veristay_verification_sessions_reset_total",
			Help: "Total number of session resets",
		}),
		ListingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veristay_listings_created_total",
			Help: "Total number of listings accepted through the gate",
		}),
		ListingsBlocked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veristay_listings_blocked_total",
			Help: "Total number of listing submissions blocked by the verification gate",
		}),
		OCRLatencySeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veristay_ocr_latency_seconds",
			Help:    "Latency of OCR extraction calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RequestLatencySeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "veristay_http_request_latency_seconds",
			Help:    "Latency of HTTP requests by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// ObserveOCRLatency records one OCR round trip.
func (m *Metrics) ObserveOCRLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.OCRLatencySeconds.Observe(d.Seconds())
}

// The Inc helpers below are nil-safe so services can run without metrics in
// unit tests, where registering the full set twice would panic promauto.

func (m *Metrics) IncSessionsStarted() {
	if m != nil {
		m.SessionsStarted.Inc()
	}
}

func (m *Metrics) IncDocumentsScanned() {
	if m != nil {
		m.DocumentsScanned.Inc()
	}
}

func (m *Metrics) IncClassifierAccepted() {
	if m != nil {
		m.ClassifierAccepted.Inc()
	}
}

func (m *Metrics) IncClassifierRejected(reason string) {
	if m != nil {
		m.ClassifierRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncOTPSent() {
	if m != nil {
		m.OTPSent.Inc()
	}
}

func (m *Metrics) IncOTPMismatches() {
	if m != nil {
		m.OTPMismatches.Inc()
	}
}

func (m *Metrics) IncOTPLockouts() {
	if m != nil {
		m.OTPLockouts.Inc()
	}
}

func (m *Metrics) IncIdentitiesVerified() {
	if m != nil {
		m.IdentitiesVerified.Inc()
	}
}

func (m *Metrics) IncSessionsReset() {
	if m != nil {
		m.SessionsReset.Inc()
	}
}

func (m *Metrics) IncListingsCreated() {
	if m != nil {
		m.ListingsCreated.Inc()
	}
}

func (m *Metrics) IncListingsBlocked() {
	if m != nil {
		m.ListingsBlocked.Inc()
	}
}
