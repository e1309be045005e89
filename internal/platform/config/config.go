// Package config builds runtime configuration from environment variables so
// main stays lean. Every knob has a development-friendly default; production
// deployments override via VERISTAY_* variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// OCRMode selects which extractor implementation is wired at startup.
// Exactly one mode is active; the workflow never straddles both.
type OCRMode string

const (
	// OCRModeRemote sends document images to the OCR provider endpoint.
	OCRModeRemote OCRMode = "remote"
	// OCRModeStub returns a canned extraction result. Development only.
	OCRModeStub OCRMode = "stub"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	RequestTimeout time.Duration

	// DemoMode wires the stub OCR extractor and the static OTP verifier.
	// It must never be enabled in production deployments.
	DemoMode bool

	OCR      OCR
	OTP      OTP
	Lockout  Lockout
	Session  Session
	Redis    Redis
	Postgres Postgres
	Kafka    Kafka
	Token    Token
	Upload   Upload
}

// OCR configures the document extraction boundary.
type OCR struct {
	Mode    OCRMode
	URL     string
	Timeout time.Duration
}

// OTP configures one-time code issuance and verification.
type OTP struct {
	CodeTTL  time.Duration
	DemoCode string // accepted by the static verifier in demo mode only
}

// Lockout bounds OTP confirmation attempts and resends.
type Lockout struct {
	AttemptsPerWindow int
	Window            time.Duration
	HardLockDuration  time.Duration
	ResendsPerWindow  int
	ResendWindow      time.Duration
}

// Session configures verification session retention.
type Session struct {
	TTL time.Duration
}

// Redis configures the optional shared-state backend.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Postgres configures the listing and audit outbox database.
type Postgres struct {
	DSN string
}

// Kafka configures the audit event publisher.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Token configures the signed verification token attached to summaries.
type Token struct {
	SigningKey string
	Issuer     string
	TTL        time.Duration
}

// Upload configures the generic image upload endpoint client.
type Upload struct {
	URL     string
	Timeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:           envString("VERISTAY_ADDR", ":8080"),
		RequestTimeout: envDuration("VERISTAY_REQUEST_TIMEOUT", 30*time.Second),
		DemoMode:       envBool("VERISTAY_DEMO_MODE", false),
		OCR: OCR{
			Mode:    OCRMode(envString("VERISTAY_OCR_MODE", string(OCRModeRemote))),
			URL:     envString("VERISTAY_OCR_URL", "http://localhost:9090/verification/ocr"),
			Timeout: envDuration("VERISTAY_OCR_TIMEOUT", 30*time.Second),
		},
		OTP: OTP{
			CodeTTL:  envDuration("VERISTAY_OTP_TTL", 5*time.Minute),
			DemoCode: envString("VERISTAY_OTP_DEMO_CODE", "1234"),
		},
		Lockout: Lockout{
			AttemptsPerWindow: envInt("VERISTAY_OTP_MAX_ATTEMPTS", 5),
			Window:            envDuration("VERISTAY_OTP_ATTEMPT_WINDOW", 15*time.Minute),
			HardLockDuration:  envDuration("VERISTAY_OTP_HARD_LOCK", 15*time.Minute),
			ResendsPerWindow:  envInt("VERISTAY_OTP_MAX_RESENDS", 3),
			ResendWindow:      envDuration("VERISTAY_OTP_RESEND_WINDOW", 10*time.Minute),
		},
		Session: Session{
			TTL: envDuration("VERISTAY_SESSION_TTL", 30*time.Minute),
		},
		Redis: Redis{
			URL:          os.Getenv("VERISTAY_REDIS_URL"),
			PoolSize:     envInt("VERISTAY_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("VERISTAY_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("VERISTAY_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("VERISTAY_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("VERISTAY_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: Postgres{
			DSN: os.Getenv("VERISTAY_POSTGRES_DSN"),
		},
		Kafka: Kafka{
			Brokers: envStrings("VERISTAY_KAFKA_BROKERS"),
			Topic:   envString("VERISTAY_KAFKA_AUDIT_TOPIC", "veristay.audit"),
		},
		Token: Token{
			SigningKey: envString("VERISTAY_TOKEN_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     envString("VERISTAY_TOKEN_ISSUER", "veristay"),
			TTL:        envDuration("VERISTAY_TOKEN_TTL", time.Hour),
		},
		Upload: Upload{
			URL:     envString("VERISTAY_UPLOAD_URL", "http://localhost:9090/upload"),
			Timeout: envDuration("VERISTAY_UPLOAD_TIMEOUT", 30*time.Second),
		},
	}
	return cfg
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envStrings(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
