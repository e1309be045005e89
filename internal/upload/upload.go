// Package upload stores captured document images with the generic image
// upload service and hands back the hosted URL used as the session's
// document reference.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	dErrors "veristay/pkg/domain-errors"
)

// Store persists one document image and returns its reference.
type Store interface {
	Save(ctx context.Context, image []byte, filename string) (string, error)
}

// HTTPStore posts the image as multipart form data to the upload endpoint
// and decodes the {url} response.
type HTTPStore struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// Option configures an HTTPStore.
type Option func(*HTTPStore)

// WithHTTPClient overrides the HTTP client (tests point it at httptest servers).
func WithHTTPClient(c *http.Client) Option {
	return func(s *HTTPStore) { s.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *HTTPStore) { s.logger = l }
}

// NewHTTPStore constructs a store for the given upload endpoint.
func NewHTTPStore(url string, timeout time.Duration, opts ...Option) *HTTPStore {
	s := &HTTPStore{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save uploads the image and returns the hosted URL.
func (s *HTTPStore) Save(ctx context.Context, image []byte, filename string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create multipart: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("write multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "upload service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", dErrors.Newf(dErrors.CodeUnavailable, "upload service returned status %d", resp.StatusCode)
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "invalid upload service response")
	}
	if payload.URL == "" {
		return "", dErrors.New(dErrors.CodeUnavailable, "upload service returned no url")
	}

	s.logger.DebugContext(ctx, "document image uploaded", "url", payload.URL)
	return payload.URL, nil
}

// LocalStore mints an opaque local reference without storing anything.
// Demo mode only.
type LocalStore struct{}

// NewLocalStore constructs the demo store.
func NewLocalStore() *LocalStore {
	return &LocalStore{}
}

// Save returns a synthetic reference preserving the file extension.
func (*LocalStore) Save(_ context.Context, _ []byte, filename string) (string, error) {
	return "local://documents/" + uuid.NewString() + filepath.Ext(filename), nil
}
