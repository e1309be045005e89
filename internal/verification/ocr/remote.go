package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	dErrors "veristay/pkg/domain-errors"
	"veristay/pkg/platform/circuit"
)

// Remote calls the OCR provider endpoint with a multipart image upload and a
// circuit breaker so a struggling provider degrades to fast failures instead
// of piling up 30s timeouts.
type Remote struct {
	url     string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// RemoteOption configures a Remote extractor.
type RemoteOption func(*Remote)

// WithHTTPClient overrides the HTTP client (tests point it at httptest servers).
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) { r.client = c }
}

// WithBreaker overrides the default circuit breaker.
func WithBreaker(b *circuit.Breaker) RemoteOption {
	return func(r *Remote) { r.breaker = b }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RemoteOption {
	return func(r *Remote) { r.logger = l }
}

// NewRemote constructs a remote extractor for the given endpoint URL.
func NewRemote(url string, timeout time.Duration, opts ...RemoteOption) *Remote {
	r := &Remote{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		breaker: circuit.New("ocr"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Extract uploads the document image and decodes the provider's
// {text, confidence} response.
func (r *Remote) Extract(ctx context.Context, image []byte, filename string) (Result, error) {
	if r.breaker.IsOpen() {
		return Result{}, dErrors.New(dErrors.CodeUnavailable, "document extraction temporarily unavailable")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Result{}, fmt.Errorf("create multipart: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return Result{}, fmt.Errorf("write multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Result{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, &body)
	if err != nil {
		return Result{}, fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		r.recordFailure(ctx)
		return Result{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "ocr provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.recordFailure(ctx)
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Result{}, dErrors.Newf(dErrors.CodeUnavailable, "ocr provider returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		r.recordFailure(ctx)
		return Result{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "invalid ocr provider response")
	}

	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "ocr circuit closed")
	}
	return result, nil
}

func (r *Remote) recordFailure(ctx context.Context) {
	if _, change := r.breaker.RecordFailure(); change.Opened {
		r.logger.WarnContext(ctx, "ocr circuit opened")
	}
}
