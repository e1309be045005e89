package ocr

import "context"

// Stub is the development stand-in for the OCR provider. It returns a canned
// Aadhaar extraction so the demo flow works offline. Never wire it outside
// demo mode.
type Stub struct {
	Result Result
}

// NewStub returns a stub extractor with the canned demo document.
func NewStub() *Stub {
	return &Stub{Result: Result{
		Text:       "aadhaar card government of india male 1234 5678 9012",
		Confidence: 95,
	}}
}

// Extract ignores the image and returns the canned result.
func (s *Stub) Extract(_ context.Context, _ []byte, _ string) (Result, error) {
	return s.Result, nil
}
