// Package ocr defines the document extraction boundary. The workflow depends
// only on the Extractor interface; exactly one implementation is wired at
// startup (remote provider in production, stub in demo builds).
package ocr

import "context"

// Result is the narrow contract an extractor must honor: recognized text plus
// a confidence score in [0,100].
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Extractor turns a document image into raw text.
type Extractor interface {
	Extract(ctx context.Context, image []byte, filename string) (Result, error)
}
