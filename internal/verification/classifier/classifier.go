// Package classifier decides whether OCR output plausibly depicts the expected
// document type. It is a keyword heuristic, not identity proof: the derived
// fragment is cosmetic confirmation data for the review screen.
package classifier

import (
	"regexp"
	"strings"
)

// RejectReason distinguishes why a document was rejected so the client can
// give actionable feedback.
type RejectReason string

const (
	// ReasonNone: the document was accepted.
	ReasonNone RejectReason = ""
	// ReasonNoText: too little text detected; likely blur or wrong orientation.
	ReasonNoText RejectReason = "no_text"
	// ReasonNoKeywords: text present but nothing matched; likely wrong document.
	ReasonNoKeywords RejectReason = "no_keywords"
)

// Message renders the human-readable feedback for a rejection.
func (r RejectReason) Message() string {
	switch r {
	case ReasonNoText:
		return "Image is too blurry or has no text."
	case ReasonNoKeywords:
		return "The document does not appear to be an Aadhaar card. Please upload a clear photo of your Aadhaar."
	default:
		return ""
	}
}

// Config carries the heuristic's tunables. Threshold is configuration, not a
// magic constant: observed values in the wild vary between 1 and 2.
type Config struct {
	Keywords         []string
	StrongKeyword    string
	Threshold        int
	MinTextLength    int
	FallbackFragment string
}

// DefaultConfig returns the production keyword set for Aadhaar documents.
func DefaultConfig() Config {
	return Config{
		Keywords: []string{
			"aadhaar", "gov", "india", "male", "female", "dob", "yob",
			"enrollment", "father", "uidai", "address", "help",
		},
		StrongKeyword:    "aadhaar",
		Threshold:        2,
		MinTextLength:    20,
		FallbackFragment: "9999",
	}
}

// Result is the classifier verdict plus derived display data.
type Result struct {
	Accepted bool
	Reason   RejectReason
	// Matched lists the keywords found, for audit trails.
	Matched []string
	// IDFragment is the masked fragment ("xxxx-xxxx-9012"), set only on accept.
	IDFragment string
}

var (
	fourDigits = regexp.MustCompile(`\d{4}`)
	// aadhaarTriplet matches the printed number layout: three standalone
	// 4-digit groups separated by whitespace. The boundary alternations keep
	// dates like "01-01-1990" from supplying a group.
	aadhaarTriplet = regexp.MustCompile(`(?:^|\s)\d{4}\s+\d{4}\s+(\d{4})(?:\s|$)`)
)

// Classify applies the keyword heuristic to raw OCR text. It is a pure
// function of its inputs: identical text and config always produce an
// identical verdict and fragment.
func Classify(text string, cfg Config) Result {
	text = strings.ToLower(text)

	var matched []string
	for _, kw := range cfg.Keywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}

	strong := cfg.StrongKeyword != "" && strings.Contains(text, cfg.StrongKeyword)
	if len(matched) >= cfg.Threshold || strong {
		return Result{
			Accepted:   true,
			Matched:    matched,
			IDFragment: "xxxx-xxxx-" + extractFragment(text, cfg.FallbackFragment),
		}
	}

	reason := ReasonNoKeywords
	if len(strings.TrimSpace(text)) < cfg.MinTextLength {
		reason = ReasonNoText
	}
	return Result{Accepted: false, Reason: reason, Matched: matched}
}

// extractFragment takes the last group of the Aadhaar triplet (numbers print
// as three whitespace-separated groups of four). When no triplet is present it
// falls back to the third loose 4-digit group, then to the configured literal.
func extractFragment(text, fallback string) string {
	if m := aadhaarTriplet.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	groups := fourDigits.FindAllString(text, -1)
	if len(groups) < 3 {
		return fallback
	}
	third := groups[2]
	return third[len(third)-4:]
}
