package verification

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedVerdict = errors.New("malformed verification verdict")

type rawVerdict struct {
	WasteTypeMatch *bool    `json:"wasteTypeMatch"`
	QuantityMatch  *bool    `json:"quantityMatch"`
	Confidence     *float64 `json:"confidence"`
}

// Parse extracts the verdict object from a model answer. Code fences and
// prose around the object are ignored. Every field must be present.
func Parse(text string) (Result, error) {
	body := stripFences(text)

	start := strings.IndexByte(body, '{')
	if start < 0 {
		return Result{}, fmt.Errorf("%w: no JSON object in %q", ErrMalformedVerdict, truncate(text))
	}

	var raw rawVerdict
	dec := json.NewDecoder(strings.NewReader(body[start:]))
	if err := dec.Decode(&raw); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}

	if raw.WasteTypeMatch == nil || raw.QuantityMatch == nil || raw.Confidence == nil {
		return Result{}, fmt.Errorf("%w: missing fields", ErrMalformedVerdict)
	}
	if *raw.Confidence < 0 || *raw.Confidence > 1 {
		return Result{}, fmt.Errorf("%w: confidence %v out of range", ErrMalformedVerdict, *raw.Confidence)
	}

	return Result{
		WasteTypeMatch: *raw.WasteTypeMatch,
		QuantityMatch:  *raw.QuantityMatch,
		Confidence:     *raw.Confidence,
	}, nil
}

func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```JSON", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

func truncate(s string) string {
	const limit = 120
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
