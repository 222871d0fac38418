// Package verification talks to the vision model that judges collection
// photos and turns its free-text answer into a typed verdict.
package verification

import "context"

// Claim is what the collector asserts the photo shows.
type Claim struct {
	WasteType string
	Amount    string
}

// Result is the model's judgment of one photo.
type Result struct {
	WasteTypeMatch bool    `json:"wasteTypeMatch"`
	QuantityMatch  bool    `json:"quantityMatch"`
	Confidence     float64 `json:"confidence"`
}

// Accepted applies the acceptance predicate. The threshold is exclusive.
func (r Result) Accepted(minConfidence float64) bool {
	return r.WasteTypeMatch && r.QuantityMatch && r.Confidence > minConfidence
}

// Client sends a photo and claim to a vision model and returns its raw
// text answer. Implementations do not retry.
type Client interface {
	Verify(ctx context.Context, claim Claim, image []byte) (string, error)
	Ping(ctx context.Context) (string, error)
	Close() error
}
