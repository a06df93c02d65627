package genai

import "context"

// Generator is the narrow interface to the generation backend. The
// orchestrator depends only on this, so the state machine is testable with
// a deterministic fake.
type Generator interface {
	// Generate produces a single self-contained interactive document.
	// Identical requests may yield different documents across calls; no
	// caching or deduplication is performed.
	Generate(ctx context.Context, req Request) (string, error)

	// Close releases resources.
	Close()
}

// Ensure HTTPClient implements Generator.
var _ Generator = (*HTTPClient)(nil)
