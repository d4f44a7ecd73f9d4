// Package ai defines the external model providers the matching engine
// consumes and the semantic similarity signal built on top of them.
package ai

import (
	"context"

	"github.com/spigell/talent-matcher/internal/domain"
)

// Assessor returns a free-form assessment of a candidate/opportunity pair.
// The text nominally follows the requested schema but is untrusted.
type Assessor interface {
	Assess(ctx context.Context, candidate *domain.Candidate, opportunity *domain.Opportunity) (string, error)
}

// Embedder turns a text blob into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Named is implemented by providers that can report the model behind them.
type Named interface {
	Model() string
}
