package ai

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/domain"
)

// Reasons reported when the semantic signal is unavailable.
const (
	ReasonEmptyInput     = "empty input"
	ReasonProviderFailed = "provider failed"
	ReasonBadVector      = "unusable vectors"
	ReasonNoProvider     = "no embedder configured"
)

// Signal is the outcome of a similarity lookup. Value is 0 whenever
// Available is false; callers decide how to treat the degraded case.
type Signal struct {
	Value     float64
	Available bool
	Reason    string
	Err       error
}

// Similarity computes cosine similarity between embeddings of two texts.
type Similarity struct {
	embedder Embedder
	logger   *zap.Logger
}

// NewSimilarity wraps embedder. A nil logger is replaced with a no-op one.
func NewSimilarity(embedder Embedder, logger *zap.Logger) *Similarity {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Similarity{embedder: embedder, logger: logger}
}

// Vector is the embedding of one text, or the reason there is none.
type Vector struct {
	Values []float32
	Reason string
	Err    error
}

// Compare never fails: empty input, provider errors and malformed vectors
// all degrade to an unavailable signal with value 0.
func (s *Similarity) Compare(ctx context.Context, a, b string) Signal {
	if s == nil || s.embedder == nil {
		return Signal{Reason: ReasonNoProvider}
	}
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return Signal{Reason: ReasonEmptyInput}
	}

	left := s.Embed(ctx, a)
	if left.Reason != "" {
		return Signal{Reason: left.Reason, Err: left.Err}
	}
	right := s.Embed(ctx, b)
	if right.Reason != "" {
		return Signal{Reason: right.Reason, Err: right.Err}
	}
	return s.CompareVectors(left, right)
}

// Embed embeds text once so it can be compared against many others. It
// never fails; a degraded Vector carries the reason instead.
func (s *Similarity) Embed(ctx context.Context, text string) Vector {
	if s == nil || s.embedder == nil {
		return Vector{Reason: ReasonNoProvider}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Vector{Reason: ReasonEmptyInput}
	}

	values, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("embedding provider failed", zap.Error(err))
		return Vector{Reason: ReasonProviderFailed, Err: domain.NewProviderError("embedding", err)}
	}
	return Vector{Values: values}
}

// CompareVectors compares two precomputed vectors. A provider failure stays
// on the Vector that saw it, so the returned Signal never carries Err.
func (s *Similarity) CompareVectors(a, b Vector) Signal {
	if s == nil {
		return Signal{Reason: ReasonNoProvider}
	}
	if a.Reason != "" {
		return Signal{Reason: a.Reason}
	}
	if b.Reason != "" {
		return Signal{Reason: b.Reason}
	}

	value, ok := Cosine(a.Values, b.Values)
	if !ok {
		s.logger.Debug("embedding vectors are not comparable",
			zap.Int("left_dim", len(a.Values)),
			zap.Int("right_dim", len(b.Values)),
		)
		return Signal{Reason: ReasonBadVector}
	}
	return Signal{Value: value, Available: true}
}

// Pair compares the text representations of a candidate and an opportunity.
func (s *Similarity) Pair(ctx context.Context, c *domain.Candidate, o *domain.Opportunity) Signal {
	return s.Compare(ctx, c.Text(), o.Text())
}

// Cosine returns the cosine similarity of a and b clamped to [0,1]. ok is
// false for empty, mismatched or zero vectors.
func Cosine(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, false
	}

	v := dot / (math.Sqrt(na) * math.Sqrt(nb))
	switch {
	case math.IsNaN(v) || v < 0:
		return 0, true
	case v > 1:
		return 1, true
	}
	return v, true
}

// IsCancelled reports whether err came from a cancelled or expired context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
