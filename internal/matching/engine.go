// Package matching runs the scoring and assessment pipeline for single pairs
// and for bounded candidate x opportunity batches.
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/ai"
	"github.com/spigell/talent-matcher/internal/assessment"
	"github.com/spigell/talent-matcher/internal/domain"
	"github.com/spigell/talent-matcher/internal/logger"
	"github.com/spigell/talent-matcher/internal/metrics"
	"github.com/spigell/talent-matcher/internal/scoring"
)

// Provider names used in logs and metrics.
const (
	ProviderEmbedding  = "embedding"
	ProviderAssessment = "assessment"
)

// SimilarityProvider returns the semantic signal for a pair. It must not
// fail; degraded lookups are reported through ai.Signal.
type SimilarityProvider interface {
	Pair(ctx context.Context, c *domain.Candidate, o *domain.Opportunity) ai.Signal
}

// VectorSimilarity is a SimilarityProvider that can embed a record once and
// compare precomputed vectors. Batch uses it to embed every candidate and
// opportunity once instead of once per pair.
type VectorSimilarity interface {
	SimilarityProvider
	Embed(ctx context.Context, text string) ai.Vector
	CompareVectors(a, b ai.Vector) ai.Signal
}

// semanticFunc produces the semantic signal of one pair.
type semanticFunc func(ctx context.Context) ai.Signal

// Options configure an Engine. Every field is optional, but at least one of
// Similarity and Assessor must be set for requests to be accepted.
type Options struct {
	Similarity SimilarityProvider
	Assessor   ai.Assessor
	Scoring    scoring.Config
	Limits     Limits
	Logger     *zap.Logger
	Metrics    *metrics.Recorder

	// Now and NewID are replaced in tests.
	Now   func() time.Time
	NewID func() string
}

// Engine matches candidates against opportunities. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	similarity SimilarityProvider
	assessor   ai.Assessor
	scorer     *scoring.Scorer
	parser     *assessment.Parser
	limits     Limits
	logger     *zap.Logger
	metrics    *metrics.Recorder
	now        func() time.Time
	newID      func() string
}

// New builds an engine from opts.
func New(opts Options) (*Engine, error) {
	cfg := opts.Scoring
	if cfg == (scoring.Config{}) {
		cfg = scoring.DefaultConfig()
	}
	scorer, err := scoring.New(cfg)
	if err != nil {
		return nil, err
	}

	limits, err := opts.Limits.withDefaults()
	if err != nil {
		return nil, err
	}

	log := logger.OrNop(opts.Logger)

	e := &Engine{
		similarity: opts.Similarity,
		assessor:   opts.Assessor,
		scorer:     scorer,
		parser:     assessment.NewParser(log),
		limits:     limits,
		logger:     log,
		metrics:    opts.Metrics,
		now:        opts.Now,
		newID:      opts.NewID,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e, nil
}

// Limits returns the effective batch limits.
func (e *Engine) Limits() Limits {
	return e.limits
}

// Match scores a single pair. Invalid records are rejected before any
// provider is called. Provider failures degrade the result instead of
// failing it.
func (e *Engine) Match(ctx context.Context, c *domain.Candidate, o *domain.Opportunity) (*domain.MatchResult, error) {
	if c == nil {
		return nil, domain.NewValidationError("candidate", "candidate is required")
	}
	if o == nil {
		return nil, domain.NewValidationError("opportunity", "opportunity is required")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := e.ready(); err != nil {
		return nil, err
	}

	result, err := e.run(ctx, c, o, e.pairSemantic(c, o))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// pairSemantic asks the similarity provider about a single pair.
func (e *Engine) pairSemantic(c *domain.Candidate, o *domain.Opportunity) semanticFunc {
	return func(ctx context.Context) ai.Signal {
		if e.similarity == nil {
			return ai.Signal{Reason: ai.ReasonNoProvider}
		}
		return e.similarity.Pair(ctx, c, o)
	}
}

func (e *Engine) ready() error {
	if e.similarity == nil && e.assessor == nil {
		return domain.NewServiceUnavailableError("no similarity or assessment provider is configured")
	}
	return nil
}

// run executes the pipeline for a validated pair and records its outcome.
func (e *Engine) run(ctx context.Context, c *domain.Candidate, o *domain.Opportunity, semantic semanticFunc) (*domain.MatchResult, error) {
	log := e.logger.With(logger.PairFields(c.ID, o.ID)...)

	result, err := e.match(ctx, c, o, semantic, log)
	switch {
	case err == nil:
		e.metrics.RecordPair(metrics.OutcomeSucceeded)
		e.metrics.RecordResult(string(result.Source), result.MatchScore)
		log.Debug("pair matched",
			zap.Float64("match_score", result.MatchScore),
			zap.Float64("weighted_score", result.WeightedScore),
			zap.String("source", string(result.Source)),
		)
	case domain.KindOf(err) == domain.KindCancelled:
		e.metrics.RecordPair(metrics.OutcomeCancelled)
		log.Debug("pair cancelled", zap.Error(err))
	default:
		e.metrics.RecordPair(metrics.OutcomeFailed)
		log.Warn("pair failed", zap.Error(err))
	}
	return result, err
}

func (e *Engine) match(ctx context.Context, c *domain.Candidate, o *domain.Opportunity, semantic semanticFunc, log *zap.Logger) (*domain.MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewCancelledError(err)
	}

	signal := semantic(ctx)
	if err := ctx.Err(); err != nil {
		return nil, domain.NewCancelledError(err)
	}
	if signal.Err != nil {
		e.metrics.RecordProviderFailure(ProviderEmbedding)
	}
	if !signal.Available {
		log.Debug("semantic similarity unavailable", zap.String("reason", signal.Reason))
	}

	score := e.scorer.Score(c, o, signal.Value)

	result, err := e.assess(ctx, c, o, log)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = assessment.Deterministic(c, o, score, signal.Available)
	}

	result.ID = e.newID()
	result.CandidateID = c.ID
	result.OpportunityID = o.ID
	result.WeightedScore = score.Score
	result.Breakdown = score.Breakdown
	result.SemanticAvailable = signal.Available
	result.Timestamp = e.now().UTC()

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("build match result: %w", err)
	}
	return result, nil
}

// assess returns nil without error when no assessment text is available and
// the caller should build a deterministic result.
func (e *Engine) assess(ctx context.Context, c *domain.Candidate, o *domain.Opportunity, log *zap.Logger) (*domain.MatchResult, error) {
	if e.assessor == nil {
		return nil, nil
	}

	raw, err := e.assessor.Assess(ctx, c, o)
	if err != nil {
		if ctx.Err() != nil && ai.IsCancelled(err) {
			return nil, domain.NewCancelledError(err)
		}
		e.metrics.RecordProviderFailure(ProviderAssessment)
		log.Warn("assessment provider failed, using deterministic result",
			zap.Error(domain.NewProviderError(ProviderAssessment, err)),
		)
		return nil, nil
	}

	outcome, err := e.parser.Parse(raw, c, o)
	if err != nil {
		return nil, err
	}
	if outcome.Path == domain.SourceFallback {
		log.Info("assessment did not match the schema, used fallback extractor",
			zap.String("reason", outcome.Reason),
		)
	}
	return outcome.Result, nil
}
