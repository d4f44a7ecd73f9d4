package matching

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/talent-matcher/internal/ai"
	"github.com/spigell/talent-matcher/internal/domain"
	"github.com/spigell/talent-matcher/internal/ranking"
)

// Default batch limits.
const (
	DefaultMaxCandidates    = 10
	DefaultMaxOpportunities = 10
	DefaultConcurrency      = 4
)

// Limits bound the size and parallelism of a batch. Zero values select the
// defaults.
type Limits struct {
	MaxCandidates    int
	MaxOpportunities int
	TopN             int
	Concurrency      int
}

func (l Limits) withDefaults() (Limits, error) {
	if l.MaxCandidates < 0 || l.MaxOpportunities < 0 || l.TopN < 0 || l.Concurrency < 0 {
		return l, fmt.Errorf("batch limits must not be negative: %+v", l)
	}
	if l.MaxCandidates == 0 {
		l.MaxCandidates = DefaultMaxCandidates
	}
	if l.MaxOpportunities == 0 {
		l.MaxOpportunities = DefaultMaxOpportunities
	}
	if l.TopN == 0 {
		l.TopN = ranking.DefaultTopN
	}
	if l.Concurrency == 0 {
		l.Concurrency = DefaultConcurrency
	}
	return l, nil
}

// BatchRequest is a bounded cross product to match.
type BatchRequest struct {
	Candidates    []*domain.Candidate   `json:"candidates"`
	Opportunities []*domain.Opportunity `json:"opportunities"`
}

// PairFailure records a pair that produced no result.
type PairFailure struct {
	CandidateID   string      `json:"candidate_id"`
	OpportunityID string      `json:"opportunity_id"`
	Kind          domain.Kind `json:"kind"`
	Message       string      `json:"message"`
}

// CandidateMatches are the ranked matches of one candidate.
type CandidateMatches struct {
	CandidateID  string                `json:"candidate_id"`
	Matches      []*domain.MatchResult `json:"matches"`
	TotalMatches int                   `json:"total_matches"`
}

// BatchResult aggregates a batch run. Statistics cover every successful
// pair, including those truncated from the per-candidate lists.
type BatchResult struct {
	ID                 string             `json:"id"`
	TotalCandidates    int                `json:"total_candidates"`
	TotalOpportunities int                `json:"total_opportunities"`
	TotalAttempted     int                `json:"total_attempted"`
	TotalSucceeded     int                `json:"total_succeeded"`
	TotalFailed        int                `json:"total_failed"`
	Candidates         []CandidateMatches `json:"candidates"`
	Failures           []PairFailure      `json:"failures"`
	Statistics         ranking.Statistics `json:"statistics"`
	Partial            bool               `json:"partial"`
	Timestamp          time.Time          `json:"timestamp"`
}

// PartialFailure returns a batch_partial_failure error when some pairs
// failed, nil otherwise.
func (r *BatchResult) PartialFailure() error {
	if r == nil || r.TotalFailed == 0 {
		return nil
	}
	return &domain.Error{
		Kind:    domain.KindBatchPartialFailure,
		Message: fmt.Sprintf("%d of %d pairs failed", r.TotalFailed, r.TotalAttempted),
	}
}

type slot struct {
	result *domain.MatchResult
	err    error
}

// Batch matches every candidate against every opportunity. The request is
// validated as a whole before any provider is called. Pair failures are
// recorded and do not fail the batch. When ctx ends mid-flight the completed
// pairs are still returned, Partial is set and a cancelled error is returned
// alongside the result.
func (e *Engine) Batch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	candidates, opportunities, err := e.prepare(req)
	if err != nil {
		return nil, err
	}
	if err := e.ready(); err != nil {
		return nil, err
	}

	start := time.Now()
	n, m := len(candidates), len(opportunities)
	slots := make([]slot, n*m)

	e.logger.Info("starting batch",
		zap.Int("candidates", n),
		zap.Int("opportunities", m),
		zap.Int("concurrency", e.limits.Concurrency),
	)

	vectors := e.embedRecords(ctx, candidates, opportunities)

	var g errgroup.Group
	g.SetLimit(e.limits.Concurrency)

launch:
	for i, c := range candidates {
		for j, o := range opportunities {
			if ctx.Err() != nil {
				break launch
			}
			semantic := e.pairSemantic(c, o)
			if vectors != nil {
				semantic = func(context.Context) ai.Signal { return vectors.signal(i, j) }
			}
			k := i*m + j
			g.Go(func() error {
				result, err := e.run(ctx, c, o, semantic)
				slots[k] = slot{result: result, err: err}
				return nil
			})
		}
	}
	_ = g.Wait()

	result := e.collect(ctx, candidates, opportunities, slots)
	e.metrics.ObserveBatch(n*m, time.Since(start))

	e.logger.Info("batch finished",
		zap.Int("attempted", result.TotalAttempted),
		zap.Int("succeeded", result.TotalSucceeded),
		zap.Int("failed", result.TotalFailed),
		zap.Bool("partial", result.Partial),
		zap.Duration("took", time.Since(start)),
	)

	if result.Partial {
		return result, domain.NewCancelledError(context.Cause(ctx))
	}
	return result, nil
}

// recordVectors holds one embedding per batch record.
type recordVectors struct {
	provider      VectorSimilarity
	candidates    []ai.Vector
	opportunities []ai.Vector
}

func (rv *recordVectors) signal(i, j int) ai.Signal {
	return rv.provider.CompareVectors(rv.candidates[i], rv.opportunities[j])
}

// embedRecords embeds every candidate and opportunity once when the
// similarity provider supports it, so a batch makes n+m embedding calls
// instead of two per pair. It returns nil otherwise.
func (e *Engine) embedRecords(ctx context.Context, candidates []*domain.Candidate, opportunities []*domain.Opportunity) *recordVectors {
	provider, ok := e.similarity.(VectorSimilarity)
	if !ok {
		return nil
	}

	rv := &recordVectors{
		provider:      provider,
		candidates:    make([]ai.Vector, len(candidates)),
		opportunities: make([]ai.Vector, len(opportunities)),
	}

	var g errgroup.Group
	g.SetLimit(e.limits.Concurrency)

	embed := func(dst *ai.Vector, text string) {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			*dst = provider.Embed(ctx, text)
			if dst.Err != nil {
				e.metrics.RecordProviderFailure(ProviderEmbedding)
			}
			return nil
		})
	}
	for i, c := range candidates {
		embed(&rv.candidates[i], c.Text())
	}
	for i, o := range opportunities {
		embed(&rv.opportunities[i], o.Text())
	}
	_ = g.Wait()

	e.logger.Debug("embedded batch records",
		zap.Int("candidates", len(candidates)),
		zap.Int("opportunities", len(opportunities)),
	)
	return rv
}

func (e *Engine) collect(ctx context.Context, candidates []*domain.Candidate, opportunities []*domain.Opportunity, slots []slot) *BatchResult {
	m := len(opportunities)
	result := &BatchResult{
		ID:                 e.newID(),
		TotalCandidates:    len(candidates),
		TotalOpportunities: m,
		TotalAttempted:     len(slots),
		Candidates:         make([]CandidateMatches, 0, len(candidates)),
		Failures:           []PairFailure{},
		Timestamp:          e.now().UTC(),
	}

	all := make([]*domain.MatchResult, 0, len(slots))
	for i, c := range candidates {
		matches := make([]*domain.MatchResult, 0, m)
		for j, o := range opportunities {
			s := slots[i*m+j]
			if s.result != nil {
				matches = append(matches, s.result)
				continue
			}

			err := s.err
			if err == nil {
				// never started
				err = domain.NewCancelledError(ctx.Err())
			}
			if domain.KindOf(err) == domain.KindCancelled {
				result.Partial = true
			}
			result.Failures = append(result.Failures, PairFailure{
				CandidateID:   c.ID,
				OpportunityID: o.ID,
				Kind:          domain.KindOf(err),
				Message:       domain.MessageOf(err),
			})
		}

		all = append(all, matches...)
		ranked := ranking.Rank(matches, e.limits.TopN)
		result.Candidates = append(result.Candidates, CandidateMatches{
			CandidateID:  c.ID,
			Matches:      ranked,
			TotalMatches: len(ranked),
		})
	}

	result.TotalSucceeded = len(all)
	result.TotalFailed = len(result.Failures)
	result.Statistics = ranking.SummarizeResults(all)
	return result
}

// prepare validates the request and assigns positional ids to records
// without one. Caller records are copied, never modified.
func (e *Engine) prepare(req BatchRequest) ([]*domain.Candidate, []*domain.Opportunity, error) {
	if len(req.Candidates) == 0 {
		return nil, nil, domain.NewValidationError("candidates", "Candidates list cannot be empty")
	}
	if len(req.Opportunities) == 0 {
		return nil, nil, domain.NewValidationError("opportunities", "Opportunities list cannot be empty")
	}
	if len(req.Candidates) > e.limits.MaxCandidates {
		return nil, nil, domain.NewValidationError("candidates",
			fmt.Sprintf("Batch size exceeded: %d candidates, at most %d allowed", len(req.Candidates), e.limits.MaxCandidates))
	}
	if len(req.Opportunities) > e.limits.MaxOpportunities {
		return nil, nil, domain.NewValidationError("opportunities",
			fmt.Sprintf("Batch size exceeded: %d opportunities, at most %d allowed", len(req.Opportunities), e.limits.MaxOpportunities))
	}

	candidates := make([]*domain.Candidate, len(req.Candidates))
	for i, c := range req.Candidates {
		field := fmt.Sprintf("candidates[%d]", i)
		if c == nil {
			return nil, nil, domain.NewValidationError(field, "candidate is required")
		}
		if err := c.Validate(); err != nil {
			return nil, nil, prefixField(field, err)
		}
		cp := *c
		if cp.ID == "" {
			cp.ID = fmt.Sprintf("candidate-%d", i+1)
		}
		candidates[i] = &cp
	}

	opportunities := make([]*domain.Opportunity, len(req.Opportunities))
	for i, o := range req.Opportunities {
		field := fmt.Sprintf("opportunities[%d]", i)
		if o == nil {
			return nil, nil, domain.NewValidationError(field, "opportunity is required")
		}
		if err := o.Validate(); err != nil {
			return nil, nil, prefixField(field, err)
		}
		cp := *o
		if cp.ID == "" {
			cp.ID = fmt.Sprintf("opportunity-%d", i+1)
		}
		opportunities[i] = &cp
	}

	return candidates, opportunities, nil
}

func prefixField(prefix string, err error) error {
	derr, ok := err.(*domain.Error)
	if !ok {
		return err
	}
	field := prefix
	if derr.Field != "" {
		field = prefix + "." + derr.Field
	}
	return &domain.Error{Kind: derr.Kind, Field: field, Message: derr.Message, Cause: derr.Cause}
}
