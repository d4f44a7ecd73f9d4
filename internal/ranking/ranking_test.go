package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spigell/talent-matcher/internal/domain"
)

func result(candidate, opportunity string, weighted float64) *domain.MatchResult {
	return &domain.MatchResult{CandidateID: candidate, OpportunityID: opportunity, WeightedScore: weighted}
}

func ids(results []*domain.MatchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.OpportunityID)
	}
	return out
}

func TestRankSortsDescending(t *testing.T) {
	in := []*domain.MatchResult{
		result("c1", "o1", 0.2),
		result("c1", "o2", 0.9),
		nil,
		result("c1", "o3", 0.5),
	}
	ranked := Rank(in, 0)
	assert.Equal(t, []string{"o2", "o3", "o1"}, ids(ranked))
	assert.Equal(t, "o1", in[0].OpportunityID, "input must not be reordered")
}

func TestRankTieBreak(t *testing.T) {
	in := []*domain.MatchResult{
		result("c2", "o-b", 0.5),
		result("c1", "o-b", 0.5),
		result("c1", "o-a", 0.5),
		result("c1", "o-c", 0.7),
	}
	ranked := Rank(in, 0)
	assert.Equal(t, []string{"o-c", "o-a", "o-b", "o-b"}, ids(ranked))
	assert.Equal(t, "c1", ranked[2].CandidateID)
	assert.Equal(t, "c2", ranked[3].CandidateID)

	reversed := []*domain.MatchResult{in[3], in[2], in[1], in[0]}
	assert.Equal(t, ranked, Rank(reversed, 0), "order must not depend on input order")
}

func TestRankTruncates(t *testing.T) {
	var in []*domain.MatchResult
	for i := 0; i < 15; i++ {
		in = append(in, result("c1", string(rune('a'+i)), float64(i)/15))
	}
	ranked := Rank(in, DefaultTopN)
	assert.Len(t, ranked, DefaultTopN)
	assert.Equal(t, "o", ranked[0].OpportunityID)

	assert.Len(t, Rank(in, 3), 3)
	assert.Len(t, Rank(in[:2], 10), 2)
}

func TestSummarize(t *testing.T) {
	stats := Summarize([]float64{92, 80, 79.9, 60, 45, 40, 39.99, 10})

	assert.Equal(t, 8, stats.TotalMatches)
	assert.Equal(t, 92.0, stats.MaxScore)
	assert.Equal(t, 10.0, stats.MinScore)
	assert.InDelta(t, 55.861, stats.AverageScore, 1e-9)
	assert.Equal(t, 3, stats.HighQualityMatches)
	assert.Equal(t, Distribution{Excellent: 2, Good: 2, Moderate: 2, Low: 2}, stats.Distribution)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Statistics{}, Summarize(nil))
}

func TestSummarizeResults(t *testing.T) {
	stats := SummarizeResults([]*domain.MatchResult{
		result("c1", "o1", 0.85),
		result("c1", "o2", 0.3),
		nil,
	})
	assert.Equal(t, 2, stats.TotalMatches)
	assert.Equal(t, 1, stats.Distribution.Excellent)
	assert.Equal(t, 1, stats.Distribution.Low)
	assert.InDelta(t, 57.5, stats.AverageScore, 1e-9)
}
