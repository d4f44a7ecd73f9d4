// Package ranking orders match results and summarizes score distributions.
package ranking

import (
	"math"
	"sort"

	"github.com/spigell/talent-matcher/internal/domain"
)

// DefaultTopN is how many matches are kept per candidate.
const DefaultTopN = 10

// Histogram bucket lower bounds and the high quality threshold, 0-100 scale.
const (
	ExcellentThreshold   = 80.0
	GoodThreshold        = 60.0
	ModerateThreshold    = 40.0
	HighQualityThreshold = 70.0
)

// Rank returns a sorted copy of matches: weighted score descending, then
// opportunity id and candidate id ascending. topN <= 0 keeps everything.
func Rank(matches []*domain.MatchResult, topN int) []*domain.MatchResult {
	ranked := make([]*domain.MatchResult, 0, len(matches))
	for _, m := range matches {
		if m != nil {
			ranked = append(ranked, m)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j])
	})

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

func less(a, b *domain.MatchResult) bool {
	if a.WeightedScore != b.WeightedScore {
		return a.WeightedScore > b.WeightedScore
	}
	if a.OpportunityID != b.OpportunityID {
		return a.OpportunityID < b.OpportunityID
	}
	return a.CandidateID < b.CandidateID
}

// Distribution is the fixed four bucket histogram of scores.
type Distribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Moderate  int `json:"moderate"`
	Low       int `json:"low"`
}

// Statistics summarizes a set of scores on the 0-100 scale.
type Statistics struct {
	TotalMatches       int          `json:"total_matches"`
	AverageScore       float64      `json:"average_score"`
	MaxScore           float64      `json:"max_score"`
	MinScore           float64      `json:"min_score"`
	HighQualityMatches int          `json:"high_quality_matches"`
	Distribution       Distribution `json:"score_distribution"`
}

// Summarize computes statistics over scores. An empty input yields zero
// statistics.
func Summarize(scores []float64) Statistics {
	var stats Statistics
	if len(scores) == 0 {
		return stats
	}

	lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
	for _, s := range scores {
		sum += s
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)

		if s >= HighQualityThreshold {
			stats.HighQualityMatches++
		}
		switch {
		case s >= ExcellentThreshold:
			stats.Distribution.Excellent++
		case s >= GoodThreshold:
			stats.Distribution.Good++
		case s >= ModerateThreshold:
			stats.Distribution.Moderate++
		default:
			stats.Distribution.Low++
		}
	}

	stats.TotalMatches = len(scores)
	stats.AverageScore = round3(sum / float64(len(scores)))
	stats.MaxScore = round3(hi)
	stats.MinScore = round3(lo)
	return stats
}

// SummarizeResults summarizes the weighted scores of results.
func SummarizeResults(results []*domain.MatchResult) Statistics {
	scores := make([]float64, 0, len(results))
	for _, r := range results {
		if r != nil {
			scores = append(scores, r.WeightedScore*100)
		}
	}
	return Summarize(scores)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
