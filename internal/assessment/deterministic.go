package assessment

import (
	"fmt"
	"math"

	"github.com/spigell/talent-matcher/internal/domain"
	"github.com/spigell/talent-matcher/internal/scoring"
)

// Confidence of results built without generative text.
const (
	DeterministicConfidence         = 0.7
	DeterministicConfidenceDegraded = 0.5
)

// Deterministic builds a result purely from the composite score and the
// records. It is used when no assessment text is available.
func Deterministic(c *domain.Candidate, o *domain.Opportunity, res scoring.Result, semanticAvailable bool) *domain.MatchResult {
	score := round2(res.Percent())
	alignment := alignmentFor(c, o)

	strengths := []string{}
	concerns := []string{}
	if len(alignment.Matched) > 0 {
		strengths = append(strengths, skillStrengths(alignment)...)
	}
	if len(alignment.Missing) > 0 {
		concerns = append(concerns, skillConcerns(alignment)...)
	}

	required := scoring.RequiredExperience(o)
	if c.ExperienceYears >= required {
		strengths = append(strengths, "Meets experience requirements")
	} else {
		concerns = append(concerns, fmt.Sprintf("Experience gap: %g years short of requirement", round2(required-c.ExperienceYears)))
	}

	if res.Breakdown.Salary < 1 {
		concerns = append(concerns, "Salary expectation exceeds offered range")
	}
	if res.Breakdown.Location >= 1 {
		strengths = append(strengths, "Location is compatible")
	}

	if len(strengths) == 0 {
		strengths = append(strengths, "Good foundational skills")
	}
	if len(concerns) == 0 {
		concerns = append(concerns, "No major concerns identified")
	}

	recommendations := []string{}
	if len(alignment.Missing) > 0 {
		recommendations = append(recommendations, "Consider learning missing skills")
	}
	recommendations = append(recommendations, "Highlight relevant experience")

	confidence := DeterministicConfidence
	if !semanticAvailable {
		confidence = DeterministicConfidenceDegraded
	}

	return &domain.MatchResult{
		MatchScore:      score,
		FitLevel:        domain.FitLevelForScore(score),
		SkillAlignment:  alignment,
		Explanation:     explain(res, alignment, semanticAvailable),
		Strengths:       strengths,
		Concerns:        concerns,
		Recommendations: recommendations,
		ConfidenceScore: confidence,
		Source:          domain.SourceDeterministic,
	}
}

// MatchReason describes a composite score in [0,1].
func MatchReason(score float64) string {
	switch {
	case score >= 0.8:
		return "Excellent match with strong alignment in skills and experience"
	case score >= 0.6:
		return "Good match with some relevant skills and experience"
	case score >= 0.4:
		return "Moderate match with potential for growth"
	default:
		return "Limited match, may require significant training"
	}
}

func explain(res scoring.Result, a domain.SkillAlignment, semanticAvailable bool) string {
	b := res.Breakdown
	text := fmt.Sprintf("%s. %d of %d required skills matched (%.0f%%); skills %.2f, experience %.2f, location %.2f, salary %.2f.",
		MatchReason(res.Score),
		len(a.Matched), len(a.Matched)+len(a.Missing), a.MatchPercentage,
		b.Skills, b.Experience, b.Location, b.Salary,
	)
	if semanticAvailable {
		return text + fmt.Sprintf(" Semantic similarity %.2f.", b.Semantic)
	}
	return text + " Semantic similarity was unavailable and counted as 0."
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
