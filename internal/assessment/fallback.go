package assessment

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/spigell/talent-matcher/internal/domain"
	"github.com/spigell/talent-matcher/internal/utils"
)

// Fallback constants.
const (
	DefaultFallbackScore = 75.0
	FallbackConfidence   = 0.7
	MaxExplanationRunes  = 500
	topSkills            = 3
)

var integerPattern = regexp.MustCompile(`\d+`)

// Fallback builds a result from free text without trusting its structure.
// Only the score is read from the text; the fit level is derived from that
// number and the skill alignment comes from the records.
func Fallback(raw string, c *domain.Candidate, o *domain.Opportunity) *domain.MatchResult {
	score := ExtractScore(raw)
	alignment := alignmentFor(c, o)

	explanation := utils.Truncate(raw, MaxExplanationRunes, "...")
	if strings.TrimSpace(explanation) == "" {
		explanation = fmt.Sprintf("The assessment text was empty; the score of %.0f is a default and the skill alignment was computed from the profiles.", score)
	}

	return &domain.MatchResult{
		MatchScore:      score,
		FitLevel:        domain.FitLevelForScore(score),
		SkillAlignment:  alignment,
		Explanation:     explanation,
		Strengths:       skillStrengths(alignment),
		Concerns:        skillConcerns(alignment),
		Recommendations: defaultRecommendations(),
		ConfidenceScore: FallbackConfidence,
		Source:          domain.SourceFallback,
	}
}

// ExtractScore returns the first integer on the first line that mentions a
// score, clamped to [0,100], or DefaultFallbackScore.
func ExtractScore(raw string) float64 {
	for _, line := range strings.Split(raw, "\n") {
		if !strings.Contains(strings.ToLower(line), "score") || !strings.ContainsFunc(line, unicode.IsDigit) {
			continue
		}
		match := integerPattern.FindString(line)
		if match == "" {
			continue
		}
		n, err := strconv.ParseFloat(match, 64)
		if err != nil {
			continue
		}
		return math.Min(100, math.Max(0, n))
	}
	return DefaultFallbackScore
}

func skillStrengths(a domain.SkillAlignment) []string {
	if len(a.Matched) == 0 {
		return []string{"Good foundational skills"}
	}
	return []string{"Strong in: " + strings.Join(head(a.Matched, topSkills), ", ")}
}

func skillConcerns(a domain.SkillAlignment) []string {
	if len(a.Missing) == 0 {
		return []string{"No major concerns identified"}
	}
	return []string{"Missing: " + strings.Join(head(a.Missing, topSkills), ", ")}
}

func defaultRecommendations() []string {
	return []string{"Consider learning missing skills", "Highlight relevant experience"}
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
