package assessment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/talent-matcher/internal/domain"
	"github.com/spigell/talent-matcher/internal/scoring"
)

const validAnswer = `{
  "match_score": 82,
  "fit_level": "good fit",
  "skill_alignment": {
    "matched_skills": ["Python", "React"],
    "missing_skills": ["Java"],
    "extra_skills": ["Docker"],
    "match_percentage": 66.7
  },
  "explanation": "The candidate covers most of the stack and has shipped comparable products before.",
  "strengths": ["Python depth"],
  "concerns": ["No Java"],
  "recommendations": ["Pair with a Java mentor"],
  "confidence_score": 0.9
}`

func pair(t *testing.T) (*domain.Candidate, *domain.Opportunity) {
	t.Helper()
	c, err := domain.NewCandidate(domain.Candidate{
		ID:              "c1",
		Skills:          []string{"Python", "React", "Docker", "SQL"},
		ExperienceYears: 1,
		Location:        "Pune, Maharashtra",
	})
	require.NoError(t, err)
	o, err := domain.NewOpportunity(domain.Opportunity{
		ID:              "o1",
		RequiredSkills:  []string{"Python", "Java", "React", "Go", "Kubernetes"},
		ExperienceLevel: domain.LevelMid,
		Location:        "Bangalore, Karnataka",
	})
	require.NoError(t, err)
	return c, o
}

func TestParseStructured(t *testing.T) {
	c, o := pair(t)

	for name, raw := range map[string]string{
		"plain":        validAnswer,
		"fenced":       "```json\n" + validAnswer + "\n```",
		"with preface": "Here is the assessment:\n" + validAnswer,
	} {
		t.Run(name, func(t *testing.T) {
			out, err := NewParser(nil).Parse(raw, c, o)
			require.NoError(t, err)
			assert.Equal(t, domain.SourceStructured, out.Path)
			assert.Empty(t, out.Reason)
			assert.Equal(t, 82.0, out.Result.MatchScore)
			assert.Equal(t, domain.FitGood, out.Result.FitLevel)
			assert.Equal(t, 0.9, out.Result.ConfidenceScore)
			assert.Equal(t, []string{"Java"}, out.Result.SkillAlignment.Missing)
			assert.NoError(t, out.Result.Validate())
		})
	}
}

func TestParseStructuredFoldsFitLevelCase(t *testing.T) {
	c, o := pair(t)
	raw := strings.Replace(validAnswer, `"good fit"`, `" Good Fit "`, 1)

	out, err := NewParser(nil).Parse(raw, c, o)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceStructured, out.Path)
	assert.Equal(t, domain.FitGood, out.Result.FitLevel)
	assert.Equal(t, 82.0, out.Result.MatchScore)
}

func TestParseFallsBackOnInvalidFields(t *testing.T) {
	c, o := pair(t)

	tests := map[string]string{
		"score out of range":      strings.Replace(validAnswer, `"match_score": 82`, `"match_score": 182`, 1),
		"confidence out of range": strings.Replace(validAnswer, `"confidence_score": 0.9`, `"confidence_score": 9`, 1),
		"unknown fit level":       strings.Replace(validAnswer, `"good fit"`, `"great fit"`, 1),
		"missing field":           strings.Replace(validAnswer, `"strengths": ["Python depth"],`, "", 1),
		"short explanation":       strings.Replace(validAnswer, "The candidate covers most of the stack and has shipped comparable products before.", "ok", 1),
		"truncated json":          validAnswer[:len(validAnswer)-10],
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			out, err := NewParser(nil).Parse(raw, c, o)
			require.NoError(t, err)
			assert.Equal(t, domain.SourceFallback, out.Path)
			assert.NotEmpty(t, out.Reason)
			assert.Equal(t, FallbackConfidence, out.Result.ConfidenceScore)
			assert.NoError(t, out.Result.Validate())
		})
	}
}

func TestParseProseFallback(t *testing.T) {
	c, o := pair(t)
	raw := "The candidate looks reasonable overall.\nScore: 62 out of 100\nThey would need to learn Java."

	out, err := NewParser(nil).Parse(raw, c, o)
	require.NoError(t, err)

	r := out.Result
	assert.Equal(t, domain.SourceFallback, out.Path)
	assert.Equal(t, 62.0, r.MatchScore)
	assert.Equal(t, domain.FitModerate, r.FitLevel)
	assert.Equal(t, 0.7, r.ConfidenceScore)
	assert.Equal(t, raw, r.Explanation)

	assert.Equal(t, []string{"Python", "React"}, r.SkillAlignment.Matched)
	assert.Equal(t, []string{"Java", "Go", "Kubernetes"}, r.SkillAlignment.Missing)
	assert.Equal(t, []string{"Docker", "SQL"}, r.SkillAlignment.Extra)
	assert.InDelta(t, 40.0, r.SkillAlignment.MatchPercentage, 1e-9)

	assert.Equal(t, []string{"Strong in: Python, React"}, r.Strengths)
	assert.Equal(t, []string{"Missing: Java, Go, Kubernetes"}, r.Concerns)
	assert.Equal(t, []string{"Consider learning missing skills", "Highlight relevant experience"}, r.Recommendations)
}

func TestParseRequiresRecords(t *testing.T) {
	_, o := pair(t)
	_, err := NewParser(nil).Parse(validAnswer, nil, o)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestFallbackFitLevelFollowsScore(t *testing.T) {
	c, o := pair(t)
	cases := map[string]domain.FitLevel{
		"score 90": domain.FitStrong,
		"score 72": domain.FitGood,
		"score 50": domain.FitWeak,
		"score 45": domain.FitWeak,
		"score 10": domain.FitPoor,
	}
	for raw, want := range cases {
		r := Fallback(raw+"\nthis is a strong fit", c, o)
		assert.Equal(t, want, r.FitLevel, raw)
	}
}

func TestExtractScore(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"Score: 62 out of 100", 62},
		{"overall SCORE is 250", 100},
		{"Some 40 words first\nfinal score - 55/100", 55},
		{"score: unknown\nanother score 33", 33},
		{"no number here", DefaultFallbackScore},
		{"", DefaultFallbackScore},
		{"The score was 7.9", 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractScore(tt.raw), tt.raw)
	}
}

func TestFallbackExplanation(t *testing.T) {
	c, o := pair(t)

	long := strings.Repeat("я", MaxExplanationRunes+20)
	r := Fallback(long, c, o)
	assert.Equal(t, strings.Repeat("я", MaxExplanationRunes)+"...", r.Explanation)

	r = Fallback("   ", c, o)
	assert.Equal(t, DefaultFallbackScore, r.MatchScore)
	assert.NotEmpty(t, strings.TrimSpace(r.Explanation))
	assert.NoError(t, r.Validate())
}

func TestFallbackWithoutOverlap(t *testing.T) {
	c, err := domain.NewCandidate(domain.Candidate{Skills: []string{"Go"}})
	require.NoError(t, err)
	o, err := domain.NewOpportunity(domain.Opportunity{RequiredSkills: []string{"Go"}})
	require.NoError(t, err)

	r := Fallback("score 80", c, o)
	assert.Equal(t, []string{"Strong in: Go"}, r.Strengths)
	assert.Equal(t, []string{"No major concerns identified"}, r.Concerns)

	c, err = domain.NewCandidate(domain.Candidate{Skills: []string{"Rust"}})
	require.NoError(t, err)
	r = Fallback("score 20", c, o)
	assert.Equal(t, []string{"Good foundational skills"}, r.Strengths)
}

func TestDeterministic(t *testing.T) {
	c, o := pair(t)
	s, err := scoring.New(scoring.DefaultConfig())
	require.NoError(t, err)

	res := s.Score(c, o, 0)
	r := Deterministic(c, o, res, false)

	require.NoError(t, r.Validate())
	assert.Equal(t, domain.SourceDeterministic, r.Source)
	assert.InDelta(t, res.Percent(), r.MatchScore, 0.01)
	assert.Equal(t, domain.FitLevelForScore(r.MatchScore), r.FitLevel)
	assert.Equal(t, DeterministicConfidenceDegraded, r.ConfidenceScore)
	assert.Contains(t, r.Concerns, "Experience gap: 1 years short of requirement")
	assert.Contains(t, r.Concerns, "Missing: Java, Go, Kubernetes")
	assert.Contains(t, r.Explanation, "Semantic similarity was unavailable")
	assert.True(t, strings.HasPrefix(r.Explanation, "Limited match"))

	r = Deterministic(c, o, s.Score(c, o, 0.9), true)
	assert.Equal(t, DeterministicConfidence, r.ConfidenceScore)
}

func TestDeterministicSalaryConcern(t *testing.T) {
	c, err := domain.NewCandidate(domain.Candidate{Skills: []string{"Go"}, ExperienceYears: 6, SalaryExpectation: 200})
	require.NoError(t, err)
	o, err := domain.NewOpportunity(domain.Opportunity{
		RequiredSkills: []string{"Go"},
		SalaryRange:    domain.SalaryRange{Min: 50, Max: 100},
		RemoteFriendly: true,
	})
	require.NoError(t, err)
	s, err := scoring.New(scoring.DefaultConfig())
	require.NoError(t, err)

	r := Deterministic(c, o, s.Score(c, o, 1), true)
	assert.Contains(t, r.Concerns, "Salary expectation exceeds offered range")
	assert.Contains(t, r.Strengths, "Meets experience requirements")
	assert.Contains(t, r.Strengths, "Location is compatible")
	assert.Equal(t, []string{"Highlight relevant experience"}, r.Recommendations)
}

func TestMatchReason(t *testing.T) {
	assert.Equal(t, "Excellent match with strong alignment in skills and experience", MatchReason(0.8))
	assert.Equal(t, "Good match with some relevant skills and experience", MatchReason(0.65))
	assert.Equal(t, "Moderate match with potential for growth", MatchReason(0.4))
	assert.Equal(t, "Limited match, may require significant training", MatchReason(0.1))
}
