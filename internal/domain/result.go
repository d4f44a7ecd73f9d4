package domain

import (
	"fmt"
	"time"
)

// FitLevel is the five-point classification derived from a match score.
type FitLevel string

const (
	FitStrong   FitLevel = "strong fit"
	FitGood     FitLevel = "good fit"
	FitModerate FitLevel = "moderate fit"
	FitWeak     FitLevel = "weak fit"
	FitPoor     FitLevel = "poor fit"
)

// Fit level thresholds on the 0-100 scale.
const (
	StrongFitThreshold   = 85.0
	GoodFitThreshold     = 70.0
	ModerateFitThreshold = 55.0
	WeakFitThreshold     = 40.0
)

// FitLevels lists the accepted levels from best to worst.
var FitLevels = []FitLevel{FitStrong, FitGood, FitModerate, FitWeak, FitPoor}

// FitLevelForScore maps a 0-100 score onto a fit level. It is the only way a
// level is ever derived; free text is never consulted.
func FitLevelForScore(score float64) FitLevel {
	switch {
	case score >= StrongFitThreshold:
		return FitStrong
	case score >= GoodFitThreshold:
		return FitGood
	case score >= ModerateFitThreshold:
		return FitModerate
	case score >= WeakFitThreshold:
		return FitWeak
	default:
		return FitPoor
	}
}

// Valid reports whether l is one of the enumerated levels.
func (l FitLevel) Valid() bool {
	for _, known := range FitLevels {
		if l == known {
			return true
		}
	}
	return false
}

// Source records which path produced a MatchResult.
type Source string

const (
	// SourceStructured is a provider answer that passed strict decoding.
	SourceStructured Source = "structured"
	// SourceFallback is a provider answer recovered by the heuristic extractor.
	SourceFallback Source = "fallback"
	// SourceDeterministic is a result built without any generative text.
	SourceDeterministic Source = "deterministic"
)

// SkillAlignment compares candidate skills with the required ones.
type SkillAlignment struct {
	Matched         []string `json:"matched_skills"`
	Missing         []string `json:"missing_skills"`
	Extra           []string `json:"extra_skills"`
	MatchPercentage float64  `json:"match_percentage"`
}

// SignalBreakdown keeps every input of the composite score.
type SignalBreakdown struct {
	Semantic   float64 `json:"semantic_similarity"`
	Skills     float64 `json:"skills_match"`
	Experience float64 `json:"experience_match"`
	Location   float64 `json:"location_match"`
	Salary     float64 `json:"salary_match"`
}

// MatchResult is the outcome for one candidate/opportunity pair. It is
// created once and handed to the caller.
type MatchResult struct {
	ID                string          `json:"id"`
	CandidateID       string          `json:"candidate_id"`
	OpportunityID     string          `json:"opportunity_id"`
	MatchScore        float64         `json:"match_score"`
	WeightedScore     float64         `json:"weighted_score"`
	FitLevel          FitLevel        `json:"fit_level"`
	SkillAlignment    SkillAlignment  `json:"skill_alignment"`
	Breakdown         SignalBreakdown `json:"breakdown"`
	Explanation       string          `json:"explanation"`
	Strengths         []string        `json:"strengths"`
	Concerns          []string        `json:"concerns"`
	Recommendations   []string        `json:"recommendations"`
	ConfidenceScore   float64         `json:"confidence_score"`
	Source            Source          `json:"source"`
	SemanticAvailable bool            `json:"semantic_available"`
	Timestamp         time.Time       `json:"timestamp"`
}

// Validate checks that every field a caller relies on is populated and in
// range.
func (r *MatchResult) Validate() error {
	switch {
	case r == nil:
		return NewValidationError("match_result", "result is required")
	case r.MatchScore < 0 || r.MatchScore > 100:
		return NewValidationError("match_score", fmt.Sprintf("score %.2f is outside [0,100]", r.MatchScore))
	case r.WeightedScore < 0 || r.WeightedScore > 1:
		return NewValidationError("weighted_score", fmt.Sprintf("score %.4f is outside [0,1]", r.WeightedScore))
	case r.ConfidenceScore < 0 || r.ConfidenceScore > 1:
		return NewValidationError("confidence_score", fmt.Sprintf("confidence %.2f is outside [0,1]", r.ConfidenceScore))
	case !r.FitLevel.Valid():
		return NewValidationError("fit_level", fmt.Sprintf("unknown fit level %q", r.FitLevel))
	case r.Explanation == "":
		return NewValidationError("explanation", "explanation is required")
	case r.Strengths == nil || r.Concerns == nil || r.Recommendations == nil:
		return NewValidationError("match_result", "strengths, concerns and recommendations are required")
	}
	return nil
}
