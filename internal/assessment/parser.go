// Package assessment turns untrusted generative assessments into validated
// match results. A strict schema decode is tried first; anything that fails
// it goes through a deterministic fallback extractor.
package assessment

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/domain"
	"github.com/spigell/talent-matcher/internal/scoring"
)

// Outcome is a parsed assessment together with the path that produced it.
type Outcome struct {
	Result *domain.MatchResult
	Path   domain.Source
	// Reason is why the structured path was rejected. Empty for structured
	// results.
	Reason string
}

// Parser decodes provider output into a MatchResult.
type Parser struct {
	logger *zap.Logger
}

// NewParser returns a parser. A nil logger is replaced with a no-op one.
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

type document struct {
	MatchScore     float64   `json:"match_score"`
	FitLevel       string    `json:"fit_level"`
	SkillAlignment alignment `json:"skill_alignment"`
	Explanation    string    `json:"explanation"`
	Strengths      []string  `json:"strengths"`
	Concerns       []string  `json:"concerns"`
	Recommend      []string  `json:"recommendations"`
	Confidence     float64   `json:"confidence_score"`
}

type alignment struct {
	Matched         []string `json:"matched_skills"`
	Missing         []string `json:"missing_skills"`
	Extra           []string `json:"extra_skills"`
	MatchPercentage float64  `json:"match_percentage"`
}

// Parse never reports a malformed answer as an error: it falls back to the
// heuristic extractor instead. An error means the records themselves are
// unusable.
func (p *Parser) Parse(raw string, c *domain.Candidate, o *domain.Opportunity) (Outcome, error) {
	if c == nil || o == nil {
		return Outcome{}, domain.NewValidationError("assessment", "candidate and opportunity are required")
	}

	result, err := decodeStructured(raw)
	if err == nil {
		return Outcome{Result: result, Path: domain.SourceStructured}, nil
	}

	p.logger.Debug("structured assessment rejected, using fallback",
		zap.String("reason", err.Error()),
	)

	result = Fallback(raw, c, o)
	if verr := result.Validate(); verr != nil {
		return Outcome{}, fmt.Errorf("fallback result is invalid: %w", verr)
	}
	return Outcome{Result: result, Path: domain.SourceFallback, Reason: err.Error()}, nil
}

func decodeStructured(raw string) (*domain.MatchResult, error) {
	doc := extractJSON(raw)
	if doc == "" {
		return nil, &domain.Error{Kind: domain.KindParse, Field: "assessment", Message: "no JSON object found"}
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(doc), &payload); err != nil {
		return nil, &domain.Error{Kind: domain.KindParse, Field: "assessment", Message: "decode failed", Cause: err}
	}
	normalizeFitLevel(payload)

	if err := validateDocument(payload); err != nil {
		return nil, &domain.Error{Kind: domain.KindParse, Field: "assessment", Message: "does not match schema", Cause: err}
	}

	d, err := toDocument(payload)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindParse, Field: "assessment", Message: "decode failed", Cause: err}
	}

	result := &domain.MatchResult{
		MatchScore: d.MatchScore,
		FitLevel:   domain.FitLevel(d.FitLevel),
		SkillAlignment: domain.SkillAlignment{
			Matched:         nonNil(d.SkillAlignment.Matched),
			Missing:         nonNil(d.SkillAlignment.Missing),
			Extra:           nonNil(d.SkillAlignment.Extra),
			MatchPercentage: d.SkillAlignment.MatchPercentage,
		},
		Explanation:     strings.TrimSpace(d.Explanation),
		Strengths:       nonNil(d.Strengths),
		Concerns:        nonNil(d.Concerns),
		Recommendations: nonNil(d.Recommend),
		ConfidenceScore: d.Confidence,
		Source:          domain.SourceStructured,
	}
	if err := result.Validate(); err != nil {
		return nil, &domain.Error{Kind: domain.KindParse, Field: "assessment", Message: "field out of range", Cause: err}
	}
	return result, nil
}

// normalizeFitLevel folds case and surrounding space of the fit level so
// labels such as "Strong Fit" pass the enum check.
func normalizeFitLevel(payload map[string]any) {
	if level, ok := payload["fit_level"].(string); ok {
		payload["fit_level"] = strings.ToLower(strings.TrimSpace(level))
	}
}

func toDocument(payload map[string]any) (document, error) {
	var d document
	data, err := json.Marshal(payload)
	if err != nil {
		return d, err
	}
	err = json.Unmarshal(data, &d)
	return d, err
}

// extractJSON strips markdown fences and surrounding prose, returning the
// outermost object or "" when there is none.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.TrimSpace(strings.Trim(raw, "`"))

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return ""
	}
	return raw[start : end+1]
}

func nonNil(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// alignmentFor recomputes the skill alignment from the records.
func alignmentFor(c *domain.Candidate, o *domain.Opportunity) domain.SkillAlignment {
	return scoring.AlignSkills(c.Skills, o.RequiredSkills)
}
