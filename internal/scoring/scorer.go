// Package scoring combines the deterministic match signals into one
// composite score.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spigell/talent-matcher/internal/domain"
)

// Default weights of the composite score.
const (
	DefaultSemanticWeight   = 0.4
	DefaultSkillsWeight     = 0.3
	DefaultExperienceWeight = 0.2
	DefaultLocationWeight   = 0.05
	DefaultSalaryWeight     = 0.05
)

// Default signal constants.
const (
	DefaultNeutralSkills       = 0.5
	DefaultOverqualifiedFactor = 2.0
	DefaultOverqualifiedFit    = 0.8
	DefaultSameRegionLocation  = 0.7
	DefaultUnrelatedLocation   = 0.3
	DefaultUnspecifiedLocation = 0.5
	weightSumTolerance         = 1e-6
)

// Weights are the per-signal multipliers. They must sum to 1.
type Weights struct {
	Semantic   float64
	Skills     float64
	Experience float64
	Location   float64
	Salary     float64
}

func (w Weights) sum() float64 {
	return w.Semantic + w.Skills + w.Experience + w.Location + w.Salary
}

// Config holds every constant the scorer uses.
type Config struct {
	Weights Weights

	// NeutralSkills is returned for skills when nothing is required.
	NeutralSkills float64
	// OverqualifiedFactor times the requirement is where the penalty starts.
	OverqualifiedFactor float64
	// OverqualifiedFit is the experience fit past that point.
	OverqualifiedFit float64

	SameRegionLocation  float64
	UnrelatedLocation   float64
	UnspecifiedLocation float64
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Semantic:   DefaultSemanticWeight,
			Skills:     DefaultSkillsWeight,
			Experience: DefaultExperienceWeight,
			Location:   DefaultLocationWeight,
			Salary:     DefaultSalaryWeight,
		},
		NeutralSkills:       DefaultNeutralSkills,
		OverqualifiedFactor: DefaultOverqualifiedFactor,
		OverqualifiedFit:    DefaultOverqualifiedFit,
		SameRegionLocation:  DefaultSameRegionLocation,
		UnrelatedLocation:   DefaultUnrelatedLocation,
		UnspecifiedLocation: DefaultUnspecifiedLocation,
	}
}

// Validate rejects negative or unbalanced weights and constants outside [0,1].
func (c Config) Validate() error {
	w := c.Weights
	for _, f := range []namedValue{
		{"semantic", w.Semantic}, {"skills", w.Skills}, {"experience", w.Experience},
		{"location", w.Location}, {"salary", w.Salary},
	} {
		if f.value < 0 {
			return fmt.Errorf("weight %s must not be negative", f.name)
		}
	}
	if math.Abs(w.sum()-1) > weightSumTolerance {
		return fmt.Errorf("weights must sum to 1, got %.4f", w.sum())
	}

	for _, f := range []namedValue{
		{"neutral skills", c.NeutralSkills}, {"overqualified fit", c.OverqualifiedFit},
		{"same region location", c.SameRegionLocation}, {"unrelated location", c.UnrelatedLocation},
		{"unspecified location", c.UnspecifiedLocation},
	} {
		if f.value < 0 || f.value > 1 {
			return fmt.Errorf("%s must be within [0,1], got %.4f", f.name, f.value)
		}
	}
	if c.OverqualifiedFactor < 1 {
		return errors.New("overqualified factor must be at least 1")
	}
	return nil
}

type namedValue struct {
	name  string
	value float64
}

// Result is the composite score in [0,1] with the signals behind it.
type Result struct {
	Score     float64
	Breakdown domain.SignalBreakdown
}

// Percent is the score on the 0-100 presentation scale.
func (r Result) Percent() float64 {
	return r.Score * 100
}

// Scorer is the deterministic multi-signal scorer. It is safe for concurrent
// use and never blocks.
type Scorer struct {
	cfg Config
}

// New returns a scorer for cfg.
func New(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}
	return &Scorer{cfg: cfg}, nil
}

// Config returns the constants in use.
func (s *Scorer) Config() Config {
	return s.cfg
}

// Score combines the signals for a pair. semantic is the precomputed
// similarity, 0 when the provider was unavailable. Identical inputs always
// give an identical result.
func (s *Scorer) Score(c *domain.Candidate, o *domain.Opportunity, semantic float64) Result {
	b := domain.SignalBreakdown{
		Semantic:   clamp01(semantic),
		Skills:     s.SkillsJaccard(c.Skills, o.RequiredSkills),
		Experience: s.ExperienceFit(c.ExperienceYears, RequiredExperience(o)),
		Location:   s.LocationFit(c, o),
		Salary:     s.SalaryFit(SalaryExpectation(c), SalaryCeiling(o)),
	}

	w := s.cfg.Weights
	score := w.Semantic*b.Semantic +
		w.Skills*b.Skills +
		w.Experience*b.Experience +
		w.Location*b.Location +
		w.Salary*b.Salary

	return Result{Score: clamp01(score), Breakdown: b}
}

// SkillsJaccard is |C ∩ R| / |C ∪ R| over normalized skills. An empty
// requirement yields the neutral value.
func (s *Scorer) SkillsJaccard(candidate, required []string) float64 {
	want := SkillSet(required)
	if len(want) == 0 {
		return s.cfg.NeutralSkills
	}
	have := SkillSet(candidate)

	intersection := 0
	for k := range have {
		if _, ok := want[k]; ok {
			intersection++
		}
	}
	union := len(have) + len(want) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// ExperienceFit rates candidate years against the requirement.
func (s *Scorer) ExperienceFit(candidate, required float64) float64 {
	if required <= 0 {
		return 1
	}
	if candidate >= required {
		if candidate > required*s.cfg.OverqualifiedFactor {
			return s.cfg.OverqualifiedFit
		}
		return 1
	}
	if candidate <= 0 {
		return 0
	}
	return candidate / required
}

// LocationFit rates how well the candidate location suits the opportunity.
func (s *Scorer) LocationFit(c *domain.Candidate, o *domain.Opportunity) float64 {
	if IsRemote(o) {
		return 1
	}

	have := NormalizeLocation(c.Location)
	want := NormalizeLocation(o.Location)
	if have == "" || want == "" {
		return s.cfg.UnspecifiedLocation
	}
	if strings.Contains(want, have) || strings.Contains(have, want) {
		return 1
	}
	if region := RegionOf(have); region != "" && region == RegionOf(want) {
		return s.cfg.SameRegionLocation
	}
	return s.cfg.UnrelatedLocation
}

// SalaryFit rates the candidate expectation against the opportunity maximum.
func (s *Scorer) SalaryFit(expectation, ceiling float64) float64 {
	if expectation <= 0 || ceiling <= 0 || expectation <= ceiling {
		return 1
	}
	return clamp01(ceiling / expectation)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
