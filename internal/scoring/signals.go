package scoring

import (
	"strings"

	"github.com/spigell/talent-matcher/internal/domain"
)

// NormalizeSkill is the comparison key of a skill name.
func NormalizeSkill(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}

// SkillSet returns the normalized set of skills.
func SkillSet(skills []string) map[string]struct{} {
	set := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		if key := NormalizeSkill(s); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// AlignSkills splits skills into matched, missing and extra lists. Matched and
// missing keep the order of required, extra keeps the order of candidate.
func AlignSkills(candidate, required []string) domain.SkillAlignment {
	have := SkillSet(candidate)
	want := SkillSet(required)

	alignment := domain.SkillAlignment{
		Matched: []string{},
		Missing: []string{},
		Extra:   []string{},
	}

	seen := make(map[string]struct{}, len(required))
	for _, s := range required {
		key := NormalizeSkill(s)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := have[key]; ok {
			alignment.Matched = append(alignment.Matched, strings.TrimSpace(s))
		} else {
			alignment.Missing = append(alignment.Missing, strings.TrimSpace(s))
		}
	}

	for _, s := range candidate {
		key := NormalizeSkill(s)
		if key == "" {
			continue
		}
		if _, ok := want[key]; ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		alignment.Extra = append(alignment.Extra, strings.TrimSpace(s))
	}

	if len(want) > 0 {
		alignment.MatchPercentage = float64(len(alignment.Matched)) / float64(len(want)) * 100
	}
	return alignment
}

// RequiredExperience is the number of years the opportunity asks for.
func RequiredExperience(o *domain.Opportunity) float64 {
	years := o.RequiredYears()
	if years < 0 {
		return 0
	}
	return years
}

// NormalizeLocation lower-cases and trims a location string.
func NormalizeLocation(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}

// RegionOf returns the last comma separated part of a location, or "" when
// the location has no region suffix.
func RegionOf(location string) string {
	parts := strings.Split(NormalizeLocation(location), ",")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-1])
}

// IsRemote reports whether the opportunity can be done from anywhere.
func IsRemote(o *domain.Opportunity) bool {
	return o.RemoteFriendly || strings.Contains(NormalizeLocation(o.Location), "remote")
}

// SalaryExpectation returns the candidate expectation, 0 when unspecified.
func SalaryExpectation(c *domain.Candidate) float64 {
	if c.SalaryExpectation < 0 {
		return 0
	}
	return c.SalaryExpectation
}

// SalaryCeiling returns the opportunity maximum, 0 when unspecified.
func SalaryCeiling(o *domain.Opportunity) float64 {
	if o.SalaryRange.Max < 0 {
		return 0
	}
	return o.SalaryRange.Max
}
