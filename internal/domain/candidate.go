package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Education describes the highest relevant education of a candidate.
type Education struct {
	Degree         string `json:"degree,omitempty" mapstructure:"degree"`
	Field          string `json:"field,omitempty" mapstructure:"field"`
	Institution    string `json:"institution,omitempty" mapstructure:"institution"`
	GraduationYear int    `json:"graduation_year,omitempty" mapstructure:"graduation_year" validate:"gte=0"`
}

func (e Education) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{e.Degree, e.Field, e.Institution} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if e.GraduationYear > 0 {
		parts = append(parts, fmt.Sprintf("%d", e.GraduationYear))
	}
	return strings.Join(parts, ", ")
}

// Project is a piece of work listed by a candidate.
type Project struct {
	Name         string   `json:"name,omitempty" mapstructure:"name"`
	Description  string   `json:"description,omitempty" mapstructure:"description"`
	Technologies []string `json:"technologies,omitempty" mapstructure:"technologies"`
}

// Candidate is a person being matched. Build it with NewCandidate or
// DecodeCandidate; the engine never mutates it.
type Candidate struct {
	ID                string             `json:"id,omitempty" mapstructure:"id"`
	Skills            []string           `json:"skills" mapstructure:"skills" validate:"required,min=1,dive,notblank"`
	Education         Education          `json:"education" mapstructure:"education"`
	Location          string             `json:"location,omitempty" mapstructure:"location"`
	ExperienceYears   float64            `json:"experience_years" mapstructure:"experience_years" validate:"gte=0"`
	SoftSkillScores   map[string]float64 `json:"soft_skill_scores,omitempty" mapstructure:"soft_skill_scores" validate:"dive,gte=0,lte=1"`
	Projects          []Project          `json:"projects,omitempty" mapstructure:"projects"`
	Certifications    []string           `json:"certifications,omitempty" mapstructure:"certifications"`
	Languages         []string           `json:"languages,omitempty" mapstructure:"languages"`
	SalaryExpectation float64            `json:"salary_expectation,omitempty" mapstructure:"salary_expectation" validate:"gte=0"`
	ResumeText        string             `json:"resume_text,omitempty" mapstructure:"resume_text"`
}

// NewCandidate returns a normalized, validated copy of c.
func NewCandidate(c Candidate) (*Candidate, error) {
	out := c.clone()
	out.ID = strings.TrimSpace(out.ID)
	out.Location = strings.TrimSpace(out.Location)
	out.Skills = NormalizeSkillList(out.Skills)
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate checks the candidate invariants.
func (c *Candidate) Validate() error {
	if c == nil {
		return NewValidationError("candidate", "candidate is required")
	}
	return validateStruct(c, candidateMessages)
}

// Text is the blob handed to the embedding provider.
func (c *Candidate) Text() string {
	parts := []string{strings.Join(c.Skills, " ")}
	if c.ExperienceYears > 0 {
		parts = append(parts, fmt.Sprintf("%g years of experience", c.ExperienceYears))
	}
	if edu := c.Education.String(); edu != "" {
		parts = append(parts, edu)
	}
	for _, p := range c.Projects {
		parts = append(parts, p.Name, p.Description, strings.Join(p.Technologies, " "))
	}
	parts = append(parts, c.Certifications...)
	parts = append(parts, c.Languages...)
	parts = append(parts, c.ResumeText)
	return joinNonEmpty(parts)
}

func (c Candidate) clone() Candidate {
	c.Skills = slices.Clone(c.Skills)
	c.SoftSkillScores = maps.Clone(c.SoftSkillScores)
	c.Certifications = slices.Clone(c.Certifications)
	c.Languages = slices.Clone(c.Languages)
	if c.Projects != nil {
		projects := make([]Project, len(c.Projects))
		for i, p := range c.Projects {
			p.Technologies = slices.Clone(p.Technologies)
			projects[i] = p
		}
		c.Projects = projects
	}
	return c
}

var candidateMessages = map[string]string{
	"Skills":            "Skills list cannot be empty",
	"ExperienceYears":   "Experience years must not be negative",
	"SoftSkillScores":   "Soft skill scores must be between 0 and 1",
	"SalaryExpectation": "Salary expectation must not be negative",
	"GraduationYear":    "Graduation year must not be negative",
}

// NormalizeSkillList trims skills and drops blanks and case-insensitive
// duplicates, keeping the first spelling.
func NormalizeSkillList(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

func joinNonEmpty(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
