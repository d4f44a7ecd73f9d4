package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ExperienceLevel is the seniority an opportunity asks for.
type ExperienceLevel string

const (
	LevelEntry  ExperienceLevel = "entry"
	LevelMid    ExperienceLevel = "mid"
	LevelSenior ExperienceLevel = "senior"
)

var levelYears = map[ExperienceLevel]float64{
	LevelEntry:  0,
	LevelMid:    2,
	LevelSenior: 5,
}

// Years returns the default experience requirement of the level.
func (l ExperienceLevel) Years() float64 {
	return levelYears[l]
}

// SalaryRange is the compensation band of an opportunity. Zero means unset.
type SalaryRange struct {
	Min float64 `json:"min,omitempty" mapstructure:"min" validate:"gte=0"`
	Max float64 `json:"max,omitempty" mapstructure:"max" validate:"gte=0"`
}

// Opportunity is a job, internship or placement being matched against.
type Opportunity struct {
	ID                      string          `json:"id,omitempty" mapstructure:"id"`
	Title                   string          `json:"title,omitempty" mapstructure:"title"`
	Description             string          `json:"description,omitempty" mapstructure:"description"`
	RequiredSkills          []string        `json:"required_skills" mapstructure:"required_skills" validate:"required,min=1,dive,notblank"`
	Industry                string          `json:"industry,omitempty" mapstructure:"industry"`
	Location                string          `json:"location,omitempty" mapstructure:"location"`
	ExperienceLevel         ExperienceLevel `json:"experience_level,omitempty" mapstructure:"experience_level" validate:"omitempty,oneof=entry mid senior"`
	RequiredExperienceYears *float64        `json:"required_experience_years,omitempty" mapstructure:"required_experience_years" validate:"omitempty,gte=0"`
	SalaryRange             SalaryRange     `json:"salary_range" mapstructure:"salary_range"`
	RemoteFriendly          bool            `json:"remote_friendly" mapstructure:"remote_friendly"`
	Preferences             map[string]any  `json:"preferences,omitempty" mapstructure:"preferences"`
}

// NewOpportunity returns a normalized, validated copy of o.
func NewOpportunity(o Opportunity) (*Opportunity, error) {
	out := o.clone()
	out.ID = strings.TrimSpace(out.ID)
	out.Location = strings.TrimSpace(out.Location)
	out.RequiredSkills = NormalizeSkillList(out.RequiredSkills)
	out.ExperienceLevel = ExperienceLevel(strings.ToLower(strings.TrimSpace(string(out.ExperienceLevel))))
	if out.ExperienceLevel == "" {
		out.ExperienceLevel = LevelEntry
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate checks the opportunity invariants.
func (o *Opportunity) Validate() error {
	if o == nil {
		return NewValidationError("opportunity", "opportunity is required")
	}
	if err := validateStruct(o, opportunityMessages); err != nil {
		return err
	}
	if o.SalaryRange.Max > 0 && o.SalaryRange.Min > o.SalaryRange.Max {
		return NewValidationError("salary_range", "Salary range minimum exceeds maximum")
	}
	return nil
}

// RequiredYears is the explicit requirement when set, else the level default.
func (o *Opportunity) RequiredYears() float64 {
	if o.RequiredExperienceYears != nil {
		return *o.RequiredExperienceYears
	}
	return o.ExperienceLevel.Years()
}

// Text is the blob handed to the embedding provider.
func (o *Opportunity) Text() string {
	parts := []string{
		o.Title,
		o.Description,
		strings.Join(o.RequiredSkills, " "),
		o.Industry,
	}
	if o.ExperienceLevel != "" {
		parts = append(parts, fmt.Sprintf("%s level", o.ExperienceLevel))
	}
	return joinNonEmpty(parts)
}

func (o Opportunity) clone() Opportunity {
	o.RequiredSkills = slices.Clone(o.RequiredSkills)
	o.Preferences = maps.Clone(o.Preferences)
	if o.RequiredExperienceYears != nil {
		years := *o.RequiredExperienceYears
		o.RequiredExperienceYears = &years
	}
	return o
}

var opportunityMessages = map[string]string{
	"RequiredSkills":          "Required skills list cannot be empty",
	"ExperienceLevel":         "Experience level must be one of entry, mid, senior",
	"RequiredExperienceYears": "Required experience years must not be negative",
	"Min":                     "Salary must not be negative",
	"Max":                     "Salary must not be negative",
}
