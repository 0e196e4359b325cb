// Package types provides type definitions for structured data used throughout the cv-synth system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CareerLevel is the seniority of a persona or of a single job
type CareerLevel string

// Career levels, ordered from least to most senior
const (
	LevelJunior CareerLevel = "junior"
	LevelMid    CareerLevel = "mid"
	LevelSenior CareerLevel = "senior"
	LevelLead   CareerLevel = "lead"
)

// CareerLevels lists all levels in ascending order
var CareerLevels = []CareerLevel{LevelJunior, LevelMid, LevelSenior, LevelLead}

// Rank returns 1 (junior) through 4 (lead), or 0 for an unknown level
func (l CareerLevel) Rank() int {
	switch l {
	case LevelJunior:
		return 1
	case LevelMid:
		return 2
	case LevelSenior:
		return 3
	case LevelLead:
		return 4
	default:
		return 0
	}
}

// Valid reports whether l is one of the known levels
func (l CareerLevel) Valid() bool {
	return l.Rank() > 0
}

// LevelForRank is the inverse of Rank; out-of-range values are clamped
func LevelForRank(rank int) CareerLevel {
	if rank < 1 {
		rank = 1
	}
	if rank > len(CareerLevels) {
		rank = len(CareerLevels)
	}
	return CareerLevels[rank-1]
}

// ParseCareerLevel normalizes a level string
func ParseCareerLevel(s string) (CareerLevel, error) {
	l := CareerLevel(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown career level %q", s)
	}
	return l, nil
}

// MinWorkingAge is the earliest age at which any period may start
const MinWorkingAge = 16

// ExperienceStartAge is the age from which declared experience is counted.
// A persona may claim at most Age-ExperienceStartAge years.
const ExperienceStartAge = 18

// ErrExperienceExceedsAge is returned when a persona claims more experience than its age allows
var ErrExperienceExceedsAge = errors.New("experience exceeds age minus experience start age")

// Persona is the sampled demographic profile a timeline is built from
type Persona struct {
	Age                int         `json:"age" validate:"gte=18,lte=65"`
	ExperienceYears    int         `json:"experience_years" validate:"gte=0"`
	CareerLevel        CareerLevel `json:"career_level" validate:"required,oneof=junior mid senior lead"`
	EducationStartYear int         `json:"education_start_year" validate:"gte=1950"`
	EducationDuration  int         `json:"education_duration" validate:"gte=1,lte=10"`
	Canton             string      `json:"canton,omitempty"`
	Industry           string      `json:"industry,omitempty"`
	Occupation         string      `json:"occupation,omitempty"`
	Language           string      `json:"language,omitempty" validate:"omitempty,oneof=de fr it en"`
	FirstName          string      `json:"first_name,omitempty"`
	LastName           string      `json:"last_name,omitempty"`
}

// Validate checks field bounds and that experience fits within age-18
func (p *Persona) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return err
	}
	if p.ExperienceYears > p.MaxExperienceYears() {
		return fmt.Errorf("%w: %d years at age %d (max %d)", ErrExperienceExceedsAge, p.ExperienceYears, p.Age, p.MaxExperienceYears())
	}
	return nil
}

// MaxExperienceYears is the most experience the persona's age allows
func (p *Persona) MaxExperienceYears() int {
	return p.Age - ExperienceStartAge
}
