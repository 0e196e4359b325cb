// Package types provides type definitions for structured data used throughout the cv-synth system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "github.com/jonathan/cv-synth/internal/dates"

// Education is one education entry of an assembled CV
type Education struct {
	Institution string           `json:"institution"`
	Degree      string           `json:"degree"`
	Start       dates.YearMonth  `json:"start"`
	End         *dates.YearMonth `json:"end,omitempty"`
}

// Job is one employment entry of an assembled CV
type Job struct {
	Company      string           `json:"company"`
	Position     string           `json:"position"`
	Level        CareerLevel      `json:"level"`
	Industry     string           `json:"industry,omitempty"`
	Canton       string           `json:"canton,omitempty"`
	Start        dates.YearMonth  `json:"start"`
	End          *dates.YearMonth `json:"end,omitempty"`
	Achievements []string         `json:"achievements"`
}

// Gap is an explained absence carried on an assembled CV
type Gap struct {
	Kind  GapKind          `json:"kind"`
	Label string           `json:"label"`
	Start dates.YearMonth  `json:"start"`
	End   *dates.YearMonth `json:"end,omitempty"`
}

// Document is a fully assembled candidate CV
type Document struct {
	ID              string      `json:"id,omitempty"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	Email           string      `json:"email,omitempty"`
	Phone           string      `json:"phone,omitempty"`
	Canton          string      `json:"canton,omitempty"`
	Language        string      `json:"language,omitempty"`
	Occupation      string      `json:"occupation,omitempty"`
	Industry        string      `json:"industry,omitempty"`
	Age             int         `json:"age"`
	ExperienceYears int         `json:"experience_years"`
	CareerLevel     CareerLevel `json:"career_level"`
	Summary         string      `json:"summary"`
	Education       []Education `json:"education"`
	Jobs            []Job       `json:"jobs"`
	Gaps            []Gap       `json:"gaps,omitempty"`
	Skills          []string    `json:"skills,omitempty"`
}

// Periods flattens the document into a sorted period list. Job indices
// follow chronological order, 0 being the oldest.
func (d *Document) Periods() []Period {
	periods := make([]Period, 0, len(d.Education)+len(d.Jobs)+len(d.Gaps))
	for _, e := range d.Education {
		periods = append(periods, Period{Kind: PeriodEducation, Start: e.Start, End: copyEnd(e.End), Label: e.Institution})
	}
	for _, j := range d.Jobs {
		periods = append(periods, Period{
			Kind:  PeriodJob,
			Start: j.Start,
			End:   copyEnd(j.End),
			Label: j.Position,
			Job: &JobDetails{
				Level:        j.Level,
				Employer:     j.Company,
				Industry:     j.Industry,
				Position:     j.Position,
				Achievements: append([]string(nil), j.Achievements...),
			},
		})
	}
	for _, g := range d.Gaps {
		periods = append(periods, Period{Kind: PeriodGap, Start: g.Start, End: copyEnd(g.End), Label: g.Label, GapKind: g.Kind})
	}
	SortPeriods(periods)
	idx := 0
	for i := range periods {
		if periods[i].Job != nil {
			periods[i].Job.Index = idx
			idx++
		}
	}
	return periods
}

// Persona returns the persona attributes carried on the document
func (d *Document) Persona() Persona {
	p := Persona{
		Age:             d.Age,
		ExperienceYears: d.ExperienceYears,
		CareerLevel:     d.CareerLevel,
		Canton:          d.Canton,
		Industry:        d.Industry,
		Occupation:      d.Occupation,
		Language:        d.Language,
		FirstName:       d.FirstName,
		LastName:        d.LastName,
	}
	if len(d.Education) > 0 {
		first := d.Education[0]
		for _, e := range d.Education[1:] {
			if e.Start.Before(first.Start) {
				first = e
			}
		}
		p.EducationStartYear = first.Start.Year
		if first.End != nil {
			p.EducationDuration = first.End.Year - first.Start.Year
		}
	}
	return p
}

// AllAchievements returns every achievement statement in job order
func (d *Document) AllAchievements() []string {
	var out []string
	for _, j := range d.Jobs {
		out = append(out, j.Achievements...)
	}
	return out
}

func copyEnd(end *dates.YearMonth) *dates.YearMonth {
	if end == nil {
		return nil
	}
	e := *end
	return &e
}
