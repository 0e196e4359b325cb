// Package types provides type definitions for structured data used throughout the cv-synth system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"sort"

	"github.com/jonathan/cv-synth/internal/dates"
)

// PeriodKind tags the variant of a Period
type PeriodKind string

// Period kinds
const (
	PeriodEducation PeriodKind = "education"
	PeriodJob       PeriodKind = "job"
	PeriodGap       PeriodKind = "gap"
)

// GapKind classifies an explained absence between two periods
type GapKind string

// Gap kinds, by the size bucket that produces them
const (
	GapShort      GapKind = "short"
	GapTraining   GapKind = "training"
	GapFreelance  GapKind = "freelance"
	GapParental   GapKind = "parental"
	GapSabbatical GapKind = "sabbatical"
	GapReject     GapKind = "reject"
)

// IsFiller reports whether the kind is represented by an inserted filler period
func (k GapKind) IsFiller() bool {
	switch k {
	case GapTraining, GapFreelance, GapParental, GapSabbatical:
		return true
	default:
		return false
	}
}

// JobDetails holds the job-only fields of a Period
type JobDetails struct {
	Index        int         `json:"index"`
	Level        CareerLevel `json:"level"`
	Employer     string      `json:"employer,omitempty"`
	Industry     string      `json:"industry,omitempty"`
	Position     string      `json:"position,omitempty"`
	Achievements []string    `json:"achievements,omitempty"`
}

// Period is a dated span of education, employment or explained absence.
// End is nil only for the single current period, which must be last.
type Period struct {
	Kind    PeriodKind       `json:"kind"`
	Start   dates.YearMonth  `json:"start"`
	End     *dates.YearMonth `json:"end,omitempty"`
	Label   string           `json:"label,omitempty"`
	Job     *JobDetails      `json:"job,omitempty"`
	GapKind GapKind          `json:"gap_kind,omitempty"`
}

// IsOpen reports whether the period has no end
func (p Period) IsOpen() bool {
	return p.End == nil
}

// EndOr returns the end, or today for an open period
func (p Period) EndOr(today dates.YearMonth) dates.YearMonth {
	if p.End == nil {
		return today
	}
	return *p.End
}

// DurationMonths is the length of the period, counting an open period up to today
func (p Period) DurationMonths(today dates.YearMonth) int {
	return p.Start.MonthsUntil(p.EndOr(today))
}

// Level returns the job's level, or "" for non-job periods
func (p Period) Level() CareerLevel {
	if p.Job == nil {
		return ""
	}
	return p.Job.Level
}

// Clone returns a deep copy
func (p Period) Clone() Period {
	c := p
	if p.End != nil {
		end := *p.End
		c.End = &end
	}
	if p.Job != nil {
		job := *p.Job
		job.Achievements = append([]string(nil), p.Job.Achievements...)
		c.Job = &job
	}
	return c
}

// ClonePeriods deep-copies a period list
func ClonePeriods(periods []Period) []Period {
	out := make([]Period, len(periods))
	for i, p := range periods {
		out[i] = p.Clone()
	}
	return out
}

// SortPeriods orders periods by start; ties keep education before jobs before gaps
func SortPeriods(periods []Period) {
	sort.SliceStable(periods, func(i, j int) bool {
		if c := periods[i].Start.Compare(periods[j].Start); c != 0 {
			return c < 0
		}
		return kindOrder(periods[i].Kind) < kindOrder(periods[j].Kind)
	})
}

func kindOrder(k PeriodKind) int {
	switch k {
	case PeriodEducation:
		return 0
	case PeriodJob:
		return 1
	default:
		return 2
	}
}

// EndPtr is a helper for building closed periods
func EndPtr(ym dates.YearMonth) *dates.YearMonth {
	return &ym
}
