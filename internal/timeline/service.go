package timeline

import (
	"github.com/jonathan/cv-synth/internal/dates"
	"github.com/jonathan/cv-synth/internal/types"
)

// Result is the outcome of ValidateAndFix
type Result struct {
	Periods []types.Period        `json:"periods"`
	Jobs    []types.Job           `json:"jobs"`
	Gaps    []types.Gap           `json:"gaps"`
	Issues  []types.TimelineIssue `json:"issues"`
	Changes []Change              `json:"changes"`
}

// ValidateAndFix checks raw periods against the persona, repairs what it can
// and returns the fixed periods with their job and gap views. When error issues
// remain the result is still returned together with an *UnfixableError.
func ValidateAndFix(persona types.Persona, periods []types.Period, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	fixed := Fix(Input{Persona: &persona, Periods: periods}, opts)

	result := &Result{
		Periods: fixed.Periods,
		Jobs:    JobsFromPeriods(fixed.Periods),
		Gaps:    GapsFromPeriods(fixed.Periods),
		Issues:  fixed.Issues,
		Changes: fixed.Changes,
	}
	if fixed.Unfixable {
		return result, &UnfixableError{Issues: fixed.Issues}
	}
	return result, nil
}

// JobsFromPeriods extracts the job entries in chronological order
func JobsFromPeriods(periods []types.Period) []types.Job {
	var jobs []types.Job
	for _, i := range chronological(periods) {
		p := periods[i]
		if p.Kind != types.PeriodJob {
			continue
		}
		job := types.Job{Start: p.Start}
		if p.End != nil {
			job.End = types.EndPtr(*p.End)
		}
		if p.Job != nil {
			job.Company = p.Job.Employer
			job.Position = p.Job.Position
			job.Level = p.Job.Level
			job.Industry = p.Job.Industry
			job.Achievements = append([]string(nil), p.Job.Achievements...)
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// GapsFromPeriods extracts the filler entries in chronological order
func GapsFromPeriods(periods []types.Period) []types.Gap {
	var gaps []types.Gap
	for _, i := range chronological(periods) {
		p := periods[i]
		if p.Kind != types.PeriodGap {
			continue
		}
		gap := types.Gap{Kind: p.GapKind, Label: p.Label, Start: p.Start}
		if p.End != nil {
			gap.End = types.EndPtr(*p.End)
		}
		gaps = append(gaps, gap)
	}
	return gaps
}

// Summary is a compact description of a timeline for logs and CLI output
type Summary struct {
	EducationEnd  *dates.YearMonth         `json:"education_end,omitempty"`
	FirstJobStart *dates.YearMonth         `json:"first_job_start,omitempty"`
	JobYears      float64                  `json:"job_years"`
	Counts        map[types.PeriodKind]int `json:"counts"`
	GapKinds      []types.GapKind          `json:"gap_kinds,omitempty"`
}

// Summarize builds a Summary of periods as of today
func Summarize(periods []types.Period, today dates.YearMonth) Summary {
	s := Summary{Counts: make(map[types.PeriodKind]int)}
	for _, i := range chronological(periods) {
		p := periods[i]
		s.Counts[p.Kind]++
		switch p.Kind {
		case types.PeriodEducation:
			if p.End != nil && (s.EducationEnd == nil || p.End.After(*s.EducationEnd)) {
				s.EducationEnd = types.EndPtr(*p.End)
			}
		case types.PeriodJob:
			if s.FirstJobStart == nil {
				s.FirstJobStart = types.EndPtr(p.Start)
			}
		case types.PeriodGap:
			s.GapKinds = append(s.GapKinds, p.GapKind)
		}
	}
	s.JobYears = dates.Years(JobMonths(periods, today))
	return s
}
