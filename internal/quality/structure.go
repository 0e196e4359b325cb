package quality

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/cv-synth/internal/companies"
	"github.com/jonathan/cv-synth/internal/timeline"
	"github.com/jonathan/cv-synth/internal/types"
)

const maxThinJobPenalty = 30

// completeness penalizes missing sections and under-populated jobs
func (s *scorer) completeness() {
	d, p := s.doc, s.rules.Penalties
	dim := types.DimensionCompleteness

	if strings.TrimSpace(d.FirstName) == "" || strings.TrimSpace(d.LastName) == "" {
		s.penalize(dim, types.SeverityWarning, p.MissingName, "first or last name missing")
	}

	switch n := utf8.RuneCountInString(strings.TrimSpace(d.Summary)); {
	case n == 0:
		s.penalize(dim, types.SeverityWarning, p.MissingSummary, "summary missing")
	case n < s.rules.MinSummaryChars:
		s.penalize(dim, types.SeverityWarning, p.ShortSummary,
			fmt.Sprintf("summary too short: %d characters (min %d)", n, s.rules.MinSummaryChars))
	}

	if len(d.Education) == 0 {
		s.penalize(dim, types.SeverityWarning, p.MissingEducation, "no education entries")
	}

	if len(d.Jobs) == 0 {
		s.penalize(dim, types.SeverityError, p.MissingJobs, "no job entries")
	}

	thin := 0.0
	for i, j := range d.Jobs {
		if len(j.Achievements) < s.rules.MinAchievementsPerJob {
			penalty := p.ThinJob
			if thin+penalty > maxThinJobPenalty {
				penalty = maxThinJobPenalty - thin
			}
			thin += penalty
			s.penalize(dim, types.SeverityWarning, penalty,
				fmt.Sprintf("job %d (%s) has %d achievements (min %d)", i+1, j.Company, len(j.Achievements), s.rules.MinAchievementsPerJob))
		}
	}

	if len(d.Skills) < s.rules.MinSkills {
		s.penalize(dim, types.SeverityInfo, p.FewSkills,
			fmt.Sprintf("%d skills listed (min %d)", len(d.Skills), s.rules.MinSkills))
	}
}

// realism runs the timeline validator against the document's persona and checks
// employers against the occupation. Timeline issues are returned separately and
// only deducted here.
func (s *scorer) realism() []types.TimelineIssue {
	d, p := s.doc, s.rules.Penalties
	dim := types.DimensionRealism

	persona := d.Persona()
	issues := timeline.Validate(timeline.Input{Persona: &persona, Periods: d.Periods()}, timeline.Options{
		Now:   s.opts.Now,
		Rules: s.opts.Rules,
	})
	for _, issue := range issues {
		switch issue.Severity {
		case types.SeverityError:
			s.lost[dim] += p.TimelineError
		case types.SeverityWarning:
			s.lost[dim] += p.TimelineWarning
		}
	}

	seen := make(map[string]int)
	for i, j := range d.Jobs {
		name := strings.TrimSpace(j.Company)
		// placeholders are already format errors of the timeline
		if companies.IsPlaceholder(name) {
			continue
		}

		key := strings.ToLower(name)
		if first, dup := seen[key]; dup && key != "" {
			s.penalize(dim, types.SeverityWarning, p.DuplicateEmployer,
				fmt.Sprintf("employer %q appears in job %d and job %d", name, first+1, i+1))
		} else {
			seen[key] = i
		}

		if j.Industry == "" || d.Occupation == "" {
			continue
		}
		industry, _ := companies.ParseIndustry(j.Industry)
		company := companies.Company{Name: name, Canton: j.Canton, Industry: industry}
		if ok, reason := companies.Validate(company, d.Occupation); !ok {
			s.penalize(dim, types.SeverityWarning, p.CompanyMismatch, fmt.Sprintf("job %d: %s", i+1, reason))
		}
	}

	return issues
}
