package timeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/cv-synth/internal/companies"
	"github.com/jonathan/cv-synth/internal/dates"
	"github.com/jonathan/cv-synth/internal/rules"
	"github.com/jonathan/cv-synth/internal/types"
)

// Input is a period list to check, optionally with the persona it belongs to.
// Persona checks are skipped when Persona is nil.
type Input struct {
	Persona *types.Persona
	Periods []types.Period
}

// Validate runs every timeline check and returns the combined issues.
// Affected period indices refer to positions in in.Periods.
func Validate(in Input, opts Options) []types.TimelineIssue {
	opts = opts.withDefaults()
	today := opts.Now
	r := opts.Rules

	var issues []types.TimelineIssue
	issues = append(issues, CheckFormat(in.Periods, today)...)
	issues = append(issues, CheckOrdering(in.Periods, today)...)
	issues = append(issues, CheckGaps(in.Periods, today, r)...)
	issues = append(issues, CheckProgression(in.Periods)...)
	issues = append(issues, CheckDurations(in.Periods, today, r)...)
	if in.Persona != nil {
		issues = append(issues, CheckAgeAtPeriod(*in.Persona, in.Periods, today, r)...)
		issues = append(issues, CheckPersonaConsistency(*in.Persona, in.Periods, today, r)...)
	}
	return issues
}

// HasErrors reports whether any issue has error severity
func HasErrors(issues []types.TimelineIssue) bool {
	return types.CountSeverity(issues, types.SeverityError) > 0
}

// FilterBySeverity returns the issues with the given severity
func FilterBySeverity(issues []types.TimelineIssue, severity types.Severity) []types.TimelineIssue {
	var out []types.TimelineIssue
	for _, issue := range issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// FilterByCategory returns the issues with the given category
func FilterByCategory(issues []types.TimelineIssue, category types.IssueCategory) []types.TimelineIssue {
	var out []types.TimelineIssue
	for _, issue := range issues {
		if issue.Category == category {
			out = append(out, issue)
		}
	}
	return out
}

// chronological returns the indices of periods ordered by start
func chronological(periods []types.Period) []int {
	idx := make([]int, len(periods))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		pa, pb := periods[idx[a]], periods[idx[b]]
		if c := pa.Start.Compare(pb.Start); c != 0 {
			return c < 0
		}
		return kindRank(pa.Kind) < kindRank(pb.Kind)
	})
	return idx
}

func kindRank(k types.PeriodKind) int {
	switch k {
	case types.PeriodEducation:
		return 0
	case types.PeriodJob:
		return 1
	default:
		return 2
	}
}

func describe(p types.Period, i int) string {
	switch p.Kind {
	case types.PeriodJob:
		if p.Job != nil && p.Job.Employer != "" {
			return fmt.Sprintf("job %d (%s)", i, p.Job.Employer)
		}
		return fmt.Sprintf("job %d", i)
	case types.PeriodGap:
		return fmt.Sprintf("gap %d (%s)", i, p.GapKind)
	default:
		return fmt.Sprintf("education %d", i)
	}
}

// CheckFormat flags malformed dates and placeholder employers
func CheckFormat(periods []types.Period, today dates.YearMonth) []types.TimelineIssue {
	var issues []types.TimelineIssue
	for i, p := range periods {
		if !wellFormed(p.Start) || (p.End != nil && !wellFormed(*p.End)) {
			issues = append(issues, types.TimelineIssue{
				Severity:        types.SeverityError,
				Category:        types.CategoryFormat,
				Message:         fmt.Sprintf("%s has malformed dates (start %s)", describe(p, i), p.Start),
				AffectedPeriods: []int{i},
				SuggestedFix:    fmt.Sprintf("Use YYYY-MM with a year between %d and %d", dates.MinYear, today.Year),
			})
		}
		if p.Kind == types.PeriodJob && p.Job != nil && (companies.IsPlaceholder(p.Job.Employer) || companies.IsPlaceholder(p.Job.Position)) {
			issues = append(issues, types.TimelineIssue{
				Severity:        types.SeverityError,
				Category:        types.CategoryFormat,
				Message:         fmt.Sprintf("%s uses a placeholder instead of an employer", describe(p, i)),
				AffectedPeriods: []int{i},
				SuggestedFix:    "Remove the entry and explain the period with a gap filler",
			})
		}
	}
	return issues
}

func wellFormed(ym dates.YearMonth) bool {
	return ym.Month >= 1 && ym.Month <= 12 && ym.Year >= dates.MinYear
}

// CheckOrdering flags closed periods with start >= end, periods ending after
// today, open periods that are not last, and pairwise overlaps
func CheckOrdering(periods []types.Period, today dates.YearMonth) []types.TimelineIssue {
	var issues []types.TimelineIssue

	for i, p := range periods {
		if p.End != nil && !p.Start.Before(*p.End) {
			issues = append(issues, types.TimelineIssue{
				Severity:        types.SeverityError,
				Category:        types.CategoryDuration,
				Message:         fmt.Sprintf("%s: start (%s) >= end (%s)", describe(p, i), p.Start, *p.End),
				AffectedPeriods: []int{i},
				SuggestedFix:    "Reject timeline and resample",
			})
		}
		if p.Start.After(today) || (p.End != nil && p.End.After(today)) {
			issues = append(issues, types.TimelineIssue{
				Severity:        types.SeverityError,
				Category:        types.CategoryFormat,
				Message:         fmt.Sprintf("%s extends past today (%s)", describe(p, i), today),
				AffectedPeriods: []int{i},
				SuggestedFix:    "End the period no later than today",
			})
		}
	}

	order := chronological(periods)
	for pos, i := range order {
		p := periods[i]
		if p.IsOpen() && pos != len(order)-1 {
			issues = append(issues, types.TimelineIssue{
				Severity:        types.SeverityError,
				Category:        types.CategoryOverlap,
				Message:         fmt.Sprintf("%s is open-ended but not the last period", describe(p, i)),
				AffectedPeriods: []int{i},
				SuggestedFix:    "Close the period before the next one starts",
			})
		}
	}

	for a := 0; a < len(order); a++ {
		earlier := periods[order[a]]
		earlierEnd := earlier.EndOr(today)
		for b := a + 1; b < len(order); b++ {
			later := periods[order[b]]
			if !later.Start.Before(earlierEnd) {
				continue
			}
			issues = append(issues, types.TimelineIssue{
				Severity: types.SeverityError,
				Category: types.CategoryOverlap,
				Message: fmt.Sprintf("overlap: %s ends %s after %s starts %s",
					describe(earlier, order[a]), earlierEnd, describe(later, order[b]), later.Start),
				AffectedPeriods: []int{order[a], order[b]},
				SuggestedFix:    "Shrink the earlier period's end to the later period's start",
			})
		}
	}

	return issues
}

// CheckGaps measures the uncovered time between consecutive periods, including
// the education to first job transition. Filler periods explain the time they
// cover. Gaps over the largest bucket are errors; explainable gaps left
// unexplained are warnings (12-24 months) or info (6-12 months).
func CheckGaps(periods []types.Period, today dates.YearMonth, r *rules.Rules) []types.TimelineIssue {
	var issues []types.TimelineIssue
	order := chronological(periods)
	noFiller := r.NoFillerMonths()
	maxGap := r.MaxGapMonths()
	warnAbove := noFiller
	if n := len(r.Timeline.GapBuckets); n >= 2 {
		warnAbove = r.Timeline.GapBuckets[n-2].MaxMonths
	}

	for pos := 1; pos < len(order); pos++ {
		prevIdx, curIdx := latestEnding(periods, order[:pos], today), order[pos]
		prevEnd := periods[prevIdx].EndOr(today)
		cur := periods[curIdx]
		space := prevEnd.MonthsUntil(cur.Start)
		if space <= noFiller {
			continue
		}

		severity := types.SeverityInfo
		switch {
		case space > maxGap:
			severity = types.SeverityError
		case space > warnAbove:
			severity = types.SeverityWarning
		}
		kind, _ := ClassifyGap(r, space, countParental(periods) > 0, nil)
		fix := fmt.Sprintf("Insert a %s filler", kind)
		if severity == types.SeverityError {
			fix = "Reject timeline and resample"
		}
		issues = append(issues, types.TimelineIssue{
			Severity: severity,
			Category: types.CategoryGap,
			Message: fmt.Sprintf("unexplained gap of %d months between %s and %s",
				space, describe(periods[prevIdx], prevIdx), describe(cur, curIdx)),
			AffectedPeriods: []int{prevIdx, curIdx},
			SuggestedFix:    fix,
		})
	}

	for i, p := range periods {
		if p.Kind != types.PeriodGap {
			continue
		}
		if months := p.DurationMonths(today); months > maxGap {
			issues = append(issues, types.TimelineIssue{
				Severity:        types.SeverityError,
				Category:        types.CategoryGap,
				Message:         fmt.Sprintf("%s lasts %d months (>%d months)", describe(p, i), months, maxGap),
				AffectedPeriods: []int{i},
				SuggestedFix:    "Reject timeline and resample",
			})
		}
	}

	if n := countParental(periods); n > 1 {
		var affected []int
		for i, p := range periods {
			if p.Kind == types.PeriodGap && p.GapKind == types.GapParental {
				affected = append(affected, i)
			}
		}
		issues = append(issues, types.TimelineIssue{
			Severity:        types.SeverityError,
			Category:        types.CategoryGap,
			Message:         fmt.Sprintf("%d parental leave periods (max 1)", n),
			AffectedPeriods: affected,
			SuggestedFix:    "Relabel later parental leave as sabbatical",
		})
	}

	return issues
}

// latestEnding returns the index among candidates whose end is latest, so a long
// period is not hidden by a shorter one that started after it
func latestEnding(periods []types.Period, candidates []int, today dates.YearMonth) int {
	best := candidates[0]
	for _, i := range candidates[1:] {
		if periods[i].EndOr(today).After(periods[best].EndOr(today)) {
			best = i
		}
	}
	return best
}

// InferLevel derives a career level from a position title when none is recorded
func InferLevel(position string) types.CareerLevel {
	p := strings.ToLower(position)
	switch {
	case containsAny(p, "junior", "trainee", "praktikant", "lernende", "apprenti", "assistant", "assistent"):
		return types.LevelJunior
	case containsAny(p, "senior"):
		return types.LevelSenior
	case containsAny(p, "lead", "leiter", "leiterin", "head", "manager", "chef", "responsabile", "direktor", "director"):
		return types.LevelLead
	default:
		return types.LevelMid
	}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func levelOf(p types.Period) types.CareerLevel {
	if p.Job == nil {
		return ""
	}
	if p.Job.Level.Valid() {
		return p.Job.Level
	}
	return InferLevel(p.Job.Position)
}

// CheckProgression flags a drop of more than one level between consecutive jobs
func CheckProgression(periods []types.Period) []types.TimelineIssue {
	var issues []types.TimelineIssue
	prev := -1
	for _, i := range chronological(periods) {
		p := periods[i]
		if p.Kind != types.PeriodJob {
			continue
		}
		if prev >= 0 {
			from, to := levelOf(periods[prev]), levelOf(p)
			if from.Rank()-to.Rank() > 1 {
				issues = append(issues, types.TimelineIssue{
					Severity:        types.SeverityWarning,
					Category:        types.CategoryProgression,
					Message:         fmt.Sprintf("career regression: %s -> %s at %s", from, to, describe(p, i)),
					AffectedPeriods: []int{prev, i},
					SuggestedFix:    "Adjust the position title to keep or raise the career level",
				})
			}
		}
		prev = i
	}
	return issues
}

// CheckDurations flags jobs shorter than the minimum (warning) or longer than the
// typical maximum (info)
func CheckDurations(periods []types.Period, today dates.YearMonth, r *rules.Rules) []types.TimelineIssue {
	var issues []types.TimelineIssue
	for i, p := range periods {
		if p.Kind != types.PeriodJob {
			continue
		}
		months := p.DurationMonths(today)
		switch {
		case months < r.Timeline.MinJobMonths:
			issues = append(issues, types.TimelineIssue{
				Severity:        types.SeverityWarning,
				Category:        types.CategoryDuration,
				Message:         fmt.Sprintf("%s too short: %.1f years (min %.1f)", describe(p, i), dates.Years(months), dates.Years(r.Timeline.MinJobMonths)),
				AffectedPeriods: []int{i},
				SuggestedFix:    "Extend the job or merge it with a neighbour",
			})
		case months > r.Timeline.MaxJobMonths:
			issues = append(issues, types.TimelineIssue{
				Severity:        types.SeverityInfo,
				Category:        types.CategoryDuration,
				Message:         fmt.Sprintf("%s very long: %.1f years (typical max %.1f)", describe(p, i), dates.Years(months), dates.Years(r.Timeline.MaxJobMonths)),
				AffectedPeriods: []int{i},
				SuggestedFix:    "Consider splitting into several positions",
			})
		}
	}
	return issues
}

// CheckAgeAtPeriod flags jobs that start before working age (error) and senior
// or lead roles held unusually young (warning)
func CheckAgeAtPeriod(persona types.Persona, periods []types.Period, today dates.YearMonth, r *rules.Rules) []types.TimelineIssue {
	var issues []types.TimelineIssue
	birthYear := today.Year - persona.Age

	for i, p := range periods {
		if p.Kind != types.PeriodJob {
			continue
		}
		ageAtStart := p.Start.Year - birthYear
		if ageAtStart < types.MinWorkingAge {
			issues = append(issues, types.TimelineIssue{
				Severity:        types.SeverityError,
				Category:        types.CategoryAge,
				Message:         fmt.Sprintf("%s starts at age %d (min %d)", describe(p, i), ageAtStart, types.MinWorkingAge),
				AffectedPeriods: []int{i},
				SuggestedFix:    "Move the job later or lower the persona's experience",
			})
			continue
		}
		level := levelOf(p)
		if minAge, ok := r.Timeline.EarlySeniorityAge[level]; ok && ageAtStart < minAge {
			issues = append(issues, types.TimelineIssue{
				Severity:        types.SeverityWarning,
				Category:        types.CategoryAge,
				Message:         fmt.Sprintf("%s: %s role at age %d (typical from %d)", describe(p, i), level, ageAtStart, minAge),
				AffectedPeriods: []int{i},
				SuggestedFix:    "Lower the seniority of this position",
			})
		}
	}
	return issues
}

// CheckPersonaConsistency compares the persona's declared age, level and
// experience with each other and with the summed job time
func CheckPersonaConsistency(persona types.Persona, periods []types.Period, today dates.YearMonth, r *rules.Rules) []types.TimelineIssue {
	var issues []types.TimelineIssue

	if minAge, ok := r.Timeline.MinAge[persona.CareerLevel]; ok && persona.Age < minAge {
		issues = append(issues, types.TimelineIssue{
			Severity:     types.SeverityError,
			Category:     types.CategoryAge,
			Message:      fmt.Sprintf("age %d too young for career level %s (min %d)", persona.Age, persona.CareerLevel, minAge),
			SuggestedFix: fmt.Sprintf("Increase age to at least %d or lower the career level", minAge),
		})
	}

	maxExperience := persona.MaxExperienceYears()
	if persona.ExperienceYears > maxExperience {
		issues = append(issues, types.TimelineIssue{
			Severity:     types.SeverityError,
			Category:     types.CategoryAge,
			Message:      fmt.Sprintf("experience of %d years exceeds maximum for age %d (max %d)", persona.ExperienceYears, persona.Age, maxExperience),
			SuggestedFix: fmt.Sprintf("Reduce experience to %d years or increase age", maxExperience),
		})
	}

	jobMonths := JobMonths(periods, today)
	if jobMonths > 0 {
		deviation := jobMonths - persona.ExperienceYears*12
		if abs(deviation) > r.Timeline.DiscrepancyToleranceMonths {
			issues = append(issues, types.TimelineIssue{
				Severity: types.SeverityWarning,
				Category: types.CategoryAge,
				Message: fmt.Sprintf("job history covers %.1f years but %d years of experience are declared",
					dates.Years(jobMonths), persona.ExperienceYears),
				SuggestedFix: "Nudge the current job's start date",
			})
		}
	}

	return issues
}

// JobMonths sums the duration of all job periods
func JobMonths(periods []types.Period, today dates.YearMonth) int {
	total := 0
	for _, p := range periods {
		if p.Kind == types.PeriodJob {
			total += p.DurationMonths(today)
		}
	}
	return total
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
