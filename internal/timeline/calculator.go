package timeline

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/jonathan/cv-synth/internal/dates"
	"github.com/jonathan/cv-synth/internal/rules"
	"github.com/jonathan/cv-synth/internal/types"
)

// Calculate walks forward from the persona's education start to today and
// returns the ordered periods: education, jobs and at most MaxGapFillers
// inserted gap fillers. The last job is open-ended. Any constraint violation
// aborts the walk with an *InfeasibleError; no partial timeline is returned.
func Calculate(persona types.Persona, opts Options) ([]types.Period, error) {
	opts = opts.withDefaults()
	r := opts.Rules
	today := opts.Now
	rnd := opts.Rand

	if err := persona.Validate(); err != nil {
		return nil, infeasible(types.CategoryAge, fmt.Sprintf("persona rejected: %v", err), "Resample persona")
	}
	if issues := FilterBySeverity(CheckPersonaConsistency(persona, nil, today, r), types.SeverityError); len(issues) > 0 {
		return nil, &InfeasibleError{Issues: issues}
	}

	eduStart := dates.New(persona.EducationStartYear, r.Timeline.EducationEndMonth)
	eduEnd := eduStart.AddYears(persona.EducationDuration)
	if eduEnd.After(today) {
		return nil, infeasible(types.CategoryAge,
			fmt.Sprintf("education end (%s) is in the future", eduEnd),
			"Move education start year earlier")
	}

	periods := []types.Period{{
		Kind:  types.PeriodEducation,
		Start: eduStart,
		End:   types.EndPtr(eduEnd),
	}}

	start := eduEnd.AddMonths(rnd.IntN(r.Timeline.FirstJobOffsetMaxMonths + 1))
	if start.After(today) {
		return nil, infeasible(types.CategoryAge,
			fmt.Sprintf("first job start (%s) is in the future", start),
			"Adjust education timeline")
	}

	firstStart := start
	idle := 0
	jobCount := r.JobCount(persona.ExperienceYears)
	remaining := float64(persona.ExperienceYears)
	dur := r.Timeline.JobDuration
	fillers := 0
	parentalUsed := false

	for i := 0; i < jobCount; i++ {
		level := jobLevel(i, jobCount, persona.CareerLevel)

		if i == jobCount-1 {
			if !start.Before(today) {
				return nil, infeasible(types.CategoryDuration,
					fmt.Sprintf("job %d: start (%s) >= end (%s)", i+1, start, today),
					"Reject timeline and resample with shorter durations")
			}
			periods = append(periods, types.Period{
				Kind:  types.PeriodJob,
				Start: start,
				Job:   &types.JobDetails{Index: i, Level: level},
			})
			break
		}

		maxYears := int(math.Min(float64(dur.MaxYears), math.Max(float64(dur.MinYears), remaining-1)))
		years := dur.FallbackYears
		if maxYears >= dur.MinYears {
			years = dur.MinYears + rnd.IntN(maxYears-dur.MinYears+1)
		}
		extra := rnd.IntN(dur.ExtraMonthsMax + 1)
		end := start.AddYears(years).AddMonths(extra)

		if !start.Before(end) {
			return nil, infeasible(types.CategoryDuration,
				fmt.Sprintf("job %d: start (%s) >= end (%s)", i+1, start, end),
				"Reject timeline and resample with different durations")
		}
		if end.After(today) {
			return nil, infeasible(types.CategoryAge,
				fmt.Sprintf("job %d: end (%s) is in the future", i+1, end),
				"Reject timeline and resample")
		}

		periods = append(periods, types.Period{
			Kind:  types.PeriodJob,
			Start: start,
			End:   types.EndPtr(end),
			Job:   &types.JobDetails{Index: i, Level: level},
		})
		remaining -= float64(years) + float64(extra)/12.0

		var gap int
		if fillers < r.Timeline.MaxGapFillers {
			gap = rnd.IntN(r.Timeline.InterJobGapMaxMonths + 1)
			if long, ok := longGap(r, rnd, persona, firstStart, end, today, idle, jobCount-2-i, fillers+1); ok {
				gap = long
			}
		} else {
			gap = rnd.IntN(r.NoFillerMonths() + 1)
		}
		idle += gap
		next := end.AddMonths(gap)

		kind, ok := ClassifyGap(r, gap, parentalUsed, rnd)
		if !ok {
			return nil, infeasible(types.CategoryGap,
				fmt.Sprintf("gap between job %d and %d: %d months (>%d months)", i+1, i+2, gap, r.MaxGapMonths()),
				"Reject timeline and resample with fewer or longer jobs")
		}
		if kind.IsFiller() {
			if next.After(today) {
				return nil, infeasible(types.CategoryAge,
					fmt.Sprintf("gap after job %d ends in the future (%s)", i+1, next),
					"Reject timeline and resample")
			}
			periods = append(periods, types.Period{
				Kind:    types.PeriodGap,
				Start:   end,
				End:     types.EndPtr(next),
				Label:   GapLabel(kind, opts.Language),
				GapKind: kind,
			})
			fillers++
			if kind == types.GapParental {
				parentalUsed = true
			}
		}
		start = next
	}

	if issues := CheckOrdering(periods, today); types.CountSeverity(issues, types.SeverityError) > 0 {
		return nil, &InfeasibleError{Issues: issues}
	}
	return periods, nil
}

// longGap draws a break longer than InterJobGapMaxMonths with probability
// LongGapChance. The break is only taken when the remaining laterJobs still fit
// before today in the worst case and the job total stays within the
// discrepancy tolerance of the declared experience. A draw beyond the last gap
// bucket is returned as is so that the caller rejects the timeline.
func longGap(r *rules.Rules, rnd *rand.Rand, persona types.Persona, firstStart, end, today dates.YearMonth,
	idle, laterJobs, fillersAfter int) (int, bool) {
	t := r.Timeline
	if t.LongGapChance <= 0 || t.LongGapMaxMonths <= t.InterJobGapMaxMonths {
		return 0, false
	}
	if rnd.Float64() >= t.LongGapChance {
		return 0, false
	}
	gap := t.InterJobGapMaxMonths + 1 + rnd.IntN(t.LongGapMaxMonths-t.InterJobGapMaxMonths)

	laterGap := r.NoFillerMonths()
	if fillersAfter < t.MaxGapFillers {
		laterGap = t.InterJobGapMaxMonths
	}
	dur := t.JobDuration
	reserve := laterJobs*(dur.MaxYears*12+dur.ExtraMonthsMax+laterGap) + 1
	if end.AddMonths(gap + reserve).After(today) {
		return 0, false
	}

	jobMonths := firstStart.MonthsUntil(today) - idle - gap - laterJobs*laterGap
	if jobMonths < persona.ExperienceYears*12-t.DiscrepancyToleranceMonths {
		return 0, false
	}
	return gap, true
}

// jobLevel climbs one level per job so that the current job carries the
// persona's level
func jobLevel(index, count int, target types.CareerLevel) types.CareerLevel {
	return types.LevelForRank(target.Rank() - (count - 1 - index))
}

func infeasible(category types.IssueCategory, message, fix string) *InfeasibleError {
	return &InfeasibleError{Issues: []types.TimelineIssue{{
		Severity:     types.SeverityError,
		Category:     category,
		Message:      message,
		SuggestedFix: fix,
	}}}
}
