package timeline

import (
	"fmt"

	"github.com/jonathan/cv-synth/internal/companies"
	"github.com/jonathan/cv-synth/internal/dates"
	"github.com/jonathan/cv-synth/internal/rules"
	"github.com/jonathan/cv-synth/internal/types"
)

// Repair action names recorded in the change log
const (
	ActionDropPlaceholder   = "drop_placeholder"
	ActionShrinkEnd         = "shrink_end"
	ActionShiftStart        = "shift_start"
	ActionDropFiller        = "drop_filler"
	ActionInsertFiller      = "insert_filler"
	ActionNudgeCurrentStart = "nudge_current_start"
	ActionNudgeEducationEnd = "nudge_education_end"
)

// Change is one entry of the auto-fix change log
type Change struct {
	Pass    int    `json:"pass"`
	Action  string `json:"action"`
	Message string `json:"message"`
}

// FixResult is the outcome of Fix. Periods is a new, chronologically sorted
// list; the input is never modified.
type FixResult struct {
	Periods   []types.Period        `json:"periods"`
	Changes   []Change              `json:"changes"`
	Issues    []types.TimelineIssue `json:"issues"`
	Passes    int                   `json:"passes"`
	Unfixable bool                  `json:"unfixable"`
}

// Fix repairs overlaps, unexplained gaps and small experience discrepancies in
// at most Rules.Timeline.MaxFixPasses passes, re-validating after each pass.
// Placeholder "various positions" entries are always dropped. Unfixable is set
// when error-severity issues remain, leaving rejection to the caller.
func Fix(in Input, opts Options) FixResult {
	opts = opts.withDefaults()
	f := &fixer{today: opts.Now, rules: opts.Rules, persona: in.Persona}

	periods := types.ClonePeriods(in.Periods)
	periods, changes := dropPlaceholders(periods)
	types.SortPeriods(periods)

	issues := Validate(Input{Persona: in.Persona, Periods: periods}, opts)
	result := FixResult{Changes: changes}

	for pass := 1; pass <= opts.Rules.Timeline.MaxFixPasses && f.needsRepair(periods, issues); pass++ {
		var passChanges []Change

		var c []Change
		periods, c = f.fixOverlaps(periods, pass)
		passChanges = append(passChanges, c...)

		periods, c = f.fixGaps(periods, pass)
		passChanges = append(passChanges, c...)

		periods, c = f.fixDiscrepancy(periods, pass)
		passChanges = append(passChanges, c...)

		result.Passes = pass
		result.Changes = append(result.Changes, passChanges...)
		issues = Validate(Input{Persona: in.Persona, Periods: periods}, opts)

		if len(passChanges) == 0 {
			break
		}
	}

	result.Periods = periods
	result.Issues = issues
	result.Unfixable = f.tooLarge || HasErrors(issues)
	return result
}

type fixer struct {
	today    dates.YearMonth
	rules    *rules.Rules
	persona  *types.Persona
	nudged   bool
	tooLarge bool
}

func (f *fixer) needsRepair(periods []types.Period, issues []types.TimelineIssue) bool {
	if HasErrors(issues) || len(FilterByCategory(issues, types.CategoryGap)) > 0 {
		return true
	}
	return !f.nudged && abs(f.deviation(periods)) > f.rules.Timeline.DiscrepancyToleranceMonths
}

func (f *fixer) deviation(periods []types.Period) int {
	if f.persona == nil {
		return 0
	}
	jobMonths := JobMonths(periods, f.today)
	if jobMonths == 0 {
		return 0
	}
	return jobMonths - f.persona.ExperienceYears*12
}

func dropPlaceholders(periods []types.Period) ([]types.Period, []Change) {
	out := make([]types.Period, 0, len(periods))
	var changes []Change
	for _, p := range periods {
		if p.Kind == types.PeriodJob && p.Job != nil && (companies.IsPlaceholder(p.Job.Employer) || companies.IsPlaceholder(p.Job.Position)) {
			changes = append(changes, Change{
				Action:  ActionDropPlaceholder,
				Message: fmt.Sprintf("dropped placeholder entry %q starting %s", p.Job.Employer, p.Start),
			})
			continue
		}
		out = append(out, p)
	}
	return out, changes
}

// fixOverlaps walks the sorted list once. Between two real periods the earlier
// one is cut at the next start, or the later one is moved behind the earlier
// when both start together. A gap filler always yields to a real period and is
// dropped when nothing of it remains.
func (f *fixer) fixOverlaps(periods []types.Period, pass int) ([]types.Period, []Change) {
	in := types.ClonePeriods(periods)
	out := make([]types.Period, 0, len(in))
	var changes []Change

	for _, cur := range in {
		if len(out) == 0 {
			out = append(out, cur)
			continue
		}
		prev := &out[len(out)-1]
		prevEnd := prev.EndOr(f.today)
		if !cur.Start.Before(prevEnd) {
			out = append(out, cur)
			continue
		}

		switch {
		case cur.Kind == types.PeriodGap && prev.Kind != types.PeriodGap:
			if !prevEnd.Before(cur.EndOr(f.today)) {
				changes = append(changes, Change{
					Pass:    pass,
					Action:  ActionDropFiller,
					Message: fmt.Sprintf("dropped %s filler %s covered by %s", cur.GapKind, cur.Start, prev.Kind),
				})
				continue
			}
			changes = append(changes, Change{
				Pass:    pass,
				Action:  ActionShiftStart,
				Message: fmt.Sprintf("gap start %s -> %s", cur.Start, prevEnd),
			})
			cur.Start = prevEnd

		case prev.Kind == types.PeriodGap && cur.Kind != types.PeriodGap && !prev.Start.Before(cur.Start):
			changes = append(changes, Change{
				Pass:    pass,
				Action:  ActionDropFiller,
				Message: fmt.Sprintf("dropped %s filler %s covered by %s", prev.GapKind, prev.Start, cur.Kind),
			})
			out = out[:len(out)-1]

		case prev.Start.Before(cur.Start):
			changes = append(changes, Change{
				Pass:    pass,
				Action:  ActionShrinkEnd,
				Message: fmt.Sprintf("%s end %s -> %s", prev.Kind, prevEnd, cur.Start),
			})
			prev.End = types.EndPtr(cur.Start)

		case prevEnd.Before(cur.EndOr(f.today)):
			changes = append(changes, Change{
				Pass:    pass,
				Action:  ActionShiftStart,
				Message: fmt.Sprintf("%s start %s -> %s", cur.Kind, cur.Start, prevEnd),
			})
			cur.Start = prevEnd
		}
		out = append(out, cur)
	}

	types.SortPeriods(out)
	return out, changes
}

// fixGaps inserts a classified filler into every unexplained space longer than
// the short-gap bucket. Spaces beyond the largest bucket cannot be explained.
func (f *fixer) fixGaps(periods []types.Period, pass int) ([]types.Period, []Change) {
	out := make([]types.Period, 0, len(periods)+2)
	var changes []Change
	parentalUsed := countParental(periods) > 0
	noFiller := f.rules.NoFillerMonths()
	language := "de"
	if f.persona != nil && f.persona.Language != "" {
		language = f.persona.Language
	}

	var latestEnd dates.YearMonth
	for i, p := range periods {
		if i > 0 {
			space := latestEnd.MonthsUntil(p.Start)
			if space > noFiller {
				kind, ok := ClassifyGap(f.rules, space, parentalUsed, nil)
				if !ok {
					f.tooLarge = true
				} else {
					out = append(out, types.Period{
						Kind:    types.PeriodGap,
						Start:   latestEnd,
						End:     types.EndPtr(p.Start),
						Label:   GapLabel(kind, language),
						GapKind: kind,
					})
					if kind == types.GapParental {
						parentalUsed = true
					}
					changes = append(changes, Change{
						Pass:    pass,
						Action:  ActionInsertFiller,
						Message: fmt.Sprintf("inserted %s filler %s..%s (%d months)", kind, latestEnd, p.Start, space),
					})
				}
			}
		}
		out = append(out, p.Clone())
		if end := p.EndOr(f.today); i == 0 || end.After(latestEnd) {
			latestEnd = end
		}
	}

	return out, changes
}

// fixDiscrepancy moves the current job's start by at most the tolerance when the
// summed job time deviates from declared experience by more than the tolerance.
// When the current job directly follows education, education end moves with it.
// It runs at most once per Fix call.
func (f *fixer) fixDiscrepancy(periods []types.Period, pass int) ([]types.Period, []Change) {
	tol := f.rules.Timeline.DiscrepancyToleranceMonths
	dev := f.deviation(periods)
	if f.nudged || abs(dev) <= tol {
		return periods, nil
	}
	f.nudged = true

	out := types.ClonePeriods(periods)
	cur := -1
	for i, p := range out {
		if p.Kind == types.PeriodJob && (cur < 0 || !p.Start.Before(out[cur].Start)) {
			cur = i
		}
	}
	if cur <= 0 {
		return periods, nil
	}

	prev := latestEnding(out, indicesBefore(out, cur), f.today)
	prevIsEducation := out[prev].Kind == types.PeriodEducation
	space := out[prev].EndOr(f.today).MonthsUntil(out[cur].Start)

	var shift int
	if dev > 0 {
		shift = min(dev, tol, out[cur].DurationMonths(f.today)-f.rules.Timeline.MinJobMonths)
		if !prevIsEducation {
			shift = min(shift, f.rules.NoFillerMonths()-space)
		}
	} else {
		shift = -min(-dev, tol)
		if prevIsEducation {
			eduLen := out[prev].Start.MonthsUntil(out[prev].EndOr(f.today))
			shift = -min(-shift, eduLen-12)
		} else {
			shift = -min(-shift, max(space, 0))
		}
	}
	if shift == 0 || (dev > 0) != (shift > 0) {
		return periods, nil
	}

	var changes []Change
	oldStart := out[cur].Start
	out[cur].Start = oldStart.AddMonths(shift)
	changes = append(changes, Change{
		Pass:    pass,
		Action:  ActionNudgeCurrentStart,
		Message: fmt.Sprintf("current job start %s -> %s (%+d months)", oldStart, out[cur].Start, shift),
	})

	if prevIsEducation && out[prev].End != nil {
		oldEnd := *out[prev].End
		out[prev].End = types.EndPtr(oldEnd.AddMonths(shift))
		changes = append(changes, Change{
			Pass:    pass,
			Action:  ActionNudgeEducationEnd,
			Message: fmt.Sprintf("education end %s -> %s (%+d months)", oldEnd, *out[prev].End, shift),
		})
	}

	types.SortPeriods(out)
	return out, changes
}

func indicesBefore(periods []types.Period, target int) []int {
	var idx []int
	for i, p := range periods {
		if i != target && p.Start.Before(periods[target].Start) {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		idx = append(idx, 0)
	}
	return idx
}
