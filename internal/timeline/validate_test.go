package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-synth/internal/dates"
	"github.com/jonathan/cv-synth/internal/rules"
	"github.com/jonathan/cv-synth/internal/types"
)

func ym(s string) dates.YearMonth { return dates.MustParse(s) }

func end(s string) *dates.YearMonth { return types.EndPtr(dates.MustParse(s)) }

func edu(start, stop string) types.Period {
	return types.Period{Kind: types.PeriodEducation, Start: ym(start), End: end(stop)}
}

func job(start, stop string, level types.CareerLevel, employer string) types.Period {
	p := types.Period{
		Kind:  types.PeriodJob,
		Start: ym(start),
		Job:   &types.JobDetails{Level: level, Employer: employer},
	}
	if stop != "" {
		p.End = end(stop)
	}
	return p
}

func filler(start, stop string, kind types.GapKind) types.Period {
	return types.Period{Kind: types.PeriodGap, Start: ym(start), End: end(stop), GapKind: kind}
}

func cleanTimeline() []types.Period {
	return []types.Period{
		edu("2012-01", "2015-01"),
		job("2015-03", "2018-06", types.LevelJunior, "Swisscom AG"),
		job("2018-08", "2021-09", types.LevelMid, "Migros AG"),
		job("2021-10", "", types.LevelSenior, "UBS AG"),
	}
}

func defaultRules() *rules.Rules { return rules.Default() }

func TestValidate_CleanTimelineHasNoErrors(t *testing.T) {
	persona := types.Persona{Age: 30, ExperienceYears: 10, CareerLevel: types.LevelSenior}
	issues := Validate(Input{Persona: &persona, Periods: cleanTimeline()}, Options{Now: testToday})
	assert.False(t, HasErrors(issues), "%v", issues)
}

func TestCheckOrdering(t *testing.T) {
	tests := []struct {
		name     string
		periods  []types.Period
		category types.IssueCategory
		affected []int
	}{
		{
			name: "overlapping jobs",
			periods: []types.Period{
				job("2015-01", "2018-06", types.LevelMid, "A"),
				job("2018-01", "", types.LevelMid, "B"),
			},
			category: types.CategoryOverlap,
			affected: []int{0, 1},
		},
		{
			name: "start after end",
			periods: []types.Period{
				job("2018-01", "2017-01", types.LevelMid, "A"),
			},
			category: types.CategoryDuration,
			affected: []int{0},
		},
		{
			name: "ends after today",
			periods: []types.Period{
				job("2018-01", "2026-01", types.LevelMid, "A"),
			},
			category: types.CategoryFormat,
			affected: []int{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := CheckOrdering(tt.periods, testToday)
			require.NotEmpty(t, issues)
			assert.Equal(t, types.SeverityError, issues[0].Severity)
			assert.Equal(t, tt.category, issues[0].Category)
			assert.Equal(t, tt.affected, issues[0].AffectedPeriods)
		})
	}
}

func TestCheckOrdering_OpenPeriodMustBeLast(t *testing.T) {
	periods := []types.Period{
		job("2015-01", "", types.LevelMid, "A"),
		job("2019-01", "2020-01", types.LevelMid, "B"),
	}
	issues := FilterByCategory(CheckOrdering(periods, testToday), types.CategoryOverlap)
	require.Len(t, issues, 2)
	assert.Contains(t, issues[0].Message, "open-ended")
}

func TestCheckOrdering_ReportsIndicesOfUnsortedInput(t *testing.T) {
	periods := []types.Period{
		job("2018-01", "", types.LevelMid, "late"),
		job("2015-01", "2018-06", types.LevelMid, "early"),
	}
	issues := CheckOrdering(periods, testToday)
	require.Len(t, issues, 1)
	assert.Equal(t, []int{1, 0}, issues[0].AffectedPeriods)
}

func TestCheckGaps(t *testing.T) {
	tests := []struct {
		name     string
		gapStart string
		severity types.Severity
		wantNone bool
	}{
		{name: "four months", gapStart: "2018-10", wantNone: true},
		{name: "six months", gapStart: "2018-12", wantNone: true},
		{name: "eight months", gapStart: "2019-02", severity: types.SeverityInfo},
		{name: "eighteen months", gapStart: "2019-12", severity: types.SeverityWarning},
		{name: "thirty months", gapStart: "2020-12", severity: types.SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			periods := []types.Period{
				job("2015-01", "2018-06", types.LevelMid, "A"),
				job(tt.gapStart, "", types.LevelMid, "B"),
			}
			issues := CheckGaps(periods, testToday, defaultRules())
			if tt.wantNone {
				assert.Empty(t, issues)
				return
			}
			require.Len(t, issues, 1)
			assert.Equal(t, tt.severity, issues[0].Severity)
			assert.Equal(t, types.CategoryGap, issues[0].Category)
		})
	}
}

func TestCheckGaps_EducationToFirstJob(t *testing.T) {
	periods := []types.Period{
		edu("2010-01", "2013-01"),
		job("2016-01", "", types.LevelMid, "A"),
	}
	issues := CheckGaps(periods, testToday, defaultRules())
	require.Len(t, issues, 1)
	assert.Equal(t, types.SeverityError, issues[0].Severity)
	assert.Equal(t, []int{0, 1}, issues[0].AffectedPeriods)
}

func TestCheckGaps_FillerExplainsGap(t *testing.T) {
	periods := []types.Period{
		job("2015-01", "2018-06", types.LevelMid, "A"),
		filler("2018-06", "2019-12", types.GapParental),
		job("2019-12", "", types.LevelMid, "B"),
	}
	assert.Empty(t, CheckGaps(periods, testToday, defaultRules()))
}

func TestCheckGaps_OnlyOneParentalLeave(t *testing.T) {
	periods := []types.Period{
		job("2012-01", "2014-01", types.LevelMid, "A"),
		filler("2014-01", "2015-03", types.GapParental),
		job("2015-03", "2018-06", types.LevelMid, "B"),
		filler("2018-06", "2019-12", types.GapParental),
		job("2019-12", "", types.LevelMid, "C"),
	}
	issues := FilterBySeverity(CheckGaps(periods, testToday, defaultRules()), types.SeverityError)
	require.Len(t, issues, 1)
	assert.Equal(t, []int{1, 3}, issues[0].AffectedPeriods)
}

func TestCheckGaps_FillerLongerThanLimit(t *testing.T) {
	periods := []types.Period{
		job("2012-01", "2014-01", types.LevelMid, "A"),
		filler("2014-01", "2017-01", types.GapSabbatical),
		job("2017-01", "", types.LevelMid, "B"),
	}
	issues := CheckGaps(periods, testToday, defaultRules())
	require.Len(t, issues, 1)
	assert.Equal(t, types.SeverityError, issues[0].Severity)
}

func TestCheckProgression(t *testing.T) {
	t.Run("one level dip tolerated", func(t *testing.T) {
		periods := []types.Period{
			job("2015-01", "2018-01", types.LevelSenior, "A"),
			job("2018-01", "", types.LevelMid, "B"),
		}
		assert.Empty(t, CheckProgression(periods))
	})

	t.Run("senior to junior flagged", func(t *testing.T) {
		periods := []types.Period{
			job("2015-01", "2018-01", types.LevelSenior, "A"),
			job("2018-01", "", types.LevelJunior, "B"),
		}
		issues := CheckProgression(periods)
		require.Len(t, issues, 1)
		assert.Equal(t, types.SeverityWarning, issues[0].Severity)
		assert.Equal(t, types.CategoryProgression, issues[0].Category)
	})

	t.Run("level inferred from title", func(t *testing.T) {
		periods := []types.Period{
			{Kind: types.PeriodJob, Start: ym("2015-01"), End: end("2018-01"), Job: &types.JobDetails{Position: "Teamleiter Logistik"}},
			{Kind: types.PeriodJob, Start: ym("2018-01"), Job: &types.JobDetails{Position: "Junior Sachbearbeiter"}},
		}
		assert.Len(t, CheckProgression(periods), 1)
	})
}

func TestInferLevel(t *testing.T) {
	assert.Equal(t, types.LevelJunior, InferLevel("Junior Developer"))
	assert.Equal(t, types.LevelSenior, InferLevel("Senior Software Engineer"))
	assert.Equal(t, types.LevelLead, InferLevel("Abteilungsleiter"))
	assert.Equal(t, types.LevelMid, InferLevel("Informatiker"))
}

func TestCheckDurations(t *testing.T) {
	periods := []types.Period{
		job("2010-01", "2010-04", types.LevelMid, "short"),
		job("2010-04", "2021-04", types.LevelMid, "long"),
		job("2021-04", "", types.LevelMid, "normal"),
	}
	issues := CheckDurations(periods, testToday, defaultRules())
	require.Len(t, issues, 2)
	assert.Equal(t, types.SeverityWarning, issues[0].Severity)
	assert.Equal(t, []int{0}, issues[0].AffectedPeriods)
	assert.Equal(t, types.SeverityInfo, issues[1].Severity)
	assert.Equal(t, []int{1}, issues[1].AffectedPeriods)
}

func TestCheckAgeAtPeriod(t *testing.T) {
	persona := types.Persona{Age: 32, ExperienceYears: 10, CareerLevel: types.LevelLead}
	periods := []types.Period{
		job("2005-01", "2008-01", types.LevelJunior, "too young"),
		job("2018-01", "2020-01", types.LevelSenior, "senior at 25"),
		job("2020-01", "", types.LevelLead, "lead at 27"),
	}

	issues := CheckAgeAtPeriod(persona, periods, testToday, defaultRules())
	require.Len(t, issues, 2)
	assert.Equal(t, types.SeverityError, issues[0].Severity)
	assert.Equal(t, []int{0}, issues[0].AffectedPeriods)
	assert.Equal(t, types.SeverityWarning, issues[1].Severity)
	assert.Equal(t, []int{2}, issues[1].AffectedPeriods)
}

func TestCheckPersonaConsistency(t *testing.T) {
	t.Run("experience exceeds age", func(t *testing.T) {
		persona := types.Persona{Age: 24, ExperienceYears: 8, CareerLevel: types.LevelMid}
		issues := CheckPersonaConsistency(persona, nil, testToday, defaultRules())
		require.Len(t, issues, 1)
		assert.Equal(t, types.SeverityError, issues[0].Severity)
		assert.Contains(t, issues[0].Message, "exceeds")
	})

	t.Run("same bound as persona validation", func(t *testing.T) {
		within := types.Persona{Age: 24, ExperienceYears: 6, CareerLevel: types.LevelMid, EducationStartYear: 2016, EducationDuration: 3}
		require.NoError(t, within.Validate())
		assert.Empty(t, CheckPersonaConsistency(within, nil, testToday, defaultRules()))

		beyond := within
		beyond.ExperienceYears = 7
		assert.Error(t, beyond.Validate())
		issues := CheckPersonaConsistency(beyond, nil, testToday, defaultRules())
		require.Len(t, issues, 1)
		assert.Contains(t, issues[0].Message, "max 6")
	})

	t.Run("too young for level", func(t *testing.T) {
		persona := types.Persona{Age: 27, ExperienceYears: 5, CareerLevel: types.LevelLead}
		issues := CheckPersonaConsistency(persona, nil, testToday, defaultRules())
		require.Len(t, issues, 1)
		assert.Equal(t, types.CategoryAge, issues[0].Category)
	})

	t.Run("job time far from declared experience", func(t *testing.T) {
		persona := types.Persona{Age: 40, ExperienceYears: 5, CareerLevel: types.LevelSenior}
		issues := CheckPersonaConsistency(persona, cleanTimeline(), testToday, defaultRules())
		require.Len(t, issues, 1)
		assert.Equal(t, types.SeverityWarning, issues[0].Severity)
	})
}

func TestCheckFormat(t *testing.T) {
	periods := []types.Period{
		{Kind: types.PeriodJob, Start: dates.YearMonth{Year: 2015, Month: 13}, Job: &types.JobDetails{Employer: "A"}},
		job("2016-01", "", types.LevelMid, "Verschiedene Positionen"),
	}
	issues := CheckFormat(periods, testToday)
	require.Len(t, issues, 2)
	for _, issue := range issues {
		assert.Equal(t, types.CategoryFormat, issue.Category)
		assert.Equal(t, types.SeverityError, issue.Severity)
	}
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	periods := []types.Period{
		job("2018-01", "", types.LevelMid, "B"),
		job("2015-01", "2018-06", types.LevelMid, "A"),
	}
	before := types.ClonePeriods(periods)
	_ = Validate(Input{Periods: periods}, Options{Now: testToday})
	assert.Equal(t, before, periods)
}
