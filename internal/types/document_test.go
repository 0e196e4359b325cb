//nolint:revive // types is a standard Go package name pattern
package types

import (
	"testing"

	"github.com/jonathan/cv-synth/internal/dates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_Periods_SortedWithJobIndices(t *testing.T) {
	doc := &Document{
		Education: []Education{
			{Institution: "ETH", Start: dates.MustParse("2012-09"), End: EndPtr(dates.MustParse("2015-06"))},
		},
		Jobs: []Job{
			{Company: "B AG", Position: "Senior", Level: LevelSenior, Start: dates.MustParse("2019-01")},
			{Company: "A AG", Position: "Junior", Level: LevelJunior, Start: dates.MustParse("2015-08"), End: EndPtr(dates.MustParse("2018-03"))},
		},
		Gaps: []Gap{
			{Kind: GapTraining, Label: "Weiterbildung", Start: dates.MustParse("2018-03"), End: EndPtr(dates.MustParse("2019-01"))},
		},
	}

	periods := doc.Periods()
	require.Len(t, periods, 4)
	assert.Equal(t, PeriodEducation, periods[0].Kind)
	assert.Equal(t, "A AG", periods[1].Job.Employer)
	assert.Equal(t, 0, periods[1].Job.Index)
	assert.Equal(t, PeriodGap, periods[2].Kind)
	assert.Equal(t, "B AG", periods[3].Job.Employer)
	assert.Equal(t, 1, periods[3].Job.Index)
	assert.True(t, periods[3].IsOpen())
}

func TestDocument_Persona(t *testing.T) {
	doc := &Document{
		Age:             30,
		ExperienceYears: 8,
		CareerLevel:     LevelSenior,
		Education: []Education{
			{Start: dates.MustParse("2015-09"), End: EndPtr(dates.MustParse("2017-06"))},
			{Start: dates.MustParse("2012-09"), End: EndPtr(dates.MustParse("2015-06"))},
		},
	}

	p := doc.Persona()
	assert.Equal(t, 2012, p.EducationStartYear)
	assert.Equal(t, 3, p.EducationDuration)
	assert.Equal(t, LevelSenior, p.CareerLevel)
}

func TestPeriod_CloneIsDeep(t *testing.T) {
	p := Period{
		Kind:  PeriodJob,
		Start: dates.MustParse("2015-01"),
		End:   EndPtr(dates.MustParse("2017-01")),
		Job:   &JobDetails{Level: LevelMid, Achievements: []string{"a"}},
	}
	c := p.Clone()
	c.End.Year = 2020
	c.Job.Achievements[0] = "b"
	c.Job.Level = LevelLead

	assert.Equal(t, 2017, p.End.Year)
	assert.Equal(t, "a", p.Job.Achievements[0])
	assert.Equal(t, LevelMid, p.Job.Level)
}

func TestPeriod_DurationMonths(t *testing.T) {
	today := dates.MustParse("2024-06")
	open := Period{Start: dates.MustParse("2020-06")}
	closed := Period{Start: dates.MustParse("2020-06"), End: EndPtr(dates.MustParse("2021-01"))}

	assert.Equal(t, 48, open.DurationMonths(today))
	assert.Equal(t, 7, closed.DurationMonths(today))
}

func TestCountSeverity(t *testing.T) {
	issues := []TimelineIssue{
		{Severity: SeverityError},
		{Severity: SeverityWarning},
		{Severity: SeverityError},
	}
	assert.Equal(t, 2, CountSeverity(issues, SeverityError))
	assert.Equal(t, 0, CountSeverity(issues, SeverityInfo))
}
