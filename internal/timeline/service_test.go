package timeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-synth/internal/types"
)

func TestValidateAndFix_ReturnsJobsAndGaps(t *testing.T) {
	persona := types.Persona{Age: 33, ExperienceYears: 10, CareerLevel: types.LevelSenior, Language: "fr"}
	periods := []types.Period{
		edu("2010-01", "2014-01"),
		job("2014-03", "2017-06", types.LevelJunior, "Nestlé SA"),
		job("2018-05", "2021-01", types.LevelMid, "Logitech SA"),
		job("2020-11", "", types.LevelSenior, "Firmenich SA"),
	}

	result, err := ValidateAndFix(persona, periods, Options{Now: testToday})
	require.NoError(t, err)

	require.Len(t, result.Jobs, 3)
	assert.Equal(t, "Nestlé SA", result.Jobs[0].Company)
	assert.Equal(t, ym("2020-11"), *result.Jobs[1].End)
	assert.Nil(t, result.Jobs[2].End)

	require.Len(t, result.Gaps, 1)
	assert.Equal(t, types.GapTraining, result.Gaps[0].Kind)
	assert.Equal(t, "Formation continue", result.Gaps[0].Label)
	assert.False(t, HasErrors(result.Issues))
	assert.NotEmpty(t, result.Changes)
}

func TestValidateAndFix_UnfixableReturnsError(t *testing.T) {
	persona := types.Persona{Age: 33, ExperienceYears: 10, CareerLevel: types.LevelSenior}
	periods := []types.Period{
		job("2010-01", "2013-01", types.LevelMid, "A"),
		job("2016-01", "", types.LevelSenior, "B"),
	}

	result, err := ValidateAndFix(persona, periods, Options{Now: testToday})
	require.Error(t, err)
	require.NotNil(t, result)

	var unfixable *UnfixableError
	require.True(t, errors.As(err, &unfixable))
	assert.True(t, HasErrors(unfixable.Issues))
	assert.Contains(t, err.Error(), "unfixable timeline")
}

func TestSummarize(t *testing.T) {
	periods := []types.Period{
		edu("2012-01", "2015-01"),
		job("2015-03", "2018-06", types.LevelJunior, "A"),
		filler("2018-06", "2019-03", types.GapFreelance),
		job("2019-03", "", types.LevelMid, "B"),
	}

	s := Summarize(periods, testToday)

	require.NotNil(t, s.EducationEnd)
	assert.Equal(t, ym("2015-01"), *s.EducationEnd)
	require.NotNil(t, s.FirstJobStart)
	assert.Equal(t, ym("2015-03"), *s.FirstJobStart)
	assert.Equal(t, 2, s.Counts[types.PeriodJob])
	assert.Equal(t, 1, s.Counts[types.PeriodGap])
	assert.Equal(t, []types.GapKind{types.GapFreelance}, s.GapKinds)
	assert.InDelta(t, (39.0+75.0)/12.0, s.JobYears, 0.001)
}
