package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-synth/internal/types"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		kind  types.MetricKind
		value float64
	}{
		{"german percentage", "Reduzierte Kosten um 18%", types.MetricPercentage, 18},
		{"percentage word", "Steigerte Effizienz um 25 Prozent", types.MetricPercentage, 25},
		{"decimal comma", "Senkte Ausschuss um 12,5%", types.MetricPercentage, 12.5},
		{"range takes upper bound", "Steigerte Umsatz um 10-15%", types.MetricPercentage, 15},
		{"negative percentage", "Fehlerquote um -5% verändert", types.MetricPercentage, -5},
		{"team von", "Leitete ein Team von 12 Personen", types.MetricTeamSize, 12},
		{"team of", "Led a team of 8 engineers", types.MetricTeamSize, 8},
		{"köpfiges team", "Führte ein 15-köpfiges Team", types.MetricTeamSize, 15},
		{"headcount", "Betreute 6 Mitarbeitende im Support", types.MetricTeamSize, 6},
		{"client projects german", "Betreute 25 Kundenprojekte erfolgreich", types.MetricProjectCount, 25},
		{"client projects english", "Delivered 7 client projects", types.MetricProjectCount, 7},
		{"customers", "Betreute 40 Kunden pro Monat", types.MetricCustomerCount, 40},
		{"chf mio", "Verwaltete ein Budget von CHF 2.5 Mio", types.MetricFinancial, 2.5e6},
		{"budget millionen", "Budget von 1,5 Millionen verantwortet", types.MetricFinancial, 1.5e6},
		{"swiss thousands", "Sparte CHF 500'000 ein", types.MetricFinancial, 500000},
		{"chf k", "Realised savings of CHF 800k", types.MetricFinancial, 800000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Extract(tt.text)
			require.NotNil(t, m)
			assert.Equal(t, tt.kind, m.Kind)
			assert.InDelta(t, tt.value, m.Value, 0.001)
			assert.Equal(t, tt.text, m.Source)
		})
	}
}

func TestExtract_Position(t *testing.T) {
	m := Extract("Reduzierte Kosten um 18%")
	require.NotNil(t, m)
	assert.Equal(t, 21, m.Position)
}

func TestExtract_NoMetric(t *testing.T) {
	assert.Nil(t, Extract(""))
	assert.Nil(t, Extract("   "))
	assert.Nil(t, Extract("Organisierte das jährliche Team-Event"))
}

func TestCountNumbers(t *testing.T) {
	assert.Equal(t, 0, CountNumbers("keine Zahlen"))
	assert.Equal(t, 1, CountNumbers("12 und nochmals 12"))
	assert.Equal(t, 4, CountNumbers("Leitete 12 Personen, 301%, 70 Projekte und 5 Kunden"))
	assert.Equal(t, 1, CountNumbers("Sparte CHF 500'000"))
}

func TestValidateStatement_PercentageOver100RejectedAtEveryLevel(t *testing.T) {
	v := NewValidator(nil)
	for _, level := range types.CareerLevels {
		res := v.ValidateStatement("Steigerte den Umsatz um 301%", level)
		assert.False(t, res.Valid, "level %s", level)
		assert.Contains(t, res.Reason, "exceeds absolute limit")
		require.NotNil(t, res.Metric)
		assert.Equal(t, types.MetricPercentage, res.Metric.Kind)
	}
}

func TestValidateStatement_TeamSizeByLevel(t *testing.T) {
	v := NewValidator(nil)

	senior := v.ValidateStatement("Leitete ein Team von 12 Personen", types.LevelSenior)
	assert.True(t, senior.Valid)
	assert.Empty(t, senior.Warning)

	junior := v.ValidateStatement("Leitete ein Team von 12 Personen", types.LevelJunior)
	assert.False(t, junior.Valid)
	assert.Contains(t, junior.Reason, "for junior level")
}

func TestValidateStatement_MixingFlaggedBeforeExtraction(t *testing.T) {
	v := NewValidator(nil)
	res := v.ValidateStatement("Leitete 12 Personen, 301%, 70 Projekte und 5 Kunden", types.LevelLead)
	assert.False(t, res.Valid)
	assert.True(t, res.Mixed)
	assert.Nil(t, res.Metric)
	assert.Equal(t, 4, res.Numbers)
}

func TestValidateStatement_ThreeNumbersStillClassified(t *testing.T) {
	v := NewValidator(nil)
	res := v.ValidateStatement("Leitete 12 Personen, 301%, 70 Projekte", types.LevelLead)
	assert.False(t, res.Valid)
	assert.False(t, res.Mixed)
	require.NotNil(t, res.Metric)
	assert.Equal(t, types.MetricPercentage, res.Metric.Kind)
}

func TestValidateStatement_TieredPolicy(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		name        string
		text        string
		level       types.CareerLevel
		valid       bool
		wantWarning bool
		reason      string
	}{
		{"in range", "Senkte Kosten um 20%", types.LevelSenior, true, false, ""},
		{"outside typical range", "Senkte Kosten um 45%", types.LevelSenior, true, true, ""},
		{"over level maximum", "Senkte Kosten um 60%", types.LevelLead, false, false, "exceeds maximum 50"},
		{"negative", "Fehlerquote um -5% verändert", types.LevelMid, false, false, "negative"},
		{"projects over 50", "Leitete 70 Projekte", types.LevelLead, false, false, "exceeds absolute limit 50"},
		{"junior budget", "Verwaltete ein Budget von CHF 200k", types.LevelJunior, false, false, "for junior level"},
		{"lead budget", "Verwaltete ein Budget von CHF 2 Mio", types.LevelLead, true, false, ""},
		{"no metric", "Koordinierte interne Workshops", types.LevelMid, true, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.ValidateStatement(tt.text, tt.level)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.wantWarning {
				assert.Contains(t, res.Warning, "outside typical range")
			} else {
				assert.Empty(t, res.Warning)
			}
			if tt.reason != "" {
				assert.Contains(t, res.Reason, tt.reason)
			}
		})
	}
}

func TestValidateJob_Variety(t *testing.T) {
	v := NewValidator(nil)

	t.Run("single kind", func(t *testing.T) {
		jr := v.ValidateJob([]string{
			"Senkte Kosten um 20%",
			"Steigerte Umsatz um 25%",
			"Reduzierte Fehler um 30%",
		}, types.LevelSenior)
		assert.False(t, jr.Valid)
		assert.Equal(t, 3, jr.MetricBullets)
		assert.Equal(t, 3, jr.Distribution[types.MetricPercentage])
		assert.Len(t, jr.Issues, 2)
	})

	t.Run("mixed kinds", func(t *testing.T) {
		jr := v.ValidateJob([]string{
			"Senkte Kosten um 20%",
			"Leitete ein Team von 8 Entwicklern",
			"Betreute 12 Kundenprojekte",
		}, types.LevelSenior)
		assert.True(t, jr.Valid, "issues: %v", jr.Issues)
		assert.Len(t, jr.Distribution, 3)
	})

	t.Run("two of three exceeds share", func(t *testing.T) {
		jr := v.ValidateJob([]string{
			"Senkte Kosten um 20%",
			"Steigerte Umsatz um 25%",
			"Leitete ein Team von 8 Entwicklern",
		}, types.LevelSenior)
		assert.False(t, jr.Valid)
		require.Len(t, jr.Issues, 1)
		assert.Contains(t, jr.Issues[0], "percentage dominates 2 of 3")
	})

	t.Run("three of four exceeds share", func(t *testing.T) {
		jr := v.ValidateJob([]string{
			"Senkte Kosten um 20%",
			"Steigerte Umsatz um 25%",
			"Reduzierte Fehler um 30%",
			"Leitete ein Team von 10 Personen",
		}, types.LevelSenior)
		assert.False(t, jr.Valid)
		assert.Equal(t, 3, jr.Distribution[types.MetricPercentage])
		require.Len(t, jr.Issues, 1)
		assert.Contains(t, jr.Issues[0], "percentage dominates 3 of 4")
	})

	t.Run("three of five is within share", func(t *testing.T) {
		jr := v.ValidateJob([]string{
			"Senkte Kosten um 20%",
			"Steigerte Umsatz um 25%",
			"Reduzierte Fehler um 30%",
			"Leitete ein Team von 10 Personen",
			"Betreute 12 Kundenprojekte",
		}, types.LevelSenior)
		assert.True(t, jr.Valid, "issues: %v", jr.Issues)
	})

	t.Run("fewer than three metric statements", func(t *testing.T) {
		jr := v.ValidateJob([]string{
			"Senkte Kosten um 20%",
			"Steigerte Umsatz um 25%",
			"Moderierte Workshops",
		}, types.LevelSenior)
		assert.True(t, jr.Valid)
		assert.Equal(t, 2, jr.MetricBullets)
	})

	t.Run("invalid statement reported", func(t *testing.T) {
		jr := v.ValidateJob([]string{
			"Steigerte Umsatz um 301%",
			"Leitete ein Team von 8 Entwicklern",
		}, types.LevelSenior)
		assert.False(t, jr.Valid)
		assert.Equal(t, 1, jr.Invalid)
		require.NotEmpty(t, jr.Issues)
		assert.Contains(t, jr.Issues[0], "statement 1")
	})
}

func TestFilterBullets(t *testing.T) {
	v := NewValidator(nil)
	kept, jr := v.FilterBullets([]string{
		"Senkte Kosten um 20%",
		"Steigerte Umsatz um 301%",
		"Leitete ein Team von 8 Entwicklern",
		"Koordinierte Workshops",
	}, types.LevelSenior)

	assert.Equal(t, []string{
		"Senkte Kosten um 20%",
		"Leitete ein Team von 8 Entwicklern",
		"Koordinierte Workshops",
	}, kept)
	assert.Equal(t, 1, jr.Invalid)
	assert.Equal(t, 2, jr.MetricBullets)
	assert.False(t, jr.Valid)
}

func TestRangePrompt(t *testing.T) {
	v := NewValidator(nil)

	junior := v.RangePrompt(types.LevelJunior)
	assert.Contains(t, junior, "percentages: 5-15% (max 50%)")
	assert.Contains(t, junior, "team size: none")
	assert.Contains(t, junior, "financial: none")

	senior := v.RangePrompt(types.LevelSenior)
	assert.Contains(t, senior, "team size: 5-15 (max 100)")
	assert.Contains(t, senior, "budget: CHF 500K-2000K (max CHF 10000K)")
}

func TestEnhancePrompt(t *testing.T) {
	v := NewValidator(nil)
	out := v.EnhancePrompt("Schreibe drei Erfolge.\n", types.LevelMid)
	assert.Contains(t, out, "Schreibe drei Erfolge.\n\nMETRIC REQUIREMENTS:")
	assert.Contains(t, out, v.RangePrompt(types.LevelMid))
	assert.Contains(t, out, "at most 3 numbers")
}
