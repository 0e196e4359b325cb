package metrics

import (
	"fmt"
	"strings"

	"github.com/jonathan/cv-synth/internal/types"
)

// RangePrompt describes the plausible metric ranges for level in a form that
// can be pasted into a text-generation prompt
func (v *Validator) RangePrompt(level types.CareerLevel) string {
	var parts []string
	for _, kind := range types.MetricKinds {
		rng, ok := v.rules.MetricRange(kind, level)
		if !ok {
			continue
		}
		if rng.AbsoluteMax == 0 {
			parts = append(parts, fmt.Sprintf("%s: none", kindLabel(kind)))
			continue
		}
		switch kind {
		case types.MetricPercentage:
			parts = append(parts, fmt.Sprintf("percentages: %s-%s%% (max %s%%)",
				formatValue(rng.Min), formatValue(rng.Max), formatValue(rng.AbsoluteMax)))
		case types.MetricFinancial:
			parts = append(parts, fmt.Sprintf("budget: CHF %sK-%sK (max CHF %sK)",
				formatValue(rng.Min/1000), formatValue(rng.Max/1000), formatValue(rng.AbsoluteMax/1000)))
		default:
			parts = append(parts, fmt.Sprintf("%s: %s-%s (max %s)",
				kindLabel(kind), formatValue(rng.Min), formatValue(rng.Max), formatValue(rng.AbsoluteMax)))
		}
	}

	if len(parts) == 0 {
		return fmt.Sprintf("Use realistic metrics for %s level. Avoid unrealistic numbers (>100%%, teams >100, projects >50).", level)
	}
	return fmt.Sprintf("Use realistic metrics for %s level: %s. Never exceed absolute maximums.", level, strings.Join(parts, ", "))
}

// EnhancePrompt appends the metric requirements for level to a base prompt
func (v *Validator) EnhancePrompt(base string, level types.CareerLevel) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "\n"))
	b.WriteString("\n\nMETRIC REQUIREMENTS:\n")
	fmt.Fprintf(&b, "- %s\n", v.RangePrompt(level))
	fmt.Fprintf(&b, "- Use ONE metric kind per statement and at most %d numbers\n", v.rules.Metrics.MaxNumbersPerStatement)
	b.WriteString("- Vary metric kinds across the statements of the same job\n")
	b.WriteString("- Not every statement needs a number; qualitative outcomes are fine\n")
	b.WriteString("- Good: \"Leitete ein Team von 12 Entwicklern\", \"Senkte die Durchlaufzeit um 18%\", \"Betreute 25 Kundenprojekte\"\n")
	b.WriteString("- Bad: \"Leitete 12 Personen, 301%, 70 Projekte\"\n")
	return b.String()
}

func kindLabel(kind types.MetricKind) string {
	switch kind {
	case types.MetricTeamSize:
		return "team size"
	case types.MetricProjectCount:
		return "projects per year"
	case types.MetricCustomerCount:
		return "customers"
	default:
		return string(kind)
	}
}
