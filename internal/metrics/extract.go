// Package metrics extracts quantitative claims from achievement statements and
// checks them against the plausible ranges for a career level.
package metrics

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/cv-synth/internal/types"
)

// number matches Swiss thousands separators (500'000) and decimals with either separator
const number = `(\d{1,3}(?:['’]\d{3})+|\d+(?:[.,]\d+)?)`

// scale is ordered longest first because RE2 alternation is leftmost-first
const scale = `(k|tsd|mio|mrd|millionen|millions|million|milliarden|milliarde|billion|m)\b`

type family struct {
	kind     types.MetricKind
	patterns []*regexp.Regexp
}

// families are tried in order and the first match wins
var families = []family{
	{
		kind: types.MetricPercentage,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)` + number + `\s*(?:%|prozent\b|percent\b|pour\s*cent\b|per\s*cento\b)`),
		},
	},
	{
		kind: types.MetricTeamSize,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)team\s+(?:von|of|de|di)\s+(\d+)`),
			regexp.MustCompile(`(?i)(\d+)\s*[-–]?\s*köpfige[sn]?\s+team`),
			regexp.MustCompile(`(?i)(\d+)[-\s]person\s+team`),
			regexp.MustCompile(`(?i)(\d+)\s+(?:entwickler(?:n|innen)?|mitarbeite(?:r|rn|rinnen|nde|nden)|kolleg(?:en|innen)|fachkräfte(?:n)?|person(?:en|nes|e|s)?|developers?|engineers?|people|employees|direct\s+reports|collaborat(?:eurs|ori))\b`),
		},
	},
	{
		kind: types.MetricProjectCount,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(\d+)\s+(?:parallele\s+|laufende\s+|erfolgreiche\s+|client\s+|parallel\s+|concurrent\s+)?(?:kunden|it-?)?(?:projekt(?:e|en)?|projects?|projets?|progetti)\b`),
		},
	},
	{
		kind: types.MetricCustomerCount,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(\d+)\s*\+?\s*(?:neue\s+|new\s+|key\s+|nouveaux\s+)?(?:kund(?:en|innen)|clients?|customers?|accounts?|clienti)\b`),
		},
	},
	{
		kind: types.MetricFinancial,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:chf|eur)\s*` + number + `(?:\s*` + scale + `)?`),
			regexp.MustCompile(`(?i)budget\s+(?:von|of|de|di)\s+` + number + `\s*` + scale),
			regexp.MustCompile(`(?i)` + number + `\s*(?:` + scale + `\.?\s*)?(?:chf|franken|eur)\b`),
		},
	},
}

var anyNumber = regexp.MustCompile(`\d+(?:[.,'’]\d+)*`)

// Extract returns the first quantitative claim found in text, trying the
// pattern families in priority order. It returns nil when the text holds no metric.
func Extract(text string) *types.ExtractedMetric {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	for _, f := range families {
		for _, re := range f.patterns {
			loc := re.FindStringSubmatchIndex(text)
			if loc == nil || loc[2] < 0 {
				continue
			}
			value, ok := parseNumber(text[loc[2]:loc[3]])
			if !ok {
				continue
			}
			if len(loc) >= 6 && loc[4] >= 0 {
				value *= scaleFactor(text[loc[4]:loc[5]])
			}
			if negativeAt(text, loc[2]) {
				value = -value
			}
			return &types.ExtractedMetric{
				Value:    value,
				Kind:     f.kind,
				Source:   text,
				Position: loc[2],
			}
		}
	}
	return nil
}

// CountNumbers returns the number of distinct numeric tokens in text
func CountNumbers(text string) int {
	seen := make(map[string]struct{})
	for _, tok := range anyNumber.FindAllString(text, -1) {
		seen[tok] = struct{}{}
	}
	return len(seen)
}

func parseNumber(raw string) (float64, bool) {
	s := strings.NewReplacer("'", "", "’", "").Replace(raw)
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func scaleFactor(suffix string) float64 {
	switch strings.ToLower(suffix) {
	case "k", "tsd":
		return 1e3
	case "m", "mio", "million", "millions", "millionen":
		return 1e6
	case "mrd", "milliarde", "milliarden", "billion":
		return 1e9
	default:
		return 1
	}
}

// negativeAt reports whether the number starting at pos carries a minus sign.
// A dash between two numbers ("10-15%") is a range, not a sign.
func negativeAt(text string, pos int) bool {
	before := text[:pos]
	var rest string
	switch {
	case strings.HasSuffix(before, "-"):
		rest = strings.TrimSuffix(before, "-")
	case strings.HasSuffix(before, "−"):
		rest = strings.TrimSuffix(before, "−")
	default:
		return false
	}
	if rest == "" {
		return true
	}
	last := rest[len(rest)-1]
	return last == ' ' || last == '(' || last == '\t'
}
