package timeline

import (
	"math/rand/v2"
	"slices"

	"github.com/jonathan/cv-synth/internal/rules"
	"github.com/jonathan/cv-synth/internal/types"
)

var gapLabels = map[types.GapKind]map[string]string{
	types.GapParental: {
		"de": "Elternzeit",
		"fr": "Congé parental",
		"it": "Congedo parentale",
		"en": "Parental leave",
	},
	types.GapSabbatical: {
		"de": "Sabbatical",
		"fr": "Année sabbatique",
		"it": "Anno sabbatico",
		"en": "Sabbatical",
	},
	types.GapTraining: {
		"de": "Weiterbildung",
		"fr": "Formation continue",
		"it": "Formazione continua",
		"en": "Further education",
	},
	types.GapFreelance: {
		"de": "Freelance Projekte",
		"fr": "Projets freelance",
		"it": "Progetti freelance",
		"en": "Freelance projects",
	},
}

// GapLabel returns the localized label of a filler kind, falling back to German
func GapLabel(kind types.GapKind, language string) string {
	labels, ok := gapLabels[kind]
	if !ok {
		return string(kind)
	}
	if label, ok := labels[language]; ok {
		return label
	}
	return labels["de"]
}

// ClassifyGap maps a gap size to a kind. Parental leave is chosen at most once
// per timeline; sabbatical replaces it afterwards. With a nil rnd the choice
// among equal candidates is the first listed, which keeps auto-fix deterministic.
// ok is false when the gap is too large to explain.
func ClassifyGap(r *rules.Rules, months int, parentalUsed bool, rnd *rand.Rand) (types.GapKind, bool) {
	if months <= 0 {
		return types.GapShort, true
	}
	bucket, ok := r.GapBucketFor(months)
	if !ok {
		return types.GapReject, false
	}
	if slices.Contains(bucket.Kinds, types.GapParental) {
		if !parentalUsed {
			return types.GapParental, true
		}
		candidates := slices.DeleteFunc(slices.Clone(bucket.Kinds), func(k types.GapKind) bool { return k == types.GapParental })
		if len(candidates) == 0 {
			return types.GapSabbatical, true
		}
		return pick(candidates, rnd), true
	}
	return pick(bucket.Kinds, rnd), true
}

func pick(kinds []types.GapKind, rnd *rand.Rand) types.GapKind {
	if rnd == nil || len(kinds) == 1 {
		return kinds[0]
	}
	return kinds[rnd.IntN(len(kinds))]
}

func countParental(periods []types.Period) int {
	n := 0
	for _, p := range periods {
		if p.Kind == types.PeriodGap && p.GapKind == types.GapParental {
			n++
		}
	}
	return n
}
