package quality

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/cv-synth/internal/types"
)

const (
	maxPhrasePenalty    = 12
	maxCasePenalty      = 10
	maxMetricPenalty    = 30
	maxVarietyPenalty   = 15
	minTokensForRatio   = 20
	minBulletsForVerbs  = 3
	minContentTokenRune = 4
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// stopwords are frequent function words of at least minContentTokenRune letters
var stopwords = map[string]struct{}{
	"beim": {}, "durch": {}, "sowie": {}, "einer": {}, "eines": {}, "einem": {}, "einen": {}, "nach": {},
	"über": {}, "unter": {}, "dabei": {}, "diese": {}, "dieser": {}, "sich": {}, "wurde": {}, "wurden": {},
	"with": {}, "from": {}, "that": {}, "this": {}, "into": {}, "over": {}, "their": {}, "were": {},
	"pour": {}, "dans": {}, "avec": {}, "sont": {}, "leur": {},
	"della": {}, "delle": {}, "degli": {}, "nella": {}, "sono": {}, "come": {},
}

// fillerAdverbs are praise words that read as padding when overused
var fillerAdverbs = []string{"erfolgreich", "successfully", "avec succès", "con successo"}

// impactStems mark outcome verbs
var impactStems = []string{
	"reduz", "senk", "gesenkt", "steiger", "gesteigert", "erhöh", "verbesser", "optimier", "beschleunig",
	"verkürz", "einspar", "spart", "halbier", "verdoppel", "gewann", "gewonnen",
	"increas", "reduc", "improv", "sav", "accelerat", "cut", "boost", "grew", "doubl", "halv",
	"rédui", "augment", "amélior", "optimis", "accélér",
	"ridott", "ridus", "aument", "miglior", "ottimizz",
}

// language penalizes repetitive vocabulary, monotone openings, filler adverbs,
// stuttered phrases and lowercase bullet starts
func (s *scorer) language() {
	p := s.rules.Penalties
	dim := types.DimensionLanguage
	bullets := s.doc.AllAchievements()

	texts := append([]string{s.doc.Summary}, bullets...)
	if total, unique := contentTokens(texts); total >= minTokensForRatio {
		ratio := float64(unique) / float64(total)
		if ratio < s.rules.MinUniqueTokenRatio {
			s.penalize(dim, types.SeverityWarning, p.LowUniqueness,
				fmt.Sprintf("low vocabulary variety: %.0f%% unique content words (min %.0f%%)", ratio*100, s.rules.MinUniqueTokenRatio*100))
		}
	}

	if len(bullets) >= minBulletsForVerbs {
		openers := make(map[string]struct{})
		for _, b := range bullets {
			if words := wordPattern.FindAllString(strings.ToLower(b), 1); len(words) > 0 {
				openers[words[0]] = struct{}{}
			}
		}
		ratio := float64(len(openers)) / float64(len(bullets))
		if ratio < s.rules.MinUniqueTokenRatio {
			s.penalize(dim, types.SeverityWarning, p.LowVerbVariety,
				fmt.Sprintf("low opening verb variety: %.0f%% unique (min %.0f%%)", ratio*100, s.rules.MinUniqueTokenRatio*100))
		}

		filler := 0
		for _, b := range bullets {
			lower := strings.ToLower(b)
			for _, adverb := range fillerAdverbs {
				if strings.Contains(lower, adverb) {
					filler++
					break
				}
			}
		}
		if share := float64(filler) / float64(len(bullets)); share > s.rules.MaxFillerShare {
			s.penalize(dim, types.SeverityWarning, p.FillerOveruse,
				fmt.Sprintf("filler adverb in %.0f%% of achievements (max %.0f%%)", share*100, s.rules.MaxFillerShare*100))
		}
	}

	spent := 0.0
	for _, t := range texts {
		phrase, ok := repeatedPhrase(t)
		if !ok || spent >= maxPhrasePenalty {
			continue
		}
		penalty := math.Min(p.DuplicatePhrase, maxPhrasePenalty-spent)
		spent += penalty
		s.penalize(dim, types.SeverityWarning, penalty, fmt.Sprintf("duplicated phrase %q", phrase))
	}

	spent = 0.0
	for _, b := range bullets {
		r, _ := utf8.DecodeRuneInString(strings.TrimSpace(b))
		if !unicode.IsLower(r) || spent >= maxCasePenalty {
			continue
		}
		penalty := math.Min(p.LowercaseStart, maxCasePenalty-spent)
		spent += penalty
		s.penalize(dim, types.SeverityInfo, penalty, fmt.Sprintf("achievement starts lowercase: %q", truncate(b, 30)))
	}
}

// achievement rewards metric coverage, plausible and varied metrics and
// outcome verbs
func (s *scorer) achievement() {
	p := s.rules.Penalties
	dim := types.DimensionAchievement

	total, withMetric, withImpact := 0, 0, 0
	implausible, variety := 0.0, 0.0
	for i, j := range s.doc.Jobs {
		level := j.Level
		if !level.Valid() {
			level = s.doc.CareerLevel
		}
		jr := s.metrics.ValidateJob(j.Achievements, level)

		total += len(j.Achievements)
		withMetric += jr.MetricBullets
		for _, b := range j.Achievements {
			if hasImpactVerb(b) {
				withImpact++
			}
		}

		for k, res := range jr.Statements {
			if res.Valid || implausible >= maxMetricPenalty {
				continue
			}
			penalty := math.Min(p.ImplausibleMetric, maxMetricPenalty-implausible)
			implausible += penalty
			s.penalize(dim, types.SeverityWarning, penalty, fmt.Sprintf("job %d achievement %d: %s", i+1, k+1, res.Reason))
		}
		for _, issue := range jr.Issues[jr.Invalid:] {
			if variety >= maxVarietyPenalty {
				break
			}
			penalty := math.Min(p.MetricVariety, maxVarietyPenalty-variety)
			variety += penalty
			s.penalize(dim, types.SeverityInfo, penalty, fmt.Sprintf("job %d: %s", i+1, issue))
		}
	}

	metricShare, impactShare := 0.0, 0.0
	if total > 0 {
		metricShare = float64(withMetric) / float64(total)
		impactShare = float64(withImpact) / float64(total)
	}

	if shortfall := 1 - math.Min(1, metricShare/s.rules.TargetMetricShare); shortfall > 0 {
		s.penalize(dim, types.SeverityWarning, p.MetricCoverage*shortfall,
			fmt.Sprintf("%.0f%% of achievements carry a plausible metric (target %.0f%%)", metricShare*100, s.rules.TargetMetricShare*100))
	}
	if shortfall := 1 - math.Min(1, impactShare/s.rules.MinImpactShare); shortfall > 0 {
		s.penalize(dim, types.SeverityWarning, p.ImpactVerbs*shortfall,
			fmt.Sprintf("%.0f%% of achievements use an outcome verb (target %.0f%%)", impactShare*100, s.rules.MinImpactShare*100))
	}
}

// contentTokens counts words of at least minContentTokenRune letters that are
// not stopwords, and how many of them are distinct
func contentTokens(texts []string) (int, int) {
	seen := make(map[string]struct{})
	total := 0
	for _, t := range texts {
		for _, w := range wordPattern.FindAllString(strings.ToLower(t), -1) {
			if utf8.RuneCountInString(w) < minContentTokenRune || !isLetters(w) {
				continue
			}
			if _, stop := stopwords[w]; stop {
				continue
			}
			total++
			seen[w] = struct{}{}
		}
	}
	return total, len(seen)
}

// repeatedPhrase finds a run of two to four words immediately repeated,
// as in "verantwortlich für verantwortlich für"
func repeatedPhrase(text string) (string, bool) {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	for n := 2; n <= 4; n++ {
		for i := 0; i+2*n <= len(words); i++ {
			if equalWords(words[i:i+n], words[i+n:i+2*n]) {
				return strings.Join(words[i:i+n], " "), true
			}
		}
	}
	return "", false
}

func equalWords(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func hasImpactVerb(text string) bool {
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		for _, stem := range impactStems {
			if strings.HasPrefix(w, stem) {
				return true
			}
		}
	}
	return false
}

func isLetters(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
