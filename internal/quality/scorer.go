// Package quality scores assembled CV documents on completeness, realism,
// language and achievements and decides whether they pass the quality gate.
package quality

import (
	"math"

	"github.com/jonathan/cv-synth/internal/dates"
	"github.com/jonathan/cv-synth/internal/metrics"
	"github.com/jonathan/cv-synth/internal/rules"
	"github.com/jonathan/cv-synth/internal/types"
)

// Options configures a scoring run. Zero values fall back to today and the
// embedded rules.
type Options struct {
	Now       dates.YearMonth
	Rules     *rules.Rules
	Threshold float64
}

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = dates.Today()
	}
	if o.Rules == nil {
		o.Rules = rules.Default()
	}
	if o.Threshold <= 0 {
		o.Threshold = o.Rules.Quality.Threshold
	}
	return o
}

// scorer accumulates issues per dimension for one document
type scorer struct {
	doc     *types.Document
	opts    Options
	rules   rules.QualityRules
	metrics *metrics.Validator
	issues  []types.QualityIssue
	lost    map[types.QualityDimension]float64
}

// Score computes the quality report of doc. Low quality is never an error;
// it shows up as a low score and Passed == false.
func Score(doc *types.Document, opts Options) *types.Report {
	opts = opts.withDefaults()
	s := &scorer{
		doc:     doc,
		opts:    opts,
		rules:   opts.Rules.Quality,
		metrics: metrics.NewValidator(opts.Rules),
		lost:    make(map[types.QualityDimension]float64),
	}

	s.completeness()
	timelineIssues := s.realism()
	s.language()
	s.achievement()

	score := types.QualityScore{
		Completeness: s.subScore(types.DimensionCompleteness),
		Realism:      s.subScore(types.DimensionRealism),
		Language:     s.subScore(types.DimensionLanguage),
		Achievement:  s.subScore(types.DimensionAchievement),
	}
	w := s.rules.Weights
	score.Overall = round2(score.Completeness*w.Completeness +
		score.Realism*w.Realism +
		score.Language*w.Language +
		score.Achievement*w.Achievement)

	errorCount := types.CountSeverity(timelineIssues, types.SeverityError)
	for _, issue := range s.issues {
		if issue.Severity == types.SeverityError {
			errorCount++
		}
	}

	return &types.Report{
		Score:      score,
		Issues:     s.issues,
		Timeline:   timelineIssues,
		Threshold:  opts.Threshold,
		ErrorCount: errorCount,
		Passed:     score.Overall >= opts.Threshold && errorCount == 0,
	}
}

// penalize records an issue and deducts its penalty from the dimension
func (s *scorer) penalize(dim types.QualityDimension, severity types.Severity, penalty float64, message string) {
	if penalty <= 0 {
		return
	}
	penalty = round2(penalty)
	s.issues = append(s.issues, types.QualityIssue{
		Dimension: dim,
		Severity:  severity,
		Message:   message,
		Penalty:   penalty,
	})
	s.lost[dim] += penalty
}

func (s *scorer) subScore(dim types.QualityDimension) float64 {
	return round2(math.Max(0, 100-s.lost[dim]))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
