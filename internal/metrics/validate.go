package metrics

import (
	"fmt"
	"math"
	"sort"

	"github.com/jonathan/cv-synth/internal/rules"
	"github.com/jonathan/cv-synth/internal/types"
)

// Validator checks extracted metrics against a rules table
type Validator struct {
	rules *rules.Rules
}

// NewValidator returns a validator for r, or for the embedded defaults when r is nil
func NewValidator(r *rules.Rules) *Validator {
	if r == nil {
		r = rules.Default()
	}
	return &Validator{rules: r}
}

// Result is the outcome of checking one statement.
// Valid statements may still carry a Warning when the value sits outside the
// typical band but under the absolute maximum.
type Result struct {
	Metric  *types.ExtractedMetric `json:"metric,omitempty"`
	Valid   bool                   `json:"valid"`
	Mixed   bool                   `json:"mixed,omitempty"`
	Numbers int                    `json:"numbers"`
	Warning string                 `json:"warning,omitempty"`
	Reason  string                 `json:"reason,omitempty"`
}

// JobResult is the outcome of checking all statements of one job
type JobResult struct {
	Statements    []Result                 `json:"statements"`
	Distribution  map[types.MetricKind]int `json:"distribution"`
	MetricBullets int                      `json:"metric_bullets"`
	Invalid       int                      `json:"invalid"`
	Issues        []string                 `json:"issues,omitempty"`
	Valid         bool                     `json:"valid"`
}

// ValidateStatement extracts and checks the metric of a single statement.
// A statement without any metric is valid; coverage is judged by the scorer.
func (v *Validator) ValidateStatement(text string, level types.CareerLevel) Result {
	res := Result{Numbers: CountNumbers(text)}

	if res.Numbers > v.rules.Metrics.MaxNumbersPerStatement {
		res.Mixed = true
		res.Reason = fmt.Sprintf("too many numbers (%d), likely mixing metric kinds", res.Numbers)
		return res
	}

	res.Metric = Extract(text)
	if res.Metric == nil {
		res.Valid = true
		return res
	}

	res.Valid, res.Warning, res.Reason = v.CheckMetric(*res.Metric, level)
	return res
}

// CheckMetric applies the absolute reject rules and then the per-level range.
// It returns validity, a soft warning for out-of-band values, and the reject reason.
func (v *Validator) CheckMetric(m types.ExtractedMetric, level types.CareerLevel) (bool, string, string) {
	if m.Value < 0 {
		return false, "", fmt.Sprintf("negative %s value %s", m.Kind, formatValue(m.Value))
	}
	if limit, ok := v.rules.Metrics.Absolute[m.Kind]; ok && m.Value > limit {
		return false, "", fmt.Sprintf("%s %s exceeds absolute limit %s", m.Kind, formatValue(m.Value), formatValue(limit))
	}

	rng, ok := v.rules.MetricRange(m.Kind, level)
	if !ok {
		return true, "", ""
	}
	if m.Value > rng.AbsoluteMax {
		return false, "", fmt.Sprintf("%s %s exceeds maximum %s for %s level", m.Kind, formatValue(m.Value), formatValue(rng.AbsoluteMax), level)
	}
	if m.Value < rng.Min || m.Value > rng.Max {
		return true, fmt.Sprintf("%s %s outside typical range %s-%s for %s level",
			m.Kind, formatValue(m.Value), formatValue(rng.Min), formatValue(rng.Max), level), ""
	}
	return true, "", ""
}

// ValidateJob checks every statement of a job and the mix of metric kinds
func (v *Validator) ValidateJob(bullets []string, level types.CareerLevel) JobResult {
	jr := JobResult{
		Statements:   make([]Result, 0, len(bullets)),
		Distribution: make(map[types.MetricKind]int),
	}

	for i, b := range bullets {
		res := v.ValidateStatement(b, level)
		jr.Statements = append(jr.Statements, res)
		if !res.Valid {
			jr.Invalid++
			jr.Issues = append(jr.Issues, fmt.Sprintf("statement %d: %s", i+1, res.Reason))
			continue
		}
		if res.Metric != nil {
			jr.MetricBullets++
			jr.Distribution[res.Metric.Kind]++
		}
	}

	jr.Issues = append(jr.Issues, v.varietyIssues(jr.Distribution, jr.MetricBullets)...)
	jr.Valid = len(jr.Issues) == 0
	return jr
}

func (v *Validator) varietyIssues(dist map[types.MetricKind]int, metricBullets int) []string {
	variety := v.rules.Metrics.Variety
	if metricBullets < variety.MinBullets {
		return nil
	}

	var issues []string
	if len(dist) < variety.MinKinds {
		issues = append(issues, fmt.Sprintf("%d metric statements use only %d kind(s), need at least %d",
			metricBullets, len(dist), variety.MinKinds))
	}

	limit := variety.MaxShare * float64(metricBullets)
	for _, kind := range sortedKinds(dist) {
		if float64(dist[kind]) > limit {
			issues = append(issues, fmt.Sprintf("%s dominates %d of %d metric statements", kind, dist[kind], metricBullets))
		}
	}
	return issues
}

// FilterBullets drops statements with rejected metrics and reports on the kept ones
func (v *Validator) FilterBullets(bullets []string, level types.CareerLevel) ([]string, JobResult) {
	kept := make([]string, 0, len(bullets))
	var dropped []string
	for i, b := range bullets {
		res := v.ValidateStatement(b, level)
		if !res.Valid {
			dropped = append(dropped, fmt.Sprintf("statement %d dropped: %s", i+1, res.Reason))
			continue
		}
		kept = append(kept, b)
	}

	jr := v.ValidateJob(kept, level)
	jr.Invalid = len(dropped)
	jr.Issues = append(dropped, jr.Issues...)
	jr.Valid = len(jr.Issues) == 0
	return kept, jr
}

func sortedKinds(dist map[types.MetricKind]int) []types.MetricKind {
	kinds := make([]types.MetricKind, 0, len(dist))
	for k := range dist {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%g", v)
}
