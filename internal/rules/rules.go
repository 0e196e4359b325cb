// Package rules loads the versioned tuning tables that drive timeline
// construction, metric plausibility and quality scoring.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/cv-synth/internal/types"
)

//go:embed default.yaml
var defaultYAML []byte

// SupportedVersion is the newest rules file layout this build understands
const SupportedVersion = 1

// Rules is the full set of tuning tables
type Rules struct {
	Version  int           `yaml:"version" validate:"gte=1"`
	Timeline TimelineRules `yaml:"timeline"`
	Metrics  MetricRules   `yaml:"metrics"`
	Quality  QualityRules  `yaml:"quality"`
}

// JobCountBucket maps an experience ceiling to a job count
type JobCountBucket struct {
	MaxExperienceYears int `yaml:"max_experience_years" validate:"gte=0"`
	Jobs               int `yaml:"jobs" validate:"gte=1"`
}

// JobDuration bounds the sampled length of a non-current job
type JobDuration struct {
	MinYears       int `yaml:"min_years" validate:"gte=1"`
	MaxYears       int `yaml:"max_years" validate:"gtefield=MinYears"`
	FallbackYears  int `yaml:"fallback_years" validate:"gte=1"`
	ExtraMonthsMax int `yaml:"extra_months_max" validate:"gte=0,lte=11"`
}

// GapBucket classifies gaps up to MaxMonths (inclusive) as one of Kinds
type GapBucket struct {
	MaxMonths int             `yaml:"max_months" validate:"gte=0"`
	Kinds     []types.GapKind `yaml:"kinds" validate:"min=1"`
}

// TimelineRules drives the calculator, validator and auto-fix
type TimelineRules struct {
	EducationEndMonth          int                       `yaml:"education_end_month" validate:"gte=1,lte=12"`
	FirstJobOffsetMaxMonths    int                       `yaml:"first_job_offset_max_months" validate:"gte=0"`
	JobCountBuckets            []JobCountBucket          `yaml:"job_count_buckets" validate:"min=1,dive"`
	MaxJobs                    int                       `yaml:"max_jobs" validate:"gte=1"`
	JobDuration                JobDuration               `yaml:"job_duration"`
	GapBuckets                 []GapBucket               `yaml:"gap_buckets" validate:"min=1,dive"`
	InterJobGapMaxMonths       int                       `yaml:"inter_job_gap_max_months" validate:"gte=0"`
	LongGapChance              float64                   `yaml:"long_gap_chance" validate:"gte=0,lte=1"`
	LongGapMaxMonths           int                       `yaml:"long_gap_max_months" validate:"gte=0"`
	MaxGapFillers              int                       `yaml:"max_gap_fillers" validate:"gte=0"`
	DiscrepancyToleranceMonths int                       `yaml:"discrepancy_tolerance_months" validate:"gte=0"`
	MinJobMonths               int                       `yaml:"min_job_months" validate:"gte=0"`
	MaxJobMonths               int                       `yaml:"max_job_months" validate:"gtefield=MinJobMonths"`
	MinAge                     map[types.CareerLevel]int `yaml:"min_age" validate:"required"`
	EarlySeniorityAge          map[types.CareerLevel]int `yaml:"early_seniority_age"`
	MaxFixPasses               int                       `yaml:"max_fix_passes" validate:"gte=1"`
}

// Range is the plausible band for one metric kind at one level
type Range struct {
	Min         float64 `yaml:"min"`
	Max         float64 `yaml:"max"`
	AbsoluteMax float64 `yaml:"absolute_max"`
}

// Variety is the job-level metric mix requirement
type Variety struct {
	MinBullets int     `yaml:"min_bullets" validate:"gte=1"`
	MinKinds   int     `yaml:"min_kinds" validate:"gte=1"`
	MaxShare   float64 `yaml:"max_share" validate:"gt=0,lte=1"`
}

// MetricRules drives metric extraction checks
type MetricRules struct {
	MaxNumbersPerStatement int                                              `yaml:"max_numbers_per_statement" validate:"gte=1"`
	Absolute               map[types.MetricKind]float64                     `yaml:"absolute"`
	Ranges                 map[types.MetricKind]map[types.CareerLevel]Range `yaml:"ranges" validate:"required"`
	Variety                Variety                                          `yaml:"variety"`
}

// Weights are the sub-score weights of the quality gate
type Weights struct {
	Completeness float64 `yaml:"completeness" validate:"gte=0"`
	Realism      float64 `yaml:"realism" validate:"gte=0"`
	Language     float64 `yaml:"language" validate:"gte=0"`
	Achievement  float64 `yaml:"achievement" validate:"gte=0"`
}

// Sum returns the total weight
func (w Weights) Sum() float64 {
	return w.Completeness + w.Realism + w.Language + w.Achievement
}

// QualityRules drives the quality scorer
type QualityRules struct {
	Threshold             float64   `yaml:"threshold" validate:"gte=0,lte=100"`
	Weights               Weights   `yaml:"weights"`
	MinSummaryChars       int       `yaml:"min_summary_chars" validate:"gte=0"`
	MinAchievementsPerJob int       `yaml:"min_achievements_per_job" validate:"gte=0"`
	MinSkills             int       `yaml:"min_skills" validate:"gte=0"`
	MinUniqueTokenRatio   float64   `yaml:"min_unique_token_ratio" validate:"gte=0,lte=1"`
	MaxFillerShare        float64   `yaml:"max_filler_share" validate:"gte=0,lte=1"`
	TargetMetricShare     float64   `yaml:"target_metric_share" validate:"gt=0,lte=1"`
	MinImpactShare        float64   `yaml:"min_impact_share" validate:"gt=0,lte=1"`
	Penalties             Penalties `yaml:"penalties"`
}

// Penalties are the points a finding costs in its dimension. Coverage style
// penalties are the maximum, scaled by how far the document falls short.
type Penalties struct {
	MissingName       float64 `yaml:"missing_name" validate:"gte=0"`
	MissingSummary    float64 `yaml:"missing_summary" validate:"gte=0"`
	ShortSummary      float64 `yaml:"short_summary" validate:"gte=0"`
	MissingEducation  float64 `yaml:"missing_education" validate:"gte=0"`
	MissingJobs       float64 `yaml:"missing_jobs" validate:"gte=0"`
	ThinJob           float64 `yaml:"thin_job" validate:"gte=0"`
	FewSkills         float64 `yaml:"few_skills" validate:"gte=0"`
	TimelineError     float64 `yaml:"timeline_error" validate:"gte=0"`
	TimelineWarning   float64 `yaml:"timeline_warning" validate:"gte=0"`
	CompanyMismatch   float64 `yaml:"company_mismatch" validate:"gte=0"`
	DuplicateEmployer float64 `yaml:"duplicate_employer" validate:"gte=0"`
	LowUniqueness     float64 `yaml:"low_uniqueness" validate:"gte=0"`
	LowVerbVariety    float64 `yaml:"low_verb_variety" validate:"gte=0"`
	FillerOveruse     float64 `yaml:"filler_overuse" validate:"gte=0"`
	DuplicatePhrase   float64 `yaml:"duplicate_phrase" validate:"gte=0"`
	LowercaseStart    float64 `yaml:"lowercase_start" validate:"gte=0"`
	MetricCoverage    float64 `yaml:"metric_coverage" validate:"gte=0"`
	ImpactVerbs       float64 `yaml:"impact_verbs" validate:"gte=0"`
	ImplausibleMetric float64 `yaml:"implausible_metric" validate:"gte=0"`
	MetricVariety     float64 `yaml:"metric_variety" validate:"gte=0"`
}

// Default returns the embedded rules. It panics only if the embedded file is broken.
func Default() *Rules {
	r, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded rules are invalid: %v", err))
	}
	return r
}

// Load reads rules from a YAML file
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("failed to read rules file %s", path), Cause: err}
	}
	return Parse(data)
}

// Parse decodes and validates a rules document
func Parse(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, &LoadError{Message: "failed to parse rules YAML", Cause: err}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	sort.Slice(r.Timeline.JobCountBuckets, func(i, j int) bool {
		return r.Timeline.JobCountBuckets[i].MaxExperienceYears < r.Timeline.JobCountBuckets[j].MaxExperienceYears
	})
	sort.Slice(r.Timeline.GapBuckets, func(i, j int) bool {
		return r.Timeline.GapBuckets[i].MaxMonths < r.Timeline.GapBuckets[j].MaxMonths
	})
	return &r, nil
}

// Validate checks table structure and cross-field constraints
func (r *Rules) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return &LoadError{Message: "invalid rules", Cause: err}
	}
	if r.Version > SupportedVersion {
		return &LoadError{Message: fmt.Sprintf("rules version %d is newer than supported version %d", r.Version, SupportedVersion)}
	}
	if sum := r.Quality.Weights.Sum(); sum < 0.999 || sum > 1.001 {
		return &LoadError{Message: fmt.Sprintf("quality weights must sum to 1, got %.3f", sum)}
	}
	for _, kind := range types.MetricKinds {
		byLevel, ok := r.Metrics.Ranges[kind]
		if !ok {
			return &LoadError{Message: fmt.Sprintf("missing metric ranges for %s", kind)}
		}
		for _, level := range types.CareerLevels {
			rng, ok := byLevel[level]
			if !ok {
				return &LoadError{Message: fmt.Sprintf("missing %s range for level %s", kind, level)}
			}
			if rng.Min > rng.Max || rng.Max > rng.AbsoluteMax {
				return &LoadError{Message: fmt.Sprintf("%s range for %s must satisfy min <= max <= absolute_max", kind, level)}
			}
		}
	}
	for _, level := range types.CareerLevels {
		if _, ok := r.Timeline.MinAge[level]; !ok {
			return &LoadError{Message: fmt.Sprintf("missing min_age for level %s", level)}
		}
	}
	return nil
}

// MetricRange returns the plausible band for kind at level
func (r *Rules) MetricRange(kind types.MetricKind, level types.CareerLevel) (Range, bool) {
	rng, ok := r.Metrics.Ranges[kind][level]
	return rng, ok
}

// JobCount returns the number of jobs a timeline with the given experience gets
func (r *Rules) JobCount(experienceYears int) int {
	for _, b := range r.Timeline.JobCountBuckets {
		if experienceYears <= b.MaxExperienceYears {
			return b.Jobs
		}
	}
	return r.Timeline.MaxJobs
}

// GapBucketFor returns the bucket holding a gap of the given size, or false when
// the gap exceeds every bucket and must be rejected
func (r *Rules) GapBucketFor(months int) (GapBucket, bool) {
	for _, b := range r.Timeline.GapBuckets {
		if months <= b.MaxMonths {
			return b, true
		}
	}
	return GapBucket{}, false
}

// MaxGapMonths is the largest gap that can still be explained by a filler
func (r *Rules) MaxGapMonths() int {
	return r.Timeline.GapBuckets[len(r.Timeline.GapBuckets)-1].MaxMonths
}

// NoFillerMonths is the largest gap that needs no explanation
func (r *Rules) NoFillerMonths() int {
	return r.Timeline.GapBuckets[0].MaxMonths
}
