// Package types provides type definitions for structured data used throughout the cv-synth system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// QualityDimension names one of the four scored dimensions
type QualityDimension string

// Quality dimensions
const (
	DimensionCompleteness QualityDimension = "completeness"
	DimensionRealism      QualityDimension = "realism"
	DimensionLanguage     QualityDimension = "language"
	DimensionAchievement  QualityDimension = "achievement"
)

// QualityScore holds the four sub-scores and their weighted combination, all in [0,100]
type QualityScore struct {
	Completeness float64 `json:"completeness"`
	Realism      float64 `json:"realism"`
	Language     float64 `json:"language"`
	Achievement  float64 `json:"achievement"`
	Overall      float64 `json:"overall"`
}

// QualityIssue is a finding that cost points in one dimension
type QualityIssue struct {
	Dimension QualityDimension `json:"dimension"`
	Severity  Severity         `json:"severity"`
	Message   string           `json:"message"`
	Penalty   float64          `json:"penalty"`
}

// Report is the outcome of scoring a document
type Report struct {
	Score      QualityScore    `json:"score"`
	Issues     []QualityIssue  `json:"issues"`
	Timeline   []TimelineIssue `json:"timeline_issues,omitempty"`
	Threshold  float64         `json:"threshold"`
	ErrorCount int             `json:"error_count"`
	Passed     bool            `json:"passed"`
}
