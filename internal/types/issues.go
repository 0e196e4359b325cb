// Package types provides type definitions for structured data used throughout the cv-synth system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Severity grades an issue: errors block acceptance, warnings only affect the score
type Severity string

// Severities
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// IssueCategory groups timeline issues by the check that raised them
type IssueCategory string

// Issue categories
const (
	CategoryOverlap     IssueCategory = "overlap"
	CategoryGap         IssueCategory = "gap"
	CategoryAge         IssueCategory = "age"
	CategoryProgression IssueCategory = "progression"
	CategoryDuration    IssueCategory = "duration"
	CategoryFormat      IssueCategory = "format"
)

// TimelineIssue is a single finding of the timeline checks
type TimelineIssue struct {
	Severity        Severity      `json:"severity"`
	Category        IssueCategory `json:"category"`
	Message         string        `json:"message"`
	AffectedPeriods []int         `json:"affected_periods,omitempty"`
	SuggestedFix    string        `json:"suggested_fix,omitempty"`
}

// CountSeverity returns how many issues have the given severity
func CountSeverity(issues []TimelineIssue, severity Severity) int {
	n := 0
	for _, issue := range issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}
