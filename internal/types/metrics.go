// Package types provides type definitions for structured data used throughout the cv-synth system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// MetricKind is the semantic category of a quantitative claim
type MetricKind string

// Metric kinds, in extraction priority order
const (
	MetricPercentage    MetricKind = "percentage"
	MetricTeamSize      MetricKind = "team_size"
	MetricProjectCount  MetricKind = "project_count"
	MetricCustomerCount MetricKind = "customer_count"
	MetricFinancial     MetricKind = "financial"
)

// MetricKinds lists all kinds in extraction priority order
var MetricKinds = []MetricKind{MetricPercentage, MetricTeamSize, MetricProjectCount, MetricCustomerCount, MetricFinancial}

// ExtractedMetric is a number pulled out of an achievement statement
type ExtractedMetric struct {
	Value    float64    `json:"value"`
	Kind     MetricKind `json:"kind"`
	Source   string     `json:"source"`
	Position int        `json:"position"`
}
