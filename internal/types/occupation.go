// Package types provides type definitions for structured data used throughout the cv-synth system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Occupation is the reference record of a trade or profession that personas
// are sampled from
type Occupation struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	Activities  []string `json:"activities,omitempty"`
	Skills      []string `json:"skills,omitempty"`
}
