// Package companies checks that employers fit an occupation and finds a
// plausible employer when the candidate does not.
package companies

import "strings"

// Industry is the coarse sector a company operates in
type Industry string

// Industries known to the compatibility rules
const (
	IndustryTechnology    Industry = "technology"
	IndustryFinance       Industry = "finance"
	IndustryHealthcare    Industry = "healthcare"
	IndustryEducation     Industry = "education"
	IndustryManufacturing Industry = "manufacturing"
	IndustryRetail        Industry = "retail"
	IndustryConstruction  Industry = "construction"
	IndustryHospitality   Industry = "hospitality"
	IndustryNature        Industry = "nature"
	IndustryOther         Industry = "other"
)

// Industries lists every industry in a stable order
var Industries = []Industry{
	IndustryTechnology,
	IndustryFinance,
	IndustryHealthcare,
	IndustryEducation,
	IndustryManufacturing,
	IndustryRetail,
	IndustryConstruction,
	IndustryHospitality,
	IndustryNature,
	IndustryOther,
}

// ParseIndustry maps a stored industry label onto an Industry
func ParseIndustry(s string) (Industry, bool) {
	n := Industry(strings.ToLower(strings.TrimSpace(s)))
	if n == "natur" {
		return IndustryNature, true
	}
	for _, ind := range Industries {
		if ind == n {
			return ind, true
		}
	}
	return IndustryOther, false
}

// Company is a candidate employer
type Company struct {
	Name      string   `json:"name"`
	Canton    string   `json:"canton"`
	Industry  Industry `json:"industry"`
	SizeBand  string   `json:"size_band,omitempty"`
	Synthetic bool     `json:"synthetic,omitempty"`
}
