package companies

import (
	"fmt"
	"strings"
)

// namePatterns flag company names that contradict the stored industry
var namePatterns = map[Industry][]string{
	IndustryHealthcare:    {"restaurant", "hotel", "gastronomie", "café", "bistro"},
	IndustryConstruction:  {"pharma", "swissmedic", "klinik", "spital", "hospital", "apotheke"},
	IndustryTechnology:    {"restaurant", "hotel", "gastronomie", "café"},
	IndustryManufacturing: {"restaurant", "hotel", "klinik", "spital"},
}

// Validate reports whether company is a plausible employer for occupation.
// The reason is empty for valid companies.
func Validate(company Company, occupation string) (bool, string) {
	name := strings.TrimSpace(company.Name)
	if name == "" {
		return false, "company name is empty"
	}
	if IsPlaceholder(name) {
		return false, fmt.Sprintf("%q is a placeholder, not a company", name)
	}

	mapping := MappingFor(occupation)
	if mapping == nil {
		return true, ""
	}

	if !mapping.Allows(company.Industry) {
		kind := "flexible"
		if mapping.Strict() {
			kind = "strict"
		}
		return false, fmt.Sprintf("%s mapping violation: %s requires one of %v, but %s is %s",
			kind, occupation, mapping.Industries(), name, company.Industry)
	}

	lower := strings.ToLower(name)
	for _, pattern := range namePatterns[company.Industry] {
		if strings.Contains(lower, pattern) {
			return false, fmt.Sprintf("company name %q contains %q, which contradicts industry %s", name, pattern, company.Industry)
		}
	}
	return true, ""
}
