package companies

import "strings"

// placeholderPhrases denote an unresolved gap, never a real employer
var placeholderPhrases = []string{
	"verschiedene positionen",
	"verschiedene arbeitgeber",
	"diverse positionen",
	"postes divers",
	"divers postes",
	"posizioni varie",
	"varie posizioni",
	"various positions",
	"various employers",
}

// IsPlaceholder reports whether name is a "various positions" style placeholder
func IsPlaceholder(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return false
	}
	for _, phrase := range placeholderPhrases {
		if strings.Contains(n, phrase) {
			return true
		}
	}
	return false
}
