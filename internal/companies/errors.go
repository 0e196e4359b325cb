package companies

import "fmt"

// LookupError represents a failure reading from a company directory
type LookupError struct {
	Message string
	Cause   error
}

func (e *LookupError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("company lookup error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("company lookup error: %s", e.Message)
}

func (e *LookupError) Unwrap() error {
	return e.Cause
}
