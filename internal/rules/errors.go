package rules

import "fmt"

// LoadError represents a failure to read, parse or validate a rules file
type LoadError struct {
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rules load error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("rules load error: %s", e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
