package dates

import "fmt"

// ParseError reports a malformed year-month token
type ParseError struct {
	Input   string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("date parse error: %q: %s: %v", e.Input, e.Message, e.Cause)
	}
	return fmt.Sprintf("date parse error: %q: %s", e.Input, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
