package llm

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// TransientError marks a provider failure worth retrying: rate limits,
// overloaded or unavailable backends, dropped connections.
type TransientError struct {
	Message    string
	Cause      error
	RetryAfter time.Duration
}

func (e *TransientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transient error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transient error: %s", e.Message)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// RetryExhaustedError is returned once every attempt failed transiently
type RetryExhaustedError struct {
	Attempts int
	Cause    error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Cause
}

// ProviderError is a permanent provider failure (bad request, auth, blocked
// content)
type ProviderError struct {
	Message string
	Cause   error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether err, or anything it wraps, is a TransientError
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// classifyStatus turns an HTTP status from a provider into a transient or
// permanent error
func classifyStatus(provider string, status int, err error) error {
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return &TransientError{Message: fmt.Sprintf("%s returned %d", provider, status), Cause: err}
	}
	return &ProviderError{Message: fmt.Sprintf("%s returned %d", provider, status), Cause: err}
}
