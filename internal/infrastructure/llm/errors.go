package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a classified provider error.
type Error struct {
	Provider   string
	StatusCode int
	Retryable  bool
	Cause      error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Provider, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Classify wraps err with a retryability verdict. A known status code takes
// precedence over message matching.
func Classify(provider string, statusCode int, err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	e := &Error{Provider: provider, StatusCode: statusCode, Cause: err}
	switch {
	case statusCode == 429 || statusCode >= 500:
		e.Retryable = true
	case statusCode >= 400:
		e.Retryable = false
	default:
		e.Retryable = retryableMessage(err.Error())
	}
	return e
}

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

func retryableMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"i/o timeout",
		"timeout",
		"rate limit",
		"too many requests",
		"overloaded",
		"service unavailable",
		"429", "500", "502", "503", "504", "529",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
