package speech

import "fmt"

// ValidationError indicates a request rejected at the boundary before any
// upstream call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("speech validation error: %s: %s", e.Field, e.Message)
}

// UpstreamError indicates a failed call to the speech service.
type UpstreamError struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("speech upstream error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("speech upstream error for %s: %s", e.URL, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}
