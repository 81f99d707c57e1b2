// Package contract decodes and validates structured output returned by the
// chat model. Each contract has an explicit validator returning typed
// errors, so callers can distinguish "not JSON" from "JSON violating the
// contract" without string matching.
package contract

import "fmt"

// MalformedResponseError indicates the model returned text that is not
// syntactically valid JSON.
type MalformedResponseError struct {
	Snippet string
	Cause   error
}

func (e *MalformedResponseError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("malformed model response (not JSON): %q: %v", e.Snippet, e.Cause)
	}
	return fmt.Sprintf("malformed model response (not JSON): %v", e.Cause)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// SchemaViolationError indicates syntactically valid JSON that fails the
// contract. Field names the offending field, Constraint the rule it broke.
type SchemaViolationError struct {
	Field      string
	Constraint string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation at %s: %s", e.Field, e.Constraint)
}

// violation is shorthand for building a SchemaViolationError.
func violation(field, constraint string) *SchemaViolationError {
	return &SchemaViolationError{Field: field, Constraint: constraint}
}
