package session

import (
	"errors"
	"fmt"
)

// ErrCompleted is returned by Submit once the session has completed.
// Completed is final; no further turns are accepted.
var ErrCompleted = errors.New("session already completed")

// ErrFailed is returned by Submit while the session is in the error state.
// Callers decide whether to abandon or call Resume and re-submit.
var ErrFailed = errors.New("session is in error state; call Resume to retry")

// TurnError wraps a failure of one interview turn: either the upstream
// call failed or its reply did not satisfy the structured output contract.
// The transcript up to the failed turn is retained.
type TurnError struct {
	Message string
	Cause   error
}

func (e *TurnError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("interview turn failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("interview turn failed: %s", e.Message)
}

func (e *TurnError) Unwrap() error {
	return e.Cause
}
