// Package session implements the interview session lifecycle: an
// append-only chat transcript, the merged extraction snapshot, and the
// in_progress / completed / error state machine driven by per-turn
// structured output from the chat model.
//
// A Session is owned by a single caller. Callers serialize Submit per
// session; overlapping calls on the same session produce undefined
// transcript ordering, so the session takes no lock of its own.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/odie-hq/odie/internal/contract"
	"github.com/odie-hq/odie/internal/types"
)

// Stepper performs one turn against the external chat model, given the
// full transcript (system instruction included on the provider side), and
// returns the raw reply text. The only suspension point in the lifecycle
// is this call.
type Stepper interface {
	Step(ctx context.Context, messages []types.ChatMessage) (string, error)
}

// Options configures a Session. Zero values use production defaults.
type Options struct {
	Now   func() time.Time // message timestamps; defaults to time.Now
	NewID func() string    // message IDs; defaults to uuid.NewString
}

// Session tracks one interview from first user message to completion or
// abandonment.
type Session struct {
	id      uuid.UUID
	stepper Stepper
	state   types.InterviewState
	now     func() time.Time
	newID   func() string
}

// New creates a session with an empty transcript and status in_progress.
func New(stepper Stepper, opts *Options) *Session {
	s := &Session{
		id:      uuid.New(),
		stepper: stepper,
		state: types.InterviewState{
			Messages: []types.ChatMessage{},
			Status:   types.StatusInProgress,
		},
		now:   time.Now,
		newID: uuid.NewString,
	}
	if opts != nil {
		if opts.Now != nil {
			s.now = opts.Now
		}
		if opts.NewID != nil {
			s.newID = opts.NewID
		}
	}
	return s
}

// Restore rebuilds a session from persisted state, for example when a turn
// arrives over HTTP for a session stored between requests. The state must
// satisfy the stored-state contract.
func Restore(id uuid.UUID, state types.InterviewState, stepper Stepper, opts *Options) (*Session, error) {
	if err := contract.ValidateInterviewState(&state); err != nil {
		return nil, err
	}
	s := New(stepper, opts)
	s.id = id
	s.state = state
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Status returns the current lifecycle status.
func (s *Session) Status() types.SessionStatus {
	return s.state.Status
}

// State returns a copy of the session state. The transcript slice is
// copied so callers cannot violate the append-only invariant.
func (s *Session) State() types.InterviewState {
	out := s.state
	out.Messages = make([]types.ChatMessage, len(s.state.Messages))
	copy(out.Messages, s.state.Messages)
	return out
}

// Output returns the merged extraction snapshot, or nil when nothing has
// been extracted yet.
func (s *Session) Output() *types.InterviewOutput {
	return s.state.ExtractedData
}

// Submit runs one interview turn: append the user message, call the model
// with the full transcript, validate the reply against the structured
// output contract, and fold the extraction into session state.
//
// On upstream or contract failure the session moves to the error state,
// the user message is retained, no assistant message is fabricated, and
// prior extracted data is untouched. A failed turn is reported once;
// there is no retry inside the lifecycle.
func (s *Session) Submit(ctx context.Context, text string) (*types.StepResponse, error) {
	switch s.state.Status {
	case types.StatusCompleted:
		return nil, ErrCompleted
	case types.StatusError:
		return nil, ErrFailed
	}

	s.append(types.RoleUser, text)

	raw, err := s.stepper.Step(ctx, s.state.Messages)
	if err != nil {
		s.state.Status = types.StatusError
		return nil, &TurnError{Message: "model call failed", Cause: err}
	}

	step, err := contract.DecodeStepResponse(raw)
	if err != nil {
		s.state.Status = types.StatusError
		return nil, err
	}

	s.append(types.RoleAssistant, step.Response)
	s.merge(step)

	if !step.ShouldContinue {
		s.state.Status = types.StatusCompleted
		if s.state.ExtractedData != nil {
			s.state.ExtractedData.IsComplete = true
		}
	}

	return step, nil
}

// Resume explicitly returns an errored session to in_progress so the
// caller can re-submit the same or a corrected message. Completed is
// final.
func (s *Session) Resume() error {
	switch s.state.Status {
	case types.StatusCompleted:
		return ErrCompleted
	case types.StatusError:
		s.state.Status = types.StatusInProgress
	}
	return nil
}

func (s *Session) append(role types.Role, content string) {
	s.state.Messages = append(s.state.Messages, types.ChatMessage{
		ID:        s.newID(),
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	})
}
