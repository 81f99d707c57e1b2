package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/odie-hq/odie/internal/contract"
	"github.com/odie-hq/odie/internal/types"
)

// scriptedStepper replays canned model replies in order.
type scriptedStepper struct {
	replies []string
	err     error
	calls   [][]types.ChatMessage
}

func (s *scriptedStepper) Step(_ context.Context, messages []types.ChatMessage) (string, error) {
	msgs := make([]types.ChatMessage, len(messages))
	copy(msgs, messages)
	s.calls = append(s.calls, msgs)

	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("scripted stepper exhausted")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func testOptions() *Options {
	var n int
	return &Options{
		Now: func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
		NewID: func() string {
			n++
			return fmt.Sprintf("msg-%d", n)
		},
	}
}

func TestSubmit_ExtractsPosition(t *testing.T) {
	stepper := &scriptedStepper{replies: []string{
		`{
			"response": "Nice, what did you work on at Acme?",
			"extractedPosition": {"company": "Acme", "title": "Backend Engineer", "startDate": "2021-01"},
			"shouldContinue": true
		}`,
	}}
	s := New(stepper, testOptions())

	step, err := s.Submit(context.Background(), "I was a backend engineer at Acme from Jan 2021.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Status() != types.StatusInProgress {
		t.Errorf("status = %q, want in_progress", s.Status())
	}
	if step.ExtractedPosition == nil || step.ExtractedPosition.Company != "Acme" {
		t.Fatalf("position not extracted: %+v", step.ExtractedPosition)
	}

	out := s.Output()
	if out == nil || len(out.Positions) != 1 {
		t.Fatalf("snapshot missing position: %+v", out)
	}
	if out.Positions[0].Position.Title != "Backend Engineer" {
		t.Errorf("snapshot title = %q", out.Positions[0].Position.Title)
	}

	msgs := s.State().Messages
	if len(msgs) != 2 {
		t.Fatalf("expected user+assistant messages, got %d", len(msgs))
	}
	if msgs[0].Role != types.RoleUser || msgs[1].Role != types.RoleAssistant {
		t.Errorf("unexpected roles: %q, %q", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].Content != "Nice, what did you work on at Acme?" {
		t.Errorf("assistant content = %q", msgs[1].Content)
	}
}

func TestSubmit_MalformedReplyMovesToError(t *testing.T) {
	stepper := &scriptedStepper{replies: []string{"not json"}}
	s := New(stepper, testOptions())

	_, err := s.Submit(context.Background(), "hello")
	var malformed *contract.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}

	if s.Status() != types.StatusError {
		t.Errorf("status = %q, want error", s.Status())
	}

	msgs := s.State().Messages
	if len(msgs) != 1 {
		t.Fatalf("expected only the user message, got %d messages", len(msgs))
	}
	if msgs[0].Role != types.RoleUser || msgs[0].Content != "hello" {
		t.Errorf("user message not retained: %+v", msgs[0])
	}
}

func TestSubmit_UpstreamFailureMovesToError(t *testing.T) {
	stepper := &scriptedStepper{err: errors.New("rate limited")}
	s := New(stepper, testOptions())

	_, err := s.Submit(context.Background(), "hello")
	var turnErr *TurnError
	if !errors.As(err, &turnErr) {
		t.Fatalf("expected TurnError, got %v", err)
	}
	if !errors.Is(err, stepper.err) {
		t.Error("TurnError must wrap the upstream cause")
	}
	if s.Status() != types.StatusError {
		t.Errorf("status = %q, want error", s.Status())
	}
}

func TestSubmit_FailedTurnPreservesExtractedData(t *testing.T) {
	stepper := &scriptedStepper{replies: []string{
		`{"response": "Got it.", "extractedPosition": {"company": "Acme", "title": "Engineer"}}`,
		"garbage",
	}}
	s := New(stepper, testOptions())

	if _, err := s.Submit(context.Background(), "I worked at Acme"); err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	if _, err := s.Submit(context.Background(), "then things broke"); err == nil {
		t.Fatal("expected second turn to fail")
	}

	out := s.Output()
	if out == nil || len(out.Positions) != 1 || out.Positions[0].Position.Company != "Acme" {
		t.Errorf("extracted data lost on failed turn: %+v", out)
	}
}

func TestSubmit_ShouldContinueFalseCompletes(t *testing.T) {
	stepper := &scriptedStepper{replies: []string{
		`{"response": "Thanks!", "extractedPosition": {"company": "Acme", "title": "Engineer"}}`,
		`{"response": "That's everything, thanks for your time.", "shouldContinue": false}`,
	}}
	s := New(stepper, testOptions())

	if _, err := s.Submit(context.Background(), "I worked at Acme"); err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	if _, err := s.Submit(context.Background(), "that is all"); err != nil {
		t.Fatalf("final turn failed: %v", err)
	}

	if s.Status() != types.StatusCompleted {
		t.Fatalf("status = %q, want completed", s.Status())
	}
	if out := s.Output(); out == nil || !out.IsComplete {
		t.Error("completed session output must have isComplete=true")
	}

	// Completed is final.
	if _, err := s.Submit(context.Background(), "one more thing"); !errors.Is(err, ErrCompleted) {
		t.Errorf("Submit on completed session = %v, want ErrCompleted", err)
	}
	if err := s.Resume(); !errors.Is(err, ErrCompleted) {
		t.Errorf("Resume on completed session = %v, want ErrCompleted", err)
	}
}

func TestSubmit_ErroredSessionRejectsUntilResume(t *testing.T) {
	stepper := &scriptedStepper{replies: []string{
		"garbage",
		`{"response": "Back on track. Where did you work?"}`,
	}}
	s := New(stepper, testOptions())

	if _, err := s.Submit(context.Background(), "hi"); err == nil {
		t.Fatal("expected first turn to fail")
	}
	if _, err := s.Submit(context.Background(), "hello?"); !errors.Is(err, ErrFailed) {
		t.Fatalf("Submit on errored session = %v, want ErrFailed", err)
	}

	if err := s.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if s.Status() != types.StatusInProgress {
		t.Fatalf("status after Resume = %q, want in_progress", s.Status())
	}

	if _, err := s.Submit(context.Background(), "hello again"); err != nil {
		t.Fatalf("turn after Resume failed: %v", err)
	}
}

func TestSubmit_TranscriptIsAppendOnly(t *testing.T) {
	stepper := &scriptedStepper{replies: []string{
		`{"response": "First answer."}`,
		`{"response": "Second answer."}`,
	}}
	s := New(stepper, testOptions())

	if _, err := s.Submit(context.Background(), "one"); err != nil {
		t.Fatal(err)
	}
	before := s.State().Messages

	if _, err := s.Submit(context.Background(), "two"); err != nil {
		t.Fatal(err)
	}
	after := s.State().Messages

	if len(after) != len(before)+2 {
		t.Fatalf("expected 2 appended messages, got %d -> %d", len(before), len(after))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("message %d mutated: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestSubmit_StepperSeesFullTranscript(t *testing.T) {
	stepper := &scriptedStepper{replies: []string{
		`{"response": "ok one"}`,
		`{"response": "ok two"}`,
	}}
	s := New(stepper, testOptions())

	s.Submit(context.Background(), "one")
	s.Submit(context.Background(), "two")

	if len(stepper.calls) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(stepper.calls))
	}
	if len(stepper.calls[0]) != 1 {
		t.Errorf("first call saw %d messages, want 1", len(stepper.calls[0]))
	}
	// Second call: user, assistant, user.
	if len(stepper.calls[1]) != 3 {
		t.Errorf("second call saw %d messages, want 3", len(stepper.calls[1]))
	}
}

func TestState_ReturnsCopy(t *testing.T) {
	stepper := &scriptedStepper{replies: []string{`{"response": "ok"}`}}
	s := New(stepper, testOptions())
	s.Submit(context.Background(), "one")

	state := s.State()
	state.Messages[0].Content = "tampered"

	if s.State().Messages[0].Content == "tampered" {
		t.Error("State() must return a copy of the transcript")
	}
}

func TestRestore(t *testing.T) {
	id := uuid.New()
	state := types.InterviewState{
		Messages: []types.ChatMessage{
			{ID: "m1", Role: types.RoleUser, Content: "hi", Timestamp: time.Now()},
			{ID: "m2", Role: types.RoleAssistant, Content: "hello", Timestamp: time.Now()},
		},
		Status: types.StatusInProgress,
	}

	s, err := Restore(id, state, &scriptedStepper{replies: []string{`{"response": "ok"}`}}, testOptions())
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if s.ID() != id {
		t.Errorf("ID = %v, want %v", s.ID(), id)
	}
	if len(s.State().Messages) != 2 {
		t.Errorf("restored transcript has %d messages", len(s.State().Messages))
	}

	if _, err := s.Submit(context.Background(), "continuing"); err != nil {
		t.Fatalf("Submit on restored session failed: %v", err)
	}
}

func TestRestore_RejectsInvalidState(t *testing.T) {
	bad := types.InterviewState{
		Messages:             []types.ChatMessage{},
		Status:               types.StatusInProgress,
		CurrentPositionIndex: 3,
	}
	if _, err := Restore(uuid.New(), bad, &scriptedStepper{}, nil); err == nil {
		t.Fatal("expected Restore to reject out-of-range position index")
	}
}
