package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/odie-hq/odie/internal/llm"
	"github.com/odie-hq/odie/internal/types"
)

// StepObservation describes one completed call to the chat model, for
// telemetry. One observation is emitted per external call, never batched.
type StepObservation struct {
	UserID    uuid.UUID
	PromptID  string
	Model     string
	Input     string
	Output    string
	Success   bool
	Latency   time.Duration
	TokensIn  int32
	TokensOut int32
}

// StepObserver receives per-call telemetry. Implementations must be
// best-effort: an observer failure never fails the interview turn.
type StepObserver interface {
	ObserveStep(ctx context.Context, obs StepObservation)
}

// LLMStepper is the production Stepper: it replays the transcript into the
// provider's chat API under a fixed system instruction.
type LLMStepper struct {
	Client   llm.Client
	Tier     llm.ModelTier
	System   string
	PromptID string
	UserID   uuid.UUID
	Observer StepObserver // optional
}

// Step sends the latest user message with the full prior transcript and
// returns the raw reply text.
func (st *LLMStepper) Step(ctx context.Context, messages []types.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("empty transcript")
	}

	last := messages[len(messages)-1]
	history := make([]llm.Turn, 0, len(messages)-1)
	for _, msg := range messages[:len(messages)-1] {
		switch msg.Role {
		case types.RoleUser:
			history = append(history, llm.Turn{Role: llm.ChatRoleUser, Content: msg.Content})
		case types.RoleAssistant:
			history = append(history, llm.Turn{Role: llm.ChatRoleModel, Content: msg.Content})
		default:
			// System content travels as the provider system instruction,
			// not as a history turn.
		}
	}

	tier := st.Tier
	if tier == "" {
		tier = llm.TierStandard
	}

	start := time.Now()
	result, err := st.Client.ChatJSON(ctx, st.System, history, last.Content, tier)
	latency := time.Since(start)

	obs := StepObservation{
		UserID:   st.UserID,
		PromptID: st.PromptID,
		Model:    st.Client.GetModel(tier),
		Input:    last.Content,
		Latency:  latency,
	}
	if err != nil {
		st.observe(ctx, obs)
		return "", err
	}

	obs.Success = true
	obs.Output = result.Text
	obs.TokensIn = result.TokensIn
	obs.TokensOut = result.TokensOut
	st.observe(ctx, obs)

	return result.Text, nil
}

func (st *LLMStepper) observe(ctx context.Context, obs StepObservation) {
	if st.Observer != nil {
		st.Observer.ObserveStep(ctx, obs)
	}
}
