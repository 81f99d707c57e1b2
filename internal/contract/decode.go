package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/odie-hq/odie/internal/llm"
	"github.com/odie-hq/odie/internal/types"
)

// MinBulletTextLen is the minimum length for bullet text. Anything shorter
// is noise the model should have kept in its conversational reply instead.
const MinBulletTextLen = 10

const snippetLen = 60

// stepResponseWire mirrors types.StepResponse with pointers where absence
// and zero value must be told apart (shouldContinue defaults to true).
type stepResponseWire struct {
	Response          *string         `json:"response"`
	ExtractedPosition *types.Position `json:"extractedPosition"`
	ExtractedBullets  []types.Bullet  `json:"extractedBullets"`
	ShouldContinue    *bool           `json:"shouldContinue"`
}

// DecodeStepResponse parses and validates one turn's raw model output.
// It returns *MalformedResponseError when the text is not JSON and
// *SchemaViolationError when a field fails the contract. The returned
// value satisfies the single-turn invariants: non-nil skill slices,
// bullet text length, defaulted booleans.
func DecodeStepResponse(raw string) (*types.StepResponse, error) {
	cleaned := llm.CleanJSONBlock(raw)

	var wire stepResponseWire
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return nil, decodeError(cleaned, err)
	}

	if wire.Response == nil {
		return nil, violation("response", "required field is missing")
	}

	step := &types.StepResponse{
		Response:       *wire.Response,
		ShouldContinue: true,
	}
	if wire.ShouldContinue != nil {
		step.ShouldContinue = *wire.ShouldContinue
	}

	if wire.ExtractedPosition != nil {
		if err := validatePosition("extractedPosition", wire.ExtractedPosition); err != nil {
			return nil, err
		}
		step.ExtractedPosition = wire.ExtractedPosition
	}

	step.ExtractedBullets = make([]types.Bullet, 0, len(wire.ExtractedBullets))
	for i := range wire.ExtractedBullets {
		b := wire.ExtractedBullets[i]
		if err := validateBullet(fmt.Sprintf("extractedBullets[%d]", i), &b); err != nil {
			return nil, err
		}
		step.ExtractedBullets = append(step.ExtractedBullets, b)
	}

	return step, nil
}

// DecodeInterviewOutput parses and validates a full-session snapshot.
// Absent positions resolve to an empty list and isComplete defaults to
// false.
func DecodeInterviewOutput(raw string) (*types.InterviewOutput, error) {
	cleaned := llm.CleanJSONBlock(raw)

	var out types.InterviewOutput
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, decodeError(cleaned, err)
	}

	if out.Positions == nil {
		out.Positions = []types.PositionWithBullets{}
	}
	for i := range out.Positions {
		entry := &out.Positions[i]
		if err := validatePosition(fmt.Sprintf("positions[%d].position", i), &entry.Position); err != nil {
			return nil, err
		}
		if entry.Bullets == nil {
			entry.Bullets = []types.Bullet{}
		}
		for j := range entry.Bullets {
			if err := validateBullet(fmt.Sprintf("positions[%d].bullets[%d]", i, j), &entry.Bullets[j]); err != nil {
				return nil, err
			}
		}
	}

	return &out, nil
}

// ValidateChatMessage checks one transcript entry against the contract:
// non-empty id, recognized role, timestamp present.
func ValidateChatMessage(field string, msg *types.ChatMessage) error {
	if msg.ID == "" {
		return violation(field+".id", "required field is missing")
	}
	if !msg.Role.Valid() {
		return violation(field+".role", fmt.Sprintf("unrecognized value %q", msg.Role))
	}
	if msg.Timestamp.IsZero() {
		return violation(field+".timestamp", "required field is missing")
	}
	return nil
}

// ValidateInterviewState checks a stored session state: valid status enum,
// valid transcript entries, and an index within the extracted positions
// (or zero when no positions exist).
func ValidateInterviewState(state *types.InterviewState) error {
	if !state.Status.Valid() {
		return violation("status", fmt.Sprintf("unrecognized value %q", state.Status))
	}
	for i := range state.Messages {
		if err := ValidateChatMessage(fmt.Sprintf("messages[%d]", i), &state.Messages[i]); err != nil {
			return err
		}
	}
	if state.CurrentPositionIndex < 0 {
		return violation("currentPositionIndex", "must not be negative")
	}
	positions := 0
	if state.ExtractedData != nil {
		positions = len(state.ExtractedData.Positions)
	}
	if positions == 0 {
		if state.CurrentPositionIndex != 0 {
			return violation("currentPositionIndex", "must be 0 when no positions are extracted")
		}
	} else if state.CurrentPositionIndex >= positions {
		return violation("currentPositionIndex", fmt.Sprintf("index %d out of range for %d positions", state.CurrentPositionIndex, positions))
	}
	return nil
}

func validatePosition(field string, p *types.Position) error {
	if strings.TrimSpace(p.Company) == "" {
		return violation(field+".company", "must not be empty")
	}
	if strings.TrimSpace(p.Title) == "" {
		return violation(field+".title", "must not be empty")
	}
	return nil
}

func validateBullet(field string, b *types.Bullet) error {
	if len(b.Text) < MinBulletTextLen {
		return violation(field+".text", fmt.Sprintf("must be at least %d characters", MinBulletTextLen))
	}
	if b.HardSkills == nil {
		b.HardSkills = []string{}
	}
	if b.SoftSkills == nil {
		b.SoftSkills = []string{}
	}
	return nil
}

// decodeError classifies an unmarshal failure. Text that is not JSON at
// all is a malformed response; syntactically valid JSON that puts the
// wrong type in a field violates the contract, and the violation names
// the field.
func decodeError(cleaned string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "(root)"
		}
		return violation(field, fmt.Sprintf("must be a %s, got %s", typeErr.Type, typeErr.Value))
	}
	return &MalformedResponseError{Snippet: snippet(cleaned), Cause: err}
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > snippetLen {
		return s[:snippetLen] + "..."
	}
	return s
}
