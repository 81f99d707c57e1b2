package contract

import (
	"errors"
	"testing"
	"time"

	"github.com/odie-hq/odie/internal/types"
)

func TestDecodeStepResponse_Defaults(t *testing.T) {
	step, err := DecodeStepResponse(`{"response": "Tell me about your last role."}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !step.ShouldContinue {
		t.Error("absent shouldContinue must default to true")
	}
	if step.ExtractedBullets == nil {
		t.Error("absent extractedBullets must resolve to an empty list, not nil")
	}
	if len(step.ExtractedBullets) != 0 {
		t.Errorf("expected no bullets, got %d", len(step.ExtractedBullets))
	}
	if step.ExtractedPosition != nil {
		t.Error("absent extractedPosition must stay nil")
	}
}

func TestDecodeStepResponse_ExplicitStop(t *testing.T) {
	step, err := DecodeStepResponse(`{"response": "That covers everything.", "shouldContinue": false}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.ShouldContinue {
		t.Error("explicit shouldContinue=false must be preserved")
	}
}

func TestDecodeStepResponse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"plain prose", "not json"},
		{"truncated object", `{"response": "hi"`},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeStepResponse(tt.input)
			var malformed *MalformedResponseError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedResponseError, got %v", err)
			}
		})
	}
}

func TestDecodeStepResponse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantField string
	}{
		{
			name:      "missing response",
			input:     `{"shouldContinue": true}`,
			wantField: "response",
		},
		{
			name:      "short bullet text",
			input:     `{"response": "ok", "extractedBullets": [{"text": "too short"}]}`,
			wantField: "extractedBullets[0].text",
		},
		{
			name:      "position without company",
			input:     `{"response": "ok", "extractedPosition": {"company": "", "title": "Engineer"}}`,
			wantField: "extractedPosition.company",
		},
		{
			name:      "position without title",
			input:     `{"response": "ok", "extractedPosition": {"company": "Acme", "title": "  "}}`,
			wantField: "extractedPosition.title",
		},
		{
			name:      "response is a number",
			input:     `{"response": 123}`,
			wantField: "response",
		},
		{
			name:      "shouldContinue is a string",
			input:     `{"response": "ok", "shouldContinue": "yes"}`,
			wantField: "shouldContinue",
		},
		{
			name:      "top-level array",
			input:     `[1, 2]`,
			wantField: "(root)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeStepResponse(tt.input)
			var violation *SchemaViolationError
			if !errors.As(err, &violation) {
				t.Fatalf("expected SchemaViolationError, got %v", err)
			}
			if violation.Field != tt.wantField {
				t.Errorf("violation.Field = %q, want %q", violation.Field, tt.wantField)
			}
		})
	}
}

func TestDecodeStepResponse_BulletDefaults(t *testing.T) {
	raw := `{"response": "ok", "extractedBullets": [{"text": "Cut deploy times by 40% by parallelizing CI"}]}`
	step, err := DecodeStepResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := step.ExtractedBullets[0]
	if b.HardSkills == nil || b.SoftSkills == nil {
		t.Error("absent skill lists must resolve to empty lists, not nil")
	}
	if len(b.HardSkills) != 0 || len(b.SoftSkills) != 0 {
		t.Errorf("expected empty skill lists, got %v / %v", b.HardSkills, b.SoftSkills)
	}
}

func TestDecodeStepResponse_FencedJSON(t *testing.T) {
	raw := "```json\n{\"response\": \"Noted!\", \"shouldContinue\": true}\n```"
	step, err := DecodeStepResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.Response != "Noted!" {
		t.Errorf("response = %q", step.Response)
	}
}

func TestDecodeStepResponse_FullTurn(t *testing.T) {
	raw := `{
		"response": "Great, what did you build there?",
		"extractedPosition": {"company": "Acme", "title": "Backend Engineer", "startDate": "2021-01", "endDate": "2023-06"},
		"extractedBullets": [{
			"text": "Led migration of the billing service to event-driven architecture",
			"category": "delivery",
			"hardSkills": ["Go", "Kafka"],
			"metrics": {"value": "40", "type": "percent"}
		}],
		"shouldContinue": true
	}`

	step, err := DecodeStepResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.ExtractedPosition == nil || step.ExtractedPosition.Company != "Acme" {
		t.Fatalf("position not decoded: %+v", step.ExtractedPosition)
	}
	if *step.ExtractedPosition.StartDate != "2021-01" {
		t.Errorf("startDate = %q", *step.ExtractedPosition.StartDate)
	}
	if len(step.ExtractedBullets) != 1 {
		t.Fatalf("expected 1 bullet, got %d", len(step.ExtractedBullets))
	}
	if step.ExtractedBullets[0].Metrics == nil || step.ExtractedBullets[0].Metrics.Value != "40" {
		t.Errorf("metrics not decoded: %+v", step.ExtractedBullets[0].Metrics)
	}
}

func TestDecodeInterviewOutput(t *testing.T) {
	raw := `{
		"positions": [{
			"position": {"company": "Acme", "title": "Backend Engineer"},
			"bullets": [{"text": "Shipped the payments rewrite on schedule"}]
		}]
	}`

	out, err := DecodeInterviewOutput(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.IsComplete {
		t.Error("absent isComplete must default to false")
	}
	if len(out.Positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(out.Positions))
	}
	if out.Positions[0].Bullets[0].HardSkills == nil {
		t.Error("bullet skill lists must be non-nil after decode")
	}
}

func TestDecodeInterviewOutput_EmptyObject(t *testing.T) {
	out, err := DecodeInterviewOutput(`{}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Positions == nil {
		t.Error("absent positions must resolve to an empty list")
	}
}

func TestValidateChatMessage(t *testing.T) {
	valid := types.ChatMessage{ID: "m1", Role: types.RoleUser, Content: "hi", Timestamp: time.Now()}
	if err := ValidateChatMessage("messages[0]", &valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	badRole := valid
	badRole.Role = "moderator"
	err := ValidateChatMessage("messages[0]", &badRole)
	var violation *SchemaViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected SchemaViolationError, got %v", err)
	}
	if violation.Field != "messages[0].role" {
		t.Errorf("violation.Field = %q", violation.Field)
	}
}

func TestValidateInterviewState(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		state   types.InterviewState
		wantErr bool
	}{
		{
			name: "valid empty state",
			state: types.InterviewState{
				Messages: []types.ChatMessage{},
				Status:   types.StatusInProgress,
			},
		},
		{
			name: "index valid for extracted positions",
			state: types.InterviewState{
				Messages:             []types.ChatMessage{},
				Status:               types.StatusInProgress,
				CurrentPositionIndex: 0,
				ExtractedData: &types.InterviewOutput{
					Positions: []types.PositionWithBullets{
						{Position: types.Position{Company: "Acme", Title: "Eng"}},
					},
				},
			},
		},
		{
			name: "index out of range",
			state: types.InterviewState{
				Messages:             []types.ChatMessage{},
				Status:               types.StatusInProgress,
				CurrentPositionIndex: 2,
				ExtractedData: &types.InterviewOutput{
					Positions: []types.PositionWithBullets{
						{Position: types.Position{Company: "Acme", Title: "Eng"}},
					},
				},
			},
			wantErr: true,
		},
		{
			name: "nonzero index without positions",
			state: types.InterviewState{
				Messages:             []types.ChatMessage{},
				Status:               types.StatusInProgress,
				CurrentPositionIndex: 1,
			},
			wantErr: true,
		},
		{
			name: "unknown status",
			state: types.InterviewState{
				Messages: []types.ChatMessage{},
				Status:   "paused",
			},
			wantErr: true,
		},
		{
			name: "invalid transcript entry",
			state: types.InterviewState{
				Messages: []types.ChatMessage{{ID: "", Role: types.RoleUser, Timestamp: now}},
				Status:   types.StatusInProgress,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInterviewState(&tt.state)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInterviewState() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
