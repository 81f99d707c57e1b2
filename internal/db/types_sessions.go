package db

import (
	"time"

	"github.com/google/uuid"
)

// InterviewSession is the stored form of one interview session. The
// transcript and the merged extraction snapshot are stored as JSONB and
// round-trip through types.InterviewState.
type InterviewSession struct {
	ID                   uuid.UUID  `json:"id"`
	UserID               uuid.UUID  `json:"user_id"`
	Status               string     `json:"status"`
	Transcript           []byte     `json:"-"` // JSONB: []types.ChatMessage
	ExtractedData        []byte     `json:"-"` // JSONB: types.InterviewOutput, may be nil
	CurrentPositionIndex int        `json:"current_position_index"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
}

// SessionSummary is a lightweight view for listing a user's sessions.
type SessionSummary struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	Turns     int       `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
