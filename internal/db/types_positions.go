package db

import (
	"time"

	"github.com/google/uuid"
)

// Position is a stored employment entry. SessionID is nil for positions
// created by hand rather than extracted during an interview.
// Dates are complete SQL DATEs; callers run ToPostgresDate before insert.
type Position struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	SessionID *uuid.UUID `json:"session_id,omitempty"`
	Company   string     `json:"company"`
	Title     string     `json:"title"`
	Location  string     `json:"location,omitempty"`
	StartDate *Date      `json:"start_date,omitempty"`
	EndDate   *Date      `json:"end_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Bullet is a stored STAR bullet owned by exactly one position. Draft
// bullets were persisted before their session completed; finalization
// flips the flag and nothing else.
type Bullet struct {
	ID          uuid.UUID   `json:"id"`
	PositionID  uuid.UUID   `json:"position_id"`
	Text        string      `json:"text"`
	Category    string      `json:"category,omitempty"`
	HardSkills  StringArray `json:"hard_skills"`
	SoftSkills  StringArray `json:"soft_skills"`
	MetricValue string      `json:"metric_value,omitempty"`
	MetricType  string      `json:"metric_type,omitempty"`
	Assumptions string      `json:"assumptions,omitempty"`
	Draft       bool        `json:"draft"`
	CreatedAt   time.Time   `json:"created_at"`
}

// BulletMatch is a bullet returned from similarity search, with its
// distance to the query embedding.
type BulletMatch struct {
	Bullet
	Distance float64 `json:"distance"`
}
