// Package types provides type definitions for structured data used throughout the Odie interview system.
package types

import (
	"strings"
	"time"
)

// Role identifies the author of a chat message.
type Role string

// Chat message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is one of the recognized values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// SessionStatus is the lifecycle state of an interview session.
type SessionStatus string

// Interview session lifecycle states. Completed and error are terminal;
// status never transitions backward.
const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusError      SessionStatus = "error"
)

// Valid reports whether the status is one of the recognized values.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusInProgress, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Position represents one extracted employment entry.
// Dates use "YYYY-MM"; a nil EndDate means a current role.
type Position struct {
	Company   string  `json:"company"`
	Title     string  `json:"title"`
	Location  string  `json:"location,omitempty"`
	StartDate *string `json:"startDate,omitempty"`
	EndDate   *string `json:"endDate,omitempty"`
}

// Metrics is an optional quantified result attached to a bullet.
type Metrics struct {
	Value string `json:"value,omitempty"`
	Type  string `json:"type,omitempty"`
}

// Bullet represents one STAR-format resume bullet extracted from the
// interview. Assumptions flags facts the model inferred rather than heard.
type Bullet struct {
	Text        string   `json:"text"`
	Category    string   `json:"category,omitempty"`
	HardSkills  []string `json:"hardSkills"`
	SoftSkills  []string `json:"softSkills"`
	Metrics     *Metrics `json:"metrics,omitempty"`
	Assumptions string   `json:"assumptions,omitempty"`
}

// PositionWithBullets pairs one position with its bullets in extraction
// order. Order is meaningful for review and is not deduplicated.
type PositionWithBullets struct {
	Position Position `json:"position"`
	Bullets  []Bullet `json:"bullets"`
}

// InterviewOutput is a full-session extraction snapshot, not a delta.
type InterviewOutput struct {
	Positions    []PositionWithBullets `json:"positions"`
	IsComplete   bool                  `json:"isComplete"`
	NextQuestion string                `json:"nextQuestion,omitempty"`
}

// StepResponse is the per-turn contract returned by the chat model.
// ShouldContinue defaults to true when the field is absent.
type StepResponse struct {
	Response          string    `json:"response"`
	ExtractedPosition *Position `json:"extractedPosition,omitempty"`
	ExtractedBullets  []Bullet  `json:"extractedBullets"`
	ShouldContinue    bool      `json:"shouldContinue"`
}

// ChatMessage is one transcript entry. Messages are immutable once
// appended; IDs are caller-assigned and unique within a session.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// InterviewState is the accumulated state of one interview session:
// the append-only transcript, the current position pointer, the merged
// extraction snapshot, and the lifecycle status.
type InterviewState struct {
	Messages             []ChatMessage    `json:"messages"`
	CurrentPositionIndex int              `json:"currentPositionIndex"`
	ExtractedData        *InterviewOutput `json:"extractedData,omitempty"`
	Status               SessionStatus    `json:"status"`
}

// SameRole reports whether two positions denote the same (company, title)
// pair, ignoring case and surrounding whitespace. This is the identity
// used by the session merge policy.
func (p Position) SameRole(other Position) bool {
	return strings.EqualFold(strings.TrimSpace(p.Company), strings.TrimSpace(other.Company)) &&
		strings.EqualFold(strings.TrimSpace(p.Title), strings.TrimSpace(other.Title))
}
