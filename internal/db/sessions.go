package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateSession creates an interview session row for a user and returns
// its ID. New sessions start in_progress with an empty transcript.
func (db *DB) CreateSession(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO interview_sessions (user_id, status, transcript, current_position_index)
		 VALUES ($1, 'in_progress', '[]', 0)
		 RETURNING id`,
		userID,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// GetSession retrieves a session by ID, or nil when it does not exist.
func (db *DB) GetSession(ctx context.Context, sessionID uuid.UUID) (*InterviewSession, error) {
	var s InterviewSession
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, status, transcript, extracted_data, current_position_index,
		        created_at, updated_at, completed_at
		 FROM interview_sessions WHERE id = $1`,
		sessionID,
	).Scan(&s.ID, &s.UserID, &s.Status, &s.Transcript, &s.ExtractedData,
		&s.CurrentPositionIndex, &s.CreatedAt, &s.UpdatedAt, &s.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// SaveSessionState persists one turn's worth of state: the transcript,
// the merged extraction snapshot, the position index, and the status.
// completed_at is stamped on the in_progress -> completed transition.
func (db *DB) SaveSessionState(ctx context.Context, sessionID uuid.UUID, status string, transcript, extracted []byte, positionIndex int) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE interview_sessions
		 SET status = $1, transcript = $2, extracted_data = $3,
		     current_position_index = $4, updated_at = NOW(),
		     completed_at = CASE WHEN $1 = 'completed' AND completed_at IS NULL THEN NOW() ELSE completed_at END
		 WHERE id = $5`,
		status, transcript, extracted, positionIndex, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return nil
}

// ListSessions retrieves a user's sessions, newest first.
func (db *DB) ListSessions(ctx context.Context, userID uuid.UUID, limit int) ([]SessionSummary, error) {
	if limit == 0 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, status, jsonb_array_length(transcript), created_at, updated_at
		 FROM interview_sessions WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionSummary
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.ID, &s.Status, &s.Turns, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
