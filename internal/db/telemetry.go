package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AILog is one telemetry record for one external AI call. One record per
// call, never batched.
type AILog struct {
	UserID    uuid.UUID
	Type      string // chat, embedding, transcription, speech
	PromptID  string
	Model     string
	Input     string // truncated by the caller to stay context-limited
	Output    string
	Success   bool
	LatencyMS int64
	TokensIn  int32
	TokensOut int32
	CreatedAt time.Time
}

// InsertAILog writes one telemetry record. Callers treat failures as
// best-effort: log and swallow, never surface to the user-facing call.
func (db *DB) InsertAILog(ctx context.Context, rec *AILog) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO ai_logs (user_id, type, prompt_id, model, input, output,
		                      success, latency_ms, tokens_in, tokens_out)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.UserID, rec.Type, rec.PromptID, rec.Model, rec.Input, rec.Output,
		rec.Success, rec.LatencyMS, rec.TokensIn, rec.TokensOut,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ai log: %w", err)
	}
	return nil
}
