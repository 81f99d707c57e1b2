package observability

import (
	"context"

	"go.uber.org/zap"

	"github.com/odie-hq/odie/internal/db"
	"github.com/odie-hq/odie/internal/session"
)

// MaxLoggedInputLen bounds the input text stored per telemetry record.
const MaxLoggedInputLen = 2000

// AIStore persists telemetry records.
type AIStore interface {
	InsertAILog(ctx context.Context, rec *db.AILog) error
}

// Recorder writes one telemetry record per external AI call. Writes are
// best-effort: a failure is logged and swallowed, never surfaced to the
// user-facing call, and records are never batched.
type Recorder struct {
	store  AIStore
	logger *zap.Logger
}

// NewRecorder creates a Recorder. The logger must not be nil; the store
// may be nil, in which case records are dropped (useful for CLI runs
// without a database).
func NewRecorder(store AIStore, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Record persists one telemetry record.
func (r *Recorder) Record(ctx context.Context, rec db.AILog) {
	if r.store == nil {
		return
	}
	rec.Input = Truncate(rec.Input, MaxLoggedInputLen)
	if err := r.store.InsertAILog(ctx, &rec); err != nil {
		r.logger.Warn("telemetry write failed",
			zap.String("type", rec.Type),
			zap.String("model", rec.Model),
			zap.Error(err),
		)
	}
}

// ObserveStep implements session.StepObserver for chat turns.
func (r *Recorder) ObserveStep(ctx context.Context, obs session.StepObservation) {
	r.Record(ctx, db.AILog{
		UserID:    obs.UserID,
		Type:      "chat",
		PromptID:  obs.PromptID,
		Model:     obs.Model,
		Input:     obs.Input,
		Output:    obs.Output,
		Success:   obs.Success,
		LatencyMS: obs.Latency.Milliseconds(),
		TokensIn:  obs.TokensIn,
		TokensOut: obs.TokensOut,
	})
}
