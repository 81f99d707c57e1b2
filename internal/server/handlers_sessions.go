package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/odie-hq/odie/internal/db"
	"github.com/odie-hq/odie/internal/server/middleware"
	"github.com/odie-hq/odie/internal/session"
	"github.com/odie-hq/odie/internal/types"
)

// MessageRequest is the body for submitting one interview turn.
type MessageRequest struct {
	Message string `json:"message"`
}

// MessageResponse is one completed interview turn.
type MessageResponse struct {
	SessionID         string          `json:"session_id"`
	Reply             string          `json:"reply"`
	ExtractedPosition *types.Position `json:"extracted_position,omitempty"`
	ExtractedBullets  []types.Bullet  `json:"extracted_bullets"`
	ShouldContinue    bool            `json:"should_continue"`
	Status            string          `json:"status"`
}

// SessionResponse is the stored view of one session.
type SessionResponse struct {
	ID                   string              `json:"id"`
	Status               string              `json:"status"`
	Messages             []types.ChatMessage `json:"messages"`
	CurrentPositionIndex int                 `json:"current_position_index"`
	CreatedAt            string              `json:"created_at"`
	UpdatedAt            string              `json:"updated_at"`
}

// handleCreateSession starts a new interview session for the caller.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessionID, err := s.db.CreateSession(r.Context(), userID)
	if err != nil {
		s.logger.Error("failed to create session", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]string{
		"id":     sessionID.String(),
		"status": string(types.StatusInProgress),
	})
}

// handleListSessions lists the caller's sessions, newest first.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessions, err := s.db.ListSessions(r.Context(), userID, 50)
	if err != nil {
		s.logger.Error("failed to list sessions", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []db.SessionSummary{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// handleGetSession returns one session's transcript and status.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	stored, ok := s.loadOwnedSession(w, r)
	if !ok {
		return
	}

	state, err := sessionStateFromRecord(stored)
	if err != nil {
		s.logger.Error("corrupt session state", zap.String("session", stored.ID.String()), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "corrupt session state")
		return
	}

	s.jsonResponse(w, http.StatusOK, SessionResponse{
		ID:                   stored.ID.String(),
		Status:               stored.Status,
		Messages:             state.Messages,
		CurrentPositionIndex: state.CurrentPositionIndex,
		CreatedAt:            stored.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            stored.UpdatedAt.Format(time.RFC3339),
	})
}

// handleSubmitMessage runs one interview turn and persists the result.
func (s *Server) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	stored, ok := s.loadOwnedSession(w, r)
	if !ok {
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.errorResponse(w, http.StatusBadRequest, "message is required")
		return
	}

	sess, err := s.restoreSession(stored)
	if err != nil {
		s.logger.Error("failed to restore session", zap.String("session", stored.ID.String()), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "corrupt session state")
		return
	}

	step, submitErr := sess.Submit(r.Context(), req.Message)

	// Persist whatever the turn left behind: on failure that is the error
	// status plus the retained user message.
	if err := s.saveSessionState(r, stored, sess); err != nil {
		s.logger.Error("failed to persist session state", zap.String("session", stored.ID.String()), zap.Error(err))
	}

	if submitErr != nil {
		s.errorResponse(w, HTTPStatus(submitErr), submitErr.Error())
		return
	}

	s.persistExtraction(r, stored, sess, step)

	s.jsonResponse(w, http.StatusOK, MessageResponse{
		SessionID:         stored.ID.String(),
		Reply:             step.Response,
		ExtractedPosition: step.ExtractedPosition,
		ExtractedBullets:  step.ExtractedBullets,
		ShouldContinue:    step.ShouldContinue,
		Status:            string(sess.Status()),
	})
}

// handleResumeSession returns an errored session to in_progress.
func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	stored, ok := s.loadOwnedSession(w, r)
	if !ok {
		return
	}

	sess, err := s.restoreSession(stored)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "corrupt session state")
		return
	}

	if err := sess.Resume(); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	if err := s.saveSessionState(r, stored, sess); err != nil {
		s.logger.Error("failed to persist session state", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to persist session")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"id":     stored.ID.String(),
		"status": string(sess.Status()),
	})
}

// handleGetOutput returns the merged extraction snapshot for a session.
func (s *Server) handleGetOutput(w http.ResponseWriter, r *http.Request) {
	stored, ok := s.loadOwnedSession(w, r)
	if !ok {
		return
	}

	if len(stored.ExtractedData) == 0 {
		s.jsonResponse(w, http.StatusOK, types.InterviewOutput{
			Positions: []types.PositionWithBullets{},
		})
		return
	}

	var out types.InterviewOutput
	if err := json.Unmarshal(stored.ExtractedData, &out); err != nil {
		s.logger.Error("corrupt extracted data", zap.String("session", stored.ID.String()), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "corrupt session state")
		return
	}
	s.jsonResponse(w, http.StatusOK, out)
}

// handleFinalizeSession flips the session's draft bullets to final.
func (s *Server) handleFinalizeSession(w http.ResponseWriter, r *http.Request) {
	stored, ok := s.loadOwnedSession(w, r)
	if !ok {
		return
	}

	if stored.Status != string(types.StatusCompleted) {
		s.errorResponse(w, http.StatusConflict, "session is not completed")
		return
	}

	finalized, err := s.db.FinalizeSessionBullets(r.Context(), stored.ID)
	if err != nil {
		s.logger.Error("failed to finalize bullets", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to finalize bullets")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"id":        stored.ID.String(),
		"finalized": finalized,
	})
}

// loadOwnedSession parses {id}, loads the session, and enforces ownership.
// A session belonging to another user is indistinguishable from a missing
// one.
func (s *Server) loadOwnedSession(w http.ResponseWriter, r *http.Request) (*db.InterviewSession, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}

	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid session ID")
		return nil, false
	}

	stored, err := s.db.GetSession(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("failed to get session", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to get session")
		return nil, false
	}
	if stored == nil || stored.UserID != userID {
		s.errorResponse(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return stored, true
}

// restoreSession rebuilds the in-memory session from its stored record.
func (s *Server) restoreSession(stored *db.InterviewSession) (*session.Session, error) {
	state, err := sessionStateFromRecord(stored)
	if err != nil {
		return nil, err
	}
	return session.Restore(stored.ID, *state, s.newStepper(stored.UserID), nil)
}

// sessionStateFromRecord decodes the stored JSONB columns into state.
func sessionStateFromRecord(stored *db.InterviewSession) (*types.InterviewState, error) {
	state := types.InterviewState{
		Messages:             []types.ChatMessage{},
		CurrentPositionIndex: stored.CurrentPositionIndex,
		Status:               types.SessionStatus(stored.Status),
	}
	if len(stored.Transcript) > 0 {
		if err := json.Unmarshal(stored.Transcript, &state.Messages); err != nil {
			return nil, fmt.Errorf("failed to decode transcript: %w", err)
		}
	}
	if len(stored.ExtractedData) > 0 {
		var out types.InterviewOutput
		if err := json.Unmarshal(stored.ExtractedData, &out); err != nil {
			return nil, fmt.Errorf("failed to decode extracted data: %w", err)
		}
		state.ExtractedData = &out
	}
	return &state, nil
}

// saveSessionState writes the session's current state back to storage.
func (s *Server) saveSessionState(r *http.Request, stored *db.InterviewSession, sess *session.Session) error {
	state := sess.State()

	transcript, err := json.Marshal(state.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}

	var extracted []byte
	if state.ExtractedData != nil {
		extracted, err = json.Marshal(state.ExtractedData)
		if err != nil {
			return fmt.Errorf("failed to encode extracted data: %w", err)
		}
	}

	return s.db.SaveSessionState(r.Context(), stored.ID, string(state.Status),
		transcript, extracted, state.CurrentPositionIndex)
}

// persistExtraction stores the turn's extracted position and bullets as
// draft rows. Persistence failures are logged, not surfaced: the turn
// already succeeded and the snapshot in session state is authoritative.
func (s *Server) persistExtraction(r *http.Request, stored *db.InterviewSession, sess *session.Session, step *types.StepResponse) {
	if step.ExtractedPosition == nil && len(step.ExtractedBullets) == 0 {
		return
	}

	out := sess.Output()
	if out == nil || len(out.Positions) == 0 {
		return
	}
	current := out.Positions[sess.State().CurrentPositionIndex].Position

	positionID, err := s.db.UpsertPosition(r.Context(), &db.Position{
		UserID:    stored.UserID,
		SessionID: &stored.ID,
		Company:   current.Company,
		Title:     current.Title,
		Location:  current.Location,
		StartDate: db.DateFromString(current.StartDate),
		EndDate:   db.DateFromString(current.EndDate),
	})
	if err != nil {
		s.logger.Error("failed to persist position", zap.Error(err))
		return
	}

	for i := range step.ExtractedBullets {
		b := &step.ExtractedBullets[i]

		embedding := s.embedBullet(r, stored.UserID, b.Text)

		record := &db.Bullet{
			PositionID:  positionID,
			Text:        b.Text,
			Category:    b.Category,
			HardSkills:  db.StringArray(b.HardSkills),
			SoftSkills:  db.StringArray(b.SoftSkills),
			Assumptions: b.Assumptions,
			Draft:       true,
		}
		if b.Metrics != nil {
			record.MetricValue = b.Metrics.Value
			record.MetricType = b.Metrics.Type
		}

		if _, err := s.db.InsertBullet(r.Context(), record, embedding); err != nil {
			s.logger.Error("failed to persist bullet", zap.Error(err))
		}
	}
}

// embedBullet computes an embedding for similarity search, recording one
// telemetry row for the call. An embedding failure degrades to a bullet
// without an embedding.
func (s *Server) embedBullet(r *http.Request, userID uuid.UUID, text string) []float32 {
	embedding, err := s.llm.EmbedText(r.Context(), text)

	rec := db.AILog{
		UserID:  userID,
		Type:    "embedding",
		Model:   s.llm.GetEmbeddingModel(),
		Input:   text,
		Success: err == nil,
	}
	s.recorder.Record(r.Context(), rec)

	if err != nil {
		s.logger.Warn("failed to embed bullet", zap.Error(err))
		return nil
	}
	return embedding
}
