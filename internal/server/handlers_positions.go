package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/odie-hq/odie/internal/db"
	"github.com/odie-hq/odie/internal/server/middleware"
	"github.com/odie-hq/odie/internal/skills"
)

// CreatePositionRequest is the body for manually adding a position.
type CreatePositionRequest struct {
	Company   string  `json:"company"`
	Title     string  `json:"title"`
	Location  string  `json:"location,omitempty"`
	StartDate *string `json:"start_date,omitempty"` // "YYYY-MM" accepted
	EndDate   *string `json:"end_date,omitempty"`
}

// UpdateBulletRequest is the body for editing a bullet after review.
type UpdateBulletRequest struct {
	Text       string   `json:"text"`
	HardSkills []string `json:"hard_skills,omitempty"`
	SoftSkills []string `json:"soft_skills,omitempty"`
}

// handleListPositions lists the caller's positions.
func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	positions, err := s.db.ListPositions(r.Context(), userID)
	if err != nil {
		s.logger.Error("failed to list positions", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to list positions")
		return
	}
	if positions == nil {
		positions = []db.Position{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"positions": positions})
}

// handleCreatePosition adds a position outside the interview flow.
func (s *Server) handleCreatePosition(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreatePositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Company) == "" || strings.TrimSpace(req.Title) == "" {
		s.errorResponse(w, http.StatusBadRequest, "company and title are required")
		return
	}

	positionID, err := s.db.UpsertPosition(r.Context(), &db.Position{
		UserID:    userID,
		Company:   req.Company,
		Title:     req.Title,
		Location:  req.Location,
		StartDate: db.DateFromString(req.StartDate),
		EndDate:   db.DateFromString(req.EndDate),
	})
	if err != nil {
		s.logger.Error("failed to create position", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to create position")
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]string{"id": positionID.String()})
}

// handleListBullets lists one position's bullets.
func (s *Server) handleListBullets(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	positionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid position ID")
		return
	}

	position, err := s.db.GetPosition(r.Context(), positionID)
	if err != nil {
		s.logger.Error("failed to get position", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to get position")
		return
	}
	if position == nil || position.UserID != userID {
		s.errorResponse(w, http.StatusNotFound, "position not found")
		return
	}

	bullets, err := s.db.ListBullets(r.Context(), positionID)
	if err != nil {
		s.logger.Error("failed to list bullets", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to list bullets")
		return
	}
	if bullets == nil {
		bullets = []db.Bullet{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"bullets": bullets})
}

// handleUpdateBullet edits a bullet's text and skills.
func (s *Server) handleUpdateBullet(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	bulletID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid bullet ID")
		return
	}

	var req UpdateBulletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.errorResponse(w, http.StatusBadRequest, "text is required")
		return
	}

	if !s.ownsBullet(w, r, userID, bulletID) {
		return
	}

	// User-edited skills go through the codec: entries are trimmed, empty
	// entries dropped, comma-joined entries split.
	hardSkills := skills.Parse(skills.Join(req.HardSkills))
	softSkills := skills.Parse(skills.Join(req.SoftSkills))

	if err := s.db.UpdateBulletText(r.Context(), bulletID, req.Text, hardSkills, softSkills); err != nil {
		s.logger.Error("failed to update bullet", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to update bullet")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"id": bulletID.String()})
}

// handleDeleteBullet removes a bullet.
func (s *Server) handleDeleteBullet(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	bulletID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid bullet ID")
		return
	}

	if !s.ownsBullet(w, r, userID, bulletID) {
		return
	}

	if err := s.db.DeleteBullet(r.Context(), bulletID); err != nil {
		s.logger.Error("failed to delete bullet", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to delete bullet")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleSearchBullets runs similarity search over the caller's bullets.
func (s *Server) handleSearchBullets(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.errorResponse(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	embedding, err := s.llm.EmbedText(r.Context(), query)

	rec := db.AILog{
		UserID:  userID,
		Type:    "embedding",
		Model:   s.llm.GetEmbeddingModel(),
		Input:   query,
		Success: err == nil,
	}
	s.recorder.Record(r.Context(), rec)

	if err != nil {
		s.logger.Error("failed to embed query", zap.Error(err))
		s.errorResponse(w, http.StatusBadGateway, "failed to embed query")
		return
	}

	matches, err := s.db.SearchBullets(r.Context(), userID, embedding, limit)
	if err != nil {
		s.logger.Error("failed to search bullets", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to search bullets")
		return
	}
	if matches == nil {
		matches = []db.BulletMatch{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"matches": matches})
}

// ownsBullet checks that the bullet's owning position belongs to the
// caller, writing the error response when it does not.
func (s *Server) ownsBullet(w http.ResponseWriter, r *http.Request, userID, bulletID uuid.UUID) bool {
	position, err := s.db.GetBulletPosition(r.Context(), bulletID)
	if err != nil {
		s.logger.Error("failed to check bullet ownership", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to check bullet ownership")
		return false
	}
	if position == nil || position.UserID != userID {
		s.errorResponse(w, http.StatusNotFound, "bullet not found")
		return false
	}
	return true
}
