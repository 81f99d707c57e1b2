package server

import (
	"net/http"

	"go.uber.org/zap"
)

// handleCatalogModels returns the upstream model catalog.
func (s *Server) handleCatalogModels(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.errorResponse(w, http.StatusNotImplemented, "speech service is not configured")
		return
	}

	models, err := s.catalog.Models(r.Context())
	if err != nil {
		s.logger.Warn("failed to fetch model catalog", zap.Error(err))
		s.errorResponse(w, http.StatusBadGateway, "failed to fetch model catalog")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"models": models})
}

// handleCatalogPrompts returns the upstream prompt catalog.
func (s *Server) handleCatalogPrompts(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.errorResponse(w, http.StatusNotImplemented, "speech service is not configured")
		return
	}

	prompts, err := s.catalog.Prompts(r.Context())
	if err != nil {
		s.logger.Warn("failed to fetch prompt catalog", zap.Error(err))
		s.errorResponse(w, http.StatusBadGateway, "failed to fetch prompt catalog")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"prompts": prompts})
}
