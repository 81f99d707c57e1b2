package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/odie-hq/odie/internal/db"
	"github.com/odie-hq/odie/internal/server/middleware"
	"github.com/odie-hq/odie/internal/speech"
)

// handleSynthesize proxies a text-to-speech request upstream.
func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if s.speech == nil {
		s.errorResponse(w, http.StatusNotImplemented, "speech service is not configured")
		return
	}

	var req speech.SynthesisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	start := time.Now()
	result, err := s.speech.Synthesize(r.Context(), &req)
	s.recordSpeechCall(r, db.AILog{
		UserID: userID,
		Type:   "speech",
		Model:  req.Model,
		Input:  req.Text,
	}, start, err)

	if err != nil {
		s.logger.Warn("synthesis failed", zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	contentType := result.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Audio); err != nil {
		s.logger.Warn("failed to write audio response", zap.Error(err))
	}
}

// handleTranscribe proxies audio upstream for transcription. The audio
// travels as the raw request body with its MIME type in Content-Type.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if s.speech == nil {
		s.errorResponse(w, http.StatusNotImplemented, "speech service is not configured")
		return
	}

	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, speech.MaxAudioBytes+1))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "failed to read audio body")
		return
	}
	contentType := r.Header.Get("Content-Type")

	start := time.Now()
	transcript, err := s.speech.Transcribe(r.Context(), audio, contentType)

	rec := db.AILog{
		UserID: userID,
		Type:   "transcription",
		Input:  fmt.Sprintf("%s (%d bytes)", contentType, len(audio)),
	}
	if err == nil {
		rec.Output = transcript.Text
	}
	s.recordSpeechCall(r, rec, start, err)

	if err != nil {
		s.logger.Warn("transcription failed", zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, transcript)
}

// recordSpeechCall writes one telemetry row for one upstream speech call.
// A validation failure never reaches the upstream service, so it produces
// no record.
func (s *Server) recordSpeechCall(r *http.Request, rec db.AILog, start time.Time, err error) {
	var vErr *speech.ValidationError
	if errors.As(err, &vErr) {
		return
	}
	rec.Success = err == nil
	rec.LatencyMS = time.Since(start).Milliseconds()
	s.recorder.Record(r.Context(), rec)
}
