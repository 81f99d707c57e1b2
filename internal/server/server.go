// Package server provides the HTTP REST API for the interview service.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/odie-hq/odie/internal/catalog"
	"github.com/odie-hq/odie/internal/config"
	"github.com/odie-hq/odie/internal/db"
	"github.com/odie-hq/odie/internal/llm"
	"github.com/odie-hq/odie/internal/observability"
	"github.com/odie-hq/odie/internal/prompts"
	"github.com/odie-hq/odie/internal/server/middleware"
	"github.com/odie-hq/odie/internal/server/ratelimit"
	"github.com/odie-hq/odie/internal/session"
	"github.com/odie-hq/odie/internal/speech"
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	db          *db.DB
	llm         llm.Client
	logger      *zap.Logger
	recorder    *observability.Recorder
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler

	speech  *speech.Client  // nil when SPEECH_API_URL is unset
	catalog *catalog.Client // nil when SPEECH_API_URL is unset

	modelTier llm.ModelTier

	// newStepper builds the per-turn model caller. Swapped in tests.
	newStepper func(userID uuid.UUID) session.Stepper
}

// Config holds server configuration
type Config struct {
	Port         int
	DatabaseURL  string
	APIKey       string
	ModelTier    string
	SpeechAPIURL string
	Logger       *zap.Logger
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	database, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	llmClient, err := llm.NewClient(context.Background(), llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	s := &Server{
		db:        database,
		llm:       llmClient,
		logger:    logger,
		recorder:  observability.NewRecorder(database, logger),
		modelTier: llm.ModelTier(cfg.ModelTier),
	}
	if s.modelTier == "" {
		s.modelTier = llm.TierStandard
	}

	s.newStepper = func(userID uuid.UUID) session.Stepper {
		return &session.LLMStepper{
			Client:   s.llm,
			Tier:     s.modelTier,
			System:   prompts.MustGet("interview.json", "interview-system"),
			PromptID: "interview-system",
			UserID:   userID,
			Observer: s.recorder,
		}
	}

	if cfg.SpeechAPIURL != "" {
		s.speech = speech.NewClient(cfg.SpeechAPIURL)
		catalogClient, err := catalog.NewClient(cfg.SpeechAPIURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create catalog client: %w", err)
		}
		s.catalog = catalogClient
	}

	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	s.userService = NewUserService(database, passwordConfig)

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	s.jwtService = NewJWTService(jwtConfig)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // turns wait on the external model
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler builds the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	authed := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())

	mux.HandleFunc("GET /health", s.handleHealth)

	// Authentication
	mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)
	mux.Handle("PUT /auth/password", authed(http.HandlerFunc(s.handleUpdatePassword)))

	// Interview sessions
	mux.Handle("POST /sessions", authed(http.HandlerFunc(s.handleCreateSession)))
	mux.Handle("GET /sessions", authed(http.HandlerFunc(s.handleListSessions)))
	mux.Handle("GET /sessions/{id}", authed(http.HandlerFunc(s.handleGetSession)))
	mux.Handle("POST /sessions/{id}/messages", authed(http.HandlerFunc(s.handleSubmitMessage)))
	mux.Handle("POST /sessions/{id}/resume", authed(http.HandlerFunc(s.handleResumeSession)))
	mux.Handle("GET /sessions/{id}/output", authed(http.HandlerFunc(s.handleGetOutput)))
	mux.Handle("POST /sessions/{id}/finalize", authed(http.HandlerFunc(s.handleFinalizeSession)))

	// Positions and bullets
	mux.Handle("GET /positions", authed(http.HandlerFunc(s.handleListPositions)))
	mux.Handle("POST /positions", authed(http.HandlerFunc(s.handleCreatePosition)))
	mux.Handle("GET /positions/{id}/bullets", authed(http.HandlerFunc(s.handleListBullets)))
	mux.Handle("PUT /bullets/{id}", authed(http.HandlerFunc(s.handleUpdateBullet)))
	mux.Handle("DELETE /bullets/{id}", authed(http.HandlerFunc(s.handleDeleteBullet)))
	mux.Handle("GET /bullets/search", authed(http.HandlerFunc(s.handleSearchBullets)))

	// Speech proxy
	mux.Handle("POST /speech/speech", authed(http.HandlerFunc(s.handleSynthesize)))
	mux.Handle("POST /speech/transcriptions", authed(http.HandlerFunc(s.handleTranscribe)))

	// Upstream catalogs
	mux.Handle("GET /catalog/models", authed(http.HandlerFunc(s.handleCatalogModels)))
	mux.Handle("GET /catalog/prompts", authed(http.HandlerFunc(s.handleCatalogPrompts)))

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start begins listening for requests
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-stop
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if err := s.llm.Close(); err != nil {
		s.logger.Warn("failed to close LLM client", zap.Error(err))
	}
	s.db.Close()
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		if !allowed {
			s.setRateLimitHeaders(w, info)
			s.rateLimitResponse(w, info)
			return
		}

		s.setRateLimitHeaders(w, info)
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpdatePassword handles password update requests for the
// authenticated user.
func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	s.authHandler.UpdatePasswordWithUserID(w, r, userID)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID extracts the client identifier from the request.
// For MVP, this uses the IP address from RemoteAddr.
// In the future, this could use X-Forwarded-For header (only from trusted proxies).
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	s.logger.Warn("rate limit exceeded",
		zap.Int("limit", info.Limit),
		zap.Int("remaining", info.Remaining),
		zap.Time("reset", info.ResetTime),
	)

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
