package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/logger"
	"github.com/jonathan/career-roadmap/internal/pipeline"
	"github.com/jonathan/career-roadmap/internal/server/middleware"
	"github.com/jonathan/career-roadmap/internal/server/ratelimit"
	"github.com/jonathan/career-roadmap/internal/service"
)

// publicPaths skip bearer authentication
var publicPaths = []string{"/health"}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	documents   *service.DocumentService
	matches     *service.MatchService
	roadmaps    *service.RoadmapService
	health      *service.HealthService
	chat        *service.ChatService
	runs        *pipeline.Manager
	rateLimiter *ratelimit.Limiter
	log         *logger.Logger
}

// Config holds server configuration
type Config struct {
	Port int
}

// Deps are the services the handlers call into
type Deps struct {
	Documents   *service.DocumentService
	Matches     *service.MatchService
	Roadmaps    *service.RoadmapService
	Health      *service.HealthService
	Chat        *service.ChatService
	Runs        *pipeline.Manager
	Tokens      middleware.TokenValidator
	RateLimiter *ratelimit.Limiter // nil disables rate limiting
	Log         *logger.Logger
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		documents:   deps.Documents,
		matches:     deps.Matches,
		roadmaps:    deps.Roadmaps,
		health:      deps.Health,
		chat:        deps.Chat,
		runs:        deps.Runs,
		rateLimiter: deps.RateLimiter,
		log:         logger.OrNop(deps.Log).With("component", "http"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/upstreams", s.handleUpstreams)

	// Documents
	mux.HandleFunc("POST /documents/text", s.handleIngestText)
	mux.HandleFunc("POST /documents/file", s.handleIngestFile)
	mux.HandleFunc("POST /documents/url", s.handleIngestURL)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("DELETE /documents/{id}", s.handleDeleteDocument)

	// Matching
	mux.HandleFunc("POST /matches", s.handleCreateMatch)
	mux.HandleFunc("GET /matches", s.handleListMatches)
	mux.HandleFunc("GET /matches/{id}", s.handleGetMatch)

	// Questions over the user's documents
	mux.HandleFunc("POST /chat", s.handleChat)

	// Roadmap generation
	mux.HandleFunc("POST /roadmaps/generate", s.handleGenerateRoadmap)
	mux.HandleFunc("POST /roadmaps/generate/stream", s.handleGenerateRoadmapStream)
	mux.HandleFunc("POST /roadmaps/runs/{id}/{command}", s.handleRunCommand)

	// Roadmaps and progress
	mux.HandleFunc("GET /roadmaps", s.handleListRoadmaps)
	mux.HandleFunc("GET /roadmaps/{id}", s.handleGetRoadmap)
	mux.HandleFunc("POST /roadmaps/{id}/activate", s.handleActivateRoadmap)
	mux.HandleFunc("POST /roadmaps/{id}/deactivate", s.handleDeactivateRoadmap)
	mux.HandleFunc("DELETE /roadmaps/{id}", s.handleDeleteRoadmap)
	mux.HandleFunc("PATCH /roadmaps/{id}/modules/{module_id}", s.handleUpdateModule)
	mux.HandleFunc("PATCH /roadmaps/{id}/modules/{module_id}/resources/{resource_id}", s.handleUpdateResource)
	mux.HandleFunc("GET /roadmaps/{id}/progress", s.handleGetProgress)

	authed := middleware.Auth(deps.Tokens, s.log, publicPaths...)(mux)
	s.handler = s.withRateLimit(s.withLogging(s.withCORS(authed)))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      0, // streams last as long as a generation
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.log.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", SourcesHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.rateLimiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE responses streaming through the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote", s.extractClientID(r),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpstreams probes the embedding service and the language model
func (s *Server) handleUpstreams(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		s.errorResponse(w, http.StatusNotFound, errors.New("upstream probes are not configured"))
		return
	}
	report := s.health.Upstreams(r.Context())
	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	s.jsonResponse(w, status, report)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, err error) {
	s.jsonResponse(w, status, errorBody(status, err))
}

// writeError maps err to its status code and writes it
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	s.errorResponse(w, status, err)
}

// decodeJSON decodes the request body into v
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.errorResponse(w, http.StatusBadRequest, &service.ValidationError{Message: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// pathID parses the named path value as a UUID
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, &service.ValidationError{Field: name, Message: "must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// userID returns the authenticated user
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := middleware.UserID(r)
	if err != nil {
		s.jsonResponse(w, http.StatusUnauthorized, ErrorBody{Error: "unauthorized", Message: err.Error()})
		return uuid.Nil, false
	}
	return id, true
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
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
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	s.log.Warn("rate limit exceeded",
		"client", s.extractClientID(r),
		"path", r.URL.Path,
		"limit", info.Limit,
		"reset_at", info.ResetTime.Format(time.RFC3339),
	)

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
