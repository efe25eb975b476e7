// Package api implements the issuepilot HTTP API server.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"issuepilot/internal/agent"
	"issuepilot/internal/github"
)

// Processor is the issue processing pipeline the server dispatches to.
type Processor interface {
	ProcessNew(ctx context.Context, issue github.Issue, autoApply bool) agent.Result
	ProcessExisting(ctx context.Context, number int, autoApply bool) (agent.Result, error)
	ProcessBatch(ctx context.Context, numbers []int, autoApply bool) agent.BatchResult
	Recommend(ctx context.Context, issue github.Issue) agent.Advice
	Stats(ctx context.Context) (agent.Stats, error)
}

// RepoReader is the read-only repository view behind the context endpoints.
type RepoReader interface {
	FullName() string
	FetchContext(ctx context.Context) (*github.RepoContext, error)
}

// Config holds the server wiring.
type Config struct {
	Addr          string
	WebhookSecret string
	Processor     Processor
	Repo          RepoReader
	Logger        *slog.Logger
}

// Server is the issuepilot HTTP API server.
type Server struct {
	cfg    Config
	logger *slog.Logger
	mux    *http.ServeMux
	server *http.Server
}

// New creates a new API server.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{cfg: cfg, logger: cfg.Logger}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/stats", s.handleStats)
	s.mux.HandleFunc("POST /api/v1/webhook", s.handleWebhook)
	s.mux.HandleFunc("POST /api/v1/process-issue", s.handleProcessIssue)
	s.mux.HandleFunc("POST /api/v1/process-issue/{number}", s.handleProcessIssueByNumber)
	s.mux.HandleFunc("POST /api/v1/batch-process", s.handleBatchProcess)
	s.mux.HandleFunc("POST /api/v1/recommendations", s.handleRecommendations)
	s.mux.HandleFunc("GET /api/v1/repository", s.handleRepository)
	s.mux.HandleFunc("GET /api/v1/labels", s.handleLabels)
	s.mux.HandleFunc("GET /api/v1/contributors", s.handleContributors)
	s.mux.HandleFunc("GET /api/v1/webhook-config", s.handleWebhookConfig)
}

// ListenAndServe starts the HTTP server and blocks until it exits.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.cfg.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}

// writeError writes a JSON error response with an optional detail message.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string, detail error) {
	body := map[string]string{"error": msg}
	if detail != nil {
		body["detail"] = detail.Error()
	}
	s.writeJSON(w, status, body)
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
