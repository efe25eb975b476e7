package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"issuepilot/internal/github"
	"issuepilot/internal/webhook"
)

// webhookProcessTimeout bounds background processing kicked off by a
// webhook delivery. The webhook response itself returns immediately.
const webhookProcessTimeout = 5 * time.Minute

// processIssueRequest is the body for process-issue and recommendations.
type processIssueRequest struct {
	IssueData github.Issue `json:"issue_data"`
	AutoApply bool         `json:"auto_apply"`
}

// processByNumberRequest is the optional body for process-issue/{number}.
type processByNumberRequest struct {
	AutoApply bool `json:"auto_apply"`
}

// batchProcessRequest is the body for batch-process.
type batchProcessRequest struct {
	IssueNumbers []int `json:"issue_numbers"`
	AutoApply    bool  `json:"auto_apply"`
}

// webhookPayload is the subset of the GitHub event payload we consume.
type webhookPayload struct {
	Action string        `json:"action"`
	Issue  *github.Issue `json:"issue"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "issuepilot",
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cfg.Processor.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to gather stats", err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// handleWebhook verifies the delivery signature against the raw body before
// any parsing, then dispatches supported events. Processing happens in the
// background so the delivery is acknowledged within GitHub's timeout.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get(webhook.SignatureHeader)
	if !webhook.Verify(body, signature, s.cfg.WebhookSecret) {
		s.logger.Warn("webhook signature verification failed", "remote", r.RemoteAddr)
		s.writeError(w, http.StatusUnauthorized, "invalid webhook signature", nil)
		return
	}

	event := r.Header.Get("X-GitHub-Event")
	switch event {
	case "ping":
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "pong"})
	case "issues":
		s.handleIssuesEvent(w, body)
	default:
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "event": event})
	}
}

func (s *Server) handleIssuesEvent(w http.ResponseWriter, body []byte) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed webhook payload", err)
		return
	}

	if payload.Action != "opened" || payload.Issue == nil {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "action": payload.Action})
		return
	}

	issue := *payload.Issue
	s.logger.Info("webhook accepted", "issue", issue.Number, "action", payload.Action)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), webhookProcessTimeout)
		defer cancel()
		s.cfg.Processor.ProcessNew(ctx, issue, false)
	}()

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":       "accepted",
		"issue_number": issue.Number,
	})
}

func (s *Server) handleProcessIssue(w http.ResponseWriter, r *http.Request) {
	var req processIssueRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body", err)
		return
	}
	if req.IssueData.Title == "" || req.IssueData.User.Login == "" {
		s.writeError(w, http.StatusBadRequest, "issue_data requires title and user.login", nil)
		return
	}

	result := s.cfg.Processor.ProcessNew(r.Context(), req.IssueData, req.AutoApply)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleProcessIssueByNumber(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number < 1 {
		s.writeError(w, http.StatusBadRequest, "invalid issue number", nil)
		return
	}

	// Body is optional for this endpoint.
	var req processByNumberRequest
	if r.ContentLength != 0 {
		if err := readJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, "malformed request body", err)
			return
		}
	}

	result, perr := s.cfg.Processor.ProcessExisting(r.Context(), number, req.AutoApply)
	if perr != nil {
		if errors.Is(perr, github.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "issue not found", perr)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "processing failed", perr)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBatchProcess(w http.ResponseWriter, r *http.Request) {
	var req batchProcessRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body", err)
		return
	}
	if len(req.IssueNumbers) == 0 {
		s.writeError(w, http.StatusBadRequest, "issue_numbers must not be empty", nil)
		return
	}

	batch := s.cfg.Processor.ProcessBatch(r.Context(), req.IssueNumbers, req.AutoApply)
	s.writeJSON(w, http.StatusOK, batch)
}

// handleRecommendations returns analysis without ever applying actions,
// regardless of what the request asks for.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req processIssueRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body", err)
		return
	}
	if req.IssueData.Title == "" || req.IssueData.User.Login == "" {
		s.writeError(w, http.StatusBadRequest, "issue_data requires title and user.login", nil)
		return
	}

	advice := s.cfg.Processor.Recommend(r.Context(), req.IssueData)
	if !advice.Success {
		s.writeError(w, http.StatusInternalServerError, "recommendation failed", errors.New(advice.Error))
		return
	}
	s.writeJSON(w, http.StatusOK, advice)
}

func (s *Server) handleRepository(w http.ResponseWriter, r *http.Request) {
	rctx, err := s.cfg.Repo.FetchContext(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to fetch repository", err)
		return
	}
	s.writeJSON(w, http.StatusOK, rctx)
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	rctx, err := s.cfg.Repo.FetchContext(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to fetch labels", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"labels": rctx.Labels})
}

func (s *Server) handleContributors(w http.ResponseWriter, r *http.Request) {
	rctx, err := s.cfg.Repo.FetchContext(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to fetch contributors", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"contributors": rctx.Contributors})
}

// handleWebhookConfig reports the webhook setup for operators. The secret
// itself is never echoed.
func (s *Server) handleWebhookConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"webhook_url":       "/api/v1/webhook",
		"events":            []string{"issues", "ping"},
		"content_type":      "json",
		"secret_configured": s.cfg.WebhookSecret != "",
		"repository":        s.cfg.Repo.FullName(),
	})
}
