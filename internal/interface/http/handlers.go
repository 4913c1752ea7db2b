package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campus-agents/campus-hub/internal/application/command"
	"github.com/campus-agents/campus-hub/internal/application/orchestrator"
	"github.com/campus-agents/campus-hub/internal/domain/shared"
	"github.com/campus-agents/campus-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSES
// ══════════════════════════════════════════════════════════════════════════════

// AcceptedResponse is returned for every accepted action.
type AcceptedResponse struct {
	Status string `json:"status"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorResponse wraps APIError.
type ErrorResponse struct {
	Error     *APIError `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CAMPUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleStudentAction handles POST /api/student-action.
// Body: {"action": "<kind>", "data": {...}}.
func (s *Server) handleStudentAction(w http.ResponseWriter, r *http.Request) {
	limit := s.config.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultConfig().MaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	defer r.Body.Close()

	var action command.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Action payload is too large")
			return
		}
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	ctx := orchestrator.WithRequestID(r.Context(), getRequestID(r.Context()))
	err := s.deps.Campus.Dispatch(ctx, action)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "Action received"})
	case shared.IsValidation(err):
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_action", "Action rejected", err.Error())
	case errors.Is(err, shared.ErrServiceUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, "unavailable", "Campus is shutting down")
	default:
		s.logger.Error("dispatch failed",
			logger.Err(err),
			logger.Action(string(action.Kind)),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to handle action")
	}
}

// handleAgentStatus handles GET /api/agent-status.
func (s *Server) handleAgentStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Campus.Statuses().Wire())
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves basic API information. Unknown paths get 404.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "No such endpoint")
		return
	}

	endpoints := map[string]string{
		"action": "POST /api/student-action",
		"status": "GET /api/agent-status",
		"health": "GET /healthz",
	}
	if s.deps.MetricsHandler != nil {
		endpoints["metrics"] = "GET /metrics"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":      "Campus Hub API",
		"endpoints": endpoints,
	})
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"uptime": s.Uptime().String(),
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Healthy {
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeJSONError writes an error JSON response.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSONErrorWithDetails(w, status, code, message, "")
}

// writeJSONErrorWithDetails writes an error JSON response with details.
func writeJSONErrorWithDetails(w http.ResponseWriter, status int, code, message, details string) {
	writeJSON(w, status, ErrorResponse{
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		RequestID: w.Header().Get("X-Request-ID"),
	})
}
