package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/conorfennell/flashlearn/internal/auth"
	"github.com/conorfennell/flashlearn/internal/generator"
	"github.com/conorfennell/flashlearn/internal/learn"
	"github.com/conorfennell/flashlearn/internal/validate"
)

// httpError is an error with a fixed response.
type httpError struct {
	status  int
	code    string
	message string
}

func (e *httpError) Error() string { return e.message }

var (
	errNotFound     = &httpError{http.StatusNotFound, "not_found", "Resource not found"}
	errForbidden    = &httpError{http.StatusForbidden, "access_denied", "Access denied"}
	errUnauthorized = &httpError{http.StatusUnauthorized, "unauthorized", "Authentication required"}
	errRateLimited  = &httpError{http.StatusTooManyRequests, "too_many_requests", "Too many generation requests, try again later"}
)

func badRequest(msg string) error {
	return &httpError{http.StatusBadRequest, "bad_request", msg}
}

type errorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and a JSON error body. Unexpected
// errors are logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		herr    *httpError
		verr    *validate.Error
		lenErr  *generator.ErrSourceLength
		rateErr *generator.ErrRateLimit
		downErr *generator.ErrProviderUnavailable
		badErr  *generator.ErrInvalidResponse
	)

	switch {
	case errors.As(err, &herr):
		writeJSON(w, herr.status, errorResponse{Error: herr.code, Message: herr.message})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Message: "Validation failed",
			Details: map[string]any{"violations": verr.Violations()},
		})
	case errors.As(err, &lenErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Message: "Validation failed",
			Details: map[string]any{"violations": []validate.Violation{{Property: "source_text", Message: lenErr.Msg}}},
		})
	case errors.Is(err, auth.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "conflict", Message: "Email is already registered"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: "Invalid credentials"})
	case errors.Is(err, auth.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: "Authentication required"})
	case errors.Is(err, learn.ErrUnknownMode):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
	case errors.Is(err, generator.ErrBudgetExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "budget_exceeded", Message: "Generation is unavailable until the spending limit resets"})
	case errors.As(err, &rateErr):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "generation_failed", Message: "The generation provider is busy, try again later"})
	case errors.As(err, &downErr), errors.As(err, &badErr):
		logger.Warn("flashcard generation failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "generation_failed", Message: "Failed to generate flashcards"})
	default:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_server_error", Message: "An error occurred"})
	}
}
