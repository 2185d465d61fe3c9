package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/repositories"
	"github.com/cliptube/backend/internal/storage"
	"github.com/cliptube/backend/internal/views"
)

// envelope is the uniform response shape for every API endpoint.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
}

// respondData writes a success envelope with the given payload.
func respondData(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	respondJSON(ctx, w, status, envelope{
		StatusCode: status,
		Success:    true,
		Message:    message,
		Data:       data,
	})
}

// respondFailure writes a failure envelope with an explicit status and message.
func respondFailure(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, envelope{
		StatusCode: status,
		Success:    false,
		Message:    message,
	})
}

// respondError translates a domain error into its HTTP failure envelope.
// Unrecognized errors collapse to a generic 500 so internals never leak.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status, message := classifyError(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(ctx).Error("request failed with internal error", "error", err)
	}
	respondFailure(ctx, w, status, message)
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.Is(err, repositories.ErrConflict):
		return http.StatusConflict, "resource already exists"
	case errors.Is(err, repositories.ErrUnavailable):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, "session expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenMismatch),
		errors.Is(err, auth.ErrIdentityNotFound):
		return http.StatusUnauthorized, "invalid session credentials"
	case errors.Is(err, views.ErrForbidden):
		return http.StatusForbidden, "you do not have access to this resource"
	case errors.Is(err, storage.ErrUploadFailed):
		return http.StatusBadGateway, "media storage is unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status)
	}
}
