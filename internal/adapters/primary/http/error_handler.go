package http

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/lome-transit/ticketing-backend/internal/core/errors"
)

// ErrorResponse is the JSON shape of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// HandleError maps service-layer errors onto HTTP responses.
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.StatusCode >= 500 {
			logger.Error("request failed", "code", appErr.Code, "error", appErr.Err)
		}
		WriteJSON(w, appErr.StatusCode, ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		})
		return
	}

	status, code, message := classify(err)
	if status >= 500 {
		logger.Error("request failed", "error", err)
	}
	WriteJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid identifier or password"
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required"
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "Insufficient permissions"
	case errors.Is(err, apperrors.ErrUserExists):
		return http.StatusConflict, "USER_EXISTS", "An account with this identifier already exists"
	case errors.Is(err, apperrors.ErrUserNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND", "User not found"
	case errors.Is(err, apperrors.ErrTicketNotFound):
		return http.StatusNotFound, "TICKET_NOT_FOUND", "Ticket not found"
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Ticket store is temporarily unavailable"
	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests"
	case errors.Is(err, apperrors.ErrIdentifierRequired),
		errors.Is(err, apperrors.ErrEmailInvalid),
		errors.Is(err, apperrors.ErrPasswordTooWeak),
		errors.Is(err, apperrors.ErrPasswordRequired),
		errors.Is(err, apperrors.ErrFullNameRequired),
		errors.Is(err, apperrors.ErrFullNameTooLong),
		errors.Is(err, apperrors.ErrInvalidRole),
		errors.Is(err, apperrors.ErrCodeRequired),
		errors.Is(err, apperrors.ErrTripRequired),
		errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, "BAD_REQUEST", err.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Resource not found"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}

// WriteBadRequest writes a 400 with the given message.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Code: "BAD_REQUEST"})
}
