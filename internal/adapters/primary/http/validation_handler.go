package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lome-transit/ticketing-backend/internal/adapters/primary/http/middleware"
	"github.com/lome-transit/ticketing-backend/internal/core/domain"
	apperrors "github.com/lome-transit/ticketing-backend/internal/core/errors"
	"github.com/lome-transit/ticketing-backend/internal/core/ports"
)

// ValidationHandler exposes ticket validation to scanner devices.
type ValidationHandler struct {
	service ports.ValidationService
	logger  *slog.Logger
}

func NewValidationHandler(service ports.ValidationService, logger *slog.Logger) *ValidationHandler {
	return &ValidationHandler{service: service, logger: logger}
}

type validateRequest struct {
	Code string `json:"code"`
}

type ticketResponse struct {
	Code      string     `json:"code"`
	TripID    string     `json:"trip_id"`
	State     string     `json:"state"`
	UsedBy    *string    `json:"used_by,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type validateResponse struct {
	Outcome string          `json:"outcome"`
	Reason  string          `json:"reason,omitempty"`
	Ticket  *ticketResponse `json:"ticket,omitempty"`
}

func toTicketResponse(t *domain.Ticket) *ticketResponse {
	if t == nil {
		return nil
	}
	resp := &ticketResponse{
		Code:      t.Code,
		TripID:    t.TripID.String(),
		State:     string(t.State),
		UsedAt:    t.UsedAt,
		CreatedAt: t.CreatedAt,
	}
	if t.UsedBy != nil {
		s := t.UsedBy.String()
		resp.UsedBy = &s
	}
	return resp
}

// Validate handles POST /api/v1/validations. Rejections are reported
// with a 200 and an outcome field; only store unavailability is an
// HTTP-level error.
func (h *ValidationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		HandleError(w, h.logger, apperrors.ErrUnauthorized)
		return
	}

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		HandleError(w, h.logger, apperrors.ErrCodeRequired)
		return
	}

	result, err := h.service.Validate(r.Context(), code, claims.UserID)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, validateResponse{
		Outcome: string(result.Outcome),
		Reason:  string(result.Reason),
		Ticket:  toTicketResponse(result.Ticket),
	})
}
