package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lome-transit/ticketing-backend/internal/core/domain"
	apperrors "github.com/lome-transit/ticketing-backend/internal/core/errors"
	"github.com/lome-transit/ticketing-backend/internal/core/ports"
)

// TicketHandler exposes ticket issuance and audit lookups.
type TicketHandler struct {
	service ports.TicketService
	logger  *slog.Logger
}

func NewTicketHandler(service ports.TicketService, logger *slog.Logger) *TicketHandler {
	return &TicketHandler{service: service, logger: logger}
}

type issueRequest struct {
	TripID string `json:"trip_id"`
	Count  int    `json:"count"`
}

// Issue handles POST /api/v1/tickets. Admin only.
func (h *TicketHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	tripID, err := uuid.Parse(req.TripID)
	if err != nil {
		HandleError(w, h.logger, apperrors.ErrTripRequired)
		return
	}

	tickets, err := h.service.Issue(r.Context(), ports.IssueTicketsParams{
		TripID: tripID,
		Count:  req.Count,
	})
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	out := make([]*ticketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketResponse(t))
	}
	WriteJSON(w, http.StatusCreated, ListResponse[*ticketResponse]{
		Data:  out,
		Count: len(out),
	})
}

// Get handles GET /api/v1/tickets/{code}
func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		HandleError(w, h.logger, apperrors.ErrCodeRequired)
		return
	}

	ticket, err := h.service.Get(r.Context(), code)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	WriteSuccess(w, toTicketResponse(ticket))
}

type validationEventResponse struct {
	ID         string `json:"id"`
	TicketCode string `json:"ticket_code"`
	Outcome    string `json:"outcome"`
	Reason     string `json:"reason,omitempty"`
	ActorID    string `json:"actor_id"`
	OccurredAt string `json:"occurred_at"`
}

func toValidationEventResponse(e *domain.ValidationEvent) *validationEventResponse {
	return &validationEventResponse{
		ID:         e.ID.String(),
		TicketCode: e.TicketCode,
		Outcome:    string(e.Outcome),
		Reason:     string(e.Reason),
		ActorID:    e.ActorID.String(),
		OccurredAt: e.OccurredAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

// RecentValidations handles GET /api/v1/validations/recent?limit=N
func (h *TicketHandler) RecentValidations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			WriteBadRequest(w, "limit must be an integer")
			return
		}
		limit = parsed
	}

	events, err := h.service.RecentValidations(r.Context(), limit)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	out := make([]*validationEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toValidationEventResponse(e))
	}
	WriteList(w, out)
}
