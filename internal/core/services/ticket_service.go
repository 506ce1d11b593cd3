package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lome-transit/ticketing-backend/internal/core/domain"
	apperrors "github.com/lome-transit/ticketing-backend/internal/core/errors"
	"github.com/lome-transit/ticketing-backend/internal/core/ports"
)

const maxIssueBatch = 500

// TicketService implements ticket issuance and lookup for the admin
// console. Validation itself lives in ValidationService; this side only
// mints and reads.
type TicketService struct {
	store       ports.TicketStore
	audit       ports.ValidationEventRepository
	broadcaster ports.EventBroadcaster
}

var _ ports.TicketService = (*TicketService)(nil)

// NewTicketService creates a new ticket service.
func NewTicketService(
	store ports.TicketStore,
	audit ports.ValidationEventRepository,
	broadcaster ports.EventBroadcaster,
) *TicketService {
	return &TicketService{
		store:       store,
		audit:       audit,
		broadcaster: broadcaster,
	}
}

// Issue mints a batch of unused tickets for a trip and announces the batch
// on the event stream so dashboards refresh their counts.
func (s *TicketService) Issue(ctx context.Context, params ports.IssueTicketsParams) ([]*domain.Ticket, error) {
	if params.TripID == uuid.Nil {
		return nil, apperrors.ErrTripRequired
	}
	if params.Count < 1 || params.Count > maxIssueBatch {
		return nil, apperrors.NewBadRequestError(apperrors.ErrBadRequest, "count must be between 1 and 500")
	}

	tickets := make([]*domain.Ticket, 0, params.Count)
	for i := 0; i < params.Count; i++ {
		created, err := s.store.Create(ctx, domain.NewTicket(params.TripID))
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, created)
	}

	_ = s.broadcaster.Publish(domain.Event{
		Type: domain.EventTicketsIssued,
		Payload: map[string]interface{}{
			"tripId": params.TripID,
			"count":  len(tickets),
		},
		Timestamp: time.Now().UTC(),
	})

	return tickets, nil
}

// Get fetches a single ticket by code.
func (s *TicketService) Get(ctx context.Context, code string) (*domain.Ticket, error) {
	if code == "" {
		return nil, apperrors.ErrCodeRequired
	}
	return s.store.GetByCode(ctx, code)
}

// RecentValidations returns the newest validation events for the
// dashboard audit view, most recent first.
func (s *TicketService) RecentValidations(ctx context.Context, limit int) ([]*domain.ValidationEvent, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return s.audit.ListRecent(ctx, limit)
}
