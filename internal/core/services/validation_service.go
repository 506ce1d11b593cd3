package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lome-transit/ticketing-backend/internal/core/domain"
	apperrors "github.com/lome-transit/ticketing-backend/internal/core/errors"
	"github.com/lome-transit/ticketing-backend/internal/core/ports"
)

// ValidationService implements exactly-once ticket redemption. The atomic
// compare-and-set lives in the store; this service maps its outcomes,
// emits exactly one ValidationEvent per attempt and archives it.
type ValidationService struct {
	store       ports.TicketStore
	audit       ports.ValidationEventRepository
	broadcaster ports.EventBroadcaster
	logger      *slog.Logger
	wg          sync.WaitGroup
}

var _ ports.ValidationService = (*ValidationService)(nil)

// NewValidationService creates a new validation service.
func NewValidationService(
	store ports.TicketStore,
	audit ports.ValidationEventRepository,
	broadcaster ports.EventBroadcaster,
	logger *slog.Logger,
) *ValidationService {
	return &ValidationService{
		store:       store,
		audit:       audit,
		broadcaster: broadcaster,
		logger:      logger.With("component", "validation_service"),
	}
}

// Validate redeems the ticket identified by code on behalf of actor.
//
// The store's Redeem is the single atomic step: under concurrent scans of
// one code exactly one caller observes success and the rest observe
// ErrTicketAlreadyUsed. Repeat scans of a used ticket are idempotent
// rejections, never silent successes. Every attempt that reaches a domain
// outcome emits one event; only store unavailability aborts the attempt
// without an event.
func (s *ValidationService) Validate(ctx context.Context, code string, actor uuid.UUID) (*domain.ValidationResult, error) {
	if code == "" {
		return nil, apperrors.ErrCodeRequired
	}

	now := time.Now().UTC()
	ticket, err := s.store.Redeem(ctx, code, actor, now)

	result := &domain.ValidationResult{}
	switch {
	case err == nil:
		result.Outcome = domain.OutcomeAccepted
		result.Ticket = ticket

	case errors.Is(err, apperrors.ErrTicketNotFound):
		result.Outcome = domain.OutcomeRejected
		result.Reason = domain.ReasonNotFound

	case errors.Is(err, apperrors.ErrTicketAlreadyUsed):
		result.Outcome = domain.OutcomeRejected
		result.Reason = domain.ReasonAlreadyUsed
		result.Ticket = s.lookupRejected(ctx, code)

	case errors.Is(err, apperrors.ErrTicketInvalid):
		result.Outcome = domain.OutcomeRejected
		result.Reason = domain.ReasonInvalid
		result.Ticket = s.lookupRejected(ctx, code)

	default:
		// The store could not answer; no outcome exists and no event is
		// emitted for this attempt.
		s.logger.Error("ticket store unreachable", "code", code, "error", err)
		return nil, apperrors.NewStoreUnavailableError(err)
	}

	event := domain.NewValidationEvent(code, result.Outcome, result.Reason, actor, now)
	s.emit(event)

	return result, nil
}

// lookupRejected fetches the current ticket row so rejection responses
// carry the original usedBy/usedAt metadata. Best-effort: a miss here
// degrades the response, not the outcome.
func (s *ValidationService) lookupRejected(ctx context.Context, code string) *domain.Ticket {
	ticket, err := s.store.GetByCode(ctx, code)
	if err != nil {
		s.logger.Warn("could not load ticket for rejection metadata", "code", code, "error", err)
		return nil
	}
	return ticket
}

// emit broadcasts the event to the fleet and archives it. Both paths are
// best-effort: the redemption is already committed and is never rolled
// back on delivery failure.
func (s *ValidationService) emit(event *domain.ValidationEvent) {
	_ = s.broadcaster.Publish(domain.Event{
		Type:      domain.EventTicketValidated,
		Payload:   event,
		Timestamp: event.OccurredAt,
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// Fresh context: the scan request may already be done.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.audit.Append(ctx, event); err != nil {
			s.logger.Error("failed to archive validation event",
				"event_id", event.ID,
				"ticket_code", event.TicketCode,
				"error", err,
			)
		}
	}()
}

// Shutdown waits for pending archive writes.
func (s *ValidationService) Shutdown() {
	s.wg.Wait()
}
