package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/lome-transit/ticketing-backend/internal/core/domain"
)

// ValidationService defines the core operation of the system: validating a
// scanned ticket code exactly once.
type ValidationService interface {
	// Validate redeems the ticket identified by code on behalf of actor.
	// Domain rejections (unknown code, already used, invalidated) are
	// reported through the result's Outcome, not the error; the error is
	// reserved for store unavailability.
	Validate(ctx context.Context, code string, actor uuid.UUID) (*domain.ValidationResult, error)

	// Shutdown waits for in-flight background archive writes to finish.
	Shutdown()
}

// AuthService defines the port for authentication business logic. Both
// operations accept a raw identifier (email or phone) plus an optional
// channel hint and work on its canonical form.
type AuthService interface {
	Register(ctx context.Context, params RegisterParams) (*domain.User, error)
	Login(ctx context.Context, identifier, password string, hint domain.IdentifierHint) (*domain.User, error)
}

// TicketService defines ticket issuance and lookup for the admin console
// and the dashboard audit view.
type TicketService interface {
	Issue(ctx context.Context, params IssueTicketsParams) ([]*domain.Ticket, error)
	Get(ctx context.Context, code string) (*domain.Ticket, error)
	RecentValidations(ctx context.Context, limit int) ([]*domain.ValidationEvent, error)
}

// EventBroadcaster is the port the validation engine publishes through.
// Publish must never block on a slow consumer; delivery problems are
// handled locally per subscriber and never surface to the publisher.
type EventBroadcaster interface {
	Publish(event domain.Event) error
}

// RegisterParams defines the input for creating an account.
type RegisterParams struct {
	FullName   string
	Identifier string
	Hint       domain.IdentifierHint
	Password   string
	Role       domain.Role
}

// IssueTicketsParams defines the input for minting tickets for a trip.
type IssueTicketsParams struct {
	TripID uuid.UUID
	Count  int
}
