package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lome-transit/ticketing-backend/internal/core/domain"
)

// TicketStore is the port to the external ticket store. Redeem is the
// single atomic read-modify-write of the system: implementations must
// guarantee that of N concurrent Redeem calls for one code exactly one
// succeeds, while calls for distinct codes proceed in parallel.
type TicketStore interface {
	// Create persists a freshly minted ticket.
	Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)

	// GetByCode fetches a ticket, returning ErrTicketNotFound for unknown
	// codes.
	GetByCode(ctx context.Context, code string) (*domain.Ticket, error)

	// Redeem atomically transitions an UNUSED ticket to USED via a
	// compare-and-set on the state column, recording the actor and
	// timestamp. It returns the redeemed ticket on success, or
	// ErrTicketNotFound / ErrTicketAlreadyUsed / ErrTicketInvalid when the
	// compare-and-set cannot apply, or ErrStoreUnavailable when the store
	// cannot be reached.
	Redeem(ctx context.Context, code string, actor uuid.UUID, at time.Time) (*domain.Ticket, error)
}

// UserRepository is the port for account persistence, keyed by the
// canonical identifier.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByIdentifier(ctx context.Context, canonical string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// ValidationEventRepository archives validation events for the dashboard
// audit log. Append is best-effort from the engine's point of view: a
// failed archive never rolls back a committed redemption.
type ValidationEventRepository interface {
	Append(ctx context.Context, event *domain.ValidationEvent) error
	ListRecent(ctx context.Context, limit int) ([]*domain.ValidationEvent, error)
}
