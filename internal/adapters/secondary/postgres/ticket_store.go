package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lome-transit/ticketing-backend/internal/core/domain"
	apperrors "github.com/lome-transit/ticketing-backend/internal/core/errors"
	"github.com/lome-transit/ticketing-backend/internal/core/ports"
)

// TicketStore persists tickets in PostgreSQL. The redemption path relies
// on a conditional UPDATE so that the state check and the write are one
// atomic statement; no row lock is held across round-trips.
type TicketStore struct {
	pool *pgxpool.Pool
}

var _ ports.TicketStore = (*TicketStore)(nil)

func NewTicketStore(pool *pgxpool.Pool) *TicketStore {
	return &TicketStore{pool: pool}
}

const ticketColumns = "code, trip_id, state, used_by, used_at, created_at"

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(&t.Code, &t.TripID, &t.State, &t.UsedBy, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TicketStore) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO tickets (code, trip_id, state, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+ticketColumns,
		ticket.Code, ticket.TripID, ticket.State, ticket.CreatedAt,
	)

	created, err := scanTicket(row)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	return created, nil
}

func (s *TicketStore) GetByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE code = $1`,
		code,
	)

	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	return ticket, nil
}

// Redeem performs the compare-and-set: the UPDATE only matches when the
// ticket is still UNUSED, so under N concurrent attempts for one code the
// database serializes them and exactly one sees an affected row. Losers
// get a follow-up read to classify the rejection.
func (s *TicketStore) Redeem(ctx context.Context, code string, actor uuid.UUID, at time.Time) (*domain.Ticket, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE tickets
		SET state = $2, used_by = $3, used_at = $4
		WHERE code = $1 AND state = $5
		RETURNING `+ticketColumns,
		code, domain.StateUsed, actor, at, domain.StateUnused,
	)

	ticket, err := scanTicket(row)
	if err == nil {
		return ticket, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewStoreUnavailableError(err)
	}

	// CAS did not apply: either the code is unknown or the ticket is no
	// longer UNUSED. Re-read to tell the two apart.
	current, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	switch current.State {
	case domain.StateUsed:
		return current, apperrors.ErrTicketAlreadyUsed
	case domain.StateInvalid:
		return current, apperrors.ErrTicketInvalid
	default:
		// The ticket flipped back to UNUSED between the two statements,
		// which only a manual intervention could cause. Treat as a lost
		// race and report it as already used.
		return current, apperrors.ErrTicketAlreadyUsed
	}
}
