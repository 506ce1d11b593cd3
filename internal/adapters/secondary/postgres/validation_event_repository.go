package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lome-transit/ticketing-backend/internal/core/domain"
	"github.com/lome-transit/ticketing-backend/internal/core/ports"
)

// ValidationEventRepository archives validation attempts. Events are
// append-only; nothing in the system ever updates or deletes a row.
type ValidationEventRepository struct {
	pool *pgxpool.Pool
}

var _ ports.ValidationEventRepository = (*ValidationEventRepository)(nil)

func NewValidationEventRepository(pool *pgxpool.Pool) *ValidationEventRepository {
	return &ValidationEventRepository{pool: pool}
}

func (r *ValidationEventRepository) Append(ctx context.Context, event *domain.ValidationEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO validation_events (id, ticket_code, outcome, reason, actor_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.TicketCode, event.Outcome, nullableReason(event.Reason), event.ActorID, event.OccurredAt,
	)
	return err
}

func (r *ValidationEventRepository) ListRecent(ctx context.Context, limit int) ([]*domain.ValidationEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, ticket_code, outcome, COALESCE(reason, ''), actor_id, occurred_at
		FROM validation_events
		ORDER BY occurred_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.ValidationEvent
	for rows.Next() {
		var e domain.ValidationEvent
		if err := rows.Scan(&e.ID, &e.TicketCode, &e.Outcome, &e.Reason, &e.ActorID, &e.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// nullableReason maps the empty reason (accepted attempts) to SQL NULL.
func nullableReason(reason domain.RejectReason) *string {
	if reason == "" {
		return nil
	}
	s := string(reason)
	return &s
}
