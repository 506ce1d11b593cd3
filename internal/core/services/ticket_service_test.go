package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lome-transit/ticketing-backend/internal/core/domain"
	apperrors "github.com/lome-transit/ticketing-backend/internal/core/errors"
	"github.com/lome-transit/ticketing-backend/internal/core/memstore"
	"github.com/lome-transit/ticketing-backend/internal/core/ports"
	"github.com/lome-transit/ticketing-backend/internal/core/services"
)

func newTicketFixture() (*services.TicketService, *memstore.Store, *captureBroadcaster, *captureAudit) {
	store := memstore.New()
	bus := &captureBroadcaster{}
	audit := &captureAudit{}
	return services.NewTicketService(store, audit, bus), store, bus, audit
}

func TestTicketService_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("mints a batch of unused tickets and announces it", func(t *testing.T) {
		svc, store, bus, _ := newTicketFixture()
		tripID := uuid.New()

		tickets, err := svc.Issue(ctx, ports.IssueTicketsParams{TripID: tripID, Count: 5})

		require.NoError(t, err)
		require.Len(t, tickets, 5)

		seen := make(map[string]bool)
		for _, ticket := range tickets {
			assert.Equal(t, domain.StateUnused, ticket.State)
			assert.Equal(t, tripID, ticket.TripID)
			assert.False(t, seen[ticket.Code], "codes must be unique")
			seen[ticket.Code] = true

			stored, err := store.GetByCode(ctx, ticket.Code)
			require.NoError(t, err)
			assert.Equal(t, domain.StateUnused, stored.State)
		}

		events := bus.all()
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventTicketsIssued, events[0].Type)
	})

	t.Run("rejects missing trip and bad counts", func(t *testing.T) {
		svc, _, _, _ := newTicketFixture()

		_, err := svc.Issue(ctx, ports.IssueTicketsParams{TripID: uuid.Nil, Count: 1})
		assert.ErrorIs(t, err, apperrors.ErrTripRequired)

		_, err = svc.Issue(ctx, ports.IssueTicketsParams{TripID: uuid.New(), Count: 0})
		assert.Error(t, err)

		_, err = svc.Issue(ctx, ports.IssueTicketsParams{TripID: uuid.New(), Count: 10_000})
		assert.Error(t, err)
	})
}

func TestTicketService_Get(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTicketFixture()

	ticket := domain.NewTicket(uuid.New())
	store.Seed(ticket)

	got, err := svc.Get(ctx, ticket.Code)
	require.NoError(t, err)
	assert.Equal(t, ticket.Code, got.Code)

	_, err = svc.Get(ctx, "MISSING")
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)

	_, err = svc.Get(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrCodeRequired)
}

func TestTicketService_RecentValidations(t *testing.T) {
	ctx := context.Background()
	svc, store, _, audit := newTicketFixture()

	ticket := domain.NewTicket(uuid.New())
	store.Seed(ticket)

	event := domain.NewValidationEvent(ticket.Code, domain.OutcomeAccepted, "", uuid.New(), ticket.CreatedAt)
	require.NoError(t, audit.Append(ctx, event))

	// Out-of-range limits fall back to the default page size.
	events, err := svc.RecentValidations(ctx, -1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.ID, events[0].ID)
}
