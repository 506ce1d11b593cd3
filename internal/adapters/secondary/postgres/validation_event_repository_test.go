package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lome-transit/ticketing-backend/internal/core/domain"
)

func TestValidationEventRepository_AppendAndListRecent(t *testing.T) {
	repo := NewValidationEventRepository(testPool)
	ctx := context.Background()
	actor := uuid.New()
	base := time.Now().UTC().Truncate(time.Microsecond)

	accepted := domain.NewValidationEvent("CODE-A", domain.OutcomeAccepted, "", actor, base)
	rejected := domain.NewValidationEvent("CODE-B", domain.OutcomeRejected, domain.ReasonAlreadyUsed, actor, base.Add(time.Second))

	require.NoError(t, repo.Append(ctx, accepted))
	require.NoError(t, repo.Append(ctx, rejected))

	events, err := repo.ListRecent(ctx, 50)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(events), 2)

	// Newest first.
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i-1].OccurredAt.Before(events[i].OccurredAt))
	}

	byID := make(map[uuid.UUID]*domain.ValidationEvent, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}

	gotAccepted, ok := byID[accepted.ID]
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeAccepted, gotAccepted.Outcome)
	assert.Empty(t, gotAccepted.Reason)

	gotRejected, ok := byID[rejected.ID]
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeRejected, gotRejected.Outcome)
	assert.Equal(t, domain.ReasonAlreadyUsed, gotRejected.Reason)
}

func TestValidationEventRepository_LimitIsRespected(t *testing.T) {
	repo := NewValidationEventRepository(testPool)
	ctx := context.Background()
	actor := uuid.New()

	for i := 0; i < 5; i++ {
		event := domain.NewValidationEvent("CODE-L", domain.OutcomeRejected, domain.ReasonNotFound, actor, time.Now().UTC())
		require.NoError(t, repo.Append(ctx, event))
	}

	events, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}
