package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lome-transit/ticketing-backend/internal/core/domain"
	apperrors "github.com/lome-transit/ticketing-backend/internal/core/errors"
)

// createScanner inserts a scanner account tickets can reference via used_by.
func createScanner(t *testing.T) uuid.UUID {
	t.Helper()

	user, err := domain.NewUser(domain.UserRegistrationParams{
		FullName:   "Test Scanner",
		Identifier: uuid.NewString() + "@example.com",
		Password:   "Password123",
		Role:       domain.RoleScanner,
	}, domain.DefaultDialingPlan())
	require.NoError(t, err)

	created, err := NewUserRepository(testPool).Create(context.Background(), user)
	require.NoError(t, err)
	return created.ID
}

func createTicket(t *testing.T, store *TicketStore) *domain.Ticket {
	t.Helper()

	created, err := store.Create(context.Background(), domain.NewTicket(uuid.New()))
	require.NoError(t, err)
	return created
}

func TestTicketStore_CreateAndGet(t *testing.T) {
	store := NewTicketStore(testPool)
	ticket := createTicket(t, store)

	got, err := store.GetByCode(context.Background(), ticket.Code)
	require.NoError(t, err)
	assert.Equal(t, ticket.Code, got.Code)
	assert.Equal(t, ticket.TripID, got.TripID)
	assert.Equal(t, domain.StateUnused, got.State)
	assert.Nil(t, got.UsedBy)
	assert.Nil(t, got.UsedAt)
}

func TestTicketStore_GetUnknownCode(t *testing.T) {
	store := NewTicketStore(testPool)

	_, err := store.GetByCode(context.Background(), "DOES-NOT-EXIST")
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}

func TestTicketStore_RedeemOnce(t *testing.T) {
	store := NewTicketStore(testPool)
	ticket := createTicket(t, store)
	actor := createScanner(t)
	at := time.Now().UTC().Truncate(time.Microsecond)

	redeemed, err := store.Redeem(context.Background(), ticket.Code, actor, at)
	require.NoError(t, err)
	assert.Equal(t, domain.StateUsed, redeemed.State)
	require.NotNil(t, redeemed.UsedBy)
	assert.Equal(t, actor, *redeemed.UsedBy)
	require.NotNil(t, redeemed.UsedAt)
	assert.WithinDuration(t, at, *redeemed.UsedAt, time.Millisecond)
}

func TestTicketStore_RedeemTwiceKeepsFirstRedemption(t *testing.T) {
	store := NewTicketStore(testPool)
	ticket := createTicket(t, store)
	first := createScanner(t)
	second := createScanner(t)

	_, err := store.Redeem(context.Background(), ticket.Code, first, time.Now().UTC())
	require.NoError(t, err)

	current, err := store.Redeem(context.Background(), ticket.Code, second, time.Now().UTC())
	assert.ErrorIs(t, err, apperrors.ErrTicketAlreadyUsed)
	require.NotNil(t, current)
	require.NotNil(t, current.UsedBy)
	assert.Equal(t, first, *current.UsedBy, "original redemption must survive the repeat attempt")
}

func TestTicketStore_RedeemUnknownCode(t *testing.T) {
	store := NewTicketStore(testPool)

	_, err := store.Redeem(context.Background(), "NO-SUCH-CODE", createScanner(t), time.Now().UTC())
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}

func TestTicketStore_RedeemInvalidatedTicket(t *testing.T) {
	store := NewTicketStore(testPool)
	ticket := createTicket(t, store)

	_, err := testPool.Exec(context.Background(),
		`UPDATE tickets SET state = $2 WHERE code = $1`,
		ticket.Code, domain.StateInvalid,
	)
	require.NoError(t, err)

	_, err = store.Redeem(context.Background(), ticket.Code, createScanner(t), time.Now().UTC())
	assert.ErrorIs(t, err, apperrors.ErrTicketInvalid)
}

// The core guarantee: N concurrent redemptions of one code, exactly one
// winner, decided by the database, not by application locks.
func TestTicketStore_ConcurrentRedeemExactlyOnce(t *testing.T) {
	store := NewTicketStore(testPool)
	ticket := createTicket(t, store)

	const attempts = 16
	actors := make([]uuid.UUID, attempts)
	for i := range actors {
		actors[i] = createScanner(t)
	}

	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Redeem(context.Background(), ticket.Code, actors[i], time.Now().UTC())
		}(i)
	}
	wg.Wait()

	var accepted, alreadyUsed int
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, apperrors.ErrTicketAlreadyUsed):
			alreadyUsed++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, accepted, "exactly one attempt must win")
	assert.Equal(t, attempts-1, alreadyUsed)

	final, err := store.GetByCode(context.Background(), ticket.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.StateUsed, final.State)
}
