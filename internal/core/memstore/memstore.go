// Package memstore provides an in-memory ticket store with the same
// compare-and-set semantics as the Postgres adapter. It backs unit tests
// and local development without a database.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lome-transit/ticketing-backend/internal/core/domain"
	apperrors "github.com/lome-transit/ticketing-backend/internal/core/errors"
	"github.com/lome-transit/ticketing-backend/internal/core/ports"
)

// Store keeps tickets in a map. All mutations run under one mutex, which
// makes the check-then-set in Redeem atomic with respect to concurrent
// validators, mirroring the row-level conditional UPDATE of the real
// store.
type Store struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
}

var _ ports.TicketStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{tickets: make(map[string]*domain.Ticket)}
}

// Create persists a ticket. Codes must be unique.
func (s *Store) Create(_ context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tickets[ticket.Code]; exists {
		return nil, apperrors.ErrBadRequest
	}

	copied := *ticket
	s.tickets[ticket.Code] = &copied
	out := copied
	return &out, nil
}

// GetByCode fetches a ticket snapshot.
func (s *Store) GetByCode(_ context.Context, code string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[code]
	if !ok {
		return nil, apperrors.ErrTicketNotFound
	}
	out := *ticket
	return &out, nil
}

// Redeem performs the atomic UNUSED -> USED transition.
func (s *Store) Redeem(_ context.Context, code string, actor uuid.UUID, at time.Time) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[code]
	if !ok {
		return nil, apperrors.ErrTicketNotFound
	}

	if err := ticket.Redeem(actor, at); err != nil {
		return nil, err
	}

	out := *ticket
	return &out, nil
}

// Seed inserts tickets directly in a given state, bypassing Create
// validation. Test helper.
func (s *Store) Seed(tickets ...*domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tickets {
		copied := *t
		s.tickets[t.Code] = &copied
	}
}
