package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/lome-transit/ticketing-backend/internal/core/errors"
)

// TicketState represents the lifecycle state of a ticket.
type TicketState string

const (
	StateUnused  TicketState = "UNUSED"
	StateUsed    TicketState = "USED"
	StateInvalid TicketState = "INVALID"
)

// Ticket is the core domain entity. Tickets are created by the issuing
// side and from then on the only transition this service performs is
// UNUSED -> USED, exactly once per code.
type Ticket struct {
	Code      string
	TripID    uuid.UUID
	State     TicketState
	UsedBy    *uuid.UUID
	UsedAt    *time.Time
	CreatedAt time.Time
}

// NewTicket mints a fresh unused ticket for a trip. Codes are derived from
// random UUIDs, upper-cased and stripped of dashes so they survive manual
// entry on scanner keypads.
func NewTicket(tripID uuid.UUID) *Ticket {
	code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return &Ticket{
		Code:      code,
		TripID:    tripID,
		State:     StateUnused,
		CreatedAt: time.Now().UTC(),
	}
}

// Redeem transitions the ticket to USED, recording who scanned it and
// when. The caller is responsible for making the surrounding read-check-
// write atomic; this method only enforces the state rules.
func (t *Ticket) Redeem(actor uuid.UUID, at time.Time) error {
	switch t.State {
	case StateUsed:
		return apperrors.ErrTicketAlreadyUsed
	case StateInvalid:
		return apperrors.ErrTicketInvalid
	}

	t.State = StateUsed
	t.UsedBy = &actor
	t.UsedAt = &at
	return nil
}

// IsRedeemable reports whether a validation attempt could succeed.
func (t *Ticket) IsRedeemable() bool {
	return t.State == StateUnused
}
