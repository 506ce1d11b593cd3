package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of real-time event.
type EventType string

const (
	EventTicketValidated EventType = "TICKET_VALIDATED"
	EventTicketsIssued   EventType = "TICKETS_ISSUED"
)

// Event is the envelope delivered over the realtime stream. Seq is the
// per-subscriber delivery sequence number, stamped by the broadcaster at
// enqueue time; it is strictly increasing for a given connection even when
// intermediate events were dropped under overload.
type Event struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
	Seq       uint64      `json:"seq,omitempty"`
}

// ValidationOutcome is the result class of a validation attempt.
type ValidationOutcome string

const (
	OutcomeAccepted ValidationOutcome = "ACCEPTED"
	OutcomeRejected ValidationOutcome = "REJECTED"
)

// RejectReason narrows a REJECTED outcome.
type RejectReason string

const (
	ReasonNotFound    RejectReason = "NOT_FOUND"
	ReasonAlreadyUsed RejectReason = "ALREADY_USED"
	ReasonInvalid     RejectReason = "INVALID"
)

// ValidationEvent is the immutable record of one validation attempt. It is
// created once per attempt, broadcast to the fleet, then archived; it is
// never mutated.
type ValidationEvent struct {
	ID         uuid.UUID         `json:"id"`
	TicketCode string            `json:"ticketCode"`
	Outcome    ValidationOutcome `json:"outcome"`
	Reason     RejectReason      `json:"reason,omitempty"`
	ActorID    uuid.UUID         `json:"actorId"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// NewValidationEvent builds the record for a single attempt.
func NewValidationEvent(code string, outcome ValidationOutcome, reason RejectReason, actor uuid.UUID, at time.Time) *ValidationEvent {
	return &ValidationEvent{
		ID:         uuid.New(),
		TicketCode: code,
		Outcome:    outcome,
		Reason:     reason,
		ActorID:    actor,
		OccurredAt: at,
	}
}

// ValidationResult is what the scanner receives synchronously: the outcome
// plus the ticket metadata when the ticket exists.
type ValidationResult struct {
	Outcome ValidationOutcome `json:"outcome"`
	Reason  RejectReason      `json:"reason,omitempty"`
	Ticket  *Ticket           `json:"ticket,omitempty"`
}

// Accepted reports whether the attempt redeemed the ticket.
func (r *ValidationResult) Accepted() bool {
	return r.Outcome == OutcomeAccepted
}
