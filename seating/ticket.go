package seating

import (
	"encoding/json"
	"time"
)

// =============================================================================
// TICKET - Approval workflow record
// =============================================================================
// Tickets are what requesters create and business ops approve. The payload
// is kept as raw JSON (forms differ per type); the factory package turns an
// approved payload into a Project or an AllocationEvent.

type TicketType string

const (
	TicketProjectSetup   TicketType = "project_setup"
	TicketSeatAllocation TicketType = "seat_allocation"
)

// Comment is a discussion entry on a ticket.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdDate"`
}

// Ticket is the stored workflow record. Status transitions exactly once,
// pending -> approved|rejected; the payload is immutable after approval.
type Ticket struct {
	ID            string
	Type          TicketType
	ProjectID     string
	CreatedBy     string
	Status        EventStatus
	FormData      json.RawMessage
	BusOpsFields  json.RawMessage
	BusOpsComment string
	Comments      []Comment
	CreatedAt     time.Time
	LastModified  time.Time

	// Sequence is assigned when a seat_allocation ticket is approved, under
	// the per-project write lock. Zero until then.
	Sequence int64
}

// Final reports whether the ticket has left the pending state.
func (t Ticket) Final() bool { return t.Status != StatusPending }
