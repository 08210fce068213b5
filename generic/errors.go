/*
errors.go - Centralized error types for the core engines

PURPOSE:
  All error types in one place for consistency and discoverability.
  The taxonomy matters for HTTP mapping:

  1. Validation errors  - bad input, rejected before computation (400)
  2. Insufficiency      - no billable allocations in a window (400)
  3. Not found          - missing project/ticket/invoice (404)
  4. Invariant breaks   - double-booked seat; a defect, never user-visible (500)

USAGE:
  Handlers classify with the helpers:

    if generic.IsClientError(err) { ... 400 ... }
    if generic.IsNotFound(err)    { ... 404 ... }

SEE ALSO:
  - seating/reconciler.go: returns DoubleBookingError on invariant breaks
  - billing/engine.go: returns ErrNoBillableAllocations
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when a date range is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrWindowTooLarge is returned when a billing window exceeds the day cap.
	ErrWindowTooLarge = errors.New("billing window exceeds maximum length")

	// ErrNoBillableAllocations is returned when no approved allocation overlaps
	// the requested billing window. Client-correctable, not a system fault.
	ErrNoBillableAllocations = errors.New("no billable allocations in period")

	// ErrProjectNotFound is returned when a referenced project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrTicketNotFound is returned when a referenced ticket doesn't exist.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrInvoiceNotFound is returned when a referenced invoice doesn't exist.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrTicketFinalized is returned when approving or rejecting a ticket that
	// already left the pending state. Status transitions happen exactly once.
	ErrTicketFinalized = errors.New("ticket already approved or rejected")

	// ErrDoubleBooking indicates two active assignments on one seat for
	// overlapping dates. This is a defect in reconciliation, never user input.
	ErrDoubleBooking = errors.New("seat double-booked")

	// ErrPaymentMismatch is returned when WBS payment splits don't sum to the
	// invoice total.
	ErrPaymentMismatch = errors.New("payment splits do not sum to invoice total")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError is a user-visible input rejection with a display message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DoubleBookingError reports the exact seat/date conflict that broke the
// single-active-assignment invariant.
type DoubleBookingError struct {
	SeatID string
	Date   TimePoint
	First  string // assignment id
	Second string // assignment id
}

func (e *DoubleBookingError) Error() string {
	return fmt.Sprintf("seat %s double-booked on %s (assignments %s and %s)",
		e.SeatID, e.Date, e.First, e.Second)
}

func (e *DoubleBookingError) Unwrap() error { return ErrDoubleBooking }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrWindowTooLarge) ||
		errors.Is(err, ErrNoBillableAllocations) ||
		errors.Is(err, ErrTicketFinalized) ||
		errors.Is(err, ErrPaymentMismatch)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrTicketNotFound) ||
		errors.Is(err, ErrInvoiceNotFound)
}
