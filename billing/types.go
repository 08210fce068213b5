/*
Package billing prices seat occupancy into invoices.

PURPOSE:
  An invoice for a window [start, end] is built by reconstructing the
  project's headcount over time from approved allocation events, cutting
  the window into contiguous constant-headcount segments, and pricing each
  segment by working days x charged seats x seat rate.

KEY CONCEPTS IN THIS FILE (types.go):
  - Segment: a maximal sub-range with constant headcount, priced on its own
  - Invoice: segments + payments + status lifecycle
  - Payment: WBS attribution of the invoice total

LIFECYCLE:
  Invoices are created once by the engine. Afterwards only status, comments
  and payment splits change - segment content is immutable.

SEE ALSO:
  - engine.go: The segmentation algorithm
  - seating/: Source of events and project billing parameters
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gamalielACN/SMTDraft/generic"
)

// =============================================================================
// INVOICE - Priced billing window
// =============================================================================

type InvoiceStatus string

const (
	StatusPendingApproval InvoiceStatus = "pending_approval"
	StatusPendingRevision InvoiceStatus = "pending_revision"
	StatusApproved        InvoiceStatus = "approved"
	StatusRejected        InvoiceStatus = "rejected"
)

// Segment is one constant-headcount slice of the billing window. Segments
// partition the billable sub-ranges of the window without gaps or overlaps,
// and their values sum to the invoice total.
type Segment struct {
	ID           string
	Start        generic.TimePoint
	End          generic.TimePoint
	Headcount    int
	ChargedSeats int
	WorkingDays  int
	Value        decimal.Decimal
}

func (s Segment) Period() generic.Period {
	return generic.Period{Start: s.Start, End: s.End}
}

// Payment attributes a share of the invoice total to a WBS code.
type Payment struct {
	ID      string
	WBSCode string
	Amount  decimal.Decimal
}

type Invoice struct {
	ID            string
	ProjectID     string
	BillingPeriod string // "YYYY-MM", derived from the window start
	Start         generic.TimePoint
	End           generic.TimePoint
	TotalCost     decimal.Decimal
	Status        InvoiceStatus

	// Billing parameters frozen at generation time
	SeatRate           decimal.Decimal
	ChargedSeatPercent decimal.Decimal

	Segments []Segment
	Payments []Payment

	// Manually adjusted total, when business ops overrides the computed
	// amount at approval. Zero means unset.
	AdjustedTotal decimal.Decimal

	GeneratedAt time.Time
	ConfirmedBy string
	ConfirmedAt time.Time
	Comments    string
}

// BilledTotal is the amount payment splits must cover: the adjusted total
// when set, otherwise the computed total.
func (inv Invoice) BilledTotal() decimal.Decimal {
	if !inv.AdjustedTotal.IsZero() {
		return inv.AdjustedTotal
	}
	return inv.TotalCost
}

// ValidatePayments checks that the splits exactly cover the billed total.
// Enforced at the approval step, not at generation.
func (inv Invoice) ValidatePayments(payments []Payment) error {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	if !sum.Equal(inv.BilledTotal()) {
		return generic.ErrPaymentMismatch
	}
	return nil
}
