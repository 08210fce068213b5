/*
Package seating implements the seat-assignment side of the system.

PURPOSE:
  Business operations approve seat-allocation tickets; this package derives
  from that approved event log which physical seat is held by which
  project/employee over time. The derivation (reconciliation) is a pure
  function of the log: same events in, same assignments out.

KEY CONCEPTS IN THIS FILE (types.go):
  - AllocationEvent: an approved request binding a project to a headcount
    and employee list for a date range
  - Seat/Facility: the static catalog, metro-city scoped
  - Project: billing parameters set at project setup by business ops
  - Assignment: the derived seat-to-project binding (never stored as truth,
    always recomputed from events)

ORDERING:
  AllocationEvent.Sequence is the ONLY ordering key. It is a monotonic
  integer assigned when the ticket is approved, under the same lock that
  serializes writes for the project. Wall-clock timestamps are not trusted.

SEE ALSO:
  - reconciler.go: The replay algorithm
  - billing/: Prices headcount-over-time derived from the same events
*/
package seating

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gamalielACN/SMTDraft/generic"
)

// =============================================================================
// ALLOCATION EVENT - The unit of the approved event log
// =============================================================================

type EventStatus string

const (
	StatusPending  EventStatus = "pending"
	StatusApproved EventStatus = "approved"
	StatusRejected EventStatus = "rejected"
)

// AllocationEvent is a seat-allocation request. Only approved events
// participate in reconciliation and billing. Approved events are never
// edited, only superseded by a later-sequenced event for the same project.
type AllocationEvent struct {
	ID             string
	ProjectID      string
	Sequence       int64
	Start          generic.TimePoint
	End            generic.TimePoint
	Headcount      int
	SeatCount      int
	EmployeeEmails []string
	Status         EventStatus
}

// Period returns the event's inclusive date range.
func (e AllocationEvent) Period() generic.Period {
	return generic.Period{Start: e.Start, End: e.End}
}

// Covers returns true if the event's range includes the date.
func (e AllocationEvent) Covers(date generic.TimePoint) bool {
	return e.Period().Contains(date)
}

// =============================================================================
// CATALOG - Seats and facilities (read-only for the core)
// =============================================================================

// Seat is a physical seat. Belongs to exactly one facility.
type Seat struct {
	ID         string
	FacilityID string
	Code       string
}

// Facility carries the metro city that gates seat eligibility: seats may
// only be assigned to projects whose metro city matches.
type Facility struct {
	ID        string
	Name      string
	MetroCity string
}

// =============================================================================
// PROJECT - Billing parameters, business-ops controlled
// =============================================================================

// WBSEntry is a cost-accounting code for invoice payment attribution.
type WBSEntry struct {
	ID        string
	Code      string
	IsActive  bool
	IsDefault bool
}

type Project struct {
	ID          string
	ClientName  string
	ProjectName string
	ProjectCode string
	MetroCity   string
	Start       generic.TimePoint
	End         generic.TimePoint
	Status      string

	// Billing parameters, fixed at setup
	SeatCountPercent   decimal.Decimal
	ChargedSeatPercent decimal.Decimal
	SeatRate           decimal.Decimal

	WBSEntries []WBSEntry
}

// DefaultWBS returns the entry flagged default, or nil if none is set.
func (p Project) DefaultWBS() *WBSEntry {
	for i := range p.WBSEntries {
		if p.WBSEntries[i].IsDefault {
			return &p.WBSEntries[i]
		}
	}
	return nil
}

// RequiredSeats converts a headcount into physical seats using the project's
// seat-count percentage, rounding up.
func (p Project) RequiredSeats(headcount int) int {
	return generic.CeilPercent(headcount, p.SeatCountPercent)
}

// ChargedSeats converts a headcount into billable seats using the project's
// charged-seat percentage, rounding up.
func (p Project) ChargedSeats(headcount int) int {
	return generic.CeilPercent(headcount, p.ChargedSeatPercent)
}

// =============================================================================
// ASSIGNMENT - Derived seat-to-project binding
// =============================================================================

// Assignment says "this seat was held for this project/employee during this
// interval". It is derived state: reconciliation recreates the full set from
// the event log, and the active flag is always computed against a date,
// never stored.
type Assignment struct {
	ID         string
	SeatID     string
	FacilityID string
	ProjectID  string
	EmployeeID string
	Start      generic.TimePoint
	End        generic.TimePoint
}

func (a Assignment) Period() generic.Period {
	return generic.Period{Start: a.Start, End: a.End}
}

// ActiveOn reports whether the assignment is still live as of the date.
func (a Assignment) ActiveOn(date generic.TimePoint) bool {
	return a.End.AfterOrEqual(date)
}

// PlaceholderEmployee is the synthetic identifier bound to a seat when the
// event's employee list is shorter than the selected seat count. n is
// 1-based seat position.
func PlaceholderEmployee(projectID string, n int) string {
	return fmt.Sprintf("project_%s_seat_%d", projectID, n)
}
