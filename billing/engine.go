/*
engine.go - Invoice segmentation

PURPOSE:
  Partition a billing window into contiguous segments of constant headcount
  and price them. The engine walks event boundaries rather than individual
  days, but the result is identical to a day-by-day walk:

    - at any date, the ACTIVE event is the covering event with the latest
      start (later-requested allocation supersedes an overlapping earlier one)
    - a segment runs until the active event ends, the window ends, or a
      later-starting event takes over - whichever comes first
    - days covered by no event are non-billable and silently skipped

PRICING:
  chargedSeats = ceil(headcount * chargedSeatPercent / 100)
  value        = workingDays * chargedSeats * seatRate

  Working days exclude weekends and active holidays. A segment with zero
  working days is still emitted with value 0 so the segment ranges stay
  contiguous for audit.

FAILURE SEMANTICS:
  No event intersecting the window is a client-correctable error
  (ErrNoBillableAllocations), not a system fault. Malformed or oversized
  windows are rejected before any computation.

SEE ALSO:
  - types.go: Invoice/Segment definitions
  - generic/period.go: Working-day counting
*/
package billing

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gamalielACN/SMTDraft/generic"
	"github.com/gamalielACN/SMTDraft/seating"
)

// MaxWindowDays bounds the billing window so pathological date ranges cannot
// cause unbounded walks. A year plus leap day is the largest sane window.
const MaxWindowDays = 366

// Engine generates invoices. It is a pure computation over the snapshots it
// is handed; persistence and id assignment belong to the caller.
type Engine struct {
	Calendar generic.HolidayCalendar
	Now      func() time.Time
}

func NewEngine(calendar generic.HolidayCalendar) *Engine {
	if calendar == nil {
		calendar = generic.NoHolidays{}
	}
	return &Engine{Calendar: calendar, Now: time.Now}
}

// Generate builds the invoice for a project over [windowStart, windowEnd]
// from that project's allocation events. Only approved events participate.
func (e *Engine) Generate(project seating.Project, window generic.Period, events []seating.AllocationEvent) (*Invoice, error) {
	if !window.Valid() {
		return nil, generic.ErrInvalidPeriod
	}
	if window.Days() > MaxWindowDays {
		return nil, generic.ErrWindowTooLarge
	}

	overlapping := make([]seating.AllocationEvent, 0, len(events))
	for _, ev := range events {
		if ev.Status != seating.StatusApproved || ev.ProjectID != project.ID {
			continue
		}
		if ev.Period().Overlaps(window) {
			overlapping = append(overlapping, ev)
		}
	}
	if len(overlapping) == 0 {
		return nil, generic.ErrNoBillableAllocations
	}
	sort.SliceStable(overlapping, func(i, j int) bool {
		if overlapping[i].Start.Equal(overlapping[j].Start) {
			return overlapping[i].Sequence < overlapping[j].Sequence
		}
		return overlapping[i].Start.Before(overlapping[j].Start)
	})

	inv := &Invoice{
		ProjectID:          project.ID,
		BillingPeriod:      window.BillingLabel(),
		Start:              window.Start,
		End:                window.End,
		Status:             StatusPendingApproval,
		SeatRate:           project.SeatRate,
		ChargedSeatPercent: project.ChargedSeatPercent,
		TotalCost:          decimal.Zero,
		GeneratedAt:        e.Now(),
	}

	cur := window.Start
	for cur.BeforeOrEqual(window.End) {
		active := activeAt(overlapping, cur)
		if active == nil {
			// Gap: no covering event. Jump to the next event start.
			next, ok := nextStartAfter(overlapping, cur)
			if !ok {
				break
			}
			cur = next
			continue
		}

		segEnd := active.End
		if window.End.Before(segEnd) {
			segEnd = window.End
		}
		if next, ok := nextStartAfter(overlapping, cur); ok {
			if boundary := next.AddDays(-1); boundary.Before(segEnd) {
				segEnd = boundary
			}
		}

		seg := e.price(project, *active, generic.Period{Start: cur, End: segEnd})
		seg.ID = strconv.Itoa(len(inv.Segments) + 1)
		inv.Segments = append(inv.Segments, seg)
		inv.TotalCost = inv.TotalCost.Add(seg.Value)

		cur = segEnd.AddDays(1)
	}

	if len(inv.Segments) == 0 {
		// Events overlapped the window on paper but every covered day fell
		// outside it; treat the same as no allocations.
		return nil, generic.ErrNoBillableAllocations
	}

	inv.Payments = defaultPayments(project, inv.TotalCost)
	return inv, nil
}

// price builds one segment for the covered range under the active event.
func (e *Engine) price(project seating.Project, active seating.AllocationEvent, p generic.Period) Segment {
	workingDays := generic.WorkingDays(p, e.Calendar)
	charged := project.ChargedSeats(active.Headcount)
	value := project.SeatRate.
		Mul(decimal.NewFromInt(int64(charged))).
		Mul(decimal.NewFromInt(int64(workingDays)))
	return Segment{
		Start:        p.Start,
		End:          p.End,
		Headcount:    active.Headcount,
		ChargedSeats: charged,
		WorkingDays:  workingDays,
		Value:        value,
	}
}

// activeAt picks the covering event with the latest start; among equal
// starts the later-sequenced request wins.
func activeAt(events []seating.AllocationEvent, date generic.TimePoint) *seating.AllocationEvent {
	var best *seating.AllocationEvent
	for i := range events {
		ev := &events[i]
		if !ev.Covers(date) {
			continue
		}
		if best == nil || ev.Start.After(best.Start) ||
			(ev.Start.Equal(best.Start) && ev.Sequence > best.Sequence) {
			best = ev
		}
	}
	return best
}

// nextStartAfter finds the earliest event start strictly after the date.
func nextStartAfter(events []seating.AllocationEvent, date generic.TimePoint) (generic.TimePoint, bool) {
	var next generic.TimePoint
	found := false
	for i := range events {
		s := events[i].Start
		if !s.After(date) {
			continue
		}
		if !found || s.Before(next) {
			next = s
			found = true
		}
	}
	return next, found
}

// defaultPayments puts the full total on the project's default WBS entry.
// Callers may re-split later; ValidatePayments gates that at approval.
func defaultPayments(project seating.Project, total decimal.Decimal) []Payment {
	entry := project.DefaultWBS()
	if entry == nil {
		for i := range project.WBSEntries {
			if project.WBSEntries[i].IsActive {
				entry = &project.WBSEntries[i]
				break
			}
		}
	}
	if entry == nil {
		return nil
	}
	return []Payment{{ID: "1", WBSCode: entry.Code, Amount: total}}
}
