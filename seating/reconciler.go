/*
reconciler.go - Seat assignment reconciliation from the approved event log

PURPOSE:
  Given the full ordered list of approved allocation events and the seat
  catalog, produce the complete assignment history: every past and current
  seat-to-project binding. Replay is deterministic and idempotent - the
  same log always yields byte-identical assignments.

ALGORITHM (per event, ascending Sequence):
  1. Resolve the project; unknown projects contribute nothing (diagnostic).
  2. requiredSeats = ceil(headcount * seatCountPercent / 100).
  3. Select candidates in catalog order from the project's metro city:
     a seat qualifies if no other project's assignment overlaps the event
     range. Take the first requiredSeats; a shortfall is a diagnostic,
     never fatal - a partially seated project is operationally meaningful.
  4. Truncate this project's assignments that are live at the event start
     but whose seat was NOT selected: End becomes (event.Start - 1 day).
     Selection happens BEFORE truncation, so a seat freed in this pass can
     only be picked up by a later-sequenced event, never within this one.
  5. For each selected seat: extend the live same-project assignment if one
     exists (End never shrinks), otherwise create a new binding. Employees
     bind positionally; a placeholder id fills in when the list runs out.

INVARIANT:
  At most one assignment per seat is live on any given date. The pass ends
  with a verification sweep; a violation means a reconciler defect and is
  returned as a DoubleBookingError rather than silently emitting an
  inconsistent derived view.

SEE ALSO:
  - types.go: Event/Assignment definitions
  - billing/engine.go: Consumes the same event log for pricing
*/
package seating

import (
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/gamalielACN/SMTDraft/generic"
)

// =============================================================================
// DIAGNOSTICS - Soft conditions surfaced alongside the result
// =============================================================================

type DiagnosticCode string

const (
	DiagProjectNotFound   DiagnosticCode = "project_not_found"
	DiagNoMetroFacilities DiagnosticCode = "no_metro_facilities"
	DiagSeatShortfall     DiagnosticCode = "seat_shortfall"
)

// Diagnostic records a non-fatal condition hit while replaying one event.
type Diagnostic struct {
	EventID   string
	ProjectID string
	Code      DiagnosticCode
	Message   string
}

// Result is the full reconciled view.
type Result struct {
	Assignments []Assignment
	Diagnostics []Diagnostic
}

// ActiveOn filters the assignment history down to bindings live on a date.
func (r *Result) ActiveOn(date generic.TimePoint) []Assignment {
	var out []Assignment
	for _, a := range r.Assignments {
		if a.ActiveOn(date) {
			out = append(out, a)
		}
	}
	return out
}

// ForProject returns the project's slice of the history, in creation order.
func (r *Result) ForProject(projectID string) []Assignment {
	var out []Assignment
	for _, a := range r.Assignments {
		if a.ProjectID == projectID {
			out = append(out, a)
		}
	}
	return out
}

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler replays approved allocation events into assignment history.
// It is a pure computation over the snapshots it is handed; it performs no
// I/O and mutates nothing it was given.
type Reconciler struct {
	Catalog  *Catalog
	Projects map[string]Project
	Log      logrus.FieldLogger
}

func NewReconciler(catalog *Catalog, projects map[string]Project, log logrus.FieldLogger) *Reconciler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Reconciler{Catalog: catalog, Projects: projects, Log: log}
}

// Reconcile replays the events in ascending Sequence order. Only approved
// events participate; the input slice is not modified. The returned error is
// non-nil only for invariant violations, which indicate a defect.
func (r *Reconciler) Reconcile(events []AllocationEvent) (*Result, error) {
	approved := make([]AllocationEvent, 0, len(events))
	for _, e := range events {
		if e.Status == StatusApproved {
			approved = append(approved, e)
		}
	}
	sort.SliceStable(approved, func(i, j int) bool {
		return approved[i].Sequence < approved[j].Sequence
	})

	res := &Result{}
	for _, event := range approved {
		r.apply(event, res)
	}

	if err := verifyNoDoubleBooking(res.Assignments); err != nil {
		return nil, err
	}
	return res, nil
}

// apply folds one approved event into the accumulated assignment set.
func (r *Reconciler) apply(event AllocationEvent, res *Result) {
	project, ok := r.Projects[event.ProjectID]
	if !ok {
		r.diagnose(res, event, DiagProjectNotFound, "project not found: "+event.ProjectID)
		return
	}

	pool := r.Catalog.SeatsInMetro(project.MetroCity)
	if len(pool) == 0 {
		r.diagnose(res, event, DiagNoMetroFacilities, "no facilities in metro city "+project.MetroCity)
		return
	}

	required := project.RequiredSeats(event.Headcount)
	selected := selectSeats(pool, res.Assignments, event, required)
	if len(selected) < required {
		r.diagnose(res, event, DiagSeatShortfall,
			"required "+strconv.Itoa(required)+" seats, assigned "+strconv.Itoa(len(selected)))
	}

	truncateSuperseded(res.Assignments, event, selected)

	for i, seat := range selected {
		if a := liveSameProject(res.Assignments, seat.ID, event.ProjectID, event.Start); a != nil {
			// Extend, never shrink.
			if event.End.After(a.End) {
				a.End = event.End
			}
			continue
		}
		employee := PlaceholderEmployee(event.ProjectID, i+1)
		if i < len(event.EmployeeEmails) && event.EmployeeEmails[i] != "" {
			employee = event.EmployeeEmails[i]
		}
		res.Assignments = append(res.Assignments, Assignment{
			ID:         strconv.Itoa(len(res.Assignments) + 1),
			SeatID:     seat.ID,
			FacilityID: seat.FacilityID,
			ProjectID:  event.ProjectID,
			EmployeeID: employee,
			Start:      event.Start,
			End:        event.End,
		})
	}
}

func (r *Reconciler) diagnose(res *Result, event AllocationEvent, code DiagnosticCode, msg string) {
	res.Diagnostics = append(res.Diagnostics, Diagnostic{
		EventID:   event.ID,
		ProjectID: event.ProjectID,
		Code:      code,
		Message:   msg,
	})
	r.Log.WithFields(logrus.Fields{
		"event":   event.ID,
		"project": event.ProjectID,
		"code":    code,
	}).Warn(msg)
}

// selectSeats walks the metro pool in catalog order and takes seats that are
// free for the event's range or already bound to this project, up to the
// required count.
func selectSeats(pool []Seat, assignments []Assignment, event AllocationEvent, required int) []Seat {
	var selected []Seat
	for _, seat := range pool {
		if len(selected) == required {
			break
		}
		if conflicts(assignments, seat.ID, event) {
			continue
		}
		selected = append(selected, seat)
	}
	return selected
}

// conflicts reports whether another project holds the seat for any part of
// the event's range. Same-project assignments never conflict.
func conflicts(assignments []Assignment, seatID string, event AllocationEvent) bool {
	for i := range assignments {
		a := &assignments[i]
		if a.SeatID != seatID || a.ProjectID == event.ProjectID {
			continue
		}
		if a.Period().Overlaps(event.Period()) {
			return true
		}
	}
	return false
}

// truncateSuperseded ends this project's live assignments whose seat is not
// in the newly selected set: End becomes the day before the event starts.
func truncateSuperseded(assignments []Assignment, event AllocationEvent, selected []Seat) {
	keep := make(map[string]bool, len(selected))
	for _, s := range selected {
		keep[s.ID] = true
	}
	dayBefore := event.Start.AddDays(-1)
	for i := range assignments {
		a := &assignments[i]
		if a.ProjectID != event.ProjectID || keep[a.SeatID] {
			continue
		}
		if a.End.AfterOrEqual(event.Start) {
			a.End = dayBefore
		}
	}
}

// liveSameProject finds the assignment for this seat+project still live at
// the event start, if any. Records truncated past their own start are empty
// and must not be stretched into a binding with the wrong start date.
func liveSameProject(assignments []Assignment, seatID, projectID string, at generic.TimePoint) *Assignment {
	for i := range assignments {
		a := &assignments[i]
		if a.SeatID != seatID || a.ProjectID != projectID || !a.Period().Valid() {
			continue
		}
		if a.End.AfterOrEqual(at) {
			return a
		}
	}
	return nil
}

// =============================================================================
// INVARIANT VERIFICATION
// =============================================================================

// verifyNoDoubleBooking checks that no seat carries two assignments with
// overlapping date ranges. Truncation in apply() is supposed to make this
// unreachable; a hit means the derived view is inconsistent and must not be
// served.
func verifyNoDoubleBooking(assignments []Assignment) error {
	bySeat := make(map[string][]*Assignment)
	for i := range assignments {
		a := &assignments[i]
		bySeat[a.SeatID] = append(bySeat[a.SeatID], a)
	}
	for seatID, as := range bySeat {
		for i := 0; i < len(as); i++ {
			for j := i + 1; j < len(as); j++ {
				if as[i].Period().Overlaps(as[j].Period()) {
					date := as[i].Start
					if as[j].Start.After(date) {
						date = as[j].Start
					}
					return &generic.DoubleBookingError{
						SeatID: seatID,
						Date:   date,
						First:  as[i].ID,
						Second: as[j].ID,
					}
				}
			}
		}
	}
	return nil
}
