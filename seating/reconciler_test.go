package seating_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamalielACN/SMTDraft/generic"
	"github.com/gamalielACN/SMTDraft/seating"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func date(s string) generic.TimePoint { return generic.MustParseDate(s) }

// testCatalog builds n seats in Jakarta (facility f1) and m in Surabaya (f2),
// Jakarta first in catalog order.
func testCatalog(jakarta, surabaya int) *seating.Catalog {
	facilities := []seating.Facility{
		{ID: "f1", Name: "Jakarta Tower", MetroCity: "Jakarta"},
		{ID: "f2", Name: "Surabaya Office", MetroCity: "Surabaya"},
	}
	var seats []seating.Seat
	id := 0
	for i := 0; i < jakarta; i++ {
		id++
		seats = append(seats, seating.Seat{ID: seatID(id), FacilityID: "f1", Code: seatID(id)})
	}
	for i := 0; i < surabaya; i++ {
		id++
		seats = append(seats, seating.Seat{ID: seatID(id), FacilityID: "f2", Code: seatID(id)})
	}
	return seating.NewCatalog(seats, facilities)
}

func seatID(n int) string { return fmt.Sprintf("s%02d", n) }

func testProject(id, metro string) seating.Project {
	return seating.Project{
		ID:                 id,
		ProjectName:        "Project " + id,
		MetroCity:          metro,
		Status:             "active",
		SeatCountPercent:   decimal.NewFromInt(70),
		ChargedSeatPercent: decimal.NewFromInt(75),
		SeatRate:           decimal.NewFromInt(150000),
	}
}

func event(id, projectID string, seq int64, start, end string, headcount int, emails ...string) seating.AllocationEvent {
	return seating.AllocationEvent{
		ID:             id,
		ProjectID:      projectID,
		Sequence:       seq,
		Start:          date(start),
		End:            date(end),
		Headcount:      headcount,
		EmployeeEmails: emails,
		Status:         seating.StatusApproved,
	}
}

func reconcile(t *testing.T, catalog *seating.Catalog, projects map[string]seating.Project, events []seating.AllocationEvent) *seating.Result {
	t.Helper()
	res, err := seating.NewReconciler(catalog, projects, nil).Reconcile(events)
	require.NoError(t, err)
	return res
}

func bySeat(res *seating.Result) map[string]seating.Assignment {
	m := make(map[string]seating.Assignment)
	for _, a := range res.Assignments {
		m[a.SeatID] = a
	}
	return m
}

// =============================================================================
// BASIC ALLOCATION
// =============================================================================

func TestReconcile_SeatCountFromHeadcount(t *testing.T) {
	// GIVEN: A Jakarta project with 70% seat count and headcount 10
	// WHEN: One allocation event is replayed
	// THEN: ceil(10 * 0.70) = 7 seats are assigned, in catalog order

	catalog := testCatalog(10, 0)
	projects := map[string]seating.Project{"p1": testProject("p1", "Jakarta")}
	res := reconcile(t, catalog, projects, []seating.AllocationEvent{
		event("e1", "p1", 1, "2025-01-01", "2025-06-30", 10),
	})

	require.Len(t, res.Assignments, 7)
	assert.Empty(t, res.Diagnostics)
	for i, a := range res.Assignments {
		assert.Equal(t, seatID(i+1), a.SeatID, "seats assigned in catalog order")
		assert.Equal(t, date("2025-01-01"), a.Start)
		assert.Equal(t, date("2025-06-30"), a.End)
	}
}

func TestReconcile_EmployeeBindingPositionalWithPlaceholders(t *testing.T) {
	// GIVEN: 7 seats needed but only 3 employee emails listed
	// WHEN: The event is replayed
	// THEN: Seats 1-3 carry the emails in order, 4-7 carry placeholders

	catalog := testCatalog(10, 0)
	projects := map[string]seating.Project{"p1": testProject("p1", "Jakarta")}
	res := reconcile(t, catalog, projects, []seating.AllocationEvent{
		event("e1", "p1", 1, "2025-01-01", "2025-06-30", 10, "a@x.com", "b@x.com", "c@x.com"),
	})

	require.Len(t, res.Assignments, 7)
	assert.Equal(t, "a@x.com", res.Assignments[0].EmployeeID)
	assert.Equal(t, "b@x.com", res.Assignments[1].EmployeeID)
	assert.Equal(t, "c@x.com", res.Assignments[2].EmployeeID)
	for i := 3; i < 7; i++ {
		assert.Equal(t, seating.PlaceholderEmployee("p1", i+1), res.Assignments[i].EmployeeID)
	}
}

func TestReconcile_MetroCityGatesEligibility(t *testing.T) {
	// GIVEN: A Surabaya project and a catalog that is mostly Jakarta
	// WHEN: The event is replayed
	// THEN: Only Surabaya seats are used

	catalog := testCatalog(10, 3)
	projects := map[string]seating.Project{"p1": testProject("p1", "Surabaya")}
	res := reconcile(t, catalog, projects, []seating.AllocationEvent{
		event("e1", "p1", 1, "2025-01-01", "2025-06-30", 4), // needs ceil(2.8) = 3
	})

	require.Len(t, res.Assignments, 3)
	for _, a := range res.Assignments {
		assert.Equal(t, "f2", a.FacilityID)
	}
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

func TestReconcile_SeatShortfallIsDiagnosedNotFatal(t *testing.T) {
	// GIVEN: Only 2 seats in the metro but 7 are required
	// WHEN: The event is replayed
	// THEN: Both seats are assigned and a shortfall diagnostic is emitted

	catalog := testCatalog(2, 0)
	projects := map[string]seating.Project{"p1": testProject("p1", "Jakarta")}
	res := reconcile(t, catalog, projects, []seating.AllocationEvent{
		event("e1", "p1", 1, "2025-01-01", "2025-06-30", 10),
	})

	assert.Len(t, res.Assignments, 2)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, seating.DiagSeatShortfall, res.Diagnostics[0].Code)
}

func TestReconcile_UnknownProjectSkipped(t *testing.T) {
	// GIVEN: An event referencing a project that was never set up
	// WHEN: The log is replayed
	// THEN: The event contributes nothing and is diagnosed

	catalog := testCatalog(5, 0)
	res := reconcile(t, catalog, map[string]seating.Project{}, []seating.AllocationEvent{
		event("e1", "ghost", 1, "2025-01-01", "2025-06-30", 2),
	})

	assert.Empty(t, res.Assignments)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, seating.DiagProjectNotFound, res.Diagnostics[0].Code)
}

func TestReconcile_NoMetroFacilities(t *testing.T) {
	catalog := testCatalog(5, 0)
	projects := map[string]seating.Project{"p1": testProject("p1", "Bandung")}
	res := reconcile(t, catalog, projects, []seating.AllocationEvent{
		event("e1", "p1", 1, "2025-01-01", "2025-06-30", 2),
	})

	assert.Empty(t, res.Assignments)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, seating.DiagNoMetroFacilities, res.Diagnostics[0].Code)
}

func TestReconcile_RejectedAndPendingEventsIgnored(t *testing.T) {
	catalog := testCatalog(5, 0)
	projects := map[string]seating.Project{"p1": testProject("p1", "Jakarta")}

	pending := event("e1", "p1", 1, "2025-01-01", "2025-06-30", 2)
	pending.Status = seating.StatusPending
	rejected := event("e2", "p1", 2, "2025-01-01", "2025-06-30", 2)
	rejected.Status = seating.StatusRejected

	res := reconcile(t, catalog, projects, []seating.AllocationEvent{pending, rejected})
	assert.Empty(t, res.Assignments)
}

// =============================================================================
// SUPERSESSION
// =============================================================================

func TestReconcile_SupersessionTruncatesUnselectedSeats(t *testing.T) {
	// GIVEN: An allocation of 7 seats for Jan-Jun, then a Feb 1 downsize
	//        to headcount 6 (5 seats)
	// WHEN: Both events replay in sequence order
	// THEN: Seats 1-5 run through June; seats 6-7 are truncated to Jan 31

	catalog := testCatalog(7, 0)
	projects := map[string]seating.Project{"p1": testProject("p1", "Jakarta")}
	res := reconcile(t, catalog, projects, []seating.AllocationEvent{
		event("e1", "p1", 1, "2025-01-01", "2025-06-30", 10),
		event("e2", "p1", 2, "2025-02-01", "2025-06-30", 6),
	})

	require.Len(t, res.Assignments, 7)
	seats := bySeat(res)
	for i := 1; i <= 5; i++ {
		assert.Equal(t, date("2025-06-30"), seats[seatID(i)].End, "retained seat %d", i)
	}
	for i := 6; i <= 7; i++ {
		assert.Equal(t, date("2025-01-31"), seats[seatID(i)].End, "superseded seat %d truncated to day before", i)
	}
}

func TestReconcile_FreedSeatsUsableByLaterEvents(t *testing.T) {
	// GIVEN: Project 1 held all 7 seats, then downsized from Feb 1
	// WHEN: Project 2 requests 2 seats from Feb 1 with a later sequence
	// THEN: Project 2 gets the seats freed by the downsize

	catalog := testCatalog(7, 0)
	projects := map[string]seating.Project{
		"p1": testProject("p1", "Jakarta"),
		"p2": testProject("p2", "Jakarta"),
	}
	res := reconcile(t, catalog, projects, []seating.AllocationEvent{
		event("e1", "p1", 1, "2025-01-01", "2025-06-30", 10),
		event("e2", "p1", 2, "2025-02-01", "2025-06-30", 6),
		event("e3", "p2", 3, "2025-02-01", "2025-06-30", 2), // needs ceil(1.4) = 2
	})

	p2 := res.ForProject("p2")
	require.Len(t, p2, 2)
	assert.Equal(t, seatID(6), p2[0].SeatID)
	assert.Equal(t, seatID(7), p2[1].SeatID)
	assert.Empty(t, res.Diagnostics)
}

func TestReconcile_SameStartDownsizeFreesSeat(t *testing.T) {
	// GIVEN: Project 1 holds both seats from Mar 1, then downsizes to one
	//        seat with the SAME start date, truncating seat 2's record past
	//        its own start (end Feb 28, start Mar 1)
	// WHEN: Project 2 requests one seat for Feb 1 - Mar 10
	// THEN: The emptied record blocks nothing; project 2 gets seat 2

	catalog := testCatalog(2, 0)
	projects := map[string]seating.Project{
		"p1": testProject("p1", "Jakarta"),
		"p2": testProject("p2", "Jakarta"),
	}
	res := reconcile(t, catalog, projects, []seating.AllocationEvent{
		event("e1", "p1", 1, "2025-03-01", "2025-06-30", 2), // ceil(1.4) = 2 seats
		event("e2", "p1", 2, "2025-03-01", "2025-06-30", 1), // same start, 1 seat
		event("e3", "p2", 3, "2025-02-01", "2025-03-10", 1),
	})

	p2 := res.ForProject("p2")
	require.Len(t, p2, 1)
	assert.Equal(t, seatID(2), p2[0].SeatID)
	assert.Empty(t, res.Diagnostics)
}

func TestReconcile_EmptiedRecordNotStretchedBackward(t *testing.T) {
	// GIVEN: A same-start downsize left seat 2 with a record truncated past
	//        its own start
	// WHEN: The project later re-allocates both seats from Feb 1
	// THEN: Seat 2 gets a fresh binding starting Feb 1; the empty record is
	//       not extended (which would keep its Mar 1 start)

	catalog := testCatalog(2, 0)
	projects := map[string]seating.Project{"p1": testProject("p1", "Jakarta")}
	res := reconcile(t, catalog, projects, []seating.AllocationEvent{
		event("e1", "p1", 1, "2025-03-01", "2025-06-30", 2),
		event("e2", "p1", 2, "2025-03-01", "2025-06-30", 1),
		event("e3", "p1", 3, "2025-02-01", "2025-06-30", 2),
	})

	var live []seating.Assignment
	for _, a := range res.Assignments {
		if a.SeatID == seatID(2) && a.Period().Contains(date("2025-02-01")) {
			live = append(live, a)
		}
	}
	require.Len(t, live, 1)
	assert.Equal(t, date("2025-02-01"), live[0].Start)
	assert.Equal(t, date("2025-06-30"), live[0].End)
}

func TestReconcile_ExtendNeverShrink(t *testing.T) {
	// GIVEN: A seat held through June, then a superseding event for the same
	//        seat ending in April
	// WHEN: Both events replay
	// THEN: The assignment keeps its June end date

	catalog := testCatalog(1, 0)
	projects := map[string]seating.Project{"p1": testProject("p1", "Jakarta")}
	res := reconcile(t, catalog, projects, []seating.AllocationEvent{
		event("e1", "p1", 1, "2025-01-01", "2025-06-30", 1),
		event("e2", "p1", 2, "2025-02-01", "2025-04-30", 1),
	})

	require.Len(t, res.Assignments, 1)
	assert.Equal(t, date("2025-06-30"), res.Assignments[0].End)
}

func TestReconcile_ExtensionGrowsEndDate(t *testing.T) {
	catalog := testCatalog(1, 0)
	projects := map[string]seating.Project{"p1": testProject("p1", "Jakarta")}
	res := reconcile(t, catalog, projects, []seating.AllocationEvent{
		event("e1", "p1", 1, "2025-01-01", "2025-03-31", 1),
		event("e2", "p1", 2, "2025-02-01", "2025-09-30", 1),
	})

	require.Len(t, res.Assignments, 1)
	assert.Equal(t, date("2025-09-30"), res.Assignments[0].End)
}

// =============================================================================
// ORDERING AND DETERMINISM
// =============================================================================

func TestReconcile_SequenceOrderNotInputOrder(t *testing.T) {
	// GIVEN: The same events handed over in scrambled order
	// WHEN: Both orderings replay
	// THEN: Results are identical - sequence is the only ordering key

	catalog := testCatalog(7, 0)
	projects := map[string]seating.Project{
		"p1": testProject("p1", "Jakarta"),
		"p2": testProject("p2", "Jakarta"),
	}
	events := []seating.AllocationEvent{
		event("e1", "p1", 1, "2025-01-01", "2025-06-30", 10),
		event("e2", "p1", 2, "2025-02-01", "2025-06-30", 6),
		event("e3", "p2", 3, "2025-02-01", "2025-06-30", 2),
	}
	scrambled := []seating.AllocationEvent{events[2], events[0], events[1]}

	a := reconcile(t, catalog, projects, events)
	b := reconcile(t, catalog, projects, scrambled)
	assert.Equal(t, a.Assignments, b.Assignments)
}

func TestReconcile_Deterministic(t *testing.T) {
	catalog := testCatalog(10, 3)
	projects := map[string]seating.Project{
		"p1": testProject("p1", "Jakarta"),
		"p2": testProject("p2", "Surabaya"),
	}
	events := []seating.AllocationEvent{
		event("e1", "p1", 1, "2025-01-01", "2025-06-30", 10, "a@x.com"),
		event("e2", "p2", 2, "2025-02-01", "2025-07-31", 4),
		event("e3", "p1", 3, "2025-03-01", "2025-06-30", 6),
	}

	first := reconcile(t, catalog, projects, events)
	for i := 0; i < 5; i++ {
		again := reconcile(t, catalog, projects, events)
		assert.Equal(t, first.Assignments, again.Assignments, "run %d diverged", i)
	}
}

func TestReconcile_NoDoubleBookingAcrossProjects(t *testing.T) {
	// GIVEN: Two projects competing for a small pool over overlapping ranges
	// WHEN: The log replays
	// THEN: No seat carries two overlapping assignments

	catalog := testCatalog(5, 0)
	projects := map[string]seating.Project{
		"p1": testProject("p1", "Jakarta"),
		"p2": testProject("p2", "Jakarta"),
	}
	res := reconcile(t, catalog, projects, []seating.AllocationEvent{
		event("e1", "p1", 1, "2025-01-01", "2025-06-30", 4), // 3 seats
		event("e2", "p2", 2, "2025-03-01", "2025-08-31", 3), // 3 seats: 4, 5 + shortfall
	})

	seen := make(map[string][]seating.Assignment)
	for _, a := range res.Assignments {
		for _, prev := range seen[a.SeatID] {
			assert.False(t, prev.Period().Overlaps(a.Period()),
				"seat %s double-booked: %v and %v", a.SeatID, prev.Period(), a.Period())
		}
		seen[a.SeatID] = append(seen[a.SeatID], a)
	}
	// p2 wanted 3 seats but only 2 were free for its range.
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, seating.DiagSeatShortfall, res.Diagnostics[0].Code)
}
