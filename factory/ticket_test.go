package factory_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamalielACN/SMTDraft/factory"
	"github.com/gamalielACN/SMTDraft/generic"
	"github.com/gamalielACN/SMTDraft/seating"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func allocationTicket(t *testing.T, form map[string]any) seating.Ticket {
	t.Helper()
	raw, err := json.Marshal(form)
	require.NoError(t, err)
	return seating.Ticket{
		ID:       "t1",
		Type:     seating.TicketSeatAllocation,
		FormData: raw,
		Status:   seating.StatusPending,
	}
}

func projectTicket(t *testing.T, form map[string]any, busOps map[string]any) seating.Ticket {
	t.Helper()
	raw, err := json.Marshal(form)
	require.NoError(t, err)
	tk := seating.Ticket{
		ID:       "t1",
		Type:     seating.TicketProjectSetup,
		FormData: raw,
		Status:   seating.StatusPending,
	}
	if busOps != nil {
		ops, err := json.Marshal(busOps)
		require.NoError(t, err)
		tk.BusOpsFields = ops
	}
	return tk
}

func validAllocationForm() map[string]any {
	return map[string]any{
		"projectId":      "p1",
		"startDate":      "2025-01-01",
		"endDate":        "2025-06-30",
		"headcount":      10,
		"employeeEmails": []string{"a@x.com", "b@x.com"},
	}
}

func validProjectForm() map[string]any {
	return map[string]any{
		"clientName":  "PT Nusantara Bank",
		"projectName": "Core Banking Migration",
		"metroCity":   "Jakarta",
		"startDate":   "2025-01-01",
		"endDate":     "2025-12-31",
		"wbsEntries": []map[string]any{
			{"id": "1", "wbsCode": "NB-001", "isActive": true, "isDefault": true},
		},
	}
}

// =============================================================================
// SEAT ALLOCATION PARSING
// =============================================================================

func TestParseAllocation_Valid(t *testing.T) {
	f := factory.NewTicketFactory()
	ev, err := f.ParseAllocation(allocationTicket(t, validAllocationForm()), 7)
	require.NoError(t, err)

	assert.Equal(t, "p1", ev.ProjectID)
	assert.Equal(t, int64(7), ev.Sequence)
	assert.Equal(t, generic.MustParseDate("2025-01-01"), ev.Start)
	assert.Equal(t, generic.MustParseDate("2025-06-30"), ev.End)
	assert.Equal(t, 10, ev.Headcount)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, ev.EmployeeEmails)
	assert.Equal(t, seating.StatusApproved, ev.Status)
}

func TestParseAllocation_EndBeforeStart(t *testing.T) {
	form := validAllocationForm()
	form["startDate"] = "2025-06-30"
	form["endDate"] = "2025-01-01"

	f := factory.NewTicketFactory()
	_, err := f.ParseAllocation(allocationTicket(t, form), 1)

	var ve *generic.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "endDate", ve.Field)
}

func TestParseAllocation_MoreEmailsThanHeadcount(t *testing.T) {
	form := validAllocationForm()
	form["headcount"] = 1

	f := factory.NewTicketFactory()
	_, err := f.ParseAllocation(allocationTicket(t, form), 1)

	var ve *generic.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "employeeEmails", ve.Field)
}

func TestParseAllocation_ZeroHeadcountRejected(t *testing.T) {
	form := validAllocationForm()
	form["headcount"] = 0
	delete(form, "employeeEmails")

	f := factory.NewTicketFactory()
	_, err := f.ParseAllocation(allocationTicket(t, form), 1)
	assert.Error(t, err)
}

func TestParseAllocation_BadEmailRejected(t *testing.T) {
	form := validAllocationForm()
	form["employeeEmails"] = []string{"not-an-email"}

	f := factory.NewTicketFactory()
	_, err := f.ParseAllocation(allocationTicket(t, form), 1)
	assert.Error(t, err)
}

func TestParseAllocation_ProjectIDFallsBackToTicket(t *testing.T) {
	form := validAllocationForm()
	delete(form, "projectId")
	tk := allocationTicket(t, form)
	tk.ProjectID = "p9"

	f := factory.NewTicketFactory()
	ev, err := f.ParseAllocation(tk, 1)
	require.NoError(t, err)
	assert.Equal(t, "p9", ev.ProjectID)
}

func TestParseAllocation_MalformedJSON(t *testing.T) {
	tk := seating.Ticket{ID: "t1", Type: seating.TicketSeatAllocation, FormData: []byte("{nope")}
	f := factory.NewTicketFactory()
	_, err := f.ParseAllocation(tk, 1)
	assert.Error(t, err)
}

// =============================================================================
// PROJECT SETUP PARSING
// =============================================================================

func TestParseProject_Valid(t *testing.T) {
	f := factory.NewTicketFactory()
	p, err := f.ParseProject(projectTicket(t, validProjectForm(), map[string]any{
		"seatCountPercent":   "80",
		"chargedSeatPercent": "90",
		"seatRate":           "175000",
	}), "42")
	require.NoError(t, err)

	assert.Equal(t, "42", p.ID)
	assert.Equal(t, "PT Nusantara Bank", p.ClientName)
	assert.Equal(t, "Jakarta", p.MetroCity)
	assert.Equal(t, "active", p.Status)
	assert.True(t, p.SeatCountPercent.Equal(decimal.NewFromInt(80)))
	assert.True(t, p.ChargedSeatPercent.Equal(decimal.NewFromInt(90)))
	assert.True(t, p.SeatRate.Equal(decimal.NewFromInt(175000)))
	require.Len(t, p.WBSEntries, 1)
	assert.True(t, p.WBSEntries[0].IsDefault)
}

func TestParseProject_PercentDefaultsApplied(t *testing.T) {
	// Blank percentages fall back to 70/75; the rate never defaults.
	f := factory.NewTicketFactory()
	p, err := f.ParseProject(projectTicket(t, validProjectForm(), map[string]any{
		"seatRate": "150000",
	}), "1")
	require.NoError(t, err)

	assert.True(t, p.SeatCountPercent.Equal(factory.DefaultSeatCountPercent))
	assert.True(t, p.ChargedSeatPercent.Equal(factory.DefaultChargedSeatPercent))
}

func TestParseProject_MissingRateRejected(t *testing.T) {
	f := factory.NewTicketFactory()
	_, err := f.ParseProject(projectTicket(t, validProjectForm(), map[string]any{
		"seatCountPercent": "70",
	}), "1")
	assert.Error(t, err)
}

func TestParseProject_NonPositiveRateRejected(t *testing.T) {
	f := factory.NewTicketFactory()
	for _, rate := range []string{"0", "-5", "banana"} {
		_, err := f.ParseProject(projectTicket(t, validProjectForm(), map[string]any{
			"seatRate": rate,
		}), "1")
		assert.Error(t, err, "rate %q should be rejected", rate)
	}
}

func TestParseProject_MissingRequiredFields(t *testing.T) {
	form := validProjectForm()
	delete(form, "clientName")

	f := factory.NewTicketFactory()
	_, err := f.ParseProject(projectTicket(t, form, map[string]any{"seatRate": "150000"}), "1")

	var ve *generic.ValidationError
	assert.ErrorAs(t, err, &ve)
}
