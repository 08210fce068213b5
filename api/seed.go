/*
seed.go - Demo dataset

PURPOSE:
  Loads a small, self-consistent dataset for local development and demos:
  two metro cities, a seat catalog, two projects with WBS entries, company
  holidays, and a handful of approved allocation tickets whose events
  exercise supersession and partial employee lists.

WARNING:
  Seeding wipes the database first. Dev only.
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/gamalielACN/SMTDraft/generic"
	"github.com/gamalielACN/SMTDraft/seating"
)

// Seed resets the database and loads the demo dataset.
func (h *Handler) Seed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		h.serverError(w, err)
		return
	}
	if err := h.loadSeedData(ctx); err != nil {
		h.serverError(w, err)
		return
	}
	h.cache.invalidate()

	h.Log.Info("demo dataset loaded")
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "seeded"})
}

func (h *Handler) loadSeedData(ctx context.Context) error {
	// Catalog: two facilities in Jakarta, one in Surabaya.
	facilities := []seating.Facility{
		{ID: "1", Name: "Jakarta Tower A", MetroCity: "Jakarta"},
		{ID: "2", Name: "Jakarta Tower B", MetroCity: "Jakarta"},
		{ID: "3", Name: "Surabaya Office", MetroCity: "Surabaya"},
	}
	for _, f := range facilities {
		if err := h.Store.SaveFacility(ctx, f); err != nil {
			return err
		}
	}

	// 10 seats per Jakarta facility, 5 in Surabaya, catalog order by id.
	seatID := 0
	for _, f := range facilities {
		n := 10
		if f.MetroCity == "Surabaya" {
			n = 5
		}
		for i := 1; i <= n; i++ {
			seatID++
			seat := seating.Seat{
				ID:         fmt.Sprintf("%d", seatID),
				FacilityID: f.ID,
				Code:       fmt.Sprintf("F%s-%02d", f.ID, i),
			}
			if err := h.Store.SaveSeat(ctx, seat); err != nil {
				return err
			}
		}
	}

	// Projects with business-ops billing parameters already set.
	projects := []seating.Project{
		{
			ID:          "1",
			ClientName:  "PT Nusantara Bank",
			ProjectName: "Core Banking Migration",
			ProjectCode: "NB-CBM",
			MetroCity:   "Jakarta",
			Start:       generic.MustParseDate("2025-01-01"),
			End:         generic.MustParseDate("2025-12-31"),
			Status:      "active",

			SeatCountPercent:   decimal.NewFromInt(70),
			ChargedSeatPercent: decimal.NewFromInt(75),
			SeatRate:           decimal.NewFromInt(150000),
			WBSEntries: []seating.WBSEntry{
				{ID: "1", Code: "NB-CBM-001", IsActive: true, IsDefault: true},
				{ID: "2", Code: "NB-CBM-002", IsActive: true},
			},
		},
		{
			ID:          "2",
			ClientName:  "Garuda Logistics",
			ProjectName: "Fleet Tracking Platform",
			ProjectCode: "GL-FTP",
			MetroCity:   "Surabaya",
			Start:       generic.MustParseDate("2025-02-01"),
			End:         generic.MustParseDate("2025-08-31"),
			Status:      "active",

			SeatCountPercent:   decimal.NewFromInt(70),
			ChargedSeatPercent: decimal.NewFromInt(75),
			SeatRate:           decimal.NewFromInt(120000),
			WBSEntries: []seating.WBSEntry{
				{ID: "1", Code: "GL-FTP-001", IsActive: true, IsDefault: true},
			},
		},
	}
	for _, p := range projects {
		if err := h.Store.SaveProject(ctx, p); err != nil {
			return err
		}
	}

	holidays := []generic.Holiday{
		{ID: "1", Date: generic.MustParseDate("2025-01-01"), Name: "New Year's Day", IsActive: true},
		{ID: "2", Date: generic.MustParseDate("2025-03-31"), Name: "Idul Fitri", IsActive: true},
		{ID: "3", Date: generic.MustParseDate("2025-04-01"), Name: "Idul Fitri Holiday", IsActive: true},
		{ID: "4", Date: generic.MustParseDate("2025-08-17"), Name: "Independence Day", IsActive: true},
		{ID: "5", Date: generic.MustParseDate("2025-12-25"), Name: "Christmas Day", IsActive: true},
	}
	for _, hol := range holidays {
		if err := h.Store.SaveHoliday(ctx, hol); err != nil {
			return err
		}
	}

	// Approved allocation history. The second project-1 allocation supersedes
	// the first from Feb 1, exercising truncation; project 2 lists fewer
	// employees than headcount, exercising placeholders.
	allocations := []struct {
		projectID string
		start     string
		end       string
		headcount int
		emails    []string
	}{
		{"1", "2025-01-01", "2025-06-30", 10, []string{
			"andi@nusantara.example", "budi@nusantara.example", "citra@nusantara.example",
			"dewi@nusantara.example", "eko@nusantara.example", "fitri@nusantara.example",
			"gita@nusantara.example",
		}},
		{"1", "2025-02-01", "2025-06-30", 6, []string{
			"andi@nusantara.example", "budi@nusantara.example", "citra@nusantara.example",
		}},
		{"2", "2025-02-01", "2025-07-31", 5, []string{
			"hasan@garuda.example", "indah@garuda.example",
		}},
	}

	for i, a := range allocations {
		seq, err := h.Store.NextSequence(ctx)
		if err != nil {
			return err
		}

		form := map[string]any{
			"projectId":      a.projectID,
			"startDate":      a.start,
			"endDate":        a.end,
			"headcount":      a.headcount,
			"employeeEmails": a.emails,
		}
		formJSON, err := json.Marshal(form)
		if err != nil {
			return err
		}

		now := h.Now()
		ticket := seating.Ticket{
			ID:           fmt.Sprintf("%d", i+1),
			Type:         seating.TicketSeatAllocation,
			ProjectID:    a.projectID,
			CreatedBy:    "delivery.lead@example.com",
			Status:       seating.StatusApproved,
			FormData:     formJSON,
			Sequence:     seq,
			CreatedAt:    now,
			LastModified: now,
		}
		if err := h.Store.SaveTicket(ctx, ticket); err != nil {
			return err
		}

		event := seating.AllocationEvent{
			ID:             ticket.ID,
			ProjectID:      a.projectID,
			Sequence:       seq,
			Start:          generic.MustParseDate(a.start),
			End:            generic.MustParseDate(a.end),
			Headcount:      a.headcount,
			EmployeeEmails: a.emails,
			Status:         seating.StatusApproved,
		}
		if err := h.Store.Append(ctx, event); err != nil {
			return err
		}
	}

	return nil
}
