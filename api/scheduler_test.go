package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamalielACN/SMTDraft/api"
	"github.com/gamalielACN/SMTDraft/billing"
	"github.com/gamalielACN/SMTDraft/generic"
	"github.com/gamalielACN/SMTDraft/seating"
	"github.com/gamalielACN/SMTDraft/store/sqlite"
)

func newTestScheduler(t *testing.T) (*api.InvoiceScheduler, *sqlite.Store) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	s := api.NewInvoiceScheduler(store, log)
	// Pinned inside February, so the sweep targets January 2025.
	s.Now = func() time.Time { return time.Date(2025, time.February, 10, 3, 0, 0, 0, time.UTC) }
	return s, store
}

func schedulerFixture(t *testing.T, store *sqlite.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.SaveProject(ctx, seating.Project{
		ID: "1", ClientName: "PT Nusantara Bank", ProjectName: "Core Banking",
		MetroCity: "Jakarta",
		Start:     generic.MustParseDate("2025-01-01"), End: generic.MustParseDate("2025-12-31"),
		Status:             "active",
		SeatCountPercent:   decimal.NewFromInt(70),
		ChargedSeatPercent: decimal.NewFromInt(75),
		SeatRate:           decimal.NewFromInt(150000),
		WBSEntries:         []seating.WBSEntry{{ID: "1", Code: "NB-001", IsActive: true, IsDefault: true}},
	}))

	seq, err := store.NextSequence(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, seating.AllocationEvent{
		ID: "e1", ProjectID: "1", Sequence: seq,
		Start: generic.MustParseDate("2025-01-01"), End: generic.MustParseDate("2025-06-30"),
		Headcount: 10, Status: seating.StatusApproved,
	}))
}

func TestScheduler_GeneratesPreviousMonthOnce(t *testing.T) {
	// GIVEN: A project with January allocations and no January invoice
	// WHEN: The sweep runs twice
	// THEN: Exactly one 2025-01 invoice exists afterwards

	s, store := newTestScheduler(t)
	schedulerFixture(t, store)
	ctx := context.Background()

	s.RunNow()

	invoices, err := store.ListInvoices(ctx, "1")
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "2025-01", invoices[0].BillingPeriod)
	assert.Equal(t, billing.StatusPendingApproval, invoices[0].Status)
	assert.Equal(t, generic.MustParseDate("2025-01-01"), invoices[0].Start)
	assert.Equal(t, generic.MustParseDate("2025-01-31"), invoices[0].End)

	// Idempotent per month.
	s.RunNow()
	invoices, err = store.ListInvoices(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}

func TestScheduler_SkipsProjectsWithNothingToBill(t *testing.T) {
	s, store := newTestScheduler(t)
	ctx := context.Background()

	// Active project, but its allocations start in March.
	require.NoError(t, store.SaveProject(ctx, seating.Project{
		ID: "1", ClientName: "Client", ProjectName: "Later Start",
		MetroCity: "Jakarta",
		Start:     generic.MustParseDate("2025-03-01"), End: generic.MustParseDate("2025-12-31"),
		Status:             "active",
		SeatCountPercent:   decimal.NewFromInt(70),
		ChargedSeatPercent: decimal.NewFromInt(75),
		SeatRate:           decimal.NewFromInt(150000),
	}))
	seq, err := store.NextSequence(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, seating.AllocationEvent{
		ID: "e1", ProjectID: "1", Sequence: seq,
		Start: generic.MustParseDate("2025-03-01"), End: generic.MustParseDate("2025-06-30"),
		Headcount: 4, Status: seating.StatusApproved,
	}))

	s.RunNow()

	invoices, err := store.ListInvoices(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestScheduler_RegeneratesAfterRejection(t *testing.T) {
	// A rejected invoice does not block the month from being rebilled.
	s, store := newTestScheduler(t)
	schedulerFixture(t, store)
	ctx := context.Background()

	s.RunNow()
	invoices, err := store.ListInvoices(ctx, "1")
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	invoices[0].Status = billing.StatusRejected
	require.NoError(t, store.SaveInvoice(ctx, &invoices[0]))

	s.RunNow()
	invoices, err = store.ListInvoices(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, invoices, 2)
}
