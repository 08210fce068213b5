/*
scheduler.go - Automated monthly invoice generation

PURPOSE:
  Once a month has closed, every active project with allocations in that
  month should get a draft invoice without an operator remembering to ask
  for one. The scheduler checks periodically, generates the previous
  month's invoice for each project that doesn't have one yet, and leaves
  it in pending_approval for business ops.

DESIGN:
  - Background goroutine with a configurable check interval
  - A project is skipped when a non-rejected invoice already carries the
    month's billing period label (generation is idempotent per month)
  - Projects with no billable allocations in the month are skipped quietly

USAGE:
  scheduler := NewInvoiceScheduler(store, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: GenerateInvoice (the manual path)
  - billing/engine.go: The shared generation logic
*/
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gamalielACN/SMTDraft/billing"
	"github.com/gamalielACN/SMTDraft/generic"
	"github.com/gamalielACN/SMTDraft/store/sqlite"
)

// InvoiceScheduler generates last month's invoices for projects that lack one.
type InvoiceScheduler struct {
	Store         *sqlite.Store
	Log           logrus.FieldLogger
	CheckInterval time.Duration
	Enabled       bool

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewInvoiceScheduler(store *sqlite.Store, log logrus.FieldLogger) *InvoiceScheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &InvoiceScheduler{
		Store:         store,
		Log:           log,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Now:           time.Now,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (s *InvoiceScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Log.Info("invoice scheduler disabled, not starting")
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)
	go s.run()

	s.Log.WithField("interval", s.CheckInterval).Info("invoice scheduler started")
}

// Stop stops the scheduler.
func (s *InvoiceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.Log.Info("invoice scheduler stopped")
	}
}

func (s *InvoiceScheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.RunNow()

	for {
		select {
		case <-s.ticker.C:
			s.RunNow()
		case <-s.stop:
			return
		}
	}
}

// RunNow performs one generation sweep for the previous calendar month.
func (s *InvoiceScheduler) RunNow() {
	ctx := context.Background()
	today := generic.FromTime(s.Now())
	window := previousMonth(today)
	label := window.BillingLabel()

	projects, err := s.Store.ListProjects(ctx)
	if err != nil {
		s.Log.WithError(err).Error("scheduler: failed to list projects")
		return
	}
	calendar, err := s.Store.LoadCalendar(ctx)
	if err != nil {
		s.Log.WithError(err).Error("scheduler: failed to load calendar")
		return
	}
	engine := billing.NewEngine(calendar)
	engine.Now = s.Now

	generated, skipped := 0, 0
	for _, project := range projects {
		if project.Status != "active" {
			continue
		}

		invoices, err := s.Store.ListInvoices(ctx, project.ID)
		if err != nil {
			s.Log.WithError(err).WithField("project", project.ID).Error("scheduler: failed to list invoices")
			continue
		}
		if hasInvoiceFor(invoices, label) {
			skipped++
			continue
		}

		events, err := s.Store.EventsForProject(ctx, project.ID)
		if err != nil {
			s.Log.WithError(err).WithField("project", project.ID).Error("scheduler: failed to load events")
			continue
		}

		inv, err := engine.Generate(project, window, events)
		if errors.Is(err, generic.ErrNoBillableAllocations) {
			// Nothing to bill this month.
			continue
		}
		if err != nil {
			s.Log.WithError(err).WithField("project", project.ID).Error("scheduler: generation failed")
			continue
		}
		if err := s.Store.SaveInvoice(ctx, inv); err != nil {
			s.Log.WithError(err).WithField("project", project.ID).Error("scheduler: failed to save invoice")
			continue
		}

		generated++
		s.Log.WithFields(logrus.Fields{
			"invoice": inv.ID,
			"project": project.ID,
			"period":  label,
			"total":   inv.TotalCost.String(),
		}).Info("scheduler: invoice generated")
	}

	if generated > 0 || skipped > 0 {
		s.Log.WithFields(logrus.Fields{
			"period":    label,
			"generated": generated,
			"skipped":   skipped,
		}).Info("scheduler: sweep completed")
	}
}

// previousMonth returns the full calendar month before the one containing d.
func previousMonth(d generic.TimePoint) generic.Period {
	first := generic.StartOfMonth(d.Year(), d.Month()).AddMonths(-1)
	return generic.Period{Start: first, End: generic.EndOfMonth(first.Year(), first.Month())}
}

func hasInvoiceFor(invoices []billing.Invoice, label string) bool {
	for _, inv := range invoices {
		if inv.BillingPeriod == label && inv.Status != billing.StatusRejected {
			return true
		}
	}
	return false
}
