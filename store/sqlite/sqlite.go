/*
Package sqlite provides the SQLite-backed implementation of persistence.

PURPOSE:
  One store for everything durable: tickets, the approved event log,
  projects, the seat/facility catalog, holidays, and generated invoices.
  The same patterns apply to PostgreSQL - only minor dialect differences.

APPEND-ONLY ENFORCEMENT:
  The events table is the system of record and is append-only:
  - No UPDATE statements on events
  - No DELETE statements on events
  - An allocation is corrected by a superseding event, never an edit

KEY TABLES:
  tickets:    Workflow records with raw JSON payloads
  events:     Immutable approved allocation log, ordered by sequence
  projects:   Billing parameters set at project setup
  facilities, seats: Static catalog (seat rowid order = catalog order)
  holidays:   Active-holiday calendar
  invoices:   Generated invoices with segments/payments as JSON

SEQUENCING:
  NextSequence hands out strictly increasing event sequence numbers from a
  single-row counter, bumped inside a transaction. Callers serialize per
  project (api/locks.go); the counter makes the order durable.

WAL MODE:
  Opened with WAL so readers don't block the single writer.

USAGE:
  st, err := sqlite.New("./data/smt.db")
  defer st.Close()

SEE ALSO:
  - seating/store.go: EventLog contract
  - seating/store/memory.go: In-memory counterpart for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/gamalielACN/SMTDraft/billing"
	"github.com/gamalielACN/SMTDraft/generic"
	"github.com/gamalielACN/SMTDraft/seating"
)

// Store implements all persistence contracts using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex // serializes writers; SQLite allows one at a time anyway
}

// New creates a store backed by the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	st := &Store{db: db}
	if err := st.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return st, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tickets (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		project_id TEXT,
		created_by TEXT,
		status TEXT NOT NULL,
		form_data TEXT NOT NULL,
		busops_fields TEXT,
		busops_comment TEXT,
		comments TEXT,
		sequence INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		last_modified TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
	CREATE INDEX IF NOT EXISTS idx_tickets_project ON tickets(project_id);

	-- Approved allocation log. Append-only: no UPDATE, no DELETE.
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		sequence INTEGER NOT NULL UNIQUE,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		headcount INTEGER NOT NULL,
		seat_count INTEGER NOT NULL,
		employee_emails TEXT NOT NULL,
		status TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_project_seq ON events(project_id, sequence);

	CREATE TABLE IF NOT EXISTS sequence_counter (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		value INTEGER NOT NULL
	);
	INSERT OR IGNORE INTO sequence_counter (id, value) VALUES (1, 0);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		client_name TEXT NOT NULL,
		project_name TEXT NOT NULL,
		project_code TEXT,
		metro_city TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		seat_count_percent TEXT NOT NULL,
		charged_seat_percent TEXT NOT NULL,
		seat_rate TEXT NOT NULL,
		wbs_entries TEXT
	);

	CREATE TABLE IF NOT EXISTS facilities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		metro_city TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS seats (
		id TEXT PRIMARY KEY,
		facility_id TEXT NOT NULL REFERENCES facilities(id),
		code TEXT NOT NULL,
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_seats_position ON seats(position);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		is_active INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		billing_period TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		total_cost TEXT NOT NULL,
		status TEXT NOT NULL,
		seat_rate TEXT NOT NULL,
		charged_seat_percent TEXT NOT NULL,
		adjusted_total TEXT NOT NULL DEFAULT '0',
		segments TEXT NOT NULL,
		payments TEXT,
		generated_at TEXT NOT NULL,
		confirmed_by TEXT,
		confirmed_at TEXT,
		comments TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_invoices_project ON invoices(project_id);
	CREATE INDEX IF NOT EXISTS idx_invoices_period ON invoices(billing_period);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EVENT LOG (implements seating.EventLog)
// =============================================================================

// execer abstracts *sql.DB and *sql.Tx so the write statements can run
// standalone or inside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) Append(ctx context.Context, ev seating.AllocationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertEvent(ctx, s.db, ev)
}

func insertEvent(ctx context.Context, ex execer, ev seating.AllocationEvent) error {
	emails, err := json.Marshal(ev.EmployeeEmails)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO events (id, project_id, sequence, start_date, end_date, headcount, seat_count, employee_emails, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.ProjectID, ev.Sequence, ev.Start.String(), ev.End.String(),
		ev.Headcount, ev.SeatCount, string(emails), string(ev.Status))
	return err
}

// ApproveAllocation appends the event and finalizes its ticket in one
// transaction. If either write fails, neither lands: a retried approval must
// not find the event durably logged while the ticket is still pending.
func (s *Store) ApproveAllocation(ctx context.Context, t seating.Ticket, ev seating.AllocationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertEvent(ctx, tx, ev); err != nil {
		return err
	}
	if err := upsertTicket(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Events(ctx context.Context) ([]seating.AllocationEvent, error) {
	return s.queryEvents(ctx, `SELECT id, project_id, sequence, start_date, end_date, headcount, seat_count, employee_emails, status
		FROM events ORDER BY sequence ASC`)
}

func (s *Store) EventsForProject(ctx context.Context, projectID string) ([]seating.AllocationEvent, error) {
	return s.queryEvents(ctx, `SELECT id, project_id, sequence, start_date, end_date, headcount, seat_count, employee_emails, status
		FROM events WHERE project_id = ? ORDER BY sequence ASC`, projectID)
}

func (s *Store) NextSequence(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE sequence_counter SET value = value + 1 WHERE id = 1`); err != nil {
		return 0, err
	}
	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT value FROM sequence_counter WHERE id = 1`).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, tx.Commit()
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]seating.AllocationEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []seating.AllocationEvent
	for rows.Next() {
		var (
			ev               seating.AllocationEvent
			start, end       string
			emails, statusStr string
		)
		if err := rows.Scan(&ev.ID, &ev.ProjectID, &ev.Sequence, &start, &end,
			&ev.Headcount, &ev.SeatCount, &emails, &statusStr); err != nil {
			return nil, err
		}
		if ev.Start, err = generic.ParseDate(start); err != nil {
			return nil, err
		}
		if ev.End, err = generic.ParseDate(end); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(emails), &ev.EmployeeEmails); err != nil {
			return nil, err
		}
		ev.Status = seating.EventStatus(statusStr)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// =============================================================================
// TICKETS
// =============================================================================

func (s *Store) SaveTicket(ctx context.Context, t seating.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertTicket(ctx, s.db, t)
}

func upsertTicket(ctx context.Context, ex execer, t seating.Ticket) error {
	comments, err := json.Marshal(t.Comments)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO tickets (id, type, project_id, created_by, status, form_data, busops_fields, busops_comment, comments, sequence, created_at, last_modified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			status = excluded.status,
			busops_fields = excluded.busops_fields,
			busops_comment = excluded.busops_comment,
			comments = excluded.comments,
			sequence = excluded.sequence,
			last_modified = excluded.last_modified`,
		t.ID, string(t.Type), t.ProjectID, t.CreatedBy, string(t.Status),
		string(t.FormData), string(t.BusOpsFields), t.BusOpsComment, string(comments),
		t.Sequence, t.CreatedAt.Format(time.RFC3339), t.LastModified.Format(time.RFC3339))
	return err
}

func (s *Store) GetTicket(ctx context.Context, id string) (*seating.Ticket, error) {
	tickets, err := s.queryTickets(ctx, `SELECT id, type, project_id, created_by, status, form_data, busops_fields, busops_comment, comments, sequence, created_at, last_modified
		FROM tickets WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, nil
	}
	return &tickets[0], nil
}

func (s *Store) ListTickets(ctx context.Context) ([]seating.Ticket, error) {
	return s.queryTickets(ctx, `SELECT id, type, project_id, created_by, status, form_data, busops_fields, busops_comment, comments, sequence, created_at, last_modified
		FROM tickets ORDER BY created_at ASC`)
}

func (s *Store) NextTicketID(ctx context.Context) (string, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&n); err != nil {
		return "", err
	}
	return strconv.FormatInt(n+1, 10), nil
}

func (s *Store) queryTickets(ctx context.Context, query string, args ...any) ([]seating.Ticket, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []seating.Ticket
	for rows.Next() {
		var (
			t                              seating.Ticket
			typ, status                    string
			formData, opsFields, comments  sql.NullString
			createdAt, lastModified        string
		)
		if err := rows.Scan(&t.ID, &typ, &t.ProjectID, &t.CreatedBy, &status,
			&formData, &opsFields, &t.BusOpsComment, &comments, &t.Sequence,
			&createdAt, &lastModified); err != nil {
			return nil, err
		}
		t.Type = seating.TicketType(typ)
		t.Status = seating.EventStatus(status)
		if formData.Valid {
			t.FormData = json.RawMessage(formData.String)
		}
		if opsFields.Valid && opsFields.String != "" {
			t.BusOpsFields = json.RawMessage(opsFields.String)
		}
		if comments.Valid && comments.String != "" {
			if err := json.Unmarshal([]byte(comments.String), &t.Comments); err != nil {
				return nil, err
			}
		}
		if t.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, err
		}
		if t.LastModified, err = time.Parse(time.RFC3339, lastModified); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// =============================================================================
// PROJECTS
// =============================================================================

func (s *Store) SaveProject(ctx context.Context, p seating.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wbs, err := json.Marshal(p.WBSEntries)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, client_name, project_name, project_code, metro_city, start_date, end_date, status, seat_count_percent, charged_seat_percent, seat_rate, wbs_entries)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_name = excluded.client_name,
			project_name = excluded.project_name,
			project_code = excluded.project_code,
			metro_city = excluded.metro_city,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status,
			seat_count_percent = excluded.seat_count_percent,
			charged_seat_percent = excluded.charged_seat_percent,
			seat_rate = excluded.seat_rate,
			wbs_entries = excluded.wbs_entries`,
		p.ID, p.ClientName, p.ProjectName, p.ProjectCode, p.MetroCity,
		p.Start.String(), p.End.String(), p.Status,
		p.SeatCountPercent.String(), p.ChargedSeatPercent.String(), p.SeatRate.String(), string(wbs))
	return err
}

func (s *Store) GetProject(ctx context.Context, id string) (*seating.Project, error) {
	projects, err := s.queryProjects(ctx, `SELECT id, client_name, project_name, project_code, metro_city, start_date, end_date, status, seat_count_percent, charged_seat_percent, seat_rate, wbs_entries
		FROM projects WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, nil
	}
	return &projects[0], nil
}

func (s *Store) ListProjects(ctx context.Context) ([]seating.Project, error) {
	return s.queryProjects(ctx, `SELECT id, client_name, project_name, project_code, metro_city, start_date, end_date, status, seat_count_percent, charged_seat_percent, seat_rate, wbs_entries
		FROM projects ORDER BY id ASC`)
}

// ProjectMap loads all projects keyed by id, the snapshot shape the
// reconciler consumes.
func (s *Store) ProjectMap(ctx context.Context) (map[string]seating.Project, error) {
	projects, err := s.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]seating.Project, len(projects))
	for _, p := range projects {
		m[p.ID] = p
	}
	return m, nil
}

func (s *Store) NextProjectID(ctx context.Context) (string, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n); err != nil {
		return "", err
	}
	return strconv.FormatInt(n+1, 10), nil
}

func (s *Store) queryProjects(ctx context.Context, query string, args ...any) ([]seating.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []seating.Project
	for rows.Next() {
		var (
			p                         seating.Project
			start, end                string
			seatPct, chargedPct, rate string
			wbs                       sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.ClientName, &p.ProjectName, &p.ProjectCode, &p.MetroCity,
			&start, &end, &p.Status, &seatPct, &chargedPct, &rate, &wbs); err != nil {
			return nil, err
		}
		if p.Start, err = generic.ParseDate(start); err != nil {
			return nil, err
		}
		if p.End, err = generic.ParseDate(end); err != nil {
			return nil, err
		}
		if p.SeatCountPercent, err = decimal.NewFromString(seatPct); err != nil {
			return nil, err
		}
		if p.ChargedSeatPercent, err = decimal.NewFromString(chargedPct); err != nil {
			return nil, err
		}
		if p.SeatRate, err = decimal.NewFromString(rate); err != nil {
			return nil, err
		}
		if wbs.Valid && wbs.String != "" {
			if err := json.Unmarshal([]byte(wbs.String), &p.WBSEntries); err != nil {
				return nil, err
			}
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// =============================================================================
// CATALOG
// =============================================================================

func (s *Store) SaveFacility(ctx context.Context, f seating.Facility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO facilities (id, name, metro_city) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, metro_city = excluded.metro_city`,
		f.ID, f.Name, f.MetroCity)
	return err
}

// SaveSeat stores a seat at the next catalog position.
func (s *Store) SaveSeat(ctx context.Context, seat seating.Seat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO seats (id, facility_id, code, position)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM seats))
		ON CONFLICT(id) DO UPDATE SET facility_id = excluded.facility_id, code = excluded.code`,
		seat.ID, seat.FacilityID, seat.Code)
	return err
}

func (s *Store) ListFacilities(ctx context.Context) ([]seating.Facility, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, metro_city FROM facilities ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []seating.Facility
	for rows.Next() {
		var f seating.Facility
		if err := rows.Scan(&f.ID, &f.Name, &f.MetroCity); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) ListSeats(ctx context.Context) ([]seating.Seat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, facility_id, code FROM seats ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []seating.Seat
	for rows.Next() {
		var seat seating.Seat
		if err := rows.Scan(&seat.ID, &seat.FacilityID, &seat.Code); err != nil {
			return nil, err
		}
		out = append(out, seat)
	}
	return out, rows.Err()
}

// LoadCatalog builds the immutable catalog snapshot the reconciler consumes.
func (s *Store) LoadCatalog(ctx context.Context) (*seating.Catalog, error) {
	seats, err := s.ListSeats(ctx)
	if err != nil {
		return nil, err
	}
	facilities, err := s.ListFacilities(ctx)
	if err != nil {
		return nil, err
	}
	return seating.NewCatalog(seats, facilities), nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := 0
	if h.IsActive {
		active = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name, is_active) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET date = excluded.date, name = excluded.name, is_active = excluded.is_active`,
		h.ID, h.Date.String(), h.Name, active)
	return err
}

func (s *Store) ListHolidays(ctx context.Context) ([]generic.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, date, name, is_active FROM holidays ORDER BY date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []generic.Holiday
	for rows.Next() {
		var (
			h      generic.Holiday
			date   string
			active int
		)
		if err := rows.Scan(&h.ID, &date, &h.Name, &active); err != nil {
			return nil, err
		}
		if h.Date, err = generic.ParseDate(date); err != nil {
			return nil, err
		}
		h.IsActive = active == 1
		out = append(out, h)
	}
	return out, rows.Err()
}

// LoadCalendar builds a calendar of the active holidays.
func (s *Store) LoadCalendar(ctx context.Context) (generic.HolidayCalendar, error) {
	holidays, err := s.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}
	return generic.NewSetCalendar(holidays), nil
}

// =============================================================================
// INVOICES
// =============================================================================

func (s *Store) SaveInvoice(ctx context.Context, inv *billing.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inv.ID == "" {
		var n int64
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&n); err != nil {
			return err
		}
		inv.ID = strconv.FormatInt(n+1, 10)
	}

	segments, err := json.Marshal(inv.Segments)
	if err != nil {
		return err
	}
	payments, err := json.Marshal(inv.Payments)
	if err != nil {
		return err
	}

	confirmedAt := ""
	if !inv.ConfirmedAt.IsZero() {
		confirmedAt = inv.ConfirmedAt.Format(time.RFC3339)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (id, project_id, billing_period, start_date, end_date, total_cost, status, seat_rate, charged_seat_percent, adjusted_total, segments, payments, generated_at, confirmed_by, confirmed_at, comments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			adjusted_total = excluded.adjusted_total,
			payments = excluded.payments,
			confirmed_by = excluded.confirmed_by,
			confirmed_at = excluded.confirmed_at,
			comments = excluded.comments`,
		inv.ID, inv.ProjectID, inv.BillingPeriod, inv.Start.String(), inv.End.String(),
		inv.TotalCost.String(), string(inv.Status), inv.SeatRate.String(),
		inv.ChargedSeatPercent.String(), inv.AdjustedTotal.String(),
		string(segments), string(payments),
		inv.GeneratedAt.Format(time.RFC3339), inv.ConfirmedBy, confirmedAt, inv.Comments)
	return err
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*billing.Invoice, error) {
	invoices, err := s.queryInvoices(ctx, `SELECT id, project_id, billing_period, start_date, end_date, total_cost, status, seat_rate, charged_seat_percent, adjusted_total, segments, payments, generated_at, confirmed_by, confirmed_at, comments
		FROM invoices WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, nil
	}
	return &invoices[0], nil
}

// ListInvoices returns invoices, optionally filtered to one project.
func (s *Store) ListInvoices(ctx context.Context, projectID string) ([]billing.Invoice, error) {
	query := `SELECT id, project_id, billing_period, start_date, end_date, total_cost, status, seat_rate, charged_seat_percent, adjusted_total, segments, payments, generated_at, confirmed_by, confirmed_at, comments
		FROM invoices`
	var args []any
	if projectID != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY CAST(id AS INTEGER) ASC`
	return s.queryInvoices(ctx, query, args...)
}

func (s *Store) queryInvoices(ctx context.Context, query string, args ...any) ([]billing.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []billing.Invoice
	for rows.Next() {
		var (
			inv                                 billing.Invoice
			start, end, status                  string
			total, rate, chargedPct, adjusted   string
			segments, payments                  sql.NullString
			generatedAt                         string
			confirmedBy, confirmedAt, comments  sql.NullString
		)
		if err := rows.Scan(&inv.ID, &inv.ProjectID, &inv.BillingPeriod, &start, &end,
			&total, &status, &rate, &chargedPct, &adjusted,
			&segments, &payments, &generatedAt, &confirmedBy, &confirmedAt, &comments); err != nil {
			return nil, err
		}
		if inv.Start, err = generic.ParseDate(start); err != nil {
			return nil, err
		}
		if inv.End, err = generic.ParseDate(end); err != nil {
			return nil, err
		}
		if inv.TotalCost, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		if inv.SeatRate, err = decimal.NewFromString(rate); err != nil {
			return nil, err
		}
		if inv.ChargedSeatPercent, err = decimal.NewFromString(chargedPct); err != nil {
			return nil, err
		}
		if inv.AdjustedTotal, err = decimal.NewFromString(adjusted); err != nil {
			return nil, err
		}
		inv.Status = billing.InvoiceStatus(status)
		if segments.Valid && segments.String != "" {
			if err := json.Unmarshal([]byte(segments.String), &inv.Segments); err != nil {
				return nil, err
			}
		}
		if payments.Valid && payments.String != "" {
			if err := json.Unmarshal([]byte(payments.String), &inv.Payments); err != nil {
				return nil, err
			}
		}
		if inv.GeneratedAt, err = time.Parse(time.RFC3339, generatedAt); err != nil {
			return nil, err
		}
		if confirmedBy.Valid {
			inv.ConfirmedBy = confirmedBy.String
		}
		if confirmedAt.Valid && confirmedAt.String != "" {
			if inv.ConfirmedAt, err = time.Parse(time.RFC3339, confirmedAt.String); err != nil {
				return nil, err
			}
		}
		if comments.Valid {
			inv.Comments = comments.String
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// =============================================================================
// DEV HELPERS
// =============================================================================

// Reset wipes all tables. Dev/seed use only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM tickets;
		DELETE FROM events;
		UPDATE sequence_counter SET value = 0 WHERE id = 1;
		DELETE FROM projects;
		DELETE FROM seats;
		DELETE FROM facilities;
		DELETE FROM holidays;
		DELETE FROM invoices;
	`)
	return err
}
