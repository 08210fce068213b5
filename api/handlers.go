/*
handlers.go - HTTP handlers for the seat management API

PURPOSE:
  Implements the REST endpoints: the ticket workflow (create, approve,
  reject, comment), the derived assignment view, invoice generation and
  confirmation, and catalog/holiday queries.

APPROVAL PATH (the critical section):
  Approving a seat_allocation ticket takes the project's write lock, then:
  obtain the next sequence number, parse the payload into an
  AllocationEvent, and commit the event append together with the ticket
  finalization in one store transaction, then invalidate the cached view.
  Two concurrent approvals for one project cannot interleave, so sequence
  order equals approval order.

ERROR MAPPING:
  generic.IsClientError -> 400
  generic.IsNotFound    -> 404
  anything else         -> 500 (logged, not leaked)

SEE ALSO:
  - server.go: Route wiring
  - factory/ticket.go: Payload validation
  - seating/reconciler.go: The derived view
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/gamalielACN/SMTDraft/billing"
	"github.com/gamalielACN/SMTDraft/factory"
	"github.com/gamalielACN/SMTDraft/generic"
	"github.com/gamalielACN/SMTDraft/seating"
	"github.com/gamalielACN/SMTDraft/store/sqlite"
)

// Handler carries the wired dependencies for all endpoints.
type Handler struct {
	Store   *sqlite.Store
	Factory *factory.TicketFactory
	Log     logrus.FieldLogger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time

	locks *projectLocks
	cache *viewCache
}

func NewHandler(store *sqlite.Store, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Store:   store,
		Factory: factory.NewTicketFactory(),
		Log:     log,
		Now:     time.Now,
		locks:   newProjectLocks(),
		cache:   &viewCache{},
	}
}

// =============================================================================
// TICKETS
// =============================================================================

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req CreateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}

	tt := seating.TicketType(req.Type)
	if tt != seating.TicketProjectSetup && tt != seating.TicketSeatAllocation {
		h.writeError(w, http.StatusBadRequest, "unknown ticket type", "type")
		return
	}
	if len(req.FormData) == 0 {
		h.writeError(w, http.StatusBadRequest, "formData is required", "formData")
		return
	}
	if tt == seating.TicketSeatAllocation && req.ProjectID == "" {
		// Allocation may also name the project inside the form; checked at approval.
		var form factory.SeatAllocationForm
		if json.Unmarshal(req.FormData, &form) != nil || form.ProjectID == "" {
			h.writeError(w, http.StatusBadRequest, "project id is required", "projectId")
			return
		}
	}

	id, err := h.Store.NextTicketID(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}

	now := h.Now()
	t := seating.Ticket{
		ID:           id,
		Type:         tt,
		ProjectID:    req.ProjectID,
		CreatedBy:    req.CreatedBy,
		Status:       seating.StatusPending,
		FormData:     req.FormData,
		CreatedAt:    now,
		LastModified: now,
	}
	if err := h.Store.SaveTicket(r.Context(), t); err != nil {
		h.serverError(w, err)
		return
	}

	h.Log.WithFields(logrus.Fields{"ticket": t.ID, "type": t.Type}).Info("ticket created")
	h.writeJSON(w, http.StatusCreated, ticketToDTO(t))
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.Store.ListTickets(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	out := make([]TicketDTO, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, ticketToDTO(t))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.Store.GetTicket(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.serverError(w, err)
		return
	}
	if t == nil {
		h.writeError(w, http.StatusNotFound, generic.ErrTicketNotFound.Error(), "")
		return
	}
	h.writeJSON(w, http.StatusOK, ticketToDTO(*t))
}

// ApproveTicket finalizes a pending ticket. For seat allocations this is the
// only place events enter the log.
func (h *Handler) ApproveTicket(w http.ResponseWriter, r *http.Request) {
	var req ApproveTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}

	t, err := h.Store.GetTicket(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.serverError(w, err)
		return
	}
	if t == nil {
		h.writeError(w, http.StatusNotFound, generic.ErrTicketNotFound.Error(), "")
		return
	}
	if t.Final() {
		h.writeError(w, http.StatusBadRequest, generic.ErrTicketFinalized.Error(), "")
		return
	}
	t.BusOpsFields = req.BusOpsFields
	t.BusOpsComment = req.BusOpsComment
	t.Status = seating.StatusApproved
	t.LastModified = h.Now()

	switch t.Type {
	case seating.TicketProjectSetup:
		err = h.approveProjectSetup(r, t)
	case seating.TicketSeatAllocation:
		err = h.approveSeatAllocation(r, t)
	default:
		h.writeError(w, http.StatusBadRequest, "unknown ticket type", "type")
		return
	}
	if err != nil {
		h.domainError(w, err)
		return
	}

	h.Log.WithFields(logrus.Fields{"ticket": t.ID, "type": t.Type}).Info("ticket approved")
	h.writeJSON(w, http.StatusOK, ticketToDTO(*t))
}

func (h *Handler) approveProjectSetup(r *http.Request, t *seating.Ticket) error {
	id, err := h.Store.NextProjectID(r.Context())
	if err != nil {
		return err
	}
	project, err := h.Factory.ParseProject(*t, id)
	if err != nil {
		return err
	}
	if err := h.Store.SaveProject(r.Context(), project); err != nil {
		return err
	}
	t.ProjectID = project.ID
	if err := h.Store.SaveTicket(r.Context(), *t); err != nil {
		return err
	}
	h.cache.invalidate()
	return nil
}

func (h *Handler) approveSeatAllocation(r *http.Request, t *seating.Ticket) error {
	projectID := t.ProjectID
	if projectID == "" {
		var form factory.SeatAllocationForm
		if json.Unmarshal(t.FormData, &form) == nil {
			projectID = form.ProjectID
		}
	}
	if projectID == "" {
		return &generic.ValidationError{Field: "projectId", Message: "project id is required"}
	}
	project, err := h.Store.GetProject(r.Context(), projectID)
	if err != nil {
		return err
	}
	if project == nil {
		return generic.ErrProjectNotFound
	}

	// Critical section: sequence assignment and append must not interleave
	// with another approval for this project.
	unlock := h.locks.Lock(projectID)
	defer unlock()

	seq, err := h.Store.NextSequence(r.Context())
	if err != nil {
		return err
	}
	event, err := h.Factory.ParseAllocation(*t, seq)
	if err != nil {
		return err
	}
	t.ProjectID = event.ProjectID
	t.Sequence = seq
	// Event append and ticket finalization commit together: a ticket must
	// never stay pending once its event is durably in the log.
	if err := h.Store.ApproveAllocation(r.Context(), *t, event); err != nil {
		return err
	}
	h.cache.invalidate()
	return nil
}

func (h *Handler) RejectTicket(w http.ResponseWriter, r *http.Request) {
	var req RejectTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}

	t, err := h.Store.GetTicket(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.serverError(w, err)
		return
	}
	if t == nil {
		h.writeError(w, http.StatusNotFound, generic.ErrTicketNotFound.Error(), "")
		return
	}
	if t.Final() {
		h.writeError(w, http.StatusBadRequest, generic.ErrTicketFinalized.Error(), "")
		return
	}

	t.Status = seating.StatusRejected
	t.BusOpsComment = req.BusOpsComment
	t.LastModified = h.Now()
	if err := h.Store.SaveTicket(r.Context(), *t); err != nil {
		h.serverError(w, err)
		return
	}

	h.Log.WithField("ticket", t.ID).Info("ticket rejected")
	h.writeJSON(w, http.StatusOK, ticketToDTO(*t))
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}
	if req.Message == "" {
		h.writeError(w, http.StatusBadRequest, "message is required", "message")
		return
	}

	t, err := h.Store.GetTicket(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.serverError(w, err)
		return
	}
	if t == nil {
		h.writeError(w, http.StatusNotFound, generic.ErrTicketNotFound.Error(), "")
		return
	}

	t.Comments = append(t.Comments, seating.Comment{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Message:   req.Message,
		CreatedAt: h.Now(),
	})
	t.LastModified = h.Now()
	if err := h.Store.SaveTicket(r.Context(), *t); err != nil {
		h.serverError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ticketToDTO(*t))
}

// =============================================================================
// ASSIGNMENTS (derived view)
// =============================================================================

// reconcile returns the cached reconciliation result, replaying the log if
// the cache is empty.
func (h *Handler) reconcile(r *http.Request) (*seating.Result, error) {
	if res := h.cache.get(); res != nil {
		return res, nil
	}

	events, err := h.Store.Events(r.Context())
	if err != nil {
		return nil, err
	}
	catalog, err := h.Store.LoadCatalog(r.Context())
	if err != nil {
		return nil, err
	}
	projects, err := h.Store.ProjectMap(r.Context())
	if err != nil {
		return nil, err
	}

	res, err := seating.NewReconciler(catalog, projects, h.Log).Reconcile(events)
	if err != nil {
		return nil, err
	}
	h.cache.set(res)
	return res, nil
}

func (h *Handler) GetAssignments(w http.ResponseWriter, r *http.Request) {
	res, err := h.reconcile(r)
	if err != nil {
		h.serverError(w, err)
		return
	}

	asOf := generic.FromTime(h.Now())
	if d := r.URL.Query().Get("date"); d != "" {
		if asOf, err = generic.ParseDate(d); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD", "date")
			return
		}
	}

	assignments := res.Assignments
	if pid := r.URL.Query().Get("projectId"); pid != "" {
		assignments = res.ForProject(pid)
	}
	if r.URL.Query().Get("active") == "true" {
		var live []seating.Assignment
		for _, a := range assignments {
			if a.ActiveOn(asOf) {
				live = append(live, a)
			}
		}
		assignments = live
	}

	resp := AssignmentsResponse{Assignments: []AssignmentDTO{}}
	for _, a := range assignments {
		resp.Assignments = append(resp.Assignments, assignmentToDTO(a, asOf))
	}
	for _, d := range res.Diagnostics {
		resp.Diagnostics = append(resp.Diagnostics, DiagnosticDTO{
			EventID:   d.EventID,
			ProjectID: d.ProjectID,
			Code:      string(d.Code),
			Message:   d.Message,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// PROJECTS
// =============================================================================

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	out := make([]ProjectDTO, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectToDTO(p))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.serverError(w, err)
		return
	}
	if p == nil {
		h.writeError(w, http.StatusNotFound, generic.ErrProjectNotFound.Error(), "")
		return
	}
	h.writeJSON(w, http.StatusOK, projectToDTO(*p))
}

// UpdateProjectWBS replaces a project's WBS entries. Codes referenced by
// existing invoice payments cannot be removed or deactivated: invoices must
// stay attributable.
func (h *Handler) UpdateProjectWBS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WBSEntries []WBSEntryDTO `json:"wbsEntries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}

	p, err := h.Store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.serverError(w, err)
		return
	}
	if p == nil {
		h.writeError(w, http.StatusNotFound, generic.ErrProjectNotFound.Error(), "")
		return
	}

	active := make(map[string]bool)
	var entries []seating.WBSEntry
	for _, e := range req.WBSEntries {
		entries = append(entries, seating.WBSEntry{ID: e.ID, Code: e.Code, IsActive: e.IsActive, IsDefault: e.IsDefault})
		if e.IsActive {
			active[e.Code] = true
		}
	}

	invoices, err := h.Store.ListInvoices(r.Context(), p.ID)
	if err != nil {
		h.serverError(w, err)
		return
	}
	for _, inv := range invoices {
		for _, pay := range inv.Payments {
			if !active[pay.WBSCode] {
				h.writeError(w, http.StatusBadRequest,
					"WBS code "+pay.WBSCode+" is referenced by invoice "+inv.ID+" and cannot be removed or deactivated",
					"wbsEntries")
				return
			}
		}
	}

	p.WBSEntries = entries
	if err := h.Store.SaveProject(r.Context(), *p); err != nil {
		h.serverError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, projectToDTO(*p))
}

// =============================================================================
// INVOICES
// =============================================================================

func (h *Handler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	var req GenerateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}

	project, err := h.Store.GetProject(r.Context(), req.ProjectID)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if project == nil {
		h.writeError(w, http.StatusNotFound, generic.ErrProjectNotFound.Error(), "")
		return
	}

	start, err := generic.ParseDate(req.StartDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid start date, want YYYY-MM-DD", "startDate")
		return
	}
	end, err := generic.ParseDate(req.EndDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid end date, want YYYY-MM-DD", "endDate")
		return
	}
	window := generic.Period{Start: start, End: end}

	events, err := h.Store.EventsForProject(r.Context(), project.ID)
	if err != nil {
		h.serverError(w, err)
		return
	}
	calendar, err := h.Store.LoadCalendar(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}

	engine := billing.NewEngine(calendar)
	engine.Now = h.Now
	inv, err := engine.Generate(*project, window, events)
	if err != nil {
		h.domainError(w, err)
		return
	}

	// Overlapping invoices are allowed (regeneration after corrections is
	// normal) but worth flagging.
	existing, err := h.Store.ListInvoices(r.Context(), project.ID)
	if err != nil {
		h.serverError(w, err)
		return
	}
	for _, prev := range existing {
		if prev.Status != billing.StatusRejected &&
			(generic.Period{Start: prev.Start, End: prev.End}).Overlaps(window) {
			h.Log.WithFields(logrus.Fields{
				"project": project.ID,
				"invoice": prev.ID,
				"window":  window.Start.String() + ".." + window.End.String(),
			}).Warn("new invoice overlaps an existing one")
			break
		}
	}

	if err := h.Store.SaveInvoice(r.Context(), inv); err != nil {
		h.serverError(w, err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"invoice": inv.ID,
		"project": inv.ProjectID,
		"total":   inv.TotalCost.String(),
	}).Info("invoice generated")
	h.writeJSON(w, http.StatusCreated, invoiceToDTO(*inv))
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.Store.ListInvoices(r.Context(), r.URL.Query().Get("projectId"))
	if err != nil {
		h.serverError(w, err)
		return
	}
	out := make([]InvoiceDTO, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, invoiceToDTO(inv))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Store.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.serverError(w, err)
		return
	}
	if inv == nil {
		h.writeError(w, http.StatusNotFound, generic.ErrInvoiceNotFound.Error(), "")
		return
	}
	h.writeJSON(w, http.StatusOK, invoiceToDTO(*inv))
}

// UpdateInvoice drives the confirmation flow. Approval requires payment
// splits summing exactly to the billed total; pending_revision just records
// the comment for the next pass.
func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	var req UpdateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}

	inv, err := h.Store.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.serverError(w, err)
		return
	}
	if inv == nil {
		h.writeError(w, http.StatusNotFound, generic.ErrInvoiceNotFound.Error(), "")
		return
	}

	status := billing.InvoiceStatus(req.Status)
	switch status {
	case billing.StatusApproved, billing.StatusPendingRevision, billing.StatusRejected:
	default:
		h.writeError(w, http.StatusBadRequest, "unknown invoice status", "status")
		return
	}

	if req.AdjustedTotal != "" {
		adjusted, err := decimal.NewFromString(req.AdjustedTotal)
		if err != nil || adjusted.IsNegative() {
			h.writeError(w, http.StatusBadRequest, "adjusted total must be a non-negative number", "adjustedTotal")
			return
		}
		inv.AdjustedTotal = adjusted
	}

	if status == billing.StatusApproved {
		payments, err := parsePayments(req.Payments)
		if err != nil {
			h.domainError(w, err)
			return
		}
		if len(payments) == 0 {
			payments = inv.Payments
		}
		if err := inv.ValidatePayments(payments); err != nil {
			h.domainError(w, err)
			return
		}
		inv.Payments = payments
		inv.ConfirmedBy = req.ConfirmedBy
		inv.ConfirmedAt = h.Now()
	}

	inv.Status = status
	inv.Comments = req.Comments
	if err := h.Store.SaveInvoice(r.Context(), inv); err != nil {
		h.serverError(w, err)
		return
	}

	h.Log.WithFields(logrus.Fields{"invoice": inv.ID, "status": inv.Status}).Info("invoice updated")
	h.writeJSON(w, http.StatusOK, invoiceToDTO(*inv))
}

func parsePayments(dtos []PaymentDTO) ([]billing.Payment, error) {
	var out []billing.Payment
	for _, p := range dtos {
		amount, err := decimal.NewFromString(p.Amount)
		if err != nil {
			return nil, &generic.ValidationError{Field: "payments", Message: "payment amount must be a number"}
		}
		id := p.ID
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, billing.Payment{ID: id, WBSCode: p.WBSCode, Amount: amount})
	}
	return out, nil
}

// =============================================================================
// CATALOG / HOLIDAYS / HEALTH
// =============================================================================

func (h *Handler) ListSeats(w http.ResponseWriter, r *http.Request) {
	seats, err := h.Store.ListSeats(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	out := make([]SeatDTO, 0, len(seats))
	for _, s := range seats {
		out = append(out, SeatDTO(s))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListFacilities(w http.ResponseWriter, r *http.Request) {
	facilities, err := h.Store.ListFacilities(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	out := make([]FacilityDTO, 0, len(facilities))
	for _, f := range facilities {
		out = append(out, FacilityDTO(f))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	out := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		out = append(out, holidayToDTO(hol))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD", "date")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required", "name")
		return
	}

	hol := generic.Holiday{ID: uuid.NewString(), Date: date, Name: req.Name, IsActive: req.IsActive}
	if err := h.Store.SaveHoliday(r.Context(), hol); err != nil {
		h.serverError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, holidayToDTO(hol))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.WithError(err).Error("failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg, field string) {
	h.writeJSON(w, status, ErrorResponse{Error: msg, Field: field})
}

// domainError maps engine/factory errors onto HTTP statuses.
func (h *Handler) domainError(w http.ResponseWriter, err error) {
	switch {
	case generic.IsNotFound(err):
		h.writeError(w, http.StatusNotFound, err.Error(), "")
	case generic.IsClientError(err):
		field := ""
		var ve *generic.ValidationError
		if errors.As(err, &ve) {
			field = ve.Field
		}
		h.writeError(w, http.StatusBadRequest, err.Error(), field)
	default:
		h.serverError(w, err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	h.Log.WithError(err).Error("internal error")
	h.writeError(w, http.StatusInternalServerError, "internal server error", "")
}
