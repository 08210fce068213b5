/*
Package factory converts ticket JSON payloads into domain objects.

PURPOSE:
  Ticket forms arrive as JSON from the frontend and are stored verbatim;
  only at approval time do they become real domain objects. The factory
  owns that conversion plus all input validation, so bad payloads are
  rejected with a display-ready message before any computation runs.

WHY JSON?
  - The two ticket types carry different forms
  - Payloads are stored as submitted, for audit
  - Business-ops fields (rates, percentages) are typed in by operators as
    strings and need careful parsing

VALIDATION:
  Structural validation via go-playground/validator struct tags; semantic
  checks (end after start, employee list vs headcount) are explicit. All
  failures come back as *generic.ValidationError.

SEE ALSO:
  - seating/ticket.go: The stored ticket record
  - api/handlers.go: Calls the factory at approval time
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/gamalielACN/SMTDraft/generic"
	"github.com/gamalielACN/SMTDraft/seating"
)

// Defaults applied when business ops leaves a percentage blank. Rates have
// no default: an unset rate is a validation error.
var (
	DefaultSeatCountPercent   = decimal.NewFromInt(70)
	DefaultChargedSeatPercent = decimal.NewFromInt(75)
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// SeatAllocationForm is the payload of a seat_allocation ticket.
type SeatAllocationForm struct {
	ProjectID      string   `json:"projectId"`
	StartDate      string   `json:"startDate" validate:"required"`
	EndDate        string   `json:"endDate" validate:"required"`
	Headcount      int      `json:"headcount" validate:"required,min=1"`
	SeatCount      int      `json:"seatCount" validate:"omitempty,min=0"`
	EmployeeEmails []string `json:"employeeEmails" validate:"omitempty,dive,email"`
	Reason         string   `json:"reason"`
}

// WBSEntryForm mirrors seating.WBSEntry on the wire.
type WBSEntryForm struct {
	ID        string `json:"id"`
	Code      string `json:"wbsCode" validate:"required"`
	IsActive  bool   `json:"isActive"`
	IsDefault bool   `json:"isDefault"`
}

// ProjectSetupForm is the payload of a project_setup ticket.
type ProjectSetupForm struct {
	ClientName        string         `json:"clientName" validate:"required"`
	ProjectName       string         `json:"projectName" validate:"required"`
	ProjectCode       string         `json:"projectCode"`
	MetroCity         string         `json:"metroCity" validate:"required"`
	StartDate         string         `json:"startDate" validate:"required"`
	EndDate           string         `json:"endDate" validate:"required"`
	DeliveryLeadEmail string         `json:"deliveryLeadEmail" validate:"omitempty,email"`
	WBSEntries        []WBSEntryForm `json:"wbsEntries" validate:"omitempty,dive"`
}

// BusOpsFields are operator-entered billing parameters attached at approval.
// Values arrive as strings from the form.
type BusOpsFields struct {
	SeatCountPercent   string `json:"seatCountPercent"`
	ChargedSeatPercent string `json:"chargedSeatPercent"`
	SeatRate           string `json:"seatRate" validate:"required"`
}

// =============================================================================
// TICKET FACTORY
// =============================================================================

type TicketFactory struct {
	validate *validator.Validate
}

func NewTicketFactory() *TicketFactory {
	return &TicketFactory{validate: validator.New()}
}

// ParseAllocation converts an approved seat_allocation ticket into an
// AllocationEvent carrying the given sequence number.
func (f *TicketFactory) ParseAllocation(t seating.Ticket, sequence int64) (seating.AllocationEvent, error) {
	var form SeatAllocationForm
	if err := json.Unmarshal(t.FormData, &form); err != nil {
		return seating.AllocationEvent{}, &generic.ValidationError{Field: "formData", Message: "malformed seat allocation payload"}
	}
	if err := f.validate.Struct(form); err != nil {
		return seating.AllocationEvent{}, validationError(err)
	}

	start, end, err := parseRange(form.StartDate, form.EndDate)
	if err != nil {
		return seating.AllocationEvent{}, err
	}
	if len(form.EmployeeEmails) > form.Headcount {
		return seating.AllocationEvent{}, &generic.ValidationError{
			Field:   "employeeEmails",
			Message: fmt.Sprintf("%d employees listed but headcount is %d", len(form.EmployeeEmails), form.Headcount),
		}
	}

	projectID := form.ProjectID
	if projectID == "" {
		projectID = t.ProjectID
	}
	if projectID == "" {
		return seating.AllocationEvent{}, &generic.ValidationError{Field: "projectId", Message: "project id is required"}
	}

	return seating.AllocationEvent{
		ID:             t.ID,
		ProjectID:      projectID,
		Sequence:       sequence,
		Start:          start,
		End:            end,
		Headcount:      form.Headcount,
		SeatCount:      form.SeatCount,
		EmployeeEmails: form.EmployeeEmails,
		Status:         seating.StatusApproved,
	}, nil
}

// ParseProject converts an approved project_setup ticket plus its busops
// fields into a Project with the given id.
func (f *TicketFactory) ParseProject(t seating.Ticket, id string) (seating.Project, error) {
	var form ProjectSetupForm
	if err := json.Unmarshal(t.FormData, &form); err != nil {
		return seating.Project{}, &generic.ValidationError{Field: "formData", Message: "malformed project setup payload"}
	}
	if err := f.validate.Struct(form); err != nil {
		return seating.Project{}, validationError(err)
	}

	start, end, err := parseRange(form.StartDate, form.EndDate)
	if err != nil {
		return seating.Project{}, err
	}

	var ops BusOpsFields
	if len(t.BusOpsFields) > 0 {
		if err := json.Unmarshal(t.BusOpsFields, &ops); err != nil {
			return seating.Project{}, &generic.ValidationError{Field: "busOpsFields", Message: "malformed business ops fields"}
		}
	}
	if err := f.validate.Struct(ops); err != nil {
		return seating.Project{}, validationError(err)
	}

	rate, err := decimal.NewFromString(ops.SeatRate)
	if err != nil || !rate.IsPositive() {
		return seating.Project{}, &generic.ValidationError{Field: "seatRate", Message: "seat rate must be a positive number"}
	}

	project := seating.Project{
		ID:                 id,
		ClientName:         form.ClientName,
		ProjectName:        form.ProjectName,
		ProjectCode:        form.ProjectCode,
		MetroCity:          form.MetroCity,
		Start:              start,
		End:                end,
		Status:             "active",
		SeatCountPercent:   percentOrDefault(ops.SeatCountPercent, DefaultSeatCountPercent),
		ChargedSeatPercent: percentOrDefault(ops.ChargedSeatPercent, DefaultChargedSeatPercent),
		SeatRate:           rate,
	}
	for _, w := range form.WBSEntries {
		project.WBSEntries = append(project.WBSEntries, seating.WBSEntry{
			ID:        w.ID,
			Code:      w.Code,
			IsActive:  w.IsActive,
			IsDefault: w.IsDefault,
		})
	}
	return project, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func parseRange(startStr, endStr string) (generic.TimePoint, generic.TimePoint, error) {
	start, err := generic.ParseDate(startStr)
	if err != nil {
		return generic.TimePoint{}, generic.TimePoint{}, &generic.ValidationError{Field: "startDate", Message: err.Error()}
	}
	end, err := generic.ParseDate(endStr)
	if err != nil {
		return generic.TimePoint{}, generic.TimePoint{}, &generic.ValidationError{Field: "endDate", Message: err.Error()}
	}
	if !end.After(start) {
		return generic.TimePoint{}, generic.TimePoint{}, &generic.ValidationError{Field: "endDate", Message: "end date must be after start date"}
	}
	return start, end, nil
}

func percentOrDefault(s string, def decimal.Decimal) decimal.Decimal {
	if s == "" {
		return def
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return def
	}
	return d
}

// validationError flattens validator's error list into the first offending
// field, display-ready.
func validationError(err error) error {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fe := errs[0]
		return &generic.ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("failed %s validation", fe.Tag()),
		}
	}
	return &generic.ValidationError{Message: err.Error()}
}
