/*
dto.go - Wire types for the HTTP API

PURPOSE:
  Keeps JSON shapes separate from domain types. Domain types use
  TimePoint/decimal; the wire uses "YYYY-MM-DD" strings and JSON numbers
  formatted from decimals, matching what the frontend renders.

CONVERSION DIRECTION:
  Requests:  DTO -> factory -> domain (validation lives in factory)
  Responses: domain -> DTO here

SEE ALSO:
  - factory/ticket.go: Request payload parsing/validation
  - handlers.go: Uses these for every response
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/gamalielACN/SMTDraft/billing"
	"github.com/gamalielACN/SMTDraft/generic"
	"github.com/gamalielACN/SMTDraft/seating"
)

// =============================================================================
// REQUESTS
// =============================================================================

// CreateTicketRequest opens a ticket. FormData is stored verbatim and only
// parsed at approval.
type CreateTicketRequest struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId"`
	CreatedBy string          `json:"createdBy"`
	FormData  json.RawMessage `json:"formData"`
}

// ApproveTicketRequest carries the business-ops fields attached at approval.
type ApproveTicketRequest struct {
	BusOpsFields  json.RawMessage `json:"busOpsFields"`
	BusOpsComment string          `json:"busOpsComment"`
}

// RejectTicketRequest carries the rejection comment.
type RejectTicketRequest struct {
	BusOpsComment string `json:"busOpsComment"`
}

// AddCommentRequest appends a discussion entry to a ticket.
type AddCommentRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// GenerateInvoiceRequest names the project and window to bill.
type GenerateInvoiceRequest struct {
	ProjectID string `json:"projectId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// UpdateInvoiceRequest drives the confirmation flow: approve with payment
// splits (and optionally an adjusted total), or send back for revision.
type UpdateInvoiceRequest struct {
	Status        string       `json:"status"`
	AdjustedTotal string       `json:"adjustedTotal"`
	Payments      []PaymentDTO `json:"payments"`
	ConfirmedBy   string       `json:"confirmedBy"`
	Comments      string       `json:"comments"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type TicketDTO struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	ProjectID     string          `json:"projectId,omitempty"`
	CreatedBy     string          `json:"createdBy"`
	Status        string          `json:"status"`
	FormData      json.RawMessage `json:"formData"`
	BusOpsFields  json.RawMessage `json:"busOpsFields,omitempty"`
	BusOpsComment string          `json:"busOpsComment,omitempty"`
	Comments      []CommentDTO    `json:"comments"`
	CreatedAt     time.Time       `json:"createdDate"`
	LastModified  time.Time       `json:"lastModifiedDate"`
}

type CommentDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdDate"`
}

type AssignmentDTO struct {
	ID         string `json:"id"`
	SeatID     string `json:"seatId"`
	FacilityID string `json:"facilityId"`
	ProjectID  string `json:"projectId"`
	EmployeeID string `json:"employeeId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	IsActive   bool   `json:"isActive"`
}

type DiagnosticDTO struct {
	EventID   string `json:"eventId"`
	ProjectID string `json:"projectId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

type AssignmentsResponse struct {
	Assignments []AssignmentDTO `json:"assignments"`
	Diagnostics []DiagnosticDTO `json:"diagnostics,omitempty"`
}

type ProjectDTO struct {
	ID                 string        `json:"id"`
	ClientName         string        `json:"clientName"`
	ProjectName        string        `json:"projectName"`
	ProjectCode        string        `json:"projectCode,omitempty"`
	MetroCity          string        `json:"metroCity"`
	StartDate          string        `json:"startDate"`
	EndDate            string        `json:"endDate"`
	Status             string        `json:"status"`
	SeatCountPercent   string        `json:"seatCountPercent"`
	ChargedSeatPercent string        `json:"chargedSeatPercent"`
	SeatRate           string        `json:"seatRate"`
	WBSEntries         []WBSEntryDTO `json:"wbsEntries,omitempty"`
}

type WBSEntryDTO struct {
	ID        string `json:"id"`
	Code      string `json:"wbsCode"`
	IsActive  bool   `json:"isActive"`
	IsDefault bool   `json:"isDefault"`
}

type SeatDTO struct {
	ID         string `json:"id"`
	FacilityID string `json:"facilityId"`
	Code       string `json:"code"`
}

type FacilityDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MetroCity string `json:"metroCity"`
}

type HolidayDTO struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

type SegmentDTO struct {
	ID           string `json:"id"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Headcount    int    `json:"headcount"`
	ChargedSeats int    `json:"chargedSeats"`
	WorkingDays  int    `json:"workingDays"`
	Value        string `json:"value"`
}

type PaymentDTO struct {
	ID      string `json:"id"`
	WBSCode string `json:"wbsCode"`
	Amount  string `json:"amount"`
}

type InvoiceDTO struct {
	ID                 string       `json:"id"`
	ProjectID          string       `json:"projectId"`
	BillingPeriod      string       `json:"billingPeriod"`
	StartDate          string       `json:"startDate"`
	EndDate            string       `json:"endDate"`
	TotalCost          string       `json:"totalCost"`
	AdjustedTotal      string       `json:"adjustedTotal,omitempty"`
	Status             string       `json:"status"`
	SeatRate           string       `json:"seatRate"`
	ChargedSeatPercent string       `json:"chargedSeatPercent"`
	Segments           []SegmentDTO `json:"segments"`
	Payments           []PaymentDTO `json:"payments"`
	GeneratedAt        time.Time    `json:"generatedDate"`
	ConfirmedBy        string       `json:"confirmedBy,omitempty"`
	ConfirmedAt        *time.Time   `json:"confirmedDate,omitempty"`
	Comments           string       `json:"comments,omitempty"`
}

// ErrorResponse is the uniform error shape.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func ticketToDTO(t seating.Ticket) TicketDTO {
	dto := TicketDTO{
		ID:            t.ID,
		Type:          string(t.Type),
		ProjectID:     t.ProjectID,
		CreatedBy:     t.CreatedBy,
		Status:        string(t.Status),
		FormData:      t.FormData,
		BusOpsFields:  t.BusOpsFields,
		BusOpsComment: t.BusOpsComment,
		Comments:      []CommentDTO{},
		CreatedAt:     t.CreatedAt,
		LastModified:  t.LastModified,
	}
	for _, c := range t.Comments {
		dto.Comments = append(dto.Comments, CommentDTO(c))
	}
	return dto
}

func assignmentToDTO(a seating.Assignment, asOf generic.TimePoint) AssignmentDTO {
	return AssignmentDTO{
		ID:         a.ID,
		SeatID:     a.SeatID,
		FacilityID: a.FacilityID,
		ProjectID:  a.ProjectID,
		EmployeeID: a.EmployeeID,
		StartDate:  a.Start.String(),
		EndDate:    a.End.String(),
		IsActive:   a.ActiveOn(asOf),
	}
}

func projectToDTO(p seating.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:                 p.ID,
		ClientName:         p.ClientName,
		ProjectName:        p.ProjectName,
		ProjectCode:        p.ProjectCode,
		MetroCity:          p.MetroCity,
		StartDate:          p.Start.String(),
		EndDate:            p.End.String(),
		Status:             p.Status,
		SeatCountPercent:   p.SeatCountPercent.String(),
		ChargedSeatPercent: p.ChargedSeatPercent.String(),
		SeatRate:           p.SeatRate.String(),
	}
	for _, w := range p.WBSEntries {
		dto.WBSEntries = append(dto.WBSEntries, WBSEntryDTO{
			ID: w.ID, Code: w.Code, IsActive: w.IsActive, IsDefault: w.IsDefault,
		})
	}
	return dto
}

func invoiceToDTO(inv billing.Invoice) InvoiceDTO {
	dto := InvoiceDTO{
		ID:                 inv.ID,
		ProjectID:          inv.ProjectID,
		BillingPeriod:      inv.BillingPeriod,
		StartDate:          inv.Start.String(),
		EndDate:            inv.End.String(),
		TotalCost:          inv.TotalCost.String(),
		Status:             string(inv.Status),
		SeatRate:           inv.SeatRate.String(),
		ChargedSeatPercent: inv.ChargedSeatPercent.String(),
		Segments:           []SegmentDTO{},
		Payments:           []PaymentDTO{},
		GeneratedAt:        inv.GeneratedAt,
		ConfirmedBy:        inv.ConfirmedBy,
		Comments:           inv.Comments,
	}
	if !inv.AdjustedTotal.IsZero() {
		dto.AdjustedTotal = inv.AdjustedTotal.String()
	}
	if !inv.ConfirmedAt.IsZero() {
		t := inv.ConfirmedAt
		dto.ConfirmedAt = &t
	}
	for _, s := range inv.Segments {
		dto.Segments = append(dto.Segments, SegmentDTO{
			ID:           s.ID,
			StartDate:    s.Start.String(),
			EndDate:      s.End.String(),
			Headcount:    s.Headcount,
			ChargedSeats: s.ChargedSeats,
			WorkingDays:  s.WorkingDays,
			Value:        s.Value.String(),
		})
	}
	for _, p := range inv.Payments {
		dto.Payments = append(dto.Payments, PaymentDTO{ID: p.ID, WBSCode: p.WBSCode, Amount: p.Amount.String()})
	}
	return dto
}

func holidayToDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date.String(), Name: h.Name, IsActive: h.IsActive}
}
