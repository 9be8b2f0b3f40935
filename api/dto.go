/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Day
  quantities leave the API as decimal numbers of days ("1.5"), never as
  the internal hundredths.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Bodies that map onto a service input (employees, types, requests,
  holidays, balances) reuse the timeoff input structs directly and are
  validated by the service.

SEE ALSO:
  - handlers.go: Uses these types
  - timeoff/validation.go: Input structs and their rules
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/peopledear/peopledear/generic"
	"github.com/peopledear/peopledear/timeoff"
)

// days renders an amount as a JSON number of days.
func days(a generic.Amount) json.Number {
	return json.Number(a.Days().String())
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

type CreateOrganizationRequest struct {
	Name string `json:"name"`
}

type CreatePeriodRequest struct {
	Year int `json:"year"`
}

// DecisionRequest is the body of approve and cancel.
type DecisionRequest struct {
	ActorID string `json:"actor_id"`
}

type RejectRequest struct {
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type ErrorResponse struct {
	Error  string               `json:"error"`
	Fields []generic.FieldError `json:"fields,omitempty"`
}

type OrganizationDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toOrganizationDTO(o generic.Organization) OrganizationDTO {
	return OrganizationDTO{ID: string(o.ID), Name: o.Name, CreatedAt: o.CreatedAt}
}

type EmployeeDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toEmployeeDTO(e generic.Employee) EmployeeDTO {
	return EmployeeDTO{ID: string(e.ID), Name: e.Name, Email: e.Email, Role: string(e.Role), CreatedAt: e.CreatedAt}
}

type TimeOffTypeDTO struct {
	ID                    string      `json:"id"`
	Kind                  string      `json:"kind"`
	Name                  string      `json:"name"`
	RequiresApproval      bool        `json:"requires_approval"`
	RequiresJustification bool        `json:"requires_justification"`
	BalanceMode           string      `json:"balance_mode"`
	IsActive              bool        `json:"is_active"`
	AnnualAllowance       json.Number `json:"annual_allowance"`
	AccrualDaysPerMonth   json.Number `json:"accrual_days_per_month"`
	CarryOverEnabled      bool        `json:"carry_over_enabled"`
	CarryOverLimit        json.Number `json:"carry_over_limit"`
	MaxDaysPerRequest     json.Number `json:"max_days_per_request"`
	MaxRequestsPerYear    int         `json:"max_requests_per_year"`
}

func toTimeOffTypeDTO(t timeoff.TimeOffType) TimeOffTypeDTO {
	return TimeOffTypeDTO{
		ID:                    t.ID,
		Kind:                  string(t.Kind),
		Name:                  t.Name,
		RequiresApproval:      t.RequiresApproval,
		RequiresJustification: t.RequiresJustification,
		BalanceMode:           string(t.BalanceMode),
		IsActive:              t.IsActive,
		AnnualAllowance:       days(t.Config.AnnualAllowance),
		AccrualDaysPerMonth:   days(t.Config.AccrualDaysPerMonth),
		CarryOverEnabled:      t.Config.CarryOverEnabled,
		CarryOverLimit:        days(t.Config.CarryOverLimit),
		MaxDaysPerRequest:     days(t.Config.MaxDaysPerRequest),
		MaxRequestsPerYear:    t.Config.MaxRequestsPerYear,
	}
}

type RequestDTO struct {
	ID         string      `json:"id"`
	EmployeeID string      `json:"employee_id"`
	TypeID     string      `json:"time_off_type_id"`
	PeriodID   string      `json:"period_id"`
	Kind       string      `json:"kind"`
	Status     string      `json:"status"`
	StartDate  string      `json:"start_date"`
	EndDate    *string     `json:"end_date,omitempty"`
	IsHalfDay  bool        `json:"is_half_day"`
	Reason     string      `json:"reason,omitempty"`
	Days       json.Number `json:"days"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func toRequestDTO(r timeoff.TimeOffRequest) RequestDTO {
	dto := RequestDTO{
		ID:         r.ID,
		EmployeeID: string(r.EmployeeID),
		TypeID:     r.TypeID,
		PeriodID:   r.PeriodID,
		Kind:       string(r.Kind),
		Status:     string(r.Status),
		StartDate:  r.StartDate.String(),
		IsHalfDay:  r.IsHalfDay,
		Reason:     r.Reason,
		Days:       days(r.Amount()),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.EndDate != nil {
		end := r.EndDate.String()
		dto.EndDate = &end
	}
	return dto
}

type ApprovalDTO struct {
	ID              string     `json:"id"`
	ApprovableType  string     `json:"approvable_type"`
	ApprovableID    string     `json:"approvable_id"`
	Status          string     `json:"status"`
	ApprovedBy      string     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toApprovalDTO(a generic.Approval) ApprovalDTO {
	return ApprovalDTO{
		ID:              a.ID,
		ApprovableType:  a.ApprovableType,
		ApprovableID:    a.ApprovableID,
		Status:          string(a.Status),
		ApprovedBy:      string(a.ApprovedBy),
		ApprovedAt:      a.ApprovedAt,
		RejectionReason: a.RejectionReason,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// SubmissionDTO is the response of POST /api/requests.
type SubmissionDTO struct {
	Request  RequestDTO  `json:"request"`
	Approval ApprovalDTO `json:"approval"`
}

type BalanceDTO struct {
	EmployeeID   string      `json:"employee_id"`
	Year         int         `json:"year"`
	FromLastYear json.Number `json:"from_last_year"`
	Accrued      json.Number `json:"accrued"`
	Taken        json.Number `json:"taken"`
	Remaining    json.Number `json:"remaining"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func toBalanceDTO(b timeoff.VacationBalance) BalanceDTO {
	return BalanceDTO{
		EmployeeID:   string(b.EmployeeID),
		Year:         b.Year,
		FromLastYear: days(b.FromLastYear),
		Accrued:      days(b.Accrued),
		Taken:        days(b.Taken),
		Remaining:    days(b.Remaining()),
		UpdatedAt:    b.UpdatedAt,
	}
}

type PeriodDTO struct {
	ID        string    `json:"id"`
	Year      int       `json:"year"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toPeriodDTO(p generic.Period) PeriodDTO {
	return PeriodDTO{
		ID:        p.ID,
		Year:      p.Year,
		Start:     p.Start.String(),
		End:       p.End.String(),
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
	}
}

type HolidayDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date.String(), Name: h.Name, Recurring: h.Recurring}
}

type AuditEntryDTO struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	ActorID     string         `json:"actor_id"`
	Action      string         `json:"action"`
	SubjectType string         `json:"subject_type"`
	SubjectID   string         `json:"subject_id"`
	Payload     map[string]any `json:"payload,omitempty"`
}

func toAuditEntryDTO(e generic.AuditEntry) AuditEntryDTO {
	return AuditEntryDTO{
		ID:          e.ID,
		Timestamp:   e.Timestamp,
		ActorID:     string(e.ActorID),
		Action:      string(e.Action),
		SubjectType: e.SubjectType,
		SubjectID:   e.SubjectID,
		Payload:     e.Payload,
	}
}

// ScenarioDTO describes a demo dataset.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ScenarioLoadedDTO is the response of POST /api/scenarios/load.
type ScenarioLoadedDTO struct {
	Scenario     ScenarioDTO     `json:"scenario"`
	Organization OrganizationDTO `json:"organization"`
	Employees    []EmployeeDTO   `json:"employees"`
}

// mapSlice converts every element with fn, returning an empty (not nil)
// slice so lists encode as [].
func mapSlice[T, D any](in []T, fn func(T) D) []D {
	out := make([]D, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
