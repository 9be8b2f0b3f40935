// Package timeoff implements the time-off request lifecycle: submission,
// approval, rejection and cancellation, with per-kind processors and
// validators resolved through a registry and every state change run in a
// single store transaction.
package timeoff

import (
	"time"

	"github.com/peopledear/peopledear/generic"
)

// =============================================================================
// TIME-OFF TYPE
// =============================================================================

// TypeKind is the closed set of built-in time-off behaviors.
type TypeKind string

const (
	KindVacation    TypeKind = "vacation"
	KindSickLeave   TypeKind = "sick_leave"
	KindPersonalDay TypeKind = "personal_day"
	KindBereavement TypeKind = "bereavement"
)

// Kinds lists every built-in kind.
var Kinds = []TypeKind{KindVacation, KindSickLeave, KindPersonalDay, KindBereavement}

func (k TypeKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

type BalanceMode string

const (
	BalanceNone   BalanceMode = "none"
	BalanceAnnual BalanceMode = "annual"
)

// BalanceConfig holds the limits a type may impose. Zero values mean no limit.
type BalanceConfig struct {
	AnnualAllowance     generic.Amount
	AccrualDaysPerMonth generic.Amount
	CarryOverEnabled    bool
	CarryOverLimit      generic.Amount
	MaxDaysPerRequest   generic.Amount
	MaxRequestsPerYear  int
}

// TimeOffType is an organization's configuration of one kind of leave.
type TimeOffType struct {
	ID                    string
	OrganizationID        generic.OrganizationID
	Kind                  TypeKind
	Name                  string
	RequiresApproval      bool
	RequiresJustification bool
	BalanceMode           BalanceMode
	IsActive              bool
	Config                BalanceConfig
}

// =============================================================================
// TIME-OFF REQUEST
// =============================================================================

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

// Blocking reports whether a request in this status holds its days.
func (s RequestStatus) Blocking() bool {
	return s == StatusPending || s == StatusApproved
}

// TimeOffRequest is an employee's ask for time off. It is never deleted;
// only the approval workflow moves its status.
type TimeOffRequest struct {
	ID             string
	OrganizationID generic.OrganizationID
	EmployeeID     generic.EmployeeID
	PeriodID       string
	TypeID         string
	Kind           TypeKind
	Status         RequestStatus
	StartDate      generic.Date
	EndDate        *generic.Date
	IsHalfDay      bool
	Reason         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LastDay returns the end date, or the start date for single-day requests.
func (r TimeOffRequest) LastDay() generic.Date {
	if r.EndDate != nil && !r.EndDate.IsZero() {
		return *r.EndDate
	}
	return r.StartDate
}

// Year is the ledger year the request is charged to.
func (r TimeOffRequest) Year() int { return r.StartDate.Year() }

// Amount is the number of days the request charges.
func (r TimeOffRequest) Amount() generic.Amount { return CalculateAmount(r) }

func (r TimeOffRequest) Subject() generic.SubjectRef {
	return generic.SubjectRef{Type: generic.ApprovableTimeOffRequest, ID: r.ID}
}

// =============================================================================
// VACATION BALANCE
// =============================================================================

// VacationBalance is an employee's vacation ledger row for one year.
type VacationBalance struct {
	ID             string
	OrganizationID generic.OrganizationID
	EmployeeID     generic.EmployeeID
	Year           int
	FromLastYear   generic.Amount
	Accrued        generic.Amount
	Taken          generic.Amount
	UpdatedAt      time.Time
}

// Remaining is derived and never stored.
func (b VacationBalance) Remaining() generic.Amount {
	return b.FromLastYear + b.Accrued - b.Taken
}
