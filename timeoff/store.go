/*
store.go - Persistence interface for the time-off workflow

PURPOSE:
  Store composes the generic period, approval and audit contracts with
  the time-off tables (types, requests, balances) and the directory the
  workflow reads (organizations, employees, holidays). Every query takes
  the organization ID; a row belonging to another organization is
  reported as not found.

TRANSACTIONS:
  TxStore.WithTx runs fn against a transaction-scoped Store. If fn
  returns an error every write made through that Store is rolled back.
  Inside fn, use ONLY the Store passed in; calling the outer store can
  deadlock single-connection backends.

BALANCE LEDGER:
  IncrementTaken adjusts taken by delta in a single statement
  (taken = taken + delta) so concurrent transactions never lose updates.
  It returns generic.ErrBalanceNotFound when no row matches.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go
  - store/memory/memory.go

SEE ALSO:
  - generic/store.go: Shared contracts
*/
package timeoff

import (
	"context"

	"github.com/peopledear/peopledear/generic"
)

// Store is everything the time-off workflow persists or reads.
type Store interface {
	generic.PeriodStore
	generic.ApprovalStore
	generic.AuditLog

	// Directory
	SaveOrganization(ctx context.Context, org generic.Organization) error
	GetOrganization(ctx context.Context, id generic.OrganizationID) (generic.Organization, error)
	ListOrganizations(ctx context.Context) ([]generic.Organization, error)
	SaveEmployee(ctx context.Context, emp generic.Employee) error
	GetEmployee(ctx context.Context, orgID generic.OrganizationID, id generic.EmployeeID) (generic.Employee, error)
	ListEmployees(ctx context.Context, orgID generic.OrganizationID) ([]generic.Employee, error)

	// Holidays
	SaveHoliday(ctx context.Context, h generic.Holiday) error
	ListHolidays(ctx context.Context, orgID generic.OrganizationID) ([]generic.Holiday, error)
	DeleteHoliday(ctx context.Context, orgID generic.OrganizationID, id string) error

	// Types
	SaveTimeOffType(ctx context.Context, t TimeOffType) error
	GetTimeOffType(ctx context.Context, orgID generic.OrganizationID, id string) (TimeOffType, error)
	ListTimeOffTypes(ctx context.Context, orgID generic.OrganizationID) ([]TimeOffType, error)

	// Requests
	InsertRequest(ctx context.Context, r TimeOffRequest) error
	UpdateRequestStatus(ctx context.Context, orgID generic.OrganizationID, id string, status RequestStatus) error
	GetRequest(ctx context.Context, orgID generic.OrganizationID, id string) (TimeOffRequest, error)
	ListRequestsByEmployee(ctx context.Context, orgID generic.OrganizationID, empID generic.EmployeeID) ([]TimeOffRequest, error)

	// Balances
	SaveVacationBalance(ctx context.Context, b VacationBalance) error
	GetVacationBalance(ctx context.Context, orgID generic.OrganizationID, empID generic.EmployeeID, year int) (VacationBalance, error)
	ListVacationBalances(ctx context.Context, orgID generic.OrganizationID, year int) ([]VacationBalance, error)
	IncrementTaken(ctx context.Context, orgID generic.OrganizationID, empID generic.EmployeeID, year int, delta generic.Amount) error
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
