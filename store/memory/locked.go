package memory

import (
	"context"

	"github.com/peopledear/peopledear/generic"
	"github.com/peopledear/peopledear/timeoff"
)

// Non-transactional access takes the lock for a single call.

func (s *Store) SaveOrganization(ctx context.Context, org generic.Organization) error {
	return s.exec(func(d *data) error { return d.SaveOrganization(ctx, org) })
}

func (s *Store) GetOrganization(ctx context.Context, id generic.OrganizationID) (generic.Organization, error) {
	return locked(s, func(d *data) (generic.Organization, error) { return d.GetOrganization(ctx, id) })
}

func (s *Store) ListOrganizations(ctx context.Context) ([]generic.Organization, error) {
	return locked(s, func(d *data) ([]generic.Organization, error) { return d.ListOrganizations(ctx) })
}

func (s *Store) SaveEmployee(ctx context.Context, emp generic.Employee) error {
	return s.exec(func(d *data) error { return d.SaveEmployee(ctx, emp) })
}

func (s *Store) GetEmployee(ctx context.Context, orgID generic.OrganizationID, id generic.EmployeeID) (generic.Employee, error) {
	return locked(s, func(d *data) (generic.Employee, error) { return d.GetEmployee(ctx, orgID, id) })
}

func (s *Store) ListEmployees(ctx context.Context, orgID generic.OrganizationID) ([]generic.Employee, error) {
	return locked(s, func(d *data) ([]generic.Employee, error) { return d.ListEmployees(ctx, orgID) })
}

func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	return s.exec(func(d *data) error { return d.SaveHoliday(ctx, h) })
}

func (s *Store) ListHolidays(ctx context.Context, orgID generic.OrganizationID) ([]generic.Holiday, error) {
	return locked(s, func(d *data) ([]generic.Holiday, error) { return d.ListHolidays(ctx, orgID) })
}

func (s *Store) DeleteHoliday(ctx context.Context, orgID generic.OrganizationID, id string) error {
	return s.exec(func(d *data) error { return d.DeleteHoliday(ctx, orgID, id) })
}

func (s *Store) SaveTimeOffType(ctx context.Context, t timeoff.TimeOffType) error {
	return s.exec(func(d *data) error { return d.SaveTimeOffType(ctx, t) })
}

func (s *Store) GetTimeOffType(ctx context.Context, orgID generic.OrganizationID, id string) (timeoff.TimeOffType, error) {
	return locked(s, func(d *data) (timeoff.TimeOffType, error) { return d.GetTimeOffType(ctx, orgID, id) })
}

func (s *Store) ListTimeOffTypes(ctx context.Context, orgID generic.OrganizationID) ([]timeoff.TimeOffType, error) {
	return locked(s, func(d *data) ([]timeoff.TimeOffType, error) { return d.ListTimeOffTypes(ctx, orgID) })
}

func (s *Store) InsertRequest(ctx context.Context, r timeoff.TimeOffRequest) error {
	return s.exec(func(d *data) error { return d.InsertRequest(ctx, r) })
}

func (s *Store) UpdateRequestStatus(ctx context.Context, orgID generic.OrganizationID, id string, status timeoff.RequestStatus) error {
	return s.exec(func(d *data) error { return d.UpdateRequestStatus(ctx, orgID, id, status) })
}

func (s *Store) GetRequest(ctx context.Context, orgID generic.OrganizationID, id string) (timeoff.TimeOffRequest, error) {
	return locked(s, func(d *data) (timeoff.TimeOffRequest, error) { return d.GetRequest(ctx, orgID, id) })
}

func (s *Store) ListRequestsByEmployee(ctx context.Context, orgID generic.OrganizationID, empID generic.EmployeeID) ([]timeoff.TimeOffRequest, error) {
	return locked(s, func(d *data) ([]timeoff.TimeOffRequest, error) { return d.ListRequestsByEmployee(ctx, orgID, empID) })
}

func (s *Store) SaveVacationBalance(ctx context.Context, b timeoff.VacationBalance) error {
	return s.exec(func(d *data) error { return d.SaveVacationBalance(ctx, b) })
}

func (s *Store) GetVacationBalance(ctx context.Context, orgID generic.OrganizationID, empID generic.EmployeeID, year int) (timeoff.VacationBalance, error) {
	return locked(s, func(d *data) (timeoff.VacationBalance, error) { return d.GetVacationBalance(ctx, orgID, empID, year) })
}

func (s *Store) ListVacationBalances(ctx context.Context, orgID generic.OrganizationID, year int) ([]timeoff.VacationBalance, error) {
	return locked(s, func(d *data) ([]timeoff.VacationBalance, error) { return d.ListVacationBalances(ctx, orgID, year) })
}

func (s *Store) IncrementTaken(ctx context.Context, orgID generic.OrganizationID, empID generic.EmployeeID, year int, delta generic.Amount) error {
	return s.exec(func(d *data) error { return d.IncrementTaken(ctx, orgID, empID, year, delta) })
}

func (s *Store) InsertApproval(ctx context.Context, a generic.Approval) error {
	return s.exec(func(d *data) error { return d.InsertApproval(ctx, a) })
}

func (s *Store) UpdateApproval(ctx context.Context, a generic.Approval) error {
	return s.exec(func(d *data) error { return d.UpdateApproval(ctx, a) })
}

func (s *Store) GetApproval(ctx context.Context, orgID generic.OrganizationID, id string) (generic.Approval, error) {
	return locked(s, func(d *data) (generic.Approval, error) { return d.GetApproval(ctx, orgID, id) })
}

func (s *Store) GetApprovalFor(ctx context.Context, orgID generic.OrganizationID, subject generic.SubjectRef) (generic.Approval, error) {
	return locked(s, func(d *data) (generic.Approval, error) { return d.GetApprovalFor(ctx, orgID, subject) })
}

func (s *Store) ListApprovals(ctx context.Context, orgID generic.OrganizationID, status generic.ApprovalStatus) ([]generic.Approval, error) {
	return locked(s, func(d *data) ([]generic.Approval, error) { return d.ListApprovals(ctx, orgID, status) })
}

func (s *Store) AppendAudit(ctx context.Context, entry generic.AuditEntry) error {
	return s.exec(func(d *data) error { return d.AppendAudit(ctx, entry) })
}

func (s *Store) QueryAudit(ctx context.Context, filter generic.AuditFilter) ([]generic.AuditEntry, error) {
	return locked(s, func(d *data) ([]generic.AuditEntry, error) { return d.QueryAudit(ctx, filter) })
}

func (s *Store) InsertPeriod(ctx context.Context, p generic.Period) error {
	return s.exec(func(d *data) error { return d.InsertPeriod(ctx, p) })
}

func (s *Store) CloseActivePeriods(ctx context.Context, orgID generic.OrganizationID, exceptYear int) (int, error) {
	return locked(s, func(d *data) (int, error) { return d.CloseActivePeriods(ctx, orgID, exceptYear) })
}

func (s *Store) GetActivePeriod(ctx context.Context, orgID generic.OrganizationID, year int) (generic.Period, error) {
	return locked(s, func(d *data) (generic.Period, error) { return d.GetActivePeriod(ctx, orgID, year) })
}

func (s *Store) ListPeriods(ctx context.Context, orgID generic.OrganizationID) ([]generic.Period, error) {
	return locked(s, func(d *data) ([]generic.Period, error) { return d.ListPeriods(ctx, orgID) })
}
