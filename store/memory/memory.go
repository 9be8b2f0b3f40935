// Package memory provides an in-memory timeoff.TxStore for tests and the
// demo server.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/peopledear/peopledear/generic"
	"github.com/peopledear/peopledear/timeoff"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Store guards a single data set with a mutex. WithTx holds the lock for
// the whole transaction and restores a snapshot on error.
type Store struct {
	mu   sync.Mutex
	data *data
}

var _ timeoff.TxStore = (*Store)(nil)

func New() *Store {
	return &Store{data: newData()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (s *Store) WithTx(_ context.Context, fn func(timeoff.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(s.data); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// locked runs fn against the data under the lock.
func locked[T any](s *Store, fn func(d *data) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) exec(fn func(d *data) error) error {
	_, err := locked(s, func(d *data) (struct{}, error) { return struct{}{}, fn(d) })
	return err
}

// =============================================================================
// DATA - The unlocked tables; also the transaction-scoped timeoff.Store
// =============================================================================

type balanceKey struct {
	Employee generic.EmployeeID
	Year     int
}

type data struct {
	orgs      map[generic.OrganizationID]generic.Organization
	employees map[generic.EmployeeID]generic.Employee
	holidays  map[string]generic.Holiday
	types     map[string]timeoff.TimeOffType
	requests  map[string]timeoff.TimeOffRequest
	balances  map[balanceKey]timeoff.VacationBalance
	periods   map[string]generic.Period
	approvals map[string]generic.Approval
	audit     []generic.AuditEntry
}

var _ timeoff.Store = (*data)(nil)

func newData() *data {
	return &data{
		orgs:      make(map[generic.OrganizationID]generic.Organization),
		employees: make(map[generic.EmployeeID]generic.Employee),
		holidays:  make(map[string]generic.Holiday),
		types:     make(map[string]timeoff.TimeOffType),
		requests:  make(map[string]timeoff.TimeOffRequest),
		balances:  make(map[balanceKey]timeoff.VacationBalance),
		periods:   make(map[string]generic.Period),
		approvals: make(map[string]generic.Approval),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// clone copies every table. Values are structs, so a shallow copy per map
// is a full snapshot. Audit payload maps are never mutated after append.
func (d *data) clone() *data {
	return &data{
		orgs:      cloneMap(d.orgs),
		employees: cloneMap(d.employees),
		holidays:  cloneMap(d.holidays),
		types:     cloneMap(d.types),
		requests:  cloneMap(d.requests),
		balances:  cloneMap(d.balances),
		periods:   cloneMap(d.periods),
		approvals: cloneMap(d.approvals),
		audit:     append([]generic.AuditEntry(nil), d.audit...),
	}
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (d *data) SaveOrganization(_ context.Context, org generic.Organization) error {
	d.orgs[org.ID] = org
	return nil
}

func (d *data) GetOrganization(_ context.Context, id generic.OrganizationID) (generic.Organization, error) {
	org, ok := d.orgs[id]
	if !ok {
		return generic.Organization{}, generic.NotFound("organization", string(id))
	}
	return org, nil
}

func (d *data) ListOrganizations(_ context.Context) ([]generic.Organization, error) {
	out := make([]generic.Organization, 0, len(d.orgs))
	for _, org := range d.orgs {
		out = append(out, org)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *data) SaveEmployee(_ context.Context, emp generic.Employee) error {
	if existing, ok := d.employees[emp.ID]; ok {
		if existing.OrganizationID != emp.OrganizationID {
			return generic.ErrDuplicate
		}
		emp.CreatedAt = existing.CreatedAt
	}
	d.employees[emp.ID] = emp
	return nil
}

func (d *data) GetEmployee(_ context.Context, orgID generic.OrganizationID, id generic.EmployeeID) (generic.Employee, error) {
	emp, ok := d.employees[id]
	if !ok || emp.OrganizationID != orgID {
		return generic.Employee{}, generic.NotFound("employee", string(id))
	}
	return emp, nil
}

func (d *data) ListEmployees(_ context.Context, orgID generic.OrganizationID) ([]generic.Employee, error) {
	var out []generic.Employee
	for _, emp := range d.employees {
		if emp.OrganizationID == orgID {
			out = append(out, emp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *data) SaveHoliday(_ context.Context, h generic.Holiday) error {
	d.holidays[h.ID] = h
	return nil
}

func (d *data) ListHolidays(_ context.Context, orgID generic.OrganizationID) ([]generic.Holiday, error) {
	var out []generic.Holiday
	for _, h := range d.holidays {
		if h.OrganizationID == orgID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (d *data) DeleteHoliday(_ context.Context, orgID generic.OrganizationID, id string) error {
	h, ok := d.holidays[id]
	if !ok || h.OrganizationID != orgID {
		return generic.NotFound("holiday", id)
	}
	delete(d.holidays, id)
	return nil
}

// =============================================================================
// TYPES AND REQUESTS
// =============================================================================

func (d *data) SaveTimeOffType(_ context.Context, t timeoff.TimeOffType) error {
	if existing, ok := d.types[t.ID]; ok && existing.OrganizationID != t.OrganizationID {
		return generic.ErrDuplicate
	}
	d.types[t.ID] = t
	return nil
}

func (d *data) GetTimeOffType(_ context.Context, orgID generic.OrganizationID, id string) (timeoff.TimeOffType, error) {
	t, ok := d.types[id]
	if !ok || t.OrganizationID != orgID {
		return timeoff.TimeOffType{}, generic.NotFound("time_off_type", id)
	}
	return t, nil
}

func (d *data) ListTimeOffTypes(_ context.Context, orgID generic.OrganizationID) ([]timeoff.TimeOffType, error) {
	var out []timeoff.TimeOffType
	for _, t := range d.types {
		if t.OrganizationID == orgID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *data) InsertRequest(_ context.Context, r timeoff.TimeOffRequest) error {
	if _, ok := d.requests[r.ID]; ok {
		return generic.ErrDuplicate
	}
	d.requests[r.ID] = r
	return nil
}

func (d *data) UpdateRequestStatus(_ context.Context, orgID generic.OrganizationID, id string, status timeoff.RequestStatus) error {
	r, ok := d.requests[id]
	if !ok || r.OrganizationID != orgID {
		return generic.NotFound("time_off_request", id)
	}
	r.Status = status
	d.requests[id] = r
	return nil
}

func (d *data) GetRequest(_ context.Context, orgID generic.OrganizationID, id string) (timeoff.TimeOffRequest, error) {
	r, ok := d.requests[id]
	if !ok || r.OrganizationID != orgID {
		return timeoff.TimeOffRequest{}, generic.NotFound("time_off_request", id)
	}
	return r, nil
}

func (d *data) ListRequestsByEmployee(_ context.Context, orgID generic.OrganizationID, empID generic.EmployeeID) ([]timeoff.TimeOffRequest, error) {
	var out []timeoff.TimeOffRequest
	for _, r := range d.requests {
		if r.OrganizationID == orgID && r.EmployeeID == empID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

// =============================================================================
// BALANCES
// =============================================================================

func (d *data) SaveVacationBalance(_ context.Context, b timeoff.VacationBalance) error {
	k := balanceKey{Employee: b.EmployeeID, Year: b.Year}
	if existing, ok := d.balances[k]; ok {
		if existing.OrganizationID != b.OrganizationID {
			return generic.ErrDuplicate
		}
		b.ID = existing.ID
	}
	d.balances[k] = b
	return nil
}

func (d *data) GetVacationBalance(_ context.Context, orgID generic.OrganizationID, empID generic.EmployeeID, year int) (timeoff.VacationBalance, error) {
	b, ok := d.balances[balanceKey{Employee: empID, Year: year}]
	if !ok || b.OrganizationID != orgID {
		return timeoff.VacationBalance{}, generic.ErrBalanceNotFound
	}
	return b, nil
}

func (d *data) ListVacationBalances(_ context.Context, orgID generic.OrganizationID, year int) ([]timeoff.VacationBalance, error) {
	var out []timeoff.VacationBalance
	for _, b := range d.balances {
		if b.OrganizationID == orgID && b.Year == year {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (d *data) IncrementTaken(_ context.Context, orgID generic.OrganizationID, empID generic.EmployeeID, year int, delta generic.Amount) error {
	k := balanceKey{Employee: empID, Year: year}
	b, ok := d.balances[k]
	if !ok || b.OrganizationID != orgID {
		return generic.ErrBalanceNotFound
	}
	b.Taken += delta
	d.balances[k] = b
	return nil
}

// =============================================================================
// PERIODS
// =============================================================================

func (d *data) InsertPeriod(_ context.Context, p generic.Period) error {
	for _, existing := range d.periods {
		if existing.OrganizationID == p.OrganizationID && existing.Year == p.Year {
			return generic.ErrDuplicate
		}
	}
	d.periods[p.ID] = p
	return nil
}

func (d *data) CloseActivePeriods(_ context.Context, orgID generic.OrganizationID, exceptYear int) (int, error) {
	n := 0
	for id, p := range d.periods {
		if p.OrganizationID == orgID && p.Year != exceptYear && p.Status != generic.PeriodClosed {
			p.Status = generic.PeriodClosed
			d.periods[id] = p
			n++
		}
	}
	return n, nil
}

func (d *data) GetActivePeriod(_ context.Context, orgID generic.OrganizationID, year int) (generic.Period, error) {
	for _, p := range d.periods {
		if p.OrganizationID == orgID && p.Year == year && p.IsActive() {
			return p, nil
		}
	}
	return generic.Period{}, generic.NotFound("period", "")
}

func (d *data) ListPeriods(_ context.Context, orgID generic.OrganizationID) ([]generic.Period, error) {
	var out []generic.Period
	for _, p := range d.periods {
		if p.OrganizationID == orgID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

// =============================================================================
// APPROVALS
// =============================================================================

func (d *data) InsertApproval(_ context.Context, a generic.Approval) error {
	for _, existing := range d.approvals {
		if existing.ApprovableType == a.ApprovableType && existing.ApprovableID == a.ApprovableID {
			return generic.ErrDuplicate
		}
	}
	d.approvals[a.ID] = a
	return nil
}

func (d *data) UpdateApproval(_ context.Context, a generic.Approval) error {
	existing, ok := d.approvals[a.ID]
	if !ok || existing.OrganizationID != a.OrganizationID {
		return generic.NotFound("approval", a.ID)
	}
	d.approvals[a.ID] = a
	return nil
}

func (d *data) GetApproval(_ context.Context, orgID generic.OrganizationID, id string) (generic.Approval, error) {
	a, ok := d.approvals[id]
	if !ok || a.OrganizationID != orgID {
		return generic.Approval{}, generic.NotFound("approval", id)
	}
	return a, nil
}

func (d *data) GetApprovalFor(_ context.Context, orgID generic.OrganizationID, subject generic.SubjectRef) (generic.Approval, error) {
	for _, a := range d.approvals {
		if a.OrganizationID == orgID && a.ApprovableType == subject.Type && a.ApprovableID == subject.ID {
			return a, nil
		}
	}
	return generic.Approval{}, generic.NotFound("approval", subject.String())
}

func (d *data) ListApprovals(_ context.Context, orgID generic.OrganizationID, status generic.ApprovalStatus) ([]generic.Approval, error) {
	var out []generic.Approval
	for _, a := range d.approvals {
		if a.OrganizationID == orgID && (status == "" || a.Status == status) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// =============================================================================
// AUDIT
// =============================================================================

func (d *data) AppendAudit(_ context.Context, e generic.AuditEntry) error {
	d.audit = append(d.audit, e)
	return nil
}

func (d *data) QueryAudit(_ context.Context, f generic.AuditFilter) ([]generic.AuditEntry, error) {
	var out []generic.AuditEntry
	for _, e := range d.audit {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}
