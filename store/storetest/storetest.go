// Package storetest holds the behavior every timeoff.TxStore must share.
// Store packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peopledear/peopledear/generic"
	"github.com/peopledear/peopledear/timeoff"
)

// Factory returns an empty store. It registers its own cleanup.
type Factory func(t *testing.T) timeoff.TxStore

var now = time.Date(2025, time.January, 2, 9, 0, 0, 0, time.UTC)

// Fixture is a seeded organization with one employee, a vacation type,
// an active 2025 period and a 20-day 2025 balance.
type Fixture struct {
	Org      generic.OrganizationID
	Employee generic.EmployeeID
	Type     timeoff.TimeOffType
	Period   generic.Period
}

// Seed writes a Fixture for orgID.
func Seed(t *testing.T, store timeoff.TxStore, orgID generic.OrganizationID) Fixture {
	t.Helper()
	ctx := context.Background()
	f := Fixture{Org: orgID, Employee: generic.EmployeeID(string(orgID) + "-emp")}

	require.NoError(t, store.SaveOrganization(ctx, generic.Organization{ID: orgID, Name: string(orgID), CreatedAt: now}))
	require.NoError(t, store.SaveEmployee(ctx, generic.Employee{
		ID: f.Employee, OrganizationID: orgID, Name: "Ana", Email: "ana@example.com",
		Role: generic.RoleEmployee, CreatedAt: now,
	}))
	f.Type = timeoff.TimeOffType{
		ID: string(orgID) + "-vacation", OrganizationID: orgID, Kind: timeoff.KindVacation, Name: "Vacation",
		RequiresApproval: true, BalanceMode: timeoff.BalanceAnnual, IsActive: true,
		Config: timeoff.BalanceConfig{AnnualAllowance: generic.DaysAmount(20), CarryOverEnabled: true, CarryOverLimit: generic.DaysAmount(5)},
	}
	require.NoError(t, store.SaveTimeOffType(ctx, f.Type))
	require.NoError(t, store.WithTx(ctx, func(tx timeoff.Store) error {
		p, err := generic.CreatePeriod(ctx, tx, orgID, 2025, now)
		f.Period = p
		return err
	}))
	require.NoError(t, store.SaveVacationBalance(ctx, timeoff.VacationBalance{
		ID: string(orgID) + "-bal", OrganizationID: orgID, EmployeeID: f.Employee, Year: 2025,
		Accrued: generic.DaysAmount(20), UpdatedAt: now,
	}))
	return f
}

func (f Fixture) request(id string, start, end string) timeoff.TimeOffRequest {
	r := timeoff.TimeOffRequest{
		ID: id, OrganizationID: f.Org, EmployeeID: f.Employee, PeriodID: f.Period.ID, TypeID: f.Type.ID,
		Kind: timeoff.KindVacation, Status: timeoff.StatusPending, StartDate: generic.MustParseDate(start),
		CreatedAt: now, UpdatedAt: now,
	}
	if end != "" {
		d := generic.MustParseDate(end)
		r.EndDate = &d
	}
	return r
}

// Run exercises the store contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("RoundTripsTypesAndRequests", func(t *testing.T) { testRoundTrip(t, newStore(t)) })
	t.Run("TenantIsolation", func(t *testing.T) { testTenantIsolation(t, newStore(t)) })
	t.Run("IncrementTaken", func(t *testing.T) { testIncrementTaken(t, newStore(t)) })
	t.Run("RollbackOnError", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("PeriodUniqueness", func(t *testing.T) { testPeriodUniqueness(t, newStore(t)) })
	t.Run("OneApprovalPerApprovable", func(t *testing.T) { testApprovalUniqueness(t, newStore(t)) })
	t.Run("Audit", func(t *testing.T) { testAudit(t, newStore(t)) })
	t.Run("Holidays", func(t *testing.T) { testHolidays(t, newStore(t)) })
}

func testRoundTrip(t *testing.T, store timeoff.TxStore) {
	ctx := context.Background()
	f := Seed(t, store, "org-a")

	typ, err := store.GetTimeOffType(ctx, f.Org, f.Type.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Type, typ)

	req := f.request("req-1", "2025-03-03", "2025-03-05")
	req.Reason = "beach"
	require.NoError(t, store.InsertRequest(ctx, req))
	require.NoError(t, store.UpdateRequestStatus(ctx, f.Org, req.ID, timeoff.StatusApproved))

	got, err := store.GetRequest(ctx, f.Org, req.ID)
	require.NoError(t, err)
	assert.Equal(t, timeoff.StatusApproved, got.Status)
	assert.Equal(t, "2025-03-05", got.LastDay().String())
	assert.Equal(t, "beach", got.Reason)
	assert.Equal(t, generic.Amount(300), got.Amount())

	single := f.request("req-2", "2025-04-01", "")
	require.NoError(t, store.InsertRequest(ctx, single))
	list, err := store.ListRequestsByEmployee(ctx, f.Org, f.Employee)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Nil(t, list[1].EndDate)
}

func testTenantIsolation(t *testing.T, store timeoff.TxStore) {
	ctx := context.Background()
	a := Seed(t, store, "org-a")
	b := Seed(t, store, "org-b")

	_, err := store.GetEmployee(ctx, b.Org, a.Employee)
	assert.True(t, generic.IsNotFound(err), "employee of another org must be not found")

	_, err = store.GetTimeOffType(ctx, b.Org, a.Type.ID)
	assert.True(t, generic.IsNotFound(err))

	err = store.IncrementTaken(ctx, b.Org, a.Employee, 2025, 100)
	assert.ErrorIs(t, err, generic.ErrBalanceNotFound)

	// saving another org's employee id must not hijack it
	err = store.SaveEmployee(ctx, generic.Employee{ID: a.Employee, OrganizationID: b.Org, Name: "X", Email: "x@example.com", Role: generic.RoleEmployee, CreatedAt: now})
	assert.ErrorIs(t, err, generic.ErrDuplicate)
	emp, err := store.GetEmployee(ctx, a.Org, a.Employee)
	require.NoError(t, err)
	assert.Equal(t, "Ana", emp.Name)
}

func testIncrementTaken(t *testing.T, store timeoff.TxStore) {
	ctx := context.Background()
	f := Seed(t, store, "org-a")

	require.NoError(t, store.IncrementTaken(ctx, f.Org, f.Employee, 2025, 300))
	require.NoError(t, store.IncrementTaken(ctx, f.Org, f.Employee, 2025, 50))
	b, err := store.GetVacationBalance(ctx, f.Org, f.Employee, 2025)
	require.NoError(t, err)
	assert.Equal(t, generic.Amount(350), b.Taken)
	assert.Equal(t, generic.Amount(1650), b.Remaining())

	require.NoError(t, store.IncrementTaken(ctx, f.Org, f.Employee, 2025, -350))
	b, err = store.GetVacationBalance(ctx, f.Org, f.Employee, 2025)
	require.NoError(t, err)
	assert.Equal(t, generic.Amount(0), b.Taken)

	err = store.IncrementTaken(ctx, f.Org, f.Employee, 2026, 100)
	assert.ErrorIs(t, err, generic.ErrBalanceNotFound)
}

func testRollback(t *testing.T, store timeoff.TxStore) {
	ctx := context.Background()
	f := Seed(t, store, "org-a")
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx timeoff.Store) error {
		require.NoError(t, tx.InsertRequest(ctx, f.request("req-1", "2025-03-03", "")))
		require.NoError(t, tx.IncrementTaken(ctx, f.Org, f.Employee, 2025, 100))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.GetRequest(ctx, f.Org, "req-1")
	assert.True(t, generic.IsNotFound(err), "insert must be rolled back")
	b, err := store.GetVacationBalance(ctx, f.Org, f.Employee, 2025)
	require.NoError(t, err)
	assert.Equal(t, generic.Amount(0), b.Taken, "ledger update must be rolled back")
}

func testPeriodUniqueness(t *testing.T, store timeoff.TxStore) {
	ctx := context.Background()
	f := Seed(t, store, "org-a")

	require.NoError(t, store.WithTx(ctx, func(tx timeoff.Store) error {
		_, err := generic.CreatePeriod(ctx, tx, f.Org, 2026, now)
		return err
	}))

	// a duplicate year fails and leaves the existing periods as they were
	err := store.WithTx(ctx, func(tx timeoff.Store) error {
		_, err := generic.CreatePeriod(ctx, tx, f.Org, 2026, now)
		return err
	})
	assert.ErrorIs(t, err, generic.ErrDuplicatePeriod)

	periods, err := store.ListPeriods(ctx, f.Org)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, generic.PeriodClosed, periods[0].Status)
	assert.Equal(t, generic.PeriodActive, periods[1].Status)

	active, err := store.GetActivePeriod(ctx, f.Org, 2026)
	require.NoError(t, err)
	assert.Equal(t, "2026-12-31", active.End.String())
	_, err = store.GetActivePeriod(ctx, f.Org, 2025)
	assert.True(t, generic.IsNotFound(err))

	// re-creating the closed year fails without closing the active one
	err = store.WithTx(ctx, func(tx timeoff.Store) error {
		_, err := generic.CreatePeriod(ctx, tx, f.Org, 2025, now)
		return err
	})
	assert.ErrorIs(t, err, generic.ErrDuplicatePeriod)

	_, err = store.GetActivePeriod(ctx, f.Org, 2026)
	require.NoError(t, err)
	periods, err = store.ListPeriods(ctx, f.Org)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, generic.PeriodClosed, periods[0].Status)
	assert.Equal(t, generic.PeriodActive, periods[1].Status)

	// outside a transaction the result is the same
	_, err = generic.CreatePeriod(ctx, store, f.Org, 2025, now)
	assert.ErrorIs(t, err, generic.ErrDuplicatePeriod)
	_, err = store.GetActivePeriod(ctx, f.Org, 2026)
	require.NoError(t, err)
}

func testApprovalUniqueness(t *testing.T, store timeoff.TxStore) {
	ctx := context.Background()
	f := Seed(t, store, "org-a")
	require.NoError(t, store.InsertRequest(ctx, f.request("req-1", "2025-03-03", "")))

	a := generic.Approval{
		ID: "apr-1", OrganizationID: f.Org, ApprovableType: generic.ApprovableTimeOffRequest,
		ApprovableID: "req-1", Status: generic.ApprovalPending, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.InsertApproval(ctx, a))
	dup := a
	dup.ID = "apr-2"
	assert.ErrorIs(t, store.InsertApproval(ctx, dup), generic.ErrDuplicate)

	require.NoError(t, a.Approve("mgr-1", now))
	require.NoError(t, store.UpdateApproval(ctx, a))

	got, err := store.GetApprovalFor(ctx, f.Org, generic.SubjectRef{Type: generic.ApprovableTimeOffRequest, ID: "req-1"})
	require.NoError(t, err)
	assert.Equal(t, generic.ApprovalApproved, got.Status)
	assert.Equal(t, generic.UserID("mgr-1"), got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)
	assert.True(t, got.ApprovedAt.Equal(now))

	pending, err := store.ListApprovals(ctx, f.Org, generic.ApprovalPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
	all, err := store.ListApprovals(ctx, f.Org, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testAudit(t *testing.T, store timeoff.TxStore) {
	ctx := context.Background()
	f := Seed(t, store, "org-a")

	for i, action := range []generic.AuditAction{generic.AuditRequestCreated, generic.AuditRequestApproved, generic.AuditRequestCancelled} {
		require.NoError(t, store.AppendAudit(ctx, generic.AuditEntry{
			ID: string(action), OrganizationID: f.Org, Timestamp: now.Add(time.Duration(i) * time.Minute),
			ActorID: "mgr-1", Action: action, SubjectType: generic.ApprovableTimeOffRequest, SubjectID: "req-1",
			Payload: map[string]any{"step": i},
		}))
	}

	all, err := store.QueryAudit(ctx, generic.AuditFilter{OrganizationID: f.Org, SubjectID: "req-1"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, generic.AuditRequestCreated, all[0].Action, "oldest first")

	last, err := store.QueryAudit(ctx, generic.AuditFilter{OrganizationID: f.Org, Limit: 1})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, generic.AuditRequestCancelled, last[0].Action)

	approved, err := store.QueryAudit(ctx, generic.AuditFilter{OrganizationID: f.Org, Actions: []generic.AuditAction{generic.AuditRequestApproved}})
	require.NoError(t, err)
	assert.Len(t, approved, 1)

	other, err := store.QueryAudit(ctx, generic.AuditFilter{OrganizationID: "org-b"})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func testHolidays(t *testing.T, store timeoff.TxStore) {
	ctx := context.Background()
	f := Seed(t, store, "org-a")

	require.NoError(t, store.SaveHoliday(ctx, generic.Holiday{ID: "h-2", OrganizationID: f.Org, Date: generic.MustParseDate("2025-12-25"), Name: "Christmas", Recurring: true}))
	require.NoError(t, store.SaveHoliday(ctx, generic.Holiday{ID: "h-1", OrganizationID: f.Org, Date: generic.MustParseDate("2025-01-01"), Name: "New Year"}))

	list, err := store.ListHolidays(ctx, f.Org)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "New Year", list[0].Name)
	assert.True(t, list[1].Recurring)

	assert.True(t, generic.IsNotFound(store.DeleteHoliday(ctx, "org-b", "h-1")))
	require.NoError(t, store.DeleteHoliday(ctx, f.Org, "h-1"))
	list, err = store.ListHolidays(ctx, f.Org)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
