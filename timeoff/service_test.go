package timeoff_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peopledear/peopledear/generic"
	"github.com/peopledear/peopledear/notify"
	"github.com/peopledear/peopledear/store/memory"
	"github.com/peopledear/peopledear/timeoff"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var clock = time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)

type env struct {
	svc      *timeoff.Service
	store    *memory.Store
	outbox   *notify.Recorder
	ctx      context.Context
	org      generic.Organization
	manager  generic.Employee
	employee generic.Employee
	vacation timeoff.TimeOffType
}

// newEnv builds an organization with a manager, an employee, a 20-day
// vacation type (carry-over capped at 5), the 2025 period and both
// employees' 2025 balances.
func newEnv(t *testing.T, opts ...timeoff.Option) *env {
	t.Helper()
	logger, _ := test.NewNullLogger()
	e := &env{store: memory.New(), outbox: &notify.Recorder{}}
	opts = append([]timeoff.Option{
		timeoff.WithNotifier(e.outbox),
		timeoff.WithClock(func() time.Time { return clock }),
		timeoff.WithLogger(logger),
	}, opts...)
	e.svc = timeoff.NewService(e.store, opts...)

	var err error
	e.org, err = e.svc.CreateOrganization(context.Background(), "Acme")
	require.NoError(t, err)
	e.ctx = generic.WithOrganization(context.Background(), e.org.ID)

	e.manager, err = e.svc.AddEmployee(e.ctx, timeoff.EmployeeInput{Name: "Mia", Email: "mia@acme.test", Role: "manager"})
	require.NoError(t, err)
	e.employee, err = e.svc.AddEmployee(e.ctx, timeoff.EmployeeInput{Name: "Ana", Email: "ana@acme.test"})
	require.NoError(t, err)
	e.vacation, err = e.svc.SaveTimeOffType(e.ctx, timeoff.TimeOffTypeInput{
		Kind: "vacation", Name: "Vacation", RequiresApproval: true,
		AnnualAllowance: 20, CarryOverEnabled: true, CarryOverLimit: 5,
	})
	require.NoError(t, err)
	_, err = e.svc.CreatePeriod(e.ctx, 2025)
	require.NoError(t, err)
	opened, err := e.svc.OpenBalanceYear(e.ctx, 2025)
	require.NoError(t, err)
	require.Len(t, opened, 2)
	return e
}

func (e *env) addType(t *testing.T, in timeoff.TimeOffTypeInput) timeoff.TimeOffType {
	t.Helper()
	typ, err := e.svc.SaveTimeOffType(e.ctx, in)
	require.NoError(t, err)
	return typ
}

func (e *env) submit(t *testing.T, typeID, start, end string) timeoff.Submission {
	t.Helper()
	sub, err := e.svc.CreateTimeOffRequest(e.ctx, timeoff.CreateRequestInput{
		EmployeeID: string(e.employee.ID), TypeID: typeID, StartDate: start, EndDate: end,
	})
	require.NoError(t, err)
	return sub
}

func (e *env) balance(t *testing.T, year int) timeoff.VacationBalance {
	t.Helper()
	b, err := e.svc.GetBalance(e.ctx, e.employee.ID, year)
	require.NoError(t, err)
	return b
}

func (e *env) request(t *testing.T, id string) timeoff.TimeOffRequest {
	t.Helper()
	r, err := e.svc.GetRequest(e.ctx, id)
	require.NoError(t, err)
	return r
}

func requireField(t *testing.T, err error, field string) {
	t.Helper()
	require.ErrorIs(t, err, generic.ErrValidation)
	fields := generic.ValidationFields(err)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Field
	}
	assert.Contains(t, names, field)
}

// =============================================================================
// AMOUNTS
// =============================================================================

func TestCalculateAmount(t *testing.T) {
	date := generic.MustParseDate
	end := func(s string) *generic.Date { d := date(s); return &d }

	cases := []struct {
		name string
		req  timeoff.TimeOffRequest
		want generic.Amount
	}{
		{"single day without end", timeoff.TimeOffRequest{StartDate: date("2025-03-03")}, 100},
		{"monday to wednesday", timeoff.TimeOffRequest{StartDate: date("2025-03-03"), EndDate: end("2025-03-05")}, 300},
		{"weekend is counted", timeoff.TimeOffRequest{StartDate: date("2025-03-07"), EndDate: end("2025-03-10")}, 400},
		{"half day", timeoff.TimeOffRequest{StartDate: date("2025-03-03"), IsHalfDay: true}, generic.HalfDay},
		{"across month end", timeoff.TimeOffRequest{StartDate: date("2025-02-27"), EndDate: end("2025-03-02")}, 400},
		{"five centuries", timeoff.TimeOffRequest{StartDate: date("2000-01-01"), EndDate: end("2500-01-01")}, 18262300},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, timeoff.CalculateAmount(tc.req))
		})
	}
}

// =============================================================================
// REQUEST CREATION
// =============================================================================

func TestCreateRequest_PendingWithApproval(t *testing.T) {
	// GIVEN: an employee with a 20-day balance
	e := newEnv(t)

	// WHEN: they request Monday to Wednesday
	sub := e.submit(t, e.vacation.ID, "2025-03-03", "2025-03-05")

	// THEN: the request is pending with a pending approval and nothing is taken
	assert.Equal(t, timeoff.StatusPending, sub.Request.Status)
	assert.Equal(t, generic.Amount(300), sub.Request.Amount())
	assert.Equal(t, generic.ApprovalPending, sub.Approval.Status)
	assert.Equal(t, sub.Request.ID, sub.Approval.ApprovableID)
	assert.Equal(t, generic.Amount(0), e.balance(t, 2025).Taken)

	// AND: the manager, not the requester, is notified
	msgs := e.outbox.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, notify.EventRequestSubmitted, msgs[0].Event)
	require.Len(t, msgs[0].To, 1)
	assert.Equal(t, "mia@acme.test", msgs[0].To[0].Address)
}

func TestCreateRequest_HalfDay(t *testing.T) {
	e := newEnv(t)
	sub, err := e.svc.CreateTimeOffRequest(e.ctx, timeoff.CreateRequestInput{
		EmployeeID: string(e.employee.ID), TypeID: e.vacation.ID, StartDate: "2025-03-03", IsHalfDay: true,
	})
	require.NoError(t, err)
	assert.Equal(t, generic.HalfDay, sub.Request.Amount())

	_, err = e.svc.CreateTimeOffRequest(e.ctx, timeoff.CreateRequestInput{
		EmployeeID: string(e.employee.ID), TypeID: e.vacation.ID,
		StartDate: "2025-03-10", EndDate: "2025-03-11", IsHalfDay: true,
	})
	requireField(t, err, "is_half_day")
}

func TestCreateRequest_InputValidation(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.CreateTimeOffRequest(e.ctx, timeoff.CreateRequestInput{TypeID: e.vacation.ID, StartDate: "03/03/2025"})
	requireField(t, err, "employee_id")
	requireField(t, err, "start_date")

	_, err = e.svc.CreateTimeOffRequest(e.ctx, timeoff.CreateRequestInput{
		EmployeeID: string(e.employee.ID), TypeID: e.vacation.ID, StartDate: "2025-03-05", EndDate: "2025-03-03",
	})
	requireField(t, err, "end_date")

	_, err = e.svc.CreateTimeOffRequest(e.ctx, timeoff.CreateRequestInput{
		EmployeeID: "ghost", TypeID: e.vacation.ID, StartDate: "2025-03-03",
	})
	requireField(t, err, "employee_id")

	_, err = e.svc.CreateTimeOffRequest(e.ctx, timeoff.CreateRequestInput{
		EmployeeID: string(e.employee.ID), TypeID: "ghost", StartDate: "2025-03-03",
	})
	requireField(t, err, "time_off_type_id")
}

func TestCreateRequest_InsufficientBalance(t *testing.T) {
	// GIVEN: 20 days remaining
	e := newEnv(t)

	// WHEN: 25 days are requested
	_, err := e.svc.CreateTimeOffRequest(e.ctx, timeoff.CreateRequestInput{
		EmployeeID: string(e.employee.ID), TypeID: e.vacation.ID, StartDate: "2025-06-01", EndDate: "2025-06-25",
	})

	// THEN: the request is refused with the shortage
	require.ErrorIs(t, err, generic.ErrInsufficientBalance)
	var ibe *generic.InsufficientBalanceError
	require.True(t, errors.As(err, &ibe))
	assert.Equal(t, generic.DaysAmount(20), ibe.Available)
	assert.Equal(t, generic.DaysAmount(25), ibe.Requested)
	assert.True(t, generic.IsClientError(err))

	list, err := e.svc.ListRequests(e.ctx, e.employee.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateRequest_Overlap(t *testing.T) {
	e := newEnv(t)
	first := e.submit(t, e.vacation.ID, "2025-03-03", "2025-03-05")

	_, err := e.svc.CreateTimeOffRequest(e.ctx, timeoff.CreateRequestInput{
		EmployeeID: string(e.employee.ID), TypeID: e.vacation.ID, StartDate: "2025-03-05",
	})
	requireField(t, err, "start_date")

	// a cancelled request no longer blocks its days
	_, err = e.svc.Cancel(e.ctx, first.Approval.ID, generic.UserID(e.employee.ID))
	require.NoError(t, err)
	e.submit(t, e.vacation.ID, "2025-03-05", "")
}

func TestCreateRequest_NoActivePeriod(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.CreateTimeOffRequest(e.ctx, timeoff.CreateRequestInput{
		EmployeeID: string(e.employee.ID), TypeID: e.vacation.ID, StartDate: "2026-03-03",
	})
	requireField(t, err, "start_date")
}

func TestCreateRequest_InactiveType(t *testing.T) {
	e := newEnv(t)
	typ := e.addType(t, timeoff.TimeOffTypeInput{Kind: "sick_leave", Name: "Old sick leave", Inactive: true})

	_, err := e.svc.CreateTimeOffRequest(e.ctx, timeoff.CreateRequestInput{
		EmployeeID: string(e.employee.ID), TypeID: typ.ID, StartDate: "2025-03-03",
	})
	requireField(t, err, "time_off_type_id")
}

func TestSaveTimeOffType_BalanceModeFollowsKind(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.SaveTimeOffType(e.ctx, timeoff.TimeOffTypeInput{Kind: "vacation", Name: "Unlimited", BalanceMode: "none"})
	requireField(t, err, "balance_mode")
	_, err = e.svc.SaveTimeOffType(e.ctx, timeoff.TimeOffTypeInput{Kind: "sick_leave", Name: "Sick leave", BalanceMode: "annual"})
	requireField(t, err, "balance_mode")

	// the matching mode, explicit or omitted, is accepted
	sick := e.addType(t, timeoff.TimeOffTypeInput{Kind: "sick_leave", Name: "Sick leave", BalanceMode: "none"})
	assert.Equal(t, timeoff.BalanceNone, sick.BalanceMode)
	assert.Equal(t, timeoff.BalanceAnnual, e.vacation.BalanceMode)
}

func TestCreateRequest_AutoApprovedWhenNoApprovalRequired(t *testing.T) {
	// GIVEN: a sick-leave type that needs no approval
	e := newEnv(t)
	sick := e.addType(t, timeoff.TimeOffTypeInput{Kind: "sick_leave", Name: "Sick leave"})

	// WHEN: a request is submitted
	sub := e.submit(t, sick.ID, "2025-02-10", "2025-02-11")

	// THEN: it is approved by the system and the vacation balance is untouched
	assert.Equal(t, timeoff.StatusApproved, sub.Request.Status)
	assert.Equal(t, generic.ApprovalApproved, sub.Approval.Status)
	assert.Equal(t, generic.SystemUser, sub.Approval.ApprovedBy)
	assert.Equal(t, timeoff.StatusApproved, e.request(t, sub.Request.ID).Status)
	assert.Equal(t, generic.Amount(0), e.balance(t, 2025).Taken)

	msgs := e.outbox.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, notify.EventRequestApproved, msgs[0].Event)
	assert.Equal(t, "ana@acme.test", msgs[0].To[0].Address)
}

func TestCreateRequest_AutoApprovedVacationDeducts(t *testing.T) {
	e := newEnv(t)
	free := e.addType(t, timeoff.TimeOffTypeInput{Kind: "vacation", Name: "Self-service vacation"})

	e.submit(t, free.ID, "2025-04-07", "2025-04-08")

	assert.Equal(t, generic.DaysAmount(2), e.balance(t, 2025).Taken)
}

// =============================================================================
// TYPE RULES
// =============================================================================

func TestSickLeave_RequiresJustification(t *testing.T) {
	e := newEnv(t)
	sick := e.addType(t, timeoff.TimeOffTypeInput{Kind: "sick_leave", Name: "Sick leave", RequiresJustification: true})

	_, err := e.svc.CreateTimeOffRequest(e.ctx, timeoff.CreateRequestInput{
		EmployeeID: string(e.employee.ID), TypeID: sick.ID, StartDate: "2025-02-10", Reason: "   ",
	})
	requireField(t, err, "reason")

	_, err = e.svc.CreateTimeOffRequest(e.ctx, timeoff.CreateRequestInput{
		EmployeeID: string(e.employee.ID), TypeID: sick.ID, StartDate: "2025-02-10", Reason: "flu",
	})
	require.NoError(t, err)
}

func TestPersonalDay_MaxRequestsPerYear(t *testing.T) {
	e := newEnv(t)
	personal := e.addType(t, timeoff.TimeOffTypeInput{
		Kind: "personal_day", Name: "Personal day", RequiresApproval: true, MaxRequestsPerYear: 2,
	})

	first := e.submit(t, personal.ID, "2025-02-10", "")
	e.submit(t, personal.ID, "2025-03-10", "")

	_, err := e.svc.CreateTimeOffRequest(e.ctx, timeoff.CreateRequestInput{
		EmployeeID: string(e.employee.ID), TypeID: personal.ID, StartDate: "2025-04-10",
	})
	requireField(t, err, "time_off_type_id")

	// a rejected request frees its slot
	_, err = e.svc.Reject(e.ctx, first.Approval.ID, generic.UserID(e.manager.ID), "busy week")
	require.NoError(t, err)
	e.submit(t, personal.ID, "2025-04-10", "")
}

func TestBereavement_MaxDaysPerRequest(t *testing.T) {
	e := newEnv(t)
	bereavement := e.addType(t, timeoff.TimeOffTypeInput{Kind: "bereavement", Name: "Bereavement", MaxDaysPerRequest: 3})

	_, err := e.svc.CreateTimeOffRequest(e.ctx, timeoff.CreateRequestInput{
		EmployeeID: string(e.employee.ID), TypeID: bereavement.ID, StartDate: "2025-05-05", EndDate: "2025-05-08",
	})
	requireField(t, err, "end_date")

	e.submit(t, bereavement.ID, "2025-05-05", "2025-05-07")
}

// =============================================================================
// APPROVAL WORKFLOW
// =============================================================================

func TestApprove_DeductsAndCancelRestores(t *testing.T) {
	// GIVEN: a pending three-day request
	e := newEnv(t)
	sub := e.submit(t, e.vacation.ID, "2025-03-03", "2025-03-05")

	// WHEN: the manager approves it
	a, err := e.svc.Approve(e.ctx, sub.Approval.ID, generic.UserID(e.manager.ID))
	require.NoError(t, err)

	// THEN: the request is approved and three days are taken
	assert.Equal(t, generic.ApprovalApproved, a.Status)
	assert.Equal(t, generic.UserID(e.manager.ID), a.ApprovedBy)
	require.NotNil(t, a.ApprovedAt)
	assert.Equal(t, timeoff.StatusApproved, e.request(t, sub.Request.ID).Status)
	b := e.balance(t, 2025)
	assert.Equal(t, generic.DaysAmount(3), b.Taken)
	assert.Equal(t, generic.DaysAmount(17), b.Remaining())

	// WHEN: the approval is cancelled
	a, err = e.svc.Cancel(e.ctx, sub.Approval.ID, generic.UserID(e.employee.ID))
	require.NoError(t, err)

	// THEN: the days come back exactly
	assert.Equal(t, generic.ApprovalCancelled, a.Status)
	assert.Equal(t, timeoff.StatusCancelled, e.request(t, sub.Request.ID).Status)
	assert.Equal(t, generic.Amount(0), e.balance(t, 2025).Taken)
}

func TestApprove_OnlyFromPending(t *testing.T) {
	e := newEnv(t)
	sub := e.submit(t, e.vacation.ID, "2025-03-03", "")
	_, err := e.svc.Approve(e.ctx, sub.Approval.ID, generic.UserID(e.manager.ID))
	require.NoError(t, err)

	_, err = e.svc.Approve(e.ctx, sub.Approval.ID, generic.UserID(e.manager.ID))
	require.ErrorIs(t, err, generic.ErrInvalidTransition)
	assert.True(t, generic.IsConflict(err))
	assert.Equal(t, generic.DaysAmount(1), e.balance(t, 2025).Taken, "a refused approve must not deduct again")

	_, err = e.svc.Reject(e.ctx, sub.Approval.ID, generic.UserID(e.manager.ID), "too late")
	require.ErrorIs(t, err, generic.ErrInvalidTransition)
}

func TestApprove_UnknownApproval(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Approve(e.ctx, "missing", generic.UserID(e.manager.ID))
	assert.True(t, generic.IsNotFound(err))
}

func TestApprove_MissingBalanceRollsBack(t *testing.T) {
	// GIVEN: a registry whose vacation validator does not check balances
	registry := timeoff.NewRegistry()
	registry.Register(timeoff.KindVacation, timeoff.VacationProcessor{}, timeoff.SickLeaveValidator{})
	e := newEnv(t, timeoff.WithRegistry(registry))
	nextYear := e.vacation
	nextYear.ID = "next-year"
	require.NoError(t, e.store.SaveTimeOffType(e.ctx, nextYear))
	_, err := e.svc.CreatePeriod(e.ctx, 2026)
	require.NoError(t, err)

	// AND: a request in a year without a balance row
	sub := e.submit(t, "next-year", "2026-02-02", "")
	before := len(e.outbox.Messages())

	// WHEN: it is approved
	_, err = e.svc.Approve(e.ctx, sub.Approval.ID, generic.UserID(e.manager.ID))

	// THEN: the whole decision is rolled back
	require.ErrorIs(t, err, generic.ErrBalanceNotFound)
	a, err := e.svc.GetApproval(e.ctx, sub.Approval.ID)
	require.NoError(t, err)
	assert.Equal(t, generic.ApprovalPending, a.Status)
	assert.Equal(t, timeoff.StatusPending, e.request(t, sub.Request.ID).Status)
	assert.Len(t, e.outbox.Messages(), before, "no notification for a rolled-back decision")

	entries, err := e.svc.QueryAudit(e.ctx, generic.AuditFilter{Actions: []generic.AuditAction{generic.AuditRequestApproved}})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReject_RequiresApproverAndReason(t *testing.T) {
	e := newEnv(t)
	sub := e.submit(t, e.vacation.ID, "2025-03-03", "")

	_, err := e.svc.Reject(e.ctx, sub.Approval.ID, "", "  ")
	requireField(t, err, "approver_id")
	requireField(t, err, "rejection_reason")

	a, err := e.svc.Reject(e.ctx, sub.Approval.ID, generic.UserID(e.manager.ID), " team offsite ")
	require.NoError(t, err)
	assert.Equal(t, generic.ApprovalRejected, a.Status)
	assert.Equal(t, "team offsite", a.RejectionReason)
	assert.Equal(t, timeoff.StatusRejected, e.request(t, sub.Request.ID).Status)
	assert.Equal(t, generic.Amount(0), e.balance(t, 2025).Taken)

	msgs := e.outbox.Messages()
	last := msgs[len(msgs)-1]
	assert.Equal(t, notify.EventRequestRejected, last.Event)
	assert.Contains(t, last.Body, "team offsite")
}

func TestCancel_PendingAndTwice(t *testing.T) {
	e := newEnv(t)
	sub := e.submit(t, e.vacation.ID, "2025-03-03", "2025-03-04")

	a, err := e.svc.Cancel(e.ctx, sub.Approval.ID, generic.UserID(e.employee.ID))
	require.NoError(t, err)
	assert.Equal(t, generic.ApprovalCancelled, a.Status)
	assert.Equal(t, timeoff.StatusCancelled, e.request(t, sub.Request.ID).Status)
	assert.Equal(t, generic.Amount(0), e.balance(t, 2025).Taken)

	audited, err := e.svc.QueryAudit(e.ctx, generic.AuditFilter{SubjectID: sub.Request.ID})
	require.NoError(t, err)
	sent := len(e.outbox.Messages())

	// a second cancel changes nothing
	a, err = e.svc.Cancel(e.ctx, sub.Approval.ID, generic.UserID(e.employee.ID))
	require.NoError(t, err)
	assert.Equal(t, generic.ApprovalCancelled, a.Status)
	again, err := e.svc.QueryAudit(e.ctx, generic.AuditFilter{SubjectID: sub.Request.ID})
	require.NoError(t, err)
	assert.Len(t, again, len(audited))
	assert.Len(t, e.outbox.Messages(), sent)
}

func TestCancel_RejectedDoesNotRestore(t *testing.T) {
	e := newEnv(t)
	sub := e.submit(t, e.vacation.ID, "2025-03-03", "")
	_, err := e.svc.Reject(e.ctx, sub.Approval.ID, generic.UserID(e.manager.ID), "no")
	require.NoError(t, err)

	_, err = e.svc.Cancel(e.ctx, sub.Approval.ID, generic.UserID(e.employee.ID))
	require.NoError(t, err)
	assert.Equal(t, generic.Amount(0), e.balance(t, 2025).Taken)
}

func TestWorkflow_AuditTrail(t *testing.T) {
	e := newEnv(t)
	sub := e.submit(t, e.vacation.ID, "2025-03-03", "")
	_, err := e.svc.Approve(e.ctx, sub.Approval.ID, generic.UserID(e.manager.ID))
	require.NoError(t, err)
	_, err = e.svc.Cancel(e.ctx, sub.Approval.ID, generic.UserID(e.employee.ID))
	require.NoError(t, err)

	entries, err := e.svc.QueryAudit(e.ctx, generic.AuditFilter{SubjectType: "time_off_request", SubjectID: sub.Request.ID})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, generic.AuditRequestCreated, entries[0].Action)
	assert.Equal(t, generic.AuditRequestApproved, entries[1].Action)
	assert.Equal(t, generic.UserID(e.manager.ID), entries[1].ActorID)
	assert.Equal(t, generic.AuditRequestCancelled, entries[2].Action)
	assert.Equal(t, "approved", entries[2].Payload["prior_status"])
}

// =============================================================================
// PERIODS AND BALANCES
// =============================================================================

func TestCreatePeriod_KeepsOneActive(t *testing.T) {
	e := newEnv(t)

	p, err := e.svc.CreatePeriod(e.ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01", p.Start.String())
	assert.Equal(t, "2026-12-31", p.End.String())

	periods, err := e.svc.ListPeriods(e.ctx)
	require.NoError(t, err)
	active := 0
	for _, p := range periods {
		if p.IsActive() {
			active++
			assert.Equal(t, 2026, p.Year)
		}
	}
	assert.Equal(t, 1, active)

	_, err = e.svc.CreatePeriod(e.ctx, 2026)
	require.ErrorIs(t, err, generic.ErrDuplicatePeriod)

	// WHEN: the closed 2025 period is created again
	_, err = e.svc.CreatePeriod(e.ctx, 2025)

	// THEN: it is a duplicate and 2026 stays the only active period
	require.ErrorIs(t, err, generic.ErrDuplicatePeriod)
	periods, err = e.svc.ListPeriods(e.ctx)
	require.NoError(t, err)
	var years []int
	for _, p := range periods {
		if p.IsActive() {
			years = append(years, p.Year)
		}
	}
	assert.Equal(t, []int{2026}, years)
}

func TestOpenBalanceYear_CarriesOverCapped(t *testing.T) {
	// GIVEN: Ana used 3 of 20 days in 2025, Mia none
	e := newEnv(t)
	sub := e.submit(t, e.vacation.ID, "2025-03-03", "2025-03-05")
	_, err := e.svc.Approve(e.ctx, sub.Approval.ID, generic.UserID(e.manager.ID))
	require.NoError(t, err)

	// WHEN: 2026 balances are opened
	opened, err := e.svc.OpenBalanceYear(e.ctx, 2026)
	require.NoError(t, err)
	require.Len(t, opened, 2)

	// THEN: carry-over is capped at 5 days and accrual is the allowance
	b := e.balance(t, 2026)
	assert.Equal(t, generic.DaysAmount(5), b.FromLastYear)
	assert.Equal(t, generic.DaysAmount(20), b.Accrued)
	assert.Equal(t, generic.DaysAmount(25), b.Remaining())

	// AND: opening again creates nothing
	opened, err = e.svc.OpenBalanceYear(e.ctx, 2026)
	require.NoError(t, err)
	assert.Empty(t, opened)
}

func TestSetVacationBalance(t *testing.T) {
	e := newEnv(t)
	b, err := e.svc.SetVacationBalance(e.ctx, e.employee.ID, 2025, timeoff.BalanceInput{FromLastYear: 2.5, Accrued: 22, Taken: 1})
	require.NoError(t, err)
	assert.Equal(t, generic.Amount(2350), b.Remaining())

	_, err = e.svc.SetVacationBalance(e.ctx, e.employee.ID, 2025, timeoff.BalanceInput{Accrued: -1})
	requireField(t, err, "accrued")

	_, err = e.svc.SetVacationBalance(e.ctx, "ghost", 2025, timeoff.BalanceInput{Accrued: 1})
	assert.True(t, generic.IsNotFound(err))
}

// =============================================================================
// TENANCY
// =============================================================================

func TestTenantIsolation(t *testing.T) {
	e := newEnv(t)
	sub := e.submit(t, e.vacation.ID, "2025-03-03", "")

	other, err := e.svc.CreateOrganization(context.Background(), "Globex")
	require.NoError(t, err)
	otherCtx := generic.WithOrganization(context.Background(), other.ID)

	_, err = e.svc.GetRequest(otherCtx, sub.Request.ID)
	assert.True(t, generic.IsNotFound(err))
	_, err = e.svc.Approve(otherCtx, sub.Approval.ID, "intruder")
	assert.True(t, generic.IsNotFound(err))
	a, err := e.svc.GetApproval(e.ctx, sub.Approval.ID)
	require.NoError(t, err)
	assert.Equal(t, generic.ApprovalPending, a.Status)

	employees, err := e.svc.ListEmployees(otherCtx)
	require.NoError(t, err)
	assert.Empty(t, employees)
}

func TestMissingOrganization(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.ListEmployees(context.Background())
	require.ErrorIs(t, err, generic.ErrMissingOrganization)
	assert.True(t, generic.IsClientError(err))
}

// =============================================================================
// REGISTRY
// =============================================================================

func TestRegistry_UnknownKindPanics(t *testing.T) {
	r := timeoff.NewRegistry()
	for _, kind := range timeoff.Kinds {
		assert.NotPanics(t, func() {
			r.Processor(kind)
			r.Validator(kind)
		})
	}
	assert.Panics(t, func() { r.Processor("sabbatical") })
	assert.Panics(t, func() { r.Validator("sabbatical") })
}
