package api

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/peopledear/peopledear/generic"
	"github.com/peopledear/peopledear/store/memory"
	"github.com/peopledear/peopledear/timeoff"
)

func newScheduler(t *testing.T) (*RolloverScheduler, *timeoff.Service) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	svc := timeoff.NewService(memory.New(),
		timeoff.WithLogger(logger),
		timeoff.WithClock(func() time.Time { return testNow }),
	)
	s := NewRolloverScheduler(svc, "0 0 1 1 *", logger)
	s.now = func() time.Time { return testNow }
	return s, svc
}

func TestRollover_IsIdempotent(t *testing.T) {
	s, svc := newScheduler(t)
	ctx := context.Background()

	// GIVEN: one organization with a vacation type and an employee,
	// and one without a vacation type
	acme, err := svc.CreateOrganization(ctx, "Acme")
	require.NoError(t, err)
	actx := generic.WithOrganization(ctx, acme.ID)
	_, err = svc.SaveTimeOffType(actx, timeoff.TimeOffTypeInput{Kind: "vacation", Name: "Vacation", RequiresApproval: true, AnnualAllowance: 20})
	require.NoError(t, err)
	ana, err := svc.AddEmployee(actx, timeoff.EmployeeInput{Name: "Ana", Email: "ana@acme.test"})
	require.NoError(t, err)
	_, err = svc.CreateOrganization(ctx, "Empty")
	require.NoError(t, err)

	// WHEN: the rollover runs
	results, err := s.RunNow(ctx)

	// THEN: both organizations get a period, only Acme gets balances
	require.NoError(t, err)
	require.Len(t, results, 2)
	byOrg := map[generic.OrganizationID]RolloverResult{}
	for _, r := range results {
		assert.Equal(t, 2025, r.Year)
		assert.True(t, r.PeriodCreated)
		byOrg[r.OrganizationID] = r
	}
	assert.Equal(t, 1, byOrg[acme.ID].BalancesOpened)

	b, err := svc.GetBalance(actx, ana.ID, 2025)
	require.NoError(t, err)
	assert.Equal(t, generic.DaysAmount(20), b.Accrued)

	// WHEN: it runs again
	results, err = s.Rollover(ctx, 2025)

	// THEN: nothing changes
	require.NoError(t, err)
	for _, r := range results {
		assert.False(t, r.PeriodCreated)
		assert.Zero(t, r.BalancesOpened)
	}
	periods, err := svc.ListPeriods(actx)
	require.NoError(t, err)
	assert.Len(t, periods, 1)
}

func TestRollover_NewYearCarriesOver(t *testing.T) {
	s, svc := newScheduler(t)
	ctx := context.Background()
	acme, err := svc.CreateOrganization(ctx, "Acme")
	require.NoError(t, err)
	actx := generic.WithOrganization(ctx, acme.ID)
	_, err = svc.SaveTimeOffType(actx, timeoff.TimeOffTypeInput{
		Kind: "vacation", Name: "Vacation", RequiresApproval: true, AnnualAllowance: 20, CarryOverEnabled: true, CarryOverLimit: 5,
	})
	require.NoError(t, err)
	ana, err := svc.AddEmployee(actx, timeoff.EmployeeInput{Name: "Ana", Email: "ana@acme.test"})
	require.NoError(t, err)

	_, err = s.Rollover(ctx, 2025)
	require.NoError(t, err)
	_, err = s.Rollover(ctx, 2026)
	require.NoError(t, err)

	b, err := svc.GetBalance(actx, ana.ID, 2026)
	require.NoError(t, err)
	assert.Equal(t, generic.DaysAmount(5), b.FromLastYear)

	periods, err := svc.ListPeriods(actx)
	require.NoError(t, err)
	for _, p := range periods {
		assert.Equal(t, p.Year == 2026, p.IsActive(), "year %d", p.Year)
	}
}

func TestRolloverScheduler_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, _ := newScheduler(t)
	assert.True(t, s.NextRun().IsZero())

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	next := s.NextRun()
	assert.Equal(t, time.January, next.Month())
	assert.Equal(t, 1, next.Day())

	s.Stop()
	s.Stop()
	assert.True(t, s.NextRun().IsZero())
}

func TestRolloverScheduler_BadSpec(t *testing.T) {
	s, _ := newScheduler(t)
	s.spec = "every tuesday"
	assert.Error(t, s.Start())
}
