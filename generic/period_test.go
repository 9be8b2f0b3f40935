package generic_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/peopledear/peopledear/generic"
)

// fakePeriods is the smallest PeriodStore that honors the uniqueness rule.
type fakePeriods struct {
	periods []generic.Period
}

func (f *fakePeriods) InsertPeriod(_ context.Context, p generic.Period) error {
	for _, existing := range f.periods {
		if existing.OrganizationID == p.OrganizationID && existing.Year == p.Year {
			return generic.ErrDuplicate
		}
	}
	f.periods = append(f.periods, p)
	return nil
}

func (f *fakePeriods) CloseActivePeriods(_ context.Context, orgID generic.OrganizationID, exceptYear int) (int, error) {
	n := 0
	for i := range f.periods {
		p := &f.periods[i]
		if p.OrganizationID == orgID && p.Year != exceptYear && p.Status != generic.PeriodClosed {
			p.Status = generic.PeriodClosed
			n++
		}
	}
	return n, nil
}

func (f *fakePeriods) GetActivePeriod(_ context.Context, orgID generic.OrganizationID, year int) (generic.Period, error) {
	for _, p := range f.periods {
		if p.OrganizationID == orgID && p.Year == year && p.IsActive() {
			return p, nil
		}
	}
	return generic.Period{}, generic.NotFound("period", "")
}

func (f *fakePeriods) ListPeriods(_ context.Context, orgID generic.OrganizationID) ([]generic.Period, error) {
	var out []generic.Period
	for _, p := range f.periods {
		if p.OrganizationID == orgID {
			out = append(out, p)
		}
	}
	return out, nil
}

func activeCount(t *testing.T, f *fakePeriods, orgID generic.OrganizationID) (int, int) {
	t.Helper()
	periods, _ := f.ListPeriods(context.Background(), orgID)
	count, year := 0, 0
	for _, p := range periods {
		if p.IsActive() {
			count++
			year = p.Year
		}
	}
	return count, year
}

func TestCreatePeriod_CalendarYearBounds(t *testing.T) {
	store := &fakePeriods{}
	now := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	p, err := generic.CreatePeriod(context.Background(), store, "org-1", 2025, now)
	if err != nil {
		t.Fatalf("CreatePeriod: %v", err)
	}
	if !p.Start.Equal(generic.NewDate(2025, time.January, 1)) || !p.End.Equal(generic.NewDate(2025, time.December, 31)) {
		t.Errorf("bounds = %s, want calendar year 2025", p)
	}
	if !p.IsActive() {
		t.Errorf("status = %s, want active", p.Status)
	}
}

func TestCreatePeriod_ClosesPreviousActive(t *testing.T) {
	// GIVEN: org-1 has an active 2024 period, org-2 has one too
	store := &fakePeriods{}
	ctx := context.Background()
	now := time.Now()
	for _, org := range []generic.OrganizationID{"org-1", "org-2"} {
		if _, err := generic.CreatePeriod(ctx, store, org, 2024, now); err != nil {
			t.Fatal(err)
		}
	}

	// WHEN: org-1 opens 2025
	if _, err := generic.CreatePeriod(ctx, store, "org-1", 2025, now); err != nil {
		t.Fatal(err)
	}

	// THEN: exactly one active period for org-1 (2025), org-2 untouched
	if n, year := activeCount(t, store, "org-1"); n != 1 || year != 2025 {
		t.Errorf("org-1 active = %d (year %d), want 1 (2025)", n, year)
	}
	if n, year := activeCount(t, store, "org-2"); n != 1 || year != 2024 {
		t.Errorf("org-2 active = %d (year %d), want 1 (2024)", n, year)
	}
}

func TestCreatePeriod_DuplicateYear(t *testing.T) {
	store := &fakePeriods{}
	ctx := context.Background()
	if _, err := generic.CreatePeriod(ctx, store, "org-1", 2025, time.Now()); err != nil {
		t.Fatal(err)
	}

	_, err := generic.CreatePeriod(ctx, store, "org-1", 2025, time.Now())
	if !errors.Is(err, generic.ErrDuplicatePeriod) {
		t.Errorf("err = %v, want ErrDuplicatePeriod", err)
	}
	if !generic.IsConflict(err) {
		t.Error("duplicate period should be a conflict")
	}
}

func TestCreatePeriod_RequiresOrganization(t *testing.T) {
	_, err := generic.CreatePeriod(context.Background(), &fakePeriods{}, "", 2025, time.Now())
	if !errors.Is(err, generic.ErrMissingOrganization) {
		t.Errorf("err = %v, want ErrMissingOrganization", err)
	}
}
