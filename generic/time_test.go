package generic_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/peopledear/peopledear/generic"
)

func TestInclusiveDays(t *testing.T) {
	mon := generic.MustParseDate("2025-03-03")
	wed := generic.MustParseDate("2025-03-05")
	newYear := generic.MustParseDate("2026-01-01")
	nye := generic.MustParseDate("2025-12-31")
	y2k := generic.MustParseDate("2000-01-01")
	y2500 := generic.MustParseDate("2500-01-01")

	tests := []struct {
		name  string
		start generic.Date
		end   *generic.Date
		want  int
	}{
		{"single day, no end", mon, nil, 1},
		{"same start and end", mon, &mon, 1},
		{"monday to wednesday", mon, &wed, 3},
		{"across year end", nye, &newYear, 2},
		{"five centuries", y2k, &y2500, 182623},
	}
	for _, tc := range tests {
		if got := generic.InclusiveDays(tc.start, tc.end); got != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestDateOf_IgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2025, time.March, 3, 23, 59, 0, 0, time.UTC)
	if got := generic.DateOf(late); got.String() != "2025-03-03" {
		t.Errorf("DateOf = %s", got)
	}
}

func TestOverlaps(t *testing.T) {
	d := generic.MustParseDate
	if !generic.Overlaps(d("2025-03-01"), d("2025-03-05"), d("2025-03-05"), d("2025-03-07")) {
		t.Error("ranges sharing an end day should overlap")
	}
	if generic.Overlaps(d("2025-03-01"), d("2025-03-04"), d("2025-03-05"), d("2025-03-07")) {
		t.Error("adjacent ranges should not overlap")
	}
}

func TestAmount_Conversions(t *testing.T) {
	if generic.DaysAmount(3) != 300 {
		t.Errorf("DaysAmount(3) = %d", generic.DaysAmount(3))
	}
	if !generic.HalfDay.Days().Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("HalfDay.Days() = %s", generic.HalfDay.Days())
	}
	if got := generic.AmountFromFloat(2.5); got != 250 {
		t.Errorf("AmountFromFloat(2.5) = %d", got)
	}
	if got := generic.Amount(300).Min(250); got != 250 {
		t.Errorf("Min = %d", got)
	}
}

func TestTenantContext(t *testing.T) {
	if _, err := generic.OrganizationFrom(context.Background()); err == nil {
		t.Error("bare context should have no organization")
	}
	ctx := generic.WithOrganization(context.Background(), "org-1")
	got, err := generic.OrganizationFrom(ctx)
	if err != nil || got != "org-1" {
		t.Errorf("OrganizationFrom = %q, %v", got, err)
	}
}

func TestHoliday_OccursOn(t *testing.T) {
	xmas := generic.Holiday{Date: generic.MustParseDate("2020-12-25"), Recurring: true}
	if !xmas.OccursOn(generic.MustParseDate("2025-12-25")) {
		t.Error("recurring holiday should match any year")
	}
	once := generic.Holiday{Date: generic.MustParseDate("2025-05-02")}
	if once.OccursOn(generic.MustParseDate("2026-05-02")) {
		t.Error("one-off holiday should not recur")
	}
}
