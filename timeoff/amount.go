package timeoff

import "github.com/peopledear/peopledear/generic"

// CalculateAmount returns the days a request charges: half a day for
// half-day requests, otherwise the inclusive calendar-day count between
// start and end. Weekends and holidays are counted.
func CalculateAmount(r TimeOffRequest) generic.Amount {
	if r.IsHalfDay {
		return generic.HalfDay
	}
	return generic.DaysAmount(generic.InclusiveDays(r.StartDate, r.EndDate))
}
