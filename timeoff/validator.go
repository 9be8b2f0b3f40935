package timeoff

import (
	"context"
	"fmt"

	"github.com/peopledear/peopledear/generic"
)

// =============================================================================
// TYPE VALIDATORS - Per-kind rules checked before a request is stored
// =============================================================================

// TypeValidator checks kind-specific rules for a new request. Field-level
// failures are *generic.ValidationError; anything else is a store failure.
type TypeValidator interface {
	Validate(ctx context.Context, store Store, r TimeOffRequest, t TimeOffType) error
}

// VacationValidator requires a balance row for the year with enough
// remaining days.
type VacationValidator struct{}

func (VacationValidator) Validate(ctx context.Context, store Store, r TimeOffRequest, _ TimeOffType) error {
	bal, err := store.GetVacationBalance(ctx, r.OrganizationID, r.EmployeeID, r.Year())
	if generic.IsNotFound(err) {
		return generic.NewValidationError("start_date", fmt.Sprintf("no vacation balance for %d", r.Year()))
	}
	if err != nil {
		return err
	}
	amount := CalculateAmount(r)
	if bal.Remaining().LessThan(amount) {
		return &generic.InsufficientBalanceError{
			EmployeeID: r.EmployeeID,
			Year:       r.Year(),
			Available:  bal.Remaining(),
			Requested:  amount,
		}
	}
	return nil
}

// SickLeaveValidator requires a reason when the type demands justification.
type SickLeaveValidator struct{}

func (SickLeaveValidator) Validate(_ context.Context, _ Store, r TimeOffRequest, t TimeOffType) error {
	if t.RequiresJustification && r.Reason == "" {
		return generic.NewValidationError("reason", "a reason is required for this time-off type")
	}
	return nil
}

// PersonalDayValidator caps the number of requests per year.
type PersonalDayValidator struct{}

func (PersonalDayValidator) Validate(ctx context.Context, store Store, r TimeOffRequest, t TimeOffType) error {
	limit := t.Config.MaxRequestsPerYear
	if limit <= 0 {
		return nil
	}
	existing, err := store.ListRequestsByEmployee(ctx, r.OrganizationID, r.EmployeeID)
	if err != nil {
		return err
	}
	used := 0
	for _, other := range existing {
		if other.TypeID == t.ID && other.Year() == r.Year() && other.Status.Blocking() {
			used++
		}
	}
	if used >= limit {
		return generic.NewValidationError("time_off_type_id",
			fmt.Sprintf("at most %d requests of this type per year", limit))
	}
	return nil
}

// BereavementValidator caps the days of a single request.
type BereavementValidator struct{}

func (BereavementValidator) Validate(_ context.Context, _ Store, r TimeOffRequest, t TimeOffType) error {
	limit := t.Config.MaxDaysPerRequest
	if limit <= 0 {
		return nil
	}
	if CalculateAmount(r) > limit {
		return generic.NewValidationError("end_date",
			fmt.Sprintf("at most %s days per request", limit.Days()))
	}
	return nil
}
