package timeoff

import (
	"context"

	"github.com/pkg/errors"

	"github.com/peopledear/peopledear/generic"
)

// =============================================================================
// PROCESSORS - Effects of approving and un-approving a request
// =============================================================================

// Processor applies and reverses the effects of an approval. Both methods
// run inside the caller's transaction; an error rolls the whole decision
// back.
type Processor interface {
	// Process marks the request approved and applies its effects.
	Process(ctx context.Context, store Store, r TimeOffRequest) error
	// Reverse undoes a previous Process and marks the request cancelled.
	Reverse(ctx context.Context, store Store, r TimeOffRequest) error
}

// VacationProcessor charges approved vacation against the yearly balance.
type VacationProcessor struct{}

func (VacationProcessor) Process(ctx context.Context, store Store, r TimeOffRequest) error {
	if err := store.UpdateRequestStatus(ctx, r.OrganizationID, r.ID, StatusApproved); err != nil {
		return err
	}
	return DeductVacationBalance(ctx, store, r)
}

func (VacationProcessor) Reverse(ctx context.Context, store Store, r TimeOffRequest) error {
	if err := store.UpdateRequestStatus(ctx, r.OrganizationID, r.ID, StatusCancelled); err != nil {
		return err
	}
	return RestoreVacationBalance(ctx, store, r)
}

// StatusProcessor only moves the request status. Used by kinds with no
// ledger.
type StatusProcessor struct{}

func (StatusProcessor) Process(ctx context.Context, store Store, r TimeOffRequest) error {
	return store.UpdateRequestStatus(ctx, r.OrganizationID, r.ID, StatusApproved)
}

func (StatusProcessor) Reverse(ctx context.Context, store Store, r TimeOffRequest) error {
	return store.UpdateRequestStatus(ctx, r.OrganizationID, r.ID, StatusCancelled)
}

// =============================================================================
// BALANCE LEDGER
// =============================================================================

// DeductVacationBalance adds the request amount to taken for the year of
// its start date.
func DeductVacationBalance(ctx context.Context, store Store, r TimeOffRequest) error {
	return adjustTaken(ctx, store, r, CalculateAmount(r))
}

// RestoreVacationBalance is the exact inverse of DeductVacationBalance for
// the same request.
func RestoreVacationBalance(ctx context.Context, store Store, r TimeOffRequest) error {
	return adjustTaken(ctx, store, r, CalculateAmount(r).Neg())
}

func adjustTaken(ctx context.Context, store Store, r TimeOffRequest, delta generic.Amount) error {
	err := store.IncrementTaken(ctx, r.OrganizationID, r.EmployeeID, r.Year(), delta)
	if err != nil {
		return errors.Wrapf(err, "adjust %s balance for %d by %s", r.EmployeeID, r.Year(), delta.Days())
	}
	return nil
}
