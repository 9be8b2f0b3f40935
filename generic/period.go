package generic

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// PERIOD - Organization yearly window
// =============================================================================

type PeriodStatus string

const (
	PeriodActive PeriodStatus = "active"
	PeriodClosed PeriodStatus = "closed"
)

// Period is an organization's calendar-year window. At most one period
// per organization is active at a time.
type Period struct {
	ID             string
	OrganizationID OrganizationID
	Year           int
	Start          Date
	End            Date
	Status         PeriodStatus
	CreatedAt      time.Time
}

func (p Period) IsActive() bool { return p.Status == PeriodActive }

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// PERIOD LIFECYCLE
// =============================================================================

// PeriodStore is the persistence needed by CreatePeriod. Implementations
// must enforce uniqueness of (organization, year) and report a violation
// as ErrDuplicatePeriod.
type PeriodStore interface {
	InsertPeriod(ctx context.Context, p Period) error
	// CloseActivePeriods closes every non-closed period of the organization
	// whose year differs from exceptYear and returns how many were closed.
	CloseActivePeriods(ctx context.Context, orgID OrganizationID, exceptYear int) (int, error)
	GetActivePeriod(ctx context.Context, orgID OrganizationID, year int) (Period, error)
	ListPeriods(ctx context.Context, orgID OrganizationID) ([]Period, error)
}

// CreatePeriod inserts an active period covering the calendar year and
// then closes the organization's other active periods. A duplicate year
// fails with ErrDuplicatePeriod before anything is closed.
func CreatePeriod(ctx context.Context, store PeriodStore, orgID OrganizationID, year int, now time.Time) (Period, error) {
	if orgID == "" {
		return Period{}, ErrMissingOrganization
	}
	if year < 1 || year > 9999 {
		return Period{}, NewValidationError("year", "year must be between 1 and 9999")
	}

	p := Period{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Year:           year,
		Start:          StartOfYear(year),
		End:            EndOfYear(year),
		Status:         PeriodActive,
		CreatedAt:      now,
	}
	if err := store.InsertPeriod(ctx, p); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Period{}, ErrDuplicatePeriod
		}
		return Period{}, err
	}
	if _, err := store.CloseActivePeriods(ctx, orgID, year); err != nil {
		return Period{}, err
	}
	return p, nil
}
