package timeoff

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/peopledear/peopledear/generic"
)

// =============================================================================
// PERIODS AND BALANCES
// =============================================================================

// CreatePeriod opens year for the tenant, closing its other active periods.
func (s *Service) CreatePeriod(ctx context.Context, year int) (generic.Period, error) {
	var out generic.Period
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		p, err := generic.CreatePeriod(ctx, tx, orgID, year, s.now())
		if err != nil {
			return err
		}
		out = p
		return s.audit(ctx, tx, orgID, generic.SystemUser, generic.AuditPeriodCreated,
			generic.SubjectRef{Type: "period", ID: p.ID}, map[string]any{"year": year})
	})
	if err != nil {
		return generic.Period{}, err
	}
	s.logger.WithFields(log.Fields{"organization": out.OrganizationID, "year": year}).Info("period created")
	return out, nil
}

// OpenBalanceYear creates the year's vacation balance for every employee
// that has none. accrued is the vacation type's annual allowance (or twelve
// months of monthly accrual). from_last_year carries over the previous
// year's remaining days, capped by carry_over_limit when one is set.
func (s *Service) OpenBalanceYear(ctx context.Context, year int) ([]VacationBalance, error) {
	var opened []VacationBalance
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		vacation, err := activeVacationType(ctx, tx, orgID)
		if err != nil {
			return err
		}
		employees, err := tx.ListEmployees(ctx, orgID)
		if err != nil {
			return err
		}
		for _, emp := range employees {
			if _, err := tx.GetVacationBalance(ctx, orgID, emp.ID, year); err == nil {
				continue
			} else if !generic.IsNotFound(err) {
				return err
			}

			carry, err := carryOver(ctx, tx, orgID, emp.ID, year, vacation.Config)
			if err != nil {
				return err
			}
			b := VacationBalance{
				ID:             uuid.NewString(),
				OrganizationID: orgID,
				EmployeeID:     emp.ID,
				Year:           year,
				FromLastYear:   carry,
				Accrued:        annualAccrual(vacation.Config),
				UpdatedAt:      s.now(),
			}
			if err := tx.SaveVacationBalance(ctx, b); err != nil {
				return err
			}
			if err := s.audit(ctx, tx, orgID, generic.SystemUser, generic.AuditBalanceOpened,
				generic.SubjectRef{Type: "employee", ID: string(emp.ID)},
				map[string]any{"year": year, "from_last_year": carry.Float(), "accrued": b.Accrued.Float()}); err != nil {
				return err
			}
			opened = append(opened, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(log.Fields{"year": year, "opened": len(opened)}).Info("balance year opened")
	return opened, nil
}

func activeVacationType(ctx context.Context, tx Store, orgID generic.OrganizationID) (TimeOffType, error) {
	types, err := tx.ListTimeOffTypes(ctx, orgID)
	if err != nil {
		return TimeOffType{}, err
	}
	for _, t := range types {
		if t.Kind == KindVacation && t.IsActive && t.BalanceMode == BalanceAnnual {
			return t, nil
		}
	}
	return TimeOffType{}, generic.NewValidationError("time_off_type_id", "organization has no active vacation type")
}

func annualAccrual(cfg BalanceConfig) generic.Amount {
	if cfg.AnnualAllowance > 0 {
		return cfg.AnnualAllowance
	}
	return cfg.AccrualDaysPerMonth * 12
}

func carryOver(ctx context.Context, tx Store, orgID generic.OrganizationID, empID generic.EmployeeID, year int, cfg BalanceConfig) (generic.Amount, error) {
	if !cfg.CarryOverEnabled {
		return 0, nil
	}
	prev, err := tx.GetVacationBalance(ctx, orgID, empID, year-1)
	if generic.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	carry := prev.Remaining()
	if carry.IsNegative() {
		return 0, nil
	}
	if cfg.CarryOverLimit > 0 {
		carry = carry.Min(cfg.CarryOverLimit)
	}
	return carry, nil
}

// SetVacationBalance creates or overwrites an employee's balance for year.
func (s *Service) SetVacationBalance(ctx context.Context, empID generic.EmployeeID, year int, in BalanceInput) (VacationBalance, error) {
	if err := ValidateInput(in); err != nil {
		return VacationBalance{}, err
	}
	var out VacationBalance
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		if _, err := tx.GetEmployee(ctx, orgID, empID); err != nil {
			return err
		}
		b, err := tx.GetVacationBalance(ctx, orgID, empID, year)
		if generic.IsNotFound(err) {
			b = VacationBalance{ID: uuid.NewString(), OrganizationID: orgID, EmployeeID: empID, Year: year}
		} else if err != nil {
			return err
		}
		before := b.Remaining()
		b.FromLastYear = generic.AmountFromFloat(in.FromLastYear)
		b.Accrued = generic.AmountFromFloat(in.Accrued)
		b.Taken = generic.AmountFromFloat(in.Taken)
		b.UpdatedAt = s.now()
		if err := tx.SaveVacationBalance(ctx, b); err != nil {
			return err
		}
		out = b
		return s.audit(ctx, tx, orgID, generic.SystemUser, generic.AuditBalanceAdjusted,
			generic.SubjectRef{Type: "employee", ID: string(empID)},
			map[string]any{"year": year, "remaining_before": before.Float(), "remaining_after": b.Remaining().Float()})
	})
	return out, err
}

// GetBalance returns an employee's balance for year.
func (s *Service) GetBalance(ctx context.Context, empID generic.EmployeeID, year int) (VacationBalance, error) {
	var out VacationBalance
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		b, err := tx.GetVacationBalance(ctx, orgID, empID, year)
		out = b
		return err
	})
	return out, err
}

// ListBalances returns every balance of the tenant for year.
func (s *Service) ListBalances(ctx context.Context, year int) ([]VacationBalance, error) {
	var out []VacationBalance
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		var err error
		out, err = tx.ListVacationBalances(ctx, orgID, year)
		return err
	})
	return out, err
}
