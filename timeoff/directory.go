package timeoff

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/peopledear/peopledear/generic"
)

// =============================================================================
// DIRECTORY AND CONFIGURATION
// =============================================================================

// CreateOrganization registers a new tenant. It is the only operation that
// does not read the tenant from the context.
func (s *Service) CreateOrganization(ctx context.Context, name string) (generic.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return generic.Organization{}, generic.NewValidationError("name", "name is a required field")
	}
	org := generic.Organization{
		ID:        generic.OrganizationID(uuid.NewString()),
		Name:      name,
		CreatedAt: s.now(),
	}
	if err := s.store.SaveOrganization(ctx, org); err != nil {
		return generic.Organization{}, err
	}
	return org, nil
}

func (s *Service) GetOrganization(ctx context.Context, id generic.OrganizationID) (generic.Organization, error) {
	return s.store.GetOrganization(ctx, id)
}

func (s *Service) ListOrganizations(ctx context.Context) ([]generic.Organization, error) {
	return s.store.ListOrganizations(ctx)
}

// AddEmployee creates (or, when in.ID names an existing employee, updates)
// an employee of the tenant.
func (s *Service) AddEmployee(ctx context.Context, in EmployeeInput) (generic.Employee, error) {
	if err := ValidateInput(in); err != nil {
		return generic.Employee{}, err
	}
	var out generic.Employee
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		emp := generic.Employee{
			ID:             generic.EmployeeID(in.ID),
			OrganizationID: orgID,
			Name:           strings.TrimSpace(in.Name),
			Email:          in.Email,
			Role:           generic.Role(in.Role),
			CreatedAt:      s.now(),
		}
		if emp.ID == "" {
			emp.ID = generic.EmployeeID(uuid.NewString())
		}
		if emp.Role == "" {
			emp.Role = generic.RoleEmployee
		}
		out = emp
		return tx.SaveEmployee(ctx, emp)
	})
	return out, err
}

func (s *Service) GetEmployee(ctx context.Context, id generic.EmployeeID) (generic.Employee, error) {
	var out generic.Employee
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		var err error
		out, err = tx.GetEmployee(ctx, orgID, id)
		return err
	})
	return out, err
}

func (s *Service) ListEmployees(ctx context.Context) ([]generic.Employee, error) {
	var out []generic.Employee
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		var err error
		out, err = tx.ListEmployees(ctx, orgID)
		return err
	})
	return out, err
}

// SaveTimeOffType creates or updates a time-off type of the tenant.
func (s *Service) SaveTimeOffType(ctx context.Context, in TimeOffTypeInput) (TimeOffType, error) {
	out, err := s.SaveTimeOffTypes(ctx, []TimeOffTypeInput{in})
	if err != nil {
		return TimeOffType{}, err
	}
	return out[0], nil
}

// SaveTimeOffTypes creates or updates several types in one transaction:
// either all of them are saved or none is.
func (s *Service) SaveTimeOffTypes(ctx context.Context, ins []TimeOffTypeInput) ([]TimeOffType, error) {
	for _, in := range ins {
		if err := in.Validate(); err != nil {
			return nil, err
		}
	}
	out := make([]TimeOffType, 0, len(ins))
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		for _, in := range ins {
			t := in.ToType(orgID)
			if t.ID == "" {
				t.ID = uuid.NewString()
			}
			if err := tx.SaveTimeOffType(ctx, t); err != nil {
				return errors.Wrapf(err, "save type %s", t.Name)
			}
			if err := s.audit(ctx, tx, orgID, generic.SystemUser, generic.AuditTimeOffTypeSaved,
				generic.SubjectRef{Type: "time_off_type", ID: t.ID}, map[string]any{"kind": string(t.Kind), "name": t.Name}); err != nil {
				return err
			}
			out = append(out, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ListTimeOffTypes(ctx context.Context) ([]TimeOffType, error) {
	var out []TimeOffType
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		var err error
		out, err = tx.ListTimeOffTypes(ctx, orgID)
		return err
	})
	return out, err
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Service) AddHoliday(ctx context.Context, in HolidayInput) (generic.Holiday, error) {
	if err := ValidateInput(in); err != nil {
		return generic.Holiday{}, err
	}
	date, err := generic.ParseDate(in.Date)
	if err != nil {
		return generic.Holiday{}, generic.NewValidationError("date", "date must be a YYYY-MM-DD date")
	}
	var out generic.Holiday
	err = s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		out = generic.Holiday{
			ID:             uuid.NewString(),
			OrganizationID: orgID,
			Date:           date,
			Name:           strings.TrimSpace(in.Name),
			Recurring:      in.Recurring,
		}
		return tx.SaveHoliday(ctx, out)
	})
	return out, err
}

func (s *Service) ListHolidays(ctx context.Context) ([]generic.Holiday, error) {
	var out []generic.Holiday
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		var err error
		out, err = tx.ListHolidays(ctx, orgID)
		return err
	})
	return out, err
}

func (s *Service) DeleteHoliday(ctx context.Context, id string) error {
	return s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		return tx.DeleteHoliday(ctx, orgID, id)
	})
}

// =============================================================================
// QUERIES
// =============================================================================

func (s *Service) GetRequest(ctx context.Context, id string) (TimeOffRequest, error) {
	var out TimeOffRequest
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		var err error
		out, err = tx.GetRequest(ctx, orgID, id)
		return err
	})
	return out, err
}

func (s *Service) ListRequests(ctx context.Context, empID generic.EmployeeID) ([]TimeOffRequest, error) {
	var out []TimeOffRequest
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		if _, err := tx.GetEmployee(ctx, orgID, empID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListRequestsByEmployee(ctx, orgID, empID)
		return err
	})
	return out, err
}

func (s *Service) GetApproval(ctx context.Context, id string) (generic.Approval, error) {
	var out generic.Approval
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		var err error
		out, err = tx.GetApproval(ctx, orgID, id)
		return err
	})
	return out, err
}

// ApprovalFor returns the approval attached to a request.
func (s *Service) ApprovalFor(ctx context.Context, requestID string) (generic.Approval, error) {
	var out generic.Approval
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		var err error
		out, err = tx.GetApprovalFor(ctx, orgID, generic.SubjectRef{Type: generic.ApprovableTimeOffRequest, ID: requestID})
		return err
	})
	return out, err
}

// ListApprovals returns the tenant's approvals. An empty status lists all.
func (s *Service) ListApprovals(ctx context.Context, status generic.ApprovalStatus) ([]generic.Approval, error) {
	if status != "" && !status.Valid() {
		return nil, generic.NewValidationError("status", "status must be one of [pending approved rejected cancelled]")
	}
	var out []generic.Approval
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		var err error
		out, err = tx.ListApprovals(ctx, orgID, status)
		return err
	})
	return out, err
}

func (s *Service) ListPeriods(ctx context.Context) ([]generic.Period, error) {
	var out []generic.Period
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		var err error
		out, err = tx.ListPeriods(ctx, orgID)
		return err
	})
	return out, err
}

// QueryAudit returns the tenant's audit entries matching filter. The
// filter's organization is always replaced by the tenant.
func (s *Service) QueryAudit(ctx context.Context, filter generic.AuditFilter) ([]generic.AuditEntry, error) {
	var out []generic.AuditEntry
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		filter.OrganizationID = orgID
		var err error
		out, err = tx.QueryAudit(ctx, filter)
		return err
	})
	return out, err
}
