package generic

import "time"

// =============================================================================
// DIRECTORY - Organizations, employees and holidays
// =============================================================================

type Organization struct {
	ID        OrganizationID
	Name      string
	CreatedAt time.Time
}

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleOwner    Role = "owner"
)

func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleManager || r == RoleOwner
}

// CanApprove reports whether the role may decide on approvals.
func (r Role) CanApprove() bool { return r == RoleManager || r == RoleOwner }

type Employee struct {
	ID             EmployeeID
	OrganizationID OrganizationID
	Name           string
	Email          string
	Role           Role
	CreatedAt      time.Time
}

// Holiday is an organization day off. Recurring holidays repeat on the
// same month and day every year.
type Holiday struct {
	ID             string
	OrganizationID OrganizationID
	Date           Date
	Name           string
	Recurring      bool
}

// OccursOn reports whether the holiday falls on d.
func (h Holiday) OccursOn(d Date) bool {
	if h.Recurring {
		return h.Date.Month() == d.Month() && h.Date.Day() == d.Day()
	}
	return h.Date.Equal(d)
}
