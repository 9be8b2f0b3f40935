/*
Package generic provides the domain-agnostic core of the PeopleDear engine.

PURPOSE:
  This package holds the building blocks every workflow shares: day
  amounts, calendar dates, yearly periods, approvals and their state
  machine, tenant scoping, audit entries and the error vocabulary.
  Nothing here knows what a vacation is; the timeoff package layers
  those rules on top.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity of days stored as integer hundredths (2.5 days = 250)
  - Identifiers: Type-safe IDs for organizations, employees and users

DESIGN PRINCIPLES:
  1. Precision: Amounts are integers; decimal.Decimal is only used at the
     edges (display, JSON input) so floating-point drift never reaches
     the ledger.
  2. Type Safety: Distinct ID types prevent mixing organization and
     employee identifiers.

USAGE:
  half := generic.HalfDay                  // 50
  three := generic.DaysAmount(3)           // 300
  fmt.Println(three.Days())                // 3

SEE ALSO:
  - time.go: Calendar dates and inclusive day counts
  - approval.go: Approval state machine
  - period.go: Organization periods
*/
package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Days in hundredths
// =============================================================================

// Amount is a number of days expressed in hundredths of a day.
type Amount int64

const (
	// HundredthsPerDay is the number of ledger units in one full day.
	HundredthsPerDay Amount = 100

	// HalfDay is the amount charged for a half-day request.
	HalfDay Amount = 50
)

var hundred = decimal.NewFromInt(int64(HundredthsPerDay))

// DaysAmount converts a whole number of days into an Amount.
func DaysAmount(days int) Amount { return Amount(days) * HundredthsPerDay }

// AmountFromDays converts a decimal day count, rounding to the nearest hundredth.
func AmountFromDays(days decimal.Decimal) Amount {
	return Amount(days.Mul(hundred).Round(0).IntPart())
}

// AmountFromFloat converts a float day count (API input) to an Amount.
func AmountFromFloat(days float64) Amount {
	return AmountFromDays(decimal.NewFromFloat(days))
}

// Days returns the amount as a decimal number of days.
func (a Amount) Days() decimal.Decimal {
	return decimal.NewFromInt(int64(a)).Div(hundred)
}

// Float returns the amount in days as a float64 for JSON responses.
func (a Amount) Float() float64 {
	f, _ := a.Days().Float64()
	return f
}

func (a Amount) Add(b Amount) Amount    { return a + b }
func (a Amount) Neg() Amount            { return -a }
func (a Amount) IsNegative() bool       { return a < 0 }
func (a Amount) IsZero() bool           { return a == 0 }
func (a Amount) LessThan(b Amount) bool { return a < b }
func (a Amount) Min(b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

func (a Amount) String() string { return a.Days().String() + " days" }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type OrganizationID string
type EmployeeID string
type UserID string

// SystemUser is recorded as the actor for automatic approvals and scheduled jobs.
const SystemUser UserID = "system"

func (id OrganizationID) String() string { return string(id) }
func (id EmployeeID) String() string     { return string(id) }

// SubjectRef points at any entity by type and ID. Approvals and audit
// entries use it to refer to the record they are attached to.
type SubjectRef struct {
	Type string
	ID   string
}

func (r SubjectRef) String() string { return fmt.Sprintf("%s:%s", r.Type, r.ID) }
