/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate a NEW organization with
	realistic data for demos. Every load creates its own tenant, so
	loading never touches existing organizations and can be repeated.

AVAILABLE SCENARIOS:

	small-team:         Manager plus two employees, default catalog,
	                    requests in every approval state
	year-end-rollover:  Last year's balances with leftover days, this
	                    year's period opened with capped carry-over
	type-limits:        Personal-day and bereavement caps in action

HOW SCENARIOS WORK:
 1. Create an organization named after the scenario
 2. Install factory.DefaultCatalog
 3. Add employees
 4. Open periods and balances
 5. Submit and decide requests through the service

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "small-team"}

	The response carries the organization id to send as X-Organization-ID.

SEE ALSO:
  - factory/policy.go: DefaultCatalog
  - handlers.go: Error mapping
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/peopledear/peopledear/generic"
	"github.com/peopledear/peopledear/timeoff"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	load func(ctx context.Context, h *Handler, d *demo) error
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "small-team",
			Name:        "Small Team",
			Description: "A manager and two employees with pending, approved, rejected and auto-approved requests",
		},
		load: loadSmallTeam,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "year-end-rollover",
			Name:        "Year-End Rollover",
			Description: "Last year's leftover vacation carried into this year, capped at five days",
		},
		load: loadYearEndRollover,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "type-limits",
			Name:        "Type Limits",
			Description: "Personal days capped per year and bereavement capped per request",
		},
		load: loadTypeLimits,
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	out := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, out)
}

// LoadScenario builds a scenario in a new organization.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, h.logger, generic.NewValidationError("scenario_id", fmt.Sprintf("unknown scenario %q", req.ScenarioID)))
		return
	}

	d, err := h.loadScenario(r.Context(), s)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.WithField("scenario", s.ID).WithField("organization", d.org.ID).Info("scenario loaded")
	writeJSON(w, http.StatusCreated, ScenarioLoadedDTO{
		Scenario:     s.ScenarioDTO,
		Organization: toOrganizationDTO(d.org),
		Employees:    mapSlice(d.employees, toEmployeeDTO),
	})
}

func (h *Handler) loadScenario(ctx context.Context, s scenario) (*demo, error) {
	org, err := h.svc.CreateOrganization(ctx, s.Name+" (demo)")
	if err != nil {
		return nil, err
	}
	d := &demo{org: org, year: h.now().Year(), types: make(map[timeoff.TypeKind]timeoff.TimeOffType)}
	ctx = generic.WithOrganization(ctx, org.ID)

	installed, err := h.types.Install(ctx, h.svc, h.types.DefaultInputs())
	if err != nil {
		return nil, err
	}
	for _, t := range installed {
		d.types[t.Kind] = t
	}
	if err := s.load(ctx, h, d); err != nil {
		return nil, errors.Wrapf(err, "load scenario %s", s.ID)
	}
	return d, nil
}

// demo accumulates what a loader created.
type demo struct {
	org       generic.Organization
	year      int
	types     map[timeoff.TypeKind]timeoff.TimeOffType
	employees []generic.Employee
}

func (d *demo) date(month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, month, day)
}

func (d *demo) hire(ctx context.Context, h *Handler, name, email, role string) (generic.Employee, error) {
	emp, err := h.svc.AddEmployee(ctx, timeoff.EmployeeInput{Name: name, Email: email, Role: role})
	if err != nil {
		return generic.Employee{}, err
	}
	d.employees = append(d.employees, emp)
	return emp, nil
}

func (d *demo) request(ctx context.Context, h *Handler, emp generic.Employee, kind timeoff.TypeKind, start, end, reason string) (timeoff.Submission, error) {
	return h.svc.CreateTimeOffRequest(ctx, timeoff.CreateRequestInput{
		EmployeeID: string(emp.ID),
		TypeID:     d.types[kind].ID,
		StartDate:  start,
		EndDate:    end,
		Reason:     reason,
	})
}

// openYear creates the period and balances for year.
func openYear(ctx context.Context, h *Handler, year int) error {
	if _, err := h.svc.CreatePeriod(ctx, year); err != nil {
		return err
	}
	_, err := h.svc.OpenBalanceYear(ctx, year)
	return err
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadSmallTeam(ctx context.Context, h *Handler, d *demo) error {
	mia, err := d.hire(ctx, h, "Mia Manager", "mia@example.com", string(generic.RoleManager))
	if err != nil {
		return err
	}
	ana, err := d.hire(ctx, h, "Ana Alves", "ana@example.com", string(generic.RoleEmployee))
	if err != nil {
		return err
	}
	ben, err := d.hire(ctx, h, "Ben Brooks", "ben@example.com", string(generic.RoleEmployee))
	if err != nil {
		return err
	}
	if _, err := h.svc.AddHoliday(ctx, timeoff.HolidayInput{Date: d.date(1, 1), Name: "New Year's Day", Recurring: true}); err != nil {
		return err
	}
	if err := openYear(ctx, h, d.year); err != nil {
		return err
	}

	// pending
	if _, err := d.request(ctx, h, ana, timeoff.KindVacation, d.date(8, 4), d.date(8, 8), "Summer trip"); err != nil {
		return err
	}
	// approved
	sub, err := d.request(ctx, h, ben, timeoff.KindVacation, d.date(3, 10), d.date(3, 12), "")
	if err != nil {
		return err
	}
	if _, err := h.svc.Approve(ctx, sub.Approval.ID, generic.UserID(mia.ID)); err != nil {
		return err
	}
	// rejected
	sub, err = d.request(ctx, h, ben, timeoff.KindVacation, d.date(12, 22), d.date(12, 23), "")
	if err != nil {
		return err
	}
	if _, err := h.svc.Reject(ctx, sub.Approval.ID, generic.UserID(mia.ID), "Year-end release freeze"); err != nil {
		return err
	}
	// auto-approved
	_, err = d.request(ctx, h, ana, timeoff.KindSickLeave, d.date(2, 3), "", "Flu")
	return err
}

func loadYearEndRollover(ctx context.Context, h *Handler, d *demo) error {
	mia, err := d.hire(ctx, h, "Mia Manager", "mia@example.com", string(generic.RoleManager))
	if err != nil {
		return err
	}
	ana, err := d.hire(ctx, h, "Ana Alves", "ana@example.com", string(generic.RoleEmployee))
	if err != nil {
		return err
	}

	last := &demo{org: d.org, year: d.year - 1, types: d.types}
	if err := openYear(ctx, h, last.year); err != nil {
		return err
	}
	// Ana took 4 of 22 days last year: 18 left, 5 carried over.
	sub, err := last.request(ctx, h, ana, timeoff.KindVacation, last.date(6, 2), last.date(6, 5), "")
	if err != nil {
		return err
	}
	if _, err := h.svc.Approve(ctx, sub.Approval.ID, generic.UserID(mia.ID)); err != nil {
		return err
	}
	// Mia used 20 days: 2 left, all carried over.
	if _, err := h.svc.SetVacationBalance(ctx, mia.ID, last.year, timeoff.BalanceInput{Accrued: 22, Taken: 20}); err != nil {
		return err
	}
	return openYear(ctx, h, d.year)
}

func loadTypeLimits(ctx context.Context, h *Handler, d *demo) error {
	if _, err := d.hire(ctx, h, "Olivia Owner", "olivia@example.com", string(generic.RoleOwner)); err != nil {
		return err
	}
	ana, err := d.hire(ctx, h, "Ana Alves", "ana@example.com", string(generic.RoleEmployee))
	if err != nil {
		return err
	}
	if err := openYear(ctx, h, d.year); err != nil {
		return err
	}
	// two of three personal days used
	for _, month := range []int{2, 5} {
		if _, err := d.request(ctx, h, ana, timeoff.KindPersonalDay, d.date(month, 14), "", ""); err != nil {
			return err
		}
	}
	// bereavement within the five-day cap
	_, err = d.request(ctx, h, ana, timeoff.KindBereavement, d.date(9, 1), d.date(9, 3), "")
	return err
}
