/*
handlers.go - HTTP API handlers for the time-off workflow

PURPOSE:
  Exposes timeoff.Service over REST. Handlers parse the request, call one
  service operation and serialize the result; all rules live in the
  service.

ENDPOINTS:
  Organizations (no tenant header):
    GET    /api/organizations
    POST   /api/organizations

  Directory:
    GET    /api/employees                      List employees
    POST   /api/employees                      Create or update employee
    GET    /api/employees/{id}                 Get employee
    GET    /api/employees/{id}/requests        Employee's requests
    GET    /api/employees/{id}/balance?year=   Vacation balance
    PUT    /api/employees/{id}/balance/{year}  Set vacation balance

  Types:
    GET    /api/time-off-types
    POST   /api/time-off-types                 Create or update type
    POST   /api/time-off-types/catalog         Install a JSON/YAML catalog

  Workflow:
    POST   /api/requests                       Submit request
    GET    /api/requests/{id}
    GET    /api/approvals?status=
    GET    /api/approvals/{id}
    POST   /api/approvals/{id}/approve
    POST   /api/approvals/{id}/reject
    POST   /api/approvals/{id}/cancel

  Periods:
    GET    /api/periods
    POST   /api/periods                        Open a year
    POST   /api/periods/{year}/balances        Open the year's balances
    GET    /api/periods/{year}/balances

  Holidays, audit:
    GET/POST /api/holidays, DELETE /api/holidays/{id}
    GET    /api/audit?subject_type=&subject_id=&actor_id=&action=&limit=

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, missing X-Organization-ID
  - 404: Resource not found (or owned by another organization)
  - 409: Duplicate period, approval not in the required state
  - 422: Validation failures (with per-field messages), insufficient balance
  - 500: Internal errors (details logged, not returned)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/peopledear/peopledear/factory"
	"github.com/peopledear/peopledear/generic"
	"github.com/peopledear/peopledear/timeoff"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

var errBadBody = errors.New("invalid request body")

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	svc    *timeoff.Service
	types  *factory.TypeFactory
	logger log.FieldLogger
	now    func() time.Time
}

type HandlerOption func(*Handler)

// WithClock overrides the clock used for default years and scenarios.
func WithClock(now func() time.Time) HandlerOption { return func(h *Handler) { h.now = now } }

// NewHandler creates a handler serving svc.
func NewHandler(svc *timeoff.Service, logger log.FieldLogger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	h := &Handler{
		svc:    svc,
		types:  factory.NewTypeFactory(),
		logger: logger.WithField("component", "api"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// =============================================================================
// ORGANIZATIONS
// =============================================================================

// GET /api/organizations
func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.svc.ListOrganizations(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(orgs, toOrganizationDTO))
}

// POST /api/organizations
func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req CreateOrganizationRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	org, err := h.svc.CreateOrganization(r.Context(), req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrganizationDTO(org))
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.svc.ListEmployees(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(employees, toEmployeeDTO))
}

// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var in timeoff.EmployeeInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	emp, err := h.svc.AddEmployee(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.svc.GetEmployee(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// GET /api/employees/{id}/requests
func (h *Handler) ListEmployeeRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.ListRequests(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(reqs, toRequestDTO))
}

// GET /api/employees/{id}/balance?year=2025
// Defaults to the current year.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	year := h.now().Year()
	if q := r.URL.Query().Get("year"); q != "" {
		y, err := parseYear(q)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		year = y
	}
	b, err := h.svc.GetBalance(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")), year)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(b))
}

// PUT /api/employees/{id}/balance/{year}
func (h *Handler) SetBalance(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var in timeoff.BalanceInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	b, err := h.svc.SetVacationBalance(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")), year, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(b))
}

// =============================================================================
// TIME-OFF TYPES
// =============================================================================

// GET /api/time-off-types
func (h *Handler) ListTimeOffTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.ListTimeOffTypes(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(types, toTimeOffTypeDTO))
}

// POST /api/time-off-types
func (h *Handler) SaveTimeOffType(w http.ResponseWriter, r *http.Request) {
	var in timeoff.TimeOffTypeInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	t, err := h.svc.SaveTimeOffType(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTimeOffTypeDTO(t))
}

// POST /api/time-off-types/catalog
// The body is a catalog in JSON, or YAML when Content-Type mentions yaml.
func (h *Handler) InstallCatalog(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, h.logger, errBadBody)
		return
	}
	format := factory.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = factory.FormatYAML
	}
	entries, err := h.types.ParseCatalog(body, format)
	if err != nil {
		if !generic.IsClientError(err) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		writeError(w, h.logger, err)
		return
	}
	types, err := h.types.Install(r.Context(), h.svc, entries)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapSlice(types, toTimeOffTypeDTO))
}

// =============================================================================
// REQUESTS AND APPROVALS
// =============================================================================

// POST /api/requests
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var in timeoff.CreateRequestInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	sub, err := h.svc.CreateTimeOffRequest(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, SubmissionDTO{
		Request:  toRequestDTO(sub.Request),
		Approval: toApprovalDTO(sub.Approval),
	})
}

// GET /api/requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// GET /api/approvals?status=pending
func (h *Handler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	status := generic.ApprovalStatus(r.URL.Query().Get("status"))
	approvals, err := h.svc.ListApprovals(r.Context(), status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(approvals, toApprovalDTO))
}

// GET /api/approvals/{id}
func (h *Handler) GetApproval(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.GetApproval(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toApprovalDTO(a))
}

// POST /api/approvals/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	a, err := h.svc.Approve(r.Context(), chi.URLParam(r, "id"), generic.UserID(req.ActorID))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toApprovalDTO(a))
}

// POST /api/approvals/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	a, err := h.svc.Reject(r.Context(), chi.URLParam(r, "id"), generic.UserID(req.ActorID), req.Reason)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toApprovalDTO(a))
}

// POST /api/approvals/{id}/cancel
// An empty body cancels as the system user.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if err := decode(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, h.logger, err)
		return
	}
	a, err := h.svc.Cancel(r.Context(), chi.URLParam(r, "id"), generic.UserID(req.ActorID))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toApprovalDTO(a))
}

// =============================================================================
// PERIODS AND BALANCES
// =============================================================================

// GET /api/periods
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.svc.ListPeriods(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(periods, toPeriodDTO))
}

// POST /api/periods
func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req CreatePeriodRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	p, err := h.svc.CreatePeriod(r.Context(), req.Year)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPeriodDTO(p))
}

// POST /api/periods/{year}/balances
// Opens balances for employees that have none for the year.
func (h *Handler) OpenBalances(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	opened, err := h.svc.OpenBalanceYear(r.Context(), year)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapSlice(opened, toBalanceDTO))
}

// GET /api/periods/{year}/balances
func (h *Handler) ListBalances(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	balances, err := h.svc.ListBalances(r.Context(), year)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(balances, toBalanceDTO))
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.svc.ListHolidays(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(holidays, toHolidayDTO))
}

// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var in timeoff.HolidayInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	hol, err := h.svc.AddHoliday(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(hol))
}

// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// AUDIT
// =============================================================================

// GET /api/audit
func (h *Handler) QueryAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := generic.AuditFilter{
		SubjectType: q.Get("subject_type"),
		SubjectID:   q.Get("subject_id"),
		ActorID:     generic.UserID(q.Get("actor_id")),
	}
	for _, a := range q["action"] {
		filter.Actions = append(filter.Actions, generic.AuditAction(a))
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeError(w, h.logger, generic.NewValidationError("limit", "limit must be a non-negative integer"))
			return
		}
		filter.Limit = n
	}
	entries, err := h.svc.QueryAudit(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(entries, toAuditEntryDTO))
}

// =============================================================================
// HELPERS
// =============================================================================

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadBody, err)
	}
	return nil
}

func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil || year < 1 || year > 9999 {
		return 0, generic.NewValidationError("year", "year must be between 1 and 9999")
	}
	return year, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps err onto a status code. Internal errors are logged and
// answered with a generic message.
func writeError(w http.ResponseWriter, logger log.FieldLogger, err error) {
	var ve *generic.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "validation failed", Fields: ve.Fields})
	case errors.Is(err, errBadBody):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, generic.ErrMissingOrganization):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing " + OrganizationHeader + " header"})
	case errors.Is(err, generic.ErrInsufficientBalance):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case generic.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case generic.IsConflict(err):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		logger.WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
