package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/peopledear/peopledear/generic"
	"github.com/peopledear/peopledear/timeoff"
)

// =============================================================================
// TIME-OFF TYPES
// =============================================================================

// typeConfig is the JSON form of timeoff.BalanceConfig. Amounts are hundredths.
type typeConfig struct {
	AnnualAllowance     int64 `json:"annual_allowance"`
	AccrualDaysPerMonth int64 `json:"accrual_days_per_month"`
	CarryOverEnabled    bool  `json:"carry_over_enabled"`
	CarryOverLimit      int64 `json:"carry_over_limit"`
	MaxDaysPerRequest   int64 `json:"max_days_per_request"`
	MaxRequestsPerYear  int   `json:"max_requests_per_year"`
}

func (r *repo) SaveTimeOffType(ctx context.Context, t timeoff.TimeOffType) error {
	cfg, err := json.Marshal(typeConfig{
		AnnualAllowance:     int64(t.Config.AnnualAllowance),
		AccrualDaysPerMonth: int64(t.Config.AccrualDaysPerMonth),
		CarryOverEnabled:    t.Config.CarryOverEnabled,
		CarryOverLimit:      int64(t.Config.CarryOverLimit),
		MaxDaysPerRequest:   int64(t.Config.MaxDaysPerRequest),
		MaxRequestsPerYear:  t.Config.MaxRequestsPerYear,
	})
	if err != nil {
		return errors.Wrap(err, "encode type config")
	}
	n, err := r.exec(ctx, "save time-off type", `
		INSERT INTO time_off_types
		(id, organization_id, kind, name, requires_approval, requires_justification, balance_mode, is_active, config_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind, name = excluded.name,
			requires_approval = excluded.requires_approval,
			requires_justification = excluded.requires_justification,
			balance_mode = excluded.balance_mode, is_active = excluded.is_active,
			config_json = excluded.config_json
		WHERE time_off_types.organization_id = excluded.organization_id`,
		t.ID, t.OrganizationID, t.Kind, t.Name, t.RequiresApproval, t.RequiresJustification,
		t.BalanceMode, t.IsActive, string(cfg))
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.ErrDuplicate
	}
	return nil
}

const typeColumns = `id, organization_id, kind, name, requires_approval, requires_justification, balance_mode, is_active, config_json`

func scanType(row scanner) (timeoff.TimeOffType, error) {
	var t timeoff.TimeOffType
	var cfgJSON string
	if err := row.Scan(&t.ID, &t.OrganizationID, &t.Kind, &t.Name, &t.RequiresApproval,
		&t.RequiresJustification, &t.BalanceMode, &t.IsActive, &cfgJSON); err != nil {
		return t, err
	}
	var cfg typeConfig
	if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
		return t, errors.Wrap(err, "decode type config")
	}
	t.Config = timeoff.BalanceConfig{
		AnnualAllowance:     generic.Amount(cfg.AnnualAllowance),
		AccrualDaysPerMonth: generic.Amount(cfg.AccrualDaysPerMonth),
		CarryOverEnabled:    cfg.CarryOverEnabled,
		CarryOverLimit:      generic.Amount(cfg.CarryOverLimit),
		MaxDaysPerRequest:   generic.Amount(cfg.MaxDaysPerRequest),
		MaxRequestsPerYear:  cfg.MaxRequestsPerYear,
	}
	return t, nil
}

func (r *repo) GetTimeOffType(ctx context.Context, orgID generic.OrganizationID, id string) (timeoff.TimeOffType, error) {
	t, err := scanType(r.q.QueryRowContext(ctx,
		`SELECT `+typeColumns+` FROM time_off_types WHERE organization_id = ? AND id = ?`, orgID, id))
	if err != nil {
		return timeoff.TimeOffType{}, notFound(err, generic.NotFound("time_off_type", id), "get time-off type")
	}
	return t, nil
}

func (r *repo) ListTimeOffTypes(ctx context.Context, orgID generic.OrganizationID) ([]timeoff.TimeOffType, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+typeColumns+` FROM time_off_types WHERE organization_id = ? ORDER BY name`, orgID)
	if err != nil {
		return nil, errors.Wrap(err, "list time-off types")
	}
	defer rows.Close()

	var out []timeoff.TimeOffType
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan time-off type")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// =============================================================================
// REQUESTS
// =============================================================================

func (r *repo) InsertRequest(ctx context.Context, req timeoff.TimeOffRequest) error {
	_, err := r.exec(ctx, "insert request", `
		INSERT INTO time_off_requests
		(id, organization_id, employee_id, period_id, time_off_type_id, kind, status,
		 start_date, end_date, is_half_day, reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.OrganizationID, req.EmployeeID, req.PeriodID, req.TypeID, req.Kind, req.Status,
		req.StartDate.String(), nullDate(req.EndDate), req.IsHalfDay, req.Reason,
		formatTime(req.CreatedAt), formatTime(req.UpdatedAt))
	return err
}

func (r *repo) UpdateRequestStatus(ctx context.Context, orgID generic.OrganizationID, id string, status timeoff.RequestStatus) error {
	n, err := r.exec(ctx, "update request status", `
		UPDATE time_off_requests SET status = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%S.000000000Z', 'now')
		WHERE organization_id = ? AND id = ?`, status, orgID, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.NotFound("time_off_request", id)
	}
	return nil
}

const requestColumns = `id, organization_id, employee_id, period_id, time_off_type_id, kind, status,
	start_date, end_date, is_half_day, reason, created_at, updated_at`

func scanRequest(row scanner) (timeoff.TimeOffRequest, error) {
	var req timeoff.TimeOffRequest
	var start, created, updated string
	var end sql.NullString
	err := row.Scan(&req.ID, &req.OrganizationID, &req.EmployeeID, &req.PeriodID, &req.TypeID,
		&req.Kind, &req.Status, &start, &end, &req.IsHalfDay, &req.Reason, &created, &updated)
	if err != nil {
		return req, err
	}
	req.StartDate = parseDate(start)
	if end.Valid {
		d := parseDate(end.String)
		req.EndDate = &d
	}
	req.CreatedAt = parseTime(created)
	req.UpdatedAt = parseTime(updated)
	return req, nil
}

func (r *repo) GetRequest(ctx context.Context, orgID generic.OrganizationID, id string) (timeoff.TimeOffRequest, error) {
	req, err := scanRequest(r.q.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM time_off_requests WHERE organization_id = ? AND id = ?`, orgID, id))
	if err != nil {
		return timeoff.TimeOffRequest{}, notFound(err, generic.NotFound("time_off_request", id), "get request")
	}
	return req, nil
}

func (r *repo) ListRequestsByEmployee(ctx context.Context, orgID generic.OrganizationID, empID generic.EmployeeID) ([]timeoff.TimeOffRequest, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+requestColumns+` FROM time_off_requests
		WHERE organization_id = ? AND employee_id = ? ORDER BY start_date, created_at`, orgID, empID)
	if err != nil {
		return nil, errors.Wrap(err, "list requests")
	}
	defer rows.Close()

	var out []timeoff.TimeOffRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan request")
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// =============================================================================
// BALANCES
// =============================================================================

func (r *repo) SaveVacationBalance(ctx context.Context, b timeoff.VacationBalance) error {
	n, err := r.exec(ctx, "save vacation balance", `
		INSERT INTO vacation_balances
		(id, organization_id, employee_id, year, from_last_year, accrued, taken, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, year) DO UPDATE SET
			from_last_year = excluded.from_last_year, accrued = excluded.accrued,
			taken = excluded.taken, updated_at = excluded.updated_at
		WHERE vacation_balances.organization_id = excluded.organization_id`,
		b.ID, b.OrganizationID, b.EmployeeID, b.Year, b.FromLastYear, b.Accrued, b.Taken, formatTime(b.UpdatedAt))
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.ErrDuplicate
	}
	return nil
}

const balanceColumns = `id, organization_id, employee_id, year, from_last_year, accrued, taken, updated_at`

func scanBalance(row scanner) (timeoff.VacationBalance, error) {
	var b timeoff.VacationBalance
	var updated string
	err := row.Scan(&b.ID, &b.OrganizationID, &b.EmployeeID, &b.Year, &b.FromLastYear, &b.Accrued, &b.Taken, &updated)
	b.UpdatedAt = parseTime(updated)
	return b, err
}

func (r *repo) GetVacationBalance(ctx context.Context, orgID generic.OrganizationID, empID generic.EmployeeID, year int) (timeoff.VacationBalance, error) {
	b, err := scanBalance(r.q.QueryRowContext(ctx, `SELECT `+balanceColumns+` FROM vacation_balances
		WHERE organization_id = ? AND employee_id = ? AND year = ?`, orgID, empID, year))
	if err != nil {
		return timeoff.VacationBalance{}, notFound(err, generic.ErrBalanceNotFound, "get vacation balance")
	}
	return b, nil
}

func (r *repo) ListVacationBalances(ctx context.Context, orgID generic.OrganizationID, year int) ([]timeoff.VacationBalance, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+balanceColumns+` FROM vacation_balances
		WHERE organization_id = ? AND year = ? ORDER BY employee_id`, orgID, year)
	if err != nil {
		return nil, errors.Wrap(err, "list vacation balances")
	}
	defer rows.Close()

	var out []timeoff.VacationBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan vacation balance")
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// IncrementTaken is a single relative UPDATE so concurrent writers never
// overwrite each other's adjustment.
func (r *repo) IncrementTaken(ctx context.Context, orgID generic.OrganizationID, empID generic.EmployeeID, year int, delta generic.Amount) error {
	n, err := r.exec(ctx, "increment taken", `
		UPDATE vacation_balances
		SET taken = taken + ?, updated_at = strftime('%Y-%m-%dT%H:%M:%S.000000000Z', 'now')
		WHERE organization_id = ? AND employee_id = ? AND year = ?`,
		delta, orgID, empID, year)
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.ErrBalanceNotFound
	}
	return nil
}

// =============================================================================
// PERIODS
// =============================================================================

func (r *repo) InsertPeriod(ctx context.Context, p generic.Period) error {
	_, err := r.exec(ctx, "insert period", `
		INSERT INTO periods (id, organization_id, year, start_date, end_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OrganizationID, p.Year, p.Start.String(), p.End.String(), p.Status, formatTime(p.CreatedAt))
	return err
}

func (r *repo) CloseActivePeriods(ctx context.Context, orgID generic.OrganizationID, exceptYear int) (int, error) {
	n, err := r.exec(ctx, "close periods", `
		UPDATE periods SET status = ?
		WHERE organization_id = ? AND year <> ? AND status <> ?`,
		generic.PeriodClosed, orgID, exceptYear, generic.PeriodClosed)
	return int(n), err
}

const periodColumns = `id, organization_id, year, start_date, end_date, status, created_at`

func scanPeriod(row scanner) (generic.Period, error) {
	var p generic.Period
	var start, end, created string
	err := row.Scan(&p.ID, &p.OrganizationID, &p.Year, &start, &end, &p.Status, &created)
	p.Start, p.End, p.CreatedAt = parseDate(start), parseDate(end), parseTime(created)
	return p, err
}

func (r *repo) GetActivePeriod(ctx context.Context, orgID generic.OrganizationID, year int) (generic.Period, error) {
	p, err := scanPeriod(r.q.QueryRowContext(ctx, `SELECT `+periodColumns+` FROM periods
		WHERE organization_id = ? AND year = ? AND status = ?`, orgID, year, generic.PeriodActive))
	if err != nil {
		return generic.Period{}, notFound(err, generic.NotFound("period", ""), "get active period")
	}
	return p, nil
}

func (r *repo) ListPeriods(ctx context.Context, orgID generic.OrganizationID) ([]generic.Period, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+periodColumns+` FROM periods
		WHERE organization_id = ? ORDER BY year`, orgID)
	if err != nil {
		return nil, errors.Wrap(err, "list periods")
	}
	defer rows.Close()

	var out []generic.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan period")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// APPROVALS
// =============================================================================

func (r *repo) InsertApproval(ctx context.Context, a generic.Approval) error {
	_, err := r.exec(ctx, "insert approval", `
		INSERT INTO approvals
		(id, organization_id, approvable_type, approvable_id, status, approved_by, approved_at,
		 rejection_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OrganizationID, a.ApprovableType, a.ApprovableID, a.Status, a.ApprovedBy,
		nullTime(a.ApprovedAt), a.RejectionReason, formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	return err
}

func (r *repo) UpdateApproval(ctx context.Context, a generic.Approval) error {
	n, err := r.exec(ctx, "update approval", `
		UPDATE approvals
		SET status = ?, approved_by = ?, approved_at = ?, rejection_reason = ?, updated_at = ?
		WHERE organization_id = ? AND id = ?`,
		a.Status, a.ApprovedBy, nullTime(a.ApprovedAt), a.RejectionReason, formatTime(a.UpdatedAt),
		a.OrganizationID, a.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.NotFound("approval", a.ID)
	}
	return nil
}

const approvalColumns = `id, organization_id, approvable_type, approvable_id, status, approved_by, approved_at,
	rejection_reason, created_at, updated_at`

func scanApproval(row scanner) (generic.Approval, error) {
	var a generic.Approval
	var approvedAt sql.NullString
	var created, updated string
	err := row.Scan(&a.ID, &a.OrganizationID, &a.ApprovableType, &a.ApprovableID, &a.Status,
		&a.ApprovedBy, &approvedAt, &a.RejectionReason, &created, &updated)
	if err != nil {
		return a, err
	}
	if approvedAt.Valid {
		t := parseTime(approvedAt.String)
		a.ApprovedAt = &t
	}
	a.CreatedAt, a.UpdatedAt = parseTime(created), parseTime(updated)
	return a, nil
}

func (r *repo) GetApproval(ctx context.Context, orgID generic.OrganizationID, id string) (generic.Approval, error) {
	a, err := scanApproval(r.q.QueryRowContext(ctx,
		`SELECT `+approvalColumns+` FROM approvals WHERE organization_id = ? AND id = ?`, orgID, id))
	if err != nil {
		return generic.Approval{}, notFound(err, generic.NotFound("approval", id), "get approval")
	}
	return a, nil
}

func (r *repo) GetApprovalFor(ctx context.Context, orgID generic.OrganizationID, subject generic.SubjectRef) (generic.Approval, error) {
	a, err := scanApproval(r.q.QueryRowContext(ctx, `SELECT `+approvalColumns+` FROM approvals
		WHERE organization_id = ? AND approvable_type = ? AND approvable_id = ?`, orgID, subject.Type, subject.ID))
	if err != nil {
		return generic.Approval{}, notFound(err, generic.NotFound("approval", subject.String()), "get approval")
	}
	return a, nil
}

func (r *repo) ListApprovals(ctx context.Context, orgID generic.OrganizationID, status generic.ApprovalStatus) ([]generic.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE organization_id = ?`
	args := []any{orgID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	rows, err := r.q.QueryContext(ctx, query+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list approvals")
	}
	defer rows.Close()

	var out []generic.Approval
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan approval")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// AUDIT
// =============================================================================

func (r *repo) AppendAudit(ctx context.Context, e generic.AuditEntry) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return errors.Wrap(err, "encode audit payload")
	}
	_, err = r.exec(ctx, "append audit", `
		INSERT INTO audit_log
		(id, organization_id, timestamp, actor_id, action, subject_type, subject_id, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OrganizationID, formatTime(e.Timestamp), e.ActorID, e.Action, e.SubjectType, e.SubjectID, string(payload))
	return err
}

func (r *repo) QueryAudit(ctx context.Context, f generic.AuditFilter) ([]generic.AuditEntry, error) {
	where := []string{"organization_id = ?"}
	args := []any{f.OrganizationID}
	if f.SubjectType != "" {
		where = append(where, "subject_type = ?")
		args = append(args, f.SubjectType)
	}
	if f.SubjectID != "" {
		where = append(where, "subject_id = ?")
		args = append(args, f.SubjectID)
	}
	if f.ActorID != "" {
		where = append(where, "actor_id = ?")
		args = append(args, f.ActorID)
	}
	if len(f.Actions) > 0 {
		marks := make([]string, len(f.Actions))
		for i, a := range f.Actions {
			marks[i] = "?"
			args = append(args, a)
		}
		where = append(where, "action IN ("+strings.Join(marks, ", ")+")")
	}
	query := `SELECT id, organization_id, timestamp, actor_id, action, subject_type, subject_id, payload_json
		FROM audit_log WHERE ` + strings.Join(where, " AND ") + ` ORDER BY seq DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query audit")
	}
	defer rows.Close()

	var out []generic.AuditEntry
	for rows.Next() {
		var e generic.AuditEntry
		var ts string
		var payload sql.NullString
		if err := rows.Scan(&e.ID, &e.OrganizationID, &ts, &e.ActorID, &e.Action,
			&e.SubjectType, &e.SubjectID, &payload); err != nil {
			return nil, errors.Wrap(err, "scan audit entry")
		}
		e.Timestamp = parseTime(ts)
		if payload.Valid && payload.String != "" && payload.String != "null" {
			if err := json.Unmarshal([]byte(payload.String), &e.Payload); err != nil {
				return nil, errors.Wrap(err, "decode audit payload")
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// oldest first, like the in-memory log
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
