package timeoff

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/peopledear/peopledear/generic"
	"github.com/peopledear/peopledear/notify"
)

// =============================================================================
// REQUEST CREATION
// =============================================================================

// Submission is the outcome of CreateTimeOffRequest.
type Submission struct {
	Request  TimeOffRequest
	Approval generic.Approval
}

// CreateTimeOffRequest validates and stores a request with its pending
// approval. When the type needs no approval the request is approved by
// the system in the same transaction.
func (s *Service) CreateTimeOffRequest(ctx context.Context, in CreateRequestInput) (Submission, error) {
	if err := ValidateInput(in); err != nil {
		return Submission{}, err
	}
	req, err := parseRequest(in)
	if err != nil {
		return Submission{}, err
	}

	var (
		out  Submission
		msgs []notify.Message
	)
	err = s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		req.OrganizationID = orgID

		emp, err := tx.GetEmployee(ctx, orgID, req.EmployeeID)
		if generic.IsNotFound(err) {
			return generic.NewValidationError("employee_id", "employee not found")
		}
		if err != nil {
			return err
		}

		typ, err := tx.GetTimeOffType(ctx, orgID, req.TypeID)
		if generic.IsNotFound(err) {
			return generic.NewValidationError("time_off_type_id", "time-off type not found")
		}
		if err != nil {
			return err
		}
		if !typ.IsActive {
			return generic.NewValidationError("time_off_type_id", "time-off type is inactive")
		}
		req.Kind = typ.Kind

		period, err := tx.GetActivePeriod(ctx, orgID, req.Year())
		if generic.IsNotFound(err) {
			return generic.NewValidationError("start_date", fmt.Sprintf("no active period for %d", req.Year()))
		}
		if err != nil {
			return err
		}
		req.PeriodID = period.ID

		if err := s.checkOverlap(ctx, tx, req); err != nil {
			return err
		}
		if err := s.registry.Validator(typ.Kind).Validate(ctx, tx, req, typ); err != nil {
			return err
		}

		now := s.now()
		req.ID = uuid.NewString()
		req.Status = StatusPending
		req.CreatedAt, req.UpdatedAt = now, now
		if err := tx.InsertRequest(ctx, req); err != nil {
			return err
		}

		approval := generic.Approval{
			ID:             uuid.NewString(),
			OrganizationID: orgID,
			ApprovableType: generic.ApprovableTimeOffRequest,
			ApprovableID:   req.ID,
			Status:         generic.ApprovalPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.InsertApproval(ctx, approval); err != nil {
			return err
		}
		if err := s.audit(ctx, tx, orgID, generic.UserID(emp.ID), generic.AuditRequestCreated, req.Subject(),
			map[string]any{"kind": string(req.Kind), "amount": req.Amount().Float()}); err != nil {
			return err
		}

		if typ.RequiresApproval {
			approvers, err := tx.ListEmployees(ctx, orgID)
			if err != nil {
				return err
			}
			msgs = append(msgs, submittedMessage(req, emp, approvers))
		} else {
			if err := approval.Approve(generic.SystemUser, now); err != nil {
				return err
			}
			if err := s.applyApproval(ctx, tx, approval, req); err != nil {
				return err
			}
			req.Status = StatusApproved
			msgs = append(msgs, decisionMessage(notify.EventRequestApproved, req, emp, approval))
		}

		out = Submission{Request: req, Approval: approval}
		return nil
	})
	if err != nil {
		return Submission{}, err
	}

	s.logger.WithFields(log.Fields{
		"request_id": out.Request.ID,
		"employee":   out.Request.EmployeeID,
		"kind":       out.Request.Kind,
		"status":     out.Request.Status,
	}).Info("time-off request created")
	s.dispatch(ctx, msgs...)
	return out, nil
}

// parseRequest converts validated input and applies the cross-field rules.
func parseRequest(in CreateRequestInput) (TimeOffRequest, error) {
	start, err := generic.ParseDate(in.StartDate)
	if err != nil {
		return TimeOffRequest{}, generic.NewValidationError("start_date", "start_date must be a YYYY-MM-DD date")
	}
	req := TimeOffRequest{
		EmployeeID: generic.EmployeeID(in.EmployeeID),
		TypeID:     in.TypeID,
		StartDate:  start,
		IsHalfDay:  in.IsHalfDay,
		Reason:     strings.TrimSpace(in.Reason),
	}
	if in.EndDate != "" {
		end, err := generic.ParseDate(in.EndDate)
		if err != nil {
			return TimeOffRequest{}, generic.NewValidationError("end_date", "end_date must be a YYYY-MM-DD date")
		}
		if end.Before(start) {
			return TimeOffRequest{}, generic.NewValidationError("end_date", "end_date must be on or after start_date")
		}
		req.EndDate = &end
	}
	if req.IsHalfDay && !req.LastDay().Equal(req.StartDate) {
		return TimeOffRequest{}, generic.NewValidationError("is_half_day", "a half day must start and end on the same date")
	}
	return req, nil
}

// checkOverlap rejects requests sharing a day with the employee's other
// pending or approved requests.
func (s *Service) checkOverlap(ctx context.Context, tx Store, req TimeOffRequest) error {
	existing, err := tx.ListRequestsByEmployee(ctx, req.OrganizationID, req.EmployeeID)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if !other.Status.Blocking() {
			continue
		}
		if generic.Overlaps(req.StartDate, req.LastDay(), other.StartDate, other.LastDay()) {
			return generic.NewValidationError("start_date",
				fmt.Sprintf("overlaps request %s (%s)", other.ID, describe(other)))
		}
	}
	return nil
}
