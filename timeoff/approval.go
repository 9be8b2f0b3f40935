package timeoff

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/peopledear/peopledear/generic"
	"github.com/peopledear/peopledear/notify"
)

// =============================================================================
// APPROVAL WORKFLOW
// =============================================================================

// Approve approves a pending approval and runs the request's processor in
// the same transaction. If the processor fails nothing is changed.
func (s *Service) Approve(ctx context.Context, approvalID string, approverID generic.UserID) (generic.Approval, error) {
	var (
		out generic.Approval
		msg notify.Message
	)
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		a, err := tx.GetApproval(ctx, orgID, approvalID)
		if err != nil {
			return err
		}
		if err := a.Approve(approverID, s.now()); err != nil {
			return err
		}
		if a.ApprovableType != generic.ApprovableTimeOffRequest {
			out = a
			return tx.UpdateApproval(ctx, a)
		}

		req, err := tx.GetRequest(ctx, orgID, a.ApprovableID)
		if err != nil {
			return err
		}
		if err := s.applyApproval(ctx, tx, a, req); err != nil {
			return err
		}
		req.Status = StatusApproved
		msg, err = s.employeeMessage(ctx, tx, notify.EventRequestApproved, req, a)
		out = a
		return err
	})
	if err != nil {
		return generic.Approval{}, err
	}

	s.logDecision(out, "approval approved")
	s.dispatch(ctx, msg)
	return out, nil
}

// applyApproval persists an already-approved approval, runs the processor
// and audits. Shared with auto-approval on submission.
func (s *Service) applyApproval(ctx context.Context, tx Store, a generic.Approval, req TimeOffRequest) error {
	if err := tx.UpdateApproval(ctx, a); err != nil {
		return err
	}
	if err := s.registry.Processor(req.Kind).Process(ctx, tx, req); err != nil {
		return err
	}
	return s.audit(ctx, tx, a.OrganizationID, a.ApprovedBy, generic.AuditRequestApproved, req.Subject(),
		map[string]any{"approval_id": a.ID, "amount": req.Amount().Float()})
}

// Reject rejects a pending approval. The approver and a non-blank reason
// are required. No processor runs.
func (s *Service) Reject(ctx context.Context, approvalID string, approverID generic.UserID, reason string) (generic.Approval, error) {
	var (
		out generic.Approval
		msg notify.Message
	)
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		a, err := tx.GetApproval(ctx, orgID, approvalID)
		if err != nil {
			return err
		}
		if err := a.Reject(approverID, reason, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateApproval(ctx, a); err != nil {
			return err
		}
		out = a
		if a.ApprovableType != generic.ApprovableTimeOffRequest {
			return nil
		}

		req, err := tx.GetRequest(ctx, orgID, a.ApprovableID)
		if err != nil {
			return err
		}
		if err := tx.UpdateRequestStatus(ctx, orgID, req.ID, StatusRejected); err != nil {
			return err
		}
		req.Status = StatusRejected
		if err := s.audit(ctx, tx, orgID, approverID, generic.AuditRequestRejected, req.Subject(),
			map[string]any{"approval_id": a.ID, "reason": a.RejectionReason}); err != nil {
			return err
		}
		msg, err = s.employeeMessage(ctx, tx, notify.EventRequestRejected, req, a)
		return err
	})
	if err != nil {
		return generic.Approval{}, err
	}

	s.logDecision(out, "approval rejected")
	s.dispatch(ctx, msg)
	return out, nil
}

// Cancel cancels an approval from any state. A previously approved request
// is reversed through its processor; a pending or rejected one is simply
// marked cancelled. Cancelling a cancelled approval changes nothing.
func (s *Service) Cancel(ctx context.Context, approvalID string, actorID generic.UserID) (generic.Approval, error) {
	var (
		out     generic.Approval
		msg     notify.Message
		changed bool
	)
	err := s.inTenant(ctx, func(orgID generic.OrganizationID, tx Store) error {
		a, err := tx.GetApproval(ctx, orgID, approvalID)
		if err != nil {
			return err
		}
		var prior generic.ApprovalStatus
		prior, changed = a.Cancel(s.now())
		out = a
		if !changed {
			return nil
		}
		if err := tx.UpdateApproval(ctx, a); err != nil {
			return err
		}
		if a.ApprovableType != generic.ApprovableTimeOffRequest {
			return nil
		}

		req, err := tx.GetRequest(ctx, orgID, a.ApprovableID)
		if err != nil {
			return err
		}
		if prior == generic.ApprovalApproved {
			err = s.registry.Processor(req.Kind).Reverse(ctx, tx, req)
		} else {
			err = tx.UpdateRequestStatus(ctx, orgID, req.ID, StatusCancelled)
		}
		if err != nil {
			return err
		}
		req.Status = StatusCancelled

		payload := map[string]any{"approval_id": a.ID, "prior_status": string(prior)}
		if prior == generic.ApprovalApproved {
			payload["restored"] = req.Amount().Float()
		}
		if err := s.audit(ctx, tx, orgID, actorID, generic.AuditRequestCancelled, req.Subject(), payload); err != nil {
			return err
		}
		msg, err = s.employeeMessage(ctx, tx, notify.EventRequestCancelled, req, a)
		return err
	})
	if err != nil {
		return generic.Approval{}, err
	}

	if changed {
		s.logDecision(out, "approval cancelled")
		s.dispatch(ctx, msg)
	}
	return out, nil
}

func (s *Service) employeeMessage(ctx context.Context, tx Store, event notify.Event, req TimeOffRequest, a generic.Approval) (notify.Message, error) {
	emp, err := tx.GetEmployee(ctx, req.OrganizationID, req.EmployeeID)
	if err != nil {
		return notify.Message{}, err
	}
	return decisionMessage(event, req, emp, a), nil
}

func (s *Service) logDecision(a generic.Approval, msg string) {
	s.logger.WithFields(log.Fields{
		"approval_id":  a.ID,
		"approvable":   a.Subject().String(),
		"status":       a.Status,
		"organization": a.OrganizationID,
	}).Info(msg)
}
