package generic_test

import (
	"errors"
	"testing"
	"time"

	"github.com/peopledear/peopledear/generic"
)

var decidedAt = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

func pendingApproval() *generic.Approval {
	return &generic.Approval{
		ID:             "apr-1",
		OrganizationID: "org-1",
		ApprovableType: generic.ApprovableTimeOffRequest,
		ApprovableID:   "req-1",
		Status:         generic.ApprovalPending,
	}
}

// =============================================================================
// APPROVE
// =============================================================================

func TestApproval_ApproveFromPending(t *testing.T) {
	a := pendingApproval()

	if err := a.Approve("mgr-1", decidedAt); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if a.Status != generic.ApprovalApproved {
		t.Errorf("status = %s, want approved", a.Status)
	}
	if a.ApprovedBy != "mgr-1" {
		t.Errorf("approved_by = %s, want mgr-1", a.ApprovedBy)
	}
	if a.ApprovedAt == nil || !a.ApprovedAt.Equal(decidedAt) {
		t.Errorf("approved_at = %v, want %v", a.ApprovedAt, decidedAt)
	}
}

func TestApproval_ApproveRequiresApprover(t *testing.T) {
	a := pendingApproval()

	err := a.Approve("", decidedAt)
	if !errors.Is(err, generic.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if a.Status != generic.ApprovalPending {
		t.Errorf("status changed to %s", a.Status)
	}
}

func TestApproval_ApproveOnlyFromPending(t *testing.T) {
	for _, from := range []generic.ApprovalStatus{
		generic.ApprovalApproved, generic.ApprovalRejected, generic.ApprovalCancelled,
	} {
		a := pendingApproval()
		a.Status = from

		err := a.Approve("mgr-1", decidedAt)
		if !errors.Is(err, generic.ErrInvalidTransition) {
			t.Errorf("approve from %s: err = %v, want ErrInvalidTransition", from, err)
		}
		if !generic.IsConflict(err) {
			t.Errorf("approve from %s: should be a conflict", from)
		}
	}
}

// =============================================================================
// REJECT
// =============================================================================

func TestApproval_RejectRecordsReason(t *testing.T) {
	a := pendingApproval()

	if err := a.Reject("mgr-1", "  team offsite  ", decidedAt); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if a.Status != generic.ApprovalRejected {
		t.Errorf("status = %s, want rejected", a.Status)
	}
	if a.RejectionReason != "team offsite" {
		t.Errorf("reason = %q, want trimmed reason", a.RejectionReason)
	}
}

func TestApproval_RejectWithoutReasonIsFieldError(t *testing.T) {
	a := pendingApproval()

	err := a.Reject("mgr-1", "   ", decidedAt)
	fields := generic.ValidationFields(err)
	if len(fields) != 1 || fields[0].Field != "rejection_reason" {
		t.Fatalf("fields = %+v, want one rejection_reason error", fields)
	}
	if a.Status != generic.ApprovalPending {
		t.Errorf("status changed to %s", a.Status)
	}
}

func TestApproval_RejectReportsEveryMissingField(t *testing.T) {
	a := pendingApproval()

	fields := generic.ValidationFields(a.Reject("", "", decidedAt))
	if len(fields) != 2 {
		t.Fatalf("fields = %+v, want approver_id and rejection_reason", fields)
	}
}

// =============================================================================
// CANCEL
// =============================================================================

func TestApproval_CancelReturnsPriorStatus(t *testing.T) {
	for _, from := range []generic.ApprovalStatus{
		generic.ApprovalPending, generic.ApprovalApproved, generic.ApprovalRejected,
	} {
		a := pendingApproval()
		a.Status = from

		prior, changed := a.Cancel(decidedAt)
		if prior != from || !changed {
			t.Errorf("cancel from %s: prior=%s changed=%v", from, prior, changed)
		}
		if a.Status != generic.ApprovalCancelled {
			t.Errorf("cancel from %s: status = %s", from, a.Status)
		}
	}
}

func TestApproval_CancelTwiceIsNoop(t *testing.T) {
	a := pendingApproval()
	a.Cancel(decidedAt)

	prior, changed := a.Cancel(decidedAt.Add(time.Hour))
	if changed {
		t.Error("second cancel should not change anything")
	}
	if prior != generic.ApprovalCancelled {
		t.Errorf("prior = %s, want cancelled", prior)
	}
	if !a.UpdatedAt.Equal(decidedAt) {
		t.Errorf("updated_at moved to %v", a.UpdatedAt)
	}
}
