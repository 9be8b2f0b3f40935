/*
approval.go - Approval records and their state machine

PURPOSE:
  An Approval is attached to exactly one approvable record (today only
  time-off requests) and moves through a small state machine. This file
  owns the legal transitions; callers decide what side effects each
  transition triggers.

STATE MACHINE:
  pending  --approve--> approved
  pending  --reject---> rejected
  pending  --cancel---> cancelled
  approved --cancel---> cancelled
  rejected --cancel---> cancelled
  cancelled is terminal; cancelling it again is a no-op.

SEE ALSO:
  - timeoff/approval.go: Runs processors around these transitions
  - store.go: ApprovalStore persistence contract
*/
package generic

import (
	"strings"
	"time"
)

// =============================================================================
// STATUS
// =============================================================================

type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "pending"
	ApprovalApproved  ApprovalStatus = "approved"
	ApprovalRejected  ApprovalStatus = "rejected"
	ApprovalCancelled ApprovalStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected, ApprovalCancelled:
		return true
	}
	return false
}

// ApprovableTimeOffRequest is the approvable type of time-off requests.
const ApprovableTimeOffRequest = "time_off_request"

// =============================================================================
// APPROVAL
// =============================================================================

// Approval is the decision record for one approvable.
type Approval struct {
	ID              string
	OrganizationID  OrganizationID
	ApprovableType  string
	ApprovableID    string
	Status          ApprovalStatus
	ApprovedBy      UserID
	ApprovedAt      *time.Time
	RejectionReason string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Subject returns a reference to the approvable.
func (a Approval) Subject() SubjectRef {
	return SubjectRef{Type: a.ApprovableType, ID: a.ApprovableID}
}

// Approve moves a pending approval to approved.
func (a *Approval) Approve(by UserID, at time.Time) error {
	if by == "" {
		return NewValidationError("approver_id", "approver is required")
	}
	if a.Status != ApprovalPending {
		return &TransitionError{From: a.Status, Action: "approve"}
	}
	a.Status = ApprovalApproved
	a.ApprovedBy = by
	a.ApprovedAt = &at
	a.UpdatedAt = at
	return nil
}

// Reject moves a pending approval to rejected, recording who and why.
func (a *Approval) Reject(by UserID, reason string, at time.Time) error {
	verr := &ValidationError{}
	if by == "" {
		verr.Add("approver_id", "approver is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		verr.Add("rejection_reason", "rejection reason is required")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	if a.Status != ApprovalPending {
		return &TransitionError{From: a.Status, Action: "reject"}
	}
	a.Status = ApprovalRejected
	a.ApprovedBy = by
	a.ApprovedAt = &at
	a.RejectionReason = reason
	a.UpdatedAt = at
	return nil
}

// Cancel moves the approval to cancelled from any state and returns the
// status it had before. The caller uses the prior status to decide whether
// effects must be reversed. changed is false when it was already cancelled.
func (a *Approval) Cancel(at time.Time) (prior ApprovalStatus, changed bool) {
	prior = a.Status
	if prior == ApprovalCancelled {
		return prior, false
	}
	a.Status = ApprovalCancelled
	a.UpdatedAt = at
	return prior, true
}
