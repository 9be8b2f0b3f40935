/*
store.go - Persistence contracts shared by every workflow

PURPOSE:
  Defines the narrow interfaces generic code needs from the database.
  Domain packages compose them into their own Store (see timeoff/store.go)
  so one implementation serves everything.

KEY INTERFACES:
  PeriodStore:   Yearly periods (period.go)
  ApprovalStore: Approval records, one per approvable
  AuditLog:      Append-only record of who did what when

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - store/memory/memory.go: In-memory for tests and demos

SEE ALSO:
  - timeoff/store.go: Full Store and TxStore
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// APPROVALS
// =============================================================================

// ApprovalStore persists approvals. Implementations must enforce one
// approval per (approvable type, approvable id) and report a violation as
// ErrDuplicate.
type ApprovalStore interface {
	InsertApproval(ctx context.Context, a Approval) error
	UpdateApproval(ctx context.Context, a Approval) error
	GetApproval(ctx context.Context, orgID OrganizationID, id string) (Approval, error)
	GetApprovalFor(ctx context.Context, orgID OrganizationID, subject SubjectRef) (Approval, error)
	ListApprovals(ctx context.Context, orgID OrganizationID, status ApprovalStatus) ([]Approval, error)
}

// =============================================================================
// AUDIT LOG - Tracks who did what when
// =============================================================================

// AuditEntry records who did what when.
type AuditEntry struct {
	ID             string
	OrganizationID OrganizationID
	Timestamp      time.Time
	ActorID        UserID
	Action         AuditAction
	SubjectType    string
	SubjectID      string
	Payload        map[string]any
}

type AuditAction string

const (
	AuditRequestCreated   AuditAction = "request_created"
	AuditRequestApproved  AuditAction = "request_approved"
	AuditRequestRejected  AuditAction = "request_rejected"
	AuditRequestCancelled AuditAction = "request_cancelled"
	AuditPeriodCreated    AuditAction = "period_created"
	AuditBalanceOpened    AuditAction = "balance_opened"
	AuditBalanceAdjusted  AuditAction = "balance_adjusted"
	AuditTimeOffTypeSaved AuditAction = "time_off_type_saved"
)

// AuditLog stores audit entries. Append-only.
type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	QueryAudit(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

// AuditFilter narrows QueryAudit. OrganizationID is required; zero-valued
// optional fields match everything. Results are ordered oldest first.
type AuditFilter struct {
	OrganizationID OrganizationID
	SubjectType    string
	SubjectID      string
	ActorID        UserID
	Actions        []AuditAction
	Limit          int
}

// Matches reports whether e satisfies the filter (ignoring Limit).
func (f AuditFilter) Matches(e AuditEntry) bool {
	if e.OrganizationID != f.OrganizationID {
		return false
	}
	if f.SubjectType != "" && e.SubjectType != f.SubjectType {
		return false
	}
	if f.SubjectID != "" && e.SubjectID != f.SubjectID {
		return false
	}
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if len(f.Actions) == 0 {
		return true
	}
	for _, a := range f.Actions {
		if a == e.Action {
			return true
		}
	}
	return false
}
