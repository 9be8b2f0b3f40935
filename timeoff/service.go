/*
service.go - Entry point for every time-off operation

PURPOSE:
  Service is the only writer of time-off state. Each operation reads the
  tenant from the context, runs its reads and writes in ONE store
  transaction, and dispatches notifications after the commit so a
  rolled-back decision never emails anyone.

OPERATIONS:
  request.go   CreateTimeOffRequest
  approval.go  Approve, Reject, Cancel
  period.go    CreatePeriod, OpenBalanceYear, SetVacationBalance, GetBalance
  directory.go Organizations, employees, types, holidays, queries

SEE ALSO:
  - registry.go: Processor and validator per kind
  - store.go: TxStore contract
*/
package timeoff

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/peopledear/peopledear/generic"
	"github.com/peopledear/peopledear/notify"
)

type Service struct {
	store    TxStore
	registry *Registry
	notifier notify.Dispatcher
	logger   log.FieldLogger
	now      func() time.Time
}

type Option func(*Service)

// WithRegistry replaces the built-in registry.
func WithRegistry(r *Registry) Option { return func(s *Service) { s.registry = r } }

// WithNotifier sets where notifications go. Without it nothing is sent.
func WithNotifier(d notify.Dispatcher) Option { return func(s *Service) { s.notifier = d } }

func WithLogger(l log.FieldLogger) Option { return func(s *Service) { s.logger = l } }

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(store TxStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		registry: NewRegistry(),
		logger:   log.StandardLogger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("component", "timeoff")
	return s
}

// Registry returns the registry the service dispatches through.
func (s *Service) Registry() *Registry { return s.registry }

// inTenant resolves the organization and runs fn in a transaction.
func (s *Service) inTenant(ctx context.Context, fn func(orgID generic.OrganizationID, tx Store) error) error {
	orgID, err := generic.OrganizationFrom(ctx)
	if err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx Store) error {
		return fn(orgID, tx)
	})
}

func (s *Service) audit(ctx context.Context, tx Store, orgID generic.OrganizationID, actor generic.UserID,
	action generic.AuditAction, subject generic.SubjectRef, payload map[string]any) error {
	if actor == "" {
		actor = generic.SystemUser
	}
	return tx.AppendAudit(ctx, generic.AuditEntry{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Timestamp:      s.now(),
		ActorID:        actor,
		Action:         action,
		SubjectType:    subject.Type,
		SubjectID:      subject.ID,
		Payload:        payload,
	})
}

// dispatch sends msgs after a commit. Delivery errors are logged only.
func (s *Service) dispatch(ctx context.Context, msgs ...notify.Message) {
	if s.notifier == nil {
		return
	}
	for _, msg := range msgs {
		if !msg.HasRecipients() {
			continue
		}
		if err := s.notifier.Dispatch(ctx, msg); err != nil {
			s.logger.WithError(err).WithField("event", msg.Event).Warn("notification failed")
		}
	}
}
