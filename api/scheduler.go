/*
scheduler.go - Automated year rollover

PURPOSE:
  On a cron schedule (default "0 0 1 1 *", midnight on January 1st) opens
  the new year for every organization: creates its period, closing the
  previous one, and opens its vacation balances with carry-over.

DESIGN:
  - robfig/cron runs the job; overlapping runs are skipped
  - Rollover is idempotent: an existing period is left alone and only
    employees without a balance get one
  - One organization failing does not stop the others; failures are
    logged and returned together

USAGE:
  s := NewRolloverScheduler(svc, "0 0 1 1 *", logger)
  if err := s.Start(); err != nil { ... }
  defer s.Stop()

SEE ALSO:
  - timeoff/period.go: CreatePeriod, OpenBalanceYear
  - config/config.go: scheduler.rollover_spec
*/
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/peopledear/peopledear/generic"
	"github.com/peopledear/peopledear/timeoff"
)

// rolloverTimeout bounds one scheduled run.
const rolloverTimeout = 5 * time.Minute

// RolloverResult reports what a rollover did for one organization.
type RolloverResult struct {
	OrganizationID generic.OrganizationID
	Year           int
	PeriodCreated  bool
	BalancesOpened int
	Err            error
}

// RolloverScheduler opens each new year on a cron schedule.
type RolloverScheduler struct {
	svc    *timeoff.Service
	spec   string
	logger log.FieldLogger
	now    func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
}

// NewRolloverScheduler creates a stopped scheduler.
func NewRolloverScheduler(svc *timeoff.Service, spec string, logger log.FieldLogger) *RolloverScheduler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &RolloverScheduler{
		svc:    svc,
		spec:   spec,
		logger: logger.WithField("component", "scheduler"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the job and starts the cron. Calling Start twice is a
// no-op.
func (s *RolloverScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(s.logger)),
		cron.WithChain(
			cron.Recover(cron.PrintfLogger(s.logger)),
			cron.SkipIfStillRunning(cron.PrintfLogger(s.logger)),
		),
	)
	id, err := c.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), rolloverTimeout)
		defer cancel()
		s.RunNow(ctx)
	})
	if err != nil {
		return err
	}
	c.Start()
	s.cron, s.entryID = c, id
	s.logger.WithField("spec", s.spec).WithField("next_run", c.Entry(id).Next).Info("rollover scheduler started")
	return nil
}

// Stop stops the cron and waits for a running job to finish.
func (s *RolloverScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
	s.logger.Info("rollover scheduler stopped")
}

// NextRun returns the next scheduled time, or the zero time when stopped.
func (s *RolloverScheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// RunNow rolls every organization over to the current year.
func (s *RolloverScheduler) RunNow(ctx context.Context) ([]RolloverResult, error) {
	return s.Rollover(ctx, s.now().Year())
}

// Rollover opens year for every organization.
func (s *RolloverScheduler) Rollover(ctx context.Context, year int) ([]RolloverResult, error) {
	orgs, err := s.svc.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]RolloverResult, 0, len(orgs))
	var errs []error
	for _, org := range orgs {
		res := s.rolloverOrganization(generic.WithOrganization(ctx, org.ID), org.ID, year)
		logger := s.logger.WithFields(log.Fields{
			"organization":    org.ID,
			"year":            year,
			"period_created":  res.PeriodCreated,
			"balances_opened": res.BalancesOpened,
		})
		if res.Err != nil {
			logger.WithError(res.Err).Error("rollover failed")
			errs = append(errs, res.Err)
		} else {
			logger.Info("rollover done")
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (s *RolloverScheduler) rolloverOrganization(ctx context.Context, orgID generic.OrganizationID, year int) RolloverResult {
	res := RolloverResult{OrganizationID: orgID, Year: year}

	_, err := s.svc.CreatePeriod(ctx, year)
	switch {
	case err == nil:
		res.PeriodCreated = true
	case errors.Is(err, generic.ErrDuplicatePeriod):
	default:
		res.Err = err
		return res
	}

	opened, err := s.svc.OpenBalanceYear(ctx, year)
	if err != nil {
		// organizations without a vacation type have no balances to open
		if generic.ValidationFields(err) != nil {
			return res
		}
		res.Err = err
		return res
	}
	res.BalancesOpened = len(opened)
	return res
}
