package session

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/entitykit/entityauth/pkg/observability"
	"github.com/entitykit/entityauth/pkg/storage/postgres"
)

// DefaultSweepSchedule runs the expired-session sweep at 00:15 UTC daily.
const DefaultSweepSchedule = "15 0 * * *"

// DefaultRetention keeps expired and revoked sessions around for a week
// before the sweep deletes them.
const DefaultRetention = 7 * 24 * time.Hour

// Sweeper periodically deletes expired and revoked sessions, plus any
// extra maintenance jobs registered on its schedule.
type Sweeper struct {
	store     *postgres.Store
	logger    *observability.Logger
	schedule  string
	retention time.Duration
	cron      *cron.Cron
	jobs      []maintenanceJob
}

type maintenanceJob struct {
	name string
	fn   func(context.Context)
}

// NewSweeper creates a sweeper with the given schedule (cron syntax) and
// retention window. Empty schedule and zero retention fall back to the
// defaults.
func NewSweeper(store *postgres.Store, logger *observability.Logger, schedule string, retention time.Duration) *Sweeper {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Sweeper{
		store:     store,
		logger:    logger,
		schedule:  schedule,
		retention: retention,
	}
}

// AddJob registers a maintenance task to run on the sweep schedule after
// the session sweep. Call before Start.
func (s *Sweeper) AddJob(name string, fn func(context.Context)) {
	s.jobs = append(s.jobs, maintenanceJob{name: name, fn: fn})
}

// Start schedules the sweep and begins running it.
func (s *Sweeper) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() {
		ctx := context.Background()
		s.SweepOnce(ctx)
		s.runJobs(ctx)
	}); err != nil {
		return err
	}
	s.cron = c
	c.Start()
	s.logger.WithField("schedule", s.schedule).Info("session sweeper started")
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// SweepOnce deletes sessions whose expiry or revocation is older than the
// retention window. Usable directly for run-once maintenance.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	deleted, err := s.store.DeleteExpiredSessions(ctx, s.retention)
	if err != nil {
		s.logger.WithError(err).Error("session sweep failed")
		return
	}
	if deleted > 0 {
		s.logger.WithField("deleted", deleted).Info("session sweep completed")
	}
}

func (s *Sweeper) runJobs(ctx context.Context) {
	for _, job := range s.jobs {
		job.fn(ctx)
		s.logger.WithField("job", job.name).Debug("maintenance job completed")
	}
}
