// Package revalue re-runs portfolio valuations on a cron schedule.
package revalue

import (
	"context"

	"github.com/robfig/cron/v3"

	coremon "github.com/kilianp07/assetfin/core/monitoring"
	"github.com/kilianp07/assetfin/infra/logger"
)

// Job is a scheduled unit of work.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler runs jobs on standard five-field cron schedules.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
	log  logger.Logger
}

// NewScheduler creates a scheduler whose jobs receive ctx.
func NewScheduler(ctx context.Context, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Scheduler{cron: cron.New(), ctx: ctx, log: log}
}

// AddJob registers job on schedule, e.g. "0 6 * * *" or "@every 1h".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		defer coremon.Current().Recover()
		s.log.Debugf("running job %s", job.Name())
		if err := job.Run(s.ctx); err != nil {
			s.log.Errorf("job %s failed: %v", job.Name(), err)
			coremon.CaptureException(err, map[string]string{"job": job.Name()})
			return
		}
		s.log.Debugf("job %s completed", job.Name())
	})
	if err != nil {
		return err
	}
	s.log.Infof("job %s registered on %q", job.Name(), schedule)
	return nil
}

// Start starts the scheduler in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Infof("running job %s now", job.Name())
	return job.Run(s.ctx)
}
