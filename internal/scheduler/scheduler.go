package scheduler

import (
	"context"
	"fmt"

	"retail-banking-core/config"
	"retail-banking-core/pkg/logger"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron *cron.Cron
	jobs *Jobs
	cfg  config.SchedulerConfig
	log  zerolog.Logger
}

// New creates a scheduler whose jobs recover from panics.
func New(jobs *Jobs, cfg config.SchedulerConfig, log zerolog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(logger.Printf{Log: log})
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cronLogger))),
		jobs: jobs,
		cfg:  cfg,
		log:  log,
	}
}

// Start registers the jobs and starts the cron scheduler. An invalid
// schedule is returned before anything runs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.InterestSchedule, s.jobs.RunInterest); err != nil {
		return fmt.Errorf("schedule interest job: %w", err)
	}
	s.log.Info().Str("schedule", s.cfg.InterestSchedule).Msg("scheduled interest job")

	if _, err := s.cron.AddFunc(s.cfg.MonitorSchedule, s.jobs.RunMonitor); err != nil {
		return fmt.Errorf("schedule monitor job: %w", err)
	}
	s.log.Info().Str("schedule", s.cfg.MonitorSchedule).Msg("scheduled monitor job")

	s.cron.Start()
	return nil
}

// Stop stops the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
