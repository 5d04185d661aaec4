package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"

	"github.com/rs/zerolog"
)

const jobTimeout = 30 * time.Minute

// InterestRun summarises one pass of the interest job.
type InterestRun struct {
	Applied int
	Skipped int
	Failed  int
}

// Jobs holds the periodic tasks the scheduler runs.
type Jobs struct {
	accountRepo ports.AccountRepository
	ledger      ports.LedgerService
	guard       ports.InterestGuard
	monitor     ports.MonitorService
	log         zerolog.Logger
	now         func() time.Time
}

// NewJobs creates a new Jobs runner.
func NewJobs(accountRepo ports.AccountRepository, ledger ports.LedgerService, guard ports.InterestGuard, monitor ports.MonitorService, log zerolog.Logger) *Jobs {
	return &Jobs{
		accountRepo: accountRepo,
		ledger:      ledger,
		guard:       guard,
		monitor:     monitor,
		log:         log,
		now:         time.Now,
	}
}

// AccrueInterest applies one day of interest to every interest-bearing
// account. An account is claimed in the guard before the ledger call, so a
// second run on the same day skips it. A failed account is released so the
// next run can retry it, unless the failure came from COMMIT itself.
func (j *Jobs) AccrueInterest(ctx context.Context) (InterestRun, error) {
	var run InterestRun

	accounts, err := j.accountRepo.ListInterestBearing(ctx)
	if err != nil {
		return run, fmt.Errorf("list interest bearing accounts: %w", err)
	}

	day := j.now().UTC()
	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return run, err
		}

		claimed, err := j.guard.Acquire(ctx, account.ID, day)
		if err != nil {
			j.log.Error().Err(err).Str("account", account.Number).Msg("interest guard acquire failed")
			run.Failed++
			continue
		}
		if !claimed {
			run.Skipped++
			continue
		}

		txn, err := j.ledger.ApplyDailyInterest(ctx, account.ID)
		if err != nil {
			run.Failed++
			if errors.Is(err, domain.ErrCommitOutcomeUnknown) {
				// The credit may already be in the ledger; keep the claim.
				j.log.Error().Err(err).Str("account", account.Number).Msg("interest commit outcome unknown, claim kept")
				continue
			}
			j.log.Error().Err(err).Str("account", account.Number).Msg("apply daily interest failed")
			if relErr := j.guard.Release(ctx, account.ID, day); relErr != nil {
				j.log.Warn().Err(relErr).Str("account", account.Number).Msg("interest guard release failed")
			}
			continue
		}
		if txn == nil {
			run.Skipped++
			continue
		}
		run.Applied++
	}

	return run, nil
}

// RunInterest is the cron entry point for AccrueInterest.
func (j *Jobs) RunInterest() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	j.log.Info().Msg("interest job started")
	run, err := j.AccrueInterest(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("interest job aborted")
	}
	j.log.Info().
		Int("applied", run.Applied).
		Int("skipped", run.Skipped).
		Int("failed", run.Failed).
		Msg("interest job finished")
}

// RunMonitor is the cron entry point for the suspicious-activity scan.
func (j *Jobs) RunMonitor() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	findings, err := j.monitor.Run(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("monitor job failed")
		return
	}
	j.log.Info().Int("findings", findings).Msg("monitor job finished")
}
