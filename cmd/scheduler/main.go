// Command scheduler runs the periodic ledger jobs: daily interest accrual
// and the suspicious-activity scan. It serves no HTTP traffic.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"retail-banking-core/config"
	"retail-banking-core/internal/adapter/notify"
	pgStorage "retail-banking-core/internal/adapter/storage/postgres"
	redisStorage "retail-banking-core/internal/adapter/storage/redis"
	"retail-banking-core/internal/scheduler"
	"retail-banking-core/internal/service"
	"retail-banking-core/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty, "scheduler")
	ctx := context.Background()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	sender, closeSender := notify.NewSender(cfg.AMQP, log)
	defer closeSender()

	accountRepo := pgStorage.NewAccountRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	cardRepo := pgStorage.NewCardRepo(pool)
	userRepo := pgStorage.NewUserRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	ledgerSvc := service.NewLedgerService(accountRepo, cardRepo, txRepo, userRepo, transactor, sender, log)
	monitorSvc, err := service.NewMonitorService(txRepo, sender, cfg.Monitor, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid monitor configuration")
	}

	jobs := scheduler.NewJobs(accountRepo, ledgerSvc, redisStorage.NewInterestGuard(rdb), monitorSvc, log)
	sched := scheduler.New(jobs, cfg.Scheduler, log)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	log.Info().Msg("scheduler started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping scheduler")
	<-sched.Stop().Done()
	log.Info().Msg("scheduler stopped gracefully")
}
