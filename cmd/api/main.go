package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retail-banking-core/config"
	httpHandler "retail-banking-core/internal/adapter/http/handler"
	"retail-banking-core/internal/adapter/notify"
	"retail-banking-core/internal/adapter/report"
	pgStorage "retail-banking-core/internal/adapter/storage/postgres"
	redisStorage "retail-banking-core/internal/adapter/storage/redis"
	"retail-banking-core/internal/core/ports"
	"retail-banking-core/internal/generator"
	"retail-banking-core/internal/service"
	"retail-banking-core/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for local runs; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty, "api")

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting retail banking API")

	ctx := context.Background()

	if err := pgStorage.RunMigrations(cfg.Database, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	sender, closeSender := notify.NewSender(cfg.AMQP, log)
	defer closeSender()

	// Repositories
	accountRepo := pgStorage.NewAccountRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	cardRepo := pgStorage.NewCardRepo(pool)
	userRepo := pgStorage.NewUserRepo(pool)
	profileRepo := pgStorage.NewProfileRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Redis stores
	stagedStore := redisStorage.NewStagedStore(rdb)
	otpStore := redisStorage.NewOTPStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Number generators
	accountNumbers, err := generator.NewAccountNumbers(cfg.Ledger, accountRepo.ExistsByNumber)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid account numbering scheme")
	}
	cardNumbers, err := generator.NewCardNumbers(cfg.Ledger, cardRepo.ExistsByNumber)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid card numbering scheme")
	}

	// Core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	otpSvc := service.NewOTPService(otpStore, sender, cfg.Workflow.OTPExpiry, log)

	// Business services
	ledgerSvc := service.NewLedgerService(accountRepo, cardRepo, txRepo, userRepo, transactor, sender, log)
	workflowSvc := service.NewWorkflowService(accountRepo, userRepo, stagedStore, otpSvc, hashSvc, ledgerSvc, sender, cfg.Workflow, log)
	authSvc := service.NewAuthService(userRepo, profileRepo, hashSvc, tokenSvc, otpSvc, sender, cfg.Workflow, log)
	profileSvc := service.NewProfileService(profileRepo, log)
	accountSvc := service.NewAccountService(accountRepo, profileRepo, userRepo, accountNumbers, transactor, sender, log)
	cardSvc := service.NewCardService(cardRepo, accountRepo, cardNumbers, sigSvc, encSvc, ledgerSvc, cfg.Card, log)
	statementSvc := service.NewStatementService(txRepo, accountRepo, report.NewCSVExporter(), log)
	auditSvc := service.NewAuditService(auditRepo, log)

	checkers := []ports.HealthChecker{pgStorage.NewHealthCheck(pool), redisStorage.NewHealthCheck(rdb)}
	if hc, ok := sender.(ports.HealthChecker); ok {
		checkers = append(checkers, hc)
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		ProfileSvc:     profileSvc,
		AccountSvc:     accountSvc,
		StatementSvc:   statementSvc,
		LedgerSvc:      ledgerSvc,
		WorkflowSvc:    workflowSvc,
		CardSvc:        cardSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: checkers,
		AuditSvc:       auditSvc,
		Logger:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
