package handler

import (
	"retail-banking-core/internal/adapter/http/middleware"
	redisStore "retail-banking-core/internal/adapter/storage/redis"
	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	ProfileSvc     ports.ProfileService
	AccountSvc     ports.AccountService
	StatementSvc   ports.StatementService
	LedgerSvc      ports.LedgerService
	WorkflowSvc    ports.WorkflowService
	CardSvc        ports.CardService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20))

	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	// --- Public routes ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
		auth.POST("/verify-otp", rl("auth_otp"), authHandler.VerifyOTP)
	}

	// --- Authenticated routes ---
	secured := v1.Group("", middleware.JWTAuth(deps.TokenSvc, deps.Logger))
	customer := middleware.RequireRole(domain.RoleCustomer)
	executive := middleware.RequireRole(domain.RoleAccountExecutive, domain.RoleBranchManager)
	teller := middleware.RequireRole(domain.RoleTeller, domain.RoleBranchManager)

	profileHandler := NewProfileHandler(deps.ProfileSvc)
	profile := secured.Group("/profile", rl("read"))
	{
		profile.GET("", profileHandler.Get)
		profile.PUT("", profileHandler.Update)
	}

	accountHandler := NewAccountHandler(deps.AccountSvc, deps.StatementSvc)
	accounts := secured.Group("/accounts", rl("read"))
	{
		accounts.POST("", customer, accountHandler.Open)
		accounts.GET("", accountHandler.List)
		accounts.GET("/:number", accountHandler.Get)
		accounts.POST("/:number/primary", customer, accountHandler.SetPrimary)
		accounts.POST("/:number/kyc", customer, accountHandler.SubmitKYC)
		accounts.POST("/:number/verify", executive, accountHandler.VerifyKYC)
		accounts.GET("/:number/transactions", accountHandler.Transactions)
		accounts.GET("/:number/statement", accountHandler.Statement)
	}
	secured.GET("/transactions", rl("read"), accountHandler.Transactions)

	ledgerHandler := NewLedgerHandler(deps.LedgerSvc, deps.WorkflowSvc)
	secured.POST("/deposits", teller, rl("ledger"), ledgerHandler.Deposit)

	withdrawals := secured.Group("/withdrawals", customer)
	{
		withdrawals.POST("", rl("staged"), ledgerHandler.InitiateWithdrawal)
		withdrawals.POST("/verify-username", rl("staged"), ledgerHandler.VerifyWithdrawalUsername)
		withdrawals.POST("/commit", rl("ledger"), ledgerHandler.Commit)
		withdrawals.POST("/cancel", rl("staged"), ledgerHandler.Cancel)
	}

	transfers := secured.Group("/transfers", customer)
	{
		transfers.POST("", rl("staged"), ledgerHandler.InitiateTransfer)
		transfers.POST("/security-answer", rl("staged"), ledgerHandler.VerifySecurityAnswer)
		transfers.POST("/otp", rl("staged"), ledgerHandler.VerifyTransferOTP)
		transfers.POST("/commit", rl("ledger"), ledgerHandler.Commit)
		transfers.POST("/cancel", rl("staged"), ledgerHandler.Cancel)
	}

	cardHandler := NewCardHandler(deps.CardSvc)
	cards := secured.Group("/cards", customer)
	{
		cards.POST("", rl("ledger"), cardHandler.Issue)
		cards.GET("", rl("read"), cardHandler.List)
		cards.POST("/:id/topup", rl("ledger"), cardHandler.TopUp)
		cards.DELETE("/:id", rl("ledger"), cardHandler.Delete)
	}

	return r
}
