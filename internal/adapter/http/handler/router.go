package handler

import (
	"notehub/internal/adapter/http/middleware"
	"notehub/internal/core/domain"
	"notehub/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	SettlementSvc  ports.SettlementService
	WalletSvc      ports.WalletService
	WithdrawalSvc  ports.WithdrawalService
	TokenSvc       ports.TokenService
	RateLimiter    middleware.Limiter // nil = rate limiting disabled
	AuditSvc       ports.AuditService // nil = audit logging disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(middleware.DefaultMaxBodyBytes))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		rule, ok := rules[group]
		if deps.RateLimiter == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimiter, group, rule, deps.Logger)
	}

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	student := middleware.RequireRole(domain.RoleStudent)
	admin := middleware.RequireRole(domain.RoleAdmin)
	platform := middleware.RequireRole(domain.RolePlatform)

	v1 := r.Group("/api/v1", jwtAuth)

	paymentHandler := NewPaymentHandler(deps.SettlementSvc)
	payments := v1.Group("/payments")
	{
		payments.POST("/orders", student, rl("orders"), paymentHandler.CreateOrder)
		payments.POST("/verify", student, rl("verify"), paymentHandler.VerifyPayment)
		payments.GET("/purchases", student, rl("history"), paymentHandler.ListPurchases)
		payments.GET("/history", admin, rl("history"), paymentHandler.ListHistory)
	}

	walletHandler := NewWalletHandler(deps.WalletSvc, deps.WithdrawalSvc)
	wallet := v1.Group("/wallet", admin)
	{
		wallet.GET("", rl("wallet"), walletHandler.GetWallet)
		wallet.POST("/init", rl("wallet"), walletHandler.InitWallet)
		wallet.PUT("/bank-details", rl("wallet"), walletHandler.UpdateBankDetails)
		wallet.POST("/withdrawals", rl("withdrawals"), walletHandler.RequestWithdrawal)
		wallet.GET("/withdrawals", rl("wallet"), walletHandler.ListWithdrawals)
	}

	payoutHandler := NewPayoutHandler(deps.WithdrawalSvc)
	payouts := v1.Group("/payouts", platform)
	{
		payouts.POST("/:id/confirm", rl("payouts"), payoutHandler.Confirm)
		payouts.POST("/:id/reject", rl("payouts"), payoutHandler.Reject)
	}

	return r
}
