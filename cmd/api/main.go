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

	"notehub/config"
	"notehub/internal/adapter/gateway/razorpay"
	"notehub/internal/adapter/gateway/sandbox"
	httpHandler "notehub/internal/adapter/http/handler"
	pgStorage "notehub/internal/adapter/storage/postgres"
	redisStorage "notehub/internal/adapter/storage/redis"
	"notehub/internal/core/ports"
	"notehub/internal/service"
	"notehub/pkg/logger"
	"notehub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	bankAccountKeyPurpose = "wallet-bank-account"
	shutdownTimeout       = 10 * time.Second
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	response.SetProduction(cfg.App.IsProduction())
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Str("env", cfg.App.Env).
		Int("port", cfg.Server.Port).
		Msg("Starting notehub payments API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	healthCheckers := []ports.HealthChecker{pgStorage.NewHealthCheck(pool)}

	// Redis backs the replay cache and rate limiting; both degrade without it.
	var (
		settlementCache ports.SettlementCache
		rateLimiter     *redisStorage.RateLimitStore
	)
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, running without replay cache and rate limiting")
	} else {
		defer rdb.Close()
		settlementCache = redisStorage.NewSettlementCache(rdb)
		rateLimiter = redisStorage.NewRateLimitStore(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
		log.Info().Msg("Redis connected")
	}

	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	withdrawalRepo := pgStorage.NewWithdrawalRepo(pool)
	noteRepo := pgStorage.NewNoteRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key, bankAccountKeyPurpose)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	sigSvc := service.NewHMACSignatureService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	var gateway ports.PaymentGateway
	if cfg.Payment.Gateway.Sandbox {
		gateway = sandbox.New(cfg.Payment.Gateway.KeySecret, sigSvc)
		log.Warn().Msg("Using sandbox payment gateway, no real payments will be taken")
	} else {
		gateway = razorpay.NewClient(cfg.Payment.Gateway, sigSvc, log)
	}

	walletSvc := service.NewWalletService(walletRepo, encSvc, log)
	withdrawalSvc := service.NewWithdrawalService(walletSvc, walletRepo, withdrawalRepo, transactor, log)
	settlementSvc := service.NewSettlementService(
		ledgerRepo,
		noteRepo,
		walletSvc,
		gateway,
		settlementCache,
		transactor,
		service.SettlementConfig{
			FeePercentage:  decimal.NewFromFloat(cfg.Payment.FeePercentage),
			Currency:       cfg.Payment.Currency,
			KeyID:          cfg.Payment.Gateway.KeyID,
			GatewayTimeout: cfg.Payment.Gateway.Timeout,
		},
		log,
	)
	auditSvc := service.NewAuditService(auditRepo, log)

	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	deps := httpHandler.RouterDeps{
		SettlementSvc:  settlementSvc,
		WalletSvc:      walletSvc,
		WithdrawalSvc:  withdrawalSvc,
		TokenSvc:       tokenSvc,
		AuditSvc:       auditSvc,
		HealthCheckers: healthCheckers,
		Logger:         log,
	}
	if rateLimiter != nil {
		deps.RateLimiter = rateLimiter
	}
	router := httpHandler.SetupRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
	}

	// Flush audit writes still in flight.
	auditSvc.Wait()
	log.Info().Msg("Server exited")
}
