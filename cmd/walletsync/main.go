// Command walletsync provisions a wallet for every note owner that does not
// have one yet. It is safe to run repeatedly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"notehub/config"
	pgStorage "notehub/internal/adapter/storage/postgres"
	"notehub/internal/core/ports"
	"notehub/internal/service"
	"notehub/pkg/logger"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	concurrency := flag.Int("concurrency", 8, "wallets provisioned in parallel")
	dryRun := flag.Bool("dry-run", false, "list owners without provisioning")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.Component(logger.New(cfg.Log.Level, cfg.Log.Pretty), "walletsync")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	walletRepo := pgStorage.NewWalletRepo(pool)
	// Provisioning never touches bank details, so no encryption service is needed.
	walletSvc := service.NewWalletService(walletRepo, nil, log)

	n, err := backfill(ctx, walletRepo, walletSvc, *concurrency, *dryRun, log)
	if err != nil {
		log.Error().Err(err).Int("provisioned", n).Msg("Wallet backfill failed")
		pool.Close()
		os.Exit(1)
	}
	log.Info().Int("provisioned", n).Bool("dry_run", *dryRun).Msg("Wallet backfill finished")
}

// backfill provisions wallets for owners returned by the repository and
// reports how many it created (or would create, in a dry run).
func backfill(ctx context.Context, repo ports.WalletRepository, walletSvc ports.WalletService, concurrency int, dryRun bool, log zerolog.Logger) (int, error) {
	owners, err := repo.ListOwnersWithoutWallet(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing owners without wallet: %w", err)
	}
	log.Info().Int("owners", len(owners)).Msg("Owners without wallet")

	if dryRun {
		for _, id := range owners {
			log.Info().Str("admin_id", id.String()).Msg("would provision wallet")
		}
		return len(owners), nil
	}

	if concurrency < 1 {
		concurrency = 1
	}
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, id := range owners {
		g.Go(func() error {
			if _, err := walletSvc.Provision(gctx, id); err != nil {
				return fmt.Errorf("provisioning wallet for %s: %w", id, err)
			}
			done.Add(1)
			return nil
		})
	}
	err = g.Wait()
	return int(done.Load()), err
}
