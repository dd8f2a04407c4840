package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joy095/ledger/config"
	"github.com/joy095/ledger/config/db"
	"github.com/joy095/ledger/jobs"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/repository/postgres"
	"github.com/joy095/ledger/services/ledger_service"
)

func init() {
	logger.InitLoggers()
	config.LoadEnv()
}

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.ErrorLogger.Fatalf("Failed to ensure schema: %v", err)
	}

	store := postgres.NewStore(pool)

	sweeper, err := jobs.NewSweeper(ctx,
		ledger_service.NewSettlementService(store),
		ledger_service.NewPayoutOrchestrator(store, nil, cfg.PayoutWorkers, nil),
		cfg.StuckBatchAfter)
	if err != nil {
		logger.ErrorLogger.Fatalf("Failed to create scheduler: %v", err)
	}
	if err := sweeper.RegisterJobs(cfg.SweepCron); err != nil {
		logger.ErrorLogger.Fatalf("Invalid SWEEP_CRON %q: %v", cfg.SweepCron, err)
	}
	sweeper.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	sweeper.Stop()
}
