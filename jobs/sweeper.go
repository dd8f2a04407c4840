// Package jobs schedules the periodic ledger work: the daily settlement sweep and the
// report of payout batches left processing.
package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/services/ledger_service"
)

const (
	settlementJobName  = "daily-settlement"
	stuckBatchJobName  = "stuck-payout-batches"
	stuckBatchInterval = time.Hour
)

type Sweeper struct {
	ctx         context.Context
	settlements *ledger_service.SettlementService
	payouts     *ledger_service.PayoutOrchestrator
	stuckAfter  time.Duration
	scheduler   gocron.Scheduler
}

func NewSweeper(ctx context.Context, settlements *ledger_service.SettlementService, payouts *ledger_service.PayoutOrchestrator, stuckAfter time.Duration) (*Sweeper, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Sweeper{
		ctx:         ctx,
		settlements: settlements,
		payouts:     payouts,
		stuckAfter:  stuckAfter,
		scheduler:   s,
	}, nil
}

// RegisterJobs adds the settlement sweep on settleCron and the hourly stuck batch report.
func (s *Sweeper) RegisterJobs(settleCron string) error {
	if _, err := s.scheduler.NewJob(
		gocron.CronJob(settleCron, false),
		gocron.NewTask(s.SettleDaily),
		gocron.WithName(settlementJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		logger.ErrorLogger.Errorf("Failed to register job %s: %v", settlementJobName, err)
		return err
	}
	if _, err := s.scheduler.NewJob(
		gocron.DurationJob(stuckBatchInterval),
		gocron.NewTask(s.ReportStuck),
		gocron.WithName(stuckBatchJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		logger.ErrorLogger.Errorf("Failed to register job %s: %v", stuckBatchJobName, err)
		return err
	}
	return nil
}

func (s *Sweeper) Start() {
	s.scheduler.Start()
	logger.InfoLogger.Infof("Sweeper started with %d jobs", len(s.scheduler.Jobs()))
}

func (s *Sweeper) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		logger.ErrorLogger.Errorf("Failed to shutdown scheduler: %v", err)
	}
	logger.InfoLogger.Info("Sweeper stopped")
}

// SettleDaily settles every eligible worker wallet as of now.
func (s *Sweeper) SettleDaily() {
	res, err := s.settlements.SettleAll(s.ctx, time.Now().UTC())
	if err != nil {
		logger.ErrorLogger.Errorf("Settlement sweep aborted: %v", err)
		return
	}
	if res.Failed > 0 {
		logger.WarnLogger.Warnf("Settlement sweep: %d wallets failed to settle", res.Failed)
	}
}

// ReportStuck logs payout batches processing for longer than the configured threshold.
func (s *Sweeper) ReportStuck() {
	if _, err := s.payouts.StuckBatches(s.ctx, s.stuckAfter); err != nil {
		logger.ErrorLogger.Errorf("Stuck batch report failed: %v", err)
	}
}
