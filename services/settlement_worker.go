package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-hub/models"
	"github.com/Dosada05/tournament-hub/repositories"
	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"
)

const settlementBatchSize = 100

// SettlementWorker periodically settles pending transactions whose settlement
// delay has elapsed. Pending work lives in the transactions table, not in
// in-process timers, so settlements scheduled before a restart are picked up
// by the next run.
//
// Withdrawals always settle automatically. Deposits settle here only when
// autoApproveDeposits is enabled; otherwise admin approval is the single
// settlement path for them.
type SettlementWorkerConfig struct {
	Interval            time.Duration
	Delay               time.Duration
	AutoApproveDeposits bool
}

type SettlementWorker struct {
	settlement      *SettlementService
	transactionRepo repositories.TransactionRepository
	cfg             SettlementWorkerConfig
	logger          *slog.Logger
	scheduler       gocron.Scheduler
}

func NewSettlementWorker(
	settlement *SettlementService,
	transactionRepo repositories.TransactionRepository,
	cfg SettlementWorkerConfig,
	logger *slog.Logger,
) *SettlementWorker {
	return &SettlementWorker{
		settlement:      settlement,
		transactionRepo: transactionRepo,
		cfg:             cfg,
		logger:          logger,
	}
}

func (w *SettlementWorker) Start() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(w.cfg.Interval),
		gocron.NewTask(w.runOnce),
	)
	if err != nil {
		return err
	}
	scheduler.Start()
	w.scheduler = scheduler
	w.logger.Info("settlement worker started",
		slog.Duration("interval", w.cfg.Interval),
		slog.Duration("delay", w.cfg.Delay),
		slog.Bool("auto_approve_deposits", w.cfg.AutoApproveDeposits))
	return nil
}

func (w *SettlementWorker) Stop() error {
	if w.scheduler == nil {
		return nil
	}
	return w.scheduler.Shutdown()
}

func (w *SettlementWorker) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	types := []models.TransactionType{models.TypeWithdraw}
	if w.cfg.AutoApproveDeposits {
		types = append(types, models.TypeDeposit)
	}

	due, err := w.transactionRepo.ListDueForSettlement(ctx, types, time.Now().Add(-w.cfg.Delay), settlementBatchSize)
	if err != nil {
		w.logger.Error("settlement worker: failed to list due transactions", slog.Any("error", err))
		return
	}
	if len(due) == 0 {
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, txn := range due {
		txn := txn
		g.Go(func() error {
			w.settle(ctx, txn)
			return nil
		})
	}
	_ = g.Wait()
}

func (w *SettlementWorker) settle(ctx context.Context, txn models.Transaction) {
	var err error
	switch txn.Type {
	case models.TypeDeposit:
		err = w.settlement.SettleDeposit(ctx, txn.ID)
	case models.TypeWithdraw:
		err = w.settlement.SettleWithdraw(ctx, txn.ID)
	default:
		return
	}

	switch {
	case err == nil:
		w.logger.Info("transaction settled",
			slog.Int("transaction_id", txn.ID),
			slog.String("type", string(txn.Type)))
	case errors.Is(err, ErrInvalidTransactionState):
		// Settled or rejected by another path between listing and settling.
	default:
		// Left pending for the next run or manual admin resolution.
		w.logger.Error("settlement failed",
			slog.Int("transaction_id", txn.ID),
			slog.Any("error", err))
	}
}
