package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TransferReconcileJobName is the scheduler name of the transfer reconciliation scan
const TransferReconcileJobName = "transfer_reconcile"

// TransferReconciler flags transfer groups whose legs do not net to zero
type TransferReconciler interface {
	ReconcileTransfers(ctx context.Context, grace time.Duration) (int, error)
}

// TransferReconcileJob scans committed transfers for half-applied groups.
// Groups younger than grace are skipped so in-flight transfers are not flagged.
type TransferReconcileJob struct {
	reconciler TransferReconciler
	logger     *zap.Logger
	grace      time.Duration
}

func NewTransferReconcileJob(reconciler TransferReconciler, logger *zap.Logger, grace time.Duration) *TransferReconcileJob {
	return &TransferReconcileJob{
		reconciler: reconciler,
		logger:     logger,
		grace:      grace,
	}
}

// Run executes one scan within ctx
func (j *TransferReconcileJob) Run(ctx context.Context) error {
	start := time.Now()
	flagged, err := j.reconciler.ReconcileTransfers(ctx, j.grace)
	if err != nil {
		j.logger.Error("transfer reconciliation failed",
			zap.Error(err),
			zap.Int("flagged", flagged),
			zap.Duration("duration", time.Since(start)))
		return err
	}

	if flagged > 0 {
		j.logger.Warn("transfer reconciliation flagged inconsistent transfers",
			zap.Int("flagged", flagged),
			zap.Duration("duration", time.Since(start)))
		return nil
	}
	j.logger.Info("transfer reconciliation completed",
		zap.Duration("duration", time.Since(start)))
	return nil
}

// RegisterTransferReconcileJob registers the scan with the scheduler, each run bounded by timeout.
// With runOnStartup a first scan runs in the background so it does not block API startup.
func RegisterTransferReconcileJob(scheduler *Scheduler, reconciler TransferReconciler, logger *zap.Logger, cronExpr string, grace, timeout time.Duration, runOnStartup bool) error {
	job := NewTransferReconcileJob(reconciler, logger, grace)

	if err := scheduler.AddJob(TransferReconcileJobName, cronExpr, timeout, job.Run); err != nil {
		return err
	}
	if runOnStartup {
		go func() { _ = scheduler.RunNow(TransferReconcileJobName) }()
	}
	return nil
}
