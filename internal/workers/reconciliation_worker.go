package workers

import (
	"context"
	"time"

	"studwork_backend/internal/logger"
	"studwork_backend/internal/services"
)

// ReconciliationWorker runs the drift-repair pass on a fixed interval.
// Every pass is idempotent, so overlapping deploys or a manual run through
// the admin endpoint are safe.
type ReconciliationWorker struct {
	reconciliation services.ReconciliationService
	interval       time.Duration
}

func NewReconciliationWorker(reconciliation services.ReconciliationService, interval time.Duration) *ReconciliationWorker {
	return &ReconciliationWorker{
		reconciliation: reconciliation,
		interval:       interval,
	}
}

func (w *ReconciliationWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *ReconciliationWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("reconciliation worker stopped")
			return
		case <-ticker.C:
			summary, err := w.reconciliation.Run(ctx)
			logger.WorkerLog("reconciliation", "run", err)
			if err == nil {
				logger.Info("reconciliation pass finished",
					"scanned", summary.Scanned,
					"inconsistent", summary.Inconsistent,
					"repaired", summary.Repaired,
					"errors", len(summary.Errors),
					"duration_ms", summary.Duration.Milliseconds(),
				)
			}
		}
	}
}
