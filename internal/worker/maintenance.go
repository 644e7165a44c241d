// Package worker runs the periodic housekeeping of a server instance.
package worker

import (
	"context"
	"fmt"
	"time"

	"orca/internal/log"
)

// Pruner is implemented by the preference stores that can drop stale rows.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Config tunes a MaintenanceWorker.
type Config struct {
	Interval  time.Duration
	Retention time.Duration
	Now       func() time.Time
}

// MaintenanceWorker prunes preferences nobody wrote for longer than the
// retention window.
type MaintenanceWorker struct {
	pruner Pruner
	cfg    Config
	logger *log.Logger
}

func NewMaintenanceWorker(pruner Pruner, cfg Config, logger *log.Logger) *MaintenanceWorker {
	if logger == nil {
		logger = log.Discard()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 90 * 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &MaintenanceWorker{
		pruner: pruner,
		cfg:    cfg,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Result reports what one pass removed.
type Result struct {
	Pruned  int64
	Cutoff  time.Time
	Elapsed time.Duration
}

// RunOnce performs a single maintenance pass.
func (w *MaintenanceWorker) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()
	res := Result{Cutoff: w.cfg.Now().Add(-w.cfg.Retention)}
	n, err := w.pruner.Prune(ctx, res.Cutoff)
	if err != nil {
		return res, fmt.Errorf("prune preferences before %s: %w", res.Cutoff.Format(time.RFC3339), err)
	}
	res.Pruned = n
	res.Elapsed = time.Since(start)
	return res, nil
}

// Run executes a pass at startup and then on every tick until ctx is done.
// Failed passes are logged and retried on the next tick.
func (w *MaintenanceWorker) Run(ctx context.Context) {
	w.logger.Info("Maintenance worker started",
		"interval", w.cfg.Interval.String(),
		"retention", w.cfg.Retention.String())

	w.pass(ctx, log.OpStartup)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Maintenance worker stopped")
			return
		case <-ticker.C:
			w.pass(ctx, log.OpPrune)
		}
	}
}

func (w *MaintenanceWorker) pass(ctx context.Context, op string) {
	res, err := w.RunOnce(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Maintenance pass failed",
			log.FieldOperation, op,
			log.FieldError, err.Error())
		return
	}
	if res.Pruned > 0 {
		w.logger.InfoContext(ctx, "Stale preferences pruned",
			log.FieldOperation, op,
			log.FieldCount, res.Pruned,
			log.FieldDuration, res.Elapsed.Milliseconds())
	}
}
