// Package worker runs the formatted id repair pass on an interval.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Repairer interface {
	RepairFormattedIDs(ctx context.Context, batch int) (int, error)
}

type Config struct {
	Interval  time.Duration
	BatchSize int
}

type Worker struct {
	cfg      Config
	repairer Repairer
	log      *slog.Logger
	backoff  func(attempt int) time.Duration

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repairer Repairer, log *slog.Logger) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		cfg:      cfg,
		repairer: repairer,
		log:      log,
		backoff:  ExponentialBackoff,
	}
}

// Run repairs once immediately, then every Interval until ctx is done.
// Consecutive failures back off exponentially instead of waiting Interval.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	w.log.Info("repair worker started", "interval", w.cfg.Interval.String(), "batch", w.cfg.BatchSize)

	failures := 0
	for {
		wait := w.cfg.Interval

		n, err := w.repairer.RepairFormattedIDs(ctx, w.cfg.BatchSize)
		switch {
		case err != nil && ctx.Err() != nil:
			// shutting down mid-pass
		case err != nil:
			wait = w.backoff(failures)
			failures++
			w.log.Error("repair pass failed", "err", err, "repaired", n, "retry_in", wait.String(), "failures", failures)
		default:
			failures = 0
			if n > 0 {
				w.log.Info("repair pass completed", "repaired", n)
			}
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			w.log.Info("repair worker received shutdown signal")
			return nil
		case <-timer.C:
		}
	}
}

func (w *Worker) Ready() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}
