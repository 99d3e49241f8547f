package worker

import (
	"context"
	"errors"
	"time"

	"menupos/internal/domain"
	"menupos/internal/models"

	"github.com/rs/zerolog"
)

// SyncWorker owns the automatic reconciliation triggers: a fixed-interval
// timer while connectivity is believed up, and offline→online transitions.
// Manual triggers call the reconciler directly through the bridge API.
type SyncWorker struct {
	syncer   domain.Syncer
	monitor  domain.Connectivity
	interval time.Duration
	logger   *zerolog.Logger
}

func NewSyncWorker(syncer domain.Syncer, monitor domain.Connectivity, interval time.Duration, logger *zerolog.Logger) *SyncWorker {
	if interval <= 0 {
		interval = time.Duration(models.DefaultSyncIntervalSeconds) * time.Second
	}
	return &SyncWorker{
		syncer:   syncer,
		monitor:  monitor,
		interval: interval,
		logger:   logger,
	}
}

// Start runs until ctx is done.
func (w *SyncWorker) Start(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Msg("sync worker started")
	defer w.logger.Info().Msg("sync worker stopped")

	transitions := w.monitor.Subscribe()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.monitor.Online() {
				w.run(ctx)
			}
		case online := <-transitions:
			if online {
				w.run(ctx)
			}
		}
	}
}

func (w *SyncWorker) run(ctx context.Context) {
	result, err := w.syncer.Reconcile(ctx, "")
	if err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			w.logger.Debug().Msg("sync trigger skipped, run in progress")
			return
		}
		w.logger.Error().Err(err).Msg("sync run error")
		return
	}

	if result.Unauthorized {
		w.logger.Warn().Msg("sync hit authorization failures, re-login needed")
	}
}
