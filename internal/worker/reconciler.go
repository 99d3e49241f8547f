package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"menupos/internal/domain"
	"menupos/internal/metrics"
	"menupos/internal/models"
	"menupos/internal/remote"

	"github.com/rs/zerolog"
)

// ErrSyncInProgress is returned when a reconciliation run is triggered
// while another is still draining the queue.
var ErrSyncInProgress = errors.New("sync already in progress")

// Reconciler drains the durable order queue against the remote service.
// Every trigger (timer, connectivity restored, user action) funnels into
// Reconcile; overlapping runs are suppressed, not interleaved.
type Reconciler struct {
	queue         domain.OrderQueue
	remote        *remote.Client
	submitTimeout time.Duration
	logger        *zerolog.Logger
	running       atomic.Bool
}

func NewReconciler(queue domain.OrderQueue, client *remote.Client, submitTimeout time.Duration, logger *zerolog.Logger) *Reconciler {
	if submitTimeout <= 0 {
		submitTimeout = time.Duration(models.DefaultSubmitTimeoutSeconds) * time.Second
	}
	return &Reconciler{
		queue:         queue,
		remote:        client,
		submitTimeout: submitTimeout,
		logger:        logger,
	}
}

// Reconcile submits every order in a snapshot of the pending queue, oldest
// first, sequentially. One failing order never blocks its siblings; its
// reason lands in the result instead. Orders appended while the run is in
// flight wait for the next run.
func (r *Reconciler) Reconcile(ctx context.Context, tokenOverride string) (models.SyncResult, error) {
	if !r.running.CompareAndSwap(false, true) {
		return models.SyncResult{}, ErrSyncInProgress
	}
	defer r.running.Store(false)

	result := models.SyncResult{ErrorMessages: []string{}}

	pending, err := r.queue.ListPending(ctx)
	if err != nil {
		return result, fmt.Errorf("list pending orders: %w", err)
	}
	if len(pending) == 0 {
		metrics.SetQueueDepth(0)
		return result, nil
	}

	r.logger.Info().Int("pending", len(pending)).Msg("sync run started")

	for _, order := range pending {
		token := order.AuthToken
		if tokenOverride != "" {
			token = tokenOverride
		}

		submitCtx, cancel := context.WithTimeout(ctx, r.submitTimeout)
		created, err := r.remote.CreateOrderAt(submitCtx, order.Endpoint, order.Payload, token)
		cancel()

		if err != nil {
			result.FailedCount++
			result.ErrorMessages = append(result.ErrorMessages, fmt.Sprintf("%d: %v", order.ID, err))
			if remote.IsUnauthorized(err) {
				result.Unauthorized = true
			}
			metrics.IncSyncOrder("failed")
			r.logger.Warn().Err(err).Int64("order_id", order.ID).Msg("order sync failed")
			continue
		}

		if err := r.queue.MarkSynced(ctx, order.ID); err != nil {
			// The remote accepted the order; losing the mark means a
			// duplicate submission later, so make it loud.
			r.logger.Error().Err(err).Int64("order_id", order.ID).Msg("failed to mark order synced")
		}
		result.SuccessCount++
		metrics.IncSyncOrder("success")
		r.logger.Info().Int64("order_id", order.ID).Int64("remote_id", created.ID).Msg("order synced")
	}

	metrics.IncSyncRun()
	metrics.SetQueueDepth(result.FailedCount)

	r.logger.Info().
		Int("success", result.SuccessCount).
		Int("failed", result.FailedCount).
		Bool("unauthorized", result.Unauthorized).
		Msg("sync run finished")

	return result, nil
}
