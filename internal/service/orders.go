package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"menupos/internal/domain"
	"menupos/internal/metrics"
	"menupos/internal/models"
	"menupos/internal/remote"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// OrderService is the submission gate: it decides whether a freshly
// composed order goes to the remote service or into the local queue.
type OrderService struct {
	queue         domain.OrderQueue
	remote        *remote.Client
	conn          domain.Connectivity
	validate      *validator.Validate
	submitTimeout time.Duration
	logger        *zerolog.Logger
}

func NewOrderService(queue domain.OrderQueue, client *remote.Client, conn domain.Connectivity, submitTimeout time.Duration, logger *zerolog.Logger) *OrderService {
	if submitTimeout <= 0 {
		submitTimeout = time.Duration(models.DefaultSubmitTimeoutSeconds) * time.Second
	}
	return &OrderService{
		queue:         queue,
		remote:        client,
		conn:          conn,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		submitTimeout: submitTimeout,
		logger:        logger,
	}
}

// ValidateOrder checks the business fields a submission must carry:
// customer contact, and a table for dine-in or an address for takeaway.
func (s *OrderService) ValidateOrder(order *models.Order) error {
	if order == nil {
		return errors.New("order is required")
	}

	err := s.validate.Struct(order)
	if err == nil {
		return nil
	}

	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		return fmt.Errorf("invalid order: field %s failed on %s", fields[0].Field(), fields[0].Tag())
	}
	return fmt.Errorf("invalid order: %w", err)
}

// SubmitOrder validates first with no side effects, then tries the remote
// service when connectivity is believed up, and otherwise (or on any remote
// failure) falls back to the durable queue. Both outcomes are "accepted";
// only Offline tells them apart. A result with Success=false means the
// order could not be accounted for anywhere.
func (s *OrderService) SubmitOrder(ctx context.Context, order *models.Order, token string) models.SubmitResult {
	if token == "" {
		return models.SubmitResult{Error: "authentication required"}
	}

	if err := s.ValidateOrder(order); err != nil {
		return models.SubmitResult{Error: err.Error()}
	}

	if s.conn.Online() {
		submitCtx, cancel := context.WithTimeout(ctx, s.submitTimeout)
		created, err := s.remote.CreateOrder(submitCtx, order, token)
		cancel()
		if err == nil {
			metrics.IncSubmitted("live")
			s.logger.Info().Int64("order_id", created.ID).Msg("order confirmed remotely")
			return models.SubmitResult{Success: true, OrderID: created.ID}
		}
		// Any remote failure falls through to the queue; the order must
		// not be lost.
		s.logger.Warn().Err(err).Msg("remote submission failed, queueing order")
	}

	payload, err := json.Marshal(order)
	if err != nil {
		return models.SubmitResult{Error: fmt.Sprintf("encode order: %v", err)}
	}

	id, err := s.queue.Append(ctx, payload, token, s.remote.BaseURL())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to queue order")
		return models.SubmitResult{Error: fmt.Sprintf("queue order: %v", err)}
	}

	metrics.IncSubmitted("offline")
	s.logger.Info().Int64("order_id", id).Msg("order queued for later sync")
	return models.SubmitResult{Success: true, OrderID: id, Offline: true}
}

// ListPendingOrders exposes the reconciler's view for display.
func (s *OrderService) ListPendingOrders(ctx context.Context) ([]models.QueuedOrder, error) {
	return s.queue.ListPending(ctx)
}

// ListAllOrders returns the full local history, newest first.
func (s *OrderService) ListAllOrders(ctx context.Context) ([]models.QueuedOrder, error) {
	return s.queue.ListAll(ctx)
}

// RemoveOrder deletes a queued record. Administrative cleanup only; the
// reconciler never removes anything.
func (s *OrderService) RemoveOrder(ctx context.Context, id int64) error {
	return s.queue.Remove(ctx, id)
}
