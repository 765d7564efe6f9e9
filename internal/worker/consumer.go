package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/studioops/fulfillment-be/internal/pipeline/service"
)

// setupConsumer sets up the RabbitMQ consumer with QoS and returns the
// delivery channel.
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	channel := w.rabbitClient.GetChannel()
	if channel == nil {
		return nil, fmt.Errorf("rabbitmq channel is nil")
	}

	// Per-consumer prefetch so one slow settlement does not starve the pool.
	if err := channel.Qos(w.prefetchCount, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	w.logger.Info("RabbitMQ QoS configured",
		slog.Int("prefetch_count", w.prefetchCount),
	)

	deliveries, err := w.rabbitClient.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("RabbitMQ consumer started",
		slog.String("consumer_tag", w.workerID),
	)

	return deliveries, nil
}

// startMessageDispatcher reads deliveries, parses settlement reports and hands
// them to the worker pool. Malformed messages are nacked without requeue.
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) {
	w.logger.Info("Message dispatcher started",
		slog.String("worker_id", w.workerID),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			var report service.SettlementReport
			if err := json.Unmarshal(delivery.Body, &report); err != nil {
				w.logger.Error("Failed to parse settlement report",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed report",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			if report.PaymentID == "" || report.Status == "" {
				w.logger.Error("Settlement report missing payment_id or status",
					slog.String("body", string(delivery.Body)),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK incomplete report",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			msg := &reportMessage{
				Report:      report,
				DeliveryTag: delivery.DeliveryTag,
			}

			select {
			case w.reportsChan <- msg:
				w.logger.Debug("Report dispatched to worker pool",
					slog.String("payment_id", report.PaymentID),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				w.logger.Info("Message dispatcher stopped while dispatching report")
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK report on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return
			}
		}
	}
}
