package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
)

// spawnWorkerPool spawns N worker goroutines based on concurrency configuration
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop is the main processing loop for each worker goroutine
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Info("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Worker goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			w.logger.Info("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case msg, ok := <-w.reportsChan:
			if !ok {
				return
			}

			err := w.processReport(ctx, msg)

			channel := w.rabbitClient.GetChannel()
			if channel == nil {
				w.logger.Error("Failed to get RabbitMQ channel for ACK/NACK",
					slog.String("worker_name", workerName),
					slog.String("payment_id", msg.Report.PaymentID),
				)
				continue
			}

			if err != nil {
				w.logger.Error("Settlement report processing failed",
					slog.String("worker_name", workerName),
					slog.String("payment_id", msg.Report.PaymentID),
					slog.String("error", err.Error()),
				)

				requeue := w.shouldRequeue(err)
				if nackErr := channel.Nack(msg.DeliveryTag, false, requeue); nackErr != nil {
					w.logger.Error("Failed to NACK report",
						slog.String("worker_name", workerName),
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			if ackErr := channel.Ack(msg.DeliveryTag, false); ackErr != nil {
				w.logger.Error("Failed to ACK report",
					slog.String("worker_name", workerName),
					slog.String("error", ackErr.Error()),
				)
			}
		}
	}
}

// shouldRequeue decides whether a failed report is worth another delivery.
// Deterministic validation failures are not; only transient store conflicts
// and infrastructure errors are.
func (w *Worker) shouldRequeue(err error) bool {
	// A CAS conflict means another writer got there first; the retried
	// delivery will resolve against the fresh state.
	if errors.Is(err, domain.ErrStatusConflict) {
		return true
	}

	var retryable *RetryableError
	return errors.As(err, &retryable)
}

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
