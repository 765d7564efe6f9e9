package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/studioops/fulfillment-be/internal/pipeline/service"
	"github.com/studioops/fulfillment-be/shared/rabbitmq"
)

// Config holds settlement worker configuration
type Config struct {
	Logger        *slog.Logger
	Pipeline      *service.Service
	RabbitClient  *rabbitmq.Client
	Concurrency   int
	ReportTimeout time.Duration
	PrefetchCount int
}

// Worker consumes settlement reports from the broker and applies them to the
// payment ledger. Job transitions stay inside the pipeline service; the
// worker is only the settlement boundary.
type Worker struct {
	logger        *slog.Logger
	pipeline      *service.Service
	rabbitClient  *rabbitmq.Client
	concurrency   int
	reportTimeout time.Duration
	prefetchCount int
	workerID      string
	reportsChan   chan *reportMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// reportMessage pairs a parsed settlement report with its delivery tag for
// manual ack/nack.
type reportMessage struct {
	Report      service.SettlementReport
	DeliveryTag uint64
}

// NewWorker creates a new settlement worker instance
func NewWorker(cfg *Config) *Worker {
	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = cfg.Concurrency
	}
	return &Worker{
		logger:        cfg.Logger,
		pipeline:      cfg.Pipeline,
		rabbitClient:  cfg.RabbitClient,
		concurrency:   cfg.Concurrency,
		reportTimeout: cfg.ReportTimeout,
		prefetchCount: prefetch,
		workerID:      fmt.Sprintf("settlement-worker-%s", uuid.New().String()[:8]),
		reportsChan:   make(chan *reportMessage),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming settlement reports until the context is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting settlement worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("report_timeout", w.reportTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping settlement worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Settlement worker stopped")
}
