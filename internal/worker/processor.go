package worker

import (
	"context"
	"log/slog"
)

// processReport applies one settlement report through the pipeline service
// under the report timeout. Validation failures come back as-is and are not
// requeued; the pipeline never reverts a job because settlement failed.
func (w *Worker) processReport(ctx context.Context, msg *reportMessage) error {
	w.logger.Info("Processing settlement report",
		slog.String("payment_id", msg.Report.PaymentID),
		slog.String("status", msg.Report.Status),
		slog.String("worker_id", w.workerID),
	)

	reportCtx, cancel := context.WithTimeout(ctx, w.reportTimeout)
	defer cancel()

	if err := w.pipeline.ApplySettlement(reportCtx, msg.Report); err != nil {
		return err
	}

	w.logger.Info("Settlement report applied",
		slog.String("payment_id", msg.Report.PaymentID),
		slog.String("status", msg.Report.Status),
	)

	return nil
}
