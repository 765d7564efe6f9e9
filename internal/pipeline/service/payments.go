package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
)

// PaymentCreatedEvent is published to the broker when a payment record is
// created, for the external settlement system to pick up.
type PaymentCreatedEvent struct {
	PaymentID string    `json:"payment_id"`
	JobID     string    `json:"job_id"`
	CreatorID string    `json:"creator_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// SettlementReport is what the settlement boundary delivers back for one
// payment. Applied by the worker service.
type SettlementReport struct {
	PaymentID     string `json:"payment_id"`
	JobID         string `json:"job_id"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

// createPayment fires once on the job's first entry into approved. Amount is
// the budget at approval time, frozen on the record.
func (s *Service) createPayment(ctx context.Context, job *domain.Job) error {
	existing, err := s.store.PaymentsForJob(ctx, job.JobID)
	if err != nil {
		return err
	}
	for _, p := range existing {
		if p.Status != domain.PaymentStatusFailed {
			return fmt.Errorf("%w: payment %s is %s", domain.ErrPaymentAlreadyExists, p.PaymentID, p.Status)
		}
	}

	assignment, err := s.store.ActiveAssignment(ctx, job.JobID)
	if err != nil {
		return err
	}
	if assignment == nil {
		return domain.ErrNoActiveAssignment
	}

	now := s.now()
	payment := &domain.Payment{
		PaymentID: uuid.New().String(),
		JobID:     job.JobID,
		CreatorID: assignment.CreatorID,
		Amount:    job.BudgetAmount,
		Currency:  job.BudgetCurrency,
		Status:    domain.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	s.logger.Info("Payment created",
		slog.String("job_id", job.JobID),
		slog.String("payment_id", payment.PaymentID),
		slog.Float64("amount", payment.Amount),
		slog.String("currency", payment.Currency),
	)

	s.publishPaymentCreated(ctx, payment)
	return nil
}

// RetryPayment creates a fresh pending payment after settlement failure. An
// operator action; allowed only while the job sits in approved with every
// prior payment failed. The amount is copied from the original record so a
// later budget edit never changes what is owed.
func (s *Service) RetryPayment(ctx context.Context, jobID, actorID string) (*domain.Payment, error) {
	unlock := s.lockJob(jobID)
	defer unlock()

	job, err := s.mutableJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusApproved {
		return nil, &domain.InvalidTransitionError{From: job.Status, To: domain.JobStatusApproved}
	}

	payments, err := s.store.PaymentsForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, fmt.Errorf("job %s has no payment to retry", jobID)
	}
	for _, p := range payments {
		if p.Status != domain.PaymentStatusFailed {
			return nil, fmt.Errorf("%w: payment %s is %s", domain.ErrPaymentAlreadyExists, p.PaymentID, p.Status)
		}
	}

	// Oldest record carries the amount frozen at approval time.
	original := payments[0]

	now := s.now()
	payment := &domain.Payment{
		PaymentID: uuid.New().String(),
		JobID:     jobID,
		CreatorID: original.CreatorID,
		Amount:    original.Amount,
		Currency:  original.Currency,
		Status:    domain.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create retry payment: %w", err)
	}

	s.logger.Info("Payment retry created",
		slog.String("job_id", jobID),
		slog.String("payment_id", payment.PaymentID),
		slog.String("actor_id", actorID),
		slog.Float64("amount", payment.Amount),
	)

	s.publishPaymentCreated(ctx, payment)
	return payment, nil
}

// ApplySettlement records a settlement report against a payment and, when the
// report is completed, commits the job's approved -> completed transition. A
// failed settlement leaves the job in approved; the job is never reverted.
func (s *Service) ApplySettlement(ctx context.Context, report SettlementReport) error {
	status, err := domain.ParsePaymentStatus(report.Status)
	if err != nil {
		return err
	}

	payment, err := s.store.GetPayment(ctx, report.PaymentID)
	if err != nil {
		return err
	}

	unlock := s.lockJob(payment.JobID)
	defer unlock()

	from := payment.Status
	switch status {
	case domain.PaymentStatusProcessing:
		if from != domain.PaymentStatusPending {
			return fmt.Errorf("payment %s cannot move %s -> processing", payment.PaymentID, from)
		}
		payment.Status = domain.PaymentStatusProcessing
		payment.TransactionID = report.TransactionID
	case domain.PaymentStatusCompleted:
		if payment.Settled() {
			return fmt.Errorf("payment %s already settled as %s", payment.PaymentID, from)
		}
		now := s.now()
		payment.Status = domain.PaymentStatusCompleted
		payment.PaidAt = &now
		if report.TransactionID != "" {
			payment.TransactionID = report.TransactionID
		}
	case domain.PaymentStatusFailed:
		if payment.Settled() {
			return fmt.Errorf("payment %s already settled as %s", payment.PaymentID, from)
		}
		payment.Status = domain.PaymentStatusFailed
		payment.FailureReason = report.Error
	default:
		return fmt.Errorf("settlement report cannot set payment status %s", status)
	}

	now := s.now()
	payment.UpdatedAt = now
	if err := s.store.UpdatePayment(ctx, payment, from); err != nil {
		return err
	}

	s.logger.Info("Settlement applied",
		slog.String("payment_id", payment.PaymentID),
		slog.String("job_id", payment.JobID),
		slog.String("from", string(from)),
		slog.String("to", string(payment.Status)),
	)

	if payment.Status == domain.PaymentStatusCompleted {
		job, err := s.store.GetJob(ctx, payment.JobID)
		if err != nil {
			return err
		}
		if err := domain.CheckTransition(job.Status, domain.JobStatusCompleted); err != nil {
			return err
		}
		if err := s.store.UpdateJobStatus(ctx, job.JobID, job.Status, domain.JobStatusCompleted, nil, now); err != nil {
			return err
		}
		s.logger.Info("Job completed",
			slog.String("job_id", job.JobID),
			slog.String("payment_id", payment.PaymentID),
		)
	}

	return nil
}

// Payments returns every payment record for a job, oldest first.
func (s *Service) Payments(ctx context.Context, jobID string) ([]domain.Payment, error) {
	if _, err := s.store.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return s.store.PaymentsForJob(ctx, jobID)
}

// publishPaymentCreated hands the payment to the settlement boundary. The
// payment record is already durable when this runs; a publish failure is
// recorded and left to the operator retry path, the pipeline state is never
// undone because of it.
func (s *Service) publishPaymentCreated(ctx context.Context, payment *domain.Payment) {
	if s.events == nil {
		return
	}

	event := PaymentCreatedEvent{
		PaymentID: payment.PaymentID,
		JobID:     payment.JobID,
		CreatorID: payment.CreatorID,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		CreatedAt: payment.CreatedAt,
	}

	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal payment event",
			slog.String("payment_id", payment.PaymentID),
			slog.Any("error", err),
		)
		return
	}

	if err := s.events.PublishWithRetry(ctx, body, "application/json"); err != nil {
		s.logger.Error("Failed to publish payment event",
			slog.String("payment_id", payment.PaymentID),
			slog.Any("error", err),
		)
	}
}
