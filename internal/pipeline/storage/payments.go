package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
)

const paymentColumns = `
	payment_id, job_id, creator_id, amount, currency,
	status, transaction_id, failure_reason, paid_at, created_at, updated_at
`

// CreatePayment inserts a new payment record.
func (s *Storage) CreatePayment(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (
			:payment_id, :job_id, :creator_id, :amount, :currency,
			:status, :transaction_id, :failure_reason, :paid_at, :created_at, :updated_at
		)
	`

	if _, err := s.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetPayment retrieves a payment by id.
func (s *Storage) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1`

	var p domain.Payment
	if err := s.db.GetContext(ctx, &p, query, paymentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment %s not found", paymentID)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

// PaymentsForJob returns every payment for a job, oldest first.
func (s *Storage) PaymentsForJob(ctx context.Context, jobID string) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE job_id = $1 ORDER BY created_at ASC`

	var out []domain.Payment
	if err := s.db.SelectContext(ctx, &out, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return out, nil
}

// UpdatePayment writes the payment's settlement fields with a compare-and-swap
// on the prior status.
func (s *Storage) UpdatePayment(ctx context.Context, p *domain.Payment, from domain.PaymentStatus) error {
	query := `
		UPDATE payments
		SET status = $1,
		    transaction_id = $2,
		    failure_reason = $3,
		    paid_at = $4,
		    updated_at = $5
		WHERE payment_id = $6 AND status = $7
	`

	result, err := s.db.ExecContext(ctx, query,
		p.Status, p.TransactionID, p.FailureReason, p.PaidAt, p.UpdatedAt, p.PaymentID, from)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: payment %s expected %s", domain.ErrStatusConflict, p.PaymentID, from)
	}
	return nil
}

// CompletedPaymentsForCreator returns the creator's settled earnings.
func (s *Storage) CompletedPaymentsForCreator(ctx context.Context, creatorID string) ([]domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE creator_id = $1 AND status = $2
		ORDER BY paid_at ASC
	`

	var out []domain.Payment
	if err := s.db.SelectContext(ctx, &out, query, creatorID, domain.PaymentStatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to list completed payments: %w", err)
	}
	return out, nil
}
