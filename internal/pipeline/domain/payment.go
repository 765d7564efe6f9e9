package domain

import (
	"fmt"
	"time"
)

// PaymentStatus is the settlement lifecycle of one payment record. Settlement
// itself runs outside this pipeline; the worker applies its reports.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// ParsePaymentStatus rejects unknown status strings at the boundary.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch p := PaymentStatus(s); p {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed:
		return p, nil
	default:
		return "", fmt.Errorf("unknown payment status: %q", s)
	}
}

// Payment is the financial record created once when a job first reaches
// approved. Amount is frozen at approval time; a failed payment is retried by
// creating a new record, never by mutating the failed one.
type Payment struct {
	PaymentID     string        `db:"payment_id" json:"payment_id"`
	JobID         string        `db:"job_id" json:"job_id"`
	CreatorID     string        `db:"creator_id" json:"creator_id"`
	Amount        float64       `db:"amount" json:"amount"`
	Currency      string        `db:"currency" json:"currency"`
	Status        PaymentStatus `db:"status" json:"status"`
	TransactionID string        `db:"transaction_id" json:"transaction_id,omitempty"`
	FailureReason string        `db:"failure_reason" json:"failure_reason,omitempty"`
	PaidAt        *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// Settled reports whether the payment has reached a terminal settlement state.
func (p *Payment) Settled() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusFailed
}
