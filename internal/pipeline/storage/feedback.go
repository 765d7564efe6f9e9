package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
)

const feedbackColumns = `
	feedback_id, job_id, deliverable_id, author_id,
	priority, feedback_type, message, status, resolved_at, created_at, updated_at
`

// CreateFeedback inserts a new feedback item.
func (s *Storage) CreateFeedback(ctx context.Context, f *domain.FeedbackItem) error {
	query := `
		INSERT INTO feedback_items (` + feedbackColumns + `)
		VALUES (
			:feedback_id, :job_id, :deliverable_id, :author_id,
			:priority, :feedback_type, :message, :status, :resolved_at, :created_at, :updated_at
		)
	`

	if _, err := s.db.NamedExecContext(ctx, query, f); err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

// GetFeedback retrieves a feedback item by id.
func (s *Storage) GetFeedback(ctx context.Context, feedbackID string) (*domain.FeedbackItem, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback_items WHERE feedback_id = $1`

	var f domain.FeedbackItem
	if err := s.db.GetContext(ctx, &f, query, feedbackID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return &f, nil
}

// FeedbackForJob returns every feedback item on a job, oldest first.
func (s *Storage) FeedbackForJob(ctx context.Context, jobID string) ([]domain.FeedbackItem, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback_items WHERE job_id = $1 ORDER BY created_at ASC`

	var out []domain.FeedbackItem
	if err := s.db.SelectContext(ctx, &out, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return out, nil
}

// UpdateFeedbackStatus advances a feedback item with a compare-and-swap on the
// prior status.
func (s *Storage) UpdateFeedbackStatus(ctx context.Context, feedbackID string, from, to domain.FeedbackStatus, resolvedAt *time.Time, now time.Time) error {
	query := `
		UPDATE feedback_items
		SET status = $1,
		    resolved_at = $2,
		    updated_at = $3
		WHERE feedback_id = $4 AND status = $5
	`

	result, err := s.db.ExecContext(ctx, query, to, resolvedAt, now, feedbackID, from)
	if err != nil {
		return fmt.Errorf("failed to update feedback status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: feedback %s expected %s", domain.ErrStatusConflict, feedbackID, from)
	}
	return nil
}
