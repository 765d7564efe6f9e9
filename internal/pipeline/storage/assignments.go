package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
)

// ActiveAssignment returns the job's active assignment, or nil when the job
// is unassigned. The unique partial index on (job_id) WHERE status = 'active'
// guarantees at most one row.
func (s *Storage) ActiveAssignment(ctx context.Context, jobID string) (*domain.Assignment, error) {
	query := `
		SELECT assignment_id, job_id, creator_id, role, stage, status, created_at, removed_at
		FROM assignments
		WHERE job_id = $1 AND status = 'active'
	`

	var a domain.Assignment
	if err := s.db.GetContext(ctx, &a, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active assignment: %w", err)
	}
	return &a, nil
}

// CreateAssignment inserts a new assignment record.
func (s *Storage) CreateAssignment(ctx context.Context, a *domain.Assignment) error {
	query := `
		INSERT INTO assignments (assignment_id, job_id, creator_id, role, stage, status, created_at)
		VALUES (:assignment_id, :job_id, :creator_id, :role, :stage, :status, :created_at)
	`

	if _, err := s.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

// RetireAssignment moves an assignment to removed, keeping it as history.
func (s *Storage) RetireAssignment(ctx context.Context, assignmentID string, at time.Time) error {
	query := `
		UPDATE assignments
		SET status = $1, removed_at = $2
		WHERE assignment_id = $3 AND status = $4
	`

	result, err := s.db.ExecContext(ctx, query, domain.AssignmentStatusRemoved, at, assignmentID, domain.AssignmentStatusActive)
	if err != nil {
		return fmt.Errorf("failed to retire assignment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: assignment %s is not active", domain.ErrStatusConflict, assignmentID)
	}
	return nil
}
