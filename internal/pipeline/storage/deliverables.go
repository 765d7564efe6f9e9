package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
)

const deliverableColumns = `
	deliverable_id, job_id, creator_id, idempotency_key, version,
	file_url, file_type, file_size_bytes, notes, is_final, created_at
`

// CreateDeliverable assigns the next version number for the job, inserts the
// deliverable and commits the job transition from -> submitted, all in one
// transaction. The job row is locked first so concurrent submissions against
// the same job serialize on the database as well.
func (s *Storage) CreateDeliverable(ctx context.Context, d *domain.Deliverable, from domain.JobStatus, now time.Time) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var current domain.JobStatus
		if err := tx.GetContext(ctx, &current,
			`SELECT status FROM jobs WHERE job_id = $1 FOR UPDATE`, d.JobID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrJobNotFound
			}
			return fmt.Errorf("failed to lock job: %w", err)
		}
		if current != from {
			return fmt.Errorf("%w: expected %s, found %s", domain.ErrStatusConflict, from, current)
		}

		if err := tx.GetContext(ctx, &d.Version,
			`SELECT COALESCE(MAX(version), 0) + 1 FROM deliverables WHERE job_id = $1`, d.JobID); err != nil {
			return fmt.Errorf("failed to assign version: %w", err)
		}

		insert := `
			INSERT INTO deliverables (` + deliverableColumns + `)
			VALUES (
				:deliverable_id, :job_id, :creator_id, :idempotency_key, :version,
				:file_url, :file_type, :file_size_bytes, :notes, :is_final, :created_at
			)
		`
		if _, err := tx.NamedExecContext(ctx, insert, d); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: job %s", domain.ErrDuplicateSubmission, d.JobID)
			}
			return fmt.Errorf("failed to insert deliverable: %w", err)
		}

		update := `
			UPDATE jobs
			SET status = $1, updated_at = $2
			WHERE job_id = $3 AND status = $4
		`
		result, err := tx.ExecContext(ctx, update, domain.JobStatusSubmitted, now, d.JobID, from)
		if err != nil {
			return fmt.Errorf("failed to update job status: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: expected %s", domain.ErrStatusConflict, from)
		}
		return nil
	})
}

// GetDeliverable retrieves a deliverable by id.
func (s *Storage) GetDeliverable(ctx context.Context, deliverableID string) (*domain.Deliverable, error) {
	query := `SELECT ` + deliverableColumns + ` FROM deliverables WHERE deliverable_id = $1`

	var d domain.Deliverable
	if err := s.db.GetContext(ctx, &d, query, deliverableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDeliverableNotFound
		}
		return nil, fmt.Errorf("failed to get deliverable: %w", err)
	}
	return &d, nil
}

// DeliverableByKey looks up a prior submission by idempotency key, or nil.
func (s *Storage) DeliverableByKey(ctx context.Context, jobID, idempotencyKey string) (*domain.Deliverable, error) {
	query := `SELECT ` + deliverableColumns + ` FROM deliverables WHERE job_id = $1 AND idempotency_key = $2`

	var d domain.Deliverable
	if err := s.db.GetContext(ctx, &d, query, jobID, idempotencyKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get deliverable by key: %w", err)
	}
	return &d, nil
}

// Deliverables returns the job's submission history, oldest first.
func (s *Storage) Deliverables(ctx context.Context, jobID string) ([]domain.Deliverable, error) {
	query := `SELECT ` + deliverableColumns + ` FROM deliverables WHERE job_id = $1 ORDER BY version ASC`

	var out []domain.Deliverable
	if err := s.db.SelectContext(ctx, &out, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to list deliverables: %w", err)
	}
	return out, nil
}

// LatestDeliverable returns the newest submission for a job, or nil.
func (s *Storage) LatestDeliverable(ctx context.Context, jobID string) (*domain.Deliverable, error) {
	query := `SELECT ` + deliverableColumns + ` FROM deliverables WHERE job_id = $1 ORDER BY version DESC LIMIT 1`

	var d domain.Deliverable
	if err := s.db.GetContext(ctx, &d, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest deliverable: %w", err)
	}
	return &d, nil
}
