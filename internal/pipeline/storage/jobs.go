package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
	"github.com/studioops/fulfillment-be/internal/pipeline/service"
)

// CreateJob inserts a new job record.
func (s *Storage) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (
			job_id, project_id, title, category,
			budget_amount, budget_currency, estimated_hours, deadline_date,
			status, created_at, updated_at
		) VALUES (
			:job_id, :project_id, :title, :category,
			:budget_amount, :budget_currency, :estimated_hours, :deadline_date,
			:status, :created_at, :updated_at
		)
	`

	if _, err := s.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by id.
func (s *Storage) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
		SELECT
			job_id, project_id, title, category,
			budget_amount, budget_currency, estimated_hours, deadline_date,
			status, started_at, archived_at, created_at, updated_at
		FROM jobs
		WHERE job_id = $1
	`

	var job domain.Job
	if err := s.db.GetContext(ctx, &job, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// ListJobs retrieves jobs matching the filter, newest first, with cursor
// pagination over (created_at, job_id).
func (s *Storage) ListJobs(ctx context.Context, filter service.JobFilter) ([]domain.Job, error) {
	query := `
		SELECT
			jobs.job_id, project_id, title, category,
			budget_amount, budget_currency, estimated_hours, deadline_date,
			jobs.status, started_at, archived_at, jobs.created_at, jobs.updated_at
		FROM jobs
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.ProjectID != "" {
		query += fmt.Sprintf(" AND project_id = $%d", argIdx)
		args = append(args, filter.ProjectID)
		argIdx++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND jobs.status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.CreatorID != "" {
		query += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM assignments a
			WHERE a.job_id = jobs.job_id AND a.creator_id = $%d AND a.status = 'active'
		)`, argIdx)
		args = append(args, filter.CreatorID)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (jobs.created_at, jobs.job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	query += " ORDER BY jobs.created_at DESC, jobs.job_id DESC"

	// One extra row tells the caller whether more results exist.
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// UpdateJobStatus commits a status transition with a compare-and-swap on the
// current status. A concurrent change surfaces as domain.ErrStatusConflict.
func (s *Storage) UpdateJobStatus(ctx context.Context, jobID string, from, to domain.JobStatus, startedAt *time.Time, now time.Time) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    started_at = COALESCE($2, started_at),
		    updated_at = $3
		WHERE job_id = $4
		  AND status = $5
		  AND archived_at IS NULL
	`

	result, err := s.db.ExecContext(ctx, query, to, startedAt, now, jobID, from)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := s.GetJob(ctx, jobID); err != nil {
			return err
		}
		return fmt.Errorf("%w: expected %s", domain.ErrStatusConflict, from)
	}
	return nil
}

// ArchiveJob stamps archived_at. Archival is soft; job rows are never deleted.
func (s *Storage) ArchiveJob(ctx context.Context, jobID string, at time.Time) error {
	query := `
		UPDATE jobs
		SET archived_at = $1,
		    updated_at = $1
		WHERE job_id = $2
		  AND archived_at IS NULL
	`

	if _, err := s.db.ExecContext(ctx, query, at, jobID); err != nil {
		return fmt.Errorf("failed to archive job: %w", err)
	}
	return nil
}
