package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
)

// CreateJobParams is the producer-facing input for publishing a unit of work.
type CreateJobParams struct {
	ProjectID      string
	ProducerID     string
	Title          string
	Category       string
	BudgetAmount   float64
	BudgetCurrency string
	EstimatedHours float64
	DeadlineDate   time.Time
	// CreatorID, when set, creates the first assignment in the same call.
	CreatorID string
	Role      string
	Stage     string
}

func (p *CreateJobParams) validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if p.BudgetAmount <= 0 {
		return fmt.Errorf("budget amount must be positive, got %v", p.BudgetAmount)
	}
	if p.BudgetCurrency == "" {
		return fmt.Errorf("budget currency is required")
	}
	if p.EstimatedHours < 0 {
		return fmt.Errorf("estimated hours must be positive, got %v", p.EstimatedHours)
	}
	if p.DeadlineDate.IsZero() {
		return fmt.Errorf("deadline date is required")
	}
	return nil
}

// CreateJob publishes a unit of work against a project. The job enters the
// lifecycle in assigned; it cannot leave that state until an active assignment
// exists.
func (s *Service) CreateJob(ctx context.Context, params CreateJobParams) (*domain.Job, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	job := &domain.Job{
		JobID:          uuid.New().String(),
		ProjectID:      params.ProjectID,
		Title:          params.Title,
		Category:       params.Category,
		BudgetAmount:   params.BudgetAmount,
		BudgetCurrency: params.BudgetCurrency,
		EstimatedHours: params.EstimatedHours,
		DeadlineDate:   params.DeadlineDate,
		Status:         domain.JobStatusAssigned,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Info("Job created",
		slog.String("job_id", job.JobID),
		slog.String("project_id", job.ProjectID),
		slog.String("producer_id", params.ProducerID),
		slog.Float64("budget_amount", job.BudgetAmount),
	)

	if params.CreatorID != "" {
		if _, err := s.AssignCreator(ctx, job.JobID, params.CreatorID, params.Role, params.Stage); err != nil {
			return nil, err
		}
	}

	return job, nil
}

// GetJob returns a job by id.
func (s *Service) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.store.GetJob(ctx, jobID)
}

// ListJobs returns jobs matching the filter, newest first.
func (s *Service) ListJobs(ctx context.Context, filter JobFilter) ([]domain.Job, error) {
	return s.store.ListJobs(ctx, filter)
}

// AssignCreator binds a creator to a job. An existing active assignment is
// retired first; reassignment is rejected while a review must resolve against
// the current assignment (submitted/in_review) and in terminal states.
func (s *Service) AssignCreator(ctx context.Context, jobID, creatorID, role, stage string) (*domain.Assignment, error) {
	unlock := s.lockJob(jobID)
	defer unlock()

	job, err := s.mutableJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	current, err := s.store.ActiveAssignment(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		if current.CreatorID == creatorID {
			return current, nil
		}
		if !job.Reassignable() {
			return nil, fmt.Errorf("%w: status %s", domain.ErrJobNotReassignable, job.Status)
		}
		if err := s.store.RetireAssignment(ctx, current.AssignmentID, now); err != nil {
			return nil, fmt.Errorf("failed to retire assignment: %w", err)
		}
		s.logger.Info("Assignment retired",
			slog.String("job_id", jobID),
			slog.String("creator_id", current.CreatorID),
		)
	}

	assignment := &domain.Assignment{
		AssignmentID: uuid.New().String(),
		JobID:        jobID,
		CreatorID:    creatorID,
		Role:         role,
		Stage:        stage,
		Status:       domain.AssignmentStatusActive,
		CreatedAt:    now,
	}

	if err := s.store.CreateAssignment(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	s.logger.Info("Creator assigned",
		slog.String("job_id", jobID),
		slog.String("creator_id", creatorID),
		slog.String("role", role),
	)

	return assignment, nil
}

// StartJob moves a job from assigned to in_progress. Only the active assignee
// may trigger it; startedAt is recorded on the transition.
func (s *Service) StartJob(ctx context.Context, jobID, creatorID string) (*domain.Job, error) {
	unlock := s.lockJob(jobID)
	defer unlock()

	job, err := s.mutableJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if err := s.requireAssignee(ctx, jobID, creatorID); err != nil {
		return nil, err
	}

	if err := domain.CheckTransition(job.Status, domain.JobStatusInProgress); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.store.UpdateJobStatus(ctx, jobID, job.Status, domain.JobStatusInProgress, &now, now); err != nil {
		return nil, err
	}

	job.Status = domain.JobStatusInProgress
	job.StartedAt = &now
	job.UpdatedAt = now

	s.logger.Info("Job started",
		slog.String("job_id", jobID),
		slog.String("creator_id", creatorID),
	)

	return job, nil
}

// ArchiveJob soft-archives a job. Archived jobs refuse all further mutations
// and are never hard-deleted.
func (s *Service) ArchiveJob(ctx context.Context, jobID string) error {
	unlock := s.lockJob(jobID)
	defer unlock()

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Archived() {
		return nil
	}

	now := s.now()
	if err := s.store.ArchiveJob(ctx, jobID, now); err != nil {
		return fmt.Errorf("failed to archive job: %w", err)
	}

	s.logger.Info("Job archived", slog.String("job_id", jobID))
	return nil
}

// requireAssignee checks that creatorID holds the job's active assignment.
func (s *Service) requireAssignee(ctx context.Context, jobID, creatorID string) error {
	assignment, err := s.store.ActiveAssignment(ctx, jobID)
	if err != nil {
		return err
	}
	if assignment == nil {
		return domain.ErrNoActiveAssignment
	}
	if assignment.CreatorID != creatorID {
		return fmt.Errorf("%w: job %s", domain.ErrNotAssignee, jobID)
	}
	return nil
}
