package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
)

// SubmitDeliverable appends the next version to the job's deliverable ledger
// and commits the job transition to submitted in the same operation. A retry
// carrying the same idempotency key returns the original deliverable.
func (s *Service) SubmitDeliverable(ctx context.Context, jobID, creatorID, idempotencyKey string, artifact domain.Artifact) (*domain.Deliverable, error) {
	if artifact.FileURL == "" {
		return nil, fmt.Errorf("artifact file url is required")
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.New().String()
	}

	unlock := s.lockJob(jobID)
	defer unlock()

	job, err := s.mutableJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if err := s.requireAssignee(ctx, jobID, creatorID); err != nil {
		return nil, err
	}

	// Idempotent retry: same key, same artifact -> the original submission.
	if existing, err := s.store.DeliverableByKey(ctx, jobID, idempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		if existing.FileURL != artifact.FileURL {
			return nil, fmt.Errorf("%w: idempotency key reused with a different artifact", domain.ErrDuplicateSubmission)
		}
		s.logger.Info("Duplicate submission deduplicated",
			slog.String("job_id", jobID),
			slog.String("deliverable_id", existing.DeliverableID),
			slog.Int("version", existing.Version),
		)
		return existing, nil
	}

	now := s.now()

	// A submission out of revision_requested first loops the job back to
	// in_progress, then follows the normal in_progress -> submitted edge.
	if job.Status == domain.JobStatusRevisionRequested {
		if err := s.store.UpdateJobStatus(ctx, jobID, job.Status, domain.JobStatusInProgress, nil, now); err != nil {
			return nil, err
		}
		job.Status = domain.JobStatusInProgress
	}

	if !job.AcceptsSubmissions() {
		// A job parked in review with an unreviewed version names that
		// condition; every other refusal is the generic one.
		if job.Status == domain.JobStatusSubmitted || job.Status == domain.JobStatusInReview {
			if err := s.checkNoPendingReview(ctx, jobID); err != nil {
				return nil, err
			}
		}
		return nil, fmt.Errorf("%w: status %s", domain.ErrJobNotAcceptingSubmissions, job.Status)
	}

	// At most one deliverable may be awaiting review at a time.
	if err := s.checkNoPendingReview(ctx, jobID); err != nil {
		return nil, err
	}

	deliverable := &domain.Deliverable{
		DeliverableID:  uuid.New().String(),
		JobID:          jobID,
		CreatorID:      creatorID,
		IdempotencyKey: idempotencyKey,
		FileURL:        artifact.FileURL,
		FileType:       artifact.FileType,
		FileSizeBytes:  artifact.FileSizeBytes,
		Notes:          artifact.Notes,
		IsFinal:        artifact.IsFinal,
		CreatedAt:      now,
	}

	// Version assignment and the in_progress -> submitted commit happen
	// atomically in the store; no deliverable is ever left orphaned.
	if err := s.store.CreateDeliverable(ctx, deliverable, job.Status, now); err != nil {
		return nil, err
	}

	s.logger.Info("Deliverable submitted",
		slog.String("job_id", jobID),
		slog.String("deliverable_id", deliverable.DeliverableID),
		slog.Int("version", deliverable.Version),
		slog.Bool("is_final", deliverable.IsFinal),
	)

	return deliverable, nil
}

// checkNoPendingReview fails with ErrOutstandingReviewPending when the job's
// latest deliverable has not been reviewed yet.
func (s *Service) checkNoPendingReview(ctx context.Context, jobID string) error {
	latest, err := s.store.LatestDeliverable(ctx, jobID)
	if err != nil {
		return err
	}
	if latest == nil {
		return nil
	}
	review, err := s.store.ReviewForDeliverable(ctx, latest.DeliverableID)
	if err != nil {
		return err
	}
	if review == nil {
		return fmt.Errorf("%w: version %d", domain.ErrOutstandingReviewPending, latest.Version)
	}
	return nil
}

// Deliverables returns the job's full submission history, oldest first.
func (s *Service) Deliverables(ctx context.Context, jobID string) ([]domain.Deliverable, error) {
	if _, err := s.store.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return s.store.Deliverables(ctx, jobID)
}
