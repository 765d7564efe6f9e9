package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
)

// ReviewParams is the reviewer-facing input for recording a quality review.
type ReviewParams struct {
	ReviewerID string
	Scores     domain.Scores
	Checklist  map[string]bool
	Feedback   string
	Decision   domain.ReviewDecision
}

// RecordReview records the single quality review of a deliverable and commits
// the job transition the decision maps to. The overall score is always
// recomputed from the three component scores; it is never client-supplied.
//
// Opening the review takes the job through in_review; because a review is
// recorded together with its decision, the submitted -> in_review and
// in_review -> outcome edges commit in one atomic operation.
func (s *Service) RecordReview(ctx context.Context, deliverableID string, params ReviewParams) (*domain.QualityReview, error) {
	if err := params.Scores.Validate(); err != nil {
		return nil, err
	}
	target := params.Decision.JobTransition()
	if _, err := domain.ParseReviewDecision(string(params.Decision)); err != nil {
		return nil, err
	}

	deliverable, err := s.store.GetDeliverable(ctx, deliverableID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockJob(deliverable.JobID)
	defer unlock()

	job, err := s.mutableJob(ctx, deliverable.JobID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.store.ReviewForDeliverable(ctx, deliverableID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: deliverable %s", domain.ErrAlreadyReviewed, deliverableID)
	}

	// The review must target the submission driving the current cycle.
	latest, err := s.store.LatestDeliverable(ctx, deliverable.JobID)
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.DeliverableID != deliverableID {
		return nil, fmt.Errorf("%w: deliverable %s is not the latest submission", domain.ErrAlreadyReviewed, deliverableID)
	}

	if err := domain.CheckTransition(job.Status, domain.JobStatusInReview); err != nil {
		return nil, err
	}
	if err := domain.CheckTransition(domain.JobStatusInReview, target); err != nil {
		return nil, err
	}

	now := s.now()
	review := &domain.QualityReview{
		ReviewID:       uuid.New().String(),
		DeliverableID:  deliverableID,
		JobID:          deliverable.JobID,
		ReviewerID:     params.ReviewerID,
		TechnicalScore: params.Scores.Technical,
		CreativeScore:  params.Scores.Creative,
		AdherenceScore: params.Scores.Adherence,
		OverallScore:   params.Scores.Overall(),
		Checklist:      params.Checklist,
		Feedback:       params.Feedback,
		Decision:       params.Decision,
		CreatedAt:      now,
	}

	if err := s.store.CreateReview(ctx, review, job.Status, target, now); err != nil {
		return nil, err
	}

	s.logger.Info("Review recorded",
		slog.String("job_id", deliverable.JobID),
		slog.String("deliverable_id", deliverableID),
		slog.String("decision", string(params.Decision)),
		slog.Float64("overall_score", review.OverallScore),
	)

	if params.Decision == domain.ReviewDecisionPassed {
		if err := s.createPayment(ctx, job); err != nil {
			return nil, err
		}
	}

	return review, nil
}
