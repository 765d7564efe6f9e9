package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
)

// FeedbackParams is the input for opening a feedback item against a job.
type FeedbackParams struct {
	AuthorID      string
	DeliverableID string
	Priority      domain.FeedbackPriority
	Type          domain.FeedbackType
	Message       string
}

// PostFeedback opens a feedback item on a job. Feedback has its own lifecycle
// and never transitions the job.
func (s *Service) PostFeedback(ctx context.Context, jobID string, params FeedbackParams) (*domain.FeedbackItem, error) {
	if params.Message == "" {
		return nil, fmt.Errorf("feedback message is required")
	}
	if _, err := domain.ParseFeedbackPriority(string(params.Priority)); err != nil {
		return nil, err
	}
	if _, err := domain.ParseFeedbackType(string(params.Type)); err != nil {
		return nil, err
	}

	job, err := s.mutableJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if params.DeliverableID != "" {
		deliverable, err := s.store.GetDeliverable(ctx, params.DeliverableID)
		if err != nil {
			return nil, err
		}
		if deliverable.JobID != job.JobID {
			return nil, fmt.Errorf("deliverable %s does not belong to job %s", params.DeliverableID, jobID)
		}
	}

	now := s.now()
	item := &domain.FeedbackItem{
		FeedbackID:    uuid.New().String(),
		JobID:         jobID,
		DeliverableID: params.DeliverableID,
		AuthorID:      params.AuthorID,
		Priority:      params.Priority,
		Type:          params.Type,
		Message:       params.Message,
		Status:        domain.FeedbackStatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateFeedback(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}

	s.logger.Info("Feedback posted",
		slog.String("job_id", jobID),
		slog.String("feedback_id", item.FeedbackID),
		slog.String("priority", string(item.Priority)),
		slog.String("type", string(item.Type)),
	)

	return item, nil
}

// UpdateFeedbackStatus advances a feedback item along its lifecycle. Valid
// paths are open -> acknowledged -> resolved and open -> resolved; resolved
// items stay resolved, a new item is opened instead of reopening.
func (s *Service) UpdateFeedbackStatus(ctx context.Context, feedbackID, actorID string, newStatus domain.FeedbackStatus) (*domain.FeedbackItem, error) {
	if _, err := domain.ParseFeedbackStatus(string(newStatus)); err != nil {
		return nil, err
	}

	item, err := s.store.GetFeedback(ctx, feedbackID)
	if err != nil {
		return nil, err
	}

	if err := domain.CheckFeedbackTransition(item.Status, newStatus); err != nil {
		return nil, err
	}

	now := s.now()
	from := item.Status
	item.Status = newStatus
	item.UpdatedAt = now
	if newStatus == domain.FeedbackStatusResolved {
		item.ResolvedAt = &now
	}

	if err := s.store.UpdateFeedbackStatus(ctx, feedbackID, from, newStatus, item.ResolvedAt, now); err != nil {
		return nil, err
	}

	s.logger.Info("Feedback status updated",
		slog.String("feedback_id", feedbackID),
		slog.String("actor_id", actorID),
		slog.String("from", string(from)),
		slog.String("to", string(newStatus)),
	)

	return item, nil
}

// Feedback returns every feedback item on a job, oldest first.
func (s *Service) Feedback(ctx context.Context, jobID string) ([]domain.FeedbackItem, error) {
	if _, err := s.store.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return s.store.FeedbackForJob(ctx, jobID)
}
