package service

import (
	"context"
	"math"

	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
)

// JobView is the dashboard read model for one job. Every field is derived on
// demand from the ledgers; nothing here is stored redundantly.
type JobView struct {
	Job               *domain.Job           `json:"job"`
	ProgressPercent   int                   `json:"progress_percent"`
	DaysUntilDeadline int                   `json:"days_until_deadline"`
	Urgency           domain.UrgencyTier    `json:"urgency"`
	Assignment        *domain.Assignment    `json:"assignment,omitempty"`
	LatestReview      *ReviewSummary        `json:"latest_review,omitempty"`
	PaymentStatus     *domain.PaymentStatus `json:"payment_status,omitempty"`
}

// ReviewSummary is the condensed review shape dashboards render.
type ReviewSummary struct {
	ReviewID     string                `json:"review_id"`
	Version      int                   `json:"version"`
	OverallScore float64               `json:"overall_score"`
	Decision     domain.ReviewDecision `json:"decision"`
	Feedback     string                `json:"feedback,omitempty"`
}

// CreatorStats aggregates a creator's track record across completed work.
type CreatorStats struct {
	CreatorID         string  `json:"creator_id"`
	ReviewCount       int     `json:"review_count"`
	AverageScore      float64 `json:"average_score"`
	PassRate          float64 `json:"pass_rate"`
	TotalEarned       float64 `json:"total_earned"`
	CompletedPayments int     `json:"completed_payments"`
}

// JobView assembles the read model for one job.
func (s *Service) JobView(ctx context.Context, jobID string) (*JobView, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	view := &JobView{
		Job:               job,
		ProgressPercent:   job.Status.ProgressPercent(),
		DaysUntilDeadline: job.DaysUntilDeadline(now),
		Urgency:           job.Urgency(now),
	}

	if assignment, err := s.store.ActiveAssignment(ctx, jobID); err != nil {
		return nil, err
	} else if assignment != nil {
		view.Assignment = assignment
	}

	review, err := s.store.LatestReviewForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if review != nil {
		deliverable, err := s.store.GetDeliverable(ctx, review.DeliverableID)
		if err != nil {
			return nil, err
		}
		view.LatestReview = &ReviewSummary{
			ReviewID:     review.ReviewID,
			Version:      deliverable.Version,
			OverallScore: review.OverallScore,
			Decision:     review.Decision,
			Feedback:     review.Feedback,
		}
	}

	payments, err := s.store.PaymentsForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if len(payments) > 0 {
		// Newest record is authoritative; failed history stays behind it.
		status := payments[len(payments)-1].Status
		view.PaymentStatus = &status
	}

	return view, nil
}

// CreatorStats aggregates review scores, pass rate and total earnings for one
// creator from the ledgers.
func (s *Service) CreatorStats(ctx context.Context, creatorID string) (*CreatorStats, error) {
	reviews, err := s.store.ReviewsForCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	stats := &CreatorStats{CreatorID: creatorID}

	var scoreSum float64
	var passed int
	for _, r := range reviews {
		scoreSum += r.OverallScore
		if r.Decision == domain.ReviewDecisionPassed {
			passed++
		}
	}
	stats.ReviewCount = len(reviews)
	if len(reviews) > 0 {
		stats.AverageScore = math.Round(scoreSum/float64(len(reviews))*100) / 100
		stats.PassRate = math.Round(float64(passed)/float64(len(reviews))*10000) / 10000
	}

	payments, err := s.store.CompletedPaymentsForCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		stats.TotalEarned += p.Amount
	}
	stats.CompletedPayments = len(payments)

	return stats, nil
}
