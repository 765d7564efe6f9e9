package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
	"github.com/studioops/fulfillment-be/internal/pipeline/service"
)

func TestRecordReview_OverallScoreIsServerComputed(t *testing.T) {
	f := newFixture(t)
	job := f.startedJob(t, "creator-1")
	d := f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/v1.png")

	review := f.review(t, d.DeliverableID, domain.ReviewDecisionPassed,
		domain.Scores{Technical: 90, Creative: 85, Adherence: 88})

	assert.InDelta(t, 87.67, review.OverallScore, 0.0001)
	assert.Equal(t, 90.0, review.TechnicalScore)
	assert.Equal(t, 85.0, review.CreativeScore)
	assert.Equal(t, 88.0, review.AdherenceScore)
}

func TestRecordReview_DecisionCommitsJobTransition(t *testing.T) {
	tests := []struct {
		decision   domain.ReviewDecision
		wantStatus domain.JobStatus
	}{
		{domain.ReviewDecisionPassed, domain.JobStatusApproved},
		{domain.ReviewDecisionNeedsRevision, domain.JobStatusRevisionRequested},
		{domain.ReviewDecisionFailed, domain.JobStatusRejected},
	}

	for _, tt := range tests {
		t.Run(string(tt.decision), func(t *testing.T) {
			f := newFixture(t)
			job := f.startedJob(t, "creator-1")
			d := f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/v1.png")

			f.review(t, d.DeliverableID, tt.decision, domain.Scores{Technical: 80, Creative: 80, Adherence: 80})
			assert.Equal(t, tt.wantStatus, f.jobStatus(t, job.JobID))
		})
	}
}

func TestRecordReview_Guards(t *testing.T) {
	t.Run("second review is rejected", func(t *testing.T) {
		f := newFixture(t)
		job := f.startedJob(t, "creator-1")
		d := f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/v1.png")
		f.review(t, d.DeliverableID, domain.ReviewDecisionNeedsRevision, domain.Scores{Technical: 60, Creative: 60, Adherence: 60})

		_, err := f.svc.RecordReview(f.ctx, d.DeliverableID, service.ReviewParams{
			ReviewerID: "reviewer-2",
			Scores:     domain.Scores{Technical: 90, Creative: 90, Adherence: 90},
			Decision:   domain.ReviewDecisionPassed,
		})
		assert.ErrorIs(t, err, domain.ErrAlreadyReviewed)

		// The first verdict stands.
		assert.Equal(t, domain.JobStatusRevisionRequested, f.jobStatus(t, job.JobID))
	})

	t.Run("superseded deliverable cannot be reviewed", func(t *testing.T) {
		f := newFixture(t)
		job := f.startedJob(t, "creator-1")
		v1 := f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/v1.png")
		f.review(t, v1.DeliverableID, domain.ReviewDecisionNeedsRevision, domain.Scores{Technical: 60, Creative: 60, Adherence: 60})
		v2 := f.submit(t, job.JobID, "creator-1", "key-2", "https://cdn.example.com/v2.png")

		// v1 already carries a review; that guard fires before the latest check.
		_, err := f.svc.RecordReview(f.ctx, v1.DeliverableID, service.ReviewParams{
			ReviewerID: "reviewer-1",
			Scores:     domain.Scores{Technical: 90, Creative: 90, Adherence: 90},
			Decision:   domain.ReviewDecisionPassed,
		})
		assert.ErrorIs(t, err, domain.ErrAlreadyReviewed)

		// v2 remains reviewable.
		f.review(t, v2.DeliverableID, domain.ReviewDecisionPassed, domain.Scores{Technical: 90, Creative: 90, Adherence: 90})
		assert.Equal(t, domain.JobStatusApproved, f.jobStatus(t, job.JobID))
	})

	t.Run("out of range scores", func(t *testing.T) {
		f := newFixture(t)
		job := f.startedJob(t, "creator-1")
		d := f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/v1.png")

		_, err := f.svc.RecordReview(f.ctx, d.DeliverableID, service.ReviewParams{
			ReviewerID: "reviewer-1",
			Scores:     domain.Scores{Technical: 101, Creative: 90, Adherence: 90},
			Decision:   domain.ReviewDecisionPassed,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of range")
	})

	t.Run("unknown decision", func(t *testing.T) {
		f := newFixture(t)
		job := f.startedJob(t, "creator-1")
		d := f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/v1.png")

		_, err := f.svc.RecordReview(f.ctx, d.DeliverableID, service.ReviewParams{
			ReviewerID: "reviewer-1",
			Scores:     domain.Scores{Technical: 90, Creative: 90, Adherence: 90},
			Decision:   domain.ReviewDecision("maybe"),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown review decision")
	})

	t.Run("unknown deliverable", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.RecordReview(f.ctx, "missing", service.ReviewParams{
			ReviewerID: "reviewer-1",
			Scores:     domain.Scores{Technical: 90, Creative: 90, Adherence: 90},
			Decision:   domain.ReviewDecisionPassed,
		})
		assert.ErrorIs(t, err, domain.ErrDeliverableNotFound)
	})
}

func TestRecordReview_FailedDecisionCreatesNoPayment(t *testing.T) {
	f := newFixture(t)
	job := f.startedJob(t, "creator-1")
	d := f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/v1.png")

	f.review(t, d.DeliverableID, domain.ReviewDecisionFailed, domain.Scores{Technical: 20, Creative: 25, Adherence: 30})

	assert.Equal(t, domain.JobStatusRejected, f.jobStatus(t, job.JobID))

	payments, err := f.svc.Payments(f.ctx, job.JobID)
	require.NoError(t, err)
	assert.Empty(t, payments)
	assert.Equal(t, 0, f.events.count())
}
