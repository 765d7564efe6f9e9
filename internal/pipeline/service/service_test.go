package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
	"github.com/studioops/fulfillment-be/internal/pipeline/service"
	"github.com/studioops/fulfillment-be/internal/pipeline/service/servicetest"
)

// capturePublisher records published event bodies instead of talking to a broker.
type capturePublisher struct {
	mu     sync.Mutex
	events [][]byte
}

func (p *capturePublisher) PublishWithRetry(_ context.Context, body []byte, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, body)
	return nil
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fixture struct {
	ctx    context.Context
	store  *servicetest.MemStore
	events *capturePublisher
	svc    *service.Service
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:    context.Background(),
		store:  servicetest.NewMemStore(),
		events: &capturePublisher{},
		now:    time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	f.svc = service.NewService(&service.Config{
		Store:  f.store,
		Events: f.events,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) createJob(t *testing.T, creatorID string) *domain.Job {
	t.Helper()

	job, err := f.svc.CreateJob(f.ctx, service.CreateJobParams{
		ProjectID:      "proj-1",
		ProducerID:     "producer-1",
		Title:          "Character concept art",
		Category:       "illustration",
		BudgetAmount:   2500,
		BudgetCurrency: "USD",
		EstimatedHours: 40,
		DeadlineDate:   f.now.Add(10 * 24 * time.Hour),
		CreatorID:      creatorID,
		Role:           "illustrator",
	})
	require.NoError(t, err)
	return job
}

func (f *fixture) startedJob(t *testing.T, creatorID string) *domain.Job {
	t.Helper()

	job := f.createJob(t, creatorID)
	started, err := f.svc.StartJob(f.ctx, job.JobID, creatorID)
	require.NoError(t, err)
	return started
}

func (f *fixture) submit(t *testing.T, jobID, creatorID, key, fileURL string) *domain.Deliverable {
	t.Helper()

	d, err := f.svc.SubmitDeliverable(f.ctx, jobID, creatorID, key, domain.Artifact{
		FileURL:  fileURL,
		FileType: "png",
	})
	require.NoError(t, err)
	return d
}

func (f *fixture) review(t *testing.T, deliverableID string, decision domain.ReviewDecision, scores domain.Scores) *domain.QualityReview {
	t.Helper()

	review, err := f.svc.RecordReview(f.ctx, deliverableID, service.ReviewParams{
		ReviewerID: "reviewer-1",
		Scores:     scores,
		Decision:   decision,
	})
	require.NoError(t, err)
	return review
}

func (f *fixture) jobStatus(t *testing.T, jobID string) domain.JobStatus {
	t.Helper()

	job, err := f.svc.GetJob(f.ctx, jobID)
	require.NoError(t, err)
	return job.Status
}

// TestFulfillmentLifecycle walks one job through the whole pipeline: revision
// loop, approval, payment and settlement.
func TestFulfillmentLifecycle(t *testing.T) {
	f := newFixture(t)

	job := f.createJob(t, "creator-1")
	assert.Equal(t, domain.JobStatusAssigned, job.Status)
	assert.Equal(t, 10, job.Status.ProgressPercent())

	started, err := f.svc.StartJob(f.ctx, job.JobID, "creator-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusInProgress, started.Status)
	require.NotNil(t, started.StartedAt)

	// First submission.
	v1 := f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/art-v1.png")
	assert.Equal(t, 1, v1.Version)
	assert.Equal(t, domain.JobStatusSubmitted, f.jobStatus(t, job.JobID))

	// Reviewer asks for a revision.
	r1 := f.review(t, v1.DeliverableID, domain.ReviewDecisionNeedsRevision,
		domain.Scores{Technical: 90, Creative: 85, Adherence: 88})
	assert.InDelta(t, 87.67, r1.OverallScore, 0.0001)
	assert.Equal(t, domain.JobStatusRevisionRequested, f.jobStatus(t, job.JobID))
	assert.Equal(t, 0, f.events.count())

	// Second submission loops the job back through in_progress.
	v2 := f.submit(t, job.JobID, "creator-1", "key-2", "https://cdn.example.com/art-v2.png")
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, domain.JobStatusSubmitted, f.jobStatus(t, job.JobID))

	// Passing review approves the job and creates exactly one payment.
	r2 := f.review(t, v2.DeliverableID, domain.ReviewDecisionPassed,
		domain.Scores{Technical: 95, Creative: 92, Adherence: 94})
	assert.Equal(t, domain.ReviewDecisionPassed, r2.Decision)
	assert.Equal(t, domain.JobStatusApproved, f.jobStatus(t, job.JobID))

	payments, err := f.svc.Payments(f.ctx, job.JobID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentStatusPending, payments[0].Status)
	assert.Equal(t, 2500.0, payments[0].Amount)
	assert.Equal(t, "USD", payments[0].Currency)
	assert.Equal(t, "creator-1", payments[0].CreatorID)
	assert.Equal(t, 1, f.events.count())

	// Settlement completes the payment and the job.
	err = f.svc.ApplySettlement(f.ctx, service.SettlementReport{
		PaymentID:     payments[0].PaymentID,
		JobID:         job.JobID,
		Status:        "completed",
		TransactionID: "txn-001",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusCompleted, f.jobStatus(t, job.JobID))

	payments, err = f.svc.Payments(f.ctx, job.JobID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentStatusCompleted, payments[0].Status)
	assert.Equal(t, "txn-001", payments[0].TransactionID)
	require.NotNil(t, payments[0].PaidAt)
}

func TestStartJob_Guards(t *testing.T) {
	t.Run("only the assignee may start", func(t *testing.T) {
		f := newFixture(t)
		job := f.createJob(t, "creator-1")

		_, err := f.svc.StartJob(f.ctx, job.JobID, "creator-2")
		assert.ErrorIs(t, err, domain.ErrNotAssignee)
	})

	t.Run("unassigned job cannot start", func(t *testing.T) {
		f := newFixture(t)
		job := f.createJob(t, "")

		_, err := f.svc.StartJob(f.ctx, job.JobID, "creator-1")
		assert.ErrorIs(t, err, domain.ErrNoActiveAssignment)
	})

	t.Run("starting twice is an invalid transition", func(t *testing.T) {
		f := newFixture(t)
		job := f.startedJob(t, "creator-1")

		_, err := f.svc.StartJob(f.ctx, job.JobID, "creator-1")
		var transitionErr *domain.InvalidTransitionError
		require.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, domain.JobStatusInProgress, transitionErr.From)
	})

	t.Run("unknown job", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.StartJob(f.ctx, "missing", "creator-1")
		assert.ErrorIs(t, err, domain.ErrJobNotFound)
	})
}

func TestCreateJob_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		mutate  func(p *service.CreateJobParams)
		wantErr string
	}{
		{"empty title", func(p *service.CreateJobParams) { p.Title = "  " }, "title is required"},
		{"zero budget", func(p *service.CreateJobParams) { p.BudgetAmount = 0 }, "budget amount must be positive"},
		{"negative budget", func(p *service.CreateJobParams) { p.BudgetAmount = -10 }, "budget amount must be positive"},
		{"missing currency", func(p *service.CreateJobParams) { p.BudgetCurrency = "" }, "budget currency is required"},
		{"missing deadline", func(p *service.CreateJobParams) { p.DeadlineDate = time.Time{} }, "deadline date is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := service.CreateJobParams{
				ProjectID:      "proj-1",
				Title:          "Storyboard",
				BudgetAmount:   1000,
				BudgetCurrency: "USD",
				DeadlineDate:   f.now.Add(72 * time.Hour),
			}
			tt.mutate(&params)

			_, err := f.svc.CreateJob(f.ctx, params)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssignCreator(t *testing.T) {
	t.Run("same creator is idempotent", func(t *testing.T) {
		f := newFixture(t)
		job := f.createJob(t, "creator-1")

		first, err := f.svc.AssignCreator(f.ctx, job.JobID, "creator-1", "illustrator", "")
		require.NoError(t, err)
		second, err := f.svc.AssignCreator(f.ctx, job.JobID, "creator-1", "illustrator", "")
		require.NoError(t, err)
		assert.Equal(t, first.AssignmentID, second.AssignmentID)
	})

	t.Run("reassignment retires the old assignment", func(t *testing.T) {
		f := newFixture(t)
		job := f.createJob(t, "creator-1")

		a2, err := f.svc.AssignCreator(f.ctx, job.JobID, "creator-2", "illustrator", "")
		require.NoError(t, err)
		assert.Equal(t, "creator-2", a2.CreatorID)

		// The old assignee lost their claim on the job.
		_, err = f.svc.StartJob(f.ctx, job.JobID, "creator-1")
		assert.ErrorIs(t, err, domain.ErrNotAssignee)

		_, err = f.svc.StartJob(f.ctx, job.JobID, "creator-2")
		require.NoError(t, err)
	})

	t.Run("reassignment blocked while a review must resolve", func(t *testing.T) {
		f := newFixture(t)
		job := f.startedJob(t, "creator-1")
		f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/a.png")

		_, err := f.svc.AssignCreator(f.ctx, job.JobID, "creator-2", "illustrator", "")
		assert.ErrorIs(t, err, domain.ErrJobNotReassignable)
	})

	t.Run("reassignment blocked on terminal jobs", func(t *testing.T) {
		f := newFixture(t)
		job := f.startedJob(t, "creator-1")
		d := f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/a.png")
		f.review(t, d.DeliverableID, domain.ReviewDecisionFailed, domain.Scores{Technical: 20, Creative: 30, Adherence: 25})

		_, err := f.svc.AssignCreator(f.ctx, job.JobID, "creator-2", "illustrator", "")
		assert.ErrorIs(t, err, domain.ErrJobNotReassignable)
	})
}

func TestArchiveJob(t *testing.T) {
	f := newFixture(t)
	job := f.createJob(t, "creator-1")

	require.NoError(t, f.svc.ArchiveJob(f.ctx, job.JobID))
	// Archiving again is a no-op.
	require.NoError(t, f.svc.ArchiveJob(f.ctx, job.JobID))

	// Archived jobs refuse mutations but stay readable.
	_, err := f.svc.StartJob(f.ctx, job.JobID, "creator-1")
	assert.ErrorIs(t, err, domain.ErrJobArchived)

	_, err = f.svc.AssignCreator(f.ctx, job.JobID, "creator-2", "", "")
	assert.ErrorIs(t, err, domain.ErrJobArchived)

	got, err := f.svc.GetJob(f.ctx, job.JobID)
	require.NoError(t, err)
	assert.True(t, got.Archived())
}

func TestListJobs(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		f.now = f.now.Add(time.Minute)
		f.createJob(t, "creator-1")
	}

	jobs, err := f.svc.ListJobs(f.ctx, service.JobFilter{CreatorID: "creator-1", PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, jobs, 3)

	// Newest first.
	for i := 1; i < len(jobs); i++ {
		assert.False(t, jobs[i].CreatedAt.After(jobs[i-1].CreatedAt))
	}

	jobs, err = f.svc.ListJobs(f.ctx, service.JobFilter{CreatorID: "creator-9", PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, jobs)

	jobs, err = f.svc.ListJobs(f.ctx, service.JobFilter{Status: "assigned", PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, jobs, 3)

	// Page size + 1 rows signal another page.
	jobs, err = f.svc.ListJobs(f.ctx, service.JobFilter{PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, jobs, 3)

	cursor := &service.JobCursor{CreatedAt: jobs[1].CreatedAt, JobID: jobs[1].JobID}
	rest, err := f.svc.ListJobs(f.ctx, service.JobFilter{PageSize: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, jobs[2].JobID, rest[0].JobID)
}
