package service_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
)

func TestSubmitDeliverable_VersionsAreMonotonic(t *testing.T) {
	f := newFixture(t)
	job := f.startedJob(t, "creator-1")

	v1 := f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/v1.png")
	f.review(t, v1.DeliverableID, domain.ReviewDecisionNeedsRevision, domain.Scores{Technical: 60, Creative: 60, Adherence: 60})

	v2 := f.submit(t, job.JobID, "creator-1", "key-2", "https://cdn.example.com/v2.png")
	f.review(t, v2.DeliverableID, domain.ReviewDecisionNeedsRevision, domain.Scores{Technical: 70, Creative: 70, Adherence: 70})

	v3 := f.submit(t, job.JobID, "creator-1", "key-3", "https://cdn.example.com/v3.png")

	assert.Equal(t, []int{1, 2, 3}, []int{v1.Version, v2.Version, v3.Version})

	history, err := f.svc.Deliverables(f.ctx, job.JobID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, d := range history {
		assert.Equal(t, i+1, d.Version)
	}
}

func TestSubmitDeliverable_Guards(t *testing.T) {
	t.Run("job not accepting submissions", func(t *testing.T) {
		f := newFixture(t)
		job := f.createJob(t, "creator-1")

		_, err := f.svc.SubmitDeliverable(f.ctx, job.JobID, "creator-1", "key-1",
			domain.Artifact{FileURL: "https://cdn.example.com/v1.png"})
		assert.ErrorIs(t, err, domain.ErrJobNotAcceptingSubmissions)
	})

	t.Run("unreviewed submission blocks the next one", func(t *testing.T) {
		f := newFixture(t)
		job := f.startedJob(t, "creator-1")
		f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/v1.png")

		_, err := f.svc.SubmitDeliverable(f.ctx, job.JobID, "creator-1", "key-2",
			domain.Artifact{FileURL: "https://cdn.example.com/v2.png"})
		assert.ErrorIs(t, err, domain.ErrOutstandingReviewPending)
	})

	t.Run("reviewed but unsettled job refuses submissions generically", func(t *testing.T) {
		f := newFixture(t)
		job := f.startedJob(t, "creator-1")
		d := f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/v1.png")
		f.review(t, d.DeliverableID, domain.ReviewDecisionPassed, domain.Scores{Technical: 90, Creative: 90, Adherence: 90})

		_, err := f.svc.SubmitDeliverable(f.ctx, job.JobID, "creator-1", "key-2",
			domain.Artifact{FileURL: "https://cdn.example.com/v2.png"})
		assert.ErrorIs(t, err, domain.ErrJobNotAcceptingSubmissions)
	})

	t.Run("only the assignee may submit", func(t *testing.T) {
		f := newFixture(t)
		job := f.startedJob(t, "creator-1")

		_, err := f.svc.SubmitDeliverable(f.ctx, job.JobID, "creator-2", "key-1",
			domain.Artifact{FileURL: "https://cdn.example.com/v1.png"})
		assert.ErrorIs(t, err, domain.ErrNotAssignee)
	})

	t.Run("missing file url", func(t *testing.T) {
		f := newFixture(t)
		job := f.startedJob(t, "creator-1")

		_, err := f.svc.SubmitDeliverable(f.ctx, job.JobID, "creator-1", "key-1", domain.Artifact{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "file url is required")
	})

	t.Run("outstanding review blocks a new submission", func(t *testing.T) {
		f := newFixture(t)
		job := f.startedJob(t, "creator-1")
		f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/v1.png")

		// Force the job back to in_progress without resolving the review, the
		// shape a lost review write would leave behind.
		require.NoError(t, f.store.UpdateJobStatus(f.ctx, job.JobID,
			domain.JobStatusSubmitted, domain.JobStatusInProgress, nil, f.now))

		_, err := f.svc.SubmitDeliverable(f.ctx, job.JobID, "creator-1", "key-2",
			domain.Artifact{FileURL: "https://cdn.example.com/v2.png"})
		assert.ErrorIs(t, err, domain.ErrOutstandingReviewPending)
	})
}

func TestSubmitDeliverable_Idempotency(t *testing.T) {
	t.Run("same key and artifact returns the original", func(t *testing.T) {
		f := newFixture(t)
		job := f.startedJob(t, "creator-1")

		first := f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/v1.png")
		retry := f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/v1.png")

		assert.Equal(t, first.DeliverableID, retry.DeliverableID)
		assert.Equal(t, first.Version, retry.Version)

		history, err := f.svc.Deliverables(f.ctx, job.JobID)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("same key with a different artifact is rejected", func(t *testing.T) {
		f := newFixture(t)
		job := f.startedJob(t, "creator-1")
		f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/v1.png")

		_, err := f.svc.SubmitDeliverable(f.ctx, job.JobID, "creator-1", "key-1",
			domain.Artifact{FileURL: "https://cdn.example.com/other.png"})
		assert.ErrorIs(t, err, domain.ErrDuplicateSubmission)
	})

	t.Run("replay by a non-assignee is refused", func(t *testing.T) {
		f := newFixture(t)
		job := f.startedJob(t, "creator-1")
		f.submit(t, job.JobID, "creator-1", "key-1", "https://cdn.example.com/v1.png")

		_, err := f.svc.SubmitDeliverable(f.ctx, job.JobID, "creator-2", "key-1",
			domain.Artifact{FileURL: "https://cdn.example.com/v1.png"})
		assert.ErrorIs(t, err, domain.ErrNotAssignee)
	})

	t.Run("empty key gets a generated one", func(t *testing.T) {
		f := newFixture(t)
		job := f.startedJob(t, "creator-1")

		d := f.submit(t, job.JobID, "creator-1", "", "https://cdn.example.com/v1.png")
		assert.Equal(t, 1, d.Version)
	})
}

func TestSubmitDeliverable_ConcurrentSubmissions(t *testing.T) {
	f := newFixture(t)
	job := f.startedJob(t, "creator-1")

	const attempts = 8

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.SubmitDeliverable(f.ctx, job.JobID, "creator-1",
				fmt.Sprintf("key-%d", i), domain.Artifact{FileURL: "https://cdn.example.com/race.png"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrOutstandingReviewPending)
		}
	}
	assert.Equal(t, 1, succeeded)

	history, err := f.svc.Deliverables(f.ctx, job.JobID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, domain.JobStatusSubmitted, f.jobStatus(t, job.JobID))
}
