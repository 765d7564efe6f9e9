// Package servicetest provides an in-memory Store implementation for tests.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
	"github.com/studioops/fulfillment-be/internal/pipeline/service"
)

// MemStore is an in-memory service.Store. It mirrors the database-backed
// store's semantics, including the compare-and-swap guards on status fields,
// so service behavior can be tested without PostgreSQL.
type MemStore struct {
	mu sync.Mutex

	jobs         map[string]*domain.Job
	assignments  []*domain.Assignment
	deliverables []*domain.Deliverable
	reviews      []*domain.QualityReview
	payments     []*domain.Payment
	feedback     []*domain.FeedbackItem
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		jobs: make(map[string]*domain.Job),
	}
}

func (m *MemStore) CreateJob(_ context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j := *job
	m.jobs[job.JobID] = &j
	return nil
}

func (m *MemStore) GetJob(_ context.Context, jobID string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	j := *job
	return &j, nil
}

func (m *MemStore) ListJobs(_ context.Context, filter service.JobFilter) ([]domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var jobs []domain.Job
	for _, job := range m.jobs {
		if filter.ProjectID != "" && job.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Status != "" && string(job.Status) != filter.Status {
			continue
		}
		if filter.CreatorID != "" {
			a := m.activeAssignmentLocked(job.JobID)
			if a == nil || a.CreatorID != filter.CreatorID {
				continue
			}
		}
		if filter.Cursor != nil {
			if !job.CreatedAt.Before(filter.Cursor.CreatedAt) &&
				!(job.CreatedAt.Equal(filter.Cursor.CreatedAt) && job.JobID < filter.Cursor.JobID) {
				continue
			}
		}
		jobs = append(jobs, *job)
	}

	sort.Slice(jobs, func(i, k int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[k].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[k].CreatedAt)
		}
		return jobs[i].JobID > jobs[k].JobID
	})

	if limit := filter.PageSize + 1; len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (m *MemStore) UpdateJobStatus(_ context.Context, jobID string, from, to domain.JobStatus, startedAt *time.Time, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.updateJobStatusLocked(jobID, from, to, startedAt, now)
}

func (m *MemStore) updateJobStatusLocked(jobID string, from, to domain.JobStatus, startedAt *time.Time, now time.Time) error {
	job, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status != from || job.ArchivedAt != nil {
		return domain.ErrStatusConflict
	}
	job.Status = to
	if startedAt != nil {
		job.StartedAt = startedAt
	}
	job.UpdatedAt = now
	return nil
}

func (m *MemStore) ArchiveJob(_ context.Context, jobID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	job.ArchivedAt = &at
	job.UpdatedAt = at
	return nil
}

func (m *MemStore) ActiveAssignment(_ context.Context, jobID string) (*domain.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a := m.activeAssignmentLocked(jobID); a != nil {
		out := *a
		return &out, nil
	}
	return nil, nil
}

func (m *MemStore) activeAssignmentLocked(jobID string) *domain.Assignment {
	for _, a := range m.assignments {
		if a.JobID == jobID && a.Status == domain.AssignmentStatusActive {
			return a
		}
	}
	return nil
}

func (m *MemStore) CreateAssignment(_ context.Context, a *domain.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	in := *a
	m.assignments = append(m.assignments, &in)
	return nil
}

func (m *MemStore) RetireAssignment(_ context.Context, assignmentID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.assignments {
		if a.AssignmentID == assignmentID && a.Status == domain.AssignmentStatusActive {
			a.Status = domain.AssignmentStatusRemoved
			a.RemovedAt = &at
			return nil
		}
	}
	return domain.ErrNoActiveAssignment
}

func (m *MemStore) CreateDeliverable(_ context.Context, d *domain.Deliverable, from domain.JobStatus, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[d.JobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status != from {
		return domain.ErrStatusConflict
	}

	version := 0
	for _, existing := range m.deliverables {
		if existing.JobID != d.JobID {
			continue
		}
		if existing.IdempotencyKey == d.IdempotencyKey {
			return domain.ErrDuplicateSubmission
		}
		if existing.Version > version {
			version = existing.Version
		}
	}
	d.Version = version + 1

	in := *d
	m.deliverables = append(m.deliverables, &in)

	return m.updateJobStatusLocked(d.JobID, from, domain.JobStatusSubmitted, nil, now)
}

func (m *MemStore) GetDeliverable(_ context.Context, deliverableID string) (*domain.Deliverable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.deliverables {
		if d.DeliverableID == deliverableID {
			out := *d
			return &out, nil
		}
	}
	return nil, domain.ErrDeliverableNotFound
}

func (m *MemStore) DeliverableByKey(_ context.Context, jobID, idempotencyKey string) (*domain.Deliverable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.deliverables {
		if d.JobID == jobID && d.IdempotencyKey == idempotencyKey {
			out := *d
			return &out, nil
		}
	}
	return nil, nil
}

func (m *MemStore) Deliverables(_ context.Context, jobID string) ([]domain.Deliverable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Deliverable
	for _, d := range m.deliverables {
		if d.JobID == jobID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Version < out[k].Version })
	return out, nil
}

func (m *MemStore) LatestDeliverable(_ context.Context, jobID string) (*domain.Deliverable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *domain.Deliverable
	for _, d := range m.deliverables {
		if d.JobID == jobID && (latest == nil || d.Version > latest.Version) {
			latest = d
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

func (m *MemStore) CreateReview(_ context.Context, r *domain.QualityReview, from, to domain.JobStatus, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.reviews {
		if existing.DeliverableID == r.DeliverableID {
			return domain.ErrAlreadyReviewed
		}
	}

	in := *r
	m.reviews = append(m.reviews, &in)

	return m.updateJobStatusLocked(r.JobID, from, to, nil, now)
}

func (m *MemStore) ReviewForDeliverable(_ context.Context, deliverableID string) (*domain.QualityReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.reviews {
		if r.DeliverableID == deliverableID {
			out := *r
			return &out, nil
		}
	}
	return nil, nil
}

func (m *MemStore) LatestReviewForJob(_ context.Context, jobID string) (*domain.QualityReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *domain.QualityReview
	for _, r := range m.reviews {
		if r.JobID == jobID && (latest == nil || !r.CreatedAt.Before(latest.CreatedAt)) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

func (m *MemStore) ReviewsForCreator(_ context.Context, creatorID string) ([]domain.QualityReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID := make(map[string]*domain.Deliverable, len(m.deliverables))
	for _, d := range m.deliverables {
		byID[d.DeliverableID] = d
	}

	var out []domain.QualityReview
	for _, r := range m.reviews {
		if d, ok := byID[r.DeliverableID]; ok && d.CreatorID == creatorID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *MemStore) CreatePayment(_ context.Context, p *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	in := *p
	m.payments = append(m.payments, &in)
	return nil
}

func (m *MemStore) GetPayment(_ context.Context, paymentID string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.payments {
		if p.PaymentID == paymentID {
			out := *p
			return &out, nil
		}
	}
	return nil, fmt.Errorf("payment %s not found", paymentID)
}

func (m *MemStore) PaymentsForJob(_ context.Context, jobID string) ([]domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Payment
	for _, p := range m.payments {
		if p.JobID == jobID {
			out = append(out, *p)
		}
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}

func (m *MemStore) UpdatePayment(_ context.Context, p *domain.Payment, from domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.payments {
		if existing.PaymentID == p.PaymentID {
			if existing.Status != from {
				return domain.ErrStatusConflict
			}
			*existing = *p
			return nil
		}
	}
	return fmt.Errorf("payment %s not found", p.PaymentID)
}

func (m *MemStore) CompletedPaymentsForCreator(_ context.Context, creatorID string) ([]domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Payment
	for _, p := range m.payments {
		if p.CreatorID == creatorID && p.Status == domain.PaymentStatusCompleted {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *MemStore) CreateFeedback(_ context.Context, f *domain.FeedbackItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	in := *f
	m.feedback = append(m.feedback, &in)
	return nil
}

func (m *MemStore) GetFeedback(_ context.Context, feedbackID string) (*domain.FeedbackItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.feedback {
		if f.FeedbackID == feedbackID {
			out := *f
			return &out, nil
		}
	}
	return nil, domain.ErrFeedbackNotFound
}

func (m *MemStore) FeedbackForJob(_ context.Context, jobID string) ([]domain.FeedbackItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.FeedbackItem
	for _, f := range m.feedback {
		if f.JobID == jobID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *MemStore) UpdateFeedbackStatus(_ context.Context, feedbackID string, from, to domain.FeedbackStatus, resolvedAt *time.Time, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.feedback {
		if f.FeedbackID == feedbackID {
			if f.Status != from {
				return domain.ErrStatusConflict
			}
			f.Status = to
			f.ResolvedAt = resolvedAt
			f.UpdatedAt = now
			return nil
		}
	}
	return domain.ErrFeedbackNotFound
}
