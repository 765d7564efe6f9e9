package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
)

// Store is the durable backend of the pipeline. Implementations must make the
// multi-write methods (CreateDeliverable, CreateReview) atomic and must treat
// every from-status parameter as a compare-and-swap guard, returning
// domain.ErrStatusConflict when the guard no longer holds.
type Store interface {
	CreateJob(ctx context.Context, job *domain.Job) error
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]domain.Job, error)
	UpdateJobStatus(ctx context.Context, jobID string, from, to domain.JobStatus, startedAt *time.Time, now time.Time) error
	ArchiveJob(ctx context.Context, jobID string, at time.Time) error

	ActiveAssignment(ctx context.Context, jobID string) (*domain.Assignment, error)
	CreateAssignment(ctx context.Context, a *domain.Assignment) error
	RetireAssignment(ctx context.Context, assignmentID string, at time.Time) error

	// CreateDeliverable assigns the next version number, inserts the
	// deliverable and commits the job transition from -> submitted in one
	// atomic operation.
	CreateDeliverable(ctx context.Context, d *domain.Deliverable, from domain.JobStatus, now time.Time) error
	GetDeliverable(ctx context.Context, deliverableID string) (*domain.Deliverable, error)
	DeliverableByKey(ctx context.Context, jobID, idempotencyKey string) (*domain.Deliverable, error)
	Deliverables(ctx context.Context, jobID string) ([]domain.Deliverable, error)
	LatestDeliverable(ctx context.Context, jobID string) (*domain.Deliverable, error)

	// CreateReview inserts the review and commits the job transition
	// from -> to in one atomic operation.
	CreateReview(ctx context.Context, r *domain.QualityReview, from, to domain.JobStatus, now time.Time) error
	ReviewForDeliverable(ctx context.Context, deliverableID string) (*domain.QualityReview, error)
	LatestReviewForJob(ctx context.Context, jobID string) (*domain.QualityReview, error)
	ReviewsForCreator(ctx context.Context, creatorID string) ([]domain.QualityReview, error)

	CreatePayment(ctx context.Context, p *domain.Payment) error
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	PaymentsForJob(ctx context.Context, jobID string) ([]domain.Payment, error)
	UpdatePayment(ctx context.Context, p *domain.Payment, from domain.PaymentStatus) error
	CompletedPaymentsForCreator(ctx context.Context, creatorID string) ([]domain.Payment, error)

	CreateFeedback(ctx context.Context, f *domain.FeedbackItem) error
	GetFeedback(ctx context.Context, feedbackID string) (*domain.FeedbackItem, error)
	FeedbackForJob(ctx context.Context, jobID string) ([]domain.FeedbackItem, error)
	UpdateFeedbackStatus(ctx context.Context, feedbackID string, from, to domain.FeedbackStatus, resolvedAt *time.Time, now time.Time) error
}

// JobFilter narrows ListJobs results. Cursor pagination follows the
// (created_at, job_id) ordering.
type JobFilter struct {
	ProjectID string
	CreatorID string
	Status    string
	PageSize  int
	Cursor    *JobCursor
}

// JobCursor is an opaque pagination position.
type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}

// EventPublisher emits pipeline events to the message broker. Satisfied by
// shared/rabbitmq.Client. May be nil; publishing is then skipped.
type EventPublisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// Service is the fulfillment pipeline. All mutating operations on one job are
// serialized through a per-job lock; operations on different jobs run in
// parallel.
type Service struct {
	store  Store
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time

	locksMu sync.Mutex
	locks   map[string]*jobLock
}

type jobLock struct {
	mu   sync.Mutex
	refs int
}

// Config holds service dependencies.
type Config struct {
	Store  Store
	Events EventPublisher
	Logger *slog.Logger
	// Now overrides the clock; nil means time.Now. Tests use this.
	Now func() time.Time
}

// NewService creates the pipeline service.
func NewService(cfg *Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:  cfg.Store,
		events: cfg.Events,
		logger: cfg.Logger,
		now:    now,
		locks:  make(map[string]*jobLock),
	}
}

// lockJob acquires the per-job lock and returns its release func.
func (s *Service) lockJob(jobID string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[jobID]
	if !ok {
		l = &jobLock{}
		s.locks[jobID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, jobID)
		}
		s.locksMu.Unlock()
	}
}

// mutableJob loads a job and rejects mutations against archived records.
func (s *Service) mutableJob(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Archived() {
		return nil, domain.ErrJobArchived
	}
	return job, nil
}
