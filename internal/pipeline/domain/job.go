package domain

import (
	"fmt"
	"math"
	"time"
)

// JobStatus is the lifecycle state of a Job. The transition table in
// validTransitions is the single authority for which edges exist.
type JobStatus string

const (
	JobStatusAssigned          JobStatus = "assigned"
	JobStatusInProgress        JobStatus = "in_progress"
	JobStatusSubmitted         JobStatus = "submitted"
	JobStatusInReview          JobStatus = "in_review"
	JobStatusRevisionRequested JobStatus = "revision_requested"
	JobStatusApproved          JobStatus = "approved"
	JobStatusRejected          JobStatus = "rejected"
	JobStatusCompleted         JobStatus = "completed"
)

// validTransitions maps each status to the set of statuses reachable from it.
// rejected and completed are terminal.
var validTransitions = map[JobStatus]map[JobStatus]bool{
	JobStatusAssigned:          {JobStatusInProgress: true},
	JobStatusInProgress:        {JobStatusSubmitted: true},
	JobStatusSubmitted:         {JobStatusInReview: true},
	JobStatusInReview:          {JobStatusApproved: true, JobStatusRevisionRequested: true, JobStatusRejected: true},
	JobStatusRevisionRequested: {JobStatusInProgress: true},
	JobStatusApproved:          {JobStatusCompleted: true},
	JobStatusRejected:          {},
	JobStatusCompleted:         {},
}

// progressPercent is the fixed status → dashboard progress mapping. Computed
// here once so every consumer shows the same number for the same job.
var progressPercent = map[JobStatus]int{
	JobStatusAssigned:          10,
	JobStatusInProgress:        40,
	JobStatusSubmitted:         60,
	JobStatusInReview:          75,
	JobStatusRevisionRequested: 40,
	JobStatusApproved:          90,
	JobStatusRejected:          0,
	JobStatusCompleted:         100,
}

// Job is one unit of assigned creative work with a budget and deadline.
type Job struct {
	JobID          string     `db:"job_id" json:"job_id"`
	ProjectID      string     `db:"project_id" json:"project_id"`
	Title          string     `db:"title" json:"title"`
	Category       string     `db:"category" json:"category"`
	BudgetAmount   float64    `db:"budget_amount" json:"budget_amount"`
	BudgetCurrency string     `db:"budget_currency" json:"budget_currency"`
	EstimatedHours float64    `db:"estimated_hours" json:"estimated_hours,omitempty"`
	DeadlineDate   time.Time  `db:"deadline_date" json:"deadline_date"`
	Status         JobStatus  `db:"status" json:"status"`
	StartedAt      *time.Time `db:"started_at" json:"started_at,omitempty"`
	ArchivedAt     *time.Time `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// CanTransition reports whether the edge from → to exists in the lifecycle.
func CanTransition(from, to JobStatus) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// CheckTransition returns an InvalidTransitionError naming both states when
// the edge from → to does not exist.
func CheckTransition(from, to JobStatus) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

// IsTerminal reports whether no further transitions are possible.
func (s JobStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// ProgressPercent returns the fixed dashboard progress for the status.
func (s JobStatus) ProgressPercent() int {
	return progressPercent[s]
}

// ParseJobStatus converts a string into a JobStatus, rejecting unknown values
// at the boundary instead of letting them leak into the store.
func ParseJobStatus(s string) (JobStatus, error) {
	status := JobStatus(s)
	if _, ok := validTransitions[status]; !ok {
		return "", fmt.Errorf("unknown job status: %q", s)
	}
	return status, nil
}

// UrgencyTier buckets a job's remaining time for dashboards.
type UrgencyTier string

const (
	UrgencyOverdue UrgencyTier = "overdue"
	UrgencyUrgent  UrgencyTier = "urgent"
	UrgencySoon    UrgencyTier = "soon"
	UrgencyNormal  UrgencyTier = "normal"
)

// DaysUntilDeadline returns whole days between now and the deadline, negative
// when the deadline has passed. A passed deadline never forces a transition.
func (j *Job) DaysUntilDeadline(now time.Time) int {
	return int(math.Floor(j.DeadlineDate.Sub(now).Hours() / 24))
}

// Urgency derives the deadline urgency tier. Read-only signal, not a state.
func (j *Job) Urgency(now time.Time) UrgencyTier {
	days := j.DaysUntilDeadline(now)
	switch {
	case j.DeadlineDate.Before(now):
		return UrgencyOverdue
	case days <= 2:
		return UrgencyUrgent
	case days <= 7:
		return UrgencySoon
	default:
		return UrgencyNormal
	}
}

// AcceptsSubmissions reports whether a new deliverable may be submitted in the
// current status.
func (j *Job) AcceptsSubmissions() bool {
	return j.Status == JobStatusInProgress
}

// Reassignable reports whether the active assignment may be replaced. Rejected
// while a review is pending against the current assignment and in terminal
// states.
func (j *Job) Reassignable() bool {
	if j.Status.IsTerminal() {
		return false
	}
	return j.Status != JobStatusSubmitted && j.Status != JobStatusInReview
}

// Archived reports whether the job has been soft-archived. Archived jobs
// refuse all mutating operations but are never deleted.
func (j *Job) Archived() bool {
	return j.ArchivedAt != nil
}
