package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job cannot be found in the store
	ErrJobNotFound = errors.New("job not found")

	// ErrDeliverableNotFound is returned when a deliverable cannot be found
	ErrDeliverableNotFound = errors.New("deliverable not found")

	// ErrFeedbackNotFound is returned when a feedback item cannot be found
	ErrFeedbackNotFound = errors.New("feedback item not found")

	// ErrNotAssignee is returned when the caller is not the job's active assignee
	ErrNotAssignee = errors.New("caller is not the job's active assignee")

	// ErrNoActiveAssignment is returned when an operation requires an active
	// assignment and the job has none
	ErrNoActiveAssignment = errors.New("job has no active assignment")

	// ErrJobNotAcceptingSubmissions is returned when a deliverable is submitted
	// against a job outside in_progress
	ErrJobNotAcceptingSubmissions = errors.New("job is not accepting submissions")

	// ErrOutstandingReviewPending is returned when a submission arrives while a
	// prior deliverable still has no recorded review
	ErrOutstandingReviewPending = errors.New("previous deliverable is still awaiting review")

	// ErrAlreadyReviewed is returned on a second review against one deliverable
	ErrAlreadyReviewed = errors.New("deliverable already reviewed")

	// ErrDuplicateSubmission is returned when an idempotency token is reused
	// with a different artifact
	ErrDuplicateSubmission = errors.New("duplicate submission")

	// ErrPaymentAlreadyExists is returned when a payment would be created for a
	// job that already holds a non-failed payment
	ErrPaymentAlreadyExists = errors.New("job already has a non-failed payment")

	// ErrJobNotReassignable is returned when reassignment is attempted while a
	// review must first resolve or the job is terminal
	ErrJobNotReassignable = errors.New("job cannot be reassigned in its current status")

	// ErrJobArchived is returned when a mutating operation targets an archived job
	ErrJobArchived = errors.New("job is archived")

	// ErrStatusConflict is returned by the store when a compare-and-swap on the
	// job status loses to a concurrent update
	ErrStatusConflict = errors.New("job status changed concurrently")
)

// InvalidTransitionError reports an attempted job transition outside the
// lifecycle table, naming current and requested states.
type InvalidTransitionError struct {
	From JobStatus
	To   JobStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// FeedbackTransitionError reports an attempted feedback status change outside
// the open -> acknowledged -> resolved lifecycle.
type FeedbackTransitionError struct {
	From FeedbackStatus
	To   FeedbackStatus
}

func (e *FeedbackTransitionError) Error() string {
	return fmt.Sprintf("invalid feedback transition: %s -> %s", e.From, e.To)
}
