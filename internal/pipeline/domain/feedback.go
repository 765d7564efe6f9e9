package domain

import (
	"fmt"
	"time"
)

// FeedbackStatus is the independent lifecycle of a feedback item. Monotonic;
// resolved items are never reopened, a new item is created instead.
type FeedbackStatus string

const (
	FeedbackStatusOpen         FeedbackStatus = "open"
	FeedbackStatusAcknowledged FeedbackStatus = "acknowledged"
	FeedbackStatusResolved     FeedbackStatus = "resolved"
)

// feedbackTransitions lists the only valid paths: open -> acknowledged ->
// resolved, and open -> resolved directly for trivial items.
var feedbackTransitions = map[FeedbackStatus]map[FeedbackStatus]bool{
	FeedbackStatusOpen:         {FeedbackStatusAcknowledged: true, FeedbackStatusResolved: true},
	FeedbackStatusAcknowledged: {FeedbackStatusResolved: true},
	FeedbackStatusResolved:     {},
}

// CheckFeedbackTransition returns a FeedbackTransitionError when the edge
// from -> to is not a valid feedback path.
func CheckFeedbackTransition(from, to FeedbackStatus) error {
	if !feedbackTransitions[from][to] {
		return &FeedbackTransitionError{From: from, To: to}
	}
	return nil
}

// ParseFeedbackStatus rejects unknown status strings at the boundary.
func ParseFeedbackStatus(s string) (FeedbackStatus, error) {
	status := FeedbackStatus(s)
	if _, ok := feedbackTransitions[status]; !ok {
		return "", fmt.Errorf("unknown feedback status: %q", s)
	}
	return status, nil
}

// FeedbackPriority tags how pressing a feedback item is.
type FeedbackPriority string

const (
	FeedbackPriorityLow    FeedbackPriority = "low"
	FeedbackPriorityNormal FeedbackPriority = "normal"
	FeedbackPriorityHigh   FeedbackPriority = "high"
	FeedbackPriorityUrgent FeedbackPriority = "urgent"
)

// ParseFeedbackPriority rejects unknown priority strings at the boundary.
func ParseFeedbackPriority(s string) (FeedbackPriority, error) {
	switch p := FeedbackPriority(s); p {
	case FeedbackPriorityLow, FeedbackPriorityNormal, FeedbackPriorityHigh, FeedbackPriorityUrgent:
		return p, nil
	default:
		return "", fmt.Errorf("unknown feedback priority: %q", s)
	}
}

// FeedbackType classifies the subject of a feedback item.
type FeedbackType string

const (
	FeedbackTypeTechnical FeedbackType = "technical"
	FeedbackTypeCreative  FeedbackType = "creative"
	FeedbackTypeGeneral   FeedbackType = "general"
	FeedbackTypeRevision  FeedbackType = "revision"
)

// ParseFeedbackType rejects unknown type strings at the boundary.
func ParseFeedbackType(s string) (FeedbackType, error) {
	switch t := FeedbackType(s); t {
	case FeedbackTypeTechnical, FeedbackTypeCreative, FeedbackTypeGeneral, FeedbackTypeRevision:
		return t, nil
	default:
		return "", fmt.Errorf("unknown feedback type: %q", s)
	}
}

// FeedbackItem is an out-of-band message attached to a job. It never
// transitions the job itself.
type FeedbackItem struct {
	FeedbackID    string           `db:"feedback_id" json:"feedback_id"`
	JobID         string           `db:"job_id" json:"job_id"`
	DeliverableID string           `db:"deliverable_id" json:"deliverable_id,omitempty"`
	AuthorID      string           `db:"author_id" json:"author_id"`
	Priority      FeedbackPriority `db:"priority" json:"priority"`
	Type          FeedbackType     `db:"feedback_type" json:"feedback_type"`
	Message       string           `db:"message" json:"message"`
	Status        FeedbackStatus   `db:"status" json:"status"`
	ResolvedAt    *time.Time       `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}
