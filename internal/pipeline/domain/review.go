package domain

import (
	"fmt"
	"math"
	"time"
)

// ReviewDecision is the reviewer's verdict on one deliverable. Each decision
// maps to exactly one job transition out of in_review.
type ReviewDecision string

const (
	ReviewDecisionPassed        ReviewDecision = "passed"
	ReviewDecisionNeedsRevision ReviewDecision = "needs_revision"
	ReviewDecisionFailed        ReviewDecision = "failed"
)

// ParseReviewDecision rejects unknown decision strings at the boundary.
func ParseReviewDecision(s string) (ReviewDecision, error) {
	switch d := ReviewDecision(s); d {
	case ReviewDecisionPassed, ReviewDecisionNeedsRevision, ReviewDecisionFailed:
		return d, nil
	default:
		return "", fmt.Errorf("unknown review decision: %q", s)
	}
}

// JobTransition returns the job status the decision commits.
func (d ReviewDecision) JobTransition() JobStatus {
	switch d {
	case ReviewDecisionPassed:
		return JobStatusApproved
	case ReviewDecisionNeedsRevision:
		return JobStatusRevisionRequested
	default:
		return JobStatusRejected
	}
}

// Scores are the three component scores of a review, each 0-100.
type Scores struct {
	Technical float64 `json:"technical"`
	Creative  float64 `json:"creative"`
	Adherence float64 `json:"adherence"`
}

// Validate checks each component is within 0-100.
func (s Scores) Validate() error {
	for name, v := range map[string]float64{
		"technical": s.Technical,
		"creative":  s.Creative,
		"adherence": s.Adherence,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s score out of range: %v", name, v)
		}
	}
	return nil
}

// Overall computes the overall score as the unweighted mean of the three
// component scores, rounded half away from zero to two decimal places. This
// is the only scoring formula in the system; it is never recomputed
// differently by any caller.
func (s Scores) Overall() float64 {
	return math.Round((s.Technical+s.Creative+s.Adherence)/3*100) / 100
}

// QualityReview is the scored evaluation of one deliverable. 1:1 with its
// deliverable; never mutated once recorded.
type QualityReview struct {
	ReviewID       string          `db:"review_id" json:"review_id"`
	DeliverableID  string          `db:"deliverable_id" json:"deliverable_id"`
	JobID          string          `db:"job_id" json:"job_id"`
	ReviewerID     string          `db:"reviewer_id" json:"reviewer_id"`
	TechnicalScore float64         `db:"technical_score" json:"technical_score"`
	CreativeScore  float64         `db:"creative_score" json:"creative_score"`
	AdherenceScore float64         `db:"adherence_score" json:"adherence_score"`
	OverallScore   float64         `db:"overall_score" json:"overall_score"`
	Checklist      map[string]bool `db:"-" json:"checklist,omitempty"`
	Feedback       string          `db:"feedback" json:"feedback,omitempty"`
	Decision       ReviewDecision  `db:"decision" json:"decision"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
