package domain

import "time"

// AssignmentStatus is the lifecycle of one creator-to-job binding. A job holds
// at most one active assignment; retired assignments stay as history.
type AssignmentStatus string

const (
	AssignmentStatusActive  AssignmentStatus = "active"
	AssignmentStatusRemoved AssignmentStatus = "removed"
)

// Assignment binds one creator to one job with a role and optional stage tag.
type Assignment struct {
	AssignmentID string           `db:"assignment_id" json:"assignment_id"`
	JobID        string           `db:"job_id" json:"job_id"`
	CreatorID    string           `db:"creator_id" json:"creator_id"`
	Role         string           `db:"role" json:"role"`
	Stage        string           `db:"stage" json:"stage,omitempty"`
	Status       AssignmentStatus `db:"status" json:"status"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	RemovedAt    *time.Time       `db:"removed_at" json:"removed_at,omitempty"`
}
