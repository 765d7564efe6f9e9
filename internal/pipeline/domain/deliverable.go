package domain

import "time"

// Deliverable is one versioned artifact submitted against a job. Immutable
// once written; version numbers are assigned by the ledger, never the client.
type Deliverable struct {
	DeliverableID  string    `db:"deliverable_id" json:"deliverable_id"`
	JobID          string    `db:"job_id" json:"job_id"`
	CreatorID      string    `db:"creator_id" json:"creator_id"`
	IdempotencyKey string    `db:"idempotency_key" json:"-"`
	Version        int       `db:"version" json:"version"`
	FileURL        string    `db:"file_url" json:"file_url"`
	FileType       string    `db:"file_type" json:"file_type"`
	FileSizeBytes  int64     `db:"file_size_bytes" json:"file_size_bytes"`
	Notes          string    `db:"notes" json:"notes,omitempty"`
	IsFinal        bool      `db:"is_final" json:"is_final"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Artifact is the caller-supplied part of a submission.
type Artifact struct {
	FileURL       string
	FileType      string
	FileSizeBytes int64
	Notes         string
	IsFinal       bool
}
