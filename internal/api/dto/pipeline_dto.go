package dto

import (
	"time"

	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
)

type CreateJobRequest struct {
	ProjectID      string    `json:"project_id" binding:"required"`
	ProducerID     string    `json:"producer_id" binding:"required"`
	Title          string    `json:"title" binding:"required"`
	Category       string    `json:"category"`
	BudgetAmount   float64   `json:"budget_amount" binding:"required,gt=0"`
	BudgetCurrency string    `json:"budget_currency" binding:"required"`
	EstimatedHours float64   `json:"estimated_hours"`
	DeadlineDate   time.Time `json:"deadline_date" binding:"required"`
	CreatorID      string    `json:"creator_id"`
	Role           string    `json:"role"`
	Stage          string    `json:"stage"`
}

type AssignCreatorRequest struct {
	CreatorID string `json:"creator_id" binding:"required"`
	Role      string `json:"role"`
	Stage     string `json:"stage"`
}

type StartJobRequest struct {
	CreatorID string `json:"creator_id" binding:"required"`
}

type SubmitDeliverableRequest struct {
	CreatorID      string `json:"creator_id" binding:"required"`
	IdempotencyKey string `json:"idempotency_key"`
	FileURL        string `json:"file_url" binding:"required"`
	FileType       string `json:"file_type"`
	FileSizeBytes  int64  `json:"file_size_bytes"`
	Notes          string `json:"notes"`
	IsFinal        bool   `json:"is_final"`
}

type RecordReviewRequest struct {
	ReviewerID     string          `json:"reviewer_id" binding:"required"`
	TechnicalScore float64         `json:"technical_score" binding:"min=0,max=100"`
	CreativeScore  float64         `json:"creative_score" binding:"min=0,max=100"`
	AdherenceScore float64         `json:"adherence_score" binding:"min=0,max=100"`
	Checklist      map[string]bool `json:"checklist"`
	Feedback       string          `json:"feedback"`
	Decision       string          `json:"decision" binding:"required"`
}

type PostFeedbackRequest struct {
	AuthorID      string `json:"author_id" binding:"required"`
	DeliverableID string `json:"deliverable_id"`
	Priority      string `json:"priority" binding:"required"`
	Type          string `json:"feedback_type" binding:"required"`
	Message       string `json:"message" binding:"required"`
}

type UpdateFeedbackRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

type RetryPaymentRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
}

type ListJobsRequest struct {
	ProjectID string `form:"project_id"`
	CreatorID string `form:"creator_id"`
	Status    string `form:"status"`
	PageSize  int    `form:"page_size"`
	Cursor    string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []domain.Job `json:"jobs"`
	NextCursor string       `json:"next_cursor,omitempty"`
}
