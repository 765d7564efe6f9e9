package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studioops/fulfillment-be/internal/api/dto"
	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
	"github.com/studioops/fulfillment-be/internal/pipeline/service"
)

// SubmitDeliverable handles POST /api/v1/jobs/:job_id/deliverables
// Appends the next version to the job's deliverable ledger. Retries carrying
// the same idempotency key return the original submission.
func (h *PipelineHandler) SubmitDeliverable(c *gin.Context) {
	var req dto.SubmitDeliverableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	deliverable, err := h.pipeline.SubmitDeliverable(
		c.Request.Context(),
		c.Param("job_id"),
		req.CreatorID,
		req.IdempotencyKey,
		domain.Artifact{
			FileURL:       req.FileURL,
			FileType:      req.FileType,
			FileSizeBytes: req.FileSizeBytes,
			Notes:         req.Notes,
			IsFinal:       req.IsFinal,
		},
	)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, deliverable)
}

// ListDeliverables handles GET /api/v1/jobs/:job_id/deliverables
func (h *PipelineHandler) ListDeliverables(c *gin.Context) {
	deliverables, err := h.pipeline.Deliverables(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deliverables": deliverables})
}

// RecordReview handles POST /api/v1/deliverables/:deliverable_id/review
// Records the single quality review of a deliverable and commits the job
// transition its decision maps to.
func (h *PipelineHandler) RecordReview(c *gin.Context) {
	var req dto.RecordReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	decision, err := domain.ParseReviewDecision(req.Decision)
	if err != nil {
		h.bindError(c, err)
		return
	}

	review, err := h.pipeline.RecordReview(c.Request.Context(), c.Param("deliverable_id"), service.ReviewParams{
		ReviewerID: req.ReviewerID,
		Scores: domain.Scores{
			Technical: req.TechnicalScore,
			Creative:  req.CreativeScore,
			Adherence: req.AdherenceScore,
		},
		Checklist: req.Checklist,
		Feedback:  req.Feedback,
		Decision:  decision,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// RetryPayment handles POST /api/v1/jobs/:job_id/payment/retry
// Operator action after settlement failure; creates a fresh pending payment.
func (h *PipelineHandler) RetryPayment(c *gin.Context) {
	var req dto.RetryPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	payment, err := h.pipeline.RetryPayment(c.Request.Context(), c.Param("job_id"), req.ActorID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}
