package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studioops/fulfillment-be/internal/api/dto"
	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
	"github.com/studioops/fulfillment-be/internal/pipeline/service"
)

// PostFeedback handles POST /api/v1/jobs/:job_id/feedback
func (h *PipelineHandler) PostFeedback(c *gin.Context) {
	var req dto.PostFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	priority, err := domain.ParseFeedbackPriority(req.Priority)
	if err != nil {
		h.bindError(c, err)
		return
	}
	feedbackType, err := domain.ParseFeedbackType(req.Type)
	if err != nil {
		h.bindError(c, err)
		return
	}

	item, err := h.pipeline.PostFeedback(c.Request.Context(), c.Param("job_id"), service.FeedbackParams{
		AuthorID:      req.AuthorID,
		DeliverableID: req.DeliverableID,
		Priority:      priority,
		Type:          feedbackType,
		Message:       req.Message,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// ListFeedback handles GET /api/v1/jobs/:job_id/feedback
func (h *PipelineHandler) ListFeedback(c *gin.Context) {
	items, err := h.pipeline.Feedback(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"feedback": items})
}

// UpdateFeedbackStatus handles PATCH /api/v1/feedback/:feedback_id
func (h *PipelineHandler) UpdateFeedbackStatus(c *gin.Context) {
	var req dto.UpdateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	status, err := domain.ParseFeedbackStatus(req.Status)
	if err != nil {
		h.bindError(c, err)
		return
	}

	item, err := h.pipeline.UpdateFeedbackStatus(c.Request.Context(), c.Param("feedback_id"), req.ActorID, status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}
