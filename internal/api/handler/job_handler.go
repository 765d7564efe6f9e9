package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studioops/fulfillment-be/internal/api/dto"
	"github.com/studioops/fulfillment-be/internal/pipeline/service"
)

// CreateJob handles POST /api/v1/jobs
// A producer publishes a unit of work against a project.
func (h *PipelineHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	job, err := h.pipeline.CreateJob(c.Request.Context(), service.CreateJobParams{
		ProjectID:      req.ProjectID,
		ProducerID:     req.ProducerID,
		Title:          req.Title,
		Category:       req.Category,
		BudgetAmount:   req.BudgetAmount,
		BudgetCurrency: req.BudgetCurrency,
		EstimatedHours: req.EstimatedHours,
		DeadlineDate:   req.DeadlineDate,
		CreatorID:      req.CreatorID,
		Role:           req.Role,
		Stage:          req.Stage,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

// GetJob handles GET /api/v1/jobs/:job_id
// Returns the dashboard read model: status, progress, urgency, latest review
// summary and payment status, all derived on demand.
func (h *PipelineHandler) GetJob(c *gin.Context) {
	view, err := h.pipeline.JobView(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ListJobs handles GET /api/v1/jobs
// Lists jobs with optional filtering and cursor pagination.
func (h *PipelineHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.bindError(c, err)
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cursor"})
		return
	}

	jobs, err := h.pipeline.ListJobs(c.Request.Context(), service.JobFilter{
		ProjectID: req.ProjectID,
		CreatorID: req.CreatorID,
		Status:    req.Status,
		PageSize:  req.PageSize,
		Cursor:    cursor,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	var nextCursor string
	if hasMore {
		last := jobs[len(jobs)-1]
		nextCursor = EncodeJobCursor(&service.JobCursor{
			CreatedAt: last.CreatedAt,
			JobID:     last.JobID,
		})
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:       jobs,
		NextCursor: nextCursor,
	})
}

// AssignCreator handles POST /api/v1/jobs/:job_id/assign
func (h *PipelineHandler) AssignCreator(c *gin.Context) {
	var req dto.AssignCreatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	assignment, err := h.pipeline.AssignCreator(c.Request.Context(), c.Param("job_id"), req.CreatorID, req.Role, req.Stage)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// StartJob handles POST /api/v1/jobs/:job_id/start
func (h *PipelineHandler) StartJob(c *gin.Context) {
	var req dto.StartJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	job, err := h.pipeline.StartJob(c.Request.Context(), c.Param("job_id"), req.CreatorID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ArchiveJob handles POST /api/v1/jobs/:job_id/archive
// Soft archival only; job records are never hard-deleted.
func (h *PipelineHandler) ArchiveJob(c *gin.Context) {
	if err := h.pipeline.ArchiveJob(c.Request.Context(), c.Param("job_id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreatorStats handles GET /api/v1/creators/:creator_id/stats
func (h *PipelineHandler) CreatorStats(c *gin.Context) {
	stats, err := h.pipeline.CreatorStats(c.Request.Context(), c.Param("creator_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
