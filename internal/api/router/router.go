package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studioops/fulfillment-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "fulfillment-api-service",
		})
	})

	pipelineHandler := handler.NewPipelineHandler(deps)

	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", pipelineHandler.CreateJob)
			jobs.GET("", pipelineHandler.ListJobs)
			jobs.GET("/:job_id", pipelineHandler.GetJob)
			jobs.POST("/:job_id/assign", pipelineHandler.AssignCreator)
			jobs.POST("/:job_id/start", pipelineHandler.StartJob)
			jobs.POST("/:job_id/archive", pipelineHandler.ArchiveJob)
			jobs.POST("/:job_id/deliverables", pipelineHandler.SubmitDeliverable)
			jobs.GET("/:job_id/deliverables", pipelineHandler.ListDeliverables)
			jobs.POST("/:job_id/feedback", pipelineHandler.PostFeedback)
			jobs.GET("/:job_id/feedback", pipelineHandler.ListFeedback)
			jobs.POST("/:job_id/payment/retry", pipelineHandler.RetryPayment)
		}

		v1.POST("/deliverables/:deliverable_id/review", pipelineHandler.RecordReview)
		v1.PATCH("/feedback/:feedback_id", pipelineHandler.UpdateFeedbackStatus)
		v1.GET("/creators/:creator_id/stats", pipelineHandler.CreatorStats)
	}

	return r
}
