package handler

import (
	"log/slog"

	"github.com/studioops/fulfillment-be/internal/pipeline/service"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger   *slog.Logger
	Pipeline *service.Service
}

// PipelineHandler handles fulfillment pipeline HTTP requests
type PipelineHandler struct {
	logger   *slog.Logger
	pipeline *service.Service
}

// NewPipelineHandler creates a new PipelineHandler instance
func NewPipelineHandler(deps *Dependencies) *PipelineHandler {
	return &PipelineHandler{
		logger:   deps.Logger,
		pipeline: deps.Pipeline,
	}
}
