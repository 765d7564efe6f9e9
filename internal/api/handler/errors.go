package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studioops/fulfillment-be/internal/pipeline/domain"
)

// respondError maps a pipeline error onto the HTTP taxonomy: validation
// failures carry enough context for a user-facing message and are never
// retried; unknown errors become a 500 without leaking internals.
func (h *PipelineHandler) respondError(c *gin.Context, err error) {
	var invalidTransition *domain.InvalidTransitionError
	var feedbackTransition *domain.FeedbackTransitionError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrJobNotFound),
		errors.Is(err, domain.ErrDeliverableNotFound),
		errors.Is(err, domain.ErrFeedbackNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotAssignee):
		status = http.StatusForbidden
	case errors.As(err, &invalidTransition),
		errors.As(err, &feedbackTransition),
		errors.Is(err, domain.ErrJobNotAcceptingSubmissions),
		errors.Is(err, domain.ErrOutstandingReviewPending),
		errors.Is(err, domain.ErrAlreadyReviewed),
		errors.Is(err, domain.ErrDuplicateSubmission),
		errors.Is(err, domain.ErrPaymentAlreadyExists),
		errors.Is(err, domain.ErrJobNotReassignable),
		errors.Is(err, domain.ErrJobArchived),
		errors.Is(err, domain.ErrNoActiveAssignment),
		errors.Is(err, domain.ErrStatusConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// bindError reports a malformed request body or query.
func (h *PipelineHandler) bindError(c *gin.Context, err error) {
	h.logger.Error("Invalid request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}
