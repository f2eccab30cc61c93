package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/rynno/rynno-backend-go/internal/models"
	"github.com/rynno/rynno-backend-go/internal/service"
	"github.com/rynno/rynno-backend-go/pkg/response"
)

// FeedbackHandler handles HTTP requests for feedback events
type FeedbackHandler struct {
	service *service.FeedbackService
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(service *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// LogEvent handles POST /api/v1/feedback/events
func (h *FeedbackHandler) LogEvent(c *gin.Context) {
	var event models.FeedbackEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	stored, err := h.service.Log(event)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, stored)
}

// Summary handles GET /api/v1/feedback/summary
func (h *FeedbackHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Query("eventType"), c.Query("tripId"))
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, summary)
}
