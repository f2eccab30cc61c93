package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rynno/rynno-backend-go/internal/service"
	"github.com/rynno/rynno-backend-go/pkg/response"
)

// ReminderHandler handles HTTP requests for reminders and the refresh loop
type ReminderHandler struct {
	service *service.ReminderService
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(service *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{service: service}
}

type createReminderRequest struct {
	Channel             string `json:"channel"`
	LeadMinutes         int    `json:"leadMinutes"`
	AutoRefreshPlaylist bool   `json:"autoRefreshPlaylist"`
}

// Create handles POST /api/v1/trips/:tripId/reminders
func (h *ReminderHandler) Create(c *gin.Context) {
	var req createReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	reminder, err := h.service.Schedule(c.Param("tripId"), req.Channel, req.LeadMinutes, req.AutoRefreshPlaylist)
	if err != nil {
		writeTripError(c, err)
		return
	}
	response.Success(c, reminder)
}

// List handles GET /api/v1/trips/:tripId/reminders
func (h *ReminderHandler) List(c *gin.Context) {
	reminders, err := h.service.ListForTrip(c.Param("tripId"))
	if err != nil {
		writeTripError(c, err)
		return
	}
	response.Success(c, gin.H{"reminders": reminders})
}

// RefreshLoop handles POST /api/v1/trips/refresh-loop. It runs one delay
// refresh cycle and then dispatches whatever reminders came due.
func (h *ReminderHandler) RefreshLoop(c *gin.Context) {
	cycle, err := h.service.RunRefreshCycle(c.Request.Context())
	if err != nil {
		writeTripError(c, err)
		return
	}

	dispatch, err := h.service.DispatchDue(c.Request.Context(), time.Now().UTC())
	if err != nil {
		writeTripError(c, err)
		return
	}

	response.Success(c, gin.H{
		"refresh":  cycle,
		"dispatch": dispatch,
	})
}
