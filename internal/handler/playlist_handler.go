package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/rynno/rynno-backend-go/internal/service"
	"github.com/rynno/rynno-backend-go/pkg/response"
)

// PlaylistHandler handles HTTP requests for playlist generation
type PlaylistHandler struct {
	service *service.PlaylistService
}

// NewPlaylistHandler creates a new playlist handler
func NewPlaylistHandler(service *service.PlaylistService) *PlaylistHandler {
	return &PlaylistHandler{service: service}
}

// Generate handles POST /api/v1/playlists/generate
func (h *PlaylistHandler) Generate(c *gin.Context) {
	var req service.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if req.TripID == "" {
		response.BadRequest(c, "tripId is required")
		return
	}

	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		writeTripError(c, err)
		return
	}
	response.Success(c, result)
}
