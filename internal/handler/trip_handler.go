package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rynno/rynno-backend-go/internal/models"
	"github.com/rynno/rynno-backend-go/internal/normalizer"
	"github.com/rynno/rynno-backend-go/internal/service"
	"github.com/rynno/rynno-backend-go/pkg/response"
)

const manualReviewPrompt = "Trip details look uncertain. Review the legs before generating a playlist."

// TripHandler handles HTTP requests for trip ingestion and status
type TripHandler struct {
	service *service.TripService
}

// NewTripHandler creates a new trip handler
func NewTripHandler(service *service.TripService) *TripHandler {
	return &TripHandler{service: service}
}

type ingestRequest struct {
	Source  string              `json:"source"`
	Payload *models.TripPayload `json:"payload"`
	Hints   models.IngestHints  `json:"hints"`
}

// Ingest handles POST /api/v1/trips/ingest
func (h *TripHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	entry, err := h.service.Ingest(c.Request.Context(), models.TripSource(req.Source), req.Payload, req.Hints)
	if err != nil {
		writeTripError(c, err)
		return
	}

	body := gin.H{"trip": entry}
	if entry.Canonical != nil && entry.Canonical.Validation.NeedsManualReview {
		body["manualReviewPrompt"] = manualReviewPrompt
	}
	response.Success(c, body)
}

// Status handles GET /api/v1/trips/:tripId/status
func (h *TripHandler) Status(c *gin.Context) {
	entry, err := h.service.Status(c.Param("tripId"))
	if err != nil {
		writeTripError(c, err)
		return
	}
	response.Success(c, entry)
}

// Refresh handles POST /api/v1/trips/:tripId/refresh
func (h *TripHandler) Refresh(c *gin.Context) {
	entry, err := h.service.Refresh(c.Request.Context(), c.Param("tripId"))
	if err != nil {
		writeTripError(c, err)
		return
	}
	response.Success(c, entry)
}

// writeTripError maps pipeline errors onto HTTP statuses.
func writeTripError(c *gin.Context, err error) {
	var malformed *normalizer.MalformedInputError
	var unsupported *normalizer.UnsupportedSourceError

	switch {
	case errors.Is(err, service.ErrTripNotFound):
		response.NotFound(c, "Trip not found")
	case errors.As(err, &malformed), errors.As(err, &unsupported):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrReauthRequired), errors.Is(err, service.ErrNotConnected):
		response.Unauthorized(c, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}
