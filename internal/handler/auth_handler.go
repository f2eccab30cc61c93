package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rynno/rynno-backend-go/internal/service"
	"github.com/rynno/rynno-backend-go/pkg/response"
)

// AuthHandler handles the Spotify authorization flow
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Authorize handles GET /auth/spotify
func (h *AuthHandler) Authorize(c *gin.Context) {
	authorizeURL, err := h.service.AuthorizeURL(c.Query("userId"))
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, gin.H{"authorizeUrl": authorizeURL})
}

// Callback handles GET /auth/spotify/callback
func (h *AuthHandler) Callback(c *gin.Context) {
	if denied := c.Query("error"); denied != "" {
		response.BadRequest(c, "Spotify authorization denied: "+denied)
		return
	}
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		response.BadRequest(c, "code and state are required")
		return
	}

	connection, err := h.service.HandleCallback(c.Request.Context(), code, state)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, connection)
}

type refreshTokenRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// Refresh handles POST /auth/spotify/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "userId is required")
		return
	}

	connection, err := h.service.Refresh(c.Request.Context(), req.UserID)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	response.Success(c, connection)
}

// TokenStatus handles GET /auth/spotify/token
func (h *AuthHandler) TokenStatus(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		response.BadRequest(c, "userId is required")
		return
	}

	connection, err := h.service.Connection(userID)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	response.Success(c, connection)
}

func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotConnected), errors.Is(err, service.ErrReauthRequired):
		response.Unauthorized(c, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}
