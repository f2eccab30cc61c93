package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rynno/rynno-backend-go/internal/config"
	"github.com/rynno/rynno-backend-go/internal/handler"
	"github.com/rynno/rynno-backend-go/internal/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Trips     *handler.TripHandler
	Playlists *handler.PlaylistHandler
	Auth      *handler.AuthHandler
	Reminders *handler.ReminderHandler
	Feedback  *handler.FeedbackHandler
	Meta      *handler.MetaHandler
}

// SetupRouter mounts all routes and middleware.
func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Internal-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Rynno backend is running",
		})
	})

	auth := r.Group("/auth/spotify")
	{
		auth.GET("", h.Auth.Authorize)
		auth.GET("/callback", h.Auth.Callback)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.GET("/token", h.Auth.TokenStatus)
	}

	api := r.Group("/api/v1")
	{
		trips := api.Group("/trips")
		{
			trips.POST("/ingest", h.Trips.Ingest)
			trips.GET("/:tripId/status", h.Trips.Status)
			trips.POST("/:tripId/refresh", h.Trips.Refresh)
			trips.POST("/:tripId/reminders", h.Reminders.Create)
			trips.GET("/:tripId/reminders", h.Reminders.List)
			trips.POST("/refresh-loop", middleware.InternalKey(cfg.InternalAPIKey), h.Reminders.RefreshLoop)
		}

		playlists := api.Group("/playlists")
		{
			playlists.POST("/generate", h.Playlists.Generate)
		}

		feedback := api.Group("/feedback")
		{
			feedback.POST("/events", h.Feedback.LogEvent)
			feedback.GET("/summary", h.Feedback.Summary)
		}

		meta := api.Group("/meta")
		{
			meta.GET("/capabilities", h.Meta.Capabilities)
		}
	}

	return r
}
