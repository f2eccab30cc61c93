package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/rynno/rynno-backend-go/internal/lexicon"
	"github.com/rynno/rynno-backend-go/pkg/response"
)

// MetaHandler exposes static capability metadata for clients
type MetaHandler struct{}

// NewMetaHandler creates a new meta handler
func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

// Capabilities handles GET /api/v1/meta/capabilities
func (h *MetaHandler) Capabilities(c *gin.Context) {
	clusters := make([]string, 0, len(lexicon.Clusters))
	for _, cluster := range lexicon.Clusters {
		clusters = append(clusters, cluster.ID)
	}

	response.Success(c, gin.H{
		"tripSources":      []string{"rail", "map", "manual", "shared"},
		"eraClusters":      clusters,
		"reminderChannels": []string{"in_app"},
		"moodHints":        []string{"calm", "energetic", "adventurous", "reflective", "cinematic"},
		"lyricSafety":      []string{"clean", "any"},
	})
}
