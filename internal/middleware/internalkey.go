package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// InternalKey guards operator-only endpoints behind a shared key. An empty
// configured key disables the endpoints entirely rather than leaving them
// open.
func InternalKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader("X-Internal-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "Invalid internal key",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
