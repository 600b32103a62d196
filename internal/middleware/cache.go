package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CacheControl marks successful anonymous GET responses as publicly cacheable
// for maxAgeSeconds. Authenticated or non-GET responses are marked no-store.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet && c.GetHeader("Authorization") == "" {
			c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAgeSeconds))
		} else {
			c.Header("Cache-Control", "no-store")
		}
		c.Next()
	}
}
