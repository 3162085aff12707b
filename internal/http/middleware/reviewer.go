package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReviewerKey guards the review endpoints. An empty required key disables
// the check for local runs.
func ReviewerKey(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if required == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-Reviewer-Key") != required {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Invalid reviewer key",
				},
			})
			return
		}
		c.Next()
	}
}
