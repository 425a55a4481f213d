package middleware

import (
	"net/http"

	"jobtracker/internal/services"

	"github.com/gin-gonic/gin"
)

// RateLimit throttles requests per client IP. A nil limiter disables it.
func RateLimit(limiter *services.IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
