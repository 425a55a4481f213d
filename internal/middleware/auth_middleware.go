package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// SessionUserKey is the session key holding the signed-in user's id.
const SessionUserKey = "user_id"

// AuthRequired rejects requests whose session has no signed-in user.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		c.Set(SessionUserKey, userID)
		c.Next()
	}
}

// CurrentUserID reads the signed-in user's id from the session.
func CurrentUserID(c *gin.Context) (uint, bool) {
	switch v := sessions.Default(c).Get(SessionUserKey).(type) {
	case uint:
		return v, true
	case int:
		return uint(v), v > 0
	case int64:
		return uint(v), v > 0
	default:
		return 0, false
	}
}
