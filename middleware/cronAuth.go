package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"lejio/config"

	"github.com/gin-gonic/gin"
)

// CronAuthMiddleware guards the externally scheduled sweep triggers with the
// shared CRON_SECRET bearer token. When no secret is configured the check is
// skipped, which keeps local development friction-free.
func CronAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := config.AppConfig.CronSecret
		if secret == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
