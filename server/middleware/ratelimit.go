package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/steadylab/steady/errors"
	"github.com/steadylab/steady/resilience"
)

// KeyFunc extracts the rate limit key from a request.
type KeyFunc func(*gin.Context) string

// IPBasedKey extracts the client IP for use as a rate limit key.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}

// UserBasedKey extracts the authenticated subject, falling back to client IP.
func UserBasedKey(c *gin.Context) string {
	if uid, exists := c.Get("user_id"); exists {
		if s, ok := uid.(string); ok && s != "" {
			return s
		}
	}
	return c.ClientIP()
}

// RateLimit returns a Gin middleware that rejects requests exceeding the
// limiter's budget with 429. The key function defaults to client IP.
func RateLimit(rl *resilience.RateLimiter, keyFunc KeyFunc) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = IPBasedKey
	}
	return func(c *gin.Context) {
		key := keyFunc(c)
		if !rl.AllowClient(key) {
			appErr := apperrors.RateLimited().WithDetail("client", key)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.Next()
	}
}
