package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/steadylab/steady/errors"
	"github.com/steadylab/steady/resilience"
)

// Concurrency returns a Gin middleware that sheds load through a bulkhead.
// Requests beyond the concurrency budget are rejected with 503 once the wait
// budget is exhausted.
func Concurrency(b *resilience.Bulkhead) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := b.Execute(c.Request.Context(), func(ctx context.Context) error {
			c.Next()
			return nil
		})
		if err == nil || c.Writer.Written() {
			return
		}
		if errors.Is(err, resilience.ErrBulkheadFull) || errors.Is(err, resilience.ErrBulkheadTimeout) {
			appErr := apperrors.Overloaded()
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		appErr := apperrors.Internal(err)
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
	}
}
