// Package endpoint provides the built-in HTTP handlers for the steady
// server.
package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/steadylab/steady/health"
)

// Liveness returns a handler for Kubernetes liveness probes. It reports 200
// as long as the process can serve HTTP.
func Liveness(serviceName string, state *health.State) gin.HandlerFunc {
	return func(c *gin.Context) {
		if state != nil && !state.Live() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "dead",
				"service": serviceName,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
