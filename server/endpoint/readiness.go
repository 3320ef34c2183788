package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/steadylab/steady/health"
)

// Readiness returns a handler for Kubernetes readiness probes. It reports 503
// while the service is starting up or draining during shutdown.
func Readiness(serviceName string, state *health.State) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ready"
		httpStatus := http.StatusOK
		if state == nil || !state.Ready() {
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":    status,
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
