package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/steadylab/steady/health"
)

// Health returns a handler that reports detailed service health including
// dependency check results.
func Health(serviceName string, state *health.State) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		httpStatus := http.StatusOK

		var checks []health.CheckResult
		if state != nil {
			checks = state.RunChecks(c.Request.Context())
			for _, res := range checks {
				if !res.Healthy {
					status = "unhealthy"
					httpStatus = http.StatusServiceUnavailable
					break
				}
			}
		}

		body := gin.H{
			"status":    status,
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if state != nil {
			body["uptime"] = state.Uptime().String()
			body["ready"] = state.Ready()
		}
		if len(checks) > 0 {
			body["checks"] = checks
		}
		c.JSON(httpStatus, body)
	}
}
