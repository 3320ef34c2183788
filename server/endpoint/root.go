package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/steadylab/steady/health"
	"github.com/steadylab/steady/version"
)

// Root returns the service greeting handler with basic discovery info.
func Root(serviceName string, state *health.State) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"service": serviceName,
			"version": version.Get().Version,
			"endpoints": []string{
				"/live", "/ready", "/health", "/metrics", "/version",
				"/auth/token", "/protected", "/api/data/:key",
			},
		}
		if state != nil {
			body["uptime"] = state.Uptime().String()
		}
		c.JSON(http.StatusOK, body)
	}
}
