package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/steadylab/steady/metrics"
)

// Metrics returns a Gin middleware that records request counts, latency, and
// in-flight connections. The route template (c.FullPath) is used as the path
// label to keep cardinality bounded.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isProbeEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		m.ActiveConnections.Inc()
		start := time.Now()

		c.Next()

		m.ActiveConnections.Dec()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
