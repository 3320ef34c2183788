package endpoint

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// StatsProviders exposes primitive internals to the /stats endpoint without
// coupling it to concrete types.
type StatsProviders struct {
	CacheStats      func() (hits, misses, evictions uint64)
	CacheLen        func() int
	BreakerState    func() string
	BreakerFailures func() int
	LimiterRejected func() uint64
	BulkheadInUse   func() int
}

// Stats returns a handler that reports runtime and primitive statistics.
func Stats(p StatsProviders) gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		body := gin.H{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"alloc_mb":       m.Alloc / 1024 / 1024,
				"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
				"sys_mb":         m.Sys / 1024 / 1024,
				"gc_runs":        m.NumGC,
			},
		}

		if p.CacheStats != nil {
			hits, misses, evictions := p.CacheStats()
			cacheBody := gin.H{
				"hits":      hits,
				"misses":    misses,
				"evictions": evictions,
			}
			if p.CacheLen != nil {
				cacheBody["entries"] = p.CacheLen()
			}
			body["cache"] = cacheBody
		}
		if p.BreakerState != nil {
			breakerBody := gin.H{"state": p.BreakerState()}
			if p.BreakerFailures != nil {
				breakerBody["failures"] = p.BreakerFailures()
			}
			body["circuit_breaker"] = breakerBody
		}
		if p.LimiterRejected != nil {
			body["rate_limiter"] = gin.H{"rejected": p.LimiterRejected()}
		}
		if p.BulkheadInUse != nil {
			body["bulkhead"] = gin.H{"in_use": p.BulkheadInUse()}
		}

		c.JSON(http.StatusOK, body)
	}
}
