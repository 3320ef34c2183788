package endpoint

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/steadylab/steady/cache"
	apperrors "github.com/steadylab/steady/errors"
	"github.com/steadylab/steady/resilience"
	"github.com/steadylab/steady/server"
)

// FetchFunc loads a value for a key from the upstream dependency.
type FetchFunc func(ctx context.Context, key string) (any, error)

// DataSource composes the resilience primitives around an upstream fetch:
// cache first, then circuit breaker, with retries inside each breaker call.
type DataSource struct {
	Cache   *cache.Cache[any]
	Breaker *resilience.CircuitBreaker
	Retry   resilience.RetryConfig
	Fetch   FetchFunc
	// TTL overrides the cache default for fetched values when positive.
	TTL time.Duration
}

// Get returns the value for key, computing it through the protection stack on
// a cache miss. Concurrent misses for the same key share one fetch.
func (s *DataSource) Get(ctx context.Context, key string) (any, error) {
	return s.Cache.GetOrCompute(ctx, key, func(ctx context.Context) (any, time.Duration, error) {
		value, err := resilience.CallResult(s.Breaker, ctx, func(ctx context.Context) (any, error) {
			return resilience.Retry(ctx, s.Retry, func(ctx context.Context) (any, error) {
				return s.Fetch(ctx, key)
			})
		})
		return value, s.TTL, err
	})
}

// Data returns a handler serving values through the DataSource.
func Data(src *DataSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")
		if key == "" {
			server.RespondWithError(c, apperrors.MissingField("key"))
			return
		}

		value, err := src.Get(c.Request.Context(), key)
		if err != nil {
			server.RespondWithError(c, mapDataError(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"key": key, "data": value})
	}
}

func mapDataError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, resilience.ErrOpenCircuit):
		return apperrors.CircuitOpen("upstream")
	case errors.Is(err, resilience.ErrCancelled):
		return apperrors.Timeout("fetch")
	}
	var attempts *resilience.AttemptsError
	if errors.As(err, &attempts) {
		return apperrors.Upstream("data", err)
	}
	return apperrors.Internal(err)
}
