// Command steady runs the resilience-protected HTTP service: a JWT-secured
// API serving upstream data through a stampede-protected cache, circuit
// breaker, retries, rate limiting, and a concurrency bulkhead.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/steadylab/steady/auth"
	"github.com/steadylab/steady/cache"
	"github.com/steadylab/steady/config"
	"github.com/steadylab/steady/health"
	"github.com/steadylab/steady/logger"
	"github.com/steadylab/steady/metrics"
	"github.com/steadylab/steady/resilience"
	"github.com/steadylab/steady/server"
	"github.com/steadylab/steady/server/endpoint"
	"github.com/steadylab/steady/server/middleware"
	"github.com/steadylab/steady/tracing"
	"github.com/steadylab/steady/upstream"
	"github.com/steadylab/steady/version"
)

func main() {
	configFile := flag.String("config", "", "path to config file (default: search standard locations)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Short())
		return
	}

	if err := run(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "steady: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}

	var cfg config.Config
	if err := config.Load(&cfg, opts...); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Init(cfg.Logging)
	log := logger.GetGlobalLogger()
	log.Info("starting", logger.Fields(
		"service", cfg.Name,
		"version", version.Short(),
		"environment", cfg.Environment,
	))

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, cfg.Name, version.Get().Version, cfg.Environment, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.WithError(err).Warn("tracing shutdown failed")
		}
	}()

	// Resilience primitives.
	dataCache := cache.New[any](cfg.Cache)
	breaker := resilience.NewCircuitBreaker(cfg.Resilience.Breaker.ToCircuitBreakerConfig("upstream"))
	limiter := resilience.NewRateLimiter(cfg.Resilience.RateLimit.ToRateLimiterConfig("api"))
	bulkhead := resilience.NewBulkhead(cfg.Resilience.Bulkhead.ToBulkheadConfig("api"))
	retryCfg := cfg.Resilience.Retry.ToRetryConfig()

	// Open breakers recover via periodic timeout checks, not via traffic.
	breakerDone := make(chan struct{})
	defer close(breakerDone)
	go breakerTicker(cfg.Resilience.Breaker.CheckInterval, breaker, breakerDone)

	authService, err := auth.NewService(&cfg.Auth)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}
	users, err := seedUsers()
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	state := health.NewState()
	state.RegisterCheck("circuit_breaker", func(ctx context.Context) error {
		if breaker.State() == resilience.StateOpen {
			return fmt.Errorf("circuit %s is open", "upstream")
		}
		return nil
	})

	m := metrics.New()
	m.RegisterCacheStats("data", func() (uint64, uint64, uint64) {
		s := dataCache.Stats()
		return s.Hits, s.Misses, s.Evictions
	})
	m.RegisterCacheSize("data", dataCache.Len)
	m.RegisterBreakerState("upstream", func() int { return int(breaker.State()) })
	m.RegisterRateLimiterRejections("api", limiter.Rejected)

	fetch := simulatedFetch
	if cfg.Upstream.Enabled() {
		client, err := upstream.New(cfg.Upstream)
		if err != nil {
			return fmt.Errorf("init upstream client: %w", err)
		}
		fetch = func(ctx context.Context, key string) (any, error) {
			return client.FetchJSON(ctx, "/data/"+key)
		}
		log.Info("upstream configured", logger.Fields("base_url", cfg.Upstream.BaseURL))
	}

	dataSource := &endpoint.DataSource{
		Cache:   dataCache,
		Breaker: breaker,
		Retry:   retryCfg,
		Fetch:   fetch,
		TTL:     cfg.Cache.DefaultTTL,
	}

	srv := server.New(cfg.Server, state, log)
	srv.ApplyMiddleware()

	r := srv.GinEngine()
	r.Use(middleware.Metrics(m))
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing())
	}

	// Probes and operational endpoints stay outside auth and rate limits.
	r.GET("/", endpoint.Root(cfg.Name, state))
	r.GET("/live", endpoint.Liveness(cfg.Name, state))
	r.GET("/ready", endpoint.Readiness(cfg.Name, state))
	r.GET("/health", endpoint.Health(cfg.Name, state))
	r.GET("/version", endpoint.Version())
	srv.Handle("/metrics", m.Handler())

	r.POST("/auth/token", endpoint.Token(authService, users))

	// Auth runs first so the limiter keys on the authenticated subject
	// rather than falling back to the client IP.
	api := r.Group("/")
	api.Use(middleware.Auth(authService))
	api.Use(middleware.RateLimit(limiter, middleware.UserBasedKey))
	api.Use(middleware.Concurrency(bulkhead))
	{
		api.GET("/protected", endpoint.Protected())
		api.GET("/api/data/:key",
			middleware.RequirePermission(nil, auth.PermissionRead),
			endpoint.Data(dataSource))
		api.GET("/admin/stats",
			middleware.RequireRole(auth.RoleAdmin),
			endpoint.Stats(endpoint.StatsProviders{
				CacheStats: func() (uint64, uint64, uint64) {
					s := dataCache.Stats()
					return s.Hits, s.Misses, s.Evictions
				},
				CacheLen:        dataCache.Len,
				BreakerState:    func() string { return breaker.State().String() },
				BreakerFailures: breaker.Failures,
				LimiterRejected: limiter.Rejected,
				BulkheadInUse:   bulkhead.InUse,
			}))
	}

	return srv.Run(ctx)
}

// breakerTicker drives open-to-half-open transitions on a fixed interval so
// recovery does not depend on incoming traffic.
func breakerTicker(interval time.Duration, breaker *resilience.CircuitBreaker, done <-chan struct{}) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			breaker.CheckTimeout()
		case <-done:
			return
		}
	}
}

// seedUsers builds the in-memory credential store. Replace with a real user
// backend before exposing this service anywhere that matters.
func seedUsers() (*auth.UserStore, error) {
	store := auth.NewUserStore()
	seeds := []struct {
		username string
		password string
		roles    []string
	}{
		{"admin", envOr("STEADY_ADMIN_PASSWORD", "admin-password"), []string{auth.RoleAdmin}},
		{"demo", envOr("STEADY_DEMO_PASSWORD", "demo-password"), []string{auth.RoleUser}},
	}
	for _, s := range seeds {
		if err := store.Add(s.username, s.password, s.roles); err != nil {
			return nil, fmt.Errorf("add user %s: %w", s.username, err)
		}
	}
	return store, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// simulatedFetch stands in for the upstream dependency when no base URL is
// configured, so the service runs out of the box.
func simulatedFetch(ctx context.Context, key string) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(50 * time.Millisecond):
	}
	return map[string]any{
		"key":        key,
		"value":      fmt.Sprintf("payload-%s", key),
		"fetched_at": time.Now().UTC().Format(time.RFC3339),
	}, nil
}
