package config

import (
	"fmt"
	"time"

	"github.com/steadylab/steady/auth"
	"github.com/steadylab/steady/cache"
	"github.com/steadylab/steady/logger"
	"github.com/steadylab/steady/resilience"
	"github.com/steadylab/steady/server"
	"github.com/steadylab/steady/tracing"
	"github.com/steadylab/steady/upstream"
)

// Config is the full service configuration.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging    logger.Config    `yaml:"logging" mapstructure:"logging"`
	Server     server.Config    `yaml:"server" mapstructure:"server"`
	Auth       auth.Config      `yaml:"auth" mapstructure:"auth"`
	Tracing    tracing.Config   `yaml:"tracing" mapstructure:"tracing"`
	Cache      cache.Config     `yaml:"cache" mapstructure:"cache"`
	Upstream   upstream.Config  `yaml:"upstream" mapstructure:"upstream"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
}

// ResilienceConfig groups the resilience primitive settings. The sections use
// plain scalars so they unmarshal cleanly; converters produce the runtime
// configs.
type ResilienceConfig struct {
	Breaker   BreakerConfig   `yaml:"breaker" mapstructure:"breaker"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Bulkhead  BulkheadConfig  `yaml:"bulkhead" mapstructure:"bulkhead"`
}

// BreakerConfig configures the circuit breaker protecting upstream calls.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
	SuccessThreshold int           `yaml:"success_threshold" mapstructure:"success_threshold"`
	CheckInterval    time.Duration `yaml:"check_interval" mapstructure:"check_interval"`
}

// ToCircuitBreakerConfig converts to the runtime config.
func (c BreakerConfig) ToCircuitBreakerConfig(name string) resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig(name)
	if c.FailureThreshold > 0 {
		cfg.FailureThreshold = c.FailureThreshold
	}
	if c.Timeout > 0 {
		cfg.Timeout = c.Timeout
	}
	if c.SuccessThreshold > 0 {
		cfg.SuccessThreshold = c.SuccessThreshold
	}
	return cfg
}

// RateLimitConfig configures per-client request limiting.
type RateLimitConfig struct {
	Algorithm       string  `yaml:"algorithm" mapstructure:"algorithm"`
	MaxTokens       float64 `yaml:"max_tokens" mapstructure:"max_tokens"`
	RefillPerSecond float64 `yaml:"refill_per_second" mapstructure:"refill_per_second"`
	Capacity        int     `yaml:"capacity" mapstructure:"capacity"`
	LeakPerSecond   float64 `yaml:"leak_per_second" mapstructure:"leak_per_second"`
	PerClient       bool    `yaml:"per_client" mapstructure:"per_client"`
}

// ToRateLimiterConfig converts to the runtime config.
func (c RateLimitConfig) ToRateLimiterConfig(name string) resilience.RateLimiterConfig {
	algo := resilience.TokenBucket
	if c.Algorithm == "leaky_bucket" {
		algo = resilience.LeakyBucket
	}
	return resilience.RateLimiterConfig{
		Name:            name,
		Algorithm:       algo,
		MaxTokens:       c.MaxTokens,
		RefillPerSecond: c.RefillPerSecond,
		Capacity:        c.Capacity,
		LeakPerSecond:   c.LeakPerSecond,
		PerClient:       c.PerClient,
	}
}

// RetryConfig configures retry behavior for upstream calls.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay" mapstructure:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" mapstructure:"multiplier"`
	Jitter       float64       `yaml:"jitter" mapstructure:"jitter"`
	Exponential  bool          `yaml:"exponential" mapstructure:"exponential"`
}

// ToRetryConfig converts to the runtime config.
func (c RetryConfig) ToRetryConfig() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	if c.MaxAttempts > 0 {
		cfg.MaxAttempts = c.MaxAttempts
	}
	if c.InitialDelay > 0 {
		cfg.InitialDelay = c.InitialDelay
	}
	if c.MaxDelay > 0 {
		cfg.MaxDelay = c.MaxDelay
	}
	if c.Multiplier > 0 {
		cfg.Multiplier = c.Multiplier
	}
	if c.Jitter > 0 {
		cfg.Jitter = c.Jitter
	}
	cfg.Exponential = c.Exponential || c.Multiplier > 1
	return cfg
}

// BulkheadConfig configures concurrency limiting.
type BulkheadConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	MaxWait       time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
}

// ToBulkheadConfig converts to the runtime config.
func (c BulkheadConfig) ToBulkheadConfig(name string) resilience.BulkheadConfig {
	cfg := resilience.DefaultBulkheadConfig(name)
	if c.MaxConcurrent > 0 {
		cfg.MaxConcurrent = c.MaxConcurrent
	}
	if c.MaxWait > 0 {
		cfg.MaxWait = c.MaxWait
	}
	return cfg
}

// ApplyDefaults applies default values across all sections.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "steady"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Resilience.Breaker.CheckInterval <= 0 {
		c.Resilience.Breaker.CheckInterval = time.Second
	}
	c.Logging.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Tracing.ApplyDefaults()
	c.Cache.ApplyDefaults()
	c.Upstream.ApplyDefaults()
}

// Validate validates all sections.
func (c *Config) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("environment must be one of %v (got: %s)", validEnvs, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Upstream.Validate(); err != nil {
		return fmt.Errorf("upstream: %w", err)
	}
	if c.Resilience.RateLimit.Algorithm != "" &&
		c.Resilience.RateLimit.Algorithm != "token_bucket" &&
		c.Resilience.RateLimit.Algorithm != "leaky_bucket" {
		return fmt.Errorf("resilience.rate_limit.algorithm must be token_bucket or leaky_bucket (got: %s)", c.Resilience.RateLimit.Algorithm)
	}
	return nil
}
