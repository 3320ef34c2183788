package cache

import (
	"fmt"
	"time"
)

// Config configures a Cache.
type Config struct {
	// MaxEntries is the maximum number of entries held at once.
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
	// DefaultTTL is the time-to-live used by Set and by computations that
	// return a non-positive TTL.
	DefaultTTL time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	// ProbabilisticExpiration enables early eviction of still-valid entries
	// to desynchronize mass refresh events.
	ProbabilisticExpiration bool `yaml:"probabilistic_expiration" mapstructure:"probabilistic_expiration"`
	// ExpirationProbability is the chance (0.0 to 1.0) that a read of an
	// unexpired entry is treated as a miss.
	ExpirationProbability float64 `yaml:"expiration_probability" mapstructure:"expiration_probability"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxEntries:              1000,
		DefaultTTL:              5 * time.Minute,
		ProbabilisticExpiration: true,
		ExpirationProbability:   0.1,
	}
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.MaxEntries <= 0 {
		c.MaxEntries = 1000
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = 5 * time.Minute
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.ExpirationProbability < 0 || c.ExpirationProbability > 1 {
		return fmt.Errorf("cache.expiration_probability must be in [0, 1] (got: %v)", c.ExpirationProbability)
	}
	return nil
}
