package redis

import (
	"fmt"
	"time"
)

// Config holds the Redis connection and cache settings.
type Config struct {
	// Enabled turns the schedule cache on.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Addr is the Redis server address (host:port).
	Addr string `yaml:"addr" mapstructure:"addr"`

	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`

	// PoolSize is the maximum number of socket connections.
	PoolSize     int `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`

	// Timeouts, as Go durations ("5s", "300ms").
	DialTimeout  string `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  string `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout" mapstructure:"write_timeout"`

	// KeyPrefix namespaces every cache key.
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`

	// Expiration is how long a cached schedule lives ("1h"). "0" keeps it forever.
	Expiration string `yaml:"expiration" mapstructure:"expiration"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns <= 0 {
		c.MinIdleConns = 2
	}
	if c.DialTimeout == "" {
		c.DialTimeout = "5s"
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "1s"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "1s"
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "sdfsched"
	}
	if c.Expiration == "" {
		c.Expiration = "1h"
	}
}

// Validate checks that durations parse. A disabled cache is not checked.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return fmt.Errorf("cache.addr is required")
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("cache.pool_size must be > 0")
	}
	for name, v := range map[string]string{
		"dial_timeout":  c.DialTimeout,
		"read_timeout":  c.ReadTimeout,
		"write_timeout": c.WriteTimeout,
		"expiration":    c.Expiration,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid cache.%s %q: %w", name, v, err)
		}
		if d < 0 {
			return fmt.Errorf("cache.%s must be non-negative (got: %s)", name, v)
		}
	}
	return nil
}

// TTL returns the parsed expiration; zero means no expiry.
func (c *Config) TTL() time.Duration {
	d, _ := time.ParseDuration(c.Expiration)
	return d
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
