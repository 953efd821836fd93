package server

import (
	"fmt"

	"github.com/kbukum/dataflow/util"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string `yaml:"host" mapstructure:"host"`
	Port         int    `yaml:"port" mapstructure:"port"`
	ReadTimeout  int    `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int    `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds
	IdleTimeout  int    `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
	MaxBodySize  string `yaml:"max_body_size" mapstructure:"max_body_size"` // e.g. "10MB"
	// ScheduleTimeout bounds one schedule computation, in seconds.
	ScheduleTimeout int `yaml:"schedule_timeout" mapstructure:"schedule_timeout"`
	// MaxConcurrent caps simultaneous schedule computations. Zero means one per CPU.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// QueueTimeout is how long a request waits for a free slot, in seconds.
	QueueTimeout int `yaml:"queue_timeout" mapstructure:"queue_timeout"`
	// RateLimit is the sustained requests per second allowed per client; 0 disables it.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "10MB"
	}
	if c.ScheduleTimeout == 0 {
		c.ScheduleTimeout = 20
	}
	if c.QueueTimeout == 0 {
		c.QueueTimeout = 5
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("server.read_timeout must be non-negative (got: %d)", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must be non-negative (got: %d)", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("server.idle_timeout must be non-negative (got: %d)", c.IdleTimeout)
	}
	if c.MaxBodySize != "" {
		if _, err := util.ParseSize(c.MaxBodySize); err != nil {
			return fmt.Errorf("server.max_body_size: %w", err)
		}
	}
	if c.ScheduleTimeout < 0 {
		return fmt.Errorf("server.schedule_timeout must be non-negative (got: %d)", c.ScheduleTimeout)
	}
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("server.max_concurrent must be non-negative (got: %d)", c.MaxConcurrent)
	}
	if c.QueueTimeout < 0 {
		return fmt.Errorf("server.queue_timeout must be non-negative (got: %d)", c.QueueTimeout)
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return fmt.Errorf("server.rate_limit and server.rate_burst must be non-negative (got: %g, %d)", c.RateLimit, c.RateBurst)
	}
	return nil
}

// BodyLimit returns MaxBodySize in bytes, 0 (no limit) when unset.
func (c *Config) BodyLimit() int64 {
	n, err := util.ParseSize(c.MaxBodySize)
	if err != nil {
		return 0
	}
	return n
}
