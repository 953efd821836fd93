package config

import (
	"fmt"
	"time"

	"github.com/kbukum/dataflow/observability"
	"github.com/kbukum/dataflow/redis"
	"github.com/kbukum/dataflow/scheduler"
	"github.com/kbukum/dataflow/server"
	"github.com/kbukum/dataflow/version"
)

// Config is a configuration struct Load can finish.
type Config interface {
	ApplyDefaults()
	Validate() error
}

// AppConfig is the configuration of the sdfsched command.
//
//	name: sdfsched
//	environment: production
//	graph_dirs: [./graphs]
//	schedule:
//	  memory_optimization: true
//	server:
//	  port: 8080
//	telemetry:
//	  enabled: true
//	  endpoint: otel-collector:4318
//	cache:
//	  enabled: true
//	  addr: redis:6379
type AppConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// GraphDirs are searched for graph documents given by name.
	GraphDirs []string         `yaml:"graph_dirs" mapstructure:"graph_dirs"`
	Schedule  scheduler.Config `yaml:"schedule" mapstructure:"schedule"`
	Server    server.Config    `yaml:"server" mapstructure:"server"`
	Telemetry TelemetryConfig  `yaml:"telemetry" mapstructure:"telemetry"`
	// Cache keeps served schedules in Redis.
	Cache redis.Config `yaml:"cache" mapstructure:"cache"`
}

// ApplyDefaults applies defaults to every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "sdfsched"
	}
	if c.Version == "" {
		c.Version = version.Version
	}
	c.ServiceConfig.ApplyDefaults()
	if len(c.GraphDirs) == 0 {
		c.GraphDirs = []string{"."}
	}
	c.Schedule.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
	c.Cache.ApplyDefaults()
}

// Validate validates every section.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Schedule.Validate(); err != nil {
		return fmt.Errorf("config.schedule: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	return c.Cache.Validate()
}

// TelemetryConfig configures OTLP trace and metric export.
type TelemetryConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	Interval   int     `yaml:"interval" mapstructure:"interval"` // seconds
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *TelemetryConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.Interval == 0 {
		c.Interval = 15
	}
}

// Validate checks the configuration for invalid values.
func (c *TelemetryConfig) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be between 0 and 1 (got: %g)", c.SampleRate)
	}
	if c.Interval < 0 {
		return fmt.Errorf("telemetry.interval must be non-negative (got: %d)", c.Interval)
	}
	return nil
}

// ExportConfig derives the OTLP export settings of the service.
func (c *AppConfig) ExportConfig() observability.Config {
	oc := observability.DefaultConfig(c.Name)
	oc.ServiceVersion = c.Version
	oc.Environment = c.Environment
	oc.Endpoint = c.Telemetry.Endpoint
	oc.Insecure = c.Telemetry.Insecure
	oc.SampleRate = c.Telemetry.SampleRate
	oc.Interval = time.Duration(c.Telemetry.Interval) * time.Second
	return oc
}
