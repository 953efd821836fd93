package config

import (
	"fmt"

	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/validation"
)

// ServiceConfig holds the fields shared by every deployment of the service:
// identity, environment and logging.
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string        `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults picks the development environment when none is set.
// Development turns debug on; production logs JSON unless told otherwise.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	switch c.Environment {
	case "development":
		c.Debug = true
	case "production":
		if c.Logging.Format == "" {
			c.Logging.Format = logger.FormatJSON
		}
	}
	c.Logging.ApplyDefaults()
}

func (c *ServiceConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
