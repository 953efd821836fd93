package scheduler

import (
	"testing"

	"github.com/kbukum/dataflow/errors"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MemStrategy != "largest_first" {
		t.Errorf("MemStrategy = %q, want largest_first", cfg.MemStrategy)
	}
	if cfg.MaxSteps != DefaultMaxSteps {
		t.Errorf("MaxSteps = %d, want %d", cfg.MaxSteps, DefaultMaxSteps)
	}
	if cfg.SinkPriority || cfg.MemoryOptimization {
		t.Error("greedy policy without memory sharing is the default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown strategy", func(c *Config) { c.MemStrategy = "welsh_powell" }},
		{"negative increase", func(c *Config) { c.FIFOIncrease = -1 }},
		{"negative debug limit", func(c *Config) { c.DebugLimit = -3 }},
		{"negative max steps", func(c *Config) { c.MaxSteps = -1 }},
		{"both async modes", func(c *Config) { c.Asynchronous, c.FullyAsynchronous = true, true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("got %v, want INVALID_INPUT", err)
			}
		})
	}
}
