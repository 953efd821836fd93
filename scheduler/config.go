package scheduler

import (
	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/memory"
	"github.com/kbukum/dataflow/validation"
)

// Config holds the scheduling options.
type Config struct {
	// MemoryOptimization lets array FIFOs share buffers.
	MemoryOptimization bool `yaml:"memory-optimization" mapstructure:"memory_optimization" json:"memory_optimization"`
	// SinkPriority selects the sink-first policy.
	SinkPriority bool `yaml:"sink-priority" mapstructure:"sink_priority" json:"sink_priority"`
	// MemStrategy is the graph coloring strategy of the memory planner.
	MemStrategy string `yaml:"mem-strategy" mapstructure:"mem_strategy" json:"mem_strategy" validate:"omitempty,oneof=largest_first smallest_last random_sequential independent_set connected_sequential_bfs connected_sequential_dfs saturation_largest_first"`
	// DisableDuplicateOptimization keeps every duplicate node copy.
	DisableDuplicateOptimization bool `yaml:"disable-duplicate-optimization" mapstructure:"disable_duplicate_optimization" json:"disable_duplicate_optimization"`
	// BufferAllocation asks emitters to let the host allocate buffers.
	BufferAllocation bool `yaml:"buffer-allocation" mapstructure:"buffer_allocation" json:"buffer_allocation"`
	// Asynchronous scales FIFO lengths for data-dependent rates.
	Asynchronous bool `yaml:"asynchronous" mapstructure:"asynchronous" json:"asynchronous"`
	// FullyAsynchronous skips rate analysis and sizes FIFOs from edge async lengths.
	FullyAsynchronous bool `yaml:"fully-asynchronous" mapstructure:"fully_asynchronous" json:"fully_asynchronous"`
	// FIFOIncrease is the percentage added to FIFO lengths in asynchronous mode.
	FIFOIncrease int `yaml:"fifo-increase" mapstructure:"fifo_increase" json:"fifo_increase" validate:"min=0"`
	// DebugLimit bounds the number of schedule iterations emitted code runs. 0 means unbounded.
	DebugLimit int `yaml:"debug-limit" mapstructure:"debug_limit" json:"debug_limit" validate:"min=0"`
	// DumpSchedule logs the node sequence.
	DumpSchedule bool `yaml:"dump-schedule" mapstructure:"dump_schedule" json:"dump_schedule"`
	// DisplayFIFOSizes logs FIFO occupancy after every step.
	DisplayFIFOSizes bool `yaml:"display-fifo-sizes" mapstructure:"display_fifo_sizes" json:"display_fifo_sizes"`
	// Prefix is prepended to generated buffer names.
	Prefix string `yaml:"prefix" mapstructure:"prefix" json:"prefix"`
	// Seed drives the random_sequential strategy.
	Seed int64 `yaml:"seed" mapstructure:"seed" json:"seed"`
	// MaxSteps bounds the activations of one schedule period. Graphs needing
	// more are rejected before any simulation.
	MaxSteps int `yaml:"max-steps" mapstructure:"max_steps" json:"max_steps" validate:"min=0"`
}

// DefaultMaxSteps is the MaxSteps of DefaultConfig.
const DefaultMaxSteps = 1 << 20

// DefaultConfig returns a Config with defaults applied.
func DefaultConfig() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.MemStrategy == "" {
		c.MemStrategy = string(memory.LargestFirst)
	}
	if c.MaxSteps == 0 {
		c.MaxSteps = DefaultMaxSteps
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.Asynchronous && c.FullyAsynchronous {
		return errors.InvalidInput("fully_asynchronous", "asynchronous and fully asynchronous modes are mutually exclusive")
	}
	return nil
}

// Policy names the ordering policy a schedule was built with.
type Policy string

const (
	PolicyGreedy            Policy = "greedy"
	PolicySinkPriority      Policy = "sink-priority"
	PolicyFullyAsynchronous Policy = "fully-asynchronous"
)

// policy is the policy c asks for. Sink priority may still fall back to
// greedy on graphs with loops.
func (c *Config) policy() Policy {
	switch {
	case c.FullyAsynchronous:
		return PolicyFullyAsynchronous
	case c.SinkPriority:
		return PolicySinkPriority
	default:
		return PolicyGreedy
	}
}
