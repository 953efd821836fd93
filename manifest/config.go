package manifest

import (
	"bytes"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/scheduler"
)

// ConfigDocument is the YAML form of the scheduling options. Absent keys
// keep their default value.
type ConfigDocument struct {
	Version         string                  `yaml:"version,omitempty"`
	ScheduleOptions *ScheduleOptions        `yaml:"schedule-options,omitempty"`
	CodeGeneration  *CodeGenerationOptions  `yaml:"code-generation-options,omitempty"`
	CCodeGeneration *CCodeGenerationOptions `yaml:"c-code-generation-options,omitempty"`
}

// ScheduleOptions drive the ordering policy and the memory planner.
type ScheduleOptions struct {
	MemoryOptimization           *bool   `yaml:"memory-optimization,omitempty"`
	SinkPriority                 *bool   `yaml:"sink-priority,omitempty"`
	DisplayFIFOSizes             *bool   `yaml:"display-fifo-sizes,omitempty"`
	DumpSchedule                 *bool   `yaml:"dump-schedule,omitempty"`
	MemStrategy                  *string `yaml:"mem-strategy,omitempty"`
	BufferAllocation             *bool   `yaml:"buffer-allocation,omitempty"`
	DisableDuplicateOptimization *bool   `yaml:"disable-duplicate-optimization,omitempty"`
	Seed                         *int64  `yaml:"seed,omitempty"`
	MaxSteps                     *int    `yaml:"max-steps,omitempty"`
}

// CodeGenerationOptions are read by code emitters.
type CodeGenerationOptions struct {
	DebugLimit *int    `yaml:"debug-limit,omitempty"`
	Prefix     *string `yaml:"fifo-prefix,omitempty"`
}

// CCodeGenerationOptions carry the asynchronous mode settings.
type CCodeGenerationOptions struct {
	Asynchronous      *bool `yaml:"asynchronous,omitempty"`
	FullyAsynchronous *bool `yaml:"fully-asynchronous,omitempty"`
	FIFOIncrease      *int  `yaml:"fifo-increase,omitempty"`
}

// DecodeConfig parses a configuration document. The result has defaults
// applied and is validated.
func DecodeConfig(data []byte) (scheduler.Config, error) {
	return DecodeConfigOver(data, scheduler.DefaultConfig())
}

// DecodeConfigOver parses a configuration document and applies the keys it
// sets over base.
func DecodeConfigOver(data []byte, base scheduler.Config) (scheduler.Config, error) {
	cfg := base
	var doc ConfigDocument
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil && err != io.EOF {
		return cfg, errors.InvalidFormat("configuration document", "YAML configuration document").WithCause(err)
	}
	doc.apply(&cfg)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (d *ConfigDocument) apply(cfg *scheduler.Config) {
	if so := d.ScheduleOptions; so != nil {
		setIf(&cfg.MemoryOptimization, so.MemoryOptimization)
		setIf(&cfg.SinkPriority, so.SinkPriority)
		setIf(&cfg.DisplayFIFOSizes, so.DisplayFIFOSizes)
		setIf(&cfg.DumpSchedule, so.DumpSchedule)
		setIf(&cfg.MemStrategy, so.MemStrategy)
		setIf(&cfg.BufferAllocation, so.BufferAllocation)
		setIf(&cfg.DisableDuplicateOptimization, so.DisableDuplicateOptimization)
		setIf(&cfg.Seed, so.Seed)
		setIf(&cfg.MaxSteps, so.MaxSteps)
	}
	if co := d.CodeGeneration; co != nil {
		setIf(&cfg.DebugLimit, co.DebugLimit)
		setIf(&cfg.Prefix, co.Prefix)
	}
	if cc := d.CCodeGeneration; cc != nil {
		setIf(&cfg.Asynchronous, cc.Asynchronous)
		setIf(&cfg.FullyAsynchronous, cc.FullyAsynchronous)
		setIf(&cfg.FIFOIncrease, cc.FIFOIncrease)
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// EncodeConfig writes the options that differ from scheduler.DefaultConfig.
func EncodeConfig(cfg scheduler.Config) ([]byte, error) {
	def := scheduler.DefaultConfig()
	cfg.ApplyDefaults()
	doc := ConfigDocument{Version: FormatVersion}

	var so ScheduleOptions
	so.MemoryOptimization = changed(cfg.MemoryOptimization, def.MemoryOptimization)
	so.SinkPriority = changed(cfg.SinkPriority, def.SinkPriority)
	so.DisplayFIFOSizes = changed(cfg.DisplayFIFOSizes, def.DisplayFIFOSizes)
	so.DumpSchedule = changed(cfg.DumpSchedule, def.DumpSchedule)
	so.MemStrategy = changed(cfg.MemStrategy, def.MemStrategy)
	so.BufferAllocation = changed(cfg.BufferAllocation, def.BufferAllocation)
	so.DisableDuplicateOptimization = changed(cfg.DisableDuplicateOptimization, def.DisableDuplicateOptimization)
	so.Seed = changed(cfg.Seed, def.Seed)
	so.MaxSteps = changed(cfg.MaxSteps, def.MaxSteps)
	if so != (ScheduleOptions{}) {
		doc.ScheduleOptions = &so
	}

	co := CodeGenerationOptions{
		DebugLimit: changed(cfg.DebugLimit, def.DebugLimit),
		Prefix:     changed(cfg.Prefix, def.Prefix),
	}
	if co != (CodeGenerationOptions{}) {
		doc.CodeGeneration = &co
	}

	cc := CCodeGenerationOptions{
		Asynchronous:      changed(cfg.Asynchronous, def.Asynchronous),
		FullyAsynchronous: changed(cfg.FullyAsynchronous, def.FullyAsynchronous),
		FIFOIncrease:      changed(cfg.FIFOIncrease, def.FIFOIncrease),
	}
	if cc != (CCodeGenerationOptions{}) {
		doc.CCodeGeneration = &cc
	}
	return marshal(&doc)
}

func changed[T comparable](v, def T) *T {
	if v == def {
		return nil
	}
	return &v
}
