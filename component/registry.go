package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/observability"
)

const defaultStopTimeout = 10 * time.Second

type entry struct {
	component Component
	started   bool
}

// Registry manages component lifecycle with deterministic ordering.
type Registry struct {
	mu          sync.Mutex
	entries     []*entry
	names       map[string]bool
	stopTimeout time.Duration
	log         *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		names:       make(map[string]bool),
		stopTimeout: defaultStopTimeout,
		log:         log.WithComponent("lifecycle"),
	}
}

// Register adds c. Register dependencies first.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if r.names[name] {
		return fmt.Errorf("component %s already registered", name)
	}
	r.names[name] = true
	r.entries = append(r.entries, &entry{component: c})
	r.log.Debug("component registered", logger.Fields("component", name))
	return nil
}

// StartAll starts every component in registration order. When one fails,
// those already started are stopped again and the start error is returned.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		name := e.component.Name()
		start := time.Now()
		if err := e.component.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.Fields("component", name, "error", err.Error()))
			if stopErr := r.stopStarted(context.WithoutCancel(ctx)); stopErr != nil {
				return errors.Join(fmt.Errorf("start %s: %w", name, err), stopErr)
			}
			return fmt.Errorf("start %s: %w", name, err)
		}
		e.started = true
		r.log.Debug("component started", logger.Fields(
			"component", name,
			"duration_ms", time.Since(start).Milliseconds(),
		))
	}
	return nil
}

// StopAll stops the started components in reverse registration order, each
// within its own timeout. Every component is asked to stop even when an
// earlier one fails.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopStarted(ctx)
}

func (r *Registry) stopStarted(ctx context.Context) error {
	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if !e.started {
			continue
		}
		name := e.component.Name()
		stopCtx, cancel := context.WithTimeout(ctx, r.stopTimeout)
		err := e.component.Stop(stopCtx)
		cancel()
		e.started = false
		if err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", name, err))
			r.log.Error("component stop failed", logger.Fields("component", name, "error", err.Error()))
			continue
		}
		r.log.Debug("component stopped", logger.Fields("component", name))
	}
	return errors.Join(errs...)
}

// Checkers returns the registered components that report health.
func (r *Registry) Checkers() []observability.HealthChecker {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []observability.HealthChecker
	for _, e := range r.entries {
		if hc, ok := e.component.(observability.HealthChecker); ok {
			out = append(out, hc)
		}
	}
	return out
}

// Names returns the component names in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.component.Name()
	}
	return names
}
