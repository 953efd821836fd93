package component

import "context"

// Component is a lifecycle-managed part of the service, such as the
// telemetry exporters or the HTTP server.
type Component interface {
	// Name identifies the component in logs. It must be unique per registry.
	Name() string

	// Start brings the component up. It must return once the component is
	// ready, leaving long-running work to goroutines.
	Start(ctx context.Context) error

	// Stop releases the component's resources.
	Stop(ctx context.Context) error
}

// Func adapts a pair of functions to a Component. A nil function is a no-op.
type Func struct {
	ID      string
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

// Name implements Component.
func (f Func) Name() string { return f.ID }

// Start implements Component.
func (f Func) Start(ctx context.Context) error {
	if f.OnStart == nil {
		return nil
	}
	return f.OnStart(ctx)
}

// Stop implements Component.
func (f Func) Stop(ctx context.Context) error {
	if f.OnStop == nil {
		return nil
	}
	return f.OnStop(ctx)
}
