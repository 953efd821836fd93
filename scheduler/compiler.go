package scheduler

import (
	"context"
	"time"

	"github.com/kbukum/dataflow/graph"
	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/observability"
)

// Compiler turns a graph into a schedule. Decorators add tracing, metrics
// and logging around Compute.
type Compiler interface {
	Name() string
	Compile(ctx context.Context, g *graph.Graph) (*Schedule, error)
}

// NewCompiler returns a Compiler running Compute with cfg.
func NewCompiler(name string, cfg Config) Compiler {
	return &compiler{name: name, cfg: cfg}
}

type compiler struct {
	name string
	cfg  Config
}

func (c *compiler) Name() string { return c.name }

func (c *compiler) Compile(ctx context.Context, g *graph.Graph) (*Schedule, error) {
	return Compute(ctx, g, c.cfg)
}

// WithTracing wraps a Compiler with OpenTelemetry span creation.
// Each compilation creates a span named "{prefix}.{name}".
func WithTracing(c Compiler, prefix string) Compiler {
	return &tracingCompiler{inner: c, prefix: prefix}
}

type tracingCompiler struct {
	inner  Compiler
	prefix string
}

func (c *tracingCompiler) Name() string { return c.inner.Name() }

func (c *tracingCompiler) Compile(ctx context.Context, g *graph.Graph) (*Schedule, error) {
	ctx, span := observability.StartSpan(ctx, c.prefix+"."+c.inner.Name())
	defer span.End()

	observability.SetSpanAttribute(ctx, "graph.nodes", g.NodeCount())
	s, err := c.inner.Compile(ctx, g)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	observability.SetSpanAttribute(ctx, "schedule.policy", string(s.Policy()))
	observability.SetSpanAttribute(ctx, "schedule.steps", s.Length())
	observability.SetSpanAttribute(ctx, "schedule.memory", s.Memory())
	return s, nil
}

// WithMetrics wraps a Compiler with metric recording.
func WithMetrics(c Compiler, metrics *observability.Metrics) Compiler {
	return &metricsCompiler{inner: c, metrics: metrics}
}

type metricsCompiler struct {
	inner   Compiler
	metrics *observability.Metrics
}

func (c *metricsCompiler) Name() string { return c.inner.Name() }

func (c *metricsCompiler) Compile(ctx context.Context, g *graph.Graph) (*Schedule, error) {
	start := time.Now()
	s, err := c.inner.Compile(ctx, g)
	duration := time.Since(start)

	if err != nil {
		c.metrics.RecordError(ctx, "compile", c.inner.Name())
		c.metrics.RecordSchedule(ctx, "", "error", duration, 0, 0)
		return nil, err
	}
	c.metrics.RecordSchedule(ctx, string(s.Policy()), "ok", duration, s.Memory(), s.Length())
	return s, nil
}

// WithLogging wraps a Compiler with compilation logging.
func WithLogging(c Compiler, log *logger.Logger) Compiler {
	return &loggingCompiler{inner: c, log: log}
}

type loggingCompiler struct {
	inner Compiler
	log   *logger.Logger
}

func (c *loggingCompiler) Name() string { return c.inner.Name() }

func (c *loggingCompiler) Compile(ctx context.Context, g *graph.Graph) (*Schedule, error) {
	start := time.Now()
	s, err := c.inner.Compile(ctx, g)

	fields := logger.DurationFields("compile", time.Since(start))
	fields["compiler"] = c.inner.Name()
	if err != nil {
		c.log.WithError(err).Error("schedule compilation failed", fields)
		return nil, err
	}
	fields[logger.FieldPolicy] = string(s.Policy())
	fields["steps"] = s.Length()
	fields["memory"] = s.Memory()
	c.log.Info("schedule compiled", fields)
	return s, nil
}
