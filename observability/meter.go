package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	), nil
}

// Meter returns a named meter from the global provider. Instruments created
// before Init delegate to the provider Init installs.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments of the schedule service.
type Metrics struct {
	requestTotal      metric.Int64Counter
	requestDuration   metric.Float64Histogram
	requestActive     metric.Int64UpDownCounter
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	errorTotal        metric.Int64Counter
	scheduleTotal     metric.Int64Counter
	scheduleDuration  metric.Float64Histogram
	scheduleMemory    metric.Int64Histogram
	scheduleSteps     metric.Int64Histogram
}

// instruments creates instruments on one meter and keeps the first error.
type instruments struct {
	meter metric.Meter
	err   error
}

func (b *instruments) fail(name string, err error) {
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("creating %s: %w", name, err)
	}
}

func (b *instruments) counter(name, desc string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc))
	b.fail(name, err)
	return c
}

func (b *instruments) upDown(name, desc string) metric.Int64UpDownCounter {
	c, err := b.meter.Int64UpDownCounter(name, metric.WithDescription(desc))
	b.fail(name, err)
	return c
}

func (b *instruments) seconds(name, desc string) metric.Float64Histogram {
	h, err := b.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	b.fail(name, err)
	return h
}

func (b *instruments) histogram(name, desc, unit string) metric.Int64Histogram {
	h, err := b.meter.Int64Histogram(name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.fail(name, err)
	return h
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	b := &instruments{meter: meter}
	m := &Metrics{
		requestTotal:      b.counter("request.total", "Handled requests"),
		requestDuration:   b.seconds("request.duration", "Request latency"),
		requestActive:     b.upDown("request.active", "Requests in flight"),
		operationTotal:    b.counter("operation.total", "Auxiliary operations such as cache lookups"),
		operationDuration: b.seconds("operation.duration", "Auxiliary operation latency"),
		errorTotal:        b.counter("error.total", "Errors by type and component"),
		scheduleTotal:     b.counter("schedule.total", "Schedule computations"),
		scheduleDuration:  b.seconds("schedule.duration", "Schedule computation time"),
		scheduleMemory:    b.histogram("schedule.memory", "Buffer memory of computed schedules", "By"),
		scheduleSteps:     b.histogram("schedule.steps", "Activations per schedule period", "{activation}"),
	}
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

// RecordRequestStart counts a request in flight.
func (m *Metrics) RecordRequestStart(ctx context.Context) {
	m.requestActive.Add(ctx, 1)
}

// RecordRequestEnd closes a request opened by RecordRequestStart.
func (m *Metrics) RecordRequestEnd(ctx context.Context, service, method, status string, duration time.Duration) {
	m.requestActive.Add(ctx, -1)
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("method", method),
		attribute.String("status", status),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("method", method),
	))
}

// RecordOperation records an auxiliary operation, e.g. a cache lookup with
// status "hit", "miss" or "error".
func (m *Metrics) RecordOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
	))
}

// RecordError counts an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}

// RecordSchedule records one schedule computation. memoryBytes and steps are
// only recorded for successful computations.
func (m *Metrics) RecordSchedule(ctx context.Context, policy, status string, duration time.Duration, memoryBytes, steps int) {
	attrs := metric.WithAttributes(
		attribute.String("policy", policy),
		attribute.String("status", status),
	)
	m.scheduleTotal.Add(ctx, 1, attrs)
	m.scheduleDuration.Record(ctx, duration.Seconds(), attrs)
	if status != "ok" {
		return
	}
	policyAttr := metric.WithAttributes(attribute.String("policy", policy))
	m.scheduleMemory.Record(ctx, int64(memoryBytes), policyAttr)
	m.scheduleSteps.Record(ctx, int64(steps), policyAttr)
}
