package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/dataflow/errors"
)

// recordSpans installs an in-memory tracer provider for the test.
func recordSpans(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func spanAttr(s tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range s.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("sdfsched")
	want := Config{
		ServiceName: "sdfsched",
		Environment: "development",
		Endpoint:    "localhost:4318",
		Insecure:    true,
		SampleRate:  1.0,
		Interval:    15 * time.Second,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("DefaultConfig mismatch (-want +got):\n%s", diff)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "ParentBased{root:TraceIDRatioBased{0.25}"},
	}
	for _, tc := range tests {
		got := sampler(tc.rate).Description()
		if len(got) < len(tc.want) || got[:len(tc.want)] != tc.want {
			t.Errorf("sampler(%g) = %q, want prefix %q", tc.rate, got, tc.want)
		}
	}
}

func TestNewResource(t *testing.T) {
	cfg := DefaultConfig("sdfsched")
	cfg.ServiceVersion = "1.4.0"
	res := newResource(cfg)

	got := map[string]string{}
	for _, kv := range res.Attributes() {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	for k, want := range map[string]string{
		"service.name":    "sdfsched",
		"service.version": "1.4.0",
		"environment":     "development",
	} {
		if got[k] != want {
			t.Errorf("resource %s = %q, want %q", k, got[k], want)
		}
	}
}

func TestInit(t *testing.T) {
	prevT, prevM := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevT)
		otel.SetMeterProvider(prevM)
	})

	cfg := DefaultConfig("sdfsched")
	cfg.Endpoint = "127.0.0.1:1"
	cfg.Interval = time.Hour
	p, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if otel.GetTracerProvider() != p.Tracer {
		t.Error("tracer provider not installed globally")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = p.Shutdown(ctx)
}

func TestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordRequestStart(ctx)
	metrics.RecordRequestEnd(ctx, "sdfsched", SpanScheduleCreate, "ok", 20*time.Millisecond)
	metrics.RecordOperation(ctx, "sdfsched", "cache.load", "hit", time.Millisecond)
	metrics.RecordError(ctx, "compile", "http")
	metrics.RecordSchedule(ctx, "greedy", "ok", 2*time.Millisecond, 11264, 25)
	metrics.RecordSchedule(ctx, "", "error", time.Millisecond, 0, 0)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			seen[m.Name] = true
			if m.Name == "schedule.memory" {
				h := m.Data.(metricdata.Histogram[int64])
				if len(h.DataPoints) != 1 || h.DataPoints[0].Sum != 11264 {
					t.Errorf("schedule.memory points = %+v", h.DataPoints)
				}
			}
		}
	}
	for _, name := range []string{
		"request.total", "request.duration", "request.active",
		"operation.total", "operation.duration", "error.total",
		"schedule.total", "schedule.duration", "schedule.memory", "schedule.steps",
	} {
		if !seen[name] {
			t.Errorf("instrument %s not collected", name)
		}
	}
}

func TestNewMetricsNoop(t *testing.T) {
	if _, err := NewMetrics(noop.NewMeterProvider().Meter("test")); err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
}

func TestOperation(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status string
	}{
		{"ok", nil, "ok"},
		{"app error", errors.NotSchedulable(2), string(errors.ErrCodeNotSchedulable)},
		{"plain error", fmt.Errorf("boom"), string(errors.ErrCodeInternal)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exporter := recordSpans(t)
			metrics, _ := NewMetrics(noop.NewMeterProvider().Meter("test"))

			ctx, op := StartOperation(context.Background(), SpanScheduleCreate, "sdfsched", "req-1", metrics)
			if op.RequestID != "req-1" || op.Name != SpanScheduleCreate {
				t.Errorf("unexpected operation %+v", op)
			}
			op.End(ctx, tc.err)

			spans := exporter.GetSpans()
			if len(spans) != 1 {
				t.Fatalf("got %d spans", len(spans))
			}
			if v, _ := spanAttr(spans[0], AttrStatus); v.AsString() != tc.status {
				t.Errorf("status = %q, want %q", v.AsString(), tc.status)
			}
			if v, _ := spanAttr(spans[0], AttrRequestID); v.AsString() != "req-1" {
				t.Errorf("request id = %q", v.AsString())
			}
			_, hasCode := spanAttr(spans[0], AttrErrorCode)
			if hasCode != (tc.err != nil) {
				t.Errorf("error.code present = %v", hasCode)
			}
		})
	}
}

func TestOperationWithoutMetrics(t *testing.T) {
	ctx, op := StartOperation(context.Background(), SpanGraphLegalize, "sdfsched", "", nil)
	time.Sleep(time.Millisecond)
	op.End(ctx, nil)
	if op.Duration() <= 0 {
		t.Error("expected a positive duration")
	}
}

func TestSpanHelpers(t *testing.T) {
	exporter := recordSpans(t)

	ctx, span := StartSpan(context.Background(), SpanCompilePrefix+".chain")
	SetSpanAttribute(ctx, "graph.nodes", 4)
	SetSpanAttribute(ctx, "schedule.memory", int64(40))
	SetSpanAttribute(ctx, "ratio", 0.5)
	SetSpanAttribute(ctx, "verified", true)
	SetSpanAttribute(ctx, "policy", "greedy")
	SetSpanAttribute(ctx, "sequence", []string{"src", "sink"})
	SetSpanAttribute(ctx, "ignored", struct{}{})
	SetSpanError(ctx, fmt.Errorf("deadlock"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans", len(spans))
	}
	s := spans[0]
	if len(s.Attributes) != 6 {
		t.Errorf("got %d attributes, want 6: %v", len(s.Attributes), s.Attributes)
	}
	if s.Status.Code != codes.Error || s.Status.Description != "deadlock" {
		t.Errorf("status = %+v", s.Status)
	}
	if len(s.Events) != 1 {
		t.Errorf("expected the error event, got %d events", len(s.Events))
	}
}

func TestSpanHelpersWithoutSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, fmt.Errorf("no span"))
}

type checkFunc func(context.Context) Health

func (f checkFunc) CheckHealth(ctx context.Context) Health { return f(ctx) }

func fixed(name string, status HealthStatus) HealthChecker {
	return checkFunc(func(context.Context) Health {
		return Health{Name: name, Status: status}
	})
}

func TestServiceHealth(t *testing.T) {
	tests := []struct {
		name     string
		statuses []HealthStatus
		want     HealthStatus
	}{
		{"no components", nil, HealthStatusUp},
		{"all up", []HealthStatus{HealthStatusUp, HealthStatusUp}, HealthStatusUp},
		{"degraded", []HealthStatus{HealthStatusUp, HealthStatusDegraded}, HealthStatusDegraded},
		{"down wins", []HealthStatus{HealthStatusDown, HealthStatusDegraded, HealthStatusUp}, HealthStatusDown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sh := NewServiceHealth("sdfsched", "1.4.0")
			for i, s := range tc.statuses {
				sh.AddComponent(Health{Name: fmt.Sprint(i), Status: s})
			}
			if sh.Status != tc.want {
				t.Errorf("status = %s, want %s", sh.Status, tc.want)
			}
		})
	}
}

func TestCheckAll(t *testing.T) {
	slow := checkFunc(func(context.Context) Health {
		time.Sleep(20 * time.Millisecond)
		return Health{Name: "cache", Status: HealthStatusDegraded}
	})

	sh := NewServiceHealth("sdfsched", "dev")
	sh.CheckAll(context.Background(), slow, fixed("scheduler", HealthStatusUp))

	var names []string
	for _, c := range sh.Components {
		names = append(names, c.Name)
		if c.Latency == "" {
			t.Errorf("%s: latency not set", c.Name)
		}
	}
	if diff := cmp.Diff([]string{"cache", "scheduler"}, names); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if sh.Status != HealthStatusDegraded {
		t.Errorf("status = %s", sh.Status)
	}
}
