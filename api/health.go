package api

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kbukum/dataflow/graph"
	"github.com/kbukum/dataflow/observability"
	"github.com/kbukum/dataflow/rate"
	"github.com/kbukum/dataflow/resilience"
	"github.com/kbukum/dataflow/scheduler"
)

// SchedulerCheck reports the scheduler healthy when it can compute the
// schedule of a two-node probe graph within Timeout. With Slots set, a
// bulkhead without a free slot reports degraded; the probe bypasses it.
type SchedulerCheck struct {
	Config  scheduler.Config
	Timeout time.Duration
	Slots   *resilience.Bulkhead
}

// CheckHealth implements observability.HealthChecker.
func (sc SchedulerCheck) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Health{Name: "scheduler", Status: observability.HealthStatusUp}
	if sc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sc.Timeout)
		defer cancel()
	}

	start := time.Now()
	s, err := probe(ctx, sc.Config)
	if err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
		return h
	}
	h.Details = map[string]string{
		"policy":  string(s.Policy()),
		"latency": time.Since(start).String(),
	}
	if sc.Slots != nil {
		stats := sc.Slots.Stats()
		h.Details["slots"] = fmt.Sprintf("%d/%d", stats.InUse, stats.Capacity)
		h.Details["rejected"] = strconv.FormatInt(stats.Rejected, 10)
		if stats.InUse >= stats.Capacity {
			h.Status = observability.HealthStatusDegraded
			h.Message = "all computation slots busy"
		}
	}
	return h
}

// probe schedules source(2) -> sink(3).
func probe(ctx context.Context, cfg scheduler.Config) (*scheduler.Schedule, error) {
	g := graph.New()
	if _, err := g.AddSource("probe_src", graph.Out("o", rate.Float32, rate.Static(2))); err != nil {
		return nil, err
	}
	if _, err := g.AddSink("probe_sink", graph.In("i", rate.Float32, rate.Static(3))); err != nil {
		return nil, err
	}
	if err := g.ConnectByName("probe_src", "o", "probe_sink", "i"); err != nil {
		return nil, err
	}
	cfg.FullyAsynchronous = false
	cfg.DisplayFIFOSizes = false
	cfg.DumpSchedule = false
	return scheduler.Compute(ctx, g, cfg)
}
