// Package resilience keeps the schedule service responsive under load.
//
// A Bulkhead caps the number of schedule computations running at once; the
// simulator and the memory planner are CPU bound, so admitting more work than
// there are slots only stretches every request. A RateLimiter is a token
// bucket; KeyedRateLimiter keeps one bucket per client.
//
//	slots := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "scheduler", MaxConcurrent: 4})
//	s, err := resilience.Do(slots, ctx, func() (*scheduler.Schedule, error) {
//	    return compiler.Compile(ctx, g)
//	})
package resilience
