// Package scheduler computes static schedules for synchronous and
// cyclo-static dataflow graphs.
//
// Compute legalizes fan-outs, solves the repetition vector over the
// topology matrix, orders node activations with one of two policies, sizes
// every FIFO from the peak occupancy the order produces and finally plans
// buffer memory:
//
//	g := graph.New()
//	// ... add nodes and connect ports ...
//	s, err := scheduler.Compute(ctx, g, scheduler.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	for _, n := range s.Sequence() {
//	    fmt.Println(s.Nodes()[n].Name)
//	}
//
// The default greedy policy keeps the largest normalized FIFO occupancy as
// low as possible at every step. Config.SinkPriority switches to a policy
// that favors nodes close to the sinks, bounded by the greedy FIFO sizes.
//
// A Schedule is immutable and may be shared between goroutines. Scheduling
// itself is single-threaded; independent graphs can be scheduled in
// parallel.
package scheduler
