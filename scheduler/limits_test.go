package scheduler

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/graph"
)

// primeChain is src(1) -> a(1,1) -> b(1,1) -> sink(n). Every node but the
// sink runs n times per period.
func primeChain(t *testing.T, n int) *graph.Graph {
	t.Helper()
	g := graph.New()
	addSource(t, g, "src", 1)
	addNode(t, g, "a", 1, 1)
	addNode(t, g, "b", 1, 1)
	addSink(t, g, "sink", n)
	connect(t, g, "src", "a")
	connect(t, g, "a", "b")
	connect(t, g, "b", "sink")
	return g
}

func TestCompute_MaxSteps(t *testing.T) {
	tests := []struct {
		name     string
		graph    func(*testing.T) *graph.Graph
		maxSteps int
		tooLong  bool
	}{
		{name: "default limit", graph: func(t *testing.T) *graph.Graph { return primeChain(t, 3000017) }, tooLong: true},
		{name: "exactly at limit", graph: chainGraph, maxSteps: 4},
		{name: "one over", graph: chainGraph, maxSteps: 3, tooLong: true},
		{name: "raised limit", graph: func(t *testing.T) *graph.Graph { return primeChain(t, 101) }, maxSteps: 304},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.maxSteps > 0 {
				cfg.MaxSteps = tt.maxSteps
			}
			start := time.Now()
			s, err := Compute(context.Background(), tt.graph(t), cfg)
			if !tt.tooLong {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if s.Length() > cfg.MaxSteps {
					t.Errorf("Length = %d over limit %d", s.Length(), cfg.MaxSteps)
				}
				return
			}
			if !errors.Is(err, errors.ErrCodeScheduleTooLong) {
				t.Fatalf("got %v, want SCHEDULE_TOO_LONG", err)
			}
			appErr, _ := errors.AsAppError(err)
			if appErr.Details["limit"] != cfg.MaxSteps {
				t.Errorf("limit detail = %v, want %d", appErr.Details["limit"], cfg.MaxSteps)
			}
			if elapsed := time.Since(start); elapsed > time.Second {
				t.Errorf("rejection took %v, want it before simulation", elapsed)
			}
		})
	}
}

func TestCompute_StopsAtDeadline(t *testing.T) {
	for _, sinkPriority := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.SinkPriority = sinkPriority
		cfg.MaxSteps = 1 << 24

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		start := time.Now()
		_, err := Compute(ctx, primeChain(t, 1000003), cfg)
		elapsed := time.Since(start)
		cancel()

		if !stderrors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("sink priority %v: got %v, want context.DeadlineExceeded", sinkPriority, err)
		}
		if elapsed > time.Second {
			t.Errorf("sink priority %v: Compute returned after %v", sinkPriority, elapsed)
		}
	}
}

func TestOrdering_StopsWhenCancelled(t *testing.T) {
	cfg := DefaultConfig()
	g := chainGraph(t)
	topo, err := prepare(g, &cfg)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	sim := newSimulator(g, topo)
	q := []int{1, 1, 1, 1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := greedy(ctx, sim, q, true, nil); !stderrors.Is(err, context.Canceled) {
		t.Errorf("greedy: got %v, want context.Canceled", err)
	}
	layers := [][]int{{0, 1, 2, 3}}
	bound := []int{5, 5, 5}
	if _, err := sinkFirst(ctx, sim, q, layers, bound, nil); !stderrors.Is(err, context.Canceled) {
		t.Errorf("sinkFirst: got %v, want context.Canceled", err)
	}

	r, err := greedy(context.Background(), sim, q, true, nil)
	if err != nil {
		t.Fatalf("greedy: %v", err)
	}
	if len(r.sequence) != 4 {
		t.Errorf("sequence = %v, want 4 steps", r.sequence)
	}
}
