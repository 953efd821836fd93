package scheduler

import (
	"bytes"
	"context"
	"testing"

	"github.com/kbukum/dataflow/graph"
	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/rate"
)

var f32 = rate.Float32

func static(n int) rate.Rate { return rate.Static(n) }

func mustAdd(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("building graph: %v", err)
	}
}

func addSource(t *testing.T, g *graph.Graph, name string, n int) {
	t.Helper()
	_, err := g.AddSource(name, graph.Out("o", f32, static(n)))
	mustAdd(t, err)
}

func addSink(t *testing.T, g *graph.Graph, name string, n int) {
	t.Helper()
	_, err := g.AddSink(name, graph.In("i", f32, static(n)))
	mustAdd(t, err)
}

func addNode(t *testing.T, g *graph.Graph, name string, in, out int) {
	t.Helper()
	_, err := g.AddNode(name, graph.In("i", f32, static(in)), graph.Out("o", f32, static(out)))
	mustAdd(t, err)
}

func connect(t *testing.T, g *graph.Graph, src, dst string, opts ...graph.ConnectOption) {
	t.Helper()
	mustAdd(t, g.ConnectByName(src, "o", dst, "i", opts...))
}

// chainGraph is src(5) -> a(5,5) -> b(5,5) -> sink(5).
func chainGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	addSource(t, g, "src", 5)
	addNode(t, g, "a", 5, 5)
	addNode(t, g, "b", 5, 5)
	addSink(t, g, "sink", 5)
	connect(t, g, "src", "a")
	connect(t, g, "a", "b")
	connect(t, g, "b", "sink")
	return g
}

// audioGraph is an overlap-add FFT filter: windows of 256 samples built
// from 128-sample hops, taken through a complex FFT round trip.
func audioGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	addSource(t, g, "src", 192)
	addNode(t, g, "audioWin", 128, 256)
	_, err := g.AddNode("arm_mult_f32",
		graph.In("ia", f32, static(256)),
		graph.In("ib", f32, static(256)),
		graph.Out("o", f32, static(256)))
	mustAdd(t, err)
	addNode(t, g, "toCmplx", 256, 512)
	addNode(t, g, "cfft", 512, 512)
	addNode(t, g, "icfft", 512, 512)
	addNode(t, g, "toReal", 512, 256)
	addNode(t, g, "audioOverlap", 256, 128)
	addSink(t, g, "sink", 192)

	hann, err := g.AddConstant("HANN")
	mustAdd(t, err)
	mult, _ := g.NodeByName("arm_mult_f32")
	ib, err := g.Input(mult, "ib")
	mustAdd(t, err)
	mustAdd(t, g.ConnectConstant(hann, ib))

	connect(t, g, "src", "audioWin")
	mustAdd(t, g.ConnectByName("audioWin", "o", "arm_mult_f32", "ia"))
	connect(t, g, "arm_mult_f32", "toCmplx")
	connect(t, g, "toCmplx", "cfft")
	connect(t, g, "cfft", "icfft")
	connect(t, g, "icfft", "toReal")
	connect(t, g, "toReal", "audioOverlap")
	connect(t, g, "audioOverlap", "sink")
	return g
}

// loopGraph feeds proc's second output back into its second input.
func loopGraph(t *testing.T, delay int, opts ...graph.ConnectOption) *graph.Graph {
	t.Helper()
	g := graph.New()
	addSource(t, g, "src", 5)
	_, err := g.AddNode("proc",
		graph.In("i0", f32, static(5)),
		graph.In("i1", f32, static(5)),
		graph.Out("o0", f32, static(5)),
		graph.Out("o1", f32, static(5)))
	mustAdd(t, err)
	addSink(t, g, "sink", 5)
	mustAdd(t, g.ConnectByName("src", "o", "proc", "i0"))
	mustAdd(t, g.ConnectByName("proc", "o0", "sink", "i"))
	mustAdd(t, g.ConnectByName("proc", "o1", "proc", "i1", append(opts, graph.WithDelay(delay))...))
	return g
}

func compute(t *testing.T, g *graph.Graph, cfg Config) *Schedule {
	t.Helper()
	s, err := Compute(context.Background(), g, cfg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	return s
}

// captureLogs routes the scheduler's logs to a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	cfg := &logger.Config{Level: "debug", Format: "json"}
	logger.Register("scheduler", logger.NewWithWriter(cfg, &buf, "test"))
	t.Cleanup(func() { logger.Unregister("scheduler") })
	return &buf
}

func names(s *Schedule) []string {
	nodes := s.Nodes()
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func lengths(s *Schedule) []int {
	fifos := s.FIFOs()
	out := make([]int, len(fifos))
	for i, f := range fifos {
		out[i] = f.Length
	}
	return out
}

// assertComplete checks that every node runs its full repetition count and
// that replaying the sequence reaches exactly the reported FIFO lengths.
func assertComplete(t *testing.T, s *Schedule) {
	t.Helper()
	q := s.RepetitionVector()
	count := make([]int, len(q))
	for _, n := range s.Sequence() {
		count[n]++
	}
	period := s.topo.CyclePeriod
	for i := range q {
		if count[i] != q[i]*period[i] {
			t.Errorf("node %s ran %d times, want %d", s.Nodes()[i].Name, count[i], q[i]*period[i])
		}
	}

	peak, err := s.Replay()
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	for i, f := range s.FIFOs() {
		if peak[i] != f.Length {
			t.Errorf("fifo %d: replay peak %d, reported length %d", i, peak[i], f.Length)
		}
	}
}
