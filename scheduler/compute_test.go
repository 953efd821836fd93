package scheduler

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/graph"
	"github.com/kbukum/dataflow/rate"
)

func TestCompute_FanOutLegalized(t *testing.T) {
	g := graph.New()
	addSource(t, g, "src", 5)
	addNode(t, g, "proc", 5, 5)
	addSink(t, g, "sinkA", 5)
	addSink(t, g, "sinkB", 5)
	connect(t, g, "src", "proc")
	connect(t, g, "proc", "sinkA")
	connect(t, g, "proc", "sinkB")

	s := compute(t, g, DefaultConfig())

	var dups []graph.Node
	for _, n := range s.Nodes() {
		if n.Kind == graph.KindDuplicate {
			dups = append(dups, n)
		}
	}
	if len(dups) != 1 {
		t.Fatalf("got %d duplicate nodes, want 1", len(dups))
	}
	if got := len(dups[0].Outputs); got != 2 {
		t.Errorf("duplicate has %d outputs, want 2", got)
	}
	if len(s.FIFOs()) != 4 {
		t.Errorf("got %d FIFOs, want 4", len(s.FIFOs()))
	}
	for _, q := range s.RepetitionVector() {
		if q != 1 {
			t.Errorf("repetition vector = %v, want all ones", s.RepetitionVector())
			break
		}
	}
	assertComplete(t, s)
}

func TestCompute_CustomBufferMustBeArray(t *testing.T) {
	g := graph.New()
	_, err := g.AddSource("src", graph.Out("o", f32, static(5)).Constrained(graph.NewBufferConstraint("Test")))
	mustAdd(t, err)
	addNode(t, g, "proc", 7, 5)
	addSink(t, g, "sink", 5)
	connect(t, g, "src", "proc")
	connect(t, g, "proc", "sink")

	_, err = Compute(context.Background(), g, DefaultConfig())
	if !errors.Is(err, errors.ErrCodeFIFOWithCustomBufferMustBeArray) {
		t.Fatalf("got %v, want FIFO_WITH_CUSTOM_BUFFER_MUST_BE_USED_AS_ARRAY", err)
	}
}

func TestCompute_CustomBufferOnArray(t *testing.T) {
	g := graph.New()
	_, err := g.AddSource("src", graph.Out("o", f32, static(5)).Constrained(graph.NewBufferConstraint("Test")))
	mustAdd(t, err)
	addNode(t, g, "proc", 5, 5)
	addSink(t, g, "sink", 5)
	connect(t, g, "src", "proc")
	connect(t, g, "proc", "sink")

	cfg := DefaultConfig()
	cfg.MemoryOptimization = true
	s := compute(t, g, cfg)
	f := s.FIFOs()[0]
	if f.Custom == nil || f.BufferID != -1 || !f.NodeAssigned() || f.BufferName("") != "" {
		t.Errorf("fifo 0 = %+v, want storage supplied by the node", f)
	}
	if s.Memory() != 20 {
		t.Errorf("Memory = %d, want 20 (custom storage excluded)", s.Memory())
	}
}

func TestCompute_ReusedBufferName(t *testing.T) {
	g := graph.New()
	addSource(t, g, "srcA", 5)
	addSource(t, g, "srcB", 5)
	addSink(t, g, "sinkA", 5)
	addSink(t, g, "sinkB", 5)
	connect(t, g, "srcA", "sinkA", graph.WithBuffer("Test", false))
	connect(t, g, "srcB", "sinkB", graph.WithBuffer("Test", false))

	_, err := Compute(context.Background(), g, DefaultConfig())
	if !errors.Is(err, errors.ErrCodeCannotReuseCustomBuffer) {
		t.Fatalf("got %v, want CANNOT_REUSE_CUSTOM_BUFFER_MORE_THAN_ONCE", err)
	}
}

func TestCompute_InheritedSinkConstraintOnDuplicateOutputs(t *testing.T) {
	g := graph.New()
	addSource(t, g, "src", 5)
	c := graph.NewBufferConstraint("Out")
	_, err := g.AddSink("sinkA", graph.In("i", f32, static(5)).Constrained(c))
	mustAdd(t, err)
	_, err = g.AddSink("sinkB", graph.In("i", f32, static(5)).Constrained(c))
	mustAdd(t, err)
	connect(t, g, "src", "sinkA")
	connect(t, g, "src", "sinkB")

	_, err = Compute(context.Background(), g, DefaultConfig())
	if !errors.Is(err, errors.ErrCodeCannotReuseCustomBuffer) {
		t.Fatalf("got %v, want CANNOT_REUSE_CUSTOM_BUFFER_MORE_THAN_ONCE", err)
	}
}

func TestCompute_Delay(t *testing.T) {
	tests := []struct {
		name     string
		delay    int
		deadlock bool
	}{
		{name: "too short", delay: 2, deadlock: true},
		{name: "one activation", delay: 5},
		{name: "longer", delay: 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Compute(context.Background(), loopGraph(t, tt.delay), DefaultConfig())
			if tt.deadlock {
				if !errors.Is(err, errors.ErrCodeDeadlock) {
					t.Fatalf("got %v, want DEADLOCK", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Length() != 3 {
				t.Errorf("Length = %d, want 3", s.Length())
			}
			loop := s.FIFOs()[2]
			if loop.Length != tt.delay || loop.IsArray || !s.HasDelay(loop.Edge) {
				t.Errorf("loop fifo = %+v, want length %d with delay", loop, tt.delay)
			}
			assertComplete(t, s)
		})
	}
}

func TestCompute_AudioGreedy(t *testing.T) {
	s := compute(t, audioGraph(t), DefaultConfig())

	wantNames := []string{"arm_mult_f32", "audioOverlap", "audioWin", "cfft", "icfft", "sink", "src", "toCmplx", "toReal"}
	if diff := cmp.Diff(wantNames, names(s)); diff != "" {
		t.Fatalf("node order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3, 3, 3, 3, 3, 2, 2, 3, 3}, s.RepetitionVector()); diff != "" {
		t.Errorf("repetition vector mismatch (-want +got):\n%s", diff)
	}
	wantSeq := []int{6, 2, 0, 7, 3, 4, 8, 1, 6, 2, 0, 7, 3, 4, 8, 2, 0, 7, 3, 4, 1, 5, 8, 1, 5}
	if diff := cmp.Diff(wantSeq, s.Sequence()); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{256, 256, 256, 512, 512, 512, 256, 256}, lengths(s)); diff != "" {
		t.Errorf("fifo lengths mismatch (-want +got):\n%s", diff)
	}
	for i, f := range s.FIFOs() {
		wantArray := i != 0 && i != 7
		if f.IsArray != wantArray {
			t.Errorf("fifo %d IsArray = %v, want %v", i, f.IsArray, wantArray)
		}
	}
	if s.Memory() != 11264 {
		t.Errorf("Memory = %d, want 11264", s.Memory())
	}
	if s.Policy() != PolicyGreedy {
		t.Errorf("Policy = %s", s.Policy())
	}
	if len(s.ConstantEdges()) != 1 {
		t.Errorf("got %d constant edges, want 1", len(s.ConstantEdges()))
	}
	assertComplete(t, s)
}

func TestCompute_AudioSinkPriority(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SinkPriority = true
	s := compute(t, audioGraph(t), cfg)

	wantSeq := []int{6, 2, 0, 7, 3, 4, 8, 1, 6, 2, 0, 7, 3, 4, 8, 1, 5, 2, 0, 7, 3, 4, 8, 1, 5}
	if diff := cmp.Diff(wantSeq, s.Sequence()); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{256, 256, 256, 512, 512, 512, 256, 256}, lengths(s)); diff != "" {
		t.Errorf("fifo lengths mismatch (-want +got):\n%s", diff)
	}
	if s.Policy() != PolicySinkPriority {
		t.Errorf("Policy = %s, want %s", s.Policy(), PolicySinkPriority)
	}
	assertComplete(t, s)
}

func TestCompute_SinkPriorityFallsBackOnLoops(t *testing.T) {
	logs := captureLogs(t)
	cfg := DefaultConfig()
	cfg.SinkPriority = true
	s := compute(t, loopGraph(t, 5), cfg)

	if s.Policy() != PolicyGreedy {
		t.Errorf("Policy = %s, want %s", s.Policy(), PolicyGreedy)
	}
	if !strings.Contains(logs.String(), "sink prioritization disabled: graph has loops") {
		t.Errorf("missing fallback warning in logs:\n%s", logs.String())
	}
	assertComplete(t, s)
}

func TestCompute_CycloStatic(t *testing.T) {
	g := graph.New()
	addSource(t, g, "src", 3)
	_, err := g.AddNode("cs",
		graph.In("i", f32, rate.Cyclic(1, 2)),
		graph.Out("o", f32, rate.Cyclic(2, 1)))
	mustAdd(t, err)
	addSink(t, g, "sink", 3)
	connect(t, g, "src", "cs")
	connect(t, g, "cs", "sink")

	s := compute(t, g, DefaultConfig())
	if diff := cmp.Diff([]int{1, 1, 1}, s.RepetitionVector()); diff != "" {
		t.Errorf("repetition vector mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 0, 0, 1}, s.Sequence()); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}
	for _, f := range s.FIFOs() {
		if f.IsArray {
			t.Errorf("fifo %d on a cyclo-static port must not be an array", f.ID)
		}
		if f.Length != 3 {
			t.Errorf("fifo %d length = %d, want 3", f.ID, f.Length)
		}
	}
	assertComplete(t, s)
}

func TestCompute_MemorySharing(t *testing.T) {
	plain := compute(t, chainGraph(t), DefaultConfig())
	if plain.Memory() != 60 || len(plain.Buffers()) != 3 {
		t.Errorf("unoptimized: %d buffers / %d bytes, want 3 / 60", len(plain.Buffers()), plain.Memory())
	}

	cfg := DefaultConfig()
	cfg.MemoryOptimization = true
	s := compute(t, chainGraph(t), cfg)
	if diff := cmp.Diff([]int{3, 0, 1, 2}, s.Sequence()); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}
	if s.Memory() != 40 || len(s.Buffers()) != 2 {
		t.Errorf("optimized: %d buffers / %d bytes, want 2 / 40", len(s.Buffers()), s.Memory())
	}
	fifos := s.FIFOs()
	if fifos[0].BufferID != fifos[2].BufferID || fifos[0].BufferID == fifos[1].BufferID {
		t.Errorf("buffer ids = %d %d %d, want first and last shared",
			fifos[0].BufferID, fifos[1].BufferID, fifos[2].BufferID)
	}
	for i, a := range fifos {
		for _, b := range fifos[i+1:] {
			if a.BufferID == b.BufferID && a.Live.Overlaps(b.Live) {
				t.Errorf("fifos %d and %d share buffer %d while both live", a.ID, b.ID, a.BufferID)
			}
		}
	}
}

func TestCompute_Errors(t *testing.T) {
	t.Run("not connected", func(t *testing.T) {
		g := graph.New()
		addSource(t, g, "srcA", 5)
		addSink(t, g, "sinkA", 5)
		addSource(t, g, "srcB", 5)
		addSink(t, g, "sinkB", 5)
		connect(t, g, "srcA", "sinkA")
		connect(t, g, "srcB", "sinkB")
		_, err := Compute(context.Background(), g, DefaultConfig())
		if !errors.Is(err, errors.ErrCodeGraphIsNotConnected) {
			t.Fatalf("got %v, want GRAPH_IS_NOT_CONNECTED", err)
		}
	})

	t.Run("inconsistent rates", func(t *testing.T) {
		g := graph.New()
		addSource(t, g, "src", 1)
		_, err := g.AddNode("join",
			graph.In("i0", f32, static(1)),
			graph.In("i1", f32, static(2)),
			graph.Out("o", f32, static(1)))
		mustAdd(t, err)
		addSink(t, g, "sink", 1)
		mustAdd(t, g.ConnectByName("src", "o", "join", "i0"))
		mustAdd(t, g.ConnectByName("src", "o", "join", "i1"))
		connect(t, g, "join", "sink")

		_, err = Compute(context.Background(), g, DefaultConfig())
		if !errors.Is(err, errors.ErrCodeNotSchedulable) {
			t.Fatalf("got %v, want NOT_SCHEDULABLE", err)
		}
	})

	t.Run("unconnected port", func(t *testing.T) {
		g := graph.New()
		addSource(t, g, "src", 5)
		addNode(t, g, "proc", 5, 5)
		connect(t, g, "src", "proc")
		_, err := Compute(context.Background(), g, DefaultConfig())
		if !errors.Is(err, errors.ErrCodeUnconnectedIO) {
			t.Fatalf("got %v, want UNCONNECTED_IO", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Asynchronous, cfg.FullyAsynchronous = true, true
		if _, err := Compute(context.Background(), chainGraph(t), cfg); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Fatalf("got %v, want INVALID_INPUT", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := Compute(ctx, chainGraph(t), DefaultConfig()); err != context.Canceled {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	})
}

func TestCompute_DumpScheduleLogsSequence(t *testing.T) {
	logs := captureLogs(t)
	cfg := DefaultConfig()
	cfg.DumpSchedule = true
	cfg.DisplayFIFOSizes = true
	compute(t, chainGraph(t), cfg)

	out := logs.String()
	for _, want := range []string{`"sequence":["src","a","b","sink"]`, `"message":"fifo sizes"`, `"message":"fifo order"`} {
		if !strings.Contains(out, want) {
			t.Errorf("logs missing %s:\n%s", want, out)
		}
	}
}

func TestSchedule_Lookups(t *testing.T) {
	s := compute(t, chainGraph(t), DefaultConfig())
	g := s.Graph()
	a, _ := g.NodeByName("a")

	out := s.OutputFIFOs(a)
	if diff := cmp.Diff([]FIFORef{{FIFO: 1, Port: "o"}}, out); diff != "" {
		t.Errorf("OutputFIFOs mismatch (-want +got):\n%s", diff)
	}
	for _, e := range s.Edges() {
		id, ok := s.FIFOID(e.ID)
		if !ok || s.FIFOs()[id].Edge != e.ID {
			t.Errorf("FIFOID(%d) = %d, %v", e.ID, id, ok)
		}
		if s.HasDelay(e.ID) {
			t.Errorf("edge %d has no delay", e.ID)
		}
	}
	if s.ID().String() == "" || s.Config().MemStrategy != "largest_first" {
		t.Error("schedule metadata not set")
	}
	if got := s.FIFOs()[1].BufferName("app_"); got != "app_buf1" {
		t.Errorf("BufferName = %q, want app_buf1", got)
	}
}

func TestCompute_FreezesGraph(t *testing.T) {
	g := chainGraph(t)
	s := compute(t, g, DefaultConfig())
	if !s.Graph().Frozen() {
		t.Fatal("a computed schedule must freeze its graph")
	}

	_, err := g.AddSink("late", graph.In("i", f32, static(5)))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("AddSink after Compute: got %v, want INVALID_INPUT", err)
	}
	if err := g.ConnectByName("a", "o", "sink", "i"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ConnectByName after Compute: got %v, want INVALID_INPUT", err)
	}

	peak, err := s.Replay()
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if diff := cmp.Diff(lengths(s), peak); diff != "" {
		t.Errorf("replay peaks mismatch (-want +got):\n%s", diff)
	}

	again := compute(t, g, DefaultConfig())
	if diff := cmp.Diff(s.Sequence(), again.Sequence()); diff != "" {
		t.Errorf("recomputing a frozen graph changed the sequence (-first +second):\n%s", diff)
	}
}
