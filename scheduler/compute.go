package scheduler

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/kbukum/dataflow/dag"
	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/graph"
	"github.com/kbukum/dataflow/linalg"
	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/memory"
)

// Compute legalizes g in place and computes its static schedule. On
// success g is frozen and belongs to the returned Schedule.
func Compute(ctx context.Context, g *graph.Graph, cfg Config) (*Schedule, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get("scheduler").WithContext(ctx)
	start := time.Now()

	topo, err := prepare(g, &cfg)
	if err != nil {
		return nil, err
	}
	log.Debug("graph legalized", logger.Fields(
		logger.FieldPhase, "legalize",
		"nodes", len(topo.Nodes),
		"fifos", len(topo.Edges),
	))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.FullyAsynchronous {
		s, err := computeFullyAsync(ctx, g, topo, cfg)
		if err != nil {
			return nil, err
		}
		g.Freeze()
		finish(log, s, start)
		return s, nil
	}

	q, err := linalg.RepetitionVector(topo.Matrix, len(topo.Nodes))
	if err != nil {
		return nil, err
	}
	if err := checkSteps(q, topo.CyclePeriod, cfg.MaxSteps); err != nil {
		return nil, err
	}
	names := nodeNames(g, topo)
	log.Debug("repetition vector", logger.Fields(
		logger.FieldPhase, "balance",
		"repetitions", repetitionFields(names, q),
	))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var observe stepObserver
	if cfg.DisplayFIFOSizes {
		log.Info("fifo order", logger.Fields("fifos", edgeNames(g, topo)))
		observe = fifoSizeLogger(log, names)
	}
	sim := newSimulator(g, topo)
	r, policy, err := order(ctx, g, topo, sim, q, &cfg, log, observe)
	if err != nil {
		return nil, err
	}
	log.Debug("activation order found", logger.Fields(
		logger.FieldPhase, "order",
		logger.FieldPolicy, string(policy),
		"steps", len(r.sequence),
	))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fifos := describeFIFOs(g, topo, r.peak, r.live, &cfg)
	if err := checkArrays(g, fifos); err != nil {
		return nil, err
	}

	s := newSchedule(g, topo, cfg, policy, q, r.sequence, fifos)
	if err := allocate(ctx, g, s); err != nil {
		return nil, err
	}
	log.Debug("memory planned", logger.Fields(
		logger.FieldPhase, "memory",
		"buffers", len(s.buffers),
		"bytes", s.memory,
	))
	if cfg.DumpSchedule {
		log.Info("schedule", logger.Fields("sequence", sequenceNames(names, r.sequence)))
	}
	g.Freeze()
	finish(log, s, start)
	return s, nil
}

// Legalize inserts the duplicate nodes g needs under cfg and checks that
// the result can be scheduled structurally.
func Legalize(g *graph.Graph, cfg Config) error {
	err := g.Legalize(graph.LegalizeOptions{
		Asynchronous:      cfg.Asynchronous,
		FullyAsynchronous: cfg.FullyAsynchronous,
	})
	if err != nil {
		return err
	}
	// Duplicate outputs can inherit the same destination constraint.
	if err := g.CheckBufferNames(); err != nil {
		return err
	}
	return g.Check()
}

// prepare legalizes the graph and freezes its topology.
func prepare(g *graph.Graph, cfg *Config) (*graph.Topology, error) {
	if err := Legalize(g, *cfg); err != nil {
		return nil, err
	}
	return g.Topology()
}

// checkSteps rejects a repetition vector whose period needs more than
// limit activations, cyclo-static nodes counting one per phase.
func checkSteps(q, period []int, limit int) error {
	total := 0
	for i, n := range q {
		p := max(period[i], 1)
		if n > (limit-total)/p {
			return errors.ScheduleTooLong(limit)
		}
		total += n * p
	}
	return nil
}

// order runs the configured policy. Sink priority needs an acyclic graph
// once weak edges are ignored; otherwise the greedy order is kept.
func order(ctx context.Context, g *graph.Graph, topo *graph.Topology, sim *simulator, q []int, cfg *Config,
	log *logger.Logger, observe stepObserver) (*run, Policy, error) {
	policy := cfg.policy()
	if policy == PolicyGreedy {
		r, err := greedy(ctx, sim, q, true, observe)
		return r, policy, err
	}

	layers, err := g.SinkLayers()
	if stderrors.Is(err, dag.ErrCycle) {
		log.Warn("sink prioritization disabled: graph has loops")
		r, err := greedy(ctx, sim, q, true, observe)
		return r, PolicyGreedy, err
	}
	if err != nil {
		return nil, "", errors.Internal(err)
	}

	bound, err := greedy(ctx, sim, q, false, nil)
	if err != nil {
		return nil, "", err
	}
	cols := make([][]int, len(layers))
	for i, layer := range layers {
		for _, id := range layer {
			cols[i] = append(cols[i], topo.NodeIndex(id))
		}
	}
	r, err := sinkFirst(ctx, sim, q, cols, bound.peak, observe)
	return r, policy, err
}

// checkArrays rejects a constraint asking for an array on a FIFO the
// schedule could not use as one.
func checkArrays(g *graph.Graph, fifos []FIFO) error {
	for _, f := range fifos {
		if f.Custom == nil || !f.Custom.MustBeArray || f.IsArray {
			continue
		}
		src := g.Node(g.Port(f.Src).Node).Name
		dst := g.Node(g.Port(f.Dst).Node).Name
		return errors.FIFOWithCustomBufferMustBeArray(f.ID, src, dst, f.Custom.Name)
	}
	return nil
}

// allocate plans buffers for the schedule's FIFOs.
func allocate(ctx context.Context, g *graph.Graph, s *Schedule) error {
	cfg := s.config
	p := memory.Problem{
		Steps:                        len(s.sequence),
		Strategy:                     memory.Strategy(cfg.MemStrategy),
		Seed:                         cfg.Seed,
		Optimize:                     cfg.MemoryOptimization && !cfg.Asynchronous && !cfg.FullyAsynchronous,
		DisableDuplicateOptimization: cfg.DisableDuplicateOptimization,
	}
	for _, f := range s.fifos {
		src := g.Node(g.Port(f.Src).Node)
		dst := g.Node(g.Port(f.Dst).Node)
		p.FIFOs = append(p.FIFOs, memory.FIFO{
			ID:           f.ID,
			Type:         f.Type,
			Length:       f.Length,
			IsArray:      f.IsArray,
			Live:         f.Live,
			Custom:       f.Custom,
			Src:          src.ID,
			Dst:          dst.ID,
			SrcDuplicate: src.Kind == graph.KindDuplicate,
			DstDuplicate: dst.Kind == graph.KindDuplicate,
		})
	}
	for _, n := range s.Nodes() {
		if n.Kind != graph.KindDuplicate {
			continue
		}
		d := memory.Duplicate{Node: n.ID, Input: -1}
		if in := s.InputFIFOs(n.ID); len(in) == 1 {
			d.Input = in[0].FIFO
		}
		for _, out := range s.OutputFIFOs(n.ID) {
			d.Outputs = append(d.Outputs, out.FIFO)
		}
		p.Duplicates = append(p.Duplicates, d)
	}

	plan, err := memory.Build(ctx, p)
	if err != nil {
		return err
	}
	for i, a := range plan.Assignments {
		s.fifos[i].BufferID = a.BufferID
		s.fifos[i].Custom = a.Custom
		s.fifos[i].SkipCopy = a.Skip
	}
	s.buffers = plan.Buffers
	s.memory = plan.Memory
	return nil
}

func finish(log *logger.Logger, s *Schedule, start time.Time) {
	log.Debug("schedule computed", logger.Fields(
		logger.FieldPolicy, string(s.policy),
		"steps", s.Length(),
		"memory", s.memory,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
}
