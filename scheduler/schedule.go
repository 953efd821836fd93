package scheduler

import (
	"github.com/google/uuid"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/graph"
	"github.com/kbukum/dataflow/memory"
)

// Schedule is the result of Compute. It is read-only once built.
type Schedule struct {
	id       uuid.UUID
	g        *graph.Graph
	topo     *graph.Topology
	config   Config
	policy   Policy
	q        []int
	sequence []int
	fifos    []FIFO
	buffers  []memory.Buffer
	memory   int
	byEdge   map[graph.EdgeID]int
}

func newSchedule(g *graph.Graph, topo *graph.Topology, cfg Config, policy Policy, q, sequence []int, fifos []FIFO) *Schedule {
	s := &Schedule{
		id:       uuid.New(),
		g:        g,
		topo:     topo,
		config:   cfg,
		policy:   policy,
		q:        q,
		sequence: sequence,
		fifos:    fifos,
		byEdge:   make(map[graph.EdgeID]int, len(fifos)),
	}
	for _, f := range fifos {
		s.byEdge[f.Edge] = f.ID
	}
	return s
}

// ID identifies this computation.
func (s *Schedule) ID() uuid.UUID { return s.id }

// Graph returns the legalized graph the schedule was computed for. The
// graph is frozen: Replay and the FIFO lookups read it, so it cannot change
// under the schedule.
func (s *Schedule) Graph() *graph.Graph { return s.g }

// Policy is the ordering policy that produced the sequence. A sink-priority
// request on a graph with loops reports PolicyGreedy.
func (s *Schedule) Policy() Policy { return s.policy }

// Config returns the options the schedule was computed with.
func (s *Schedule) Config() Config { return s.config }

// Nodes lists the scheduled nodes; Sequence entries index this slice.
func (s *Schedule) Nodes() []graph.Node {
	out := make([]graph.Node, len(s.topo.Nodes))
	for i, id := range s.topo.Nodes {
		out[i] = s.g.Node(id)
	}
	return out
}

// NodeIndex returns the position of a node in Nodes, or -1.
func (s *Schedule) NodeIndex(id graph.NodeID) int { return s.topo.NodeIndex(id) }

// Edges lists the FIFO edges in FIFO id order.
func (s *Schedule) Edges() []graph.Edge {
	out := make([]graph.Edge, len(s.topo.Edges))
	for i, id := range s.topo.Edges {
		out[i] = s.g.Edge(id)
	}
	return out
}

// ConstantEdges lists the inputs bound to constants.
func (s *Schedule) ConstantEdges() []graph.ConstantEdge { return s.g.ConstantEdges() }

// Sequence is the flat activation order of one schedule period.
func (s *Schedule) Sequence() []int { return append([]int(nil), s.sequence...) }

// Length is the number of activations in one period.
func (s *Schedule) Length() int { return len(s.sequence) }

// RepetitionVector returns, per node, the number of full node periods in
// one schedule period. It is nil for fully asynchronous schedules.
func (s *Schedule) RepetitionVector() []int {
	if s.q == nil {
		return nil
	}
	return append([]int(nil), s.q...)
}

// FIFOs returns the FIFO descriptors in id order.
func (s *Schedule) FIFOs() []FIFO { return append([]FIFO(nil), s.fifos...) }

// Buffers returns the allocated buffers.
func (s *Schedule) Buffers() []memory.Buffer { return append([]memory.Buffer(nil), s.buffers...) }

// Memory is the total size in bytes of Buffers.
func (s *Schedule) Memory() int { return s.memory }

// FIFOID returns the FIFO implementing an edge.
func (s *Schedule) FIFOID(edge graph.EdgeID) (int, bool) {
	id, ok := s.byEdge[edge]
	return id, ok
}

// HasDelay reports whether the edge starts with initial samples.
func (s *Schedule) HasDelay(edge graph.EdgeID) bool {
	id, ok := s.byEdge[edge]
	return ok && s.fifos[id].Delay > 0
}

// OutputFIFOs lists the FIFOs fed by a node, in output port order.
func (s *Schedule) OutputFIFOs(node graph.NodeID) []FIFORef {
	var out []FIFORef
	for _, pid := range s.g.Node(node).Outputs {
		p := s.g.Port(pid)
		for _, e := range p.Edges() {
			if id, ok := s.byEdge[e]; ok {
				out = append(out, FIFORef{FIFO: id, Port: p.Name})
			}
		}
	}
	return out
}

// InputFIFOs lists the FIFOs read by a node, in input port order.
func (s *Schedule) InputFIFOs(node graph.NodeID) []FIFORef {
	var out []FIFORef
	for _, pid := range s.g.Node(node).Inputs {
		p := s.g.Port(pid)
		for _, e := range p.Edges() {
			if id, ok := s.byEdge[e]; ok {
				out = append(out, FIFORef{FIFO: id, Port: p.Name})
			}
		}
	}
	return out
}

// Replay runs the sequence again from the initial delays and returns the
// peak occupancy of every FIFO. It fails if a FIFO would underflow.
func (s *Schedule) Replay() ([]int, error) {
	if s.q == nil {
		return nil, errors.InvalidInput("schedule", "a fully asynchronous schedule has no token balance to replay")
	}
	sim := newSimulator(s.g, s.topo)
	sim.reset(s.q)
	peak := append([]int(nil), sim.b...)
	for step, node := range s.sequence {
		nb, ok := sim.next(sim.activation(node))
		if !ok {
			return nil, errors.Deadlock(step, "replayed activation reads from an empty FIFO")
		}
		sim.fire(node, nb)
		for e, v := range nb {
			if v > peak[e] {
				peak[e] = v
			}
		}
	}
	return peak, nil
}
