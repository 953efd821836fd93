package scheduler

import (
	"github.com/kbukum/dataflow/graph"
	"github.com/kbukum/dataflow/memory"
)

// binding is a port bound to a FIFO row of the topology.
type binding struct {
	row  int
	rate func(fired int) int
}

// simulator replays node activations against FIFO occupancies. Nodes and
// FIFOs are addressed by their topology column and row.
type simulator struct {
	inputs  [][]binding
	outputs [][]binding
	period  []int
	delays  []int
	norm    []int

	fired     []int
	remaining []int
	b         []int
}

func newSimulator(g *graph.Graph, topo *graph.Topology) *simulator {
	s := &simulator{
		inputs:  make([][]binding, len(topo.Nodes)),
		outputs: make([][]binding, len(topo.Nodes)),
		period:  topo.CyclePeriod,
		delays:  make([]int, len(topo.Edges)),
		norm:    make([]int, len(topo.Edges)),
	}
	for row, id := range topo.Edges {
		e := g.Edge(id)
		src, dst := g.Port(e.Src), g.Port(e.Dst)
		s.delays[row] = e.Delay
		s.norm[row] = max(src.Rate.Max(), dst.Rate.Max(), 1)

		srcCol := topo.NodeIndex(src.Node)
		dstCol := topo.NodeIndex(dst.Node)
		s.outputs[srcCol] = append(s.outputs[srcCol], binding{row: row, rate: src.Rate.At})
		s.inputs[dstCol] = append(s.inputs[dstCol], binding{row: row, rate: dst.Rate.At})
	}
	return s
}

// reset rewinds every node and restores the initial FIFO state for a
// repetition vector q.
func (s *simulator) reset(q []int) {
	s.fired = make([]int, len(s.period))
	s.remaining = make([]int, len(s.period))
	copy(s.remaining, q)
	s.b = make([]int, len(s.delays))
	copy(s.b, s.delays)
}

func (s *simulator) done() bool {
	for _, n := range s.remaining {
		if n > 0 {
			return false
		}
	}
	return true
}

// activation is the effect of one node activation: samples produced into
// and consumed from each FIFO.
type activation struct {
	produce []int
	consume []int
}

// activation describes the next activation of node i.
func (s *simulator) activation(i int) activation {
	a := activation{produce: make([]int, len(s.b)), consume: make([]int, len(s.b))}
	for _, p := range s.outputs[i] {
		a.produce[p.row] += p.rate(s.fired[i])
	}
	for _, p := range s.inputs[i] {
		a.consume[p.row] += p.rate(s.fired[i])
	}
	return a
}

// next returns the occupancy after activation a, and whether every input
// FIFO held enough samples before the node wrote anything.
func (s *simulator) next(a activation) ([]int, bool) {
	nb := make([]int, len(s.b))
	ok := true
	for e := range s.b {
		if s.b[e] < a.consume[e] {
			ok = false
		}
		nb[e] = s.b[e] - a.consume[e] + a.produce[e]
	}
	return nb, ok
}

// fire commits an activation of node i that leads to occupancy nb.
func (s *simulator) fire(i int, nb []int) {
	s.b = nb
	s.fired[i]++
	if s.fired[i]%s.period[i] == 0 {
		s.remaining[i]--
	}
}

// score is the largest normalized occupancy of nb as an exact fraction.
func (s *simulator) score(nb []int) fraction {
	best := fraction{0, 1}
	for e, v := range nb {
		f := fraction{int64(v), int64(s.norm[e])}
		if best.less(f) {
			best = f
		}
	}
	return best
}

type fraction struct {
	num, den int64
}

func (f fraction) less(o fraction) bool { return f.num*o.den < o.num*f.den }

func (f fraction) equal(o fraction) bool { return f.num*o.den == o.num*f.den }

// lifetimes holds, per FIFO, the first step writing it and the last step
// reading it.
type lifetimes []memory.Interval

func newLifetimes(n int) lifetimes {
	l := make(lifetimes, n)
	for i := range l {
		l[i] = memory.NoInterval
	}
	return l
}

func (l lifetimes) record(t int, a activation) {
	for e := range l {
		if a.produce[e] > 0 {
			l[e].RecordWrite(t)
		}
		if a.consume[e] > 0 {
			l[e].RecordRead(t)
		}
	}
}
