package graph

import (
	"sort"

	"github.com/kbukum/dataflow/dag"
	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/linalg"
	"github.com/kbukum/dataflow/rate"
)

// Topology freezes the node and edge order used by scheduling. Columns are
// the non-constant nodes sorted by name; rows are the live edges in
// creation order.
type Topology struct {
	Nodes []NodeID
	Edges []EdgeID
	// Matrix holds, per edge, the samples produced (positive) and consumed
	// (negative) over one full period of each endpoint node.
	Matrix linalg.Matrix
	// CyclePeriod is the LCM of the cycle lengths of each node's ports.
	CyclePeriod []int

	nodeIndex map[NodeID]int
	edgeIndex map[EdgeID]int
}

// NodeIndex returns the column of a node, or -1.
func (t *Topology) NodeIndex(id NodeID) int {
	if i, ok := t.nodeIndex[id]; ok {
		return i
	}
	return -1
}

// EdgeIndex returns the row of an edge, or -1.
func (t *Topology) EdgeIndex(id EdgeID) int {
	if i, ok := t.edgeIndex[id]; ok {
		return i
	}
	return -1
}

// Topology checks the graph and builds its topology matrix. The graph must
// be legalized.
func (g *Graph) Topology() (*Topology, error) {
	if !g.Legalized() {
		return nil, errors.InvalidInput("graph", "outputs must be legalized before building the topology")
	}
	if err := g.Check(); err != nil {
		return nil, err
	}

	t := &Topology{
		Nodes:     g.sortedNodes(),
		nodeIndex: make(map[NodeID]int),
		edgeIndex: make(map[EdgeID]int),
	}
	for i, id := range t.Nodes {
		t.nodeIndex[id] = i
		t.CyclePeriod = append(t.CyclePeriod, g.cyclePeriod(id))
	}
	for _, e := range g.Edges() {
		t.edgeIndex[e.ID] = len(t.Edges)
		t.Edges = append(t.Edges, e.ID)
	}

	t.Matrix = linalg.NewMatrix(len(t.Edges), len(t.Nodes))
	for row, id := range t.Edges {
		e := g.edges[id]
		sp, dp := g.ports[e.Src], g.ports[e.Dst]
		si, di := t.nodeIndex[sp.Node], t.nodeIndex[dp.Node]
		// A self-loop nets out both terms.
		t.Matrix[row][si] += int64(sp.Rate.Total() * t.CyclePeriod[si] / sp.Rate.Period())
		t.Matrix[row][di] -= int64(dp.Rate.Total() * t.CyclePeriod[di] / dp.Rate.Period())
	}
	return t, nil
}

func (g *Graph) sortedNodes() []NodeID {
	var ids []NodeID
	for _, n := range g.nodes {
		if n.Kind != KindConstant {
			ids = append(ids, n.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return g.nodes[ids[i]].Name < g.nodes[ids[j]].Name })
	return ids
}

func (g *Graph) cyclePeriod(id NodeID) int {
	n := g.nodes[id]
	var periods []int
	for _, list := range [][]PortID{n.Inputs, n.Outputs} {
		for _, pid := range list {
			periods = append(periods, g.ports[pid].Rate.Period())
		}
	}
	return rate.LCM(periods...)
}

// SourceLayers layers nodes sources first, weak edges and constants
// ignored. Nodes in a layer are sorted by name.
func (g *Graph) SourceLayers() ([][]NodeID, error) {
	return g.layers(dag.BuildLevels)
}

// SinkLayers layers nodes sinks first, weak edges and constants ignored.
func (g *Graph) SinkLayers() ([][]NodeID, error) {
	return g.layers(dag.BuildReverseLevels)
}

func (g *Graph) layers(build func(*dag.Graph) ([][]string, error)) ([][]NodeID, error) {
	levels, err := build(g.dependencies(true))
	if err != nil {
		return nil, err
	}
	out := make([][]NodeID, len(levels))
	for i, level := range levels {
		for _, name := range level {
			out[i] = append(out[i], g.byName[name])
		}
	}
	return out, nil
}
