package scheduler

import (
	"context"
	stderrors "errors"

	"github.com/kbukum/dataflow/dag"
	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/graph"
)

// computeFullyAsync orders nodes by source-first layers and sizes every
// FIFO from its async length. No rate balance is involved.
func computeFullyAsync(ctx context.Context, g *graph.Graph, topo *graph.Topology, cfg Config) (*Schedule, error) {
	layers, err := g.SourceLayers()
	if stderrors.Is(err, dag.ErrCycle) {
		return nil, errors.Deadlock(0, "graph has loops not broken by weak edges")
	}
	if err != nil {
		return nil, errors.Internal(err)
	}

	var sequence []int
	for _, layer := range layers {
		for _, id := range layer {
			sequence = append(sequence, topo.NodeIndex(id))
		}
	}

	lengths := make([]int, len(topo.Edges))
	for row, id := range topo.Edges {
		lengths[row] = g.Edge(id).AsyncLength
	}
	fifos := describeFIFOs(g, topo, lengths, nil, &cfg)
	if err := checkArrays(g, fifos); err != nil {
		return nil, err
	}

	s := newSchedule(g, topo, cfg, cfg.policy(), nil, sequence, fifos)
	if err := allocate(ctx, g, s); err != nil {
		return nil, err
	}
	return s, nil
}
