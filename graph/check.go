package graph

import (
	"github.com/kbukum/dataflow/dag"
	"github.com/kbukum/dataflow/errors"
)

// Check verifies that the graph can be scheduled structurally: every port
// of a non-constant node is bound, and the non-constant nodes form a single
// connected component.
func (g *Graph) Check() error {
	for _, n := range g.nodes {
		if n.Kind == KindConstant {
			continue
		}
		for _, list := range [][]PortID{n.Inputs, n.Outputs} {
			for _, pid := range list {
				if !g.ports[pid].Bound() {
					return errors.UnconnectedIO(n.Name, g.ports[pid].Name)
				}
			}
		}
	}

	components, err := dag.Components(g.dependencies(false))
	if err != nil {
		return errors.Internal(err)
	}
	if components != 1 {
		return errors.GraphIsNotConnected(components)
	}
	return nil
}

// dependencies projects the non-constant nodes and live edges onto a
// dag.Graph. Nodes keep declaration order unless sorted is set, in which
// case they follow name order.
func (g *Graph) dependencies(sorted bool) *dag.Graph {
	d := &dag.Graph{}
	if sorted {
		for _, id := range g.sortedNodes() {
			d.Nodes = append(d.Nodes, g.nodes[id].Name)
		}
	} else {
		for _, n := range g.nodes {
			if n.Kind != KindConstant {
				d.Nodes = append(d.Nodes, n.Name)
			}
		}
	}
	for _, e := range g.edges {
		if e.removed {
			continue
		}
		d.Edges = append(d.Edges, dag.Edge{
			From: g.nodes[g.ports[e.Src].Node].Name,
			To:   g.nodes[g.ports[e.Dst].Node].Name,
			Weak: e.Weak,
		})
	}
	return d
}
