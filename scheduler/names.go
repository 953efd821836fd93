package scheduler

import (
	"fmt"

	"github.com/kbukum/dataflow/graph"
)

func nodeNames(g *graph.Graph, topo *graph.Topology) []string {
	names := make([]string, len(topo.Nodes))
	for i, id := range topo.Nodes {
		names[i] = g.Node(id).Name
	}
	return names
}

func edgeNames(g *graph.Graph, topo *graph.Topology) []string {
	out := make([]string, len(topo.Edges))
	for i, id := range topo.Edges {
		e := g.Edge(id)
		src, dst := g.Port(e.Src), g.Port(e.Dst)
		out[i] = fmt.Sprintf("%s.%s -> %s.%s",
			g.Node(src.Node).Name, src.Name, g.Node(dst.Node).Name, dst.Name)
	}
	return out
}

func repetitionFields(names []string, q []int) map[string]int {
	m := make(map[string]int, len(q))
	for i, n := range q {
		m[names[i]] = n
	}
	return m
}

func sequenceNames(names []string, seq []int) []string {
	out := make([]string, len(seq))
	for i, n := range seq {
		out[i] = names[n]
	}
	return out
}
