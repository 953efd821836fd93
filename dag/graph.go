package dag

import (
	"errors"
	"fmt"
)

// ErrCycle is returned when layering cannot remove every node.
var ErrCycle = errors.New("dag: cycle detected")

// Graph declares nodes and directed edges. Node order is significant:
// every level lists its nodes in the order they appear in Nodes.
type Graph struct {
	Nodes []string
	Edges []Edge
}

// Edge represents a dependency: To depends on From.
type Edge struct {
	From string
	To   string
	// Weak edges are ignored when layering, so they may close a cycle.
	// They still count for connectivity.
	Weak bool
}

// BuildLevels groups nodes by dependency level using Kahn's algorithm,
// sources first. Weak edges are skipped.
func BuildLevels(g *Graph) ([][]string, error) {
	return layer(g, false)
}

// BuildReverseLevels groups nodes sinks first: level 0 holds nodes without
// outgoing edges, level 1 the nodes that only feed level 0, and so on.
func BuildReverseLevels(g *Graph) ([][]string, error) {
	return layer(g, true)
}

func layer(g *Graph, reverse bool) ([][]string, error) {
	index, err := indexNodes(g)
	if err != nil {
		return nil, err
	}

	degree := make([]int, len(g.Nodes))
	next := make([][]int, len(g.Nodes)) // node -> nodes whose degree drops when it is removed

	for _, e := range g.Edges {
		from, ok := index[e.From]
		if !ok {
			return nil, fmt.Errorf("dag: edge references unknown node %q", e.From)
		}
		to, ok := index[e.To]
		if !ok {
			return nil, fmt.Errorf("dag: edge references unknown node %q", e.To)
		}
		if e.Weak {
			continue
		}
		if reverse {
			degree[from]++
			next[to] = append(next[to], from)
		} else {
			degree[to]++
			next[from] = append(next[from], to)
		}
	}

	removed := make([]bool, len(g.Nodes))
	var levels [][]string
	visited := 0

	for visited < len(g.Nodes) {
		var level []int
		for i := range g.Nodes {
			if !removed[i] && degree[i] == 0 {
				level = append(level, i)
			}
		}
		if len(level) == 0 {
			return nil, fmt.Errorf("%w, processed %d of %d nodes", ErrCycle, visited, len(g.Nodes))
		}

		names := make([]string, len(level))
		for k, i := range level {
			removed[i] = true
			names[k] = g.Nodes[i]
		}
		for _, i := range level {
			for _, j := range next[i] {
				degree[j]--
			}
		}
		levels = append(levels, names)
		visited += len(level)
	}

	return levels, nil
}

// Components counts the weakly connected components of g, weak edges
// included. An empty graph has zero components.
func Components(g *Graph) (int, error) {
	index, err := indexNodes(g)
	if err != nil {
		return 0, err
	}

	parent := make([]int, len(g.Nodes))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	count := len(g.Nodes)
	for _, e := range g.Edges {
		from, ok := index[e.From]
		if !ok {
			return 0, fmt.Errorf("dag: edge references unknown node %q", e.From)
		}
		to, ok := index[e.To]
		if !ok {
			return 0, fmt.Errorf("dag: edge references unknown node %q", e.To)
		}
		if a, b := find(from), find(to); a != b {
			parent[a] = b
			count--
		}
	}
	return count, nil
}

func indexNodes(g *Graph) (map[string]int, error) {
	index := make(map[string]int, len(g.Nodes))
	for i, name := range g.Nodes {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("dag: duplicate node %q", name)
		}
		index[name] = i
	}
	return index, nil
}

