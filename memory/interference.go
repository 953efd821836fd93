package memory

import "sort"

// Interval is the schedule-step range [Start, Stop] during which a FIFO's
// content must be preserved. -1 means the bound was never recorded.
type Interval struct {
	Start int `json:"start" yaml:"start"`
	Stop  int `json:"stop" yaml:"stop"`
}

// NoInterval is the interval of a FIFO never touched.
var NoInterval = Interval{Start: -1, Stop: -1}

// Contains reports whether step t lies inside the interval.
func (i Interval) Contains(t int) bool {
	return i.Start <= t && t <= i.Stop
}

// Overlaps reports whether two intervals share a step.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start <= o.Stop && o.Start <= i.Stop
}

// RecordWrite opens the interval at the first write.
func (i *Interval) RecordWrite(t int) {
	if i.Start == -1 {
		i.Start = t
	}
}

// RecordRead extends the interval to the latest read.
func (i *Interval) RecordRead(t int) {
	if t > i.Stop {
		i.Stop = t
	}
}

// Graph is an undirected interference graph over vertex ids.
type Graph struct {
	vertices []int
	adj      map[int]map[int]bool
}

// NewGraph creates a graph with the given vertices, kept in ascending order.
func NewGraph(vertices ...int) *Graph {
	g := &Graph{adj: make(map[int]map[int]bool)}
	for _, v := range vertices {
		g.AddVertex(v)
	}
	return g
}

// AddVertex inserts v if absent.
func (g *Graph) AddVertex(v int) {
	if _, ok := g.adj[v]; ok {
		return
	}
	g.adj[v] = make(map[int]bool)
	i := sort.SearchInts(g.vertices, v)
	g.vertices = append(g.vertices, 0)
	copy(g.vertices[i+1:], g.vertices[i:])
	g.vertices[i] = v
}

// AddEdge links two vertices, adding them if needed. Self loops are dropped.
func (g *Graph) AddEdge(a, b int) {
	g.AddVertex(a)
	g.AddVertex(b)
	if a == b {
		return
	}
	g.adj[a][b] = true
	g.adj[b][a] = true
}

// HasEdge reports whether a and b interfere.
func (g *Graph) HasEdge(a, b int) bool {
	return g.adj[a][b]
}

// Vertices returns the vertices in ascending order.
func (g *Graph) Vertices() []int {
	out := make([]int, len(g.vertices))
	copy(out, g.vertices)
	return out
}

// Neighbors returns the neighbors of v in ascending order.
func (g *Graph) Neighbors(v int) []int {
	out := make([]int, 0, len(g.adj[v]))
	for n := range g.adj[v] {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Degree returns the number of neighbors of v.
func (g *Graph) Degree(v int) int { return len(g.adj[v]) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, nb := range g.adj {
		n += len(nb)
	}
	return n / 2
}
