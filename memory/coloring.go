package memory

import (
	"fmt"
	"math/rand"
	"sort"
)

// Strategy selects the vertex order of greedy coloring. Every strategy
// yields a proper coloring; they only differ in how many colors, and so
// buffers, they use.
type Strategy string

const (
	LargestFirst           Strategy = "largest_first"
	SmallestLast           Strategy = "smallest_last"
	RandomSequential       Strategy = "random_sequential"
	IndependentSet         Strategy = "independent_set"
	ConnectedSequentialBFS Strategy = "connected_sequential_bfs"
	ConnectedSequentialDFS Strategy = "connected_sequential_dfs"
	SaturationLargestFirst Strategy = "saturation_largest_first"
)

// Strategies lists every supported strategy.
var Strategies = []Strategy{
	LargestFirst, SmallestLast, RandomSequential, IndependentSet,
	ConnectedSequentialBFS, ConnectedSequentialDFS, SaturationLargestFirst,
}

// ParseStrategy validates a strategy name. The empty string selects
// LargestFirst.
func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return LargestFirst, nil
	}
	for _, st := range Strategies {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("memory: unknown coloring strategy %q", s)
}

// Color assigns each vertex the smallest color unused by its already
// colored neighbors, visiting vertices in the order chosen by strategy.
func Color(g *Graph, strategy Strategy, seed int64) (map[int]int, error) {
	if strategy == SaturationLargestFirst {
		return colorDSatur(g), nil
	}

	var order []int
	switch strategy {
	case LargestFirst, "":
		order = largestFirst(g)
	case SmallestLast:
		order = smallestLast(g)
	case RandomSequential:
		order = g.Vertices()
		r := rand.New(rand.NewSource(seed))
		r.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	case IndependentSet:
		order = independentSets(g)
	case ConnectedSequentialBFS:
		order = connectedSequential(g, false)
	case ConnectedSequentialDFS:
		order = connectedSequential(g, true)
	default:
		return nil, fmt.Errorf("memory: unknown coloring strategy %q", strategy)
	}

	colors := make(map[int]int, len(order))
	for _, v := range order {
		colors[v] = smallestFree(g, v, colors)
	}
	return colors, nil
}

func smallestFree(g *Graph, v int, colors map[int]int) int {
	used := make(map[int]bool)
	for _, n := range g.Neighbors(v) {
		if c, ok := colors[n]; ok {
			used[c] = true
		}
	}
	c := 0
	for used[c] {
		c++
	}
	return c
}

func largestFirst(g *Graph) []int {
	order := g.Vertices()
	sort.SliceStable(order, func(i, j int) bool { return g.Degree(order[i]) > g.Degree(order[j]) })
	return order
}

// smallestLast repeatedly removes a vertex of minimum remaining degree and
// colors in reverse removal order.
func smallestLast(g *Graph) []int {
	degree := make(map[int]int)
	for _, v := range g.vertices {
		degree[v] = g.Degree(v)
	}
	removed := make(map[int]bool)
	order := make([]int, 0, len(g.vertices))
	for len(order) < len(g.vertices) {
		best := -1
		for _, v := range g.vertices {
			if removed[v] {
				continue
			}
			if best == -1 || degree[v] < degree[best] {
				best = v
			}
		}
		removed[best] = true
		order = append(order, best)
		for n := range g.adj[best] {
			if !removed[n] {
				degree[n]--
			}
		}
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// independentSets emits maximal independent sets one after another, each
// built by picking the vertex of smallest degree among the candidates left.
func independentSets(g *Graph) []int {
	remaining := make(map[int]bool)
	for _, v := range g.vertices {
		remaining[v] = true
	}
	var order []int
	for len(remaining) > 0 {
		candidates := make(map[int]bool, len(remaining))
		for v := range remaining {
			candidates[v] = true
		}
		for len(candidates) > 0 {
			best := -1
			bestDeg := 0
			for _, v := range g.vertices {
				if !candidates[v] {
					continue
				}
				d := 0
				for n := range g.adj[v] {
					if candidates[n] {
						d++
					}
				}
				if best == -1 || d < bestDeg {
					best, bestDeg = v, d
				}
			}
			order = append(order, best)
			delete(remaining, best)
			delete(candidates, best)
			for n := range g.adj[best] {
				delete(candidates, n)
			}
		}
	}
	return order
}

func connectedSequential(g *Graph, depthFirst bool) []int {
	seen := make(map[int]bool)
	var order []int
	for _, root := range g.vertices {
		if seen[root] {
			continue
		}
		seen[root] = true
		frontier := []int{root}
		for len(frontier) > 0 {
			var v int
			if depthFirst {
				v, frontier = frontier[len(frontier)-1], frontier[:len(frontier)-1]
			} else {
				v, frontier = frontier[0], frontier[1:]
			}
			order = append(order, v)
			nb := g.Neighbors(v)
			if depthFirst {
				for i := len(nb) - 1; i >= 0; i-- {
					if !seen[nb[i]] {
						seen[nb[i]] = true
						frontier = append(frontier, nb[i])
					}
				}
				continue
			}
			for _, n := range nb {
				if !seen[n] {
					seen[n] = true
					frontier = append(frontier, n)
				}
			}
		}
	}
	return order
}

// colorDSatur colors the vertex whose neighbors already use the most
// distinct colors first, breaking ties by degree then by id.
func colorDSatur(g *Graph) map[int]int {
	colors := make(map[int]int, len(g.vertices))
	saturation := func(v int) int {
		seen := make(map[int]bool)
		for n := range g.adj[v] {
			if c, ok := colors[n]; ok {
				seen[c] = true
			}
		}
		return len(seen)
	}
	for len(colors) < len(g.vertices) {
		best, bestSat, bestDeg := -1, -1, -1
		for _, v := range g.vertices {
			if _, done := colors[v]; done {
				continue
			}
			s, d := saturation(v), g.Degree(v)
			if s > bestSat || (s == bestSat && d > bestDeg) {
				best, bestSat, bestDeg = v, s, d
			}
		}
		colors[best] = smallestFree(g, best, colors)
	}
	return colors
}
