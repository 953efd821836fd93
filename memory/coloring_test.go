package memory

import (
	"math/rand"
	"testing"
)

func cycleGraph(n int) *Graph {
	g := NewGraph()
	for i := 0; i < n; i++ {
		g.AddEdge(i, (i+1)%n)
	}
	return g
}

func randomGraph(r *rand.Rand, n int, density float64) *Graph {
	g := NewGraph()
	for i := 0; i < n; i++ {
		g.AddVertex(i)
		for j := 0; j < i; j++ {
			if r.Float64() < density {
				g.AddEdge(i, j)
			}
		}
	}
	return g
}

func assertProper(t *testing.T, g *Graph, colors map[int]int) {
	t.Helper()
	if len(colors) != len(g.Vertices()) {
		t.Fatalf("colored %d of %d vertices", len(colors), len(g.Vertices()))
	}
	for _, v := range g.Vertices() {
		for _, n := range g.Neighbors(v) {
			if colors[v] == colors[n] {
				t.Fatalf("vertices %d and %d interfere but share color %d", v, n, colors[v])
			}
		}
	}
}

func countColors(colors map[int]int) int {
	set := make(map[int]bool)
	for _, c := range colors {
		set[c] = true
	}
	return len(set)
}

func TestColor_AllStrategiesProper(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	graphs := []*Graph{
		NewGraph(),
		NewGraph(1, 2, 3),
		cycleGraph(4),
		cycleGraph(5),
		randomGraph(r, 20, 0.3),
		randomGraph(r, 40, 0.1),
	}
	for _, s := range Strategies {
		t.Run(string(s), func(t *testing.T) {
			for _, g := range graphs {
				colors, err := Color(g, s, 42)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				assertProper(t, g, colors)
			}
		})
	}
}

func TestColor_OddCycleNeedsThree(t *testing.T) {
	colors, err := Color(cycleGraph(5), SaturationLargestFirst, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n := countColors(colors); n != 3 {
		t.Errorf("got %d colors, want 3", n)
	}
}

func TestColor_IsolatedVerticesShareOneColor(t *testing.T) {
	for _, s := range Strategies {
		colors, err := Color(NewGraph(3, 1, 2), s, 1)
		if err != nil {
			t.Fatal(err)
		}
		if n := countColors(colors); n != 1 {
			t.Errorf("%s: got %d colors, want 1", s, n)
		}
	}
}

func TestColor_RandomSequentialDeterministicForSeed(t *testing.T) {
	g := randomGraph(rand.New(rand.NewSource(3)), 30, 0.2)
	a, _ := Color(g, RandomSequential, 99)
	b, _ := Color(g, RandomSequential, 99)
	for v, c := range a {
		if b[v] != c {
			t.Fatalf("vertex %d: color %d then %d with the same seed", v, c, b[v])
		}
	}
}

func TestParseStrategy(t *testing.T) {
	if s, err := ParseStrategy(""); err != nil || s != LargestFirst {
		t.Errorf("empty strategy = %q, %v; want largest_first", s, err)
	}
	if s, err := ParseStrategy("smallest_last"); err != nil || s != SmallestLast {
		t.Errorf("got %q, %v", s, err)
	}
	if _, err := ParseStrategy("welsh_powell"); err == nil {
		t.Error("expected error for unknown strategy")
	}
	if _, err := Color(NewGraph(1), Strategy("nope"), 0); err == nil {
		t.Error("expected error from Color for unknown strategy")
	}
}

func TestGraph_Basics(t *testing.T) {
	g := NewGraph(5, 1)
	g.AddEdge(1, 3)
	g.AddEdge(3, 1)
	g.AddEdge(2, 2)

	if got := g.Vertices(); len(got) != 4 || got[0] != 1 || got[3] != 5 {
		t.Errorf("Vertices() = %v, want [1 2 3 5]", got)
	}
	if !g.HasEdge(3, 1) || g.HasEdge(1, 5) {
		t.Error("unexpected adjacency")
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	if g.Degree(2) != 0 {
		t.Error("self edges must be ignored")
	}
}

func TestInterval(t *testing.T) {
	iv := NoInterval
	iv.RecordWrite(3)
	iv.RecordWrite(5)
	iv.RecordRead(4)
	iv.RecordRead(2)
	if iv != (Interval{Start: 3, Stop: 4}) {
		t.Errorf("got %+v, want {3 4}", iv)
	}
	if !iv.Contains(3) || iv.Contains(5) {
		t.Error("Contains is wrong")
	}
	if !iv.Overlaps(Interval{Start: 4, Stop: 9}) || iv.Overlaps(Interval{Start: 5, Stop: 9}) {
		t.Error("Overlaps is wrong")
	}
}
