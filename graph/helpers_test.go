package graph

import (
	"testing"

	"github.com/kbukum/dataflow/rate"
)

var f32 = rate.Float32

func mustAdd(t *testing.T, g *Graph, spec NodeSpec) NodeID {
	t.Helper()
	id, err := g.Add(spec)
	if err != nil {
		t.Fatalf("Add(%s): %v", spec.Name, err)
	}
	return id
}

func mustConnect(t *testing.T, g *Graph, srcNode, srcPort, dstNode, dstPort string, opts ...ConnectOption) {
	t.Helper()
	if err := g.ConnectByName(srcNode, srcPort, dstNode, dstPort, opts...); err != nil {
		t.Fatalf("connect %s.%s -> %s.%s: %v", srcNode, srcPort, dstNode, dstPort, err)
	}
}

func source(name string, n int) NodeSpec {
	return NodeSpec{Name: name, Kind: KindSource, Ports: []PortSpec{Out("o", f32, rate.Static(n))}}
}

func sink(name string, n int) NodeSpec {
	return NodeSpec{Name: name, Kind: KindSink, Ports: []PortSpec{In("i", f32, rate.Static(n))}}
}

func processing(name string, in, out int) NodeSpec {
	return NodeSpec{Name: name, Kind: KindNode, Ports: []PortSpec{
		In("i", f32, rate.Static(in)),
		Out("o", f32, rate.Static(out)),
	}}
}

// fanOutGraph is source(5) -> processing(5,5) -> two sinks.
func fanOutGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	mustAdd(t, g, source("source", 5))
	mustAdd(t, g, processing("processing1", 5, 5))
	mustAdd(t, g, sink("sink1", 5))
	mustAdd(t, g, sink("sink2", 5))
	mustConnect(t, g, "source", "o", "processing1", "i")
	mustConnect(t, g, "processing1", "o", "sink1", "i")
	mustConnect(t, g, "processing1", "o", "sink2", "i")
	return g
}
