// Package graph is the mutable dataflow graph handed to the scheduler.
//
// Nodes, ports and edges live in arenas owned by Graph and refer to each
// other by index (NodeID, PortID, EdgeID), so a Graph can be copied or
// discarded without chasing references. Per-edge attributes (FIFO class,
// scale, delay, async length, weak flag, buffer constraint) are stored with
// the edge.
//
// A graph is built incrementally:
//
//	g := graph.New()
//	src, _ := g.AddSource("src", graph.Out("o", rate.Float32, rate.Static(5)))
//	snk, _ := g.AddSink("snk", graph.In("i", rate.Float32, rate.Static(5)))
//	_ = g.ConnectByName("src", "o", "snk", "i")
//
// Before scheduling, Legalize rewrites every output that feeds several
// inputs into an explicit Duplicate node, and Check verifies that every port
// is bound and that the graph is connected. Topology then freezes the node
// and edge order used by the scheduler.
package graph
