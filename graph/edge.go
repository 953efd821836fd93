package graph

import (
	"github.com/kbukum/dataflow/errors"
)

// Edge connects an output port to an input port.
type Edge struct {
	ID  EdgeID
	Src PortID
	Dst PortID
	EdgeAttrs
}

// EdgeAttrs are the per-edge attributes consumed by the scheduler and the
// code emitters.
type EdgeAttrs struct {
	// Class is the FIFO implementation class.
	Class string
	// Scale multiplies the FIFO length in asynchronous mode. 1 means unset.
	Scale float64
	// Delay is the number of initial tokens.
	Delay int
	// AsyncLength is the FIFO length in fully asynchronous mode.
	AsyncLength int
	// Weak edges are ignored by topological layering.
	Weak bool
	// Buffer is the custom buffer constraint, if any.
	Buffer *BufferConstraint
	// Inherited is true when Buffer comes from one of the two ports.
	// Only inherited constraints survive duplicate insertion.
	Inherited bool
}

// ConstantEdge binds a constant to an input. It carries no FIFO.
type ConstantEdge struct {
	Constant NodeID
	Dst      PortID
}

type connectOptions struct {
	attrs    EdgeAttrs
	delaySet bool
	buffer   *BufferConstraint
}

// ConnectOption customizes an edge.
type ConnectOption func(*connectOptions)

// WithFIFOClass overrides the default FIFO class.
func WithFIFOClass(class string) ConnectOption {
	return func(o *connectOptions) {
		if class != "" {
			o.attrs.Class = class
		}
	}
}

// WithScale sets the asynchronous scale factor.
func WithScale(scale float64) ConnectOption {
	return func(o *connectOptions) { o.attrs.Scale = scale }
}

// WithAsyncLength sets the fully asynchronous FIFO length.
func WithAsyncLength(n int) ConnectOption {
	return func(o *connectOptions) { o.attrs.AsyncLength = n }
}

// WithWeak marks the edge weak.
func WithWeak() ConnectOption {
	return func(o *connectOptions) { o.attrs.Weak = true }
}

// WithDelay puts n initial tokens on the edge.
func WithDelay(n int) ConnectOption {
	return func(o *connectOptions) {
		o.attrs.Delay = n
		o.delaySet = true
	}
}

// WithBuffer imposes a named buffer directly on the edge. Port constraints
// take precedence over it.
func WithBuffer(name string, mustBeArray bool) ConnectOption {
	return func(o *connectOptions) {
		c := NewBufferConstraint(name)
		c.MustBeArray = mustBeArray
		o.buffer = &c
	}
}

// WithBufferConstraint is WithBuffer with every policy field explicit.
func WithBufferConstraint(c BufferConstraint) ConnectOption {
	return func(o *connectOptions) { o.buffer = &c }
}

// Connect adds an edge from output src to input dst.
func (g *Graph) Connect(src, dst PortID, opts ...ConnectOption) (EdgeID, error) {
	o := connectOptions{attrs: EdgeAttrs{Class: g.fifoClass, Scale: 1}}
	for _, opt := range opts {
		opt(&o)
	}
	return g.connect(src, dst, o)
}

// ConnectWithDelay adds an edge carrying delay initial tokens.
func (g *Graph) ConnectWithDelay(src, dst PortID, delay int, opts ...ConnectOption) (EdgeID, error) {
	return g.Connect(src, dst, append(opts, WithDelay(delay))...)
}

func (g *Graph) connect(src, dst PortID, o connectOptions) (EdgeID, error) {
	if err := g.checkMutable(); err != nil {
		return 0, err
	}
	if err := g.checkPorts(src, dst); err != nil {
		return 0, err
	}
	sp, dp := g.ports[src], g.ports[dst]
	srcNode, dstNode := g.nodes[sp.Node].Name, g.nodes[dp.Node].Name

	if sp.Type != dp.Type {
		return 0, errors.IncompatibleIO(srcNode, sp.Name, dstNode, dp.Name, sp.Type.Name, dp.Type.Name)
	}
	if dp.Bound() {
		return 0, errors.DuplicateEdge(srcNode, sp.Name, dstNode, dp.Name)
	}
	if o.attrs.Delay < 0 {
		return 0, errors.InvalidInput("delay", "delay must not be negative")
	}
	if o.attrs.AsyncLength < 0 {
		return 0, errors.InvalidInput("async-length", "async length must not be negative")
	}
	if o.attrs.Scale <= 0 {
		return 0, errors.InvalidInput("scale", "scale must be positive")
	}

	if sp.Constraint != nil && dp.Constraint != nil && !sp.Constraint.Compatible(*dp.Constraint) {
		return 0, errors.BufferConstraintOnIOAreIncompatibles(srcNode, sp.Name, dstNode, dp.Name)
	}

	attrs := o.attrs
	switch {
	case sp.Constraint != nil:
		c := *sp.Constraint
		attrs.Buffer, attrs.Inherited = &c, true
	case dp.Constraint != nil:
		c := *dp.Constraint
		attrs.Buffer, attrs.Inherited = &c, true
	case o.buffer != nil:
		c := *o.buffer
		attrs.Buffer, attrs.Inherited = &c, false
	}

	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, edgeSlot{Edge: Edge{ID: id, Src: src, Dst: dst, EdgeAttrs: attrs}})
	g.ports[src].edges = append(g.ports[src].edges, id)
	g.ports[dst].edges = append(g.ports[dst].edges, id)
	return id, nil
}

func (g *Graph) checkPorts(src, dst PortID) error {
	if src < 0 || int(src) >= len(g.ports) {
		return errors.InvalidInput("src", "unknown port")
	}
	if dst < 0 || int(dst) >= len(g.ports) {
		return errors.InvalidInput("dst", "unknown port")
	}
	if g.ports[src].Dir != Output {
		return errors.InvalidInput("src", g.PortName(src)+" is not an output")
	}
	if g.ports[dst].Dir != Input {
		return errors.InvalidInput("dst", g.PortName(dst)+" is not an input")
	}
	return nil
}

// ConnectConstant binds a constant node to an input. No FIFO is created
// and the input does not take part in scheduling.
func (g *Graph) ConnectConstant(c NodeID, dst PortID) error {
	if err := g.checkMutable(); err != nil {
		return err
	}
	if c < 0 || int(c) >= len(g.nodes) || g.nodes[c].Kind != KindConstant {
		return errors.InvalidInput("constant", "source is not a constant node")
	}
	if dst < 0 || int(dst) >= len(g.ports) || g.ports[dst].Dir != Input {
		return errors.InvalidInput("dst", "unknown input port")
	}
	dp := g.ports[dst]
	if dp.Bound() {
		return errors.DuplicateEdge(g.nodes[c].Name, "", g.nodes[dp.Node].Name, dp.Name)
	}
	g.ports[dst].constant = c
	return nil
}

// ConnectByName connects ports by node and port names. When srcNode is a
// constant, srcPort is ignored and a delay is rejected.
func (g *Graph) ConnectByName(srcNode, srcPort, dstNode, dstPort string, opts ...ConnectOption) error {
	dst, err := g.PortByName(dstNode, dstPort, Input)
	if err != nil {
		return err
	}
	if id, ok := g.byName[srcNode]; ok && g.nodes[id].Kind == KindConstant {
		var o connectOptions
		for _, opt := range opts {
			opt(&o)
		}
		if o.delaySet {
			return errors.CannotDelayConstant(srcNode, dstNode, dstPort)
		}
		return g.ConnectConstant(id, dst)
	}
	src, err := g.PortByName(srcNode, srcPort, Output)
	if err != nil {
		return err
	}
	_, err = g.Connect(src, dst, opts...)
	return err
}

// Edge returns an edge by id. Removed edges are still addressable.
func (g *Graph) Edge(id EdgeID) Edge { return g.edges[id].Edge }

// Edges returns the live edges in creation order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		if !e.removed {
			out = append(out, e.Edge)
		}
	}
	return out
}

// ConstantEdges lists every constant binding in port order.
func (g *Graph) ConstantEdges() []ConstantEdge {
	var out []ConstantEdge
	for _, p := range g.ports {
		if p.constant != NoNode {
			out = append(out, ConstantEdge{Constant: p.constant, Dst: p.ID})
		}
	}
	return out
}

func (g *Graph) removeEdge(id EdgeID) {
	e := &g.edges[id]
	if e.removed {
		return
	}
	e.removed = true
	g.ports[e.Src].edges = without(g.ports[e.Src].edges, id)
	g.ports[e.Dst].edges = without(g.ports[e.Dst].edges, id)
}

func without(ids []EdgeID, id EdgeID) []EdgeID {
	out := ids[:0:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
