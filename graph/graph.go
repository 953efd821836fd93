package graph

import (
	"fmt"

	"github.com/kbukum/dataflow/errors"
)

// Default class names used when none is configured.
const (
	DefaultFIFOClass      = "FIFO"
	DefaultDuplicateClass = "Duplicate"
)

// Graph is a dataflow graph. It is mutable until Freeze and not safe for
// concurrent use.
type Graph struct {
	fifoClass      string
	duplicateClass string

	nodes  []Node
	ports  []Port
	edges  []edgeSlot
	byName map[string]NodeID

	dupCount int
	frozen   bool
}

type edgeSlot struct {
	Edge
	removed bool
}

// Option configures a Graph.
type Option func(*Graph)

// WithDefaultFIFOClass sets the class used for edges without an explicit one.
func WithDefaultFIFOClass(class string) Option {
	return func(g *Graph) {
		if class != "" {
			g.fifoClass = class
		}
	}
}

// WithDuplicateClass sets the class of inserted duplicate nodes.
func WithDuplicateClass(class string) Option {
	return func(g *Graph) {
		if class != "" {
			g.duplicateClass = class
		}
	}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		fifoClass:      DefaultFIFOClass,
		duplicateClass: DefaultDuplicateClass,
		byName:         make(map[string]NodeID),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FIFOClass returns the default FIFO class.
func (g *Graph) FIFOClass() string { return g.fifoClass }

// DuplicateClass returns the class given to inserted duplicates.
func (g *Graph) DuplicateClass() string { return g.duplicateClass }

// Freeze makes every later Add, Connect or ConnectConstant fail. A computed
// schedule freezes its graph.
func (g *Graph) Freeze() { g.frozen = true }

// Frozen reports whether Freeze was called.
func (g *Graph) Frozen() bool { return g.frozen }

func (g *Graph) checkMutable() error {
	if g.frozen {
		return errors.InvalidInput("graph", "graph is frozen by a computed schedule")
	}
	return nil
}

// Add declares a node.
func (g *Graph) Add(spec NodeSpec) (NodeID, error) {
	if err := g.checkMutable(); err != nil {
		return NoNode, err
	}
	if spec.Name == "" {
		return NoNode, errors.MissingField("name")
	}
	if _, exists := g.byName[spec.Name]; exists {
		return NoNode, errors.AlreadyExists("node", spec.Name)
	}
	if err := checkShape(spec); err != nil {
		return NoNode, err
	}

	id := NodeID(len(g.nodes))
	n := Node{
		ID:         id,
		Name:       spec.Name,
		Kind:       spec.Kind,
		Class:      spec.Class,
		Stateless:  spec.Stateless,
		Identified: spec.Identified,
	}
	for _, ps := range spec.Ports {
		pid := PortID(len(g.ports))
		p := Port{
			ID:       pid,
			Node:     id,
			Name:     ps.Name,
			Dir:      ps.Dir,
			Type:     ps.Type,
			Rate:     ps.Rate,
			constant: NoNode,
		}
		if ps.Constraint != nil {
			c := *ps.Constraint
			p.Constraint = &c
		}
		g.ports = append(g.ports, p)
		if ps.Dir == Input {
			n.Inputs = append(n.Inputs, pid)
		} else {
			n.Outputs = append(n.Outputs, pid)
		}
	}
	g.nodes = append(g.nodes, n)
	g.byName[spec.Name] = id
	return id, nil
}

func checkShape(spec NodeSpec) error {
	var ins, outs int
	seen := make(map[string]bool, len(spec.Ports))
	for _, p := range spec.Ports {
		if p.Name == "" {
			return errors.InvalidInput(spec.Name, "port without a name")
		}
		if seen[p.Name] {
			return errors.InvalidInput(spec.Name, fmt.Sprintf("port %q declared twice", p.Name))
		}
		seen[p.Name] = true
		if err := p.Rate.Validate(); err != nil {
			return errors.InvalidInput(spec.Name+"."+p.Name, err.Error())
		}
		if p.Type.Bytes <= 0 {
			return errors.InvalidInput(spec.Name+"."+p.Name, "datatype has no size")
		}
		if p.Dir == Input {
			ins++
		} else {
			outs++
		}
	}

	var ok bool
	switch spec.Kind {
	case KindSource:
		ok = ins == 0 && outs > 0
	case KindSink:
		ok = ins > 0 && outs == 0
	case KindNode, KindManyToMany:
		ok = ins > 0 && outs > 0
	case KindDuplicate:
		ok = ins == 1 && outs > 0
	case KindConstant:
		ok = ins == 0 && outs == 0
	default:
		return errors.InvalidInput(spec.Name, fmt.Sprintf("unknown node kind %d", int(spec.Kind)))
	}
	if !ok {
		return errors.InvalidInput(spec.Name,
			fmt.Sprintf("a %s cannot have %d inputs and %d outputs", spec.Kind, ins, outs))
	}
	return nil
}

// AddSource declares a node with outputs only.
func (g *Graph) AddSource(name string, outputs ...PortSpec) (NodeID, error) {
	return g.Add(NodeSpec{Name: name, Kind: KindSource, Ports: outputs})
}

// AddSink declares a node with inputs only.
func (g *Graph) AddSink(name string, inputs ...PortSpec) (NodeID, error) {
	return g.Add(NodeSpec{Name: name, Kind: KindSink, Ports: inputs})
}

// AddNode declares a node with both inputs and outputs.
func (g *Graph) AddNode(name string, ports ...PortSpec) (NodeID, error) {
	return g.Add(NodeSpec{Name: name, Kind: KindNode, Ports: ports})
}

// AddConstant declares a compile-time literal that may feed inputs.
func (g *Graph) AddConstant(name string) (NodeID, error) {
	return g.Add(NodeSpec{Name: name, Kind: KindConstant})
}

// NodeByName looks up a node.
func (g *Graph) NodeByName(name string) (NodeID, bool) {
	id, ok := g.byName[name]
	return id, ok
}

// Node returns a node by id.
func (g *Graph) Node(id NodeID) Node { return g.nodes[id] }

// Port returns a port by id.
func (g *Graph) Port(id PortID) Port { return g.ports[id] }

// Nodes returns every node in declaration order, duplicates included.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// NodeCount returns the number of declared nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// PortName formats a port as node.port for messages.
func (g *Graph) PortName(id PortID) string {
	p := g.ports[id]
	return g.nodes[p.Node].Name + "." + p.Name
}

// Input finds an input port of a node.
func (g *Graph) Input(node NodeID, name string) (PortID, error) {
	return g.findPort(node, name, Input)
}

// Output finds an output port of a node.
func (g *Graph) Output(node NodeID, name string) (PortID, error) {
	return g.findPort(node, name, Output)
}

func (g *Graph) findPort(node NodeID, name string, dir Direction) (PortID, error) {
	if node < 0 || int(node) >= len(g.nodes) {
		return 0, errors.NotFound("node", fmt.Sprint(node))
	}
	n := g.nodes[node]
	list := n.Inputs
	if dir == Output {
		list = n.Outputs
	}
	for _, pid := range list {
		if g.ports[pid].Name == name {
			return pid, nil
		}
	}
	return 0, errors.NotFound(dir.String(), n.Name+"."+name)
}

// PortByName resolves node and port names.
func (g *Graph) PortByName(node, port string, dir Direction) (PortID, error) {
	id, ok := g.byName[node]
	if !ok {
		return 0, errors.NotFound("node", node)
	}
	return g.findPort(id, port, dir)
}
