package graph

import (
	"fmt"

	"github.com/kbukum/dataflow/rate"
)

// NodeID, PortID and EdgeID index the graph arenas.
type (
	NodeID int
	PortID int
	EdgeID int
)

// NoNode marks the absence of a node reference.
const NoNode NodeID = -1

// Kind is the closed set of node variants. Only Duplicate and Constant
// change scheduling; the others shape code generation.
type Kind int

const (
	KindNode Kind = iota
	KindSource
	KindSink
	KindManyToMany
	KindDuplicate
	KindConstant
)

var kindNames = map[Kind]string{
	KindNode:       "node",
	KindSource:     "source",
	KindSink:       "sink",
	KindManyToMany: "many-to-many",
	KindDuplicate:  "duplicate",
	KindConstant:   "constant",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves the textual form used in graph documents.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("graph: unknown node kind %q", s)
}

// Direction tells inputs from outputs.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// PortSpec declares a port when adding a node.
type PortSpec struct {
	Name       string
	Dir        Direction
	Type       rate.DataType
	Rate       rate.Rate
	Constraint *BufferConstraint
}

// In declares an input port.
func In(name string, t rate.DataType, r rate.Rate) PortSpec {
	return PortSpec{Name: name, Dir: Input, Type: t, Rate: r}
}

// Out declares an output port.
func Out(name string, t rate.DataType, r rate.Rate) PortSpec {
	return PortSpec{Name: name, Dir: Output, Type: t, Rate: r}
}

// Constrained attaches a buffer constraint to the port.
func (p PortSpec) Constrained(c BufferConstraint) PortSpec {
	p.Constraint = &c
	return p
}

// NodeSpec declares a node.
type NodeSpec struct {
	Name string
	Kind Kind
	// Class is the implementation class name handed to code emitters.
	Class string
	// Stateless only affects code generation.
	Stateless bool
	// Identified asks emitters to give the node a runtime identifier.
	Identified bool
	Ports      []PortSpec
}

// Node is a read-only view of a graph node. Its slices belong to the graph.
type Node struct {
	ID         NodeID
	Name       string
	Kind       Kind
	Class      string
	Stateless  bool
	Identified bool
	Inputs     []PortID
	Outputs    []PortID
}

// Port is a read-only view of a node port.
type Port struct {
	ID         PortID
	Node       NodeID
	Name       string
	Dir        Direction
	Type       rate.DataType
	Rate       rate.Rate
	Constraint *BufferConstraint

	edges    []EdgeID
	constant NodeID
}

// Edges returns the live edges bound to the port. After legalization an
// output has at most one.
func (p Port) Edges() []EdgeID {
	out := make([]EdgeID, len(p.edges))
	copy(out, p.edges)
	return out
}

// Constant returns the constant node feeding an input, if any.
func (p Port) Constant() (NodeID, bool) {
	return p.constant, p.constant != NoNode
}

// Bound reports whether the port is connected to an edge or a constant.
func (p Port) Bound() bool {
	return len(p.edges) > 0 || p.constant != NoNode
}

// duplicateOutputName names the i-th output of an inserted duplicate:
// base 26 with letters, left-padded with 'A' to six characters.
func duplicateOutputName(i int) string {
	digits := []byte{}
	for {
		digits = append([]byte{byte('A' + i%26)}, digits...)
		i /= 26
		if i == 0 {
			break
		}
	}
	for len(digits) < 6 {
		digits = append([]byte{'A'}, digits...)
	}
	return string(digits)
}
