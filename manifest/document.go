package manifest

import (
	"encoding/json"
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/dataflow/graph"
	"github.com/kbukum/dataflow/rate"
	"github.com/kbukum/dataflow/version"
)

// FormatVersion is the document layout version written by Encode.
const FormatVersion = version.DocumentFormat

// Document is the YAML form of a graph.
type Document struct {
	Version   string   `yaml:"version,omitempty" json:"version,omitempty"`
	Generator string   `yaml:"generator,omitempty" json:"generator,omitempty"`
	Graph     GraphDoc `yaml:"graph" json:"graph" validate:"required"`
}

// GraphDoc lists the nodes and edges of a graph.
type GraphDoc struct {
	Options     *OptionsDoc        `yaml:"options,omitempty" json:"options,omitempty"`
	CustomTypes map[string]TypeDoc `yaml:"custom-types,omitempty" json:"custom-types,omitempty" validate:"dive"`
	Nodes       []NodeDoc          `yaml:"nodes" json:"nodes" validate:"required,min=1,dive"`
	Edges       []EdgeDoc          `yaml:"edges" json:"edges" validate:"dive"`
}

// OptionsDoc carries graph-wide class names.
type OptionsDoc struct {
	FIFO      string `yaml:"FIFO,omitempty" json:"FIFO,omitempty"`
	Duplicate string `yaml:"Duplicate,omitempty" json:"Duplicate,omitempty"`
}

// TypeDoc declares a custom element type.
type TypeDoc struct {
	CName string `yaml:"cname" json:"cname"`
	Bytes int    `yaml:"bytes" json:"bytes" validate:"gt=0"`
}

// NodeDoc declares a node. A node without ports is a constant.
type NodeDoc struct {
	Node       string `yaml:"node" json:"node" validate:"required"`
	Identified bool   `yaml:"identified,omitempty" json:"identified,omitempty"`
	// Kind is the implementation class name.
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty"`
	// Role overrides the node variant inferred from its ports
	// ("many-to-many" or "duplicate").
	Role      string    `yaml:"role,omitempty" json:"role,omitempty" validate:"omitempty,oneof=node source sink many-to-many duplicate"`
	Stateless bool      `yaml:"stateless,omitempty" json:"stateless,omitempty"`
	Inputs    []PortDoc `yaml:"inputs,omitempty" json:"inputs,omitempty" validate:"dive"`
	Outputs   []PortDoc `yaml:"outputs,omitempty" json:"outputs,omitempty" validate:"dive"`
}

// PortDoc declares a port. Exactly one of Input and Output is set.
type PortDoc struct {
	Input            string         `yaml:"input,omitempty" json:"input,omitempty"`
	Output           string         `yaml:"output,omitempty" json:"output,omitempty"`
	Samples          Samples        `yaml:"samples" json:"samples"`
	Type             string         `yaml:"type" json:"type" validate:"required"`
	BufferConstraint *ConstraintDoc `yaml:"buffer-constraint,omitempty" json:"buffer-constraint,omitempty"`
}

// ConstraintDoc is a buffer constraint. Missing policy fields take the
// graph.NewBufferConstraint defaults.
type ConstraintDoc struct {
	Name           string `yaml:"name,omitempty" json:"name,omitempty"`
	MustBeArray    *bool  `yaml:"must-be-array,omitempty" json:"must-be-array,omitempty"`
	AssignedByNode *bool  `yaml:"assigned-by-node,omitempty" json:"assigned-by-node,omitempty"`
	CanBeShared    *bool  `yaml:"can-be-shared,omitempty" json:"can-be-shared,omitempty"`
}

// EdgeDoc connects two ports, or a constant to an input when Src has no
// output.
type EdgeDoc struct {
	Src              Endpoint       `yaml:"src" json:"src"`
	Dst              Endpoint       `yaml:"dst" json:"dst"`
	Class            string         `yaml:"class,omitempty" json:"class,omitempty"`
	Scale            float64        `yaml:"scale,omitempty" json:"scale,omitempty" validate:"gte=0"`
	Delay            *int           `yaml:"delay,omitempty" json:"delay,omitempty" validate:"omitempty,gte=0"`
	AsyncLength      int            `yaml:"async-length,omitempty" json:"async-length,omitempty" validate:"gte=0"`
	Weak             bool           `yaml:"weak-edge,omitempty" json:"weak-edge,omitempty"`
	BufferConstraint *ConstraintDoc `yaml:"buffer-constraint,omitempty" json:"buffer-constraint,omitempty"`
}

// Endpoint names one side of an edge.
type Endpoint struct {
	Node   string `yaml:"node" json:"node" validate:"required"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
	Input  string `yaml:"input,omitempty" json:"input,omitempty"`
}

// Samples is a port rate written either as an integer or as a list of
// integers for a cyclo-static rate.
type Samples struct {
	rate.Rate
}

// UnmarshalYAML accepts a scalar or a sequence.
func (s *Samples) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var n int
		if err := value.Decode(&n); err != nil {
			return fmt.Errorf("line %d: samples: %w", value.Line, err)
		}
		s.Rate = rate.Static(n)
	case yaml.SequenceNode:
		var counts []int
		if err := value.Decode(&counts); err != nil {
			return fmt.Errorf("line %d: samples: %w", value.Line, err)
		}
		s.Rate = rate.Cyclic(counts...)
	default:
		return fmt.Errorf("line %d: samples must be an integer or a list of integers", value.Line)
	}
	return nil
}

// MarshalYAML writes a static rate as an integer.
func (s Samples) MarshalYAML() (interface{}, error) {
	if n, ok := s.StaticCount(); ok {
		return n, nil
	}
	return s.Counts(), nil
}

// MarshalJSON mirrors MarshalYAML.
func (s Samples) MarshalJSON() ([]byte, error) {
	v, _ := s.MarshalYAML()
	return json.Marshal(v)
}

func (c *ConstraintDoc) constraint() graph.BufferConstraint {
	bc := graph.NewBufferConstraint(c.Name)
	if c.MustBeArray != nil {
		bc.MustBeArray = *c.MustBeArray
	}
	if c.AssignedByNode != nil {
		bc.AssignedByNode = *c.AssignedByNode
	}
	if c.CanBeShared != nil {
		bc.CanBeShared = *c.CanBeShared
	}
	return bc
}

func constraintDoc(c *graph.BufferConstraint) *ConstraintDoc {
	if c == nil {
		return nil
	}
	return &ConstraintDoc{
		Name:           c.Name,
		MustBeArray:    &c.MustBeArray,
		AssignedByNode: &c.AssignedByNode,
		CanBeShared:    &c.CanBeShared,
	}
}
