package manifest

import (
	"bytes"
	"fmt"
	"regexp"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/graph"
	"github.com/kbukum/dataflow/rate"
	"github.com/kbukum/dataflow/validation"
)

// Decode parses a YAML (or JSON) graph document and builds the graph.
func Decode(data []byte) (*graph.Graph, error) {
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// DecodeDocument parses and validates a graph document without building it.
func DecodeDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, errors.InvalidFormat("graph document", "YAML graph document").WithCause(err)
	}
	if err := checkDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// identifier matches names that end up in generated C code.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// checkDocument runs the struct tag rules, then the naming rules that need
// the whole document: node, port and custom type names must be C
// identifiers and every port names its direction exactly once.
func checkDocument(doc *Document) error {
	if err := validation.Validate(doc); err != nil {
		return err
	}

	v := validation.New()
	for name, td := range doc.Graph.CustomTypes {
		field := "custom-types." + name
		v.Matches(field, name, identifier, "an identifier")
		v.Matches(field+".cname", td.CName, identifier, "an identifier")
	}
	for i, n := range doc.Graph.Nodes {
		field := fmt.Sprintf("nodes[%d]", i)
		if len(n.Inputs)+len(n.Outputs) > 0 {
			v.Matches(field+".node", n.Node, identifier, "an identifier")
		}
		for j, p := range n.Inputs {
			pf := fmt.Sprintf("%s.inputs[%d]", field, j)
			v.Required(pf+".input", p.Input).
				Matches(pf+".input", p.Input, identifier, "an identifier").
				Custom(p.Output == "", pf+".output", "is not allowed on an input")
		}
		for j, p := range n.Outputs {
			pf := fmt.Sprintf("%s.outputs[%d]", field, j)
			v.Required(pf+".output", p.Output).
				Matches(pf+".output", p.Output, identifier, "an identifier").
				Custom(p.Input == "", pf+".input", "is not allowed on an output")
		}
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Build turns a parsed document into a graph.
func Build(doc *Document) (*graph.Graph, error) {
	var opts []graph.Option
	if o := doc.Graph.Options; o != nil {
		opts = append(opts, graph.WithDefaultFIFOClass(o.FIFO), graph.WithDuplicateClass(o.Duplicate))
	}
	g := graph.New(opts...)

	types, err := registry(doc.Graph.CustomTypes)
	if err != nil {
		return nil, err
	}
	for i := range doc.Graph.Nodes {
		spec, err := nodeSpec(&doc.Graph.Nodes[i], types)
		if err != nil {
			return nil, err
		}
		if _, err := g.Add(spec); err != nil {
			return nil, err
		}
	}
	for i := range doc.Graph.Edges {
		if err := connect(g, &doc.Graph.Edges[i]); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func registry(custom map[string]TypeDoc) (*rate.Registry, error) {
	r := rate.NewRegistry()
	for name, td := range custom {
		t, err := rate.Custom(name, td.CName, td.Bytes)
		if err != nil {
			return nil, errors.InvalidInput("custom-types."+name, err.Error())
		}
		if err := r.Declare(t); err != nil {
			return nil, errors.InvalidInput("custom-types."+name, err.Error())
		}
	}
	return r, nil
}

func nodeSpec(n *NodeDoc, types *rate.Registry) (graph.NodeSpec, error) {
	spec := graph.NodeSpec{
		Name:       n.Node,
		Class:      n.Kind,
		Identified: n.Identified,
		Stateless:  n.Stateless,
	}
	switch {
	case n.Role != "":
		k, err := graph.ParseKind(n.Role)
		if err != nil {
			return spec, errors.InvalidInput(n.Node+".role", err.Error())
		}
		spec.Kind = k
	case len(n.Inputs) > 0 && len(n.Outputs) > 0:
		spec.Kind = graph.KindNode
	case len(n.Inputs) > 0:
		spec.Kind = graph.KindSink
	case len(n.Outputs) > 0:
		spec.Kind = graph.KindSource
	default:
		spec.Kind = graph.KindConstant
	}

	for _, p := range n.Inputs {
		ps, err := portSpec(n.Node, p.Input, graph.Input, p, types)
		if err != nil {
			return spec, err
		}
		spec.Ports = append(spec.Ports, ps)
	}
	for _, p := range n.Outputs {
		ps, err := portSpec(n.Node, p.Output, graph.Output, p, types)
		if err != nil {
			return spec, err
		}
		spec.Ports = append(spec.Ports, ps)
	}
	return spec, nil
}

func portSpec(node, name string, dir graph.Direction, p PortDoc, types *rate.Registry) (graph.PortSpec, error) {
	field := fmt.Sprintf("%s.%s", node, name)
	if name == "" {
		return graph.PortSpec{}, errors.MissingField(fmt.Sprintf("%s.%s", node, dir))
	}
	t, err := types.Lookup(p.Type)
	if err != nil {
		return graph.PortSpec{}, errors.InvalidInput(field, err.Error())
	}
	if p.Samples.IsZero() {
		return graph.PortSpec{}, errors.MissingField(field + ".samples")
	}
	ps := graph.PortSpec{Name: name, Dir: dir, Type: t, Rate: p.Samples.Rate}
	if p.BufferConstraint != nil {
		ps = ps.Constrained(p.BufferConstraint.constraint())
	}
	return ps, nil
}

func connect(g *graph.Graph, e *EdgeDoc) error {
	var opts []graph.ConnectOption
	if e.Class != "" {
		opts = append(opts, graph.WithFIFOClass(e.Class))
	}
	if e.Scale != 0 {
		opts = append(opts, graph.WithScale(e.Scale))
	}
	if e.Delay != nil {
		opts = append(opts, graph.WithDelay(*e.Delay))
	}
	if e.AsyncLength != 0 {
		opts = append(opts, graph.WithAsyncLength(e.AsyncLength))
	}
	if e.Weak {
		opts = append(opts, graph.WithWeak())
	}
	if e.BufferConstraint != nil {
		opts = append(opts, graph.WithBufferConstraint(e.BufferConstraint.constraint()))
	}
	if e.Dst.Input == "" {
		return errors.MissingField(e.Dst.Node + ".input")
	}
	if e.Src.Output == "" {
		if id, ok := g.NodeByName(e.Src.Node); ok && g.Node(id).Kind != graph.KindConstant {
			return errors.MissingField(e.Src.Node + ".output")
		}
	}
	return g.ConnectByName(e.Src.Node, e.Src.Output, e.Dst.Node, e.Dst.Input, opts...)
}
