package manifest

import (
	"bytes"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/graph"
	"github.com/kbukum/dataflow/rate"
	"github.com/kbukum/dataflow/version"
)

// Encode writes g as a YAML graph document. The output is deterministic:
// nodes keep declaration order, constant bindings come before FIFO edges,
// and only edge-level buffer constraints are written on edges.
func Encode(g *graph.Graph) ([]byte, error) {
	return marshal(Describe(g))
}

// Describe converts g to its document form.
func Describe(g *graph.Graph) *Document {
	doc := &Document{
		Version:   FormatVersion,
		Generator: version.Generator(),
	}
	if g.FIFOClass() != graph.DefaultFIFOClass || g.DuplicateClass() != graph.DefaultDuplicateClass {
		doc.Graph.Options = &OptionsDoc{}
		if g.FIFOClass() != graph.DefaultFIFOClass {
			doc.Graph.Options.FIFO = g.FIFOClass()
		}
		if g.DuplicateClass() != graph.DefaultDuplicateClass {
			doc.Graph.Options.Duplicate = g.DuplicateClass()
		}
	}

	custom := make(map[string]TypeDoc)
	for _, n := range g.Nodes() {
		nd := NodeDoc{
			Node:       n.Name,
			Identified: n.Identified,
			Kind:       n.Class,
			Stateless:  n.Stateless,
		}
		if n.Kind == graph.KindManyToMany || n.Kind == graph.KindDuplicate {
			nd.Role = n.Kind.String()
		}
		for _, pid := range n.Inputs {
			p := g.Port(pid)
			collectType(custom, p.Type)
			nd.Inputs = append(nd.Inputs, PortDoc{
				Input:            p.Name,
				Samples:          Samples{p.Rate},
				Type:             p.Type.Name,
				BufferConstraint: constraintDoc(p.Constraint),
			})
		}
		for _, pid := range n.Outputs {
			p := g.Port(pid)
			collectType(custom, p.Type)
			nd.Outputs = append(nd.Outputs, PortDoc{
				Output:           p.Name,
				Samples:          Samples{p.Rate},
				Type:             p.Type.Name,
				BufferConstraint: constraintDoc(p.Constraint),
			})
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, nd)
	}
	if len(custom) > 0 {
		doc.Graph.CustomTypes = custom
	}

	for _, ce := range g.ConstantEdges() {
		dst := g.Port(ce.Dst)
		doc.Graph.Edges = append(doc.Graph.Edges, EdgeDoc{
			Src: Endpoint{Node: g.Node(ce.Constant).Name},
			Dst: Endpoint{Node: g.Node(dst.Node).Name, Input: dst.Name},
		})
	}
	for _, e := range g.Edges() {
		doc.Graph.Edges = append(doc.Graph.Edges, edgeDoc(g, e))
	}
	return doc
}

func edgeDoc(g *graph.Graph, e graph.Edge) EdgeDoc {
	src, dst := g.Port(e.Src), g.Port(e.Dst)
	ed := EdgeDoc{
		Src:         Endpoint{Node: g.Node(src.Node).Name, Output: src.Name},
		Dst:         Endpoint{Node: g.Node(dst.Node).Name, Input: dst.Name},
		AsyncLength: e.AsyncLength,
		Weak:        e.Weak,
	}
	if e.Class != g.FIFOClass() {
		ed.Class = e.Class
	}
	if e.Scale != 1 {
		ed.Scale = e.Scale
	}
	if e.Delay > 0 {
		d := e.Delay
		ed.Delay = &d
	}
	if !e.Inherited {
		ed.BufferConstraint = constraintDoc(e.Buffer)
	}
	return ed
}

func collectType(custom map[string]TypeDoc, t rate.DataType) {
	if b, ok := rate.Builtin(t.Name); ok && b == t {
		return
	}
	custom[t.Name] = TypeDoc{CName: t.CName, Bytes: t.Bytes}
}

func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Internal(err)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Internal(err)
	}
	return buf.Bytes(), nil
}
