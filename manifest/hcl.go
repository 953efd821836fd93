package manifest

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/graph"
	"github.com/kbukum/dataflow/rate"
)

type hclVariablesFile struct {
	Variables []*hclVariable `hcl:"variable,block"`
	Remain    hcl.Body       `hcl:",remain"`
}

type hclVariable struct {
	Name        string     `hcl:"name,label"`
	Description string     `hcl:"description,optional"`
	Default     *cty.Value `hcl:"default,optional"`
}

type hclGraphFile struct {
	Options   *hclOptions    `hcl:"options,block"`
	Types     []*hclType     `hcl:"type,block"`
	Constants []*hclConstant `hcl:"constant,block"`
	Nodes     []*hclNode     `hcl:"node,block"`
	Edges     []*hclEdge     `hcl:"edge,block"`
}

type hclOptions struct {
	FIFO      string `hcl:"fifo,optional"`
	Duplicate string `hcl:"duplicate,optional"`
}

type hclType struct {
	Name  string `hcl:"name,label"`
	CName string `hcl:"cname,optional"`
	Bytes int    `hcl:"bytes"`
}

type hclConstant struct {
	Name string `hcl:"name,label"`
}

type hclNode struct {
	Name       string     `hcl:"name,label"`
	Kind       string     `hcl:"kind,optional"`
	Role       string     `hcl:"role,optional"`
	Identified bool       `hcl:"identified,optional"`
	Stateless  bool       `hcl:"stateless,optional"`
	Inputs     []*hclPort `hcl:"input,block"`
	Outputs    []*hclPort `hcl:"output,block"`
}

type hclPort struct {
	Name    string         `hcl:"name,label"`
	Type    string         `hcl:"type"`
	Samples hcl.Expression `hcl:"samples"`
	Buffer  *hclConstraint `hcl:"buffer_constraint,block"`
}

type hclConstraint struct {
	Name           string `hcl:"name,optional"`
	MustBeArray    *bool  `hcl:"must_be_array,optional"`
	AssignedByNode *bool  `hcl:"assigned_by_node,optional"`
	CanBeShared    *bool  `hcl:"can_be_shared,optional"`
}

type hclEdge struct {
	// Src is "node.output", or the bare name of a constant.
	Src         string         `hcl:"src"`
	Dst         string         `hcl:"dst"`
	Class       string         `hcl:"class,optional"`
	Scale       float64        `hcl:"scale,optional"`
	Delay       *int           `hcl:"delay,optional"`
	AsyncLength int            `hcl:"async_length,optional"`
	Weak        bool           `hcl:"weak,optional"`
	Buffer      *hclConstraint `hcl:"buffer_constraint,block"`
}

// DecodeHCL parses an HCL graph document and builds the graph. Entries in
// vars override variable defaults.
func DecodeHCL(data []byte, filename string, vars map[string]cty.Value) (*graph.Graph, error) {
	doc, err := DecodeHCLDocument(data, filename, vars)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// DecodeHCLDocument parses an HCL graph document into its YAML document
// form.
func DecodeHCLDocument(data []byte, filename string, vars map[string]cty.Value) (*Document, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, hclError(filename, diags)
	}

	var head hclVariablesFile
	if diags := gohcl.DecodeBody(file.Body, nil, &head); diags.HasErrors() {
		return nil, hclError(filename, diags)
	}
	ctx, err := evalContext(head.Variables, vars)
	if err != nil {
		return nil, err
	}

	var body hclGraphFile
	if diags := gohcl.DecodeBody(head.Remain, ctx, &body); diags.HasErrors() {
		return nil, hclError(filename, diags)
	}
	doc, err := body.document(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func hclError(filename string, diags hcl.Diagnostics) error {
	return errors.InvalidFormat(filename, "HCL graph document").WithCause(diags)
}

func evalContext(decls []*hclVariable, overrides map[string]cty.Value) (*hcl.EvalContext, error) {
	values := make(map[string]cty.Value, len(decls))
	for _, v := range decls {
		if v.Default != nil {
			values[v.Name] = *v.Default
		}
	}
	for name, v := range overrides {
		values[name] = v
	}
	for _, v := range decls {
		if _, ok := values[v.Name]; !ok {
			return nil, errors.MissingField("var." + v.Name)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": cty.ObjectVal(values)},
	}, nil
}

func (f *hclGraphFile) document(ctx *hcl.EvalContext) (*Document, error) {
	doc := &Document{Version: FormatVersion}
	if f.Options != nil {
		doc.Graph.Options = &OptionsDoc{FIFO: f.Options.FIFO, Duplicate: f.Options.Duplicate}
	}
	if len(f.Types) > 0 {
		doc.Graph.CustomTypes = make(map[string]TypeDoc, len(f.Types))
		for _, t := range f.Types {
			doc.Graph.CustomTypes[t.Name] = TypeDoc{CName: t.CName, Bytes: t.Bytes}
		}
	}
	for _, n := range f.Nodes {
		nd := NodeDoc{
			Node:       n.Name,
			Kind:       n.Kind,
			Role:       n.Role,
			Identified: n.Identified,
			Stateless:  n.Stateless,
		}
		for _, p := range n.Inputs {
			pd, err := p.doc(ctx)
			if err != nil {
				return nil, err
			}
			pd.Input = p.Name
			nd.Inputs = append(nd.Inputs, pd)
		}
		for _, p := range n.Outputs {
			pd, err := p.doc(ctx)
			if err != nil {
				return nil, err
			}
			pd.Output = p.Name
			nd.Outputs = append(nd.Outputs, pd)
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, nd)
	}
	for _, c := range f.Constants {
		doc.Graph.Nodes = append(doc.Graph.Nodes, NodeDoc{Node: c.Name})
	}
	for _, e := range f.Edges {
		ed, err := e.doc()
		if err != nil {
			return nil, err
		}
		doc.Graph.Edges = append(doc.Graph.Edges, ed)
	}
	return doc, nil
}

func (p *hclPort) doc(ctx *hcl.EvalContext) (PortDoc, error) {
	val, diags := p.Samples.Value(ctx)
	if diags.HasErrors() {
		return PortDoc{}, errors.InvalidInput(p.Name+".samples", diags.Error())
	}
	counts, cyclic, err := sampleCounts(val)
	if err != nil {
		return PortDoc{}, errors.InvalidInput(p.Name+".samples", err.Error())
	}
	pd := PortDoc{Type: p.Type, BufferConstraint: p.Buffer.doc()}
	if cyclic {
		pd.Samples.Rate = rate.Cyclic(counts...)
	} else {
		pd.Samples.Rate = rate.Static(counts[0])
	}
	return pd, nil
}

// sampleCounts accepts a number or a list/tuple of numbers.
func sampleCounts(val cty.Value) ([]int, bool, error) {
	if val.IsNull() || !val.IsKnown() {
		return nil, false, fmt.Errorf("value is not set")
	}
	ty := val.Type()
	switch {
	case ty == cty.Number:
		var n int
		if err := gocty.FromCtyValue(val, &n); err != nil {
			return nil, false, err
		}
		return []int{n}, false, nil
	case ty.IsTupleType() || ty.IsListType():
		var counts []int
		it := val.ElementIterator()
		for it.Next() {
			_, ev := it.Element()
			var n int
			if err := gocty.FromCtyValue(ev, &n); err != nil {
				return nil, false, err
			}
			counts = append(counts, n)
		}
		return counts, true, nil
	default:
		return nil, false, fmt.Errorf("expected a number or a list of numbers, got %s", ty.FriendlyName())
	}
}

func (c *hclConstraint) doc() *ConstraintDoc {
	if c == nil {
		return nil
	}
	return &ConstraintDoc{
		Name:           c.Name,
		MustBeArray:    c.MustBeArray,
		AssignedByNode: c.AssignedByNode,
		CanBeShared:    c.CanBeShared,
	}
}

func (e *hclEdge) doc() (EdgeDoc, error) {
	ed := EdgeDoc{
		Class:            e.Class,
		Scale:            e.Scale,
		Delay:            e.Delay,
		AsyncLength:      e.AsyncLength,
		Weak:             e.Weak,
		BufferConstraint: e.Buffer.doc(),
	}
	if node, port, ok := strings.Cut(e.Src, "."); ok {
		ed.Src = Endpoint{Node: node, Output: port}
	} else {
		ed.Src = Endpoint{Node: e.Src}
	}
	node, port, ok := strings.Cut(e.Dst, ".")
	if !ok {
		return ed, errors.InvalidFormat("edge.dst", "node.input")
	}
	ed.Dst = Endpoint{Node: node, Input: port}
	return ed, nil
}
