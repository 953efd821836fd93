package graph

import (
	"fmt"

	"github.com/kbukum/dataflow/errors"
)

// LegalizeOptions selects how attributes propagate onto the edge feeding an
// inserted duplicate.
type LegalizeOptions struct {
	// Asynchronous gives the producer edge the largest destination scale.
	Asynchronous bool
	// FullyAsynchronous gives it the largest destination async length.
	FullyAsynchronous bool
}

type destination struct {
	dst   PortID
	attrs EdgeAttrs
}

// Legalize rewrites every output bound to several edges into an output
// feeding a Duplicate node, one duplicate output per original consumer.
// Delay, class, scale, async length and weak flag stay with each consumer.
// Constraints inherited from ports are re-derived on the new edges; a
// constraint imposed on a fan-out edge itself cannot be kept and is
// rejected. The graph is left untouched when an error is returned. A frozen
// graph is already legal and is left as is.
func (g *Graph) Legalize(opts LegalizeOptions) error {
	if g.frozen {
		return nil
	}
	if err := g.CheckBufferNames(); err != nil {
		return err
	}

	type fanout struct {
		out   PortID
		dests []destination
	}
	var pending []fanout
	for _, n := range g.nodes {
		for _, out := range n.Outputs {
			edges := g.ports[out].edges
			if len(edges) < 2 {
				continue
			}
			f := fanout{out: out}
			for _, id := range edges {
				e := g.edges[id].Edge
				if e.Buffer != nil && !e.Inherited {
					sp, dp := g.ports[e.Src], g.ports[e.Dst]
					return errors.CantHaveBufferConstraintOnFIFO(
						g.nodes[sp.Node].Name, sp.Name, g.nodes[dp.Node].Name, dp.Name)
				}
				attrs := e.EdgeAttrs
				attrs.Buffer, attrs.Inherited = nil, false
				f.dests = append(f.dests, destination{dst: e.Dst, attrs: attrs})
			}
			pending = append(pending, f)
		}
	}

	for _, f := range pending {
		if err := g.insertDuplicate(f.out, f.dests, opts); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) insertDuplicate(out PortID, dests []destination, opts LegalizeOptions) error {
	for _, d := range dests {
		for _, id := range g.ports[d.dst].edges {
			g.removeEdge(id)
		}
	}

	op := g.ports[out]
	ports := []PortSpec{In("i", op.Type, op.Rate)}
	for i := range dests {
		ports = append(ports, Out(duplicateOutputName(i), op.Type, op.Rate))
	}
	dup, err := g.Add(NodeSpec{
		Name:  g.nextDuplicateName(),
		Kind:  KindDuplicate,
		Class: g.duplicateClass,
		Ports: ports,
	})
	if err != nil {
		return errors.Internal(err)
	}
	dn := g.nodes[dup]

	feed := connectOptions{attrs: EdgeAttrs{Class: g.fifoClass, Scale: 1}}
	switch {
	case opts.Asynchronous:
		for _, d := range dests {
			if d.attrs.Scale > feed.attrs.Scale {
				feed.attrs.Scale = d.attrs.Scale
			}
		}
	case opts.FullyAsynchronous:
		for _, d := range dests {
			if d.attrs.AsyncLength > feed.attrs.AsyncLength {
				feed.attrs.AsyncLength = d.attrs.AsyncLength
			}
		}
	}
	if _, err := g.connect(out, dn.Inputs[0], feed); err != nil {
		return err
	}

	for i, d := range dests {
		if _, err := g.connect(dn.Outputs[i], d.dst, connectOptions{attrs: d.attrs}); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) nextDuplicateName() string {
	for {
		name := fmt.Sprintf("dup%d", g.dupCount)
		g.dupCount++
		if _, taken := g.byName[name]; !taken {
			return name
		}
	}
}

// Legalized reports whether no output feeds more than one edge.
func (g *Graph) Legalized() bool {
	for _, p := range g.ports {
		if p.Dir == Output && len(p.edges) > 1 {
			return false
		}
	}
	return true
}

// CheckBufferNames rejects a custom buffer name used by more than one edge
// group. Edges sharing a constrained source port form one group, since
// legalization turns them into a single edge; every other edge is its own
// group.
func (g *Graph) CheckBufferNames() error {
	owner := make(map[string]string)
	for _, e := range g.edges {
		if e.removed || e.Buffer == nil || e.Buffer.Name == "" {
			continue
		}
		key := fmt.Sprintf("edge:%d", e.ID)
		if e.Inherited && g.ports[e.Src].Constraint != nil {
			key = fmt.Sprintf("port:%d", e.Src)
		}
		if prev, ok := owner[e.Buffer.Name]; ok && prev != key {
			return errors.CannotReuseCustomBuffer(e.Buffer.Name)
		}
		owner[e.Buffer.Name] = key
	}
	return nil
}
