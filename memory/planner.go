package memory

import (
	"context"
	"fmt"
	"sort"

	apperrors "github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/graph"
	"github.com/kbukum/dataflow/rate"
)

// Build computes the buffer plan for p. It stops early with ctx.Err()
// when ctx is done.
func Build(ctx context.Context, p Problem) (*Plan, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	strategy, err := ParseStrategy(string(p.Strategy))
	if err != nil {
		return nil, apperrors.InvalidInput("memory-strategy", err.Error())
	}

	plan := &Plan{Assignments: make([]Assignment, len(p.FIFOs))}
	for i := range plan.Assignments {
		plan.Assignments[i].BufferID = -1
		plan.Assignments[i].Custom = p.FIFOs[i].Custom
	}

	shared := 0
	if p.Optimize {
		g, err := Interference(ctx, p)
		if err != nil {
			return nil, err
		}
		plan.Interference = g
		colors, err := Color(plan.Interference, strategy, p.Seed)
		if err != nil {
			return nil, apperrors.InvalidInput("memory-strategy", err.Error())
		}
		shared = assignColors(p, plan, colors)
	}

	for i := 0; i < shared; i++ {
		plan.Buffers = append(plan.Buffers, Buffer{ID: i, Type: rate.Uint8})
	}
	for _, f := range p.FIFOs {
		a := &plan.Assignments[f.ID]
		if a.Custom != nil {
			continue
		}
		if p.Optimize && f.IsArray {
			b := &plan.Buffers[a.BufferID]
			if f.Bytes() > b.Length {
				b.Length = f.Bytes()
			}
			continue
		}
		a.BufferID = len(plan.Buffers)
		plan.Buffers = append(plan.Buffers, Buffer{ID: a.BufferID, Type: f.Type, Length: f.Length})
	}

	for _, b := range plan.Buffers {
		plan.Memory += b.Bytes()
	}

	if !p.DisableDuplicateOptimization {
		markDuplicateCopies(p, plan)
	}
	return plan, nil
}

// Interference builds the conflict graph over array FIFOs: an edge means the
// two FIFOs must not share storage. The sweep over schedule steps checks
// ctx periodically.
func Interference(ctx context.Context, p Problem) (*Graph, error) {
	var arrays []FIFO
	for _, f := range p.FIFOs {
		if f.IsArray {
			arrays = append(arrays, f)
		}
	}
	g := NewGraph()
	for _, f := range arrays {
		g.AddVertex(f.ID)
	}

	for _, f := range arrays {
		if f.Custom == nil {
			continue
		}
		for _, o := range arrays {
			if o.ID == f.ID {
				continue
			}
			if f.Custom.AssignedByNode || !f.Custom.CanBeShared || f.Bytes() != o.Bytes() ||
				(o.Custom != nil && *o.Custom != *f.Custom) {
				g.AddEdge(f.ID, o.ID)
			}
		}
	}

	dups := make(map[graph.NodeID]Duplicate, len(p.Duplicates))
	for _, d := range p.Duplicates {
		dups[d.Node] = d
	}

	active := make(map[int]bool)
	for t := 0; t <= p.Steps; t++ {
		if t%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for id := range active {
			if p.FIFOs[id].Live.Stop < t {
				delete(active, id)
			}
		}
		for _, f := range arrays {
			if active[f.ID] || !f.Live.Contains(t) {
				continue
			}
			for k := range active {
				if !p.canAlias(dups, p.FIFOs[k], f) {
					g.AddEdge(k, f.ID)
				}
			}
			active[f.ID] = true
		}
	}
	return g, nil
}

// canAlias reports whether two simultaneously live FIFOs around a duplicate
// node can still share storage because their contents never coexist.
func (p *Problem) canAlias(dups map[graph.NodeID]Duplicate, k, f FIFO) bool {
	if p.DisableDuplicateOptimization || !k.IsArray || !f.IsArray {
		return false
	}
	switch {
	case k.SrcDuplicate && f.SrcDuplicate && k.Src == f.Src:
		d, ok := dups[k.Src]
		if !ok {
			return false
		}
		in := p.FIFOs[d.Input]
		return in.IsArray && in.Live.Stop <= k.Live.Start && in.Live.Stop <= f.Live.Start
	case k.DstDuplicate && f.SrcDuplicate && k.Dst == f.Src:
		return k.Live.Stop <= f.Live.Start
	case k.SrcDuplicate && f.DstDuplicate && k.Src == f.Dst:
		return f.Live.Stop <= k.Live.Start
	}
	return false
}

// assignColors maps colors to buffers. Colors claimed by a constrained FIFO
// resolve to that constraint; the rest become dense shared buffer ids.
// It returns the number of shared buffers.
func assignColors(p Problem, plan *Plan, colors map[int]int) int {
	ids := make([]int, 0, len(colors))
	for id := range colors {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	custom := make(map[int]*graph.BufferConstraint)
	for _, id := range ids {
		if c := p.FIFOs[id].Custom; c != nil {
			if _, ok := custom[colors[id]]; !ok {
				custom[colors[id]] = c
			}
		}
	}

	dense := make(map[int]int)
	for _, id := range ids {
		if p.FIFOs[id].Custom != nil {
			continue
		}
		a := &plan.Assignments[id]
		if c, ok := custom[colors[id]]; ok {
			a.Custom = c
			continue
		}
		b, ok := dense[colors[id]]
		if !ok {
			b = len(dense)
			dense[colors[id]] = b
		}
		a.BufferID = b
	}
	return len(dense)
}

func markDuplicateCopies(p Problem, plan *Plan) {
	for _, d := range p.Duplicates {
		in := plan.Assignments[d.Input].key()
		seen := make(map[bufferKey]bool)
		for _, out := range d.Outputs {
			k := plan.Assignments[out].key()
			if k == in || seen[k] {
				plan.Assignments[out].Skip = true
				continue
			}
			seen[k] = true
		}
	}
}

// Describe renders the plan for logs.
func (p *Plan) Describe() []string {
	lines := make([]string, 0, len(p.Assignments))
	for i, a := range p.Assignments {
		where := fmt.Sprintf("buffer %d", a.BufferID)
		if a.Custom != nil {
			where = fmt.Sprintf("custom %q", a.Custom.Name)
		}
		if a.Skip {
			where += " (no copy)"
		}
		lines = append(lines, fmt.Sprintf("fifo %d -> %s", i, where))
	}
	return lines
}
