package scheduler

import (
	"fmt"
	"math"

	"github.com/kbukum/dataflow/graph"
	"github.com/kbukum/dataflow/memory"
	"github.com/kbukum/dataflow/rate"
)

// FIFO describes the buffer behind one edge of a scheduled graph.
type FIFO struct {
	// ID is the FIFO's position in the schedule; it matches the edge order.
	ID   int
	Edge graph.EdgeID
	Src  graph.PortID
	Dst  graph.PortID
	// Class is the FIFO implementation requested for the edge.
	Class  string
	Type   rate.DataType
	Length int
	// IsArray is true when the producer writes exactly Length samples and the
	// consumer reads them all before the next write.
	IsArray bool
	// BufferID indexes Schedule.Buffers, or is -1 when Custom is set.
	BufferID int
	Delay    int
	Weak     bool
	Custom   *graph.BufferConstraint
	// SkipCopy marks a duplicate output sharing storage with its input or a
	// sibling output.
	SkipCopy bool
	Live     memory.Interval
}

// Bytes is the storage needed by the FIFO.
func (f FIFO) Bytes() int { return f.Type.Bytes * f.Length }

// NodeAssigned reports whether the node at one end supplies the storage at
// runtime, so no buffer is emitted for the FIFO.
func (f FIFO) NodeAssigned() bool {
	return f.Custom != nil && f.Custom.AssignedByNode
}

// BufferName is the name emitters give to the FIFO's storage: the custom
// buffer name, a planned buffer, or "" when the node supplies it.
func (f FIFO) BufferName(prefix string) string {
	switch {
	case f.NodeAssigned():
		return ""
	case f.Custom != nil && f.Custom.Name != "":
		return f.Custom.Name
	}
	return fmt.Sprintf("%sbuf%d", prefix, f.BufferID)
}

// FIFORef is an output FIFO of a node with the port feeding it.
type FIFORef struct {
	FIFO int    `json:"fifo" yaml:"fifo"`
	Port string `json:"port" yaml:"port"`
}

// describeFIFOs turns per-edge sizes into FIFO descriptors.
func describeFIFOs(g *graph.Graph, topo *graph.Topology, lengths []int, live lifetimes, cfg *Config) []FIFO {
	fifos := make([]FIFO, len(topo.Edges))
	for row, id := range topo.Edges {
		e := g.Edge(id)
		src, dst := g.Port(e.Src), g.Port(e.Dst)
		f := FIFO{
			ID:       row,
			Edge:     id,
			Src:      e.Src,
			Dst:      e.Dst,
			Class:    e.Class,
			Type:     src.Type,
			Length:   lengths[row],
			BufferID: -1,
			Delay:    e.Delay,
			Weak:     e.Weak,
			Custom:   e.Buffer,
			Live:     memory.NoInterval,
		}
		if live != nil {
			f.Live = live[row]
		}
		if !cfg.Asynchronous && !cfg.FullyAsynchronous {
			f.IsArray = isArray(src.Rate, dst.Rate, f.Length, f.Delay)
		}
		if cfg.Asynchronous {
			f.Length = scaledLength(f.Length, e.Scale, cfg.FIFOIncrease)
		}
		fifos[row] = f
	}
	return fifos
}

func isArray(src, dst rate.Rate, length, delay int) bool {
	n, ok := src.StaticCount()
	if !ok || delay != 0 {
		return false
	}
	m, ok := dst.StaticCount()
	return ok && n == m && n == length
}

// scaledLength grows a synchronous length by the edge scale, or by the
// configured percentage when the edge has none.
func scaledLength(length int, scale float64, increase int) int {
	s := scale
	if s == 1 {
		s = 1 + float64(increase)/100
	}
	return int(math.Ceil(float64(length) * s))
}
