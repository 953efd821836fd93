package memory

import (
	"fmt"

	apperrors "github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/graph"
	"github.com/kbukum/dataflow/rate"
)

// FIFO is the planner's view of one scheduled edge.
type FIFO struct {
	// ID is the FIFO's index in Problem.FIFOs.
	ID     int
	Type   rate.DataType
	Length int
	// IsArray is true when the FIFO never holds more than one batch and can
	// live in a plain array.
	IsArray bool
	Live    Interval
	Custom  *graph.BufferConstraint

	Src, Dst graph.NodeID
	// SrcDuplicate and DstDuplicate flag endpoints that are duplicate nodes.
	SrcDuplicate bool
	DstDuplicate bool
}

// Bytes is the storage the FIFO needs on its own.
func (f FIFO) Bytes() int { return f.Type.Bytes * f.Length }

// Duplicate describes a duplicate node by its FIFO ids.
type Duplicate struct {
	Node    graph.NodeID
	Input   int
	Outputs []int
}

// Problem is the input of Plan.
type Problem struct {
	FIFOs      []FIFO
	Duplicates []Duplicate
	// Steps is the schedule length; the liveness sweep covers 0..Steps.
	Steps    int
	Strategy Strategy
	// Seed feeds RandomSequential.
	Seed int64
	// Optimize enables buffer sharing between array FIFOs.
	Optimize bool
	// DisableDuplicateOptimization keeps every duplicate copy and stops
	// duplicate-aware interference exceptions.
	DisableDuplicateOptimization bool
}

func (p *Problem) validate() error {
	for i, f := range p.FIFOs {
		if f.ID != i {
			return apperrors.Internal(fmt.Errorf("memory: FIFO at index %d has id %d", i, f.ID))
		}
		if f.Length < 0 {
			return apperrors.InvalidInput("fifos", fmt.Sprintf("FIFO %d has negative length %d", i, f.Length))
		}
	}
	for _, d := range p.Duplicates {
		ids := append([]int{d.Input}, d.Outputs...)
		for _, id := range ids {
			if id < 0 || id >= len(p.FIFOs) {
				return apperrors.Internal(fmt.Errorf("memory: duplicate node %d references unknown FIFO %d", d.Node, id))
			}
		}
	}
	return nil
}

// Buffer is a physical allocation. Shared buffers are raw bytes.
type Buffer struct {
	ID     int           `json:"id" yaml:"id"`
	Type   rate.DataType `json:"type" yaml:"type"`
	Length int           `json:"length" yaml:"length"`
}

// Bytes returns the buffer size in bytes.
func (b Buffer) Bytes() int { return b.Type.Bytes * b.Length }

// Assignment tells where one FIFO lives.
type Assignment struct {
	// BufferID indexes Plan.Buffers, or is -1 when Custom is set.
	BufferID int
	Custom   *graph.BufferConstraint
	// Skip marks a duplicate output that aliases its input or a sibling, so
	// no copy is emitted for it.
	Skip bool
}

type bufferKey struct {
	id        int
	custom    graph.BufferConstraint
	hasCustom bool
}

func (a Assignment) key() bufferKey {
	if a.Custom != nil {
		return bufferKey{id: -1, custom: *a.Custom, hasCustom: true}
	}
	return bufferKey{id: a.BufferID}
}

// Plan is the memory layout of a schedule.
type Plan struct {
	Buffers     []Buffer
	Assignments []Assignment
	// Memory is the total bytes of Buffers. Custom buffers are excluded.
	Memory int
	// Interference is nil unless optimization ran.
	Interference *Graph
}

// SharesWith reports whether two FIFOs were given the same storage.
func (p *Plan) SharesWith(a, b int) bool {
	return p.Assignments[a].key() == p.Assignments[b].key()
}
