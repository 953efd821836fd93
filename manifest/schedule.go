package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/memory"
	"github.com/kbukum/dataflow/scheduler"
)

// Format selects the encoding of an exported schedule.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml" and "json". Empty means YAML.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", errors.InvalidInput("format", fmt.Sprintf("unsupported format %q", s))
}

// ScheduleView is the exported form of a computed schedule.
type ScheduleView struct {
	ID       string           `json:"id" yaml:"id"`
	Policy   string           `json:"policy" yaml:"policy"`
	Length   int              `json:"length" yaml:"length"`
	Memory   int              `json:"memory" yaml:"memory"`
	Nodes    []NodeView       `json:"nodes" yaml:"nodes"`
	Sequence []string         `json:"sequence" yaml:"sequence"`
	FIFOs    []FIFOView       `json:"fifos" yaml:"fifos"`
	Buffers  []BufferView     `json:"buffers" yaml:"buffers"`
	Config   scheduler.Config `json:"config" yaml:"config"`
	// Peaks is filled by callers that replay the schedule.
	Peaks []int `json:"peaks,omitempty" yaml:"peaks,omitempty"`
}

// NodeView is a scheduled node.
type NodeView struct {
	Name  string `json:"name" yaml:"name"`
	Kind  string `json:"kind" yaml:"kind"`
	Class string `json:"class,omitempty" yaml:"class,omitempty"`
	// Repetitions is absent for fully asynchronous schedules.
	Repetitions *int `json:"repetitions,omitempty" yaml:"repetitions,omitempty"`
}

// FIFOView is a FIFO descriptor.
type FIFOView struct {
	ID       int              `json:"id" yaml:"id"`
	Src      string           `json:"src" yaml:"src"`
	Dst      string           `json:"dst" yaml:"dst"`
	Class    string           `json:"class" yaml:"class"`
	Type     string           `json:"type" yaml:"type"`
	Length   int              `json:"length" yaml:"length"`
	Array    bool             `json:"array" yaml:"array"`
	// Storage is "buffer" for a planned buffer, "custom" for a named
	// external buffer and "node" when the node supplies it at runtime.
	Storage  string           `json:"storage" yaml:"storage"`
	// Buffer is empty for node supplied storage.
	Buffer   string           `json:"buffer,omitempty" yaml:"buffer,omitempty"`
	Custom   string           `json:"custom,omitempty" yaml:"custom,omitempty"`
	Delay    int              `json:"delay,omitempty" yaml:"delay,omitempty"`
	Weak     bool             `json:"weak,omitempty" yaml:"weak,omitempty"`
	SkipCopy bool             `json:"skip_copy,omitempty" yaml:"skip-copy,omitempty"`
	Live     *memory.Interval `json:"live,omitempty" yaml:"live,omitempty"`
}

// BufferView is an allocated buffer.
type BufferView struct {
	Name   string `json:"name" yaml:"name"`
	Type   string `json:"type" yaml:"type"`
	Length int    `json:"length" yaml:"length"`
	Bytes  int    `json:"bytes" yaml:"bytes"`
}

// DescribeSchedule builds the exported view of s.
func DescribeSchedule(s *scheduler.Schedule) *ScheduleView {
	g := s.Graph()
	cfg := s.Config()
	v := &ScheduleView{
		ID:     s.ID().String(),
		Policy: string(s.Policy()),
		Length: s.Length(),
		Memory: s.Memory(),
		Config: cfg,
	}

	q := s.RepetitionVector()
	nodes := s.Nodes()
	for i, n := range nodes {
		nv := NodeView{Name: n.Name, Kind: n.Kind.String(), Class: n.Class}
		if q != nil {
			r := q[i]
			nv.Repetitions = &r
		}
		v.Nodes = append(v.Nodes, nv)
	}
	for _, i := range s.Sequence() {
		v.Sequence = append(v.Sequence, nodes[i].Name)
	}
	for _, f := range s.FIFOs() {
		fv := FIFOView{
			ID:       f.ID,
			Src:      g.PortName(f.Src),
			Dst:      g.PortName(f.Dst),
			Class:    f.Class,
			Type:     f.Type.Name,
			Length:   f.Length,
			Array:    f.IsArray,
			Storage:  storage(f),
			Buffer:   f.BufferName(cfg.Prefix),
			Delay:    f.Delay,
			Weak:     f.Weak,
			SkipCopy: f.SkipCopy,
		}
		if f.Custom != nil {
			fv.Custom = f.Custom.Name
		}
		if f.Live != memory.NoInterval {
			live := f.Live
			fv.Live = &live
		}
		v.FIFOs = append(v.FIFOs, fv)
	}
	for _, b := range s.Buffers() {
		v.Buffers = append(v.Buffers, BufferView{
			Name:   fmt.Sprintf("%sbuf%d", cfg.Prefix, b.ID),
			Type:   b.Type.Name,
			Length: b.Length,
			Bytes:  b.Bytes(),
		})
	}
	return v
}

// Storage kinds of FIFOView.
const (
	StorageBuffer = "buffer"
	StorageCustom = "custom"
	StorageNode   = "node"
)

func storage(f scheduler.FIFO) string {
	switch {
	case f.NodeAssigned():
		return StorageNode
	case f.Custom != nil:
		return StorageCustom
	}
	return StorageBuffer
}

// EncodeSchedule writes the view of s in the requested format.
func EncodeSchedule(s *scheduler.Schedule, format Format) ([]byte, error) {
	return EncodeView(DescribeSchedule(s), format)
}

// EncodeView writes an already built view.
func EncodeView(v *ScheduleView, format Format) ([]byte, error) {
	if format == FormatJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, errors.Internal(err)
		}
		return append(data, '\n'), nil
	}
	return marshal(v)
}
