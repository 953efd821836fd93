package graph

// BufferConstraint pins a FIFO to a named buffer.
type BufferConstraint struct {
	// Name of the buffer. Empty for an anonymous constraint.
	Name string `yaml:"name,omitempty"`
	// MustBeArray rejects a schedule where the FIFO is a true FIFO.
	MustBeArray bool `yaml:"must-be-array"`
	// AssignedByNode means the node supplies the storage at runtime.
	AssignedByNode bool `yaml:"assigned-by-node"`
	// CanBeShared allows other FIFOs to reuse the storage.
	CanBeShared bool `yaml:"can-be-shared"`
}

// NewBufferConstraint returns a constraint with the default policy: array,
// supplied by the node, shareable.
func NewBufferConstraint(name string) BufferConstraint {
	return BufferConstraint{
		Name:           name,
		MustBeArray:    true,
		AssignedByNode: true,
		CanBeShared:    true,
	}
}

// Compatible reports whether two constraints can describe the same FIFO.
func (c BufferConstraint) Compatible(o BufferConstraint) bool {
	return c == o
}
