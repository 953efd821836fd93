package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/rate"
)

const filterHCL = `
variable "block" {
  default = 128
}

options {
  fifo = "RingFIFO"
}

type "complex" {
  cname = "complex_t"
  bytes = 8
}

constant "COEFS" {}

node "src" {
  kind       = "Source"
  identified = true
  output "o" {
    type    = "complex"
    samples = var.block
  }
}

node "filt" {
  kind = "Filter"
  input "i" {
    type    = "complex"
    samples = var.block
  }
  input "coefs" {
    type    = "float32_t"
    samples = 16
  }
  output "o" {
    type    = "complex"
    samples = [var.block / 2, var.block / 2]
    buffer_constraint {
      name             = "filtOut"
      assigned_by_node = false
    }
  }
}

node "sink" {
  input "i" {
    type    = "complex"
    samples = 32
  }
}

edge {
  src = "COEFS"
  dst = "filt.coefs"
}

edge {
  src   = "src.o"
  dst   = "filt.i"
  delay = 4
}

edge {
  src  = "filt.o"
  dst  = "sink.i"
  weak = true
}
`

func TestDecodeHCL(t *testing.T) {
	g, err := DecodeHCL([]byte(filterHCL), "filter.hcl", nil)
	require.NoError(t, err)

	assert.Equal(t, "RingFIFO", g.FIFOClass())
	assert.Equal(t, 4, g.NodeCount())

	src, ok := g.NodeByName("src")
	require.True(t, ok)
	o, err := g.Output(src, "o")
	require.NoError(t, err)
	assert.True(t, g.Port(o).Rate.Equal(rate.Static(128)))

	filt, _ := g.NodeByName("filt")
	fo, err := g.Output(filt, "o")
	require.NoError(t, err)
	p := g.Port(fo)
	assert.True(t, p.Rate.Equal(rate.Cyclic(64, 64)))
	require.NotNil(t, p.Constraint)
	assert.False(t, p.Constraint.AssignedByNode)
	assert.True(t, p.Constraint.MustBeArray)

	edges := g.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, 4, edges[0].Delay)
	assert.True(t, edges[1].Weak)
	assert.Len(t, g.ConstantEdges(), 1)
}

func TestDecodeHCLVariableOverride(t *testing.T) {
	g, err := DecodeHCL([]byte(filterHCL), "filter.hcl", map[string]cty.Value{
		"block": cty.NumberIntVal(256),
	})
	require.NoError(t, err)

	filt, _ := g.NodeByName("filt")
	fo, err := g.Output(filt, "o")
	require.NoError(t, err)
	assert.True(t, g.Port(fo).Rate.Equal(rate.Cyclic(128, 128)))
}

func TestDecodeHCLErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.ErrorCode
	}{
		{
			name: "syntax",
			doc:  `node "a" {`,
			code: errors.ErrCodeInvalidFormat,
		},
		{
			name: "unknown block",
			doc:  `graph {}`,
			code: errors.ErrCodeInvalidFormat,
		},
		{
			name: "variable without value",
			doc: `
variable "n" {}
node "src" {
  output "o" {
    type    = "float32_t"
    samples = var.n
  }
}
`,
			code: errors.ErrCodeMissingField,
		},
		{
			name: "samples of the wrong type",
			doc: `
node "src" {
  output "o" {
    type    = "float32_t"
    samples = "many"
  }
}
`,
			code: errors.ErrCodeInvalidInput,
		},
		{
			name: "destination without a port",
			doc: `
node "src" {
  output "o" {
    type    = "float32_t"
    samples = 1
  }
}
edge {
  src = "src.o"
  dst = "sink"
}
`,
			code: errors.ErrCodeInvalidFormat,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeHCL([]byte(tc.doc), "test.hcl", nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.code), "got %v", err)
		})
	}
}
