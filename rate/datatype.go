package rate

import (
	"fmt"
	"sort"
)

// DataType is the element type carried by a port.
type DataType struct {
	// Name identifies the type in graph documents ("float32_t", "complex").
	Name string
	// CName is the type name used by code emitters.
	CName string
	// Bytes is the size of one element.
	Bytes int
}

func (t DataType) String() string { return t.Name }

// Built-in scalar types.
var (
	Float64 = DataType{Name: "float64_t", CName: "float64_t", Bytes: 8}
	Float32 = DataType{Name: "float32_t", CName: "float32_t", Bytes: 4}
	Float16 = DataType{Name: "float16_t", CName: "float16_t", Bytes: 2}
	Q31     = DataType{Name: "q31_t", CName: "q31_t", Bytes: 4}
	Q15     = DataType{Name: "q15_t", CName: "q15_t", Bytes: 2}
	Q7      = DataType{Name: "q7_t", CName: "q7_t", Bytes: 1}
	Uint32  = DataType{Name: "uint32_t", CName: "uint32_t", Bytes: 4}
	Uint16  = DataType{Name: "uint16_t", CName: "uint16_t", Bytes: 2}
	Uint8   = DataType{Name: "uint8_t", CName: "uint8_t", Bytes: 1}
	Int32   = DataType{Name: "int32_t", CName: "int32_t", Bytes: 4}
	Int16   = DataType{Name: "int16_t", CName: "int16_t", Bytes: 2}
	Int8    = DataType{Name: "int8_t", CName: "int8_t", Bytes: 1}
)

var builtins = map[string]DataType{}

func init() {
	for _, t := range []DataType{Float64, Float32, Float16, Q31, Q15, Q7, Uint32, Uint16, Uint8, Int32, Int16, Int8} {
		builtins[t.Name] = t
	}
	builtins["double"] = Float64
	builtins["float"] = Float32
}

// Custom declares a struct type with an explicit size.
func Custom(name, cname string, bytes int) (DataType, error) {
	if name == "" {
		return DataType{}, fmt.Errorf("rate: custom type needs a name")
	}
	if bytes <= 0 {
		return DataType{}, fmt.Errorf("rate: custom type %q must have a positive size (got %d)", name, bytes)
	}
	if cname == "" {
		cname = name
	}
	return DataType{Name: name, CName: cname, Bytes: bytes}, nil
}

// Builtin looks up a scalar type by name.
func Builtin(name string) (DataType, bool) {
	t, ok := builtins[name]
	return t, ok
}

// BuiltinNames returns the recognized scalar type names, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Registry resolves type names against built-ins plus custom declarations.
type Registry struct {
	custom map[string]DataType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{custom: make(map[string]DataType)}
}

// Declare adds a custom type. Redeclaring a built-in name is rejected.
func (r *Registry) Declare(t DataType) error {
	if _, ok := builtins[t.Name]; ok {
		return fmt.Errorf("rate: %q is a built-in type", t.Name)
	}
	r.custom[t.Name] = t
	return nil
}

// Lookup resolves name to a type.
func (r *Registry) Lookup(name string) (DataType, error) {
	if t, ok := r.custom[name]; ok {
		return t, nil
	}
	if t, ok := builtins[name]; ok {
		return t, nil
	}
	return DataType{}, fmt.Errorf("rate: unknown type %q", name)
}

// Custom returns the declared custom types sorted by name.
func (r *Registry) Custom() []DataType {
	out := make([]DataType, 0, len(r.custom))
	for _, t := range r.custom {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
