// Package validation checks decoded documents and request bodies.
//
// Struct tags cover per-field rules:
//
//	type NodeDoc struct {
//	    Node string `validate:"required"`
//	}
//	err := validation.Validate(doc)
//
// Rules spanning several fields collect into a Validator:
//
//	v := validation.New()
//	v.Required("nodes[0].inputs[0].input", name).
//	    Matches("nodes[0].inputs[0].input", name, ident, "an identifier")
//	err := v.Validate()
package validation
