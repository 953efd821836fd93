package validation

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/dataflow/errors"
)

var structs = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	return v
})

// fieldName names a field after its yaml key, then its json key, so paths
// in errors match what the user wrote.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"yaml", "json"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// Validate applies the `validate` struct tags of s. Failures come back as
// one INVALID_INPUT error, like Validator.Validate.
func Validate(s any) error {
	err := structs().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Validation(err.Error())
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{Field: path(fe), Message: describe(fe)}
	}
	return invalid(fields)
}

// path drops the root type from the namespace: "Document.graph.nodes[0].node"
// becomes "graph.nodes[0].node".
func path(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	p := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(p, " ", ", ")
	case "gt":
		return "must be greater than " + p
	case "gte":
		return "must be at least " + p
	case "min":
		if k := fe.Kind(); k == reflect.Slice || k == reflect.Map || k == reflect.String {
			return "must have at least " + p + " entries"
		}
		return "must be at least " + p
	case "max":
		return "must be at most " + p
	default:
		return "fails the " + fe.Tag() + " rule"
	}
}
