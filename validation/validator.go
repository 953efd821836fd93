package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kbukum/dataflow/errors"
)

// FieldError is one failed rule. Field is a dotted path such as
// "nodes[2].inputs[0].input".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates the failures of chained checks.
type Validator struct {
	failed []FieldError
}

func New() *Validator {
	return &Validator{}
}

func (v *Validator) AddError(field, message string) {
	v.failed = append(v.failed, FieldError{Field: field, Message: message})
}

func (v *Validator) HasErrors() bool {
	return len(v.failed) > 0
}

// Errors returns the failures in the order they were found.
func (v *Validator) Errors() []FieldError {
	return v.failed
}

// Validate returns nil, or one INVALID_INPUT error listing every failure
// under the "fields" detail.
func (v *Validator) Validate() *errors.AppError {
	return invalid(v.failed)
}

// Required fails on empty or blank values.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// Matches fails when a non-empty value does not match re. The message
// reads "must be <describe>".
func (v *Validator) Matches(field, value string, re *regexp.Regexp, describe string) *Validator {
	if value != "" && !re.MatchString(value) {
		v.AddError(field, "must be "+describe)
	}
	return v
}

// Custom fails with message when ok is false.
func (v *Validator) Custom(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}

func invalid(fields []FieldError) *errors.AppError {
	if len(fields) == 0 {
		return nil
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s %s", f.Field, f.Message)
	}
	return errors.Validation(strings.Join(parts, "; ")).
		WithDetail("fields", fields)
}
