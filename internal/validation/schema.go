// Package validation evaluates the step schemas of the application wizard.
package validation

import (
	"github.com/bankim/loan-engine/internal/wizard"
)

// Schema is a named set of rules evaluated together.
type Schema struct {
	Name  string
	Rules []Rule
}

// Evaluate runs every rule against values and localizes the messages.
func (s Schema) Evaluate(values wizard.Values, messages Messages) Result {
	if messages == nil {
		messages = Fallback{}
	}
	var result Result
	for _, rule := range s.Rules {
		for _, fe := range rule(values) {
			fe.Message = messages.Message(fe.Key, fe.Message)
			result.Errors = append(result.Errors, fe)
		}
	}
	return result
}

// Result holds the errors of one evaluation in rule order.
type Result struct {
	Errors []wizard.FieldError `json:"errors,omitempty"`
}

// Valid reports whether no rule failed.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// HasErrors reports whether field has at least one error.
func (r Result) HasErrors(field string) bool {
	return len(r.ErrorsForField(field)) > 0
}

// ErrorsForField returns the errors reported on field.
func (r Result) ErrorsForField(field string) []wizard.FieldError {
	var out []wizard.FieldError
	for _, fe := range r.Errors {
		if fe.Field == field {
			out = append(out, fe)
		}
	}
	return out
}

// ByField returns the first message per field, the shape form libraries
// expect.
func (r Result) ByField() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, fe := range r.Errors {
		if _, ok := out[fe.Field]; !ok {
			out[fe.Field] = fe.Message
		}
	}
	return out
}

func (r *Result) merge(other Result, prefix string) {
	for _, fe := range other.Errors {
		fe.Field = prefix + fe.Field
		r.Errors = append(r.Errors, fe)
	}
}
