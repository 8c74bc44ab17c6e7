package validation

import (
	"fmt"
	"strings"
)

// CastError reports a value that could not be converted to the type a field
// or identifier requires, such as a malformed id in a URL path.
type CastError struct {
	Path      string
	Kind      string
	ValueType string
	Value     any
}

func (e *CastError) Error() string {
	return fmt.Sprintf("Cast to %s failed for value %q (type %s) at path %q", e.Kind, fmt.Sprint(e.Value), e.ValueType, e.Path)
}

// Failure is one field-level problem inside an Error. Cast is set when the
// failure came from a type conversion rather than a rule.
type Failure struct {
	Field   string
	Message string
	Cast    *CastError
}

// Error aggregates every failing field of one document, in declaration
// order.
type Error struct {
	Failures []Failure
}

func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), ", ")
}

// Messages returns the message of every failure in order.
func (e *Error) Messages() []string {
	out := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Message)
	}
	return out
}

// First returns the first failure. An Error is never built empty.
func (e *Error) First() Failure {
	if len(e.Failures) == 0 {
		return Failure{Message: "validation failed"}
	}
	return e.Failures[0]
}

// Describe renders a failure for an API response.
func (f Failure) Describe() string {
	if f.Cast != nil {
		return fmt.Sprintf("%s should be a %s instead of %s", f.Cast.Path, f.Cast.Kind, f.Cast.ValueType)
	}
	return f.Message
}

// NewCastFailure builds a single-failure Error for a field that failed type
// conversion.
func NewCastFailure(path, kind, valueType string, value any) *Error {
	cast := &CastError{Path: path, Kind: kind, ValueType: valueType, Value: value}
	return &Error{Failures: []Failure{{Field: path, Message: cast.Error(), Cast: cast}}}
}
