package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the calendar date format accepted for date-only fields.
const DateLayout = "2006-01-02"

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ErrMalformedBody is returned by DecodeJSON when the payload is not JSON.
var ErrMalformedBody = errors.New("malformed request body")

// Messages maps "field.tag" (json field name) to the message reported for
// that rule. A "%v" verb is replaced with the rejected value.
type Messages map[string]string

// castKinds lists tags that describe a type conversion instead of a rule.
var castKinds = map[string]string{
	"isodate": "date",
}

// Validator wraps a configured validator.Validate. Custom rules:
//
//	isodate  string parses as YYYY-MM-DD or RFC 3339
//	past     date strictly before now
//	notpast  date on or after the start of today (UTC)
//	hhmm     24-hour HH:mm clock time
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

type Option func(*Validator)

// WithClock overrides the time source used by the date rules.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

func New(opts ...Option) *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.validate.RegisterValidation("past", func(fl validator.FieldLevel) bool {
		date, err := ParseDate(fl.Field().String())
		return err == nil && date.Before(v.now())
	})
	_ = v.validate.RegisterValidation("notpast", func(fl validator.FieldLevel) bool {
		date, err := ParseDate(fl.Field().String())
		return err == nil && !date.Before(StartOfDay(v.now()))
	})
	_ = v.validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	})

	return v
}

// Struct validates every field of s.
func (v *Validator) Struct(s any, messages Messages) error {
	return v.translate(v.validate.Struct(s), messages)
}

// StructPartial validates only the named Go struct fields of s.
func (v *Validator) StructPartial(s any, messages Messages, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return v.translate(v.validate.StructPartial(s, fields...), messages)
}

func (v *Validator) translate(err error, messages Messages) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := &Error{Failures: make([]Failure, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		failure := Failure{Field: fe.Field()}
		if kind, ok := castKinds[fe.Tag()]; ok {
			failure.Cast = &CastError{
				Path:      fe.Field(),
				Kind:      kind,
				ValueType: valueType(fe.Value()),
				Value:     fe.Value(),
			}
		}
		failure.Message = message(fe, messages, failure.Cast)
		out.Failures = append(out.Failures, failure)
	}
	return out
}

func message(fe validator.FieldError, messages Messages, cast *CastError) string {
	if tmpl, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		if strings.Contains(tmpl, "%v") {
			return fmt.Sprintf(tmpl, fe.Value())
		}
		return tmpl
	}
	if cast != nil {
		return cast.Error()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s can't be smaller than %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s can't be larger than %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed the %s rule", fe.Field(), fe.Tag())
}

// DecodeJSON decodes a request body into dst. An empty body leaves dst
// untouched. Type mismatches are reported as cast failures on the offending
// field.
func DecodeJSON(r io.Reader, dst any) error {
	err := json.NewDecoder(r).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return NewCastFailure(field, kindOf(typeErr.Type), typeErr.Value, typeErr.Value)
	}
	return fmt.Errorf("%w: %v", ErrMalformedBody, err)
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp and returns the
// UTC day it falls on.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return StartOfDay(t), nil
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsClock reports whether value is a 24-hour HH:mm time.
func IsClock(value string) bool {
	return clockPattern.MatchString(value)
}

func valueType(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int32, int64, float32, float64:
		return "number"
	case nil:
		return "null"
	}
	return reflect.TypeOf(value).Kind().String()
}

func kindOf(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	}
	return t.String()
}
