// Package validation turns typed request structs into a Result holding either the
// validated value or the list of field-level violations.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

type Violation struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Errors is returned by Result.Err when validation failed.
type Errors struct {
	Violations []Violation
}

func (e *Errors) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return "validation error"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation error: " + strings.Join(parts, "; ")
}

type Result[T any] struct {
	Value      T
	Violations []Violation
}

func (r Result[T]) OK() bool {
	return len(r.Violations) == 0
}

func (r Result[T]) Err() error {
	if r.OK() {
		return nil
	}
	return &Errors{Violations: r.Violations}
}

func Fail[T any](violations ...Violation) Result[T] {
	return Result[T]{Violations: violations}
}

// NewError builds a single-violation error.
func NewError(field, code, message string) error {
	return &Errors{Violations: []Violation{{Field: field, Code: code, Message: message}}}
}

// AsErrors unwraps err into *Errors when it carries violations.
func AsErrors(err error) (*Errors, bool) {
	var vErr *Errors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr, true
	}
	return nil, false
}

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(func(f reflect.StructField) string {
			return fieldName(f)
		})
		_ = instance.RegisterValidation("isotime", func(fl validator.FieldLevel) bool {
			_, err := ParseTime(fl.Field().String())
			return err == nil
		})
		_ = instance.RegisterValidation("rfc3339", func(fl validator.FieldLevel) bool {
			_, err := ParseTimestamp(fl.Field().String())
			return err == nil
		})
	})
	return instance
}

// Validate runs struct tag validation on v.
func Validate[T any](v T) Result[T] {
	err := engine().Struct(v)
	if err == nil {
		return Result[T]{Value: v}
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Fail[T](Violation{Field: "request", Code: "invalid_request", Message: err.Error()})
	}
	owner := reflect.TypeOf(v)
	violations := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, toViolation(owner, fe))
	}
	return Result[T]{Value: v, Violations: violations}
}

// DecodeJSON decodes body into T and validates it.
func DecodeJSON[T any](body []byte) Result[T] {
	var v T
	if len(strings.TrimSpace(string(body))) == 0 {
		return Fail[T](Violation{Field: "body", Code: "required", Message: "request body is required"})
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return Fail[T](decodeViolation(err))
	}
	return Validate(v)
}

func decodeViolation(err error) Violation {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return Violation{
			Field:   field,
			Code:    "invalid_type",
			Message: fmt.Sprintf("%s must be a %s", field, jsonKind(typeErr.Type)),
		}
	}
	return Violation{Field: "body", Code: "invalid_json", Message: "request body is not valid JSON"}
}

func jsonKind(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int32, reflect.Int64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}

func toViolation(owner reflect.Type, fe validator.FieldError) Violation {
	field := fe.Field()
	v := Violation{Field: field, Code: fe.Tag()}
	switch fe.Tag() {
	case "required":
		v.Message = field + " is required"
	case "required_without":
		v.Message = fmt.Sprintf("either %s or %s is required", field, siblingName(owner, fe.Param()))
	case "required_without_all":
		names := []string{field}
		for _, p := range strings.Fields(fe.Param()) {
			names = append(names, siblingName(owner, p))
		}
		v.Message = "one of " + strings.Join(names, ", ") + " is required"
	case "gte", "min":
		v.Message = fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte", "max":
		v.Message = fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "oneof":
		v.Message = fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "email":
		v.Message = field + " must be a valid email"
	case "isotime", "datetime", "rfc3339":
		v.Message = field + " must be an ISO-8601 datetime"
	case "numeric", "number":
		v.Message = field + " must be a number"
	default:
		v.Message = field + " is invalid"
	}
	return v
}

func siblingName(owner reflect.Type, goName string) string {
	for owner != nil && owner.Kind() == reflect.Pointer {
		owner = owner.Elem()
	}
	if owner == nil || owner.Kind() != reflect.Struct {
		return goName
	}
	if f, ok := owner.FieldByName(goName); ok {
		return fieldName(f)
	}
	return goName
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// ParseTimestamp accepts only full RFC 3339 timestamps; bare dates are rejected.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("empty time")
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ParseTime accepts RFC 3339 timestamps (with optional fractional seconds) and bare dates.
func ParseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("empty time")
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
