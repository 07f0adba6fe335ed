// Package validation turns go-playground/validator failures into 422 detail lists.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Locations used as the first element of FieldError.Loc.
const (
	LocBody  = "body"
	LocQuery = "query"
	LocPath  = "path"
	LocForm  = "form"
	LocHead  = "header"
)

// FieldError describes one invalid input value.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// Errors is a list of field errors. It implements error.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, strings.Join(fe.Loc, ".")+": "+fe.Msg)
	}
	return strings.Join(parts, "; ")
}

// Field builds a single-field Errors value.
func Field(loc []string, msg, typ string) Errors {
	return Errors{{Loc: loc, Msg: msg, Type: typ}}
}

// Missing reports a required value that was not supplied.
func Missing(loc ...string) Errors {
	return Field(loc, "field required", "value_error.missing")
}

// NotInteger reports a value that could not be parsed as an integer.
func NotInteger(loc ...string) Errors {
	return Field(loc, "value is not a valid integer", "type_error.integer")
}

// MessageOverrider lets a validated struct replace the message of a failed rule.
type MessageOverrider interface {
	ValidationMessage(field, tag string) (string, bool)
}

// licensePlatePattern accepts plates such as "AB-123-CD".
var licensePlatePattern = regexp.MustCompile(`^\w{2}-\d{3}-\w{2}$`)

// Validator wraps a configured *validator.Validate.
type Validator struct {
	v *validator.Validate
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// Default returns a process-wide Validator.
func Default() *Validator {
	defaultOnce.Do(func() {
		defaultValidator = New()
	})
	return defaultValidator
}

// New creates a Validator that reports JSON field names and knows the custom rules.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form", "query"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	_ = v.RegisterValidation("licenseplate", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return utf8.RuneCountInString(s) == 9 || licensePlatePattern.MatchString(s)
	})

	return &Validator{v: v}
}

// Struct validates s and returns Errors located under loc, or nil.
func (val *Validator) Struct(s any, loc string) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	overrider, _ := s.(MessageOverrider)

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		path := fieldPath(fe.Namespace())
		msg, typ := describe(fe)
		if overrider != nil {
			if custom, ok := overrider.ValidationMessage(fe.Field(), fe.Tag()); ok {
				msg = custom
			}
		}
		out = append(out, FieldError{
			Loc:  append([]string{loc}, path...),
			Msg:  msg,
			Type: typ,
		})
	}
	return out
}

// Var validates a single value against tag, reporting it at loc.
func (val *Validator) Var(value any, tag string, loc ...string) error {
	err := val.v.Var(value, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		msg, typ := describe(fe)
		out = append(out, FieldError{Loc: loc, Msg: msg, Type: typ})
	}
	return out
}

// fieldPath drops the struct name from a validator namespace.
func fieldPath(namespace string) []string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return parts
}

func describe(fe validator.FieldError) (string, string) {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "field required", "value_error.missing"
	case "min":
		if isString {
			return fmt.Sprintf("ensure this value has at least %s characters", fe.Param()), "value_error.any_str.min_length"
		}
		return fmt.Sprintf("ensure this value has at least %s items", fe.Param()), "value_error.list.min_items"
	case "max":
		if isString {
			return fmt.Sprintf("ensure this value has at most %s characters", fe.Param()), "value_error.any_str.max_length"
		}
		return fmt.Sprintf("ensure this value has at most %s items", fe.Param()), "value_error.list.max_items"
	case "len":
		return fmt.Sprintf("ensure this value has exactly %s characters", fe.Param()), "value_error.any_str.length"
	case "gte":
		return fmt.Sprintf("ensure this value is greater than or equal to %s", fe.Param()), "value_error.number.not_ge"
	case "lte":
		return fmt.Sprintf("ensure this value is less than or equal to %s", fe.Param()), "value_error.number.not_le"
	case "gt":
		return fmt.Sprintf("ensure this value is greater than %s", fe.Param()), "value_error.number.not_gt"
	case "oneof":
		permitted := strings.Join(strings.Fields(fe.Param()), "', '")
		return fmt.Sprintf("value is not a valid enumeration member; permitted: '%s'", permitted), "type_error.enum"
	case "email":
		return "value is not a valid email address", "value_error.email"
	case "datetime":
		return "invalid date format", "value_error.date"
	case "eqfield":
		return fmt.Sprintf("value must match %s", strings.ToLower(fe.Param())), "value_error.mismatch"
	case "licenseplate":
		return `string does not match regex "^\w{2}-\d{3}-\w{2}$" and is not 9 characters long`, "value_error.str.regex"
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag()), "value_error"
	}
}
