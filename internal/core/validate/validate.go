// Package validate wraps go-playground/validator for request bodies.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Struct validates s and flattens field errors into one readable message.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return fmt.Errorf("validate: %w", err)
	}
	msgs := make([]string, 0, len(fields))
	for _, fe := range fields {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return &Error{Fields: msgs, err: err}
}

func (val *Validator) Var(field any, tag string) error {
	return val.v.Var(field, tag)
}

// Error is a failed struct validation.
type Error struct {
	Fields []string
	err    error
}

func (e *Error) Error() string { return "invalid request: " + strings.Join(e.Fields, "; ") }

func (e *Error) Unwrap() error { return e.err }
