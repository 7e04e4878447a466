// Package validate wraps go-playground/validator with a shared instance and
// flattened error messages. Fields are reported by their json name when
// they have one.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation failed: %w", err)
	}
	return &Error{fields: verrs}
}

// Violation describes one failed rule.
type Violation struct {
	Property string `json:"property"`
	Message  string `json:"message"`
}

// Error reports the fields that failed validation.
type Error struct {
	fields validator.ValidationErrors
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.fields))
	for _, v := range e.Violations() {
		msgs = append(msgs, v.Property+": "+v.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Violations lists the failures in field order.
func (e *Error) Violations() []Violation {
	out := make([]Violation, 0, len(e.fields))
	for _, fe := range e.fields {
		out = append(out, Violation{Property: property(fe), Message: message(fe)})
	}
	return out
}

// property drops the top-level struct name from the namespace.
func property(fe validator.FieldError) string {
	name := fe.Namespace()
	if _, rest, ok := strings.Cut(name, "."); ok {
		return rest
	}
	return name
}

func message(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
