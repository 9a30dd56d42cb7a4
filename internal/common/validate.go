package common

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

var looseEmail = regexp.MustCompile(`\S+@\S+\.\S+`)

// NewValidator returns a validator that reports fields by their json name and
// knows the storefront's shared tags (email_loose).
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("email_loose", func(fl validator.FieldLevel) bool {
		return looseEmail.MatchString(fl.Field().String())
	})
	return v
}

// Messages maps field -> tag -> message. The "*" tag is a per-field fallback.
type Messages map[string]map[string]string

// FieldErrorsFrom converts validator errors into field messages. It returns
// nil, err when err is not a validation failure.
func FieldErrorsFrom(err error, messages Messages) (FieldErrors, error) {
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = messages.lookup(field, fe.Tag())
	}
	return out, nil
}

func (m Messages) lookup(field, tag string) string {
	if byTag, ok := m[field]; ok {
		if msg, ok := byTag[tag]; ok {
			return msg
		}
		if msg, ok := byTag["*"]; ok {
			return msg
		}
	}
	return field + " is invalid"
}
