package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	// optionalurl lets a patch send "" to clear a URL column.
	_ = v.RegisterValidation("optionalurl", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		return s == "" || v.Var(s, "url") == nil
	})
	return v
}

// Check validates s against its validate tags. A bad record type wraps
// ErrInvalidKind; anything else wraps ErrInvalidInput. Field names in the
// message are the JSON names.
func Check(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	sentinel := ErrInvalidInput
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Field() == "type" && fe.Tag() == "oneof" {
			sentinel = ErrInvalidKind
		}
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", sentinel, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "url", "optionalurl":
		return field + " must be a valid URL"
	case "email":
		return field + " must be an email address"
	case "min":
		return fmt.Sprintf("%s needs at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
