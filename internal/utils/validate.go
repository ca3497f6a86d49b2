package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	// report json field names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// IsValidEmail reports whether s is a syntactically valid email address.
// Deliverability is not checked.
func IsValidEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// RequestValidator plugs the struct validator into Echo's c.Validate.
type RequestValidator struct{}

// Validate checks s against its `validate` tags and returns the first
// violation as a readable message.
func (RequestValidator) Validate(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("invalid validation error: %w", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("field '%s' is required", fe.Field())
	case "gte":
		return fmt.Errorf("field '%s' must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Errorf("field '%s' must be at most %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Errorf("field '%s' must be a valid email address", fe.Field())
	default:
		return fmt.Errorf("field '%s' validation failed on tag '%s'", fe.Field(), fe.Tag())
	}
}
