package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank validation: %v", err))
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags of s and converts the first failure
// into a ValidationError carrying the message registered for the field.
func validateStruct(s any, messages map[string]string) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Kind: KindValidation, Message: "malformed payload", Cause: err}
	}

	first := verrs[0]
	field := fieldName(first.Field())
	structField := fieldName(first.StructField())

	message, ok := messages[structField]
	if !ok {
		message = "failed on the '" + first.Tag() + "' rule"
	}
	return NewValidationError(field, message)
}

// fieldName strips dive indexes such as "soft_skill_scores[python]".
func fieldName(name string) string {
	if idx := strings.IndexByte(name, '['); idx != -1 {
		return name[:idx]
	}
	return name
}
