package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/fyrsmithlabs/composed/internal/apperr"
)

var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New(validator.WithRequiredStructEnabled())
	requestValidate.RegisterTagNameFunc(jsonFieldName)
	if err := requestValidate.RegisterValidation("printable", validatePrintable); err != nil {
		panic(fmt.Sprintf("failed to register printable validator: %v", err))
	}
}

// validatePrintable rejects names carrying control characters. Such names
// can never be valid paths and would otherwise surface as opaque OS errors.
func validatePrintable(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsControl) < 0
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// requestValidator adapts go-playground/validator to echo.Validator.
// Failures are invalid-input faults so they render as 422.
type requestValidator struct{}

func (requestValidator) Validate(i any) error {
	err := requestValidate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &apperr.Error{Kind: apperr.KindInvalidInput, Message: describe(verrs[0]), Err: err}
	}
	return apperr.InvalidInput("%v", err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param())
	case "printable":
		return fmt.Sprintf("%s contains control characters.", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid.", fe.Field())
	}
}
