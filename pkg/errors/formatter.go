package errors

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError names one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors turns binding failures on model into per-field messages keyed by the
// field's form or json name. Errors that are not validator failures yield nil.
func FormatValidationErrors(err error, model any) []FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	structType := reflect.TypeOf(model)
	for structType != nil && structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	fields := make([]FieldError, len(validationErrors))
	for i, fieldError := range validationErrors {
		fields[i] = FieldError{
			Field:   fieldName(structType, fieldError.StructField()),
			Message: messageFor(fieldError),
		}
	}
	return fields
}

func messageFor(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Must be at least %s", fieldError.Param())
	case "max":
		return fmt.Sprintf("Must not exceed %s", fieldError.Param())
	default:
		return "Invalid value"
	}
}

func fieldName(structType reflect.Type, name string) string {
	if structType == nil || structType.Kind() != reflect.Struct {
		return name
	}

	field, ok := structType.FieldByName(name)
	if !ok {
		return name
	}
	for _, key := range []string{"form", "json"} {
		if tag, _, _ := strings.Cut(field.Tag.Get(key), ","); tag != "" && tag != "-" {
			return tag
		}
	}
	return name
}
