package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is returned for malformed input. Each detail reads "field: message".
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Details, ", ")
}

// NewValidationError builds a ValidationError from details.
func NewValidationError(details ...string) *ValidationError {
	return &ValidationError{Details: details}
}

// BindError converts an error from gin's ShouldBind* into a ValidationError.
func BindError(err error) *ValidationError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fieldName(fe.Field())+": "+fieldMessage(fe))
		}
		return NewValidationError(details...)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return NewValidationError(fmt.Sprintf("%s: must be %s", typeErr.Field, kindName(typeErr.Type)))
	}
	if errors.Is(err, io.EOF) {
		return NewValidationError("body: is required")
	}
	return NewValidationError("body: invalid JSON")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "is invalid"
}

// fieldName maps a Go struct field name to its wire name (Title -> title, DueDate -> dueDate).
func fieldName(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func kindName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	}
	return "a valid value"
}
