// Package validation validates request payloads with go-playground/validator v10.
//
// A single validator instance is shared by all handlers. Field errors are keyed by the payload's JSON
// names so they can be rendered as {"field": ["message", ...]}.
//
//	type TagRequest struct {
//	    Name  string `json:"name" validate:"required,max=200"`
//	    Color string `json:"color" validate:"required,tagcolor"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    var verr *validation.RequestValidationError
//	    errors.As(err, &verr) // verr.Fields() == map[string][]string{...}
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/desertthunder/foodgram/internal/shared"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var (
	colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	slugPattern  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// ValidationError is a single failed rule on a payload field.
type ValidationError struct {
	field   string
	tag     string
	param   string
	message string
}

// Field returns the top-level JSON field that failed validation.
func (e *ValidationError) Field() string { return e.field }

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string { return e.tag }

// Param returns the parameter for the validation tag (e.g., "200" for "max=200").
func (e *ValidationError) Param() string { return e.param }

func (e *ValidationError) Error() string { return e.message }

// RequestValidationError collects every failed rule of a payload.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the slice of validation errors.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

// Error implements the error interface, returning a combined error message.
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}

	messages := make([]string, 0, len(ve.errors))
	for _, err := range ve.errors {
		messages = append(messages, fmt.Sprintf("%s: %s", err.field, err.message))
	}
	return strings.Join(messages, "; ")
}

// Unwrap lets callers match [shared.ErrInvalidInput].
func (ve *RequestValidationError) Unwrap() error {
	return shared.ErrInvalidInput
}

// Fields groups messages by field, dropping repeats.
func (ve *RequestValidationError) Fields() map[string][]string {
	fields := make(map[string][]string, len(ve.errors))
	for _, err := range ve.errors {
		seen := false
		for _, m := range fields[err.field] {
			if m == err.message {
				seen = true
				break
			}
		}
		if !seen {
			fields[err.field] = append(fields[err.field], err.message)
		}
	}
	return fields
}

// NewFieldError builds a [RequestValidationError] for a single field outside of struct tags,
// e.g. a uniqueness check that needs the database.
func NewFieldError(field, message string) *RequestValidationError {
	return &RequestValidationError{errors: []ValidationError{{field: field, tag: "custom", message: message}}}
}

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})

		must(validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return shared.ValidUsername(fl.Field().String())
		}))
		must(validate.RegisterValidation("tagcolor", func(fl validator.FieldLevel) bool {
			return colorPattern.MatchString(fl.Field().String())
		}))
		must(validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		}))
		must(validate.RegisterValidation("datauri", func(fl validator.FieldLevel) bool {
			_, _, err := shared.DecodeImageDataURI(fl.Field().String())
			return err == nil
		}))
	})

	return validate
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// ValidateStruct validates s using the singleton validator.
// Returns nil if validation passes, or a *[RequestValidationError] if it fails.
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{errors: []ValidationError{{field: "non_field_errors", tag: "unknown", message: err.Error()}}}
	}

	fieldErrors := make([]ValidationError, len(validationErrs))
	for i, fe := range validationErrs {
		fieldErrors[i] = ValidationError{
			field:   topLevelField(fe.Namespace()),
			tag:     fe.Tag(),
			param:   fe.Param(),
			message: translateError(fe),
		}
	}
	return &RequestValidationError{errors: fieldErrors}
}

// topLevelField turns "RecipeRequest.ingredients[0].amount" into "ingredients".
func topLevelField(namespace string) string {
	_, rest, ok := strings.Cut(namespace, ".")
	if !ok {
		return namespace
	}
	if i := strings.IndexAny(rest, ".["); i >= 0 {
		return rest[:i]
	}
	return rest
}

var errorMessageTemplates = map[string]string{
	"required": "This field is required.",
	"email":    "Enter a valid email address.",
	"username": "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.",
	"tagcolor": "Enter a valid hex color, e.g. #49B64E.",
	"slug":     "Enter a valid slug consisting of letters, numbers, underscores or hyphens.",
	"datauri":  "Upload a valid image encoded as a base64 data URI.",
	"unique":   "Duplicate values are not allowed.",
}

// translateError converts a validator.FieldError to a message in the API's style.
func translateError(fe validator.FieldError) string {
	if message, ok := errorMessageTemplates[fe.Tag()]; ok {
		return message
	}

	isString := fe.Kind() == reflect.String
	isSlice := fe.Kind() == reflect.Slice

	switch fe.Tag() {
	case "min", "gte":
		switch {
		case isString:
			return "This field may not be blank."
		case isSlice:
			return fmt.Sprintf("Ensure this field has at least %s elements.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max", "lte":
		switch {
		case isString:
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		case isSlice:
			return fmt.Sprintf("Ensure this field has no more than %s elements.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Select one of: %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed %s validation.", fe.Tag())
	}
}
