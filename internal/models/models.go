// package models defines the data model for the recipe sharing service
package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxNameLength     = 200
	MaxUserNameLength = 150
	MaxEmailLength    = 254
)

// Model defines the base interface for all persistent models in the recipe service.
// Implementations include User, Tag, Ingredient and Recipe.
type Model interface {
	ID() int64       // ID returns the unique identifier for this model
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error    // Create inserts a new model into the database
	Get(id int64) (T, error) // Get retrieves a model by its ID
	Update(model T) error    // Update modifies an existing model in the database
	Delete(id int64) error   // Delete removes a model from the database by its ID
}

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

// FieldError reports an invalid value for a single field.
//
// Err optionally carries a sentinel from [shared] (e.g. ErrAlreadyExists) so callers can branch with errors.Is.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func requireText(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: field, Message: "This field may not be blank."}
	}
	if utf8.RuneCountInString(value) > max {
		return &FieldError{Field: field, Message: fmt.Sprintf("Ensure this field has no more than %d characters.", max)}
	}
	return nil
}
