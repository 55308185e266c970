package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/containerd/errdefs"
)

// ErrInvalidConfig classifies every identity or config validation failure
var ErrInvalidConfig = fmt.Errorf("invalid config: %w", errdefs.ErrInvalidArgument)

// ValidationError represents a single invalid configuration field
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("validation error for field '%s' (value: %s): %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid field found in one validation pass
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}

	if len(e) == 1 {
		return e[0].Error()
	}

	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed with %d errors: %s", len(e), strings.Join(messages, "; "))
}

// Unwrap lets errors.Is and errdefs classify the collection as invalid config
func (e ValidationErrors) Unwrap() error {
	return ErrInvalidConfig
}

// Add adds a validation error to the collection
func (e *ValidationErrors) Add(field, value, message string) {
	*e = append(*e, ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Fields returns the names of the invalid fields in the order they were found
func (e ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(e))
	for _, err := range e {
		fields = append(fields, err.Field)
	}
	return fields
}

// InvalidFields extracts the invalid field names from err, or nil when err
// does not carry ValidationErrors.
func InvalidFields(err error) []string {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.Fields()
	}
	return nil
}
