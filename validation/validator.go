package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/tpcgraph/errors"
)

// nodeNamePattern keeps node names usable as log fields, URL path segments
// and kernel thread names.
var nodeNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// MaxNodeNameLength bounds node names.
const MaxNodeNameLength = 64

// Validator collects validation errors.
type Validator struct {
	errors []FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{
		errors: make([]FieldError, 0),
	}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns an AppError if there are validation errors, nil otherwise.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}

	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}

	appErr := errors.Validation(strings.Join(messages, "; "))
	appErr.Details = map[string]any{
		"fields": v.errors,
	}

	return appErr
}

// Required checks if a string is non-empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// NodeName checks that a node name is non-empty, bounded and made of
// letters, digits, '.', '_' and '-'.
func (v *Validator) NodeName(field, value string) *Validator {
	switch {
	case value == "":
		v.AddError(field, "is required")
	case len(value) > MaxNodeNameLength:
		v.AddError(field, fmt.Sprintf("must be %d characters or less", MaxNodeNameLength))
	case !nodeNamePattern.MatchString(value):
		v.AddError(field, "must contain only letters, digits, '.', '_' and '-'")
	}
	return v
}

// OptionalUUID checks if a non-empty string is a valid UUID.
func (v *Validator) OptionalUUID(field, value string) *Validator {
	if value == "" {
		return v
	}
	if _, err := uuid.Parse(value); err != nil {
		v.AddError(field, "must be a valid UUID")
	}
	return v
}

// Range checks if a number is within a range.
func (v *Validator) Range(field string, value, minVal, maxVal int) *Validator {
	if value < minVal || value > maxVal {
		v.AddError(field, fmt.Sprintf("must be between %d and %d", minVal, maxVal))
	}
	return v
}

// CPU checks that a core index is one of the allowed cores. An empty
// allowed set only requires a non-negative index.
func (v *Validator) CPU(field string, cpu int, allowed []int) *Validator {
	if cpu < 0 {
		v.AddError(field, fmt.Sprintf("must be a non-negative core index (got: %d)", cpu))
		return v
	}
	if len(allowed) == 0 {
		return v
	}
	for _, c := range allowed {
		if c == cpu {
			return v
		}
	}
	v.AddError(field, fmt.Sprintf("core %d is not in the allowed set %v", cpu, allowed))
	return v
}

// OneOf checks if a value is one of the allowed values.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Custom applies a custom validation condition.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}
