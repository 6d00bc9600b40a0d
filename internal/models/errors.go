package models

import (
	"fmt"
	"strings"
)

// FieldError describes a single invalid request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned for malformed or out-of-range input.
// Fields carries per-field detail for the API response.
type ValidationError struct {
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// NewValidationError creates a validation error with a single message
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NewFieldValidationError creates a validation error with field-level detail
func NewFieldValidationError(message string, fields ...FieldError) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

// AuthorizationError is returned when the caller's role or plan tier is
// insufficient. RequiredPlan names the minimum entitlement when derivable,
// so clients can render an upgrade prompt.
type AuthorizationError struct {
	Message      string `json:"message"`
	RequiredPlan string `json:"required_plan,omitempty"`
}

func (e *AuthorizationError) Error() string {
	if e.RequiredPlan != "" {
		return fmt.Sprintf("%s (requires %s plan or higher)", e.Message, e.RequiredPlan)
	}
	return e.Message
}

// NewAuthorizationError creates an authorization error
func NewAuthorizationError(message string) *AuthorizationError {
	return &AuthorizationError{Message: message}
}

// NewPlanRequiredError creates an authorization error naming the minimum plan
func NewPlanRequiredError(message, requiredPlan string) *AuthorizationError {
	return &AuthorizationError{Message: message, RequiredPlan: requiredPlan}
}

// NotFoundError is returned when a referenced entity does not exist
type NotFoundError struct {
	Resource string `json:"resource"`
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// NewNotFoundError creates a not-found error for a resource
func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// InvalidStateError is returned when an operation is not permitted given the
// entity's current state (closed project, double refund, stale cancel window)
type InvalidStateError struct {
	Message string `json:"message"`
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

// NewInvalidStateError creates an invalid-state error
func NewInvalidStateError(message string) *InvalidStateError {
	return &InvalidStateError{Message: message}
}
