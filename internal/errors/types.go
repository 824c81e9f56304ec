// Package errors defines the structured error type used by codeplay.
//
// Errors carry a category, a short machine-readable code and an optional
// cause so that handlers can map them onto HTTP statuses and log fields
// without string matching.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeSandbox    ErrorType = "sandbox"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// PlaygroundError is a structured error type with context.
type PlaygroundError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Recoverable bool
}

// Error implements the error interface.
func (e *PlaygroundError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *PlaygroundError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code so sentinel values can be compared with errors.Is.
func (e *PlaygroundError) Is(target error) bool {
	var t *PlaygroundError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *PlaygroundError) WithContext(key string, value interface{}) *PlaygroundError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *PlaygroundError {
	return &PlaygroundError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewNotFoundError creates a lookup miss.
func NewNotFoundError(code, message string) *PlaygroundError {
	return &PlaygroundError{
		Type:        ErrorTypeNotFound,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewStorageError creates a persistence error.
func NewStorageError(code, message string, cause error) *PlaygroundError {
	return &PlaygroundError{
		Type:        ErrorTypeStorage,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewSandboxError creates an error raised while publishing or executing a document.
func NewSandboxError(code, message string, cause error) *PlaygroundError {
	return &PlaygroundError{
		Type:        ErrorTypeSandbox,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *PlaygroundError {
	return &PlaygroundError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *PlaygroundError {
	return &PlaygroundError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var pe *PlaygroundError
	if errors.As(err, &pe) {
		return pe.Recoverable
	}

	return false
}

// IsType reports whether err is a PlaygroundError of the given type.
func IsType(err error, t ErrorType) bool {
	var pe *PlaygroundError
	if errors.As(err, &pe) {
		return pe.Type == t
	}

	return false
}

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// WrapStorage wraps err as a storage error, passing nil through.
func WrapStorage(err error, code, message string) error {
	if err == nil {
		return nil
	}
	return NewStorageError(code, message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return errors.As(err, target) }
