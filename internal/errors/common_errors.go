package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Pipeline taxonomy. Only ErrTypeConfig aborts a run.
	ErrTypeRow    ErrorType = "ROW"
	ErrTypeFile   ErrorType = "FILE"
	ErrTypeColumn ErrorType = "COLUMN"
	ErrTypeConfig ErrorType = "CONFIG"

	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeState      ErrorType = "STATE"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Recoverable reports whether the pipeline may continue past this error.
func (e *AppError) Recoverable() bool {
	switch e.Type {
	case ErrTypeRow, ErrTypeFile, ErrTypeColumn:
		return true
	}
	return false
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewRowError creates an error for a single skipped row.
func NewRowError(file string, line int, message string) *AppError {
	return NewAppError(ErrTypeRow, message, nil).
		WithContext("file", file).
		WithContext("line", line)
}

// NewFileError creates an error for a file that could not be ingested.
func NewFileError(file string, message string, cause error) *AppError {
	return NewAppError(ErrTypeFile, message, cause).WithContext("file", file)
}

// NewColumnError creates an error for a required column that is missing.
func NewColumnError(column string) *AppError {
	return NewAppError(ErrTypeColumn, fmt.Sprintf("required column %q not found", column), nil).
		WithContext("column", column)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, message, cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewStateError creates an error for a rejected state transition.
func NewStateError(message string) *AppError {
	return NewAppError(ErrTypeState, message, nil)
}

// IsType reports whether err wraps an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}
