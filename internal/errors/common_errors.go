package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeSourceNotFound   ErrorType = "SOURCE_NOT_FOUND"
	ErrTypeUnreadableFormat ErrorType = "UNREADABLE_FORMAT"
	ErrTypeSchemaMismatch   ErrorType = "SCHEMA_MISMATCH"
	ErrTypeLookupMiss       ErrorType = "LOOKUP_MISS"
	ErrTypeValidation       ErrorType = "VALIDATION"
	ErrTypeConfig           ErrorType = "CONFIG"
	ErrTypeStorage          ErrorType = "STORAGE"
	ErrTypeNetwork          ErrorType = "NETWORK"
)

// Sentinels for errors.Is. They match any AppError of the same type.
var (
	ErrSourceNotFound   = &AppError{Type: ErrTypeSourceNotFound}
	ErrUnreadableFormat = &AppError{Type: ErrTypeUnreadableFormat}
	ErrSchemaMismatch   = &AppError{Type: ErrTypeSchemaMismatch}
	ErrLookupMiss       = &AppError{Type: ErrTypeLookupMiss}
	ErrValidation       = &AppError{Type: ErrTypeValidation}
	ErrConfig           = &AppError{Type: ErrTypeConfig}
	ErrStorage          = &AppError{Type: ErrTypeStorage}
	ErrNetwork          = &AppError{Type: ErrTypeNetwork}
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
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Type, e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.Context[k])
		}
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError with the same Type
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Fatal reports whether the error must abort a pipeline run
func (e *AppError) Fatal() bool {
	return e.Type != ErrTypeLookupMiss
}

// IsFatal reports whether err must abort a pipeline run. Errors outside the
// AppError taxonomy are always fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Fatal()
	}
	return true
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

// TypeOf returns the ErrorType of the first AppError in the chain, or ""
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Helper functions for common error types

// NewSourceNotFoundError reports a workbook path that does not resolve
func NewSourceNotFoundError(path string, cause error) *AppError {
	return NewAppError(ErrTypeSourceNotFound, "workbook not found", cause).WithContext("path", path)
}

// NewUnreadableFormatError reports a file that is not a readable workbook
func NewUnreadableFormatError(path string, cause error) *AppError {
	return NewAppError(ErrTypeUnreadableFormat, "file is not a valid workbook", cause).WithContext("path", path)
}

// NewSchemaMismatchError reports a sheet whose data region does not match the declared schema
func NewSchemaMismatchError(sheet, message string) *AppError {
	return NewAppError(ErrTypeSchemaMismatch, message, nil).WithContext("sheet", sheet)
}

// NewLookupMissError records entities with no resolvable category
func NewLookupMissError(entities []string) *AppError {
	return NewAppError(ErrTypeLookupMiss, fmt.Sprintf("%d entities without category", len(entities)), nil).
		WithContext("entities", strings.Join(entities, "; "))
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewNetworkError creates a network-related error
func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}
