package models

import (
	"errors"
	"fmt"
)

// Error codes shared by every layer.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeNotFound         = "NOT_FOUND"
	CodeStorage          = "STORAGE_ERROR"
	CodePersistence      = "PERSISTENCE_ERROR"
	CodePartialFailure   = "PARTIAL_FAILURE"
	CodeUnauthorized     = "UNAUTHORIZED"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

func NewPayloadTooLargeError(message string) *AppError {
	return &AppError{Code: CodePayloadTooLarge, Message: message}
}

func NewPermissionDeniedError(message string) *AppError {
	return &AppError{Code: CodePermissionDenied, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewStorageError(err error) *AppError {
	return &AppError{Code: CodeStorage, Message: "Blob storage failed", Err: err}
}

func NewPersistenceError(op string, err error) *AppError {
	return &AppError{Code: CodePersistence, Message: op + " failed", Err: err}
}

// NewPartialFailureError marks a multi-step write where the first step landed and a later one did not.
func NewPartialFailureError(step string, err error) *AppError {
	return &AppError{Code: CodePartialFailure, Message: "Partially applied, failed at " + step, Err: err}
}

// ErrorCode returns the AppError code in err's chain, or "" when there is none.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return err != nil && ErrorCode(err) == code
}

// AsPersistence wraps a backend error unless it is already classified.
func AsPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if ErrorCode(err) != "" {
		return err
	}
	return NewPersistenceError(op, err)
}
