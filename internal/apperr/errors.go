// Package apperr defines the application error vocabulary. Expected failures
// are returned as *Error values carrying a stable code; callers branch with
// errors.As / apperr.CodeOf and the API layer renders them into the response
// envelope instead of throwing.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
)

// Code identifies an expected failure mode.
type Code string

const (
	CodeValidation               Code = "VALIDATION_ERROR"
	CodeVersionGetFailed         Code = "VERSION_GET_FAILED"
	CodeVersionUpdateFailed      Code = "VERSION_UPDATE_FAILED"
	CodeSchemaCompatibility      Code = "SCHEMA_COMPATIBILITY_CHECK_FAILED"
	CodeMigrationFailed          Code = "MIGRATION_FAILED"
	CodeMigrationExecutionFailed Code = "MIGRATION_EXECUTION_FAILED"
	CodeMigrationNotFound        Code = "MIGRATION_NOT_FOUND"
	CodeRollbackNotSupported     Code = "ROLLBACK_NOT_SUPPORTED"
	CodeRollbackFailed           Code = "ROLLBACK_FAILED"
	CodeIntegrityCheckFailed     Code = "INTEGRITY_CHECK_FAILED"
	CodeOrphanedPhotosCheck      Code = "ORPHANED_PHOTOS_CHECK_FAILED"
	CodeCleanupFailed            Code = "CLEANUP_FAILED"
)

// Error is a coded application error. Details carries optional structured
// context, e.g. a validation result or the migration ids that would have
// applied.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`

	cause error
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error around an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithDetails attaches structured context and returns the same error.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// CodeOf returns the code carried by err, or "" if err is not an *Error.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
