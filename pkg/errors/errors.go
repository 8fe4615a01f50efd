// Package errors provides structured error types for recalc.
//
// This package defines error codes and types that enable:
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages in the CLI
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes are grouped by the phase that produces them:
//   - Build: UNKNOWN_DEPENDENCY, CYCLIC_DEPENDENCY, MISSING_COMPUTE_FUNCTION, ...
//   - Runtime: NODE_NOT_FOUND, DERIVED_NODE_UPDATE, COMPUTE_FAILED, ...
//   - Input: INVALID_MANIFEST, INVALID_EXPRESSION, INVALID_INPUT, ...
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNodeNotFound, "node %q not found", name)
//	if errors.Is(err, errors.ErrCodeNodeNotFound) {
//	    // Handle lookup failure
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeComputeFailed, origErr, "recompute %q", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Build errors
	ErrCodeUnknownDependency         Code = "UNKNOWN_DEPENDENCY"
	ErrCodeCyclicDependency          Code = "CYCLIC_DEPENDENCY"
	ErrCodeMissingComputeFunction    Code = "MISSING_COMPUTE_FUNCTION"
	ErrCodeUnexpectedComputeFunction Code = "UNEXPECTED_COMPUTE_FUNCTION"
	ErrCodeDuplicateNode             Code = "DUPLICATE_NODE"
	ErrCodeInvalidNodeName           Code = "INVALID_NODE_NAME"

	// Runtime errors
	ErrCodeNodeNotFound            Code = "NODE_NOT_FOUND"
	ErrCodeDerivedNodeUpdate       Code = "DERIVED_NODE_UPDATE"
	ErrCodeInvalidComputeReference Code = "INVALID_COMPUTE_REFERENCE"
	ErrCodeComputeFailed           Code = "COMPUTE_FAILED"

	// Input errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidManifest   Code = "INVALID_MANIFEST"
	ErrCodeInvalidExpression Code = "INVALID_EXPRESSION"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeFileNotFound      Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err carries the given error code anywhere in its chain.
// A COMPUTE_FAILED error wrapping an INVALID_COMPUTE_REFERENCE matches both.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
