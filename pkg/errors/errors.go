// Package errors provides structured error types for imgflow stages.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across stages and the CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes name the failure class a stage reports to its host pipeline:
//   - INVALID_*: Configuration or input validation failures
//   - UNSUPPORTED_*: Inputs or outputs no codec or stage can handle
//   - UNMATCHED_IMAGE / UNUSED_CONFIG: Configuration and input do not line up
//   - ENLARGEMENT: A variant would upscale its source
//   - RENDER / OPTIMIZE / RASTERIZE: Failures of an image backend
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSizeSpec, "wrong size %q", raw)
//	if errors.Is(err, errors.ErrCodeInvalidSizeSpec) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRender, origErr, "file %q", rel)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidSizeSpec Code = "INVALID_SIZE_SPEC"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Policy errors raised by the responsive stage
	ErrCodeEnlargement    Code = "ENLARGEMENT"
	ErrCodeUnmatchedImage Code = "UNMATCHED_IMAGE"
	ErrCodeUnusedConfig   Code = "UNUSED_CONFIG"

	// Unsupported inputs and outputs
	ErrCodeUnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	ErrCodeUnsupportedInput  Code = "UNSUPPORTED_INPUT"

	// Backend failures
	ErrCodeRender    Code = "RENDER"
	ErrCodeOptimize  Code = "OPTIMIZE"
	ErrCodeRasterize Code = "RASTERIZE"

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

// coded is implemented by typed errors that carry their own code.
type coded interface {
	error
	ErrorCode() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a typed error with a matching code.
func Is(err error, code Code) bool {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			if e.Code == code {
				return true
			}
		case coded:
			if e.ErrorCode() == code {
				return true
			}
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if no coded error is found in the chain.
func GetCode(err error) Code {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Code
		case coded:
			return e.ErrorCode()
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// EnlargementError reports a variant whose requested size exceeds its source.
// Only the axes that were requested carry a non-zero Requested value.
type EnlargementError struct {
	File            string
	Width, Height   int // intrinsic source size
	RequestedWidth  int
	RequestedHeight int
}

// Error implements the error interface.
func (e *EnlargementError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: file %q: image enlargement is detected", ErrCodeEnlargement, e.File)
	if e.RequestedWidth > 0 {
		fmt.Fprintf(&b, "; real width: %dpx, required width: %dpx", e.Width, e.RequestedWidth)
	}
	if e.RequestedHeight > 0 {
		fmt.Fprintf(&b, "; real height: %dpx, required height: %dpx", e.Height, e.RequestedHeight)
	}
	return b.String()
}

// ErrorCode returns ErrCodeEnlargement.
func (e *EnlargementError) ErrorCode() Code {
	return ErrCodeEnlargement
}

// UnusedConfigError lists configuration names that no input matched.
type UnusedConfigError struct {
	Names []string
}

// Error implements the error interface.
func (e *UnusedConfigError) Error() string {
	quoted := make([]string, len(e.Names))
	for i, n := range e.Names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return fmt.Sprintf("%s: available images do not match the following config: %s",
		ErrCodeUnusedConfig, strings.Join(quoted, ", "))
}

// ErrorCode returns ErrCodeUnusedConfig.
func (e *UnusedConfigError) ErrorCode() Code {
	return ErrCodeUnusedConfig
}
