package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// Common sentinel errors for quick checks
var (
	// ErrInvalidInput is returned when a caller passes an unusable argument.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthenticated is returned when no credential is available.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrClosed is returned when an operation is attempted on a closed component.
	ErrClosed = errors.New("closed")

	// ErrNotConnected is returned when sending on a channel that is not open.
	ErrNotConnected = errors.New("not connected")
)

// Error is the base interface for all custom errors in the module.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
	stack   []uintptr
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// Stack returns the captured stack trace.
func (e *BaseError) Stack() []uintptr {
	return e.stack
}

func captureStack(skip int) []uintptr {
	const maxDepth = 32
	stack := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, stack)
	return stack[:n]
}

// ValidationError represents an input validation error.
type ValidationError struct {
	*BaseError
	Field string
	Value interface{}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		BaseError: &BaseError{
			code:    CodeInvalidArgument,
			message: message,
			cause:   ErrInvalidInput,
			stack:   captureStack(1),
		},
		Field: field,
		Value: value,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// UnauthenticatedError reports that no credential could be found for a connection.
type UnauthenticatedError struct {
	*BaseError
	Source string
}

// NewUnauthenticatedError creates a new unauthenticated error. Source names where the
// credential was looked up (env var, credential file, ...).
func NewUnauthenticatedError(source string, cause error) *UnauthenticatedError {
	message := "no credential available"
	if source != "" {
		message = fmt.Sprintf("no credential available from %s", source)
	}
	if cause == nil {
		cause = ErrUnauthenticated
	}
	return &UnauthenticatedError{
		BaseError: &BaseError{
			code:    CodeUnauthenticated,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
		Source: source,
	}
}

// TransportError reports a failure of the persistent connection behind a channel key.
type TransportError struct {
	*BaseError
	Key string
	Op  string // dial, read, write, close
}

// NewTransportError creates a new transport error.
func NewTransportError(key, op string, cause error) *TransportError {
	return &TransportError{
		BaseError: &BaseError{
			code:    CodeTransport,
			message: fmt.Sprintf("transport %s failed", op),
			cause:   cause,
			stack:   captureStack(1),
		},
		Key: key,
		Op:  op,
	}
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	msg := fmt.Sprintf("transport %s failed for %q", e.Op, e.Key)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// ProtocolError reports an inbound frame that could not be decoded.
type ProtocolError struct {
	*BaseError
	Key       string
	FrameSize int
}

// NewProtocolError creates a new protocol error.
func NewProtocolError(key, message string, frameSize int, cause error) *ProtocolError {
	if message == "" {
		message = "malformed frame"
	}
	return &ProtocolError{
		BaseError: &BaseError{
			code:    CodeProtocol,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
		Key:       key,
		FrameSize: frameSize,
	}
}

// ClosedError reports use of a component after shutdown.
type ClosedError struct {
	*BaseError
	Component string
}

// NewClosedError creates a new closed error.
func NewClosedError(component string) *ClosedError {
	return &ClosedError{
		BaseError: &BaseError{
			code:    CodeClosed,
			message: fmt.Sprintf("%s is closed", component),
			cause:   ErrClosed,
			stack:   captureStack(1),
		},
		Component: component,
	}
}

// Error implements the error interface.
func (e *ClosedError) Error() string {
	return e.message
}
