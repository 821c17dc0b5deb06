package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name          string
		field         string
		message       string
		expectedError string
	}{
		{
			name:          "with field",
			field:         "key",
			message:       "must not be empty",
			expectedError: "validation error: key: must not be empty",
		},
		{
			name:          "without field",
			message:       "listener is nil",
			expectedError: "validation error: listener is nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message, nil)
			if err.Error() != tt.expectedError {
				t.Errorf("Expected error %q, got %q", tt.expectedError, err.Error())
			}
			if err.Code() != CodeInvalidArgument {
				t.Errorf("Expected code %q, got %q", CodeInvalidArgument, err.Code())
			}
			if !IsValidation(err) {
				t.Error("IsValidation should match")
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Error("should unwrap to ErrInvalidInput")
			}
		})
	}
}

func TestUnauthenticatedError(t *testing.T) {
	err := NewUnauthenticatedError("env RUPAYA_TOKEN", nil)
	if !strings.Contains(err.Error(), "env RUPAYA_TOKEN") {
		t.Errorf("source missing from %q", err.Error())
	}
	if !IsUnauthenticated(err) {
		t.Error("IsUnauthenticated should match")
	}
	if GetCategory(err.Code()) != CategorySetup {
		t.Errorf("unexpected category %q", GetCategory(err.Code()))
	}
}

func TestTransportError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewTransportError("g1", "dial", cause)

	if got := err.Error(); got != `transport dial failed for "g1": connection refused` {
		t.Errorf("unexpected message %q", got)
	}
	if !IsTransport(err) {
		t.Error("IsTransport should match")
	}
	if !ShouldRetry(err) {
		t.Error("transport errors are retryable")
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable")
	}
}

func TestProtocolError(t *testing.T) {
	err := NewProtocolError("g1", "", 3, nil)
	if err.Error() != "malformed frame" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsProtocol(err) {
		t.Error("IsProtocol should match")
	}
	if ShouldRetry(err) {
		t.Error("protocol errors are not retryable")
	}
	if GetCategory(err.Code()) != CategoryProtocol {
		t.Errorf("unexpected category %q", GetCategory(err.Code()))
	}
}

func TestClosedError(t *testing.T) {
	err := NewClosedError("multiplexer")
	if err.Error() != "multiplexer is closed" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsClosed(err) || !errors.Is(err, ErrClosed) {
		t.Error("IsClosed should match")
	}
}

func TestCodeSurvivesWrapping(t *testing.T) {
	base := NewProtocolError("g1", "missing type", 2, nil)
	wrapped := fmt.Errorf("dropping frame: %w", base)

	if GetErrorCode(wrapped) != CodeProtocol {
		t.Errorf("expected %s, got %s", CodeProtocol, GetErrorCode(wrapped))
	}
	if !IsProtocol(wrapped) {
		t.Error("wrapped error should still match IsProtocol")
	}
	if GetErrorMessage(wrapped) != "missing type" {
		t.Errorf("unexpected message %q", GetErrorMessage(wrapped))
	}
}

func TestShouldRetry(t *testing.T) {
	reset := fmt.Errorf("connection reset")
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transport", NewTransportError("g1", "read", reset), true},
		{"wrapped transport", fmt.Errorf("lost: %w", NewTransportError("g1", "read", reset)), true},
		{"rejected credential", NewUnauthenticatedError("server", NewTransportError("g1", "read", reset)), false},
		{"protocol", NewProtocolError("g1", "", 1, nil), false},
		{"closed", NewClosedError("channel g1"), false},
		{"plain", reset, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err); got != tt.want {
				t.Errorf("ShouldRetry = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetErrorCodeFromSentinels(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, CodeOK},
		{fmt.Errorf("x: %w", ErrUnauthenticated), CodeUnauthenticated},
		{fmt.Errorf("x: %w", ErrInvalidInput), CodeInvalidArgument},
		{fmt.Errorf("x: %w", ErrNotConnected), CodeTransport},
		{fmt.Errorf("x: %w", ErrClosed), CodeClosed},
		{fmt.Errorf("plain"), CodeInternal},
	}
	for _, tt := range tests {
		if got := GetErrorCode(tt.err); got != tt.want {
			t.Errorf("GetErrorCode(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestCause(t *testing.T) {
	root := fmt.Errorf("root")
	err := NewUnauthenticatedError("server", NewTransportError("g1", "read", root))
	if Cause(err) != root {
		t.Errorf("expected root cause, got %v", Cause(err))
	}
	if !IsTransport(err) || !IsUnauthenticated(err) {
		t.Error("both layers should match")
	}
}

func TestStackCaptured(t *testing.T) {
	err := NewClosedError("multiplexer")
	if len(err.Stack()) == 0 {
		t.Error("expected a captured stack")
	}
}
