package errors

import "errors"

// IsValidation checks if an error is a caller validation error.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}

	var validationErr *ValidationError
	return errors.As(err, &validationErr) || errors.Is(err, ErrInvalidInput)
}

// IsUnauthenticated checks if an error indicates a missing credential.
func IsUnauthenticated(err error) bool {
	if err == nil {
		return false
	}

	var unauthErr *UnauthenticatedError
	return errors.As(err, &unauthErr) || errors.Is(err, ErrUnauthenticated)
}

// IsTransport checks if an error came from the connection layer.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}

	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// IsProtocol checks if an error reports a malformed frame.
func IsProtocol(err error) bool {
	if err == nil {
		return false
	}

	var protocolErr *ProtocolError
	return errors.As(err, &protocolErr)
}

// IsClosed checks if an error reports use after shutdown.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}

	var closedErr *ClosedError
	return errors.As(err, &closedErr) || errors.Is(err, ErrClosed)
}

// ShouldRetry checks if an operation should be retried based on the error.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	return IsRetryable(GetErrorCode(err))
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	if err == nil {
		return CodeOK
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Code()
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidArgument
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrClosed):
		return CodeClosed
	case errors.Is(err, ErrNotConnected):
		return CodeTransport
	default:
		return CodeInternal
	}
}

// GetErrorMessage extracts a human-readable message from an error.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Message()
	}

	return err.Error()
}

// Cause returns the root cause of an error chain.
func Cause(err error) error {
	for {
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		underlying := unwrapper.Unwrap()
		if underlying == nil {
			return err
		}
		err = underlying
	}
}
