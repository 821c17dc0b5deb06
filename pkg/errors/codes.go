package errors

// Error codes for categorizing errors.
const (
	// CodeOK indicates success (not an error).
	CodeOK = "OK"

	// CodeInvalidArgument indicates the caller passed an unusable argument,
	// such as an empty channel key.
	CodeInvalidArgument = "INVALID_ARGUMENT"

	// CodeValidation indicates configuration or input validation failed.
	CodeValidation = "VALIDATION_ERROR"

	// CodeUnauthenticated indicates no usable credential was available.
	CodeUnauthenticated = "UNAUTHENTICATED"

	// CodeTransport indicates the persistent connection failed to open or broke.
	CodeTransport = "TRANSPORT_ERROR"

	// CodeProtocol indicates an inbound frame could not be decoded.
	CodeProtocol = "PROTOCOL_ERROR"

	// CodeClosed indicates the component was already shut down.
	CodeClosed = "CLOSED"

	// CodeInternal indicates internal errors.
	CodeInternal = "INTERNAL"
)

// ErrorCategory groups codes by how the multiplexer reacts to them.
type ErrorCategory string

const (
	// CategorySetup covers failures before a channel exists: the key goes dormant.
	CategorySetup ErrorCategory = "SETUP"

	// CategoryTransport covers failures of an established or opening channel.
	CategoryTransport ErrorCategory = "TRANSPORT"

	// CategoryProtocol covers per-frame decoding failures: the frame is dropped.
	CategoryProtocol ErrorCategory = "PROTOCOL"

	// CategoryMisuse covers contract violations by the caller.
	CategoryMisuse ErrorCategory = "MISUSE"

	// CategoryInternal covers everything else.
	CategoryInternal ErrorCategory = "INTERNAL"
)

// GetCategory returns the category for an error code.
func GetCategory(code string) ErrorCategory {
	switch code {
	case CodeUnauthenticated:
		return CategorySetup
	case CodeTransport:
		return CategoryTransport
	case CodeProtocol:
		return CategoryProtocol
	case CodeInvalidArgument, CodeValidation, CodeClosed:
		return CategoryMisuse
	default:
		return CategoryInternal
	}
}

// IsRetryable returns true if an error with the given code may succeed when retried
// without the caller changing anything.
func IsRetryable(code string) bool {
	return code == CodeTransport
}
