package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Discovery errors
const (
	// ErrCodeConfiguration indicates invalid or missing discovery configuration.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeFetch indicates the pod inventory could not be fetched after all attempts.
	ErrCodeFetch ErrorCode = "FETCH_ERROR"
	// ErrCodeParse indicates the pod inventory payload could not be decoded.
	ErrCodeParse ErrorCode = "PARSE_ERROR"
	// ErrCodeDispatch indicates a discovery request to a single peer failed.
	ErrCodeDispatch ErrorCode = "DISPATCH_ERROR"
)

// Transport errors (retryable)
const (
	// ErrCodeConnectionFailed indicates a failed connection to the orchestration API.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeUnexpectedStatus indicates the API answered with a non-success status.
	ErrCodeUnexpectedStatus ErrorCode = "UNEXPECTED_STATUS"
)

// Internal errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeFetch:            true,
	ErrCodeConnectionFailed: true,
	ErrCodeTimeout:          true,
	ErrCodeUnexpectedStatus: true,
	ErrCodeDispatch:         true,
	ErrCodeInternal:         false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
