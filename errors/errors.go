package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Discovery Error Constructors ---

// Configuration creates a new AppError for a configuration problem detected at initialization.
func Configuration(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeConfiguration, Message: fmt.Sprintf("Invalid configuration: %s", reason),
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Details: details,
	}
}

// Fetch creates a new AppError for a pod inventory fetch that failed after all attempts.
func Fetch(url string, attempts int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeFetch, Message: fmt.Sprintf("Failed to fetch %s after %d attempt(s)", url, attempts),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"url": url, "attempts": attempts}, Cause: cause,
	}
}

// Parse creates a new AppError for a pod inventory payload that could not be decoded.
func Parse(cause error) *AppError {
	return &AppError{
		Code: ErrCodeParse, Message: "Pod inventory payload is malformed.",
		HTTPStatus: http.StatusBadGateway, Retryable: false, Cause: cause,
	}
}

// Dispatch creates a new AppError for a failed discovery request to one peer.
func Dispatch(peer string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDispatch, Message: fmt.Sprintf("Discovery request to %s failed", peer),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"peer": peer}, Cause: cause,
	}
}

// ConnectionFailed creates a new AppError for a failed connection to the orchestration API.
func ConnectionFailed(target string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("Unable to connect to %s.", target),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"target": target}, Cause: cause,
	}
}

// Timeout creates a new AppError for a request that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// UnexpectedStatus creates a new AppError for a non-success HTTP answer.
func UnexpectedStatus(status int, body string) *AppError {
	details := map[string]any{"status": status}
	if body != "" {
		details["body"] = body
	}
	return &AppError{
		Code: ErrCodeUnexpectedStatus, Message: fmt.Sprintf("Unexpected HTTP status %d", status),
		HTTPStatus: http.StatusBadGateway, Retryable: true, Details: details,
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource string) *AppError {
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"resource": resource},
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// --- Kind checks ---

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return HasCode(err, ErrCodeConfiguration) }

// IsFetch reports whether err is a fetch error.
func IsFetch(err error) bool { return HasCode(err, ErrCodeFetch) }

// IsParse reports whether err is a parse error.
func IsParse(err error) bool { return HasCode(err, ErrCodeParse) }

// IsDispatch reports whether err is a dispatch error.
func IsDispatch(err error) bool { return HasCode(err, ErrCodeDispatch) }
