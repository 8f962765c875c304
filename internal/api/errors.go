package api

// errors.go defines the errors returned when a request cannot be checked

import "fmt"

// ApiError represents a request level failure.
type ApiError struct {
	// code is the API error code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *ApiError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *ApiError) Code() ErrorCode { return e.code }
func (e *ApiError) Unwrap() error   { return e.wrapped }

// ErrorCode is used in error responses.
// 7000-7999 are technical errors: the request could not be processed.
type ErrorCode int

const (
	// ErrCodeInternalError is used when an internal server error occurs
	ErrCodeInternalError ErrorCode = 7005

	// ErrCodeMalformedRequest is used when JSON parsing fails or a required field is missing
	ErrCodeMalformedRequest ErrorCode = 7006

	// ErrCodeKeyNotConfigured is used when the key material a check needs was not loaded
	ErrCodeKeyNotConfigured ErrorCode = 7007

	// ErrCodeRateLimitExceeded is used when the rate limit is exceeded
	// - this is only used in the middleware
	ErrCodeRateLimitExceeded ErrorCode = 7009

	// ErrCodeRequestTooLarge is used when the request body is too large
	ErrCodeRequestTooLarge ErrorCode = 7010
)

// NewMalformedRequestError creates an error for malformed requests.
func NewMalformedRequestError(msg string) error {
	return &ApiError{code: ErrCodeMalformedRequest, message: msg}
}

// WrapMalformedRequestError wraps an existing error as a malformed request error.
func WrapMalformedRequestError(err error, msg string) error {
	return &ApiError{code: ErrCodeMalformedRequest, message: msg, wrapped: err}
}

// NewKeyNotConfiguredError creates an error for a check whose key material is not configured on the server.
func NewKeyNotConfiguredError(msg string) error {
	return &ApiError{code: ErrCodeKeyNotConfigured, message: msg}
}

// NewRateLimitError creates an error for rate limited requests.
func NewRateLimitError(msg string) error {
	return &ApiError{code: ErrCodeRateLimitExceeded, message: msg}
}

// NewRequestTooLargeError creates an error for request bodies over the size limit.
func NewRequestTooLargeError(msg string) error {
	return &ApiError{code: ErrCodeRequestTooLarge, message: msg}
}

// NewInternalError creates an internal error.
func NewInternalError(msg string) error {
	return &ApiError{code: ErrCodeInternalError, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
func WrapInternalError(err error, msg string) error {
	return &ApiError{code: ErrCodeInternalError, message: msg, wrapped: err}
}
