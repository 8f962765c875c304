package api

// error_response.go maps request level errors to the error response returned to the client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/information-sharing-networks/dcs-checker/internal/logger"
)

// ErrorResponse is returned when a request could not be checked
type ErrorResponse struct {

	// The HTTP method used to make the request e.g. GET, POST, etc
	HTTPMethod string `json:"httpMethod"`

	// The URI that was requested
	RequestURI string `json:"requestUri"`

	// The HTTP status code returned
	StatusCode int `json:"statusCode"`

	// A standard short description corresponding to the HTTP status code
	StatusCodeText string `json:"statusCodeText"`

	// A long description corresponding to the HTTP status code with additional information
	StatusCodeMessage string `json:"statusCodeMessage,omitempty"`

	// A unique identifier to the HTTP request
	ProviderCorrelationReference string `json:"providerCorrelationReference,omitempty"`

	// The DateTime corresponding to the error occurring
	ErrorDateTime string `json:"errorDateTime"`

	// An array of errors providing more detail about the root cause
	Errors []DetailedError `json:"errors"`
}

// DetailedError is one cause in an ErrorResponse
type DetailedError struct {
	ErrorCode        ErrorCode `json:"errorCode"`
	ErrorCodeText    string    `json:"errorCodeText"`
	ErrorCodeMessage string    `json:"errorCodeMessage"`
}

// MapErrorToResponse maps an error to an ErrorResponse and the HTTP status code to send it with.
//
// Errors that are not an *ApiError are reported as internal errors; their detail is logged, not returned.
func MapErrorToResponse(err error, r *http.Request) *ErrorResponse {
	requestID := middleware.GetReqID(r.Context())

	var apiErr *ApiError
	if !errors.As(err, &apiErr) {
		reqLogger := logger.ContextRequestLogger(r.Context())
		reqLogger.Error("BUG: Unmapped error type in MapErrorToResponse",
			slog.String("error_type", fmt.Sprintf("%T", err)),
			slog.String("error", err.Error()),
			slog.String("request_id", requestID),
		)
		apiErr = &ApiError{code: ErrCodeInternalError, message: "An internal error occurred"}
	}

	var statusCode int
	var errorCodeText string

	switch apiErr.Code() {
	case ErrCodeMalformedRequest:
		statusCode = http.StatusBadRequest
		errorCodeText = "Malformed request"
	case ErrCodeKeyNotConfigured:
		statusCode = http.StatusServiceUnavailable
		errorCodeText = "Key material not configured"
	case ErrCodeRateLimitExceeded:
		statusCode = http.StatusTooManyRequests
		errorCodeText = "Rate limit exceeded"
	case ErrCodeRequestTooLarge:
		statusCode = http.StatusRequestEntityTooLarge
		errorCodeText = "Request too large"
	default:
		statusCode = http.StatusInternalServerError
		errorCodeText = "Internal Error"
	}

	message := apiErr.Error()
	if statusCode == http.StatusInternalServerError {
		message = "An internal error occurred"
	}

	return &ErrorResponse{
		HTTPMethod:                   r.Method,
		RequestURI:                   r.RequestURI,
		StatusCode:                   statusCode,
		StatusCodeText:               http.StatusText(statusCode),
		StatusCodeMessage:            errorCodeText,
		ProviderCorrelationReference: requestID,
		ErrorDateTime:                time.Now().UTC().Format(time.RFC3339),
		Errors: []DetailedError{
			{
				ErrorCode:        apiErr.Code(),
				ErrorCodeText:    errorCodeText,
				ErrorCodeMessage: message,
			},
		},
	}
}
