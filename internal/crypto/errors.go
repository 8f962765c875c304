package crypto

import (
	"fmt"
	"strings"
)

// Error represents a structured error from the crypto package
type Error interface {
	error
	Code() ErrorCode
	Unwrap() error
}

type ErrorCode string

const (
	ErrCodeValidation       ErrorCode = "validation"
	ErrCodeStructure        ErrorCode = "structure"
	ErrCodeInvalidSignature ErrorCode = "invalid_signature"
	ErrCodeDecryption       ErrorCode = "decryption"
	ErrCodeHeader           ErrorCode = "header"
	ErrCodePayload          ErrorCode = "payload"
	ErrCodeThumbprint       ErrorCode = "thumbprint"
	ErrCodeCertificate      ErrorCode = "certificate"
	ErrCodeKeyManagement    ErrorCode = "key_management"
	ErrCodeInternal         ErrorCode = "internal"
)

// CryptoError represents a structured error from the crypto package
type CryptoError struct {

	// code is the cryptoerror code
	code ErrorCode

	// message is a human-readable error message
	message string

	// hint is an optional suggestion printed after the message
	hint string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *CryptoError) Error() string {
	var b strings.Builder
	b.WriteString(e.message)
	if e.hint != "" {
		b.WriteString(". ")
		b.WriteString(e.hint)
	}
	if e.wrapped != nil {
		// multi-line diagnostics (header errors, payload mismatches) read better on their own lines
		if strings.Contains(e.wrapped.Error(), "\n") {
			fmt.Fprintf(&b, "\n%v", e.wrapped)
		} else {
			fmt.Fprintf(&b, ": %v", e.wrapped)
		}
	}
	return b.String()
}

func (e *CryptoError) Code() ErrorCode { return e.code }
func (e *CryptoError) Unwrap() error   { return e.wrapped }

// Hint returns the remediation hint attached to the error, if any.
func (e *CryptoError) Hint() string { return e.hint }

// NewValidationError creates a validation error for invalid input.
// Use this for missing required arguments, empty candidates or unusable options.
//
// The returned error will have code ErrCodeValidation.
func NewValidationError(msg string) error {
	return &CryptoError{code: ErrCodeValidation, message: msg}
}

// WrapValidationError wraps an existing error as a validation error.
//
// The returned error will have code ErrCodeValidation.
func WrapValidationError(err error, msg string) error {
	return &CryptoError{code: ErrCodeValidation, message: msg, wrapped: err}
}

// NewStructureError creates an error for a compact serialization with the wrong shape.
// Use this for wrong segment counts or header segments that cannot be decoded.
//
// The returned error will have code ErrCodeStructure.
func NewStructureError(msg string) error {
	return &CryptoError{code: ErrCodeStructure, message: msg}
}

// WrapStructureError wraps an existing error as a structure error.
//
// The returned error will have code ErrCodeStructure.
func WrapStructureError(err error, msg string) error {
	return &CryptoError{code: ErrCodeStructure, message: msg, wrapped: err}
}

// WrapSignatureError wraps an existing error as a signature error.
// Use this for errors related to signature verification failures or malformed signatures.
//
// The returned error will have code ErrCodeInvalidSignature.
func WrapSignatureError(err error, msg, hint string) error {
	return &CryptoError{code: ErrCodeInvalidSignature, message: msg, hint: hint, wrapped: err}
}

// WrapDecryptionError wraps an existing error as a decryption error.
// Use this for key mismatches and malformed ciphertext, IV or tag segments.
//
// The returned error will have code ErrCodeDecryption.
func WrapDecryptionError(err error, msg, hint string) error {
	return &CryptoError{code: ErrCodeDecryption, message: msg, hint: hint, wrapped: err}
}

// WrapHeaderError wraps the accumulated header check failures.
//
// The returned error will have code ErrCodeHeader.
func WrapHeaderError(err error, msg string) error {
	return &CryptoError{code: ErrCodeHeader, message: msg, wrapped: err}
}

// WrapPayloadError wraps a payload mismatch.
//
// The returned error will have code ErrCodePayload.
func WrapPayloadError(err error, msg string) error {
	return &CryptoError{code: ErrCodePayload, message: msg, wrapped: err}
}

// WrapThumbprintError wraps a thumbprint mismatch.
//
// The returned error will have code ErrCodeThumbprint.
func WrapThumbprintError(err error, msg string) error {
	return &CryptoError{code: ErrCodeThumbprint, message: msg, wrapped: err}
}

// NewCertificateError creates a certificate error.
// Use this for certificates that cannot be parsed or that carry an unsupported key type.
//
// The returned error will have code ErrCodeCertificate.
func NewCertificateError(msg string) error {
	return &CryptoError{code: ErrCodeCertificate, message: msg}
}

// WrapCertificateError wraps an existing error as a certificate error.
//
// The returned error will have code ErrCodeCertificate.
func WrapCertificateError(err error, msg string) error {
	return &CryptoError{code: ErrCodeCertificate, message: msg, wrapped: err}
}

// NewKeyManagementError creates a key management error.
// Use this for errors related to key loading, invalid key format, or JWK parsing failures.
//
// The returned error will have code ErrCodeKeyManagement.
func NewKeyManagementError(msg string) error {
	return &CryptoError{code: ErrCodeKeyManagement, message: msg}
}

// WrapKeyManagementError wraps an existing error as a key management error.
//
// The returned error will have code ErrCodeKeyManagement.
func WrapKeyManagementError(err error, msg string) error {
	return &CryptoError{code: ErrCodeKeyManagement, message: msg, wrapped: err}
}

// NewInternalError creates an internal error for unexpected failures.
//
// The returned error will have code ErrCodeInternal.
func NewInternalError(msg string) error {
	return &CryptoError{code: ErrCodeInternal, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
// Use this for errors related to crypto library failures, unexpected nil values,
// or system errors that should not normally occur.
//
// The returned error will have code ErrCodeInternal.
func WrapInternalError(err error, msg string) error {
	return &CryptoError{code: ErrCodeInternal, message: msg, wrapped: err}
}
