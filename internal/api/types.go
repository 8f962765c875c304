package api

import (
	"errors"

	"github.com/information-sharing-networks/dcs-checker/internal/crypto"
	"github.com/information-sharing-networks/dcs-checker/internal/envelope"
)

// ThumbprintCheckRequest is the body of POST /v1/thumbprints/check
type ThumbprintCheckRequest struct {
	SHA1Thumbprint   string `json:"sha1Thumbprint"`
	SHA256Thumbprint string `json:"sha256Thumbprint"`

	// Certificate selects the certificate to check against: "signing" (default) or "encryption"
	Certificate string `json:"certificate,omitempty"`
}

// JWSVerifyRequest is the body of POST /v1/jws/verify
type JWSVerifyRequest struct {
	JWS     string `json:"jws"`
	Payload string `json:"payload,omitempty"`
}

// JWEVerifyRequest is the body of POST /v1/jwe/verify
type JWEVerifyRequest struct {
	JWE     string `json:"jwe"`
	Payload string `json:"payload,omitempty"`
}

// EnvelopeVerifyRequest is the body of POST /v1/envelopes/verify
type EnvelopeVerifyRequest struct {
	JOSE    string `json:"jose"`
	Payload string `json:"payload,omitempty"`
}

// CheckResponse is the outcome of a check.
type CheckResponse struct {
	// CheckID identifies the check in the server logs
	CheckID string `json:"checkId"`

	Valid bool `json:"valid"`

	// Payload is the extracted payload, only set when the check passed
	Payload string `json:"payload,omitempty"`

	// Messages are the progress messages of the checks that passed
	Messages []string `json:"messages"`

	// Stage is the envelope stage that failed (envelope checks only)
	Stage string `json:"stage,omitempty"`

	Errors []CheckError `json:"errors"`
}

// CheckError is one problem found by a check.
// A header failure produces one CheckError per failed claim.
type CheckError struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Property string   `json:"property,omitempty"`
	Expected string   `json:"expected,omitempty"`
	Actual   string   `json:"actual,omitempty"`
	Hints    []string `json:"hints,omitempty"`
}

// NewCheckResponse builds the response for a check with the given messages, payload and error.
func NewCheckResponse(checkID string, messages []string, payload string, err error) *CheckResponse {
	resp := &CheckResponse{
		CheckID:  checkID,
		Valid:    err == nil,
		Messages: messages,
		Errors:   []CheckError{},
	}
	if resp.Messages == nil {
		resp.Messages = []string{}
	}

	if err == nil {
		resp.Payload = payload
		return resp
	}

	var stageErr *envelope.StageError
	if errors.As(err, &stageErr) {
		resp.Stage = string(stageErr.Stage)
		err = stageErr.Err
	}

	resp.Errors = checkErrors(err)
	return resp
}

// checkErrors splits an error from the crypto package into its reportable problems.
func checkErrors(err error) []CheckError {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []CheckError
		for _, e := range joined.Unwrap() {
			out = append(out, checkErrors(e)...)
		}
		return out
	}

	code := crypto.ErrCodeInternal
	var cryptoErr crypto.Error
	if errors.As(err, &cryptoErr) {
		code = cryptoErr.Code()
	}

	var headerErrors crypto.HeaderErrors
	if errors.As(err, &headerErrors) {
		out := make([]CheckError, 0, len(headerErrors))
		for _, check := range headerErrors {
			out = append(out, CheckError{
				Code:     string(code),
				Message:  check.String(),
				Property: check.Name,
				Expected: check.Expected,
				Actual:   check.Actual,
				Hints:    check.Hints,
			})
		}
		return out
	}

	checkErr := CheckError{Code: string(code), Message: err.Error()}

	var ce *crypto.CryptoError
	if errors.As(err, &ce) && ce.Hint() != "" {
		checkErr.Hints = []string{ce.Hint()}
	}

	var mismatch *crypto.ThumbprintMismatchError
	if errors.As(err, &mismatch) {
		checkErr.Hints = mismatch.Hints
	}

	var payloadMismatch *crypto.PayloadMismatchError
	if errors.As(err, &payloadMismatch) {
		checkErr.Expected = payloadMismatch.Expected
		checkErr.Actual = payloadMismatch.Actual
	}

	return []CheckError{checkErr}
}
