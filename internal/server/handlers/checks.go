package handlers

// checks.go - the conformance check endpoints.
//
// Each request gets a check ID (a random UUID) that is returned in the response and added to the request log,
// so a user reporting a problem can quote it. Payloads, JOSE objects and key material are never logged.

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/information-sharing-networks/dcs-checker/internal/api"
	"github.com/information-sharing-networks/dcs-checker/internal/crypto"
	"github.com/information-sharing-networks/dcs-checker/internal/envelope"
	"github.com/information-sharing-networks/dcs-checker/internal/logger"
	"github.com/information-sharing-networks/dcs-checker/internal/metrics"
)

// Checker holds the key material and settings the checks are run with.
// It is loaded once at start up and only read afterwards, so it is safe for concurrent requests.
type Checker struct {
	// SigningCertificate is the client signing certificate
	SigningCertificate *x509.Certificate

	// EncryptionCertificate is the DCS encryption certificate; nil = SigningCertificate
	EncryptionCertificate *x509.Certificate

	// EncryptionKey is the DCS encryption private key
	EncryptionKey *rsa.PrivateKey

	Profile    crypto.Profile
	Comparison crypto.PayloadComparison

	// Metrics counts check outcomes; nil disables them
	Metrics *metrics.Metrics
}

func (c *Checker) encryptionCertificate() *x509.Certificate {
	if c.EncryptionCertificate != nil {
		return c.EncryptionCertificate
	}
	return c.SigningCertificate
}

func (c *Checker) options(expectedPayload string) crypto.VerifyOptions {
	return crypto.VerifyOptions{
		Profile:           c.Profile,
		ExpectedPayload:   expectedPayload,
		PayloadComparison: c.Comparison,
	}
}

// decodeRequest decodes a JSON request body into dst.
func decodeRequest(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return api.NewRequestTooLargeError(fmt.Sprintf("Request body exceeds maximum allowed size (%d bytes)", maxBytesErr.Limit))
		}
		return api.WrapMalformedRequestError(err, "failed to decode request body")
	}
	return nil
}

// respond sends the check response and records the outcome in the request log and metrics.
func (c *Checker) respond(w http.ResponseWriter, r *http.Request, checkID uuid.UUID, check string, messages []string, payload string, err error) {
	resp := api.NewCheckResponse(checkID.String(), messages, payload, err)

	attrs := []slog.Attr{
		slog.String("check_id", resp.CheckID),
		slog.String("check", check),
		slog.Bool("valid", resp.Valid),
	}
	if resp.Stage != "" {
		attrs = append(attrs, slog.String("failed_stage", resp.Stage))
	}
	var errorCode string
	if len(resp.Errors) > 0 {
		errorCode = resp.Errors[0].Code
		attrs = append(attrs, slog.String("error_code", errorCode))
	}
	logger.ContextWithLogAttrs(r.Context(), attrs...)
	c.Metrics.RecordCheck(check, resp.Valid, resp.Stage, errorCode)

	api.RespondWithJSONPayload(w, http.StatusOK, resp)
}

// HandleThumbprintCheck checks candidate x5t and x5t#S256 values against the signing
// (default) or encryption certificate.
func (c *Checker) HandleThumbprintCheck(w http.ResponseWriter, r *http.Request) {
	var req api.ThumbprintCheckRequest
	if err := decodeRequest(r, &req); err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return
	}

	var cert *x509.Certificate
	switch req.Certificate {
	case "", "signing":
		cert = c.SigningCertificate
	case "encryption":
		cert = c.encryptionCertificate()
	default:
		api.RespondWithErrorResponse(w, r, api.NewMalformedRequestError(
			fmt.Sprintf("certificate must be \"signing\" or \"encryption\", got %q", req.Certificate)))
		return
	}

	err := crypto.CheckThumbprints(cert, req.SHA1Thumbprint, req.SHA256Thumbprint)

	var messages []string
	if err == nil {
		messages = []string{crypto.MessageThumbprintsCorrect}
	}
	c.respond(w, r, uuid.New(), "thumbprint", messages, "", err)
}

// HandleJWSVerify checks a compact JWS against the signing certificate.
func (c *Checker) HandleJWSVerify(w http.ResponseWriter, r *http.Request) {
	var req api.JWSVerifyRequest
	if err := decodeRequest(r, &req); err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return
	}
	req.JWS = strings.TrimSpace(req.JWS)
	if req.JWS == "" {
		api.RespondWithErrorResponse(w, r, api.NewMalformedRequestError("jws is required"))
		return
	}

	result, err := crypto.VerifyJWS(c.SigningCertificate, req.JWS, c.options(req.Payload))
	if err != nil {
		c.respond(w, r, uuid.New(), "signing", result.Progress(), "", err)
		return
	}
	c.respond(w, r, uuid.New(), "signing", result.Messages, result.Payload, nil)
}

// HandleJWEVerify decrypts and checks a compact JWE with the encryption key.
func (c *Checker) HandleJWEVerify(w http.ResponseWriter, r *http.Request) {
	if c.EncryptionKey == nil {
		api.RespondWithErrorResponse(w, r, api.NewKeyNotConfiguredError("no encryption key is configured"))
		return
	}

	var req api.JWEVerifyRequest
	if err := decodeRequest(r, &req); err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return
	}
	req.JWE = strings.TrimSpace(req.JWE)
	if req.JWE == "" {
		api.RespondWithErrorResponse(w, r, api.NewMalformedRequestError("jwe is required"))
		return
	}

	result, err := crypto.VerifyJWE(c.EncryptionKey, c.encryptionCertificate(), req.JWE, c.options(req.Payload))
	if err != nil {
		c.respond(w, r, uuid.New(), "encryption", result.Progress(), "", err)
		return
	}
	c.respond(w, r, uuid.New(), "encryption", result.Messages, result.Payload, nil)
}

// HandleEnvelopeVerify checks a complete outer JWS / JWE / inner JWS request.
func (c *Checker) HandleEnvelopeVerify(w http.ResponseWriter, r *http.Request) {
	if c.EncryptionKey == nil {
		api.RespondWithErrorResponse(w, r, api.NewKeyNotConfiguredError("no encryption key is configured"))
		return
	}

	var req api.EnvelopeVerifyRequest
	if err := decodeRequest(r, &req); err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return
	}
	req.JOSE = strings.TrimSpace(req.JOSE)
	if req.JOSE == "" {
		api.RespondWithErrorResponse(w, r, api.NewMalformedRequestError("jose is required"))
		return
	}

	result, err := envelope.Verify(r.Context(), envelope.Input{
		PrivateKey:            c.EncryptionKey,
		SigningCertificate:    c.SigningCertificate,
		EncryptionCertificate: c.EncryptionCertificate,
		Outer:                 req.JOSE,
		ExpectedPayload:       req.Payload,
		Profile:               c.Profile,
		PayloadComparison:     c.Comparison,
	})

	var messages []string
	var payload string
	if result != nil {
		messages = result.Messages()
		payload = result.Payload
	}
	c.respond(w, r, uuid.New(), "jose", messages, payload, err)
}
