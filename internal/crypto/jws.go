// jws.go - checks a JWS (JSON Web Signature) produced by a DCS client.
//
// The DCS requires compact serialization, an RS256 signature made with the key of the client signing
// certificate, and x5t/x5t#S256 headers identifying that certificate.
// Signature verification uses github.com/lestrrat-go/jwx/v3.
package crypto

import (
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"log/slog"

	"github.com/lestrrat-go/jwx/v3/jws"
)

// progress messages reported on success
const (
	MessageSignatureValid = "Successfully validated signature"
	MessageDecrypted      = "Successfully decrypted"
	MessageHeadersCorrect = "All required headers are correct"
	MessagePayloadMatches = "Supplied payload matches extracted payload."
)

const signingCertificateHint = "Check that the signing certificate provided matches the key used to sign the JWS"

// VerifyOptions control how a JWS or JWE is checked.
type VerifyOptions struct {
	// Profile holds the required header values. The zero value is replaced by DCSProfile.
	Profile Profile

	// ExpectedPayload is compared with the extracted payload when it is not empty.
	// When it is empty the extracted payload is reported instead.
	ExpectedPayload string

	// PayloadComparison selects exact or canonical JSON comparison (default exact).
	PayloadComparison PayloadComparison
}

func (o VerifyOptions) profile() Profile {
	if o.Profile == (Profile{}) {
		return DCSProfile
	}
	return o.Profile
}

// Result is the outcome of a check.
// When a check fails after the cryptographic step the partial result is returned with the error,
// so the progress made before the failure can still be reported.
type Result struct {
	// Payload is the extracted payload text
	Payload string

	// Header is the protected header of the checked object
	Header Header

	// Messages are the human readable progress messages, in the order the checks ran
	Messages []string
}

// Progress returns the progress messages, or nil for a nil result.
func (r *Result) Progress() []string {
	if r == nil {
		return nil
	}
	return r.Messages
}

func (r *Result) addMessage(msg string) {
	r.Messages = append(r.Messages, msg)
}

// VerifyJWS checks a compact JWS against the client signing certificate.
//
// The checks run in order and the first failure is returned:
//  1. the JWS has exactly 3 segments
//  2. the signature verifies with the certificate's public key
//  3. the alg, x5t and x5t#S256 headers have the required values (all reported together as HeaderErrors)
//  4. the payload equals opts.ExpectedPayload, if one was supplied
//
// On success the extracted payload is returned in the result.
// A header or payload failure returns the partial result along with the error.
// The candidate is checked byte for byte: surrounding whitespace is a structure error.
func VerifyJWS(cert *x509.Certificate, compactJWS string, opts VerifyOptions) (*Result, error) {
	if cert == nil {
		return nil, NewValidationError("signing certificate is required")
	}
	if err := checkCandidate(compactJWS, "JWS"); err != nil {
		return nil, err
	}

	profile := opts.profile()

	// Step 1: structure
	if err := checkSegments(compactJWS, "JWS", jwsSegmentCount); err != nil {
		return nil, err
	}

	header, err := ParseHeader(compactJWS)
	if err != nil {
		return nil, err
	}

	// Step 2: signature
	publicKey, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, NewCertificateError(fmt.Sprintf("signing certificate contains %T key, but expected *rsa.PublicKey", cert.PublicKey))
	}

	alg, ok := profile.verificationAlgorithm(header.Get(HeaderAlgorithm))
	if !ok {
		return nil, NewValidationError(fmt.Sprintf("profile %q signature algorithm %q is not supported", profile.Name, profile.SignatureAlgorithm))
	}

	slog.Debug("verifying JWS signature",
		slog.String("alg", alg.String()),
		slog.String("profile", profile.Name))

	required := append([]requiredHeader{
		{name: HeaderAlgorithm, value: profile.SignatureAlgorithm},
	}, thumbprintHeaders(GenerateThumbprints(cert))...)

	payload, err := jws.Verify([]byte(compactJWS), jws.WithKey(alg, publicKey))
	if err != nil {
		// jwx rejects headers with mistyped claims or an alg it does not know before checking the signature
		_, parseErr := jws.Parse([]byte(compactJWS))
		_, knownAlg := signatureAlgorithms[header.Get(HeaderAlgorithm)]
		if readErr := unreadableHeaderError(parseErr, !knownAlg, header, required, "JWS"); readErr != nil {
			return nil, readErr
		}
		return nil, WrapSignatureError(err, "Signature validation failed", signingCertificateHint)
	}

	result := &Result{Header: header}
	result.addMessage(MessageSignatureValid)

	// Step 3: headers
	if headerErrors := checkHeaders(header, required); len(headerErrors) > 0 {
		return result, WrapHeaderError(headerErrors, "JWS header validation failed")
	}
	result.addMessage(MessageHeadersCorrect)

	// Step 4: payload
	if err := checkPayload(result, string(payload), opts); err != nil {
		return result, err
	}

	return result, nil
}

// checkPayload sets the result payload and compares it with the expected payload, if any.
func checkPayload(result *Result, payload string, opts VerifyOptions) error {
	result.Payload = payload

	if opts.ExpectedPayload == "" {
		result.addMessage(fmt.Sprintf("Payload: '%s'", payload))
		return nil
	}

	if err := comparePayload(opts.ExpectedPayload, payload, opts.PayloadComparison); err != nil {
		return WrapPayloadError(err, "payload check failed")
	}
	result.addMessage(MessagePayloadMatches)
	return nil
}
