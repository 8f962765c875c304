// this file generates and checks the certificate thumbprints used in the x5t and x5t#S256 headers.
//
// A thumbprint is the hash of the DER encoded certificate, base64url encoded without padding (RFC 7515 4.1.7, 4.1.8).
// The DCS compares thumbprints byte for byte, so a value in standard base64 or with padding is rejected.

package crypto

import (
	"crypto/sha1" // #nosec G505 -- x5t is defined as a SHA-1 thumbprint
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"
)

// MessageThumbprintsCorrect is reported when both candidate thumbprints match.
const MessageThumbprintsCorrect = "Success - thumbprints are correct"

const (
	alphabetHint = "Thumbprint is Base64 encoded. Use Base64url encoding or url encode the Base64."
	paddingHint  = "Thumbprint contains padding ('='). Remove padding from the Base64 encoding."
)

// ThumbprintPair holds the x5t (SHA-1) and x5t#S256 (SHA-256) thumbprints of a certificate.
type ThumbprintPair struct {
	SHA1   string `json:"sha1"`
	SHA256 string `json:"sha256"`
}

// GenerateThumbprints returns the SHA-1 and SHA-256 thumbprints of the certificate.
// The result depends only on the certificate's DER bytes.
func GenerateThumbprints(cert *x509.Certificate) ThumbprintPair {
	sha1Sum := sha1.Sum(cert.Raw) // #nosec G401
	sha256Sum := sha256.Sum256(cert.Raw)

	return ThumbprintPair{
		SHA1:   base64.RawURLEncoding.EncodeToString(sha1Sum[:]),
		SHA256: base64.RawURLEncoding.EncodeToString(sha256Sum[:]),
	}
}

// EncodingHints returns advice for thumbprint values that use the wrong base64 variant.
//
// The alphabet hint is returned when the value contains '+' or '/' (standard base64)
// and the padding hint when it contains '='. The two are independent.
func EncodingHints(value string) []string {
	var hints []string
	if strings.ContainsAny(value, "+/") {
		hints = append(hints, alphabetHint)
	}
	if strings.Contains(value, "=") {
		hints = append(hints, paddingHint)
	}
	return hints
}

// ThumbprintMismatchError reports candidate thumbprints that differ from the certificate's.
type ThumbprintMismatchError struct {
	Expected ThumbprintPair
	Actual   ThumbprintPair

	// Hints lists encoding advice for the SHA-1 candidate followed by the SHA-256 candidate
	Hints []string
}

func (e *ThumbprintMismatchError) Error() string {
	var b strings.Builder
	b.WriteString("Thumbprints don't match")
	for _, hint := range e.Hints {
		fmt.Fprintf(&b, "\n%s", hint)
	}
	fmt.Fprintf(&b, "\n  SHA1 - Expected '%s', was '%s'", e.Expected.SHA1, e.Actual.SHA1)
	fmt.Fprintf(&b, "\n  SHA256 - Expected '%s', was '%s'", e.Expected.SHA256, e.Actual.SHA256)
	return b.String()
}

// CheckThumbprints compares user supplied thumbprints with the ones generated from the certificate.
//
// Both values must match exactly (case sensitive, no normalisation).
// On mismatch the returned error wraps a *ThumbprintMismatchError carrying the expected and actual values
// and any encoding hints for the candidates.
func CheckThumbprints(cert *x509.Certificate, sha1Thumbprint, sha256Thumbprint string) error {
	if cert == nil {
		return NewValidationError("certificate is required")
	}

	expected := GenerateThumbprints(cert)
	actual := ThumbprintPair{SHA1: sha1Thumbprint, SHA256: sha256Thumbprint}

	if expected == actual {
		return nil
	}

	mismatch := &ThumbprintMismatchError{
		Expected: expected,
		Actual:   actual,
	}
	mismatch.Hints = append(mismatch.Hints, EncodingHints(actual.SHA1)...)
	mismatch.Hints = append(mismatch.Hints, EncodingHints(actual.SHA256)...)

	return WrapThumbprintError(mismatch, "thumbprint check failed")
}
