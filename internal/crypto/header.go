package crypto

// header.go - reading and checking the protected header of a compact JWS or JWE.
//
// The header is decoded directly from the first segment rather than taken from the
// jwx parsed message so that claims the library would reject or normalise can still be
// reported back to the user exactly as they were sent.

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jwe"
	"github.com/lestrrat-go/jwx/v3/jws"
)

// header claims checked by the DCS profile
const (
	HeaderAlgorithm         = jws.AlgorithmKey
	HeaderContentEncryption = jwe.ContentEncryptionKey
	HeaderSHA1Thumbprint    = jws.X509CertThumbprintKey
	HeaderSHA256Thumbprint  = jws.X509CertThumbprintS256Key
)

// AbsentHeaderValue is reported in place of a claim that is missing from the header.
const AbsentHeaderValue = "absent"

const (
	jwsSegmentCount         = 3
	jweSegmentCount         = 5
	compactSegmentSeparator = "."
)

// Header is the protected header of a compact serialization.
// Values that are not JSON strings are kept as their raw JSON text.
type Header map[string]string

// Get returns the value of a header claim, or AbsentHeaderValue when the claim is not present.
func (h Header) Get(name string) string {
	v, ok := h[name]
	if !ok {
		return AbsentHeaderValue
	}
	return v
}

// ParseHeader decodes the protected header (first segment) of a compact JWS or JWE without verifying it.
func ParseHeader(compact string) (Header, error) {
	segment, _, _ := strings.Cut(compact, compactSegmentSeparator)
	if segment == "" {
		return nil, NewStructureError("protected header segment is empty")
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return nil, WrapStructureError(err, "failed to decode protected header")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerBytes, &raw); err != nil {
		return nil, WrapStructureError(err, "failed to parse protected header JSON")
	}

	header := make(Header, len(raw))
	for name, value := range raw {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			header[name] = string(value)
			continue
		}
		header[name] = s
	}

	return header, nil
}

// checkCandidate rejects an empty, oversized or whitespace padded compact serialization.
func checkCandidate(compact, kind string) error {
	if compact == "" {
		return NewValidationError(kind + " is empty")
	}
	if len(compact) > MaxCompactSize {
		return NewStructureError(fmt.Sprintf("%s size (%d bytes) exceeds maximum (%d bytes)", kind, len(compact), MaxCompactSize))
	}
	if strings.TrimSpace(compact) != compact {
		return NewStructureError(kind + " has leading or trailing whitespace")
	}
	return nil
}

// unreadableHeaderError attributes a failed signature check or decryption to the header when
// jwx could not parse the message or the declared alg is not one the key can be used with.
// The header claims are then reported the same way as after a successful cryptographic step.
// It returns nil when the failure is cryptographic.
func unreadableHeaderError(parseErr error, unknownAlg bool, header Header, required []requiredHeader, kind string) error {
	if parseErr == nil && !unknownAlg {
		return nil
	}
	if failed := checkHeaders(header, required); len(failed) > 0 {
		return WrapHeaderError(failed, kind+" header validation failed")
	}
	if parseErr != nil {
		return WrapStructureError(parseErr, "failed to parse "+kind+" protected header")
	}
	return nil
}

// checkSegments returns a structure error unless compact has exactly want segments.
func checkSegments(compact, kind string, want int) error {
	delimiters := strings.Count(compact, compactSegmentSeparator)
	if delimiters == want-1 {
		return nil
	}
	return NewStructureError(fmt.Sprintf(
		"%s not in compact form: expected %d segments (%d '.' delimiters), got %d segments (%d '.' delimiters)",
		kind, want, want-1, delimiters+1, delimiters))
}

// HeaderCheck is the outcome of comparing one header claim with its required value.
type HeaderCheck struct {
	Name     string
	Expected string
	Actual   string

	// Hints are advisory notes about likely causes, e.g. a thumbprint sent with padding
	Hints []string
}

// Passed reports whether the claim carried the required value.
func (c HeaderCheck) Passed() bool {
	return c.Actual == c.Expected
}

func (c HeaderCheck) String() string {
	return fmt.Sprintf("%s - Expected '%s', was '%s'", c.Name, c.Expected, c.Actual)
}

// HeaderErrors is the ordered set of failed header checks for one JOSE object.
//
// All checks are evaluated before the set is reported so the user sees every problem at once.
type HeaderErrors []HeaderCheck

func (e HeaderErrors) Error() string {
	var b strings.Builder
	b.WriteString("Header errors:")
	for _, check := range e {
		fmt.Fprintf(&b, "\n  %s", check)
		for _, hint := range check.Hints {
			fmt.Fprintf(&b, "\n      %s", hint)
		}
	}
	return b.String()
}

// requiredHeader is a claim name and the value the profile requires for it.
type requiredHeader struct {
	name       string
	value      string
	thumbprint bool
}

// thumbprintHeaders returns the x5t and x5t#S256 requirements for a certificate's thumbprints.
func thumbprintHeaders(tp ThumbprintPair) []requiredHeader {
	return []requiredHeader{
		{name: HeaderSHA1Thumbprint, value: tp.SHA1, thumbprint: true},
		{name: HeaderSHA256Thumbprint, value: tp.SHA256, thumbprint: true},
	}
}

// checkHeaders evaluates every requirement against the header, in order, and returns the failures.
// A nil result means every required claim was present with the required value.
func checkHeaders(header Header, required []requiredHeader) HeaderErrors {
	var failed HeaderErrors
	for _, req := range required {
		check := HeaderCheck{
			Name:     req.name,
			Expected: req.value,
			Actual:   header.Get(req.name),
		}
		if check.Passed() {
			continue
		}
		if req.thumbprint {
			if _, present := header[req.name]; present {
				check.Hints = EncodingHints(check.Actual)
			}
		}
		failed = append(failed, check)
	}
	return failed
}
