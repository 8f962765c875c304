// canonical.go - payload comparison.
//
// The DCS compares payloads byte for byte. JSON payloads can optionally be compared after
// RFC 8785 canonicalization (gowebpki/jcs) so that key order and whitespace differences
// introduced by a client's JSON encoder do not hide a real mismatch.
package crypto

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gowebpki/jcs"
)

// PayloadComparison selects how an extracted payload is compared with the expected one.
type PayloadComparison string

const (
	// PayloadComparisonExact requires the payload text to be identical.
	PayloadComparisonExact PayloadComparison = "exact"

	// PayloadComparisonJSON requires both payloads to be JSON with identical canonical forms.
	PayloadComparisonJSON PayloadComparison = "json"
)

// ParsePayloadComparison converts a configuration value to a PayloadComparison.
// An empty string selects PayloadComparisonExact.
func ParsePayloadComparison(s string) (PayloadComparison, error) {
	switch PayloadComparison(strings.ToLower(s)) {
	case "", PayloadComparisonExact:
		return PayloadComparisonExact, nil
	case PayloadComparisonJSON:
		return PayloadComparisonJSON, nil
	}
	return "", NewValidationError(fmt.Sprintf("invalid payload comparison %q (must be %q or %q)", s, PayloadComparisonExact, PayloadComparisonJSON))
}

// CanonicalizeJSON converts JSON to canonical form per RFC 8785
//
// If the input is not valid JSON, an error is returned (handled by jcs library).
func CanonicalizeJSON(jsonData []byte) ([]byte, error) {
	return jcs.Transform(jsonData)
}

// PayloadMismatchError reports an extracted payload that differs from the one the user expected.
type PayloadMismatchError struct {
	Expected string
	Actual   string

	// Reason is set when the payloads could not be compared in the requested mode
	Reason string
}

func (e *PayloadMismatchError) Error() string {
	var b strings.Builder
	b.WriteString("Supplied payload did not match extracted payload.")
	if e.Reason != "" {
		fmt.Fprintf(&b, "\n  Reason: %s", e.Reason)
	}
	fmt.Fprintf(&b, "\n  Expected: %s", e.Expected)
	fmt.Fprintf(&b, "\n  Actual: %s", e.Actual)
	return b.String()
}

// comparePayload returns a *PayloadMismatchError unless actual matches expected under mode.
func comparePayload(expected, actual string, mode PayloadComparison) error {
	if mode != PayloadComparisonJSON {
		if expected == actual {
			return nil
		}
		return &PayloadMismatchError{Expected: expected, Actual: actual}
	}

	canonicalExpected, err := CanonicalizeJSON([]byte(expected))
	if err != nil {
		return &PayloadMismatchError{Expected: expected, Actual: actual, Reason: fmt.Sprintf("expected payload is not valid JSON: %v", err)}
	}
	canonicalActual, err := CanonicalizeJSON([]byte(actual))
	if err != nil {
		return &PayloadMismatchError{Expected: expected, Actual: actual, Reason: fmt.Sprintf("extracted payload is not valid JSON: %v", err)}
	}

	if string(canonicalExpected) != string(canonicalActual) {
		return &PayloadMismatchError{Expected: expected, Actual: actual}
	}

	slog.Debug("payloads match after JSON canonicalization")
	return nil
}
