package crypto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/go-jose/go-jose/v4"
	"github.com/information-sharing-networks/dcs-checker/internal/crypto/testutil"
)

func TestVerifyJWS(t *testing.T) {
	client := testutil.NewIdentity(t, "client.example.com")
	other := testutil.NewIdentity(t, "other.example.com")

	tests := []struct {
		name         string
		jws          string
		opts         VerifyOptions
		wantCode     ErrorCode
		wantPayload  string
		wantMessages []string
	}{
		{
			name:         "valid JWS without expected payload",
			jws:          testutil.Sign(t, client, "hello"),
			wantPayload:  "hello",
			wantMessages: []string{MessageSignatureValid, MessageHeadersCorrect, "Payload: 'hello'"},
		},
		{
			name:         "valid JWS with matching payload",
			jws:          testutil.Sign(t, client, "hello"),
			opts:         VerifyOptions{ExpectedPayload: "hello"},
			wantPayload:  "hello",
			wantMessages: []string{MessageSignatureValid, MessageHeadersCorrect, MessagePayloadMatches},
		},
		{
			name:     "surrounding whitespace",
			jws:      "  " + testutil.Sign(t, client, "hello") + "\n",
			wantCode: ErrCodeStructure,
		},
		{
			name:     "payload mismatch",
			jws:      testutil.Sign(t, client, "hello"),
			opts:     VerifyOptions{ExpectedPayload: "goodbye"},
			wantCode: ErrCodePayload,
		},
		{
			name:         "JSON payload matches after canonicalization",
			jws:          testutil.Sign(t, client, `{"b": 2, "a": 1}`),
			opts:         VerifyOptions{ExpectedPayload: `{"a":1,"b":2}`, PayloadComparison: PayloadComparisonJSON},
			wantPayload:  `{"b": 2, "a": 1}`,
			wantMessages: []string{MessageSignatureValid, MessageHeadersCorrect, MessagePayloadMatches},
		},
		{
			name:     "JSON payload differs without canonicalization",
			jws:      testutil.Sign(t, client, `{"b": 2, "a": 1}`),
			opts:     VerifyOptions{ExpectedPayload: `{"a":1,"b":2}`},
			wantCode: ErrCodePayload,
		},
		{
			name:     "two segments",
			jws:      "eyJhbGciOiJSUzI1NiJ9.aGVsbG8",
			wantCode: ErrCodeStructure,
		},
		{
			name:     "JWE passed as JWS",
			jws:      testutil.Encrypt(t, client, "hello"),
			wantCode: ErrCodeStructure,
		},
		{
			name:     "undecodable header",
			jws:      "!!!.aGVsbG8.c2ln",
			wantCode: ErrCodeStructure,
		},
		{
			name:     "signed with a different key",
			jws:      testutil.Sign(t, other, "hello", testutil.WithThumbprintsOf(client)),
			wantCode: ErrCodeInvalidSignature,
		},
		{
			name:     "tampered payload",
			jws:      tamperPayload(testutil.Sign(t, client, "hello"), "aGVsbG9v"),
			wantCode: ErrCodeInvalidSignature,
		},
		{
			name:     "thumbprints of another certificate",
			jws:      testutil.Sign(t, client, "hello", testutil.WithThumbprintsOf(other)),
			wantCode: ErrCodeHeader,
		},
		{
			name:     "wrong algorithm",
			jws:      testutil.Sign(t, client, "hello", testutil.WithSignatureAlgorithm(jose.PS256)),
			wantCode: ErrCodeHeader,
		},
		{
			name:     "payload is never checked when the headers are wrong",
			jws:      testutil.Sign(t, client, "hello", testutil.WithoutHeader("x5t")),
			opts:     VerifyOptions{ExpectedPayload: "goodbye"},
			wantCode: ErrCodeHeader,
		},
		{
			name:     "numeric x5t",
			jws:      testutil.Sign(t, client, "hello", testutil.WithHeader("x5t", 5)),
			wantCode: ErrCodeHeader,
		},
		{
			name:     "unknown algorithm",
			jws:      rewriteHeader(t, testutil.Sign(t, client, "hello"), map[string]any{"alg": "foo"}),
			wantCode: ErrCodeHeader,
		},
		{
			name:     "empty",
			jws:      "",
			wantCode: ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := VerifyJWS(client.Certificate, tt.jws, tt.opts)

			if tt.wantCode != "" {
				if err == nil {
					t.Fatalf("expected %s error, got nil", tt.wantCode)
				}
				var cryptoErr *CryptoError
				if !errors.As(err, &cryptoErr) {
					t.Fatalf("expected CryptoError, got %T: %v", err, err)
				}
				if cryptoErr.Code() != tt.wantCode {
					t.Fatalf("error code = %q, want %q (%v)", cryptoErr.Code(), tt.wantCode, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Payload != tt.wantPayload {
				t.Errorf("payload = %q, want %q", result.Payload, tt.wantPayload)
			}
			if !slices.Equal(result.Messages, tt.wantMessages) {
				t.Errorf("messages = %q, want %q", result.Messages, tt.wantMessages)
			}
		})
	}
}

// wrong alg and a missing x5t must both be reported in one pass
func TestVerifyJWS_AccumulatesHeaderErrors(t *testing.T) {
	client := testutil.NewIdentity(t, "client.example.com")

	jws := testutil.Sign(t, client, "hello",
		testutil.WithSignatureAlgorithm(jose.RS512),
		testutil.WithoutHeader("x5t"),
		testutil.WithHeader("x5t#S256", client.SHA256Thumbprint()+"="),
	)

	_, err := VerifyJWS(client.Certificate, jws, VerifyOptions{})
	if err == nil {
		t.Fatal("expected header errors, got nil")
	}

	var headerErrors HeaderErrors
	if !errors.As(err, &headerErrors) {
		t.Fatalf("expected HeaderErrors, got %T: %v", err, err)
	}

	want := []HeaderCheck{
		{Name: "alg", Expected: "RS256", Actual: "RS512"},
		{Name: "x5t", Expected: client.SHA1Thumbprint(), Actual: AbsentHeaderValue},
		{Name: "x5t#S256", Expected: client.SHA256Thumbprint(), Actual: client.SHA256Thumbprint() + "=", Hints: []string{paddingHint}},
	}

	if len(headerErrors) != len(want) {
		t.Fatalf("got %d header errors, want %d: %v", len(headerErrors), len(want), headerErrors)
	}
	for i, w := range want {
		got := headerErrors[i]
		if got.Name != w.Name || got.Expected != w.Expected || got.Actual != w.Actual || !slices.Equal(got.Hints, w.Hints) {
			t.Errorf("header error %d = %+v, want %+v", i, got, w)
		}
	}

	msg := err.Error()
	for _, want := range []string{
		"Header errors:",
		"alg - Expected 'RS256', was 'RS512'",
		"x5t - Expected '" + client.SHA1Thumbprint() + "', was 'absent'",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message missing %q:\n%s", want, msg)
		}
	}
}

func TestVerifyJWS_SignatureHint(t *testing.T) {
	client := testutil.NewIdentity(t, "client.example.com")
	other := testutil.NewIdentity(t, "other.example.com")

	_, err := VerifyJWS(other.Certificate, testutil.Sign(t, client, "hello"), VerifyOptions{})
	if err == nil {
		t.Fatal("expected signature error, got nil")
	}
	if !strings.Contains(err.Error(), signingCertificateHint) {
		t.Errorf("error message missing hint: %v", err)
	}
}

func TestVerifyJWS_PayloadMismatchDetails(t *testing.T) {
	client := testutil.NewIdentity(t, "client.example.com")

	_, err := VerifyJWS(client.Certificate, testutil.Sign(t, client, "hello"), VerifyOptions{ExpectedPayload: "goodbye"})

	var mismatch *PayloadMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected PayloadMismatchError, got %v", err)
	}
	if mismatch.Expected != "goodbye" || mismatch.Actual != "hello" {
		t.Errorf("mismatch = %+v", mismatch)
	}
	if !strings.Contains(err.Error(), "Expected: goodbye") || !strings.Contains(err.Error(), "Actual: hello") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestVerifyJWS_RequiresRSACertificate(t *testing.T) {
	client := testutil.NewIdentity(t, "client.example.com")
	cert := *client.Certificate
	cert.PublicKey = "not a key"

	_, err := VerifyJWS(&cert, testutil.Sign(t, client, "hello"), VerifyOptions{})
	var cryptoErr *CryptoError
	if !errors.As(err, &cryptoErr) || cryptoErr.Code() != ErrCodeCertificate {
		t.Fatalf("expected certificate error, got %v", err)
	}
}

// claims with the wrong JSON type or an unknown alg are reported as header errors, never as a bad signature
func TestVerifyJWS_UnreadableHeaderClaims(t *testing.T) {
	client := testutil.NewIdentity(t, "client.example.com")

	tests := []struct {
		name string
		jws  string
		want []HeaderCheck
	}{
		{
			name: "numeric x5t",
			jws:  testutil.Sign(t, client, "hello", testutil.WithHeader("x5t", 5)),
			want: []HeaderCheck{{Name: "x5t", Expected: client.SHA1Thumbprint(), Actual: "5"}},
		},
		{
			name: "unknown alg and numeric x5t#S256",
			jws:  rewriteHeader(t, testutil.Sign(t, client, "hello"), map[string]any{"alg": "foo", "x5t#S256": 7}),
			want: []HeaderCheck{
				{Name: "alg", Expected: "RS256", Actual: "foo"},
				{Name: "x5t#S256", Expected: client.SHA256Thumbprint(), Actual: "7"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := VerifyJWS(client.Certificate, tt.jws, VerifyOptions{})
			if result != nil {
				t.Errorf("expected no result before the signature is checked, got %+v", result)
			}

			var headerErrors HeaderErrors
			if !errors.As(err, &headerErrors) {
				t.Fatalf("expected HeaderErrors, got %T: %v", err, err)
			}
			if len(headerErrors) != len(tt.want) {
				t.Fatalf("got %d header errors, want %d: %v", len(headerErrors), len(tt.want), headerErrors)
			}
			for i, w := range tt.want {
				got := headerErrors[i]
				if got.Name != w.Name || got.Expected != w.Expected || got.Actual != w.Actual {
					t.Errorf("header error %d = %+v, want %+v", i, got, w)
				}
			}
			if strings.Contains(err.Error(), signingCertificateHint) {
				t.Errorf("header problem reported as a certificate mismatch: %v", err)
			}
		})
	}
}

func TestVerifyJWS_PartialResult(t *testing.T) {
	client := testutil.NewIdentity(t, "client.example.com")

	tests := []struct {
		name         string
		jws          string
		opts         VerifyOptions
		wantMessages []string
	}{
		{
			name:         "header failure",
			jws:          testutil.Sign(t, client, "hello", testutil.WithoutHeader("x5t")),
			wantMessages: []string{MessageSignatureValid},
		},
		{
			name:         "payload failure",
			jws:          testutil.Sign(t, client, "hello"),
			opts:         VerifyOptions{ExpectedPayload: "goodbye"},
			wantMessages: []string{MessageSignatureValid, MessageHeadersCorrect},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := VerifyJWS(client.Certificate, tt.jws, tt.opts)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !slices.Equal(result.Progress(), tt.wantMessages) {
				t.Errorf("messages = %q, want %q", result.Progress(), tt.wantMessages)
			}
		})
	}
}

// rewriteHeader replaces claims in the protected header of a compact serialization.
// The signature or authentication tag no longer matches the header.
func rewriteHeader(t *testing.T, compact string, claims map[string]any) string {
	t.Helper()
	parts := strings.Split(compact, ".")

	decoded, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		t.Fatalf("failed to decode header: %v", err)
	}
	header := map[string]any{}
	if err := json.Unmarshal(decoded, &header); err != nil {
		t.Fatalf("failed to parse header: %v", err)
	}
	for name, value := range claims {
		header[name] = value
	}
	encoded, err := json.Marshal(header)
	if err != nil {
		t.Fatalf("failed to marshal header: %v", err)
	}

	parts[0] = base64.RawURLEncoding.EncodeToString(encoded)
	return strings.Join(parts, ".")
}

// tamperPayload replaces the payload segment of a compact JWS.
func tamperPayload(compact, payloadSegment string) string {
	parts := strings.Split(compact, ".")
	parts[1] = payloadSegment
	return strings.Join(parts, ".")
}
