package crypto

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/information-sharing-networks/dcs-checker/internal/crypto/testutil"
)

func TestGenerateThumbprints(t *testing.T) {
	id := testutil.NewIdentity(t, "client.example.com")

	first := GenerateThumbprints(id.Certificate)
	second := GenerateThumbprints(id.Certificate)

	if first != second {
		t.Fatalf("thumbprints are not deterministic: %+v != %+v", first, second)
	}

	if first.SHA1 != id.SHA1Thumbprint() {
		t.Errorf("SHA1 = %q, want %q", first.SHA1, id.SHA1Thumbprint())
	}
	if first.SHA256 != id.SHA256Thumbprint() {
		t.Errorf("SHA256 = %q, want %q", first.SHA256, id.SHA256Thumbprint())
	}

	// SHA-1 is 20 bytes (27 unpadded base64 chars), SHA-256 is 32 bytes (43 chars)
	if len(first.SHA1) != 27 {
		t.Errorf("SHA1 thumbprint length = %d, want 27", len(first.SHA1))
	}
	if len(first.SHA256) != 43 {
		t.Errorf("SHA256 thumbprint length = %d, want 43", len(first.SHA256))
	}

	other := GenerateThumbprints(testutil.NewIdentity(t, "client.example.com").Certificate)
	if other == first {
		t.Error("different certificates produced the same thumbprints")
	}
}

func TestGenerateThumbprints_URLSafeAlphabet(t *testing.T) {
	for i := range 5 {
		id := testutil.NewIdentity(t, "alphabet.example.com")
		tp := GenerateThumbprints(id.Certificate)
		for _, v := range []string{tp.SHA1, tp.SHA256} {
			if strings.ContainsAny(v, "+/=") {
				t.Errorf("certificate %d: thumbprint %q is not unpadded base64url", i, v)
			}
		}
	}
}

func TestEncodingHints(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"base64url", "abc-_def", nil},
		{"plus", "abc+def", []string{alphabetHint}},
		{"slash", "abc/def", []string{alphabetHint}},
		{"padding", "abcdef=", []string{paddingHint}},
		{"standard base64 with padding", "ab+/cd==", []string{alphabetHint, paddingHint}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodingHints(tt.value)
			if !slices.Equal(got, tt.want) {
				t.Errorf("EncodingHints(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestCheckThumbprints(t *testing.T) {
	id := testutil.NewIdentity(t, "client.example.com")
	sha1 := id.SHA1Thumbprint()
	sha256 := id.SHA256Thumbprint()

	// flip one character
	flipped := []byte(sha256)
	if flipped[0] == 'A' {
		flipped[0] = 'B'
	} else {
		flipped[0] = 'A'
	}

	tests := []struct {
		name      string
		sha1      string
		sha256    string
		wantErr   bool
		wantHints []string
	}{
		{
			name:   "correct thumbprints",
			sha1:   sha1,
			sha256: sha256,
		},
		{
			name:    "one character different",
			sha1:    sha1,
			sha256:  string(flipped),
			wantErr: true,
		},
		{
			name:    "swapped",
			sha1:    sha256,
			sha256:  sha1,
			wantErr: true,
		},
		{
			name:    "different case",
			sha1:    strings.ToLower(sha1),
			sha256:  sha256,
			wantErr: strings.ToLower(sha1) != sha1,
		},
		{
			name:      "padding retained",
			sha1:      sha1 + "=",
			sha256:    sha256 + "=",
			wantErr:   true,
			wantHints: []string{paddingHint, paddingHint},
		},
		{
			name:    "empty",
			sha1:    "",
			sha256:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckThumbprints(id.Certificate, tt.sha1, tt.sha256)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var cryptoErr *CryptoError
			if !errors.As(err, &cryptoErr) || cryptoErr.Code() != ErrCodeThumbprint {
				t.Fatalf("expected a thumbprint CryptoError, got %v", err)
			}

			var mismatch *ThumbprintMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("expected ThumbprintMismatchError, got %T", err)
			}
			if mismatch.Expected.SHA1 != sha1 || mismatch.Expected.SHA256 != sha256 {
				t.Errorf("unexpected expected values: %+v", mismatch.Expected)
			}
			if mismatch.Actual.SHA1 != tt.sha1 || mismatch.Actual.SHA256 != tt.sha256 {
				t.Errorf("unexpected actual values: %+v", mismatch.Actual)
			}
			if tt.wantHints != nil && !slices.Equal(mismatch.Hints, tt.wantHints) {
				t.Errorf("hints = %v, want %v", mismatch.Hints, tt.wantHints)
			}

			msg := err.Error()
			for _, want := range []string{
				"Thumbprints don't match",
				"SHA1 - Expected '" + sha1 + "', was '" + tt.sha1 + "'",
				"SHA256 - Expected '" + sha256 + "', was '" + tt.sha256 + "'",
			} {
				if !strings.Contains(msg, want) {
					t.Errorf("error message missing %q:\n%s", want, msg)
				}
			}
		})
	}
}

// TestCheckThumbprints_StandardBase64 uses a value that is only wrong because of its alphabet.
func TestCheckThumbprints_StandardBase64(t *testing.T) {
	// generate certificates until one has a '-' or '_' in its SHA-1 thumbprint (probability ~97% per certificate)
	var id *testutil.Identity
	for range 20 {
		candidate := testutil.NewIdentity(t, "alphabet.example.com")
		if strings.ContainsAny(candidate.SHA1Thumbprint(), "-_") {
			id = candidate
			break
		}
	}
	if id == nil {
		t.Skip("no certificate with '-' or '_' in its thumbprint was generated")
	}

	candidate := toStdBase64(id.SHA1Thumbprint())
	err := CheckThumbprints(id.Certificate, candidate, id.SHA256Thumbprint())
	if err == nil {
		t.Fatal("expected standard base64 thumbprint to be rejected")
	}

	var mismatch *ThumbprintMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected ThumbprintMismatchError, got %v", err)
	}
	if !slices.Contains(mismatch.Hints, alphabetHint) {
		t.Errorf("expected alphabet hint, got %v", mismatch.Hints)
	}
	if slices.Contains(mismatch.Hints, paddingHint) {
		t.Errorf("unexpected padding hint: %v", mismatch.Hints)
	}
}

func TestCheckThumbprints_NilCertificate(t *testing.T) {
	err := CheckThumbprints(nil, "a", "b")
	var cryptoErr *CryptoError
	if !errors.As(err, &cryptoErr) || cryptoErr.Code() != ErrCodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func toStdBase64(s string) string {
	return strings.NewReplacer("-", "+", "_", "/").Replace(s)
}
