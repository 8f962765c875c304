// algorithm.go defines the algorithm profile that the Document Checking Service accepts.
// The DCS does not negotiate algorithms: every layer of the envelope must use the pinned values.
package crypto

import (
	"github.com/lestrrat-go/jwx/v3/jwa"
)

// Profile is the set of header values a candidate must carry to be accepted.
//
// The profile is policy, not verification logic: verifiers read the expected values
// from here so that a different service configuration can be checked without touching them.
type Profile struct {
	// Name identifies the profile in diagnostics and logs
	Name string

	// SignatureAlgorithm is the required JWS "alg" header
	SignatureAlgorithm string

	// KeyEncryptionAlgorithm is the required JWE "alg" header
	KeyEncryptionAlgorithm string

	// ContentEncryptionAlgorithm is the required JWE "enc" header
	ContentEncryptionAlgorithm string

	// RequireJWEThumbprints controls whether the JWE must carry x5t and x5t#S256 headers
	// matching the encryption certificate.
	// Services that only need encryption (without client certificate binding on the JWE) can disable it.
	RequireJWEThumbprints bool
}

// DCSProfile is the profile required by the Document Checking Service.
var DCSProfile = Profile{
	Name:                       "dcs",
	SignatureAlgorithm:         jwa.RS256().String(),
	KeyEncryptionAlgorithm:     jwa.RSA_OAEP().String(),
	ContentEncryptionAlgorithm: jwa.A128CBC_HS256().String(),
	RequireJWEThumbprints:      true,
}

// signatureAlgorithms are the algorithms a JWS may be verified with.
//
// The signature is checked with the algorithm the JWS declares, so that a correctly signed JWS
// using the wrong algorithm is reported as a header error rather than a bad signature.
// Only RSA algorithms are listed since the key always comes from an RSA certificate.
var signatureAlgorithms = map[string]jwa.SignatureAlgorithm{
	jwa.RS256().String(): jwa.RS256(),
	jwa.RS384().String(): jwa.RS384(),
	jwa.RS512().String(): jwa.RS512(),
	jwa.PS256().String(): jwa.PS256(),
	jwa.PS384().String(): jwa.PS384(),
	jwa.PS512().String(): jwa.PS512(),
}

// keyEncryptionAlgorithms are the RSA key encryption algorithms a JWE may be decrypted with.
var keyEncryptionAlgorithms = map[string]jwa.KeyEncryptionAlgorithm{
	jwa.RSA_OAEP().String():     jwa.RSA_OAEP(),
	jwa.RSA_OAEP_256().String(): jwa.RSA_OAEP_256(),
	jwa.RSA_OAEP_384().String(): jwa.RSA_OAEP_384(),
	jwa.RSA_OAEP_512().String(): jwa.RSA_OAEP_512(),
}

// verificationAlgorithm returns the algorithm to verify a JWS with.
// declared is the "alg" header value; the profile algorithm is used when it is not an RSA signature algorithm.
func (p Profile) verificationAlgorithm(declared string) (jwa.SignatureAlgorithm, bool) {
	if alg, ok := signatureAlgorithms[declared]; ok {
		return alg, true
	}
	alg, ok := signatureAlgorithms[p.SignatureAlgorithm]
	return alg, ok
}

// decryptionAlgorithm returns the key encryption algorithm to decrypt a JWE with.
func (p Profile) decryptionAlgorithm(declared string) (jwa.KeyEncryptionAlgorithm, bool) {
	if alg, ok := keyEncryptionAlgorithms[declared]; ok {
		return alg, true
	}
	alg, ok := keyEncryptionAlgorithms[p.KeyEncryptionAlgorithm]
	return alg, ok
}
