// jwe.go - checks a JWE (JSON Web Encryption) produced by a DCS client.
//
// The client encrypts its signed request to the DCS encryption certificate using RSA-OAEP
// key encryption and A128CBC-HS256 content encryption, in compact serialization.
package crypto

import (
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lestrrat-go/jwx/v3/jwe"
)

const (
	encryptionKeyHint      = "Check that the encryption key matches the certificate used to encrypt the JWE"
	encryptionKeyCertHint  = "The encryption key does not correspond to the encryption certificate provided"
	decryptionFailedPrefix = "Decryption failed"
)

// VerifyJWE decrypts a compact JWE with the service encryption key and checks it.
//
// The certificate is the encryption certificate the client encrypted to; it is used for
// the x5t/x5t#S256 checks and may be nil only when the profile does not require JWE thumbprints.
//
// The checks run in order:
//  1. the JWE decrypts with the private key
//  2. the JWE has exactly 5 segments (a JSON serialized JWE can decrypt but is still rejected).
//     When decryption fails this is evaluated too and both problems are returned together.
//  3. the alg, enc and (per profile) x5t and x5t#S256 headers have the required values
//  4. the payload equals opts.ExpectedPayload, if one was supplied
//
// Failures after decryption return the partial result along with the error.
func VerifyJWE(privateKey *rsa.PrivateKey, cert *x509.Certificate, compactJWE string, opts VerifyOptions) (*Result, error) {
	if privateKey == nil {
		return nil, NewValidationError("encryption key is required")
	}

	profile := opts.profile()
	if cert == nil && profile.RequireJWEThumbprints {
		return nil, NewValidationError("encryption certificate is required to check the JWE thumbprints")
	}

	if err := checkCandidate(compactJWE, "JWE"); err != nil {
		return nil, err
	}

	segmentErr := checkSegments(compactJWE, "JWE", jweSegmentCount)

	// an undecodable header leaves the header empty: every claim is then reported as absent
	header, headerErr := ParseHeader(compactJWE)
	if headerErr != nil {
		slog.Debug("could not read JWE protected header", slog.String("error", headerErr.Error()))
	}

	alg, ok := profile.decryptionAlgorithm(header.Get(HeaderAlgorithm))
	if !ok {
		return nil, NewValidationError(fmt.Sprintf("profile %q key encryption algorithm %q is not supported", profile.Name, profile.KeyEncryptionAlgorithm))
	}

	slog.Debug("decrypting JWE",
		slog.String("alg", alg.String()),
		slog.String("enc", header.Get(HeaderContentEncryption)),
		slog.String("profile", profile.Name))

	required := []requiredHeader{
		{name: HeaderAlgorithm, value: profile.KeyEncryptionAlgorithm},
		{name: HeaderContentEncryption, value: profile.ContentEncryptionAlgorithm},
	}
	if profile.RequireJWEThumbprints {
		required = append(required, thumbprintHeaders(GenerateThumbprints(cert))...)
	}

	// Step 1: decryption
	plaintext, err := jwe.Decrypt([]byte(compactJWE), jwe.WithKey(alg, privateKey))
	if err != nil {
		// a readable compact JWE that jwx cannot parse has a mistyped or unknown header claim
		if segmentErr == nil && headerErr == nil {
			_, parseErr := jwe.Parse([]byte(compactJWE))
			_, knownAlg := keyEncryptionAlgorithms[header.Get(HeaderAlgorithm)]
			if readErr := unreadableHeaderError(parseErr, !knownAlg, header, required, "JWE"); readErr != nil {
				return nil, readErr
			}
		}

		hint := encryptionKeyHint
		if cert != nil && ValidateKeyMatchesCertificate(cert, privateKey) != nil {
			hint = encryptionKeyCertHint
		}
		decryptErr := WrapDecryptionError(err, decryptionFailedPrefix, hint)
		if segmentErr != nil {
			return nil, errors.Join(decryptErr, segmentErr)
		}
		return nil, decryptErr
	}

	result := &Result{Header: header}
	result.addMessage(MessageDecrypted)

	// Step 2: structure
	if segmentErr != nil {
		return result, segmentErr
	}
	if headerErr != nil {
		return result, headerErr
	}

	// Step 3: headers
	if headerErrors := checkHeaders(header, required); len(headerErrors) > 0 {
		return result, WrapHeaderError(headerErrors, "JWE header validation failed")
	}
	result.addMessage(MessageHeadersCorrect)

	// Step 4: payload
	if err := checkPayload(result, string(plaintext), opts); err != nil {
		return result, err
	}

	return result, nil
}
