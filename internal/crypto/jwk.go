// JWK (JSON Web Key) conversion for the DCS encryption key.
//
// The checks accept the DCS encryption key as a JWK (see keys.go); these functions produce one
// so keygen can write key material in the same form the DCS publishes it.
// Reference: https://datatracker.ietf.org/doc/html/rfc7517

package crypto

import (
	"crypto"
	"crypto/rsa"
	"encoding/json"
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// RSAPrivateKeyToJWK converts an RSA private key to a JWK for the DCS encryption profile (RSA-OAEP, use "enc").
func RSAPrivateKeyToJWK(privateKey *rsa.PrivateKey, keyID string) (jwk.Key, error) {
	if privateKey == nil {
		return nil, NewValidationError("private key is nil")
	}
	if keyID == "" {
		return nil, NewValidationError("keyID is required")
	}

	key, err := jwk.Import(privateKey)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to create JWK from RSA private key")
	}

	if err := key.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, WrapKeyManagementError(err, "failed to set key ID")
	}

	if err := key.Set(jwk.AlgorithmKey, jwa.RSA_OAEP()); err != nil {
		return nil, WrapKeyManagementError(err, "failed to set algorithm")
	}

	if err := key.Set(jwk.KeyUsageKey, jwk.ForEncryption); err != nil {
		return nil, WrapKeyManagementError(err, "failed to set key usage")
	}

	return key, nil
}

// MarshalJWKSet returns the key as an indented JWK set.
func MarshalJWKSet(key jwk.Key) ([]byte, error) {
	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		return nil, WrapKeyManagementError(err, "failed to add key to JWK set")
	}

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to marshal JWK set")
	}
	return data, nil
}

// GenerateKeyIDFromRSAKey returns the first 16 hex characters of the key's RFC 7638 SHA-256 thumbprint.
func GenerateKeyIDFromRSAKey(publicKey *rsa.PublicKey) (string, error) {
	if publicKey == nil {
		return "", NewValidationError("public key is nil")
	}

	jwkKey, err := jwk.Import(publicKey)
	if err != nil {
		return "", WrapKeyManagementError(err, "failed to import key")
	}

	thumbprint, err := jwkKey.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", WrapKeyManagementError(err, "failed to generate thumbprint")
	}

	return fmt.Sprintf("%x", thumbprint)[:16], nil
}
