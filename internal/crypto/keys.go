// this file loads the key material the checks are run with.
//
// Certificates are PEM encoded X.509 certificates (the first CERTIFICATE block is used, so a full chain file works).
// The encryption key is an RSA private key in PEM (PKCS#1 or PKCS#8) or a JWK / JWK set containing one RSA private key.
// Key material is never logged.

package crypto

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

// readFile reads a file with access scoped to its directory.
func readFile(path string) ([]byte, error) {
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open directory %s: %w", filepath.Dir(path), err)
	}
	defer root.Close()

	data, err := root.ReadFile(filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// ParseCertificate parses the first certificate in PEM encoded data.
// Non-certificate blocks before it are skipped.
func ParseCertificate(pemData []byte) (*x509.Certificate, error) {
	remaining := pemData
	for {
		var block *pem.Block
		block, remaining = pem.Decode(remaining)
		if block == nil {
			return nil, NewCertificateError("no certificate found in PEM data")
		}

		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, WrapCertificateError(err, "failed to parse certificate")
		}
		return cert, nil
	}
}

// ReadCertificateFromFile reads a PEM certificate file.
// If the file contains a chain, the first (leaf) certificate is returned.
func ReadCertificateFromFile(path string) (*x509.Certificate, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, WrapCertificateError(err, "failed to load certificate")
	}
	return ParseCertificate(data)
}

// ParseRSAPrivateKey parses an RSA private key from PEM (PKCS#1 or PKCS#8) or JWK encoded data.
func ParseRSAPrivateKey(data []byte) (*rsa.PrivateKey, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, NewKeyManagementError("key data is empty")
	}

	if trimmed[0] == '{' {
		return parseRSAPrivateKeyJWK(trimmed)
	}

	block, _ := pem.Decode(trimmed)
	if block == nil {
		return nil, NewKeyManagementError("failed to decode PEM block")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, WrapKeyManagementError(err, "failed to parse PKCS#1 private key")
		}
		return key, nil

	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, WrapKeyManagementError(err, "failed to parse PKCS#8 private key")
		}
		privateKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, NewKeyManagementError(fmt.Sprintf("key is %T, not an RSA private key", key))
		}
		return privateKey, nil
	}

	return nil, NewKeyManagementError(fmt.Sprintf("PEM block is not a private key (type: %s)", block.Type))
}

// parseRSAPrivateKeyJWK reads the first key of a JWK or JWK set.
func parseRSAPrivateKeyJWK(data []byte) (*rsa.PrivateKey, error) {
	jwkSet, err := jwk.Parse(data)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to parse JWK set")
	}

	if jwkSet.Len() == 0 {
		return nil, NewKeyManagementError("JWK set is empty")
	}

	jwkKey, ok := jwkSet.Key(0)
	if !ok {
		return nil, NewKeyManagementError("failed to get key from JWK set")
	}

	var raw any
	if err := jwk.Export(jwkKey, &raw); err != nil {
		return nil, WrapKeyManagementError(err, "failed to export key")
	}

	privateKey, ok := raw.(*rsa.PrivateKey)
	if !ok {
		return nil, NewKeyManagementError(fmt.Sprintf("key is %T, not an RSA private key", raw))
	}

	return privateKey, nil
}

// ReadRSAPrivateKeyFromFile reads an RSA private key from a PEM or JWK file.
func ReadRSAPrivateKeyFromFile(path string) (*rsa.PrivateKey, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to load private key")
	}
	return ParseRSAPrivateKey(data)
}

// ValidateKeyMatchesCertificate checks that the private key is the one certified by cert.
//
// A DCS client encrypts to the public key in the service encryption certificate, so a decryption
// key that does not match that certificate can never decrypt a correctly produced JWE.
func ValidateKeyMatchesCertificate(cert *x509.Certificate, privateKey *rsa.PrivateKey) error {
	if cert == nil || privateKey == nil {
		return NewValidationError("certificate and private key are required")
	}

	certKey, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return NewCertificateError(fmt.Sprintf("certificate contains %T key, but expected *rsa.PublicKey", cert.PublicKey))
	}

	if !certKey.Equal(&privateKey.PublicKey) {
		return NewCertificateError("certificate public key does not match the private key")
	}

	return nil
}
