// keygen.go creates test key material: an RSA key pair and a self-signed certificate for it.
//
// The generated files are the inputs the checks read (see keys.go), so a client can produce a
// complete set of test material with dcs-check keygen before they have certificates from the DCS.

package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"time"
)

// GenerateRSAKeyPair generates an RSA private key of the given size.
func GenerateRSAKeyPair(bits int) (*rsa.PrivateKey, error) {
	if bits < 2048 {
		return nil, NewValidationError("key size must be at least 2048 bits")
	}

	if bits%256 != 0 {
		return nil, NewValidationError("key size should be a multiple of 256")
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to generate key pair")
	}

	return privateKey, nil
}

// GenerateSelfSignedCertificate creates a certificate for the key with the given common name,
// valid from now for the given duration. It can be used for both signing and encryption.
func GenerateSelfSignedCertificate(privateKey *rsa.PrivateKey, commonName string, validity time.Duration) (*x509.Certificate, error) {
	if privateKey == nil {
		return nil, NewValidationError("private key is nil")
	}
	if commonName == "" {
		return nil, NewValidationError("common name is required")
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, WrapInternalError(err, "failed to generate serial number")
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(validity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, WrapCertificateError(err, "failed to create certificate")
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, WrapCertificateError(err, "failed to parse generated certificate")
	}
	return cert, nil
}

// EncodeCertificatePEM returns the certificate as a PEM CERTIFICATE block.
func EncodeCertificatePEM(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
}

// EncodeRSAPrivateKeyPEM returns the key as a PKCS#8 PEM block.
func EncodeRSAPrivateKeyPEM(privateKey *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to marshal private key")
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// WriteFile writes data to filename within baseDir, scoping file access to baseDir.
func WriteFile(baseDir, filename string, data []byte, perm os.FileMode) error {
	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return WrapInternalError(err, "failed to open directory "+baseDir)
	}
	defer root.Close()

	if err := root.WriteFile(filename, data, perm); err != nil {
		return WrapInternalError(err, "failed to write "+filename)
	}
	return nil
}
