// Package testutil builds DCS requests for tests.
//
// The fixtures are produced with github.com/go-jose/go-jose/v4 rather than the jwx library used by the checks,
// so the checks are exercised against objects from an independent JOSE implementation.
// Thumbprints are computed here directly for the same reason.
package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" // #nosec G505
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
)

// Identity is an RSA key pair and a self-signed certificate for it.
type Identity struct {
	Key         *rsa.PrivateKey
	Certificate *x509.Certificate
}

// NewIdentity generates a 2048 bit RSA key and a self-signed certificate with the given common name.
func NewIdentity(t testing.TB, commonName string) *Identity {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		t.Fatalf("failed to generate serial number: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}

	return &Identity{Key: key, Certificate: cert}
}

// SHA1Thumbprint returns the x5t value for the identity's certificate.
func (id *Identity) SHA1Thumbprint() string {
	sum := sha1.Sum(id.Certificate.Raw) // #nosec G401
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// SHA256Thumbprint returns the x5t#S256 value for the identity's certificate.
func (id *Identity) SHA256Thumbprint() string {
	sum := sha256.Sum256(id.Certificate.Raw)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// CertificatePEM returns the PEM encoded certificate.
func (id *Identity) CertificatePEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: id.Certificate.Raw})
}

// PKCS8PEM returns the private key as a PKCS#8 PEM block.
func (id *Identity) PKCS8PEM(t testing.TB) []byte {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(id.Key)
	if err != nil {
		t.Fatalf("failed to marshal private key: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

// PKCS1PEM returns the private key as a PKCS#1 PEM block.
func (id *Identity) PKCS1PEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(id.Key)})
}

// JWK returns the private key as a JSON Web Key.
func (id *Identity) JWK(t testing.TB) []byte {
	t.Helper()
	data, err := jose.JSONWebKey{Key: id.Key, KeyID: id.SHA256Thumbprint(), Use: "enc"}.MarshalJSON()
	if err != nil {
		t.Fatalf("failed to marshal JWK: %v", err)
	}
	return data
}

// WriteFile writes data to name in dir and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// options control the headers and algorithms of a fixture.
type options struct {
	signatureAlgorithm jose.SignatureAlgorithm
	keyAlgorithm       jose.KeyAlgorithm
	contentEncryption  jose.ContentEncryption
	headers            map[string]any
	omit               map[string]bool
	thumbprintsOf      *Identity
}

// Option modifies a fixture.
type Option func(*options)

// WithSignatureAlgorithm signs with alg instead of RS256.
func WithSignatureAlgorithm(alg jose.SignatureAlgorithm) Option {
	return func(o *options) { o.signatureAlgorithm = alg }
}

// WithKeyAlgorithm encrypts the content key with alg instead of RSA-OAEP.
func WithKeyAlgorithm(alg jose.KeyAlgorithm) Option {
	return func(o *options) { o.keyAlgorithm = alg }
}

// WithContentEncryption encrypts the content with enc instead of A128CBC-HS256.
func WithContentEncryption(enc jose.ContentEncryption) Option {
	return func(o *options) { o.contentEncryption = enc }
}

// WithHeader sets an extra protected header, replacing a default thumbprint header of the same name.
func WithHeader(name string, value any) Option {
	return func(o *options) { o.headers[name] = value }
}

// WithoutHeader omits a default thumbprint header (x5t or x5t#S256).
func WithoutHeader(name string) Option {
	return func(o *options) { o.omit[name] = true }
}

// WithThumbprintsOf sets the thumbprint headers from another identity's certificate.
func WithThumbprintsOf(id *Identity) Option {
	return func(o *options) { o.thumbprintsOf = id }
}

func newOptions(id *Identity, opts []Option) *options {
	o := &options{
		signatureAlgorithm: jose.RS256,
		keyAlgorithm:       jose.RSA_OAEP,
		contentEncryption:  jose.A128CBC_HS256,
		headers:            map[string]any{},
		omit:               map[string]bool{},
		thumbprintsOf:      id,
	}
	for _, opt := range opts {
		opt(o)
	}

	defaults := map[string]string{
		"x5t":      o.thumbprintsOf.SHA1Thumbprint(),
		"x5t#S256": o.thumbprintsOf.SHA256Thumbprint(),
	}
	for name, value := range defaults {
		if _, set := o.headers[name]; set || o.omit[name] {
			continue
		}
		o.headers[name] = value
	}
	return o
}

// Sign returns a compact JWS of payload signed with the identity's key.
// By default the JWS uses RS256 and carries the identity's x5t and x5t#S256 thumbprints.
func Sign(t testing.TB, id *Identity, payload string, opts ...Option) string {
	t.Helper()
	o := newOptions(id, opts)

	signerOpts := &jose.SignerOptions{}
	for name, value := range o.headers {
		signerOpts.WithHeader(jose.HeaderKey(name), value)
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: o.signatureAlgorithm, Key: id.Key}, signerOpts)
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}

	jws, err := signer.Sign([]byte(payload))
	if err != nil {
		t.Fatalf("failed to sign payload: %v", err)
	}

	compact, err := jws.CompactSerialize()
	if err != nil {
		t.Fatalf("failed to serialize JWS: %v", err)
	}
	return compact
}

// Encrypt returns a compact JWE of plaintext encrypted to the identity's public key.
// By default the JWE uses RSA-OAEP with A128CBC-HS256 and carries the identity's thumbprints.
func Encrypt(t testing.TB, id *Identity, plaintext string, opts ...Option) string {
	t.Helper()
	compact, err := encrypt(t, id, plaintext, opts).CompactSerialize()
	if err != nil {
		t.Fatalf("failed to serialize JWE: %v", err)
	}
	return compact
}

// EncryptJSON returns plaintext encrypted like Encrypt but in flattened JSON serialization.
func EncryptJSON(t testing.TB, id *Identity, plaintext string, opts ...Option) string {
	t.Helper()
	return encrypt(t, id, plaintext, opts).FullSerialize()
}

func encrypt(t testing.TB, id *Identity, plaintext string, opts []Option) *jose.JSONWebEncryption {
	t.Helper()
	o := newOptions(id, opts)

	encrypterOpts := &jose.EncrypterOptions{}
	for name, value := range o.headers {
		encrypterOpts.WithHeader(jose.HeaderKey(name), value)
	}

	encrypter, err := jose.NewEncrypter(
		o.contentEncryption,
		jose.Recipient{Algorithm: o.keyAlgorithm, Key: &id.Key.PublicKey},
		encrypterOpts,
	)
	if err != nil {
		t.Fatalf("failed to create encrypter: %v", err)
	}

	jwe, err := encrypter.Encrypt([]byte(plaintext))
	if err != nil {
		t.Fatalf("failed to encrypt payload: %v", err)
	}
	return jwe
}

// EnvelopeOptions holds the options for each layer of an envelope.
type EnvelopeOptions struct {
	Inner []Option
	JWE   []Option
	Outer []Option
}

// Envelope returns outer-JWS(JWE(inner-JWS(payload))): both signatures are made by client,
// and the JWE is encrypted to server.
func Envelope(t testing.TB, client, server *Identity, payload string, opts EnvelopeOptions) string {
	t.Helper()
	inner := Sign(t, client, payload, opts.Inner...)
	encrypted := Encrypt(t, server, inner, opts.JWE...)
	return Sign(t, client, encrypted, opts.Outer...)
}
