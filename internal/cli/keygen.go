package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/information-sharing-networks/dcs-checker/internal/crypto"
	"github.com/spf13/cobra"
)

// file naming convention - name.crt, name.key and name.private.jwk
const (
	certificateFileNameFormat = "%s.crt"
	privateKeyFileNameFormat  = "%s.key"
	jwkFileNameFormat         = "%s.private.jwk"
)

func newKeygenCmd(opts *rootOptions) *cobra.Command {
	var name, commonName, outputDir string
	var size int
	var validity time.Duration
	var writeJWK bool

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a test key pair and self-signed certificate",
		Long: `Generate an RSA key pair and a self-signed certificate to try the checks with.

The key is written in PKCS#8 PEM format (and optionally as a JWK set), the certificate in PEM format.
The thumbprints to use in the x5t and x5t#S256 headers are printed.

Example:
  dcs-check keygen --name client --common-name client.example.com --outputdir ./keys`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if commonName == "" {
				commonName = name
			}

			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			fmt.Fprintf(out, "Generating %d-bit RSA key pair for: %s\n", size, commonName)

			privateKey, err := crypto.GenerateRSAKeyPair(size)
			if err != nil {
				return err
			}

			cert, err := crypto.GenerateSelfSignedCertificate(privateKey, commonName, validity)
			if err != nil {
				return err
			}

			keyPEM, err := crypto.EncodeRSAPrivateKeyPEM(privateKey)
			if err != nil {
				return err
			}

			certFile := fmt.Sprintf(certificateFileNameFormat, name)
			if err := crypto.WriteFile(outputDir, certFile, crypto.EncodeCertificatePEM(cert), 0644); err != nil {
				return err
			}
			fmt.Fprintf(out, "Certificate: %s\n", filepath.Join(outputDir, certFile))

			keyFile := fmt.Sprintf(privateKeyFileNameFormat, name)
			if err := crypto.WriteFile(outputDir, keyFile, keyPEM, 0600); err != nil {
				return err
			}
			fmt.Fprintf(out, "Private key: %s\n", filepath.Join(outputDir, keyFile))

			if writeJWK {
				keyID, err := crypto.GenerateKeyIDFromRSAKey(&privateKey.PublicKey)
				if err != nil {
					return err
				}
				key, err := crypto.RSAPrivateKeyToJWK(privateKey, keyID)
				if err != nil {
					return err
				}
				data, err := crypto.MarshalJWKSet(key)
				if err != nil {
					return err
				}

				jwkFile := fmt.Sprintf(jwkFileNameFormat, name)
				if err := crypto.WriteFile(outputDir, jwkFile, data, 0600); err != nil {
					return err
				}
				fmt.Fprintf(out, "Private JWK: %s (kid: %s)\n", filepath.Join(outputDir, jwkFile), keyID)
			}

			tp := crypto.GenerateThumbprints(cert)
			fmt.Fprintf(out, "x5t: %s\n", tp.SHA1)
			fmt.Fprintf(out, "x5t#S256: %s\n", tp.SHA256)

			opts.logger.Debug("generated key material",
				slog.String("common_name", commonName),
				slog.String("output_dir", outputDir))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "File name prefix for the generated files (required)")
	cmd.Flags().StringVar(&commonName, "common-name", "", "Certificate subject common name (default: --name)")
	cmd.Flags().StringVarP(&outputDir, "outputdir", "o", ".", "Output directory for the generated files")
	cmd.Flags().IntVarP(&size, "size", "s", 2048, "RSA key size in bits")
	cmd.Flags().DurationVar(&validity, "validity", 365*24*time.Hour, "Certificate validity period")
	cmd.Flags().BoolVar(&writeJWK, "jwk", false, "Also write the private key as a JWK set")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
