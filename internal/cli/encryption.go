package cli

import (
	"crypto/x509"
	"strings"

	"github.com/information-sharing-networks/dcs-checker/internal/crypto"
	"github.com/spf13/cobra"
)

func newEncryptionCmd(opts *rootOptions) *cobra.Command {
	var keyPath, certificatePath, compactJWE, payload string
	var skipThumbprints bool

	cmd := &cobra.Command{
		Use:   "encryption",
		Short: "Check a JWE encrypted to the DCS encryption certificate",
		Long: `Check a compact JWE: decryption, the alg, enc, x5t and x5t#S256 headers, and optionally the payload.

The encryption key can be a PEM (PKCS#1 or PKCS#8) RSA private key or a JWK.
The certificate is needed for the thumbprint checks unless --skip-jwe-thumbprints is set.

Example:
  dcs-check encryption --server-encryption-key ./server.key --server-encryption-certificate ./server.crt --jwe "eyJ..."`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run := opts.newCheck(cmd.OutOrStdout(), "encryption")

			key, err := crypto.ReadRSAPrivateKeyFromFile(keyPath)
			if err != nil {
				return err
			}

			var cert *x509.Certificate
			if certificatePath != "" {
				if cert, err = crypto.ReadCertificateFromFile(certificatePath); err != nil {
					return err
				}
			}

			profile := opts.cfg.Profile()
			if skipThumbprints {
				profile.RequireJWEThumbprints = false
			}

			result, err := crypto.VerifyJWE(key, cert, strings.TrimSpace(compactJWE), crypto.VerifyOptions{
				Profile:           profile,
				ExpectedPayload:   payload,
				PayloadComparison: opts.comparison,
			})
			return run.report(result.Progress(), err)
		},
	}

	cmd.Flags().StringVar(&keyPath, "server-encryption-key", "", "Path to the DCS encryption private key, PEM or JWK (required)")
	cmd.Flags().StringVar(&certificatePath, "server-encryption-certificate", "", "Path to the PEM DCS encryption certificate")
	cmd.Flags().StringVar(&compactJWE, "jwe", "", "The compact JWE to check (required)")
	cmd.Flags().StringVar(&payload, "payload", "", "The payload the JWE is expected to carry")
	cmd.Flags().BoolVar(&skipThumbprints, "skip-jwe-thumbprints", false, "Do not require x5t and x5t#S256 headers on the JWE")
	_ = cmd.MarkFlagRequired("server-encryption-key")
	_ = cmd.MarkFlagRequired("jwe")

	return cmd
}
