package cli

import (
	"crypto/x509"
	"strings"

	"github.com/information-sharing-networks/dcs-checker/internal/crypto"
	"github.com/information-sharing-networks/dcs-checker/internal/envelope"
	"github.com/spf13/cobra"
)

func newJoseCmd(opts *rootOptions) *cobra.Command {
	var signingCertificatePath, keyPath, encryptionCertificatePath, outer, payload string
	var skipThumbprints bool

	cmd := &cobra.Command{
		Use:   "jose",
		Short: "Check a complete signed and encrypted DCS request",
		Long: `Check a complete DCS request: the outer JWS, the JWE it carries, and the inner JWS inside the JWE.

The stages are checked in order and the first failure is reported with the name of the stage.
When --server-encryption-certificate is omitted the client signing certificate is used for the JWE thumbprint checks.

Example:
  dcs-check jose --client-signing-certificate ./client.crt --server-encryption-key ./server.key \
    --server-encryption-certificate ./server.crt --jose "eyJ..." --payload '{"documentType":"passport"}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run := opts.newCheck(cmd.OutOrStdout(), "jose")

			signingCert, err := crypto.ReadCertificateFromFile(signingCertificatePath)
			if err != nil {
				return err
			}

			key, err := crypto.ReadRSAPrivateKeyFromFile(keyPath)
			if err != nil {
				return err
			}

			var encryptionCert *x509.Certificate
			if encryptionCertificatePath != "" {
				if encryptionCert, err = crypto.ReadCertificateFromFile(encryptionCertificatePath); err != nil {
					return err
				}
			}

			profile := opts.cfg.Profile()
			if skipThumbprints {
				profile.RequireJWEThumbprints = false
			}

			result, err := envelope.Verify(run.context(cmd.Context()), envelope.Input{
				PrivateKey:            key,
				SigningCertificate:    signingCert,
				EncryptionCertificate: encryptionCert,
				Outer:                 strings.TrimSpace(outer),
				ExpectedPayload:       payload,
				Profile:               profile,
				PayloadComparison:     opts.comparison,
			})

			var messages []string
			if result != nil {
				messages = result.Messages()
			}
			return run.report(messages, err)
		},
	}

	cmd.Flags().StringVar(&signingCertificatePath, "client-signing-certificate", "", "Path to the PEM client signing certificate (required)")
	cmd.Flags().StringVar(&keyPath, "server-encryption-key", "", "Path to the DCS encryption private key, PEM or JWK (required)")
	cmd.Flags().StringVar(&encryptionCertificatePath, "server-encryption-certificate", "", "Path to the PEM DCS encryption certificate")
	cmd.Flags().StringVar(&outer, "jose", "", "The compact outer JWS to check (required)")
	cmd.Flags().StringVar(&payload, "payload", "", "The payload the inner JWS is expected to carry")
	cmd.Flags().BoolVar(&skipThumbprints, "skip-jwe-thumbprints", false, "Do not require x5t and x5t#S256 headers on the JWE")
	_ = cmd.MarkFlagRequired("client-signing-certificate")
	_ = cmd.MarkFlagRequired("server-encryption-key")
	_ = cmd.MarkFlagRequired("jose")

	return cmd
}
