package cli

import (
	"github.com/information-sharing-networks/dcs-checker/internal/crypto"
	"github.com/spf13/cobra"
)

func newThumbprintCmd(opts *rootOptions) *cobra.Command {
	var certificatePath, sha1Thumbprint, sha256Thumbprint string

	cmd := &cobra.Command{
		Use:   "thumbprint",
		Short: "Check the x5t and x5t#S256 thumbprints of a certificate",
		Long: `Check that the thumbprints you put in the x5t and x5t#S256 headers are correct for your certificate.

Thumbprints are the SHA-1 and SHA-256 hashes of the DER encoded certificate, base64url encoded without padding.

Example:
  dcs-check thumbprint --certificate ./client.crt --sha1-thumbprint "..." --sha256-thumbprint "..."`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run := opts.newCheck(cmd.OutOrStdout(), "thumbprint")

			cert, err := crypto.ReadCertificateFromFile(certificatePath)
			if err != nil {
				return err
			}

			if err := crypto.CheckThumbprints(cert, sha1Thumbprint, sha256Thumbprint); err != nil {
				return run.report(nil, err)
			}
			return run.report([]string{crypto.MessageThumbprintsCorrect}, nil)
		},
	}

	cmd.Flags().StringVar(&certificatePath, "certificate", "", "Path to the PEM certificate (required)")
	cmd.Flags().StringVar(&sha1Thumbprint, "sha1-thumbprint", "", "The x5t thumbprint to check (required)")
	cmd.Flags().StringVar(&sha256Thumbprint, "sha256-thumbprint", "", "The x5t#S256 thumbprint to check (required)")
	_ = cmd.MarkFlagRequired("certificate")
	_ = cmd.MarkFlagRequired("sha1-thumbprint")
	_ = cmd.MarkFlagRequired("sha256-thumbprint")

	return cmd
}
