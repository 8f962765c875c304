package cli

import (
	"strings"

	"github.com/information-sharing-networks/dcs-checker/internal/crypto"
	"github.com/spf13/cobra"
)

func newSigningCmd(opts *rootOptions) *cobra.Command {
	var certificatePath, compactJWS, payload string

	cmd := &cobra.Command{
		Use:   "signing",
		Short: "Check a JWS signed with your client signing certificate",
		Long: `Check a compact JWS: the signature, the alg, x5t and x5t#S256 headers, and optionally the payload.

When --payload is omitted the extracted payload is printed.

Example:
  dcs-check signing --client-signing-certificate ./client.crt --jws "eyJ..." --payload "hello"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run := opts.newCheck(cmd.OutOrStdout(), "signing")

			cert, err := crypto.ReadCertificateFromFile(certificatePath)
			if err != nil {
				return err
			}

			// pasted values often carry a trailing newline
			result, err := crypto.VerifyJWS(cert, strings.TrimSpace(compactJWS), crypto.VerifyOptions{
				Profile:           opts.cfg.Profile(),
				ExpectedPayload:   payload,
				PayloadComparison: opts.comparison,
			})
			return run.report(result.Progress(), err)
		},
	}

	cmd.Flags().StringVar(&certificatePath, "client-signing-certificate", "", "Path to the PEM client signing certificate (required)")
	cmd.Flags().StringVar(&compactJWS, "jws", "", "The compact JWS to check (required)")
	cmd.Flags().StringVar(&payload, "payload", "", "The payload the JWS is expected to carry")
	_ = cmd.MarkFlagRequired("client-signing-certificate")
	_ = cmd.MarkFlagRequired("jws")

	return cmd
}
