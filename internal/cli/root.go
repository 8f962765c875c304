package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/information-sharing-networks/dcs-checker/internal/config"
	"github.com/information-sharing-networks/dcs-checker/internal/crypto"
	"github.com/information-sharing-networks/dcs-checker/internal/logger"
	"github.com/information-sharing-networks/dcs-checker/internal/version"
	"github.com/spf13/cobra"
)

// rootOptions holds the settings shared by every command.
// The flags override the equivalent environment variables.
type rootOptions struct {
	logLevel          string
	payloadComparison string

	cfg        *config.Environment
	logger     *slog.Logger
	comparison crypto.PayloadComparison
}

func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		return err
	}
	o.cfg = cfg

	level := cfg.LogLevel
	if cmd.Flags().Changed("log-level") {
		level = o.logLevel
	}
	o.logger = logger.InitLogger(logger.ParseLogLevel(level), cfg.Environment)

	o.comparison = cfg.Comparison()
	if cmd.Flags().Changed("payload-comparison") {
		if o.comparison, err = crypto.ParsePayloadComparison(o.payloadComparison); err != nil {
			return err
		}
	}
	return nil
}

// NewRootCmd builds the dcs-check command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:               "dcs-check",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Short:             "Check JOSE objects for the Document Checking Service",
		Long: `Check that the JOSE objects a client sends to the Document Checking Service (DCS) are correctly formed.

A DCS request is a payload signed into an inner JWS, encrypted into a JWE, and signed again into an outer JWS.
Each layer can be checked on its own (signing, encryption) or the whole request at once (jose).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (default $LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&opts.payloadComparison, "payload-comparison", "", "Payload comparison: exact or json (default $PAYLOAD_COMPARISON)")

	rootCmd.AddCommand(
		newThumbprintCmd(opts),
		newSigningCmd(opts),
		newEncryptionCmd(opts),
		newJoseCmd(opts),
		newServeCmd(opts),
		newKeygenCmd(opts),
	)

	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	return rootCmd
}

// Execute runs the command line. A failed check exits with status 1 after its diagnostics are printed.
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errCheckFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
