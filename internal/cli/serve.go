package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/information-sharing-networks/dcs-checker/internal/server"
	"github.com/information-sharing-networks/dcs-checker/internal/version"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the checks as an HTTP service",
		Long: `Run the thumbprint, signing, encryption and jose checks as an HTTP JSON service.

The key material is read once at start up from the paths in SIGNING_CERTIFICATE_PATH,
ENCRYPTION_KEY_PATH and (optionally) ENCRYPTION_CERTIFICATE_PATH.

Endpoints:
  GET  /health
  GET  /version
  POST /v1/thumbprints/check
  POST /v1/jws/verify
  POST /v1/jwe/verify
  POST /v1/envelopes/verify`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			appLogger := opts.logger

			appLogger.Info("Configuration loaded",
				slog.String("ENVIRONMENT", cfg.Environment),
				slog.String("HOST", cfg.Host),
				slog.Int("PORT", cfg.Port),
				slog.String("LOG_LEVEL", cfg.LogLevel),
				slog.String("SIGNING_CERTIFICATE_PATH", cfg.SigningCertificatePath),
				slog.String("ENCRYPTION_CERTIFICATE_PATH", cfg.EncryptionCertificatePath),
				slog.String("ENCRYPTION_KEY_PATH", cfg.EncryptionKeyPath),
			)

			checker, err := server.LoadChecker(cfg, appLogger)
			if err != nil {
				return fmt.Errorf("failed to load key material: %w", err)
			}
			if cmd.Flags().Changed("payload-comparison") {
				checker.Comparison = opts.comparison
			}

			appLogger.Info("Starting server", slog.String("version", version.Get().Version))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := server.NewServer(cfg, checker, appLogger).Start(ctx); err != nil {
				appLogger.Error("Server error", slog.String("error", err.Error()))
				return err
			}

			appLogger.Info("server shutdown complete")
			return nil
		},
	}

	return cmd
}
