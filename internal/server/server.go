package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/information-sharing-networks/dcs-checker/internal/config"
	"github.com/information-sharing-networks/dcs-checker/internal/crypto"
	"github.com/information-sharing-networks/dcs-checker/internal/metrics"
	"github.com/information-sharing-networks/dcs-checker/internal/server/handlers"
	appmiddleware "github.com/information-sharing-networks/dcs-checker/internal/server/middleware"
	"github.com/information-sharing-networks/dcs-checker/internal/version"
)

// requestTimeout bounds the time spent handling one request
const requestTimeout = 60 * time.Second

type Server struct {
	config   *config.Environment
	logger   *slog.Logger
	router   *chi.Mux
	checker  *handlers.Checker
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// NewServer creates the server. The checker's Metrics are set to the server's metrics.
func NewServer(cfg *config.Environment, checker *handlers.Checker, logger *slog.Logger) *Server {
	server := &Server{
		config:   cfg,
		logger:   logger,
		router:   chi.NewRouter(),
		checker:  checker,
		registry: prometheus.NewRegistry(),
	}

	server.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m, err := metrics.NewMetrics(server.registry)
	if err != nil {
		// only possible if the collectors are registered twice
		logger.Error("failed to register metrics", slog.String("error", err.Error()))
	}
	server.metrics = m
	checker.Metrics = m

	server.setupMiddleware()
	server.registerRoutes()

	return server
}

// LoadChecker reads the key material named in the configuration and checks the key belongs to the encryption certificate.
func LoadChecker(cfg *config.Environment, logger *slog.Logger) (*handlers.Checker, error) {
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}

	signingCert, err := crypto.ReadCertificateFromFile(cfg.SigningCertificatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing certificate: %w", err)
	}

	checker := &handlers.Checker{
		SigningCertificate: signingCert,
		Profile:            cfg.Profile(),
		Comparison:         cfg.Comparison(),
	}

	if cfg.EncryptionCertificatePath != "" {
		if checker.EncryptionCertificate, err = crypto.ReadCertificateFromFile(cfg.EncryptionCertificatePath); err != nil {
			return nil, fmt.Errorf("failed to load encryption certificate: %w", err)
		}
	}

	if checker.EncryptionKey, err = crypto.ReadRSAPrivateKeyFromFile(cfg.EncryptionKeyPath); err != nil {
		return nil, fmt.Errorf("failed to load encryption key: %w", err)
	}

	encryptionCert := checker.EncryptionCertificate
	if encryptionCert == nil {
		encryptionCert = signingCert
	}
	if err := crypto.ValidateKeyMatchesCertificate(encryptionCert, checker.EncryptionKey); err != nil {
		// a mismatched key is reported on every JWE check, so it is not fatal here
		logger.Warn("encryption key does not match the encryption certificate",
			slog.String("error", err.Error()))
	}

	tp := crypto.GenerateThumbprints(signingCert)
	logger.Info("key material loaded",
		slog.String("signing_certificate", signingCert.Subject.String()),
		slog.String("signing_x5t", tp.SHA1),
		slog.String("signing_x5t#S256", tp.SHA256),
		slog.Bool("require_jwe_thumbprints", checker.Profile.RequireJWEThumbprints),
		slog.String("payload_comparison", string(checker.Comparison)))

	return checker, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(appmiddleware.RequestLogging(s.logger))
	s.router.Use(appmiddleware.RequestMetrics(s.metrics))
	s.router.Use(middleware.Recoverer)
	s.router.Use(appmiddleware.SecurityHeaders(s.config.Environment))
	s.router.Use(middleware.Timeout(requestTimeout))
}

func (s *Server) registerRoutes() {
	s.router.Get("/health", handlers.HandleHealth)
	s.router.Get("/version", handlers.HandleVersion(version.Get()))
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router.Route("/v1", func(r chi.Router) {
		r.Use(appmiddleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
		r.Use(appmiddleware.RequestSizeLimit(s.config.MaxRequestSize))

		r.Post("/thumbprints/check", s.checker.HandleThumbprintCheck)
		r.Post("/jws/verify", s.checker.HandleJWSVerify)
		r.Post("/jwe/verify", s.checker.HandleJWEVerify)
		r.Post("/envelopes/verify", s.checker.HandleEnvelopeVerify)
	})
}

// ServeHTTP routes a request; it lets the server be used directly in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens on the configured address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", serverAddr))

		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}
