package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fyrsmithlabs/otelboot/internal/config"
	httpserver "github.com/fyrsmithlabs/otelboot/internal/http"
	"github.com/fyrsmithlabs/otelboot/internal/logging"
	"github.com/fyrsmithlabs/otelboot/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// configPath is the host configuration file. Empty means the default location.
var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server. Telemetry is bootstrapped first when
NEXT_RUNTIME=nodejs, and flushed after SIGINT or SIGTERM once the server has
drained.

Host settings come from ~/.config/otelboot/config.yaml and OTELBOOT_*
variables, for example OTELBOOT_SERVER_PORT=8080.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, configPath)
	},
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to config file (default ~/.config/otelboot/config.yaml)")
}

// run starts the server and blocks until ctx is cancelled or the server
// fails, then shuts down the server and flushes telemetry.
func run(ctx context.Context, path string) error {
	cfg, err := config.LoadWithFile(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// Never fails; without telemetry Global returns nil.
	telemetry.Register(ctx, logger)

	server, err := httpserver.NewServer(logger, &httpserver.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}, telemetry.Global())
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error(context.Background(), "http server failed", zap.Error(serveErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "http server shutdown incomplete", zap.Error(err))
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "telemetry shutdown incomplete", zap.Error(err))
	}

	logger.Info(shutdownCtx, "shutdown complete")
	return serveErr
}

// newLogger builds the host logger from the operator-facing settings.
func newLogger(cfg config.LoggingConfig) (*logging.Logger, error) {
	logCfg := logging.NewDefaultConfig()

	level, err := logging.LevelFromString(cfg.Level)
	if err != nil {
		return nil, err
	}
	logCfg.Level = level
	logCfg.Format = cfg.Format

	return logging.NewLogger(logCfg, nil)
}

func telemetryGateOpen() bool {
	return os.Getenv(telemetry.RuntimeEnvVar) == telemetry.ServerRuntime
}
