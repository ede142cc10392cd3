package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labpulse/internal/config"
	apperrors "labpulse/internal/errors"
	"labpulse/internal/infrastructure"
)

// shutdownTimeout bounds the flush of telemetry on exit
const shutdownTimeout = 5 * time.Second

// Options selects the configuration of an Application
type Options struct {
	// ConfigFile is the YAML file to load. Empty searches the usual locations.
	ConfigFile string
	// BaseDir resolves relative paths. Empty means the working directory.
	BaseDir string
	// Component names the binary in log records.
	Component string
}

// Application holds the resolved configuration and the observability
// stack shared by the batch commands
type Application struct {
	Config    *config.Config
	Paths     *config.Paths
	Logger    *slog.Logger
	Telemetry *infrastructure.Telemetry
}

// New loads configuration, prepares directories, starts the global logger
// and initializes telemetry. Configuration problems come back as CONFIG
// errors.
func New(opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load configuration", err)
	}

	paths, err := config.GetPaths(cfg, opts.BaseDir)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to resolve paths", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	logCfg := cfg.Logging
	logCfg.FilePath = paths.LogFile
	logger, err := infrastructure.InitializeLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if opts.Component != "" {
		logger = infrastructure.WithComponent(logger, opts.Component)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))
	paths.LogPathResolution(logger)

	telemetry, err := infrastructure.InitializeTelemetry(cfg.Telemetry, paths.TraceFile, logger)
	if err != nil {
		_ = infrastructure.CloseLogFile()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	return &Application{
		Config:    cfg,
		Paths:     paths,
		Logger:    logger,
		Telemetry: telemetry,
	}, nil
}

// Context returns a context that carries a fresh trace ID and is cancelled
// on SIGINT or SIGTERM
func (a *Application) Context() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return infrastructure.EnsureTraceID(ctx), stop
}

// Close writes the metrics snapshot, flushes telemetry and closes the log
// file. It reports the first failure but always attempts every step.
func (a *Application) Close() error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	if a.Config.Telemetry.EnableMetrics && a.Paths.MetricsFile != "" {
		if err := a.Telemetry.WriteMetrics(a.Paths.MetricsFile); err != nil {
			a.Logger.Error("Failed to write metrics", slog.String("error", err.Error()))
			keep(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Telemetry.Shutdown(ctx); err != nil {
		a.Logger.Error("Failed to shut down telemetry", slog.String("error", err.Error()))
		keep(err)
	}

	a.Logger.Info("Application stopped")
	keep(infrastructure.CloseLogFile())
	return first
}

// ExitCode maps a run error to a process exit status: 0 on success, 2 for
// configuration problems and 1 for anything else
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case apperrors.IsType(err, apperrors.ErrTypeConfig):
		return 2
	default:
		return 1
	}
}

// Fatal reports err on stderr and exits with ExitCode(err)
func Fatal(err error) {
	if apperrors.IsType(err, apperrors.ErrTypeConfig) {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(ExitCode(err))
}
