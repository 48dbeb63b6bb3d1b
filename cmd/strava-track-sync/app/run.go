package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"github.com/stacklok/strava-track-sync/internal/config"
	"github.com/stacklok/strava-track-sync/internal/sync"
	"github.com/stacklok/strava-track-sync/internal/telemetry"
	"github.com/stacklok/strava-track-sync/internal/versions"
)

const (
	// xdgConfigFile is looked up in the XDG config directories when --config is not given
	xdgConfigFile = "strava-track-sync/config.yaml"

	telemetryShutdownTimeout = 10 * time.Second
)

func runSync(cmd *cobra.Command, configPath string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}
	cfg.Credentials = creds

	if cfg.Telemetry != nil && cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = versions.GetVersionInfo().Version
	}
	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryShutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Failed to shutdown telemetry", "error", err)
		}
	}()

	metrics, err := telemetry.NewSyncMetrics(tel.MeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create sync metrics: %w", err)
	}

	manager := sync.NewManager(cfg,
		sync.WithTracer(tel.Tracer(sync.TracerName)),
		sync.WithMetrics(metrics),
	)
	result, err := manager.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), cfg.Output.TrackPath, result)
	return nil
}

// loadConfig loads the file given by --config, else the first XDG config file
// found, else the built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		found, err := xdg.SearchConfigFile(xdgConfigFile)
		if err != nil {
			slog.Debug("No configuration file found, using defaults")
			return config.LoadConfig()
		}
		path = found
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration", "path", path)
	return cfg, nil
}

func printSummary(w io.Writer, trackPath string, result *sync.Result) {
	_, _ = fmt.Fprintf(w, "Wrote %d activities to %s.\n", result.FeatureCount, trackPath)
	if result.Latest == nil {
		_, _ = fmt.Fprintln(w, "No GPS streams found (check Strava privacy/scope).")
	}
}
