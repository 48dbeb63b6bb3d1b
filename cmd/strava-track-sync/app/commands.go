// Package app provides the command line interface of strava-track-sync.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/strava-track-sync/internal/versions"
)

// NewRootCmd creates the root command. Running it without a subcommand
// performs one sync. level is raised to debug when --debug is given.
func NewRootCmd(level *slog.LevelVar) *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:               "strava-track-sync",
		DisableAutoGenTag: true,
		Short:             "Synchronize Strava activities into GeoJSON map artifacts",
		Long: `strava-track-sync refreshes a Strava access token, lists the most recent
activities, downloads their GPS streams and writes a GeoJSON track, the latest
known position and a state record for a static map front end.

Credentials are read from STRAVA_CLIENT_ID, STRAVA_CLIENT_SECRET and
STRAVA_REFRESH_TOKEN. Everything else comes from the optional YAML
configuration file (--config, or strava-track-sync/config.yaml in the XDG
config directories).`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if v.GetBool("debug") && level != nil {
				level.Set(slog.LevelDebug)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, v.GetString("config"))
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	if err := v.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		slog.Error("Error binding debug flag", "error", err)
	}
	rootCmd.Flags().String("config", "", "Path to configuration file (YAML format, optional)")
	if err := v.BindPFlag("config", rootCmd.Flags().Lookup("config")); err != nil {
		slog.Error("Error binding config flag", "error", err)
	}

	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("error retrieving format flag: %w", err)
			}

			switch format {
			case "json":
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("error formatting version info as JSON: %w", err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(output))
			case "":
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "strava-track-sync %s (commit %s, built %s, %s, %s)\n",
					info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
			default:
				return fmt.Errorf("unsupported format %q", format)
			}
			return nil
		},
	}
	versionCmd.Flags().String("format", "", "Output format (json)")
	return versionCmd
}
