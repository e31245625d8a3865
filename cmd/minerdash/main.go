// Minerdash is a live dashboard for a cryptocurrency miner backend.
//
// The backend ("minerdash serve") exposes its per-subsystem log levels and
// its plot generation/verification progress over a WebSocket channel. The
// terminal dashboard ("minerdash watch") renders both and lets the operator
// change log levels while the miner runs.
//
// Usage:
//
//	minerdash [command] [flags]
//
// See 'minerdash --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minerdash/minerdash/internal/config"
	"github.com/minerdash/minerdash/internal/logging"
	"github.com/minerdash/minerdash/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "minerdash",
	Short: "Miner log level and progress dashboard",
	Long: `A live dashboard for a miner backend.

The backend publishes plot generation and verification progress and lets
dashboards change the verbosity of each of its subsystems at runtime.
Every connected dashboard sees the same levels.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (default: OS config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when empty unless "+logging.LogLevelEnvVar+" is set")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads --config, or the default config file
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

// saveConfig writes cfg back where loadConfig read it from
func saveConfig(cfg *config.Config) error {
	if configPath != "" {
		return cfg.SaveTo(configPath)
	}
	return cfg.Save()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "minerdash %s (commit: %s, %s, %s)\n",
			info.Version, info.Commit, info.GoVersion, info.Platform)
	},
}
