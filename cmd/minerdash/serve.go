package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/minerdash/minerdash/internal/config"
	"github.com/minerdash/minerdash/internal/logging"
	"github.com/minerdash/minerdash/internal/server"
)

// Serve command flags
var (
	serveHost      string
	servePort      int
	serveCert      string
	serveKey       string
	serveState     string
	serveDemo      bool
	serveDemoTick  time.Duration
	serveAdvertise bool
	serveInstance  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the backend end of the dashboard channel",
	Long: `Serve the live channel dashboards connect to.

Every subsystem gets its own logger whose verbosity dashboards change at
runtime. Accepted changes are acknowledged to the sender, pushed to every
other dashboard and written to the state file so they survive a restart.

With --demo the backend runs simulated plot generation and verification
jobs so there is progress to watch.`,
	Example: `  # Serve on the default port with simulated jobs
  minerdash serve --demo

  # Serve over TLS and announce the backend on the LAN
  minerdash serve --cert cert.pem --key key.pem --advertise

  # Keep levels across restarts in a custom file
  minerdash serve --state /var/lib/minerdash/levels.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen address (empty = all interfaces)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, fmt.Sprintf("Listen port (default %d)", server.DefaultPort))
	serveCmd.Flags().StringVar(&serveCert, "cert", "", "Path to TLS certificate file")
	serveCmd.Flags().StringVar(&serveKey, "key", "", "Path to TLS private key file")
	serveCmd.Flags().StringVar(&serveState, "state", "", "Level state file (default: levels.yaml in the config directory)")
	serveCmd.Flags().BoolVar(&serveDemo, "demo", false, "Run simulated generation and verification jobs")
	serveCmd.Flags().DurationVar(&serveDemoTick, "demo-tick", 25*time.Millisecond, "Time per simulated work unit")
	serveCmd.Flags().BoolVar(&serveAdvertise, "advertise", false, "Announce the backend over mDNS")
	serveCmd.Flags().StringVar(&serveInstance, "instance", "", "mDNS instance name (default: hostname)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if (serveCert != "") != (serveKey != "") {
		return errors.New("both --cert and --key must be provided together, or neither")
	}
	if serveCert != "" {
		if _, err := os.Stat(serveCert); os.IsNotExist(err) {
			return fmt.Errorf("certificate file not found: %s", serveCert)
		}
		if _, err := os.Stat(serveKey); os.IsNotExist(err) {
			return fmt.Errorf("private key file not found: %s", serveKey)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	srvConfig, err := serverConfig(cfg)
	if err != nil {
		return err
	}

	// Configured levels seed a backend that has no state file yet; after
	// that the dashboards own them
	_, statErr := os.Stat(srvConfig.StatePath)
	fresh := os.IsNotExist(statErr)

	srv, err := server.New(srvConfig, nil)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if fresh && len(cfg.Levels) > 0 {
		overrides, err := cfg.LevelOverrides()
		if err != nil {
			return err
		}
		if err := srv.SetLevels(overrides); err != nil {
			return fmt.Errorf("failed to apply configured levels: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if serveDemo {
		go func() {
			if err := srv.Simulate(ctx, serveDemoTick); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error("Simulation stopped", zap.Error(err))
			}
		}()
	}

	return srv.Start(ctx)
}

// serverConfig merges the serve flags over the config file's server section
func serverConfig(cfg *config.Config) (*server.Config, error) {
	prefs := cfg.Server

	sc := &server.Config{
		Host:      prefs.Host,
		Port:      prefs.Port,
		CertPath:  serveCert,
		KeyPath:   serveKey,
		StatePath: prefs.StatePath,
		LogLevel:  serveLogLevel(),
	}
	if serveHost != "" {
		sc.Host = serveHost
	}
	if servePort != 0 {
		sc.Port = servePort
	}
	if sc.Port == 0 {
		sc.Port = server.DefaultPort
	}

	if serveState != "" {
		sc.StatePath = serveState
	}
	if sc.StatePath == "" {
		path, err := config.DefaultStatePath()
		if err != nil {
			return nil, err
		}
		sc.StatePath = path
	}

	if serveAdvertise || prefs.Advertise {
		sc.Advertise = serveInstance
		if sc.Advertise == "" {
			host, err := os.Hostname()
			if err != nil {
				return nil, fmt.Errorf("cannot pick an mDNS instance name: %w", err)
			}
			sc.Advertise = host
		}
	}
	return sc, nil
}

// serveLogLevel is the backend process log level: the flag, then the
// environment, then info
func serveLogLevel() string {
	if logLevel != "" {
		return logLevel
	}
	if env := os.Getenv(logging.LogLevelEnvVar); env != "" {
		return env
	}
	return "info"
}
