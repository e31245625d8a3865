package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/minerdash/minerdash/internal/discovery"
	"github.com/minerdash/minerdash/internal/logging"
	"github.com/minerdash/minerdash/internal/ui"
)

// Discover command flags
var (
	discoverTimeout time.Duration
	discoverNoSave  bool
)

var errNoBackends = errors.New("no backends answered")

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find minerdash backends on the local network",
	Long: `Scan for backends announced over mDNS/DNS-SD.

Backends started with 'minerdash serve --advertise' answer the scan. Every
backend found is remembered in the config file so 'minerdash watch
--backend <name>' can reach it later.`,
	Example: `  # Scan for 5 seconds (default)
  minerdash discover

  # Scan longer on a slow network
  minerdash discover --timeout 15s

  # Only list, leave the config file alone
  minerdash discover --no-save`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", discovery.DefaultScanTimeout, "How long to wait for answers")
	discoverCmd.Flags().BoolVar(&discoverNoSave, "no-save", false, "Do not remember found backends in the config file")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	defer logging.Sync()

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader("Backend discovery", "mDNS "+discovery.ServiceType, ui.Param{Key: "Timeout", Value: discoverTimeout.String()})

	scanner := discovery.NewScanner()
	if discoverTimeout > 0 {
		scanner.Timeout = discoverTimeout
	}

	backends, err := scanner.Scan(cmd.Context())
	if err != nil && !errors.Is(err, context.Canceled) {
		p.PrintError("Scan failed", err, []string{
			"Check that multicast is allowed on this network interface",
			"Use 'minerdash watch --url' to connect without discovery",
		})
		return err
	}

	if len(backends) == 0 {
		p.PrintError("No backends found", errNoBackends, []string{
			"Start the backend with 'minerdash serve --advertise'",
			"Make sure this machine is on the same network segment",
			"Try increasing --timeout for slower networks",
			"Use 'minerdash watch --url' if the backend address is known",
		})
		return nil
	}

	for _, b := range backends {
		p.PrintSuccess(b.Instance, backendDetails(b)...)
	}

	if discoverNoSave {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	for _, b := range backends {
		cfg.RememberBackend(b.Instance, b.PageURL(), b.IP)
	}
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("failed to remember backends: %w", err)
	}

	p.Println(fmt.Sprintf("Use 'minerdash watch --backend %s' to open the dashboard", backends[0].Instance))
	return nil
}

// backendDetails lists what the operator needs to pick a backend
func backendDetails(b *discovery.Backend) []ui.Param {
	details := []ui.Param{
		{Key: "URL", Value: b.PageURL()},
		{Key: "Host", Value: b.Hostname},
		{Key: "Channel", Value: b.Path},
		{Key: "TLS", Value: strconv.FormatBool(b.Secure)},
	}
	if v := b.GetMetadata("version"); v != "" {
		details = append(details, ui.Param{Key: "Version", Value: v})
	}
	return details
}
