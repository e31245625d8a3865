package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/minerdash/minerdash/internal/config"
	"github.com/minerdash/minerdash/internal/logging"
	"github.com/minerdash/minerdash/internal/transport"
	"github.com/minerdash/minerdash/internal/ui"
	"github.com/minerdash/minerdash/internal/version"
)

// Watch command flags
var (
	watchURL     string
	watchBackend string
	watchOffline bool
	watchLogFile string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the terminal dashboard",
	Long: `Connect to a backend and show its progress bars and log level selectors.

The channel URL is derived from the backend's page URL: an https page is
reached over wss, anything else over ws, on the same host. When the
connection drops the dashboard reconnects with exponential backoff and
shows how long until the next attempt.

Level changes made here are sent immediately and shown by every other
dashboard connected to the same backend.`,
	Example: `  # Connect to the configured backend (default http://localhost:8125/)
  minerdash watch

  # Connect to a specific backend
  minerdash watch --url https://rig-01.local:8125/

  # Connect to a backend remembered by 'minerdash discover'
  minerdash watch --backend rig-01

  # Write debug logs to a file while the dashboard runs
  minerdash watch --log-level debug --log-file dash.log`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchURL, "url", "", "Backend page URL (overrides the config file)")
	watchCmd.Flags().StringVar(&watchBackend, "backend", "", "Name of a discovered backend from the config file")
	watchCmd.Flags().BoolVar(&watchOffline, "offline", false, "Run without a live connection; changes stay local")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "Write logs to this file instead of stderr")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeTo(logLevel, watchLogFile); err != nil {
		return err
	}
	defer logging.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	page, err := resolvePageURL(cfg, watchURL, watchBackend)
	if err != nil {
		return err
	}

	initial, err := cfg.LevelState()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr := transport.NewManager(page, transportOptions(cfg)...)
	defer mgr.Close()

	// Events stop with runCtx; closing the connection waits for a frame
	// blocked on a full queue
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := ui.NewEvents(runCtx, 64)
	model := ui.NewModel(ui.ModelConfig{
		URL:     mgr.URL(),
		Sender:  mgr,
		Initial: initial,
		Events:  events,
	})

	go func() {
		err := mgr.Run(runCtx, events.Frame, events.Status)
		logging.Debug("Connection manager stopped",
			zap.String("url", mgr.URL()),
			zap.Error(err),
		)
	}()

	return ui.Run(ctx, model)
}

// resolvePageURL picks the backend page URL: --url, then --backend, then
// the configured dashboard URL
func resolvePageURL(cfg *config.Config, rawURL, backend string) (*url.URL, error) {
	switch {
	case rawURL != "":
	case backend != "":
		b, ok := cfg.Backends[backend]
		if !ok {
			return nil, fmt.Errorf("unknown backend %q (run 'minerdash discover' first)", backend)
		}
		rawURL = b.URL
	default:
		rawURL = cfg.Dashboard.URL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend URL %q must be http or https", rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("backend URL %q has no host", rawURL)
	}
	return u, nil
}

func transportOptions(cfg *config.Config) []transport.Option {
	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())

	opts := []transport.Option{
		transport.WithPath(cfg.Dashboard.WSPath),
		transport.WithHeader(header),
		transport.WithBackoff(cfg.Backoff()),
	}
	if watchOffline {
		return append(opts, transport.WithDialer(nil))
	}
	return append(opts, transport.WithDialer(&websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}))
}
