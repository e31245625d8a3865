package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/minerdash/minerdash/internal/discovery"
	"github.com/minerdash/minerdash/internal/levels"
	"github.com/minerdash/minerdash/internal/logging"
	"github.com/minerdash/minerdash/internal/version"
	"go.uber.org/zap"
)

const (
	// DefaultPort is the port the backend listens on
	DefaultPort = 8125

	// DefaultPath is the path of the live channel
	DefaultPath = "/ws"

	// defaultSendQueue is the number of outbound frames buffered per client
	defaultSendQueue = 64
)

// Config holds the server configuration
type Config struct {
	Host      string
	Port      int
	Path      string // WebSocket path, DefaultPath when empty
	CertPath  string // TLS certificate; TLS is off unless both paths are set
	KeyPath   string
	LogLevel  string
	StatePath string // YAML file the levels survive restarts in (empty = not persisted)
	SendQueue int    // Outbound frames buffered per client before dropping
	Advertise string // mDNS instance name announced while serving (empty = not advertised)
}

// Server is the miner backend end of the dashboard channel
type Server struct {
	config     *Config
	subsystems *logging.Subsystems
	tlsConfig  *tls.Config
	upgrader   websocket.Upgrader
	httpServer *http.Server
	listener   net.Listener
	wg         sync.WaitGroup

	mu       sync.Mutex
	clients  map[*client]struct{}
	revision uint64
}

// New creates a Server. When subsystems is nil the server builds its own
// table on the global logger, seeded from the state file when one exists.
func New(config *Config, subsystems *logging.Subsystems) (*Server, error) {
	if config.LogLevel != "" {
		if err := logging.Initialize(config.LogLevel); err != nil {
			return nil, fmt.Errorf("failed to initialize logging: %w", err)
		}
	}
	if config.Path == "" {
		config.Path = DefaultPath
	}
	if config.SendQueue <= 0 {
		config.SendQueue = defaultSendQueue
	}

	initial := levels.Defaults()
	var revision uint64
	if config.StatePath != "" {
		var err error
		initial, revision, err = LoadState(config.StatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load level state: %w", err)
		}
	}

	if subsystems == nil {
		var err error
		subsystems, err = logging.NewSubsystems(logging.GetLogger().Core(), initial)
		if err != nil {
			return nil, err
		}
	} else if config.StatePath != "" {
		if err := subsystems.Apply(initial); err != nil {
			return nil, fmt.Errorf("failed to apply persisted levels: %w", err)
		}
	}

	var tlsConfig *tls.Config
	if config.CertPath != "" && config.KeyPath != "" {
		var err error
		tlsConfig, err = NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	return &Server{
		config:     config,
		subsystems: subsystems,
		tlsConfig:  tlsConfig,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The dashboard may be served from another origin on the LAN
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[*client]struct{}),
		revision: revision,
	}, nil
}

// Subsystems returns the live level table the channel controls
func (s *Server) Subsystems() *logging.Subsystems {
	return s.subsystems
}

// Handler returns the HTTP handler serving the channel and the health probe
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.config.Path, s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Addr returns the address the server is listening on, once started
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start listens on the configured address and serves until ctx is done or
// SIGINT/SIGTERM arrives
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if s.config.Advertise != "" {
		port := s.config.Port
		if tcp, ok := listener.Addr().(*net.TCPAddr); ok {
			port = tcp.Port
		}
		adv, err := discovery.Advertise(s.config.Advertise, port, s.txtRecords())
		if err != nil {
			logging.Warn("mDNS advertisement failed, serving without it", zap.Error(err))
		} else {
			defer adv.Shutdown()
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-sigChan:
			logging.Info("Shutdown signal received, stopping server...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return s.Serve(ctx, listener)
}

// txtRecords describes the channel to mDNS browsers
func (s *Server) txtRecords() map[string]string {
	secure := "0"
	if s.tlsConfig != nil {
		secure = "1"
	}
	return map[string]string{
		"version": version.Version,
		"path":    s.config.Path,
		"tls":     secure,
	}
}

// Serve accepts connections on listener until ctx is done
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	logging.Info("Starting minerdash backend",
		zap.String("addr", listener.Addr().String()),
		zap.String("path", s.config.Path),
		zap.Bool("tls", s.tlsConfig != nil),
		zap.String("state", s.config.StatePath),
	)
	if s.tlsConfig != nil {
		logging.Info("TLS Configuration",
			zap.Any("tls_info", GetTLSInfo(s.tlsConfig)),
		)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown stops accepting connections and closes every client
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.mu.Lock()
	httpServer := s.httpServer
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	var err error
	if httpServer != nil {
		// Hijacked websocket connections are not tracked by net/http
		if err = httpServer.Shutdown(ctx); err != nil {
			logging.Error("Error closing listener", zap.Error(err))
		}
	}

	for _, c := range clients {
		logging.Info("Closing active connection", zap.String("remote_addr", c.remote))
		c.close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return err
}

// ActiveClients returns the number of connected dashboards
func (s *Server) ActiveClients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Revision returns the number of settings changes applied so far
func (s *Server) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}
