package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/minerdash/minerdash/internal/logging"
	"github.com/minerdash/minerdash/internal/protocol"
	"go.uber.org/zap"
)

// DefaultPath is where the backend serves the live channel
const DefaultPath = "/ws"

// Dialer opens WebSocket connections. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Scheme returns the WebSocket scheme matching the security of the page the
// dashboard was loaded from: wss for https, ws otherwise.
func Scheme(page *url.URL) string {
	if page != nil && strings.EqualFold(page.Scheme, "https") {
		return "wss"
	}
	return "ws"
}

// Endpoint builds the channel URL on the page's own host
func Endpoint(page *url.URL, path string) string {
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	host := ""
	if page != nil {
		host = page.Host
	}
	u := url.URL{Scheme: Scheme(page), Host: host, Path: path}
	return u.String()
}

// Status is what Run reports to the operator on every state change
type Status struct {
	State   State
	Attempt int           // Reconnect attempt number, 0 while connected
	Delay   time.Duration // Wait before the next attempt
	Err     error         // Why the last connection ended or failed
}

// Option configures a Manager
type Option func(*Manager)

// WithDialer sets the dialer. A nil dialer means no live-socket capability:
// Connect then returns the null connection.
func WithDialer(d Dialer) Option {
	return func(m *Manager) { m.dialer = d }
}

// WithPath sets the channel path on the page host
func WithPath(path string) Option {
	return func(m *Manager) { m.path = path }
}

// WithHeader adds request headers to every dial
func WithHeader(h http.Header) Option {
	return func(m *Manager) { m.header = h }
}

// WithBackoff sets the reconnect policy used by Run
func WithBackoff(b Backoff) Option {
	return func(m *Manager) { m.backoff = b }
}

// Manager owns the dashboard's single connection to the backend. At most one
// connection is live at any time; connecting again replaces the old one.
type Manager struct {
	page    *url.URL
	path    string
	dialer  Dialer
	header  http.Header
	backoff Backoff

	mu      sync.Mutex
	current *Conn
}

// NewManager creates a connection manager for a dashboard loaded from page
func NewManager(page *url.URL, opts ...Option) *Manager {
	m := &Manager{
		page:    page,
		path:    DefaultPath,
		dialer:  websocket.DefaultDialer,
		backoff: DefaultBackoff(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// URL returns the endpoint the manager dials
func (m *Manager) URL() string {
	return Endpoint(m.page, m.path)
}

// Current returns the connection most recently returned by Connect
func (m *Manager) Current() *Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Connect closes any existing connection, then dials a new one and starts
// handing inbound frames to onMessage. Without a dialer it returns the null
// connection together with a TransportUnavailable error the caller may
// ignore.
func (m *Manager) Connect(ctx context.Context, onMessage Handler) (*Conn, error) {
	m.mu.Lock()
	prev := m.current
	m.current = nil
	m.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}

	if isNilDialer(m.dialer) {
		null := newNullConn()
		m.mu.Lock()
		m.current = null
		m.mu.Unlock()
		return null, protocol.NewError(protocol.ErrTypeTransportUnavailable,
			"no live-socket capability, running without a connection", nil)
	}

	endpoint := m.URL()
	conn := newConn(endpoint)
	m.mu.Lock()
	m.current = conn
	m.mu.Unlock()

	ws, resp, err := m.dialer.DialContext(ctx, endpoint, m.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		conn.finish(err)
		return conn, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	if !conn.attach(ws) {
		return conn, protocol.NewError(protocol.ErrTypeConnectionClosed, "connection replaced while dialing", conn.Err())
	}
	logging.LogConnection(endpoint, "websocket_connected")

	// A concurrent Connect may already have replaced this one.
	if m.Current() != conn {
		conn.finish(nil)
		return conn, protocol.NewError(protocol.ErrTypeConnectionClosed, "connection replaced while dialing", nil)
	}

	go conn.readLoop(onMessage)
	return conn, nil
}

// Close closes the current connection, if any
func (m *Manager) Close() error {
	m.mu.Lock()
	c := m.current
	m.current = nil
	m.mu.Unlock()
	return c.Close()
}

// Send writes msg on the current connection. With no connection it is a
// no-op, matching the null connection.
func (m *Manager) Send(msg protocol.Message) error {
	return m.Current().Send(msg)
}

// Offline reports whether the manager is running on the null connection.
// Between connections it is not offline; updates are lost, not local.
func (m *Manager) Offline() bool {
	c := m.Current()
	return c != nil && c.null
}

// Run keeps a connection up until ctx is done. After a drop it waits
// according to the backoff policy and reconnects; once the retry budget is
// spent it reports StateFailed and returns. A successful connection resets
// the budget.
func (m *Manager) Run(ctx context.Context, onMessage Handler, onStatus func(Status)) error {
	report := func(s Status) {
		if onStatus != nil {
			onStatus(s)
		}
	}

	attempt := 0
	for {
		report(Status{State: StateConnecting, Attempt: attempt})

		conn, err := m.Connect(ctx, onMessage)
		if protocol.IsType(err, protocol.ErrTypeTransportUnavailable) {
			report(Status{State: StateFailed, Err: err})
			return err
		}

		if err == nil {
			attempt = 0
			report(Status{State: StateConnected})

			select {
			case <-conn.Done():
				err = conn.Err()
				logging.Info("Connection lost",
					zap.String("remote_addr", conn.Remote()),
					zap.Error(err),
				)
			case <-ctx.Done():
				_ = m.Close()
				report(Status{State: StateDisconnected})
				return ctx.Err()
			}
		}

		if ctx.Err() != nil {
			report(Status{State: StateDisconnected, Err: err})
			return ctx.Err()
		}

		if m.backoff.exhausted(attempt) {
			failure := fmt.Errorf("giving up after %d reconnect attempts: %w", attempt, err)
			report(Status{State: StateFailed, Attempt: attempt, Err: failure})
			return failure
		}

		delay := m.backoff.Delay(attempt)
		attempt++
		report(Status{State: StateReconnecting, Attempt: attempt, Delay: delay, Err: err})
		logging.Debug("Reconnecting",
			zap.String("url", m.URL()),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			report(Status{State: StateDisconnected, Err: err})
			return ctx.Err()
		}
	}
}

func isNilDialer(d Dialer) bool {
	if d == nil {
		return true
	}
	if wd, ok := d.(*websocket.Dialer); ok && wd == nil {
		return true
	}
	return false
}
