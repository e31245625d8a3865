package config

import (
	"fmt"
	"time"

	"github.com/minerdash/minerdash/internal/levels"
	"github.com/minerdash/minerdash/internal/transport"
)

const (
	// DefaultDashboardURL is the backend the dashboard talks to when none is configured
	DefaultDashboardURL = "http://localhost:8125/"

	// DefaultServerPort is the port `minerdash serve` listens on
	DefaultServerPort = 8125
)

// Config represents the entire user configuration file.
type Config struct {
	Version   int                 `yaml:"version"`
	Dashboard *Dashboard          `yaml:"dashboard,omitempty"`
	Reconnect *Reconnect          `yaml:"reconnect,omitempty"`
	Levels    map[string]string   `yaml:"levels,omitempty"`   // Subsystem key -> level name overrides
	Server    *ServerPrefs        `yaml:"server,omitempty"`
	Backends  map[string]*Backend `yaml:"backends,omitempty"` // Keyed by mDNS instance name
}

// Dashboard configures where the terminal dashboard connects.
type Dashboard struct {
	URL    string `yaml:"url"`               // Page URL of the backend; https means wss
	WSPath string `yaml:"ws_path,omitempty"` // Channel path, "/ws" when empty
}

// Reconnect is the reconnect policy after the channel drops.
type Reconnect struct {
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	Multiplier float64       `yaml:"multiplier"`
	Jitter     float64       `yaml:"jitter"`
	MaxRetries int           `yaml:"max_retries"` // 0 = retry forever
}

// ServerPrefs holds defaults for `minerdash serve`.
type ServerPrefs struct {
	Host      string `yaml:"host,omitempty"`
	Port      int    `yaml:"port,omitempty"`
	StatePath string `yaml:"state_path,omitempty"`
	Advertise bool   `yaml:"advertise"`
}

// Backend is a backend found by discovery, remembered for `watch`.
type Backend struct {
	URL      string    `yaml:"url"`
	LastIP   string    `yaml:"last_ip,omitempty"`
	LastSeen time.Time `yaml:"last_seen,omitempty"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	b := transport.DefaultBackoff()
	return &Config{
		Version: 1,
		Dashboard: &Dashboard{
			URL:    DefaultDashboardURL,
			WSPath: transport.DefaultPath,
		},
		Reconnect: &Reconnect{
			Initial:    b.Initial,
			Max:        b.Max,
			Multiplier: b.Multiplier,
			Jitter:     b.Jitter,
			MaxRetries: b.MaxRetries,
		},
		Levels: make(map[string]string),
		Server: &ServerPrefs{
			Port: DefaultServerPort,
		},
		Backends: make(map[string]*Backend),
	}
}

// fillDefaults initializes sections missing from a loaded file.
func (c *Config) fillDefaults() {
	def := NewConfig()
	if c.Dashboard == nil {
		c.Dashboard = def.Dashboard
	}
	if c.Dashboard.URL == "" {
		c.Dashboard.URL = DefaultDashboardURL
	}
	if c.Dashboard.WSPath == "" {
		c.Dashboard.WSPath = transport.DefaultPath
	}
	if c.Reconnect == nil {
		c.Reconnect = def.Reconnect
	}
	if c.Levels == nil {
		c.Levels = make(map[string]string)
	}
	if c.Server == nil {
		c.Server = def.Server
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Backends == nil {
		c.Backends = make(map[string]*Backend)
	}
}

// Validate checks the level overrides and the reconnect policy.
func (c *Config) Validate() error {
	if _, err := c.LevelState(); err != nil {
		return err
	}
	if r := c.Reconnect; r != nil {
		if r.Initial < 0 || r.Max < 0 {
			return fmt.Errorf("reconnect: delays must not be negative")
		}
		if r.Jitter < 0 || r.Jitter > 1 {
			return fmt.Errorf("reconnect: jitter %v outside 0..1", r.Jitter)
		}
		if r.MaxRetries < 0 {
			return fmt.Errorf("reconnect: max_retries must not be negative")
		}
	}
	return nil
}

// LevelOverrides parses the configured level overrides. Any unknown
// subsystem or level name is an error.
func (c *Config) LevelOverrides() (map[string]levels.Level, error) {
	overrides := make(map[string]levels.Level, len(c.Levels))
	for key, name := range c.Levels {
		if _, ok := levels.Lookup(key); !ok {
			return nil, fmt.Errorf("levels: %w: %q", levels.ErrUnknownSubsystem, key)
		}
		l, err := levels.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("levels: subsystem %q: %w", key, err)
		}
		overrides[key] = l
	}
	return overrides, nil
}

// LevelState merges the configured level overrides onto the catalog
// defaults.
func (c *Config) LevelState() (levels.State, error) {
	overrides, err := c.LevelOverrides()
	if err != nil {
		return nil, err
	}
	state, err := levels.Defaults().Merge(overrides)
	if err != nil {
		return nil, fmt.Errorf("levels: %w", err)
	}
	return state, nil
}

// SetLevel records a level override by subsystem key and level name or ordinal.
func (c *Config) SetLevel(key, level string) error {
	if _, ok := levels.Lookup(key); !ok {
		return fmt.Errorf("%w: %q", levels.ErrUnknownSubsystem, key)
	}
	l, err := levels.Parse(level)
	if err != nil {
		return err
	}
	if c.Levels == nil {
		c.Levels = make(map[string]string)
	}
	c.Levels[key] = l.String()
	return nil
}

// Backoff returns the reconnect policy for the transport.
func (c *Config) Backoff() transport.Backoff {
	b := transport.DefaultBackoff()
	r := c.Reconnect
	if r == nil {
		return b
	}
	if r.Initial > 0 {
		b.Initial = r.Initial
	}
	if r.Max > 0 {
		b.Max = r.Max
	}
	if r.Multiplier >= 1 {
		b.Multiplier = r.Multiplier
	}
	b.Jitter = r.Jitter
	b.MaxRetries = r.MaxRetries
	return b
}

// RememberBackend updates the last seen address of a discovered backend.
func (c *Config) RememberBackend(instance, url, ip string) {
	if c.Backends == nil {
		c.Backends = make(map[string]*Backend)
	}
	c.Backends[instance] = &Backend{
		URL:      url,
		LastIP:   ip,
		LastSeen: time.Now(),
	}
}
