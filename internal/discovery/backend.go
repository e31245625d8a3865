package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Backend represents a minerdash backend discovered on the network
type Backend struct {
	// Instance is the mDNS instance name (e.g., "rig-01")
	Instance string

	// Hostname is the mDNS hostname (e.g., "rig-01.local.")
	Hostname string

	// IP is the address, IPv4 preferred (e.g., "192.168.4.16")
	IP string

	// Port is the channel port
	Port int

	// Secure is true when the backend serves TLS (TXT "tls=1")
	Secure bool

	// Path is the channel path from TXT "path", "/ws" when absent
	Path string

	// Metadata contains all mDNS TXT record data
	// Common fields: "version=0.3.0", "tls=1", "path=/ws"
	Metadata map[string]string

	// DiscoveredAt is when the backend was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the backend
func (b *Backend) String() string {
	return fmt.Sprintf("minerdash backend %s (%s) at %s", b.Instance, b.Hostname, net.JoinHostPort(b.IP, strconv.Itoa(b.Port)))
}

// PageURL returns the URL a dashboard would be loaded from. The transport
// derives the channel scheme from it.
func (b *Backend) PageURL() string {
	scheme := "http"
	if b.Secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/", scheme, net.JoinHostPort(b.IP, strconv.Itoa(b.Port)))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (b *Backend) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}
