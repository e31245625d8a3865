package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/minerdash/minerdash/internal/levels"
	"github.com/minerdash/minerdash/internal/logging"
	"go.uber.org/zap"
)

// Health is the body of the /healthz response
type Health struct {
	Status   string       `json:"status"`
	Clients  int          `json:"clients"`
	Revision uint64       `json:"revision"`
	Levels   levels.State `json:"levels"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	health := Health{
		Status:   "ok",
		Clients:  len(s.clients),
		Revision: s.revision,
		Levels:   s.subsystems.Snapshot(),
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		logging.Debug("Failed to write health response", zap.Error(err))
	}
}

// LogHTTPRequestDetails logs all details of an HTTP request
func LogHTTPRequestDetails(req *http.Request, remoteAddr string) {
	headers := make(map[string]string)
	for key, values := range req.Header {
		headers[key] = strings.Join(values, ", ")
	}

	logging.LogHTTPRequest(remoteAddr, req.Method, req.URL.Path, headers)

	// Log specific WebSocket headers at debug level
	logging.Debug("WebSocket upgrade request details",
		zap.String("remote_addr", remoteAddr),
		zap.String("host", req.Host),
		zap.String("origin", req.Header.Get("Origin")),
		zap.String("sec_websocket_version", req.Header.Get("Sec-WebSocket-Version")),
		zap.String("sec_websocket_protocol", req.Header.Get("Sec-WebSocket-Protocol")),
		zap.String("user_agent", req.Header.Get("User-Agent")),
	)
}
