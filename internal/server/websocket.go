package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/minerdash/minerdash/internal/logging"
	"github.com/minerdash/minerdash/internal/protocol"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// client is one connected dashboard
type client struct {
	srv    *Server
	ws     *websocket.Conn
	remote string
	router *protocol.Router

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// handleWebSocket upgrades the request and runs the client until it leaves
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	LogHTTPRequestDetails(r, r.RemoteAddr)

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("Invalid WebSocket upgrade request",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &client{
		srv:    s,
		ws:     ws,
		remote: r.RemoteAddr,
		send:   make(chan []byte, s.config.SendQueue),
		done:   make(chan struct{}),
	}
	c.router = protocol.NewRouter()
	c.router.Register(protocol.HandlerFunc(func(msg protocol.Message) error {
		return s.applyUpdate(c, msg.(*protocol.SettingsUpdate))
	}), protocol.TypeSettingsUpdate)

	s.register(c)
	logging.LogConnection(c.remote, "websocket_upgraded")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		c.writePump()
	}()

	c.readPump()
	s.unregister(c)
	c.close()
}

// register adds c and queues the current state as its first frame
func (s *Server) register(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients[c] = struct{}{}
	initial := &protocol.SettingsSync{Revision: s.revision, Values: s.subsystems.Snapshot()}
	if data, err := protocol.Encode(initial); err == nil {
		c.enqueue(data)
	}
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

// readPump is the client's single inbound dispatcher
func (c *client) readPump() {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info("Connection closed or error reading frame",
					zap.String("remote_addr", c.remote),
					zap.Error(err),
				)
			}
			return
		}

		logging.LogWebSocketMessage(c.remote, "received", mt, data)
		if mt != websocket.TextMessage {
			logging.Warn("Ignoring non-text frame",
				zap.String("remote_addr", c.remote),
				zap.Int("message_type", mt),
			)
			continue
		}

		// Errors are logged by the router and answered by applyUpdate
		_ = c.router.Handle(c.remote, data)
	}
}

// writePump owns every write on the connection
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Info("Failed to send message",
					zap.String("remote_addr", c.remote),
					zap.Error(err),
				)
				c.close()
				return
			}
			logging.LogWebSocketMessage(c.remote, "sent", websocket.TextMessage, data)

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}

		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// enqueue queues data for the writer without blocking. Frames for a client
// that is not keeping up are dropped.
func (c *client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		logging.Warn("Client send queue full, dropping frame",
			zap.String("remote_addr", c.remote),
			zap.Int("length", len(data)),
		)
		return false
	}
}

func (c *client) enqueueMessage(msg protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		logging.Error("Failed to encode message",
			zap.String("type", msg.Type()),
			zap.Error(err),
		)
		return
	}
	c.enqueue(data)
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		// Unblocks readPump
		_ = c.ws.SetReadDeadline(time.Now())
		logging.LogConnection(c.remote, "websocket_closed")
	})
}
