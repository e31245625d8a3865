package transport

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/minerdash/minerdash/internal/logging"
	"github.com/minerdash/minerdash/internal/protocol"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size accepted from the backend
	maxMessageSize = 64 * 1024
)

// State is the lifecycle state of a connection
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	// StateReconnecting and StateFailed are only reported by Manager.Run
	StateReconnecting
	StateFailed
)

// String implements fmt.Stringer
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Handler receives every inbound frame verbatim, in arrival order
type Handler func(data []byte)

// Conn is one live duplex connection to the backend.
//
// A nil *Conn and the null connection returned when no dialer is available
// are both valid: Send is a no-op and Done is already closed.
type Conn struct {
	remote string
	null   bool

	// mu guards ws and the finished flag so a dial completing after Close
	// cannot resurrect the connection
	mu       sync.Mutex
	ws       *websocket.Conn
	finished bool

	writeMu    sync.Mutex
	dispatchMu sync.Mutex
	state      atomic.Int32

	done      chan struct{}
	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// newNullConn returns the connectionless stand-in used when the platform
// offers no live-socket capability
func newNullConn() *Conn {
	return &Conn{null: true, done: closedChan}
}

func newConn(remote string) *Conn {
	c := &Conn{remote: remote, done: make(chan struct{})}
	c.state.Store(int32(StateConnecting))
	return c
}

// IsNull reports whether c is a connectionless stand-in
func (c *Conn) IsNull() bool {
	return c == nil || c.null
}

// Offline reports whether c can never reach a backend
func (c *Conn) Offline() bool {
	return c.IsNull()
}

// State returns the connection's lifecycle state
func (c *Conn) State() State {
	if c.IsNull() {
		return StateDisconnected
	}
	return State(c.state.Load())
}

// Done is closed once the connection is gone
func (c *Conn) Done() <-chan struct{} {
	if c == nil {
		return closedChan
	}
	return c.done
}

// Err returns why the connection ended, or nil while it is live
func (c *Conn) Err() error {
	if c == nil {
		return nil
	}
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Remote returns the endpoint this connection was dialed to
func (c *Conn) Remote() string {
	if c == nil {
		return ""
	}
	return c.remote
}

// Send encodes msg and writes it as one text frame. There is no
// acknowledgement. On a null connection Send does nothing.
func (c *Conn) Send(msg protocol.Message) error {
	if c.IsNull() {
		return nil
	}
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return c.SendRaw(data)
}

// SendRaw writes data as one text frame
func (c *Conn) SendRaw(data []byte) error {
	if c.IsNull() {
		return nil
	}
	if c.State() != StateConnected {
		return protocol.NewError(protocol.ErrTypeConnectionClosed, "send on closed connection", c.Err())
	}

	ws := c.socket()
	c.writeMu.Lock()
	err := ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err == nil {
		err = ws.WriteMessage(websocket.TextMessage, data)
	}
	c.writeMu.Unlock()

	if err != nil {
		c.finish(err)
		return protocol.NewError(protocol.ErrTypeConnectionClosed, "write failed", err)
	}
	logging.LogWebSocketMessage(c.remote, "sent", websocket.TextMessage, data)
	return nil
}

// Close closes the connection. After Close returns, no further frames are
// handed to the handler; a frame already being handled completes first.
// The handler must not call Close on its own connection.
func (c *Conn) Close() error {
	if c.IsNull() {
		return nil
	}
	c.finish(nil)

	// Wait out a frame that is being handled right now
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	return nil
}

func (c *Conn) socket() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws
}

// attach installs a freshly dialed socket. It reports false, closing ws,
// when the connection was already closed while dialing.
func (c *Conn) attach(ws *websocket.Conn) bool {
	c.mu.Lock()
	if c.finished {
		c.mu.Unlock()
		_ = ws.Close()
		return false
	}
	c.ws = ws
	c.state.Store(int32(StateConnected))
	c.mu.Unlock()
	return true
}

// finish moves the connection to Disconnected exactly once
func (c *Conn) finish(cause error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.finished = true
		c.state.Store(int32(StateDisconnected))
		ws := c.ws
		c.mu.Unlock()

		c.errMu.Lock()
		if cause == nil {
			cause = errors.New("closed locally")
		}
		c.err = protocol.NewError(protocol.ErrTypeConnectionClosed, "connection closed", cause)
		c.errMu.Unlock()

		if ws != nil {
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = ws.Close()
		}
		close(c.done)
		logging.LogConnection(c.remote, "websocket_closed")
	})
}

// readLoop is the single inbound dispatcher of a connection
func (c *Conn) readLoop(onMessage Handler) {
	ws := c.socket()
	ws.SetReadLimit(maxMessageSize)

	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info("Connection dropped",
					zap.String("remote_addr", c.remote),
					zap.Error(err),
				)
			}
			c.finish(err)
			return
		}

		if !c.dispatch(onMessage, mt, data) {
			return
		}
	}
}

// dispatch hands one frame to the handler unless the connection has been
// closed. It holds dispatchMu so Close can wait for it.
func (c *Conn) dispatch(onMessage Handler, mt int, data []byte) bool {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	if c.State() != StateConnected {
		return false
	}
	logging.LogWebSocketMessage(c.remote, "received", mt, data)
	if onMessage != nil {
		onMessage(data)
	}
	return true
}
