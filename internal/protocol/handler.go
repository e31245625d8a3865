package protocol

import (
	"sync"

	"github.com/minerdash/minerdash/internal/logging"
	"go.uber.org/zap"
)

// Handler consumes one decoded message
type Handler interface {
	HandleMessage(msg Message) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(msg Message) error

// HandleMessage calls f(msg)
func (f HandlerFunc) HandleMessage(msg Message) error { return f(msg) }

// Router decodes raw frames and dispatches them by message type.
// Several handlers may be registered for one type; they run in
// registration order.
type Router struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{handlers: make(map[string][]Handler)}
}

// Register adds h for the given message types
func (r *Router) Register(h Handler, types ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		r.handlers[t] = append(r.handlers[t], h)
	}
}

// Handle decodes data and runs the handlers for its type. Frames with no
// registered handler are logged and dropped. The first handler error is
// returned after every handler has run.
func (r *Router) Handle(remoteAddr string, data []byte) error {
	msg, err := Decode(data)
	if err != nil {
		logging.Warn("Dropping undecodable frame",
			zap.String("remote_addr", remoteAddr),
			zap.Int("length", len(data)),
			zap.Error(err),
		)
		return err
	}

	return r.Dispatch(remoteAddr, msg)
}

// Dispatch runs the handlers registered for msg's type
func (r *Router) Dispatch(remoteAddr string, msg Message) error {
	r.mu.RLock()
	hs := r.handlers[msg.Type()]
	r.mu.RUnlock()

	if len(hs) == 0 {
		logging.Debug("No handler for message type",
			zap.String("remote_addr", remoteAddr),
			zap.String("type", msg.Type()),
		)
		return nil
	}

	var first error
	for _, h := range hs {
		if err := h.HandleMessage(msg); err != nil {
			logging.Warn("Message handler failed",
				zap.String("remote_addr", remoteAddr),
				zap.String("type", msg.Type()),
				zap.Error(err),
			)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
