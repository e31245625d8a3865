package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/minerdash/minerdash/internal/transport"
)

// FrameMsg carries one inbound frame from the backend
type FrameMsg struct {
	Data []byte
}

// StatusMsg reports a connectivity change
type StatusMsg transport.Status

// Events forwards transport callbacks into the Bubble Tea loop. The
// transport goroutines post, the model's update loop consumes, so panel and
// renderer state are only touched from one goroutine.
type Events struct {
	ch   chan tea.Msg
	done <-chan struct{}
}

// NewEvents creates a buffered event queue that stops accepting posts once
// ctx is done
func NewEvents(ctx context.Context, size int) *Events {
	if size <= 0 {
		size = 64
	}
	return &Events{ch: make(chan tea.Msg, size), done: ctx.Done()}
}

// Frame is a transport.Handler
func (e *Events) Frame(data []byte) {
	e.post(FrameMsg{Data: data})
}

// Status is a transport status callback
func (e *Events) Status(s transport.Status) {
	e.post(StatusMsg(s))
}

func (e *Events) post(msg tea.Msg) {
	select {
	case e.ch <- msg:
	case <-e.done:
	}
}

// Listen returns a command that waits for the next event
func (e *Events) Listen() tea.Cmd {
	if e == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case msg := <-e.ch:
			return msg
		case <-e.done:
			return nil
		}
	}
}
