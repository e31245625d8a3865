package settings

import (
	"errors"
	"fmt"

	"github.com/minerdash/minerdash/internal/levels"
	"github.com/minerdash/minerdash/internal/logging"
	"github.com/minerdash/minerdash/internal/protocol"
	"go.uber.org/zap"
)

// Sender delivers a message to the backend. transport.Manager and
// *transport.Conn implement it.
type Sender interface {
	Send(msg protocol.Message) error
}

// Offliner is implemented by senders that know they have no connection at
// all. Nothing acknowledges an update sent while Offline reports true.
type Offliner interface {
	Offline() bool
}

// Option configures a Panel
type Option func(*Panel)

// WithInitial sets the state the selectors start from
func WithInitial(state levels.State) Option {
	return func(p *Panel) {
		if state != nil {
			p.state = state.Clone()
		}
	}
}

// WithOnRender registers a hook run after the controls change value
func WithOnRender(fn func()) Option {
	return func(p *Panel) { p.onRender = fn }
}

// Panel owns the dashboard's settings state and selectors. It is not safe
// for concurrent use; the caller's event loop is the single dispatcher.
type Panel struct {
	container Container
	sender    Sender
	onRender  func()

	state     levels.State
	confirmed levels.State
	controls  map[string]*Control

	seq      uint64 // last seq sent
	pending  bool   // an update is waiting for its ack
	revision uint64 // newest backend revision seen
}

// NewPanel creates a panel rendering into container and sending through
// sender
func NewPanel(container Container, sender Sender, opts ...Option) *Panel {
	p := &Panel{
		container: container,
		sender:    sender,
		state:     levels.Defaults(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Init mounts the selectors from the current state
func (p *Panel) Init() {
	p.controls = InitSettings(p.container, p.state, p.changed)
	p.rendered()
}

// Resync drops unconfirmed edits and re-renders from the last state the
// backend confirmed. Used after a reconnect; the backend may have restarted,
// so its revision counter is forgotten too.
func (p *Panel) Resync() {
	p.pending = false
	p.revision = 0
	if p.confirmed != nil {
		p.state = p.confirmed.Clone()
	}
	p.Init()
}

// State returns a copy of the current settings state
func (p *Panel) State() levels.State {
	return p.state.Clone()
}

// Controls returns the selector handles keyed by subsystem
func (p *Panel) Controls() map[string]*Control {
	return p.controls
}

// Control returns the selector of one subsystem
func (p *Panel) Control(key string) (*Control, bool) {
	c, ok := p.controls[key]
	return c, ok
}

// Pending reports whether a sent update has not been acknowledged yet
func (p *Panel) Pending() bool {
	return p.pending
}

// Seq returns the sequence number of the last update sent
func (p *Panel) Seq() uint64 {
	return p.seq
}

// Collect reads every selector's current value
func (p *Panel) Collect() levels.State {
	out := make(levels.State, len(p.controls))
	for key, c := range p.controls {
		out[key] = c.Value()
	}
	return out
}

// changed is the selectors' change callback
func (p *Panel) changed() {
	p.state = p.Collect()
	p.send()
}

// SetLevels changes several subsystems at once and sends a single batch.
// Nothing changes if any entry is invalid.
func (p *Panel) SetLevels(overrides map[string]levels.Level) error {
	next, err := p.state.Merge(overrides)
	if errors.Is(err, levels.ErrOutOfRange) {
		return protocol.NewError(protocol.ErrTypeOutOfRangeLevel, "bulk level change refused", err)
	}
	if err != nil {
		return fmt.Errorf("bulk level change refused: %w", err)
	}
	if next.Equal(p.state) {
		return nil
	}

	p.state = next
	p.renderState()
	p.send()
	return nil
}

func (p *Panel) send() {
	p.seq++
	if p.offline() {
		// Local edits are final when no backend can acknowledge them
		p.pending = false
		p.confirmed = p.state.Clone()
		return
	}
	p.pending = true

	msg := &protocol.SettingsUpdate{Seq: p.seq, Values: p.state.Clone()}
	if err := p.sender.Send(msg); err != nil {
		logging.Warn("Settings update not sent",
			zap.Uint64("seq", p.seq),
			zap.Error(err),
		)
	}
}

func (p *Panel) offline() bool {
	if p.sender == nil {
		return true
	}
	o, ok := p.sender.(Offliner)
	return ok && o.Offline()
}

// HandleMessage applies a backend message. Settings messages that are
// older than local state are ignored; messages without seq or revision
// carry no ordering and are applied as authoritative. Invalid snapshots are refused whole
// and leave the state untouched. Other message types are ignored.
func (p *Panel) HandleMessage(msg protocol.Message) error {
	switch m := msg.(type) {
	case *protocol.SettingsAck:
		// Seq 0 is an unsequenced ack and always authoritative
		if m.Seq != 0 && m.Seq < p.seq {
			logging.Debug("Ignoring ack for superseded update",
				zap.Uint64("ack_seq", m.Seq),
				zap.Uint64("seq", p.seq),
			)
			return nil
		}
		if p.stale(m.Revision) {
			return nil
		}
		if err := protocol.CheckValues(m.Values); err != nil {
			return err
		}
		p.pending = false
		p.apply(m.Revision, m.Values)

	case *protocol.SettingsSync:
		if p.stale(m.Revision) {
			return nil
		}
		if err := protocol.CheckValues(m.Values); err != nil {
			return err
		}
		if p.pending && m.Revision > 0 && !m.Values.Equal(p.state) {
			// Another dashboard's change, older than our unacknowledged edit.
			// Unversioned syncs cannot be ordered and always apply.
			p.confirmed = m.Values.Clone()
			p.noteRevision(m.Revision)
			logging.Debug("Deferring sync while an update is pending",
				zap.Uint64("revision", m.Revision),
				zap.Uint64("seq", p.seq),
			)
			return nil
		}
		p.pending = false
		p.apply(m.Revision, m.Values)

	case *protocol.SettingsReject:
		if m.Seq != p.seq {
			return nil
		}
		logging.Warn("Settings update rejected",
			zap.Uint64("seq", m.Seq),
			zap.String("reason", m.Reason),
		)
		p.pending = false
		if p.confirmed != nil {
			p.state = p.confirmed.Clone()
			p.renderState()
		}
	}
	return nil
}

// stale reports whether a message with the given revision is older than
// what has already been applied. Revision 0 means unversioned.
func (p *Panel) stale(revision uint64) bool {
	if revision == 0 || revision > p.revision {
		return false
	}
	logging.Debug("Ignoring stale settings message",
		zap.Uint64("revision", revision),
		zap.Uint64("current_revision", p.revision),
	)
	return true
}

func (p *Panel) noteRevision(revision uint64) {
	if revision > p.revision {
		p.revision = revision
	}
}

func (p *Panel) apply(revision uint64, values levels.State) {
	p.noteRevision(revision)
	p.state = values.Clone()
	p.confirmed = values.Clone()
	p.renderState()
}

// renderState pushes the state into every selector
func (p *Panel) renderState() {
	for key, c := range p.controls {
		if l, ok := p.state[key]; ok {
			c.set(l)
		}
	}
	p.rendered()
}

func (p *Panel) rendered() {
	if p.onRender != nil {
		p.onRender()
	}
}
