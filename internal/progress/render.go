package progress

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/minerdash/minerdash/internal/logging"
	"github.com/minerdash/minerdash/internal/protocol"
	"go.uber.org/zap"
)

// Style is how a progress event is rendered
type Style = protocol.Style

const (
	Generation   = protocol.StyleGeneration
	Verification = protocol.StyleVerification
)

// State is what an indicator shows
type State struct {
	Percent int    // 0..100
	Active  bool   // Work still running; the host animates the bar
	Label   string // Text shown next to the bar, may be empty
}

// Width returns the fill width of the bar, e.g. "42%"
func (s State) Width() string {
	return strconv.Itoa(s.Percent) + "%"
}

// Fraction returns Percent as 0.0..1.0
func (s State) Fraction() float64 {
	return float64(s.Percent) / 100
}

// Bar is a progress indicator in the rendering host
type Bar interface {
	SetProgress(s State)
}

// Clamp rounds p to the nearest integer and bounds it to [0,100].
// NaN renders as 0.
func Clamp(p float64) int {
	if math.IsNaN(p) {
		return 0
	}
	r := math.Round(p)
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return int(r)
}

// GenerationState computes the indicator state of a generation event
func GenerationState(percent float64) State {
	p := Clamp(percent)
	return State{Percent: p, Active: p < 100}
}

// VerificationState computes the indicator state of a verification event
func VerificationState(percent float64) State {
	p := Clamp(percent)
	return State{Percent: p, Active: p < 100, Label: fmt.Sprintf("%d%% Verified", p)}
}

// RenderGeneration shows a generation event on bar
func RenderGeneration(bar Bar, percent float64) {
	if bar == nil {
		return
	}
	bar.SetProgress(GenerationState(percent))
}

// RenderVerification shows a verification event on bar
func RenderVerification(bar Bar, percent float64) {
	if bar == nil {
		return
	}
	bar.SetProgress(VerificationState(percent))
}

// Renderer routes progress messages to the bar registered for their style
type Renderer struct {
	mu   sync.Mutex
	bars map[Style]Bar
	last map[Style]State
}

// NewRenderer creates a renderer with no bars attached
func NewRenderer() *Renderer {
	return &Renderer{
		bars: make(map[Style]Bar),
		last: make(map[Style]State),
	}
}

// Attach sets the bar that shows events of style s. A nil bar detaches.
func (r *Renderer) Attach(s Style, bar Bar) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if bar == nil {
		delete(r.bars, s)
		return
	}
	r.bars[s] = bar
}

// Last returns the state most recently rendered for style s
func (r *Renderer) Last(s Style) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.last[s]
	return st, ok
}

// HandleMessage renders a progress message. Other messages and unknown
// styles are ignored; rendering never fails.
func (r *Renderer) HandleMessage(msg protocol.Message) error {
	m, ok := msg.(*protocol.Progress)
	if !ok {
		return nil
	}

	var st State
	switch m.Style {
	case Generation:
		st = GenerationState(m.Percent)
	case Verification:
		st = VerificationState(m.Percent)
	default:
		logging.Debug("Ignoring progress with unknown style",
			zap.String("style", string(m.Style)),
		)
		return nil
	}

	if m.Percent < 0 || m.Percent > 100 || math.IsNaN(m.Percent) {
		logging.Debug("Progress percentage clamped",
			zap.Float64("percent", m.Percent),
			zap.Int("rendered", st.Percent),
		)
	}

	r.mu.Lock()
	bar := r.bars[m.Style]
	r.last[m.Style] = st
	r.mu.Unlock()

	if bar != nil {
		bar.SetProgress(st)
	}
	return nil
}
