package progress

import (
	"sync"

	"github.com/minerdash/minerdash/internal/protocol"
)

// Tracker reports the progress of one long-running job. Publish is called
// only when the rounded percentage changes, so a job may call Add as often
// as it likes.
type Tracker struct {
	style   Style
	publish func(*protocol.Progress)

	mu    sync.Mutex
	done  uint64
	total uint64
	last  int
}

// NewTracker creates a tracker for a job of total units
func NewTracker(style Style, total uint64, publish func(*protocol.Progress)) *Tracker {
	return &Tracker{style: style, total: total, publish: publish, last: -1}
}

// Add records n more finished units
func (t *Tracker) Add(n uint64) {
	t.mu.Lock()
	t.done += n
	if t.done > t.total {
		t.done = t.total
	}
	t.mu.Unlock()
	t.emit()
}

// Set records the absolute number of finished units
func (t *Tracker) Set(done uint64) {
	t.mu.Lock()
	if done > t.total {
		done = t.total
	}
	t.done = done
	t.mu.Unlock()
	t.emit()
}

// Finish marks the job complete
func (t *Tracker) Finish() {
	t.Set(t.Total())
}

// Total returns the job size
func (t *Tracker) Total() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Percent returns the current completion in 0..100
func (t *Tracker) Percent() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percent()
}

func (t *Tracker) percent() float64 {
	if t.total == 0 {
		return 100
	}
	return float64(t.done) * 100 / float64(t.total)
}

func (t *Tracker) emit() {
	t.mu.Lock()
	p := t.percent()
	rounded := Clamp(p)
	if rounded == t.last {
		t.mu.Unlock()
		return
	}
	t.last = rounded
	t.mu.Unlock()

	if t.publish != nil {
		t.publish(&protocol.Progress{Style: t.style, Percent: float64(rounded)})
	}
}
