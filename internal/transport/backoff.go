package transport

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	// DefaultInitialDelay is the wait before the first reconnect attempt
	DefaultInitialDelay = 1 * time.Second

	// DefaultMaxDelay caps the exponential growth
	DefaultMaxDelay = 30 * time.Second

	// DefaultMaxRetries is the number of consecutive failed attempts
	// tolerated before the dashboard reports the backend as unreachable
	DefaultMaxRetries = 10
)

// Backoff is an exponential reconnect policy with jitter
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64 // Fraction of the delay randomized in both directions, 0..1
	MaxRetries int     // 0 = retry forever

	random func() float64
}

// DefaultBackoff returns the policy used when none is configured
func DefaultBackoff() Backoff {
	return Backoff{
		Initial:    DefaultInitialDelay,
		Max:        DefaultMaxDelay,
		Multiplier: 2,
		Jitter:     0.2,
		MaxRetries: DefaultMaxRetries,
	}
}

// Delay returns the wait before reconnect attempt number attempt (0-based)
func (b Backoff) Delay(attempt int) time.Duration {
	r := 0.5
	if b.Jitter > 0 {
		if b.random != nil {
			r = b.random()
		} else {
			r = rand.Float64()
		}
	}
	return b.delay(attempt, r)
}

// delay computes the backoff for a given uniform sample r in [0,1)
func (b Backoff) delay(attempt int, r float64) time.Duration {
	initial := b.Initial
	if initial <= 0 {
		initial = DefaultInitialDelay
	}
	maxDelay := b.Max
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}
	if attempt < 0 {
		attempt = 0
	}

	d := float64(initial) * math.Pow(mult, float64(attempt))
	if d > float64(maxDelay) {
		d = float64(maxDelay)
	}

	jitter := b.Jitter
	if jitter > 1 {
		jitter = 1
	}
	if jitter > 0 {
		d *= 1 + jitter*(2*r-1)
	}
	if d > float64(maxDelay) {
		d = float64(maxDelay)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// exhausted reports whether attempt reconnects already used up the budget
func (b Backoff) exhausted(attempt int) bool {
	return b.MaxRetries > 0 && attempt >= b.MaxRetries
}
