package realtime

import (
	"math"
	"time"
)

// Backoff is an exponential reconnect policy with jitter and an optional retry cap.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	// Jitter is the fraction (0..1) by which a delay may deviate in either direction.
	Jitter float64
	// MaxRetries of zero means retry forever.
	MaxRetries int
}

func DefaultBackoff() Backoff {
	return Backoff{
		Initial:    time.Second,
		Max:        30 * time.Second,
		Multiplier: 2,
		Jitter:     0.2,
		MaxRetries: 10,
	}
}

// Delay returns the wait before reconnect attempt n (0-based). r must be in [0, 1).
func (b Backoff) Delay(attempt int, r float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	initial := b.Initial
	if initial <= 0 {
		initial = time.Second
	}
	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}

	d := float64(initial) * math.Pow(mult, float64(attempt))
	if b.Max > 0 && d > float64(b.Max) {
		d = float64(b.Max)
	}

	if b.Jitter > 0 {
		j := math.Min(b.Jitter, 1)
		d *= 1 + j*(2*r-1)
	}
	if b.Max > 0 && d > float64(b.Max) {
		d = float64(b.Max)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// Exhausted reports whether failure number n (1-based) is past the retry cap.
func (b Backoff) Exhausted(failures int) bool {
	return b.MaxRetries > 0 && failures > b.MaxRetries
}
