// Package backoff implements truncated exponential backoff with jitter for
// the MQTT reconnect loops of the agent and the server.
package backoff

import (
	"math/rand"
	"time"
)

// Defaults used by both MQTT clients.
const (
	DefaultInitial    = 1 * time.Second
	DefaultMax        = 60 * time.Second
	DefaultMultiplier = 2.0
)

// Backoff yields growing delays between Initial and Max with ±25% jitter.
// It is not safe for concurrent use; each reconnect loop owns one.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64

	current time.Duration
}

// New returns a Backoff with the default bounds.
func New() *Backoff {
	return &Backoff{Initial: DefaultInitial, Max: DefaultMax, Multiplier: DefaultMultiplier}
}

// Next returns the delay to wait now and advances the internal state.
func (b *Backoff) Next() time.Duration {
	if b.current == 0 {
		b.current = b.Initial
	}
	d := b.current
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	mult := b.Multiplier
	if mult < 1 {
		mult = DefaultMultiplier
	}
	b.current = time.Duration(float64(b.current) * mult)
	if b.current > b.Max {
		b.current = b.Max
	}
	return d
}

// Reset returns the delay to Initial after a successful connection.
func (b *Backoff) Reset() {
	b.current = b.Initial
}
