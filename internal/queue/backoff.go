package queue

import "time"

// Default retry delays.
const (
	DefaultBaseBackoff = time.Second
	DefaultMaxBackoff  = 5 * time.Minute
)

// Backoff computes the delay before retry number n (n >= 1) as Base * 2^n,
// capped at Max. A zero Max disables the cap.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns the backoff for the given attempt count.
func (b Backoff) Delay(attempts int) time.Duration {
	base := b.Base
	if base <= 0 {
		base = DefaultBaseBackoff
	}
	if attempts < 0 {
		attempts = 0
	}

	d := base
	for i := 0; i < attempts; i++ {
		// Stop doubling before overflowing or passing the cap.
		if d > (1<<62)/2 || (b.Max > 0 && d >= b.Max) {
			break
		}
		d *= 2
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}
