package fetch

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Backoff computes exponential retry delays with jitter. The random
// source is injectable so tests can run with deterministic jitter.
type Backoff struct {
	Base   time.Duration
	Growth float64
	Jitter time.Duration
	Max    time.Duration

	// Rand returns a value in [0, 1). Defaults to math/rand.
	Rand func() float64
}

// Challenge-triggered retries back off harder than plain network errors:
// the blocking layer punishes rapid re-requests.
func networkBackoff() Backoff {
	return Backoff{Base: 2500 * time.Millisecond, Growth: 1.5, Jitter: 1200 * time.Millisecond, Max: 45 * time.Second}
}

func challengeBackoff() Backoff {
	return Backoff{Base: 4 * time.Second, Growth: 1.9, Jitter: 1200 * time.Millisecond, Max: 45 * time.Second}
}

// Delay returns the wait before retry number attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	r := b.Rand
	if r == nil {
		r = rand.Float64
	}
	d := float64(b.Base) * math.Pow(b.Growth, float64(attempt-1))
	d += r() * float64(b.Jitter)
	if max := float64(b.Max); b.Max > 0 && d > max {
		d = max
	}
	return time.Duration(d)
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
