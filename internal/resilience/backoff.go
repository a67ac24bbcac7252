// Package resilience guards calls to the upstream dataset hosts with bounded
// retries and per-host circuit breakers.
package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Backoff bounds the retry loop around one download. Growth is geometric with
// jitter so parallel connectors retrying against the same mirror do not
// stampede it.
type Backoff struct {
	// Attempts is the total number of tries including the first. 1 disables
	// retrying.
	Attempts int

	// Base is the delay before the first retry; Cap clamps the grown delay.
	Base time.Duration
	Cap  time.Duration

	// Growth multiplies the delay after each failed attempt.
	Growth float64

	// Jitter is the random fraction applied on top of each delay, 0.3 meaning
	// plus or minus 30 percent.
	Jitter float64

	// Retryable decides whether an error warrants another attempt. Nil means
	// IsTransient.
	Retryable func(error) bool

	// Notify is invoked before each retry sleep.
	Notify func(attempt int, err error)
}

// DefaultBackoff returns the retry policy used when the config file sets
// nothing: four total attempts starting at half a second.
func DefaultBackoff() Backoff {
	return Backoff{
		Attempts: 4,
		Base:     500 * time.Millisecond,
		Cap:      30 * time.Second,
		Growth:   2.0,
		Jitter:   0.2,
	}
}

// BackoffFromConfig builds a Backoff from config file values, falling back to
// the defaults for anything unset.
func BackoffFromConfig(attempts, baseMs, capMs int, growth, jitter float64) Backoff {
	b := DefaultBackoff()
	if attempts > 0 {
		b.Attempts = attempts
	}
	if baseMs > 0 {
		b.Base = time.Duration(baseMs) * time.Millisecond
	}
	if capMs > 0 {
		b.Cap = time.Duration(capMs) * time.Millisecond
	}
	if growth > 0 {
		b.Growth = growth
	}
	if jitter >= 0 {
		b.Jitter = jitter
	}
	return b
}

func (b Backoff) normalized() Backoff {
	def := DefaultBackoff()
	if b.Attempts <= 0 {
		b.Attempts = def.Attempts
	}
	if b.Base <= 0 {
		b.Base = def.Base
	}
	if b.Cap <= 0 {
		b.Cap = def.Cap
	}
	if b.Growth <= 0 {
		b.Growth = def.Growth
	}
	if b.Jitter < 0 {
		b.Jitter = 0
	}
	if b.Retryable == nil {
		b.Retryable = IsTransient
	}
	return b
}

// delay computes the sleep before retry number attempt (zero-based).
func (b Backoff) delay(attempt int) time.Duration {
	d := float64(b.Base)
	for i := 0; i < attempt; i++ {
		d *= b.Growth
		if d >= float64(b.Cap) {
			d = float64(b.Cap)
			break
		}
	}
	if b.Jitter > 0 {
		d += d * b.Jitter * (rand.Float64()*2 - 1)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// Attempt runs fn until it succeeds, the error is not retryable, the attempt
// budget is spent, or ctx is cancelled. The last error is returned unwrapped
// so callers can still inspect its cause.
func Attempt[T any](ctx context.Context, b Backoff, fn func(ctx context.Context) (T, error)) (T, error) {
	b = b.normalized()

	var zero T
	var lastErr error
	for try := 0; try < b.Attempts; try++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !b.Retryable(err) || try == b.Attempts-1 {
			break
		}

		if b.Notify != nil {
			b.Notify(try+1, err)
		}

		timer := time.NewTimer(b.delay(try))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

// LogRetries returns a Notify callback that records each retry against the
// named host.
func LogRetries(host string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying download",
			zap.String("host", host),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
