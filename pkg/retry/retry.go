// Package retry re-runs sink writes that failed for transient reasons.
// Only errors marked with Retryable are retried; everything else stops
// at the first attempt.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as transient.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

func isRetryable(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}

// unmark strips the Retryable marker so callers see the original error.
func unmark(err error) error {
	if r, ok := err.(*retryableError); ok {
		return r.err
	}
	return err
}

// Policy bounds one sink's retries.
type Policy struct {
	// MaxAttempts includes the first attempt.
	MaxAttempts int

	// BaseDelay doubles after every failed attempt up to MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// Jitter spreads each delay by ±Jitter of its value (0..1).
	Jitter float64

	// OnRetry is called before sleeping; attempt is the one that failed.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// BrokerPolicy is used for Redis writes. Delays stay short: a status
// update that arrives seconds late is stale on the dashboard anyway.
func BrokerPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 50 * time.Millisecond, MaxDelay: 500 * time.Millisecond, Jitter: 0.1}
}

// JournalPolicy is used for journal inserts.
func JournalPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second, Jitter: 0.05}
}

// Retrier runs operations under a Policy.
type Retrier struct {
	policy Policy
}

// New creates a Retrier. MaxAttempts below 1 is treated as 1.
func New(p Policy) *Retrier {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	return &Retrier{policy: p}
}

// Do calls op until it succeeds, returns an unmarked error, the attempts
// run out or ctx is done. The returned error never carries the marker.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return unmark(lastErr)
			}
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) || attempt >= r.policy.MaxAttempts {
			return unmark(err)
		}

		delay := r.delay(attempt)
		if r.policy.OnRetry != nil {
			r.policy.OnRetry(attempt, unmark(err), delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return unmark(lastErr)
		case <-timer.C:
		}
	}
}

// delay returns the pause after the given failed attempt.
func (r *Retrier) delay(attempt int) time.Duration {
	d := r.policy.BaseDelay
	for i := 1; i < attempt && d < r.policy.MaxDelay; i++ {
		d *= 2
	}
	if d > r.policy.MaxDelay {
		d = r.policy.MaxDelay
	}

	if r.policy.Jitter > 0 {
		spread := float64(d) * r.policy.Jitter * (rand.Float64()*2 - 1)
		d += time.Duration(spread)
	}
	if d < 0 {
		d = 0
	}
	return d
}
