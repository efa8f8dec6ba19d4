// Package retry is the single backoff helper shared by every retrying
// operation: scene item lookups and control channel reconnection.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy describes how an operation is retried.
type Policy struct {
	// MaxAttempts bounds the total number of calls, including the first.
	MaxAttempts int
	// BaseDelay is the delay before the second attempt.
	BaseDelay time.Duration
	// MaxDelay caps the delay between attempts. Ignored when Constant.
	MaxDelay time.Duration
	// Jitter is the randomization factor in [0, 1).
	Jitter float64
	// Constant keeps every delay at BaseDelay instead of doubling.
	Constant bool
}

// Lookup is the policy for resolving scene items.
var Lookup = Policy{
	MaxAttempts: 3,
	BaseDelay:   100 * time.Millisecond,
	MaxDelay:    2 * time.Second,
	Jitter:      0.2,
}

// Fixed returns a constant-delay policy, as used for reconnection.
func Fixed(attempts int, delay time.Duration) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: delay, Constant: true}
}

// ErrInvalidPolicy is returned for a policy that cannot run.
var ErrInvalidPolicy = errors.New("invalid retry policy")

// Permanent wraps err so Do stops without further attempts.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Notify is called before each wait with the 1-based attempt that failed.
type Notify func(attempt int, err error, next time.Duration)

// Do calls op until it succeeds, returns a Permanent error, the attempt
// budget is spent or ctx is done. The last error is returned on failure.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), notify Notify) (T, error) {
	if p.MaxAttempts <= 0 || p.BaseDelay < 0 {
		var zero T
		return zero, ErrInvalidPolicy
	}

	attempt := 0
	return backoff.Retry(ctx,
		func() (T, error) {
			attempt++
			return op(ctx)
		},
		backoff.WithBackOff(p.NewBackOff()),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			if notify != nil {
				notify(attempt, err, next)
			}
		}),
	)
}

// NewBackOff returns the delay sequence for p.
func (p Policy) NewBackOff() backoff.BackOff {
	if p.Constant {
		return backoff.NewConstantBackOff(p.BaseDelay)
	}
	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		RandomizationFactor: p.Jitter,
		Multiplier:          2,
		MaxInterval:         p.MaxDelay,
	}
	b.Reset()
	return &capped{b: b, max: p.MaxDelay}
}

// capped keeps a jittered sequence non-decreasing and within max. Without
// it, jitter around the cap could shorten a later delay.
type capped struct {
	b    backoff.BackOff
	max  time.Duration
	last time.Duration
}

func (c *capped) NextBackOff() time.Duration {
	next := c.b.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	if c.max > 0 && next > c.max {
		next = c.max
	}
	if next < c.last {
		next = c.last
	}
	c.last = next
	return next
}

func (c *capped) Reset() {
	c.b.Reset()
	c.last = 0
}
