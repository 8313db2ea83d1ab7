package superdense

import (
	"context"
	"errors"
	"math"
	"time"
)

// RetryPolicy decides how often a failed transmission is attempted again.
type RetryPolicy struct {
	MaxAttempts int
	Strategy    RetryStrategy
	Filter      func(error) bool
}

// RetryStrategy yields the pause before a given attempt.
type RetryStrategy interface {
	NextDelay(attempt int) time.Duration
}

type ExponentialBackoff struct {
	Initial time.Duration
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	return eb.Initial * time.Duration(math.Pow(2, float64(attempt-1)))
}

/*
WithRetry makes a worker attempt the job's transmission up to attempts times.
Only backend faults are retried: malformed messages and circuits fail the
same way every time.
*/
func WithRetry(attempts int, strategy RetryStrategy) JobOption {
	return func(j *Job) {
		j.RetryPolicy = &RetryPolicy{
			MaxAttempts: attempts,
			Strategy:    strategy,
			Filter:      retryable,
		}
	}
}

func retryable(err error) bool {
	var msgErr *MessageError
	if errors.As(err, &msgErr) {
		return false
	}

	return !isCircuitError(err)
}

// do runs fn until it succeeds, the policy gives up or ctx ends.
func (rp *RetryPolicy) do(ctx context.Context, fn func() error) (attempts int, err error) {
	if rp == nil || rp.MaxAttempts < 1 {
		return 1, fn()
	}

	for attempts = 1; ; attempts++ {
		if err = fn(); err == nil || attempts >= rp.MaxAttempts {
			return attempts, err
		}

		if rp.Filter != nil && !rp.Filter(err) {
			return attempts, err
		}

		var delay time.Duration
		if rp.Strategy != nil {
			delay = rp.Strategy.NextDelay(attempts)
		}

		select {
		case <-ctx.Done():
			return attempts, errors.Join(err, ctx.Err())
		case <-time.After(delay):
		}
	}
}
