package reliability

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds retries of transient upstream failures.
type Policy struct {
	// Attempts is the total number of invocations, including the first.
	Attempts  int
	BaseDelay time.Duration
	// OnRetry is called before each wait with the 1-based attempt that failed.
	OnRetry func(op string, attempt int, err error, wait time.Duration)
}

func DefaultPolicy() Policy {
	return Policy{Attempts: 3, BaseDelay: 400 * time.Millisecond}
}

// Retry invokes fn and, while it fails with a transient network error and attempts
// remain, waits BaseDelay*2^attempt before trying again (400ms, 800ms, 1600ms with
// the defaults). Any other error is returned unchanged on first occurrence.
func Retry[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxInterval = time.Duration(math.MaxInt64)
	exp.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)

	attempt := 0
	operation := func() (T, error) {
		attempt++
		res, err := fn(ctx)
		if err != nil && !IsTransientNetworkError(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}
	notify := func(err error, wait time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(op, attempt, err, wait)
		}
	}
	return backoff.RetryNotifyWithData(operation, b, notify)
}
