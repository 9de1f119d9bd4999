// Package retry wraps transient filesystem operations in exponential backoff
// with jitter. It is opt-in: callers decide which errors are worth retrying,
// nothing in the engine retries implicitly.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/renamekit/renamekit/pkg/logger"
)

// Policy bounds a retry loop.
type Policy struct {
	// MaxAttempts caps total tries including the first; 0 means 3.
	MaxAttempts uint64
	// BaseDelay is the initial backoff interval; 0 means 100ms.
	BaseDelay time.Duration
	// MaxDelay caps the interval between attempts; 0 means 2s.
	MaxDelay time.Duration
	// Retryable reports whether an error is worth another attempt; nil
	// retries every error.
	Retryable func(error) bool
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay == 0 {
		p.BaseDelay = 100 * time.Millisecond
	}
	if p.MaxDelay == 0 {
		p.MaxDelay = 2 * time.Second
	}
	return p
}

// Do runs op under the policy, stopping early on success, a non-retryable
// error or context cancellation.
func Do(ctx context.Context, p Policy, op func() error) error {
	p = p.withDefaults()
	log := logger.WithName("retry")

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay

	attempt := 0
	wrapped := func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		log.WithError(err).WithField("attempt", attempt).Debug("Retrying operation")
		return err
	}

	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, p.MaxAttempts-1), ctx))
}
