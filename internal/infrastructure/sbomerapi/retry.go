package sbomerapi

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// retry runs fn up to attempts times with jittered exponential backoff,
// stopping early on errors that retrying cannot fix.
func retry(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == attempts || !isRetryable(lastErr) {
			break
		}
		if ctx.Err() != nil || errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}
		wait := delay
		if delay > 1 {
			wait += time.Duration(rand.Int64N(int64(delay / 2)))
		}
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(wait):
		}
		delay *= 2
	}
	return lastErr
}
