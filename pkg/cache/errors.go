package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNetwork marks a failure to reach a remote cache backend.
	ErrNetwork = errors.New("cache backend unreachable")

	// ErrInvalidURL is returned by [NewRedisCache] when the URL cannot be parsed.
	ErrInvalidURL = errors.New("invalid cache URL")
)

// retryAttempts bounds the calls [RetryWithBackoff] makes.
const retryAttempts = 3

// RetryDelay is the pause after the first failed attempt. It doubles after
// every further failure.
var RetryDelay = 200 * time.Millisecond

// RetryableError marks Err as transient. Only such errors are retried.
type RetryableError struct{ Err error }

// Retryable marks err as transient. It returns nil for a nil err.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err, or any error it wraps, was marked
// with [Retryable].
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff calls fn until it succeeds, returns an error not marked
// with [Retryable], or has been called retryAttempts times. A cancelled ctx
// ends the wait between attempts with ctx.Err().
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := RetryDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsRetryable(err) || attempt == retryAttempts {
			return err
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}
