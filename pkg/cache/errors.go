package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork is returned when a remote backend cannot be reached.
var ErrNetwork = errors.New("network error")

// RetryableError marks a backend failure worth another attempt.
type RetryableError struct{ Err error }

// Retryable wraps err as a [RetryableError]; nil stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err carries a [RetryableError].
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff retries transient backend failures with a doubling delay.
type Backoff struct {
	Attempts int
	Delay    time.Duration // wait before the second attempt
}

// DefaultBackoff is used by [RedisCache].
var DefaultBackoff = Backoff{Attempts: 3, Delay: 200 * time.Millisecond}

// Retry calls fn until it succeeds, returns an error that is not
// [Retryable], or the attempts are used up. It gives up early when ctx ends.
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return err
}
