package retry

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"golang.org/x/xerrors"
)

type (
	// RetryableError marks an error the operation may recover from by trying again.
	// A throttled error also waits for the throttle delay before the next attempt.
	RetryableError struct {
		Err       error
		Throttled bool
	}
)

// Retryable returns an error that indicates that the operation should be retried.
func Retryable(err error) error {
	return &RetryableError{Err: err}
}

// Throttled returns an error that indicates that the operation should be retried after the throttle delay.
func Throttled(err error) error {
	return &RetryableError{Err: err, Throttled: true}
}

func (e *RetryableError) Error() string {
	if e.Throttled {
		return fmt.Sprintf("throttled: %v", e.Err)
	}
	return fmt.Sprintf("retryable: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err wraps a RetryableError.
func IsRetryable(err error) bool {
	var retryableErr *RetryableError
	return xerrors.As(err, &retryableErr)
}

// IsThrottled reports whether err wraps a throttled RetryableError.
func IsThrottled(err error) bool {
	var retryableErr *RetryableError
	return xerrors.As(err, &retryableErr) && retryableErr.Throttled
}

// exhausted annotates the last error once the attempts are used up.
// The result still unwraps to err and carries the attempt count as a detail.
func exhausted(err error, attempts int) error {
	err = errors.Wrapf(err, "gave up after %d attempts", attempts)
	return errors.WithDetailf(err, "max attempts: %d", attempts)
}
