package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type (
	// Retry runs an operation until it succeeds, fails with a non-retryable error, or runs out of attempts.
	// Only errors wrapping RetryableError are retried.
	Retry[T any] interface {
		Retry(ctx context.Context, operation OperationFn[T]) (T, error)
	}

	OperationFn[T any] func(ctx context.Context) (T, error)

	// BackoffFactory returns a new instance of backoff policy.
	BackoffFactory func() backoff.BackOff

	Option func(o *options)

	retryImpl[T any] struct {
		*options
	}

	options struct {
		maxAttempts    int
		backoffFactory BackoffFactory
		throttleDelay  time.Duration
		logger         *zap.Logger
	}
)

const (
	DefaultMaxAttempts         = 5
	defaultInitialInterval     = 100 * time.Millisecond
	defaultRandomizationFactor = 0.5
	defaultMultiplier          = 2
	defaultMaxInterval         = 5 * time.Second
	defaultMaxElapsedTime      = 2 * time.Minute
	defaultThrottleDelay       = time.Second
)

func New[T any](opts ...Option) Retry[T] {
	o := &options{
		maxAttempts:    DefaultMaxAttempts,
		backoffFactory: defaultBackoffFactory,
		throttleDelay:  defaultThrottleDelay,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return &retryImpl[T]{options: o}
}

// Do retries an operation that only returns an error.
func Do(ctx context.Context, operation func(ctx context.Context) error, opts ...Option) error {
	_, err := New[struct{}](opts...).Retry(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, operation(ctx)
	})
	return err
}

// WithMaxAttempts sets the maximum number of attempts.
// When maxAttempts is 1, the operation is executed only once.
func WithMaxAttempts(maxAttempts int) Option {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	return func(o *options) {
		o.maxAttempts = maxAttempts
	}
}

func WithBackoffFactory(backoffFactory BackoffFactory) Option {
	return func(o *options) {
		o.backoffFactory = backoffFactory
	}
}

// WithThrottleDelay sets the extra delay applied after a throttled error.
func WithThrottleDelay(delay time.Duration) Option {
	return func(o *options) {
		o.throttleDelay = delay
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func (r *retryImpl[T]) Retry(ctx context.Context, operation OperationFn[T]) (T, error) {
	backoffContext := backoff.WithContext(r.backoffFactory(), ctx)

	attempts := 0
	decoratedOperation := func() (T, error) {
		res, err := operation(ctx)
		attempts += 1
		if err == nil {
			return res, nil
		}

		if !IsRetryable(err) {
			return res, backoff.Permanent(err)
		}

		if attempts >= r.maxAttempts {
			r.logger.Warn(
				"max attempts exceeded",
				zap.Int("attempts", attempts),
				zap.Error(err),
			)
			return res, backoff.Permanent(exhausted(err, attempts))
		}

		r.logger.Debug(
			"encountered a retryable error",
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return res, err
	}

	onError := func(err error, duration time.Duration) {
		if IsThrottled(err) && r.throttleDelay > 0 {
			select {
			case <-backoffContext.Context().Done():
			case <-time.After(r.throttleDelay):
			}
		}
	}

	return backoff.RetryNotifyWithData[T](decoratedOperation, backoffContext, onError)
}

func defaultBackoffFactory() backoff.BackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     defaultInitialInterval,
		RandomizationFactor: defaultRandomizationFactor,
		Multiplier:          defaultMultiplier,
		MaxInterval:         defaultMaxInterval,
		MaxElapsedTime:      defaultMaxElapsedTime,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
}
