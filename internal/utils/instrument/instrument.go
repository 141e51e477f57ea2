package instrument

import (
	"context"
	"time"

	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/coinbase/cloudsession/internal/utils/timesource"
)

type (
	// Call records the outcome of an operation: a success/error counter, a latency timer,
	// a DataDog span and a log entry.
	Call[T any] interface {
		Instrument(ctx context.Context, operation OperationFn[T], fields ...zap.Field) (T, error)
	}

	OperationFn[T any] func(ctx context.Context) (T, error)

	// FilterFn returns true if the error should be counted as a success, e.g. a "not found" on a lookup.
	FilterFn func(err error) bool

	Option func(o *options)

	callImpl[T any] struct {
		name              string
		err               tally.Counter
		success           tally.Counter
		successWithFilter tally.Counter
		latency           tally.Timer
		*options
	}

	options struct {
		filter     FilterFn
		timeSource timesource.TimeSource
		logger     *zap.Logger
		tracerTags map[string]string
	}
)

const (
	resultTypeTag     = "result_type"
	resultTypeError   = "error"
	resultTypeSuccess = "success"
	latencySuffix     = "latency"
	durationTag       = "duration"
	filteredTag       = "filtered"
	spanType          = "aws"
)

var (
	errTags = map[string]string{
		resultTypeTag: resultTypeError,
	}

	successTags = map[string]string{
		resultTypeTag: resultTypeSuccess,
	}

	successWithFilterTags = map[string]string{
		resultTypeTag: resultTypeSuccess,
		filteredTag:   "true",
	}
)

func New[T any](scope tally.Scope, name string, opts ...Option) Call[T] {
	o := &options{
		timeSource: timesource.NewRealTimeSource(),
		logger:     zap.NewNop(),
		tracerTags: make(map[string]string),
	}
	for _, opt := range opts {
		opt(o)
	}

	return &callImpl[T]{
		name:              name,
		err:               scope.Tagged(errTags).Counter(name),
		success:           scope.Tagged(successTags).Counter(name),
		successWithFilter: scope.Tagged(successWithFilterTags).Counter(name),
		latency:           scope.SubScope(name).Timer(latencySuffix),
		options:           o,
	}
}

// Wrap instruments an operation that only returns an error.
func Wrap(ctx context.Context, call Call[struct{}], operation func(ctx context.Context) error, fields ...zap.Field) error {
	_, err := call.Instrument(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, operation(ctx)
	}, fields...)
	return err
}

func WithFilter(filter FilterFn) Option {
	return func(o *options) {
		o.filter = filter
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithTracerTags(tags map[string]string) Option {
	return func(o *options) {
		for k, v := range tags {
			o.tracerTags[k] = v
		}
	}
}

func WithTimeSource(timeSource timesource.TimeSource) Option {
	return func(o *options) {
		o.timeSource = timeSource
	}
}

func (c *callImpl[T]) Instrument(ctx context.Context, operation OperationFn[T], fields ...zap.Field) (T, error) {
	startTime := c.timeSource.Now()
	span, ctx := c.startSpan(ctx, startTime)
	res, err := operation(ctx)

	finishTime := c.timeSource.Now()
	duration := finishTime.Sub(startTime)
	c.latency.Record(duration)

	logger := c.logger.With(zap.String(durationTag, duration.String()))
	if len(fields) > 0 {
		logger = logger.With(fields...)
	}

	if err != nil {
		if c.filter != nil && c.filter(err) {
			c.successWithFilter.Inc(1)
			logger.Debug(c.name, zap.Error(err))
		} else {
			c.err.Inc(1)
			logger.Warn(c.name, zap.Error(err))
		}
		span.Finish(tracer.FinishTime(finishTime), tracer.WithError(err))
		return res, err
	}

	c.success.Inc(1)
	logger.Debug(c.name)
	span.Finish(tracer.FinishTime(finishTime))
	return res, nil
}

func (c *callImpl[T]) startSpan(ctx context.Context, startTime time.Time) (tracer.Span, context.Context) {
	opts := []tracer.StartSpanOption{
		tracer.SpanType(spanType),
		tracer.StartTime(startTime),
	}
	for k, v := range c.tracerTags {
		opts = append(opts, tracer.Tag(k, v))
	}
	return tracer.StartSpanFromContext(ctx, c.name, opts...)
}
