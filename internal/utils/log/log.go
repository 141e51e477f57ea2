package log

import (
	"context"
	"path/filepath"
	"runtime"
	"strconv"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// LoggerName is the namespace of every log entry emitted by the library.
const LoggerName = "cloudsession"

var (
	// sink receives the library's log entries. It discards everything until
	// the embedding application calls SetLibraryLogger.
	sink = atomic.NewPointer(zap.NewNop())

	library = zap.New(&libraryCore{}).Named(LoggerName)
)

type (
	// libraryCore forwards every entry to the current sink, so that loggers derived from
	// Library before SetLibraryLogger still follow the host's choice.
	libraryCore struct {
		fields []zapcore.Field
	}
)

func New() *zap.Logger {
	cfg := zap.NewProductionConfig()

	logger, err := cfg.Build(zap.AddStacktrace(zap.FatalLevel))
	if err != nil {
		panic(err)
	}

	return logger
}

func NewDevelopment() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	logger, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		panic(err)
	}

	return logger
}

// Library returns the library logger, named LoggerName.
func Library() *zap.Logger {
	return library
}

// SetLibraryLogger routes the library's log entries to the host application's logger.
// A nil logger restores the silent default.
func SetLibraryLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sink.Store(logger)
}

func (c *libraryCore) Enabled(level zapcore.Level) bool {
	return sink.Load().Core().Enabled(level)
}

func (c *libraryCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &libraryCore{fields: merged}
}

// Check defers to the sink's own Check, so tees, per-core levels and samplers of the host logger apply.
func (c *libraryCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return c.sinkCore().Check(entry, checked)
}

func (c *libraryCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	return c.sinkCore().Write(entry, fields)
}

func (c *libraryCore) sinkCore() zapcore.Core {
	core := sink.Load().Core()
	if len(c.fields) > 0 {
		core = core.With(c.fields)
	}
	return core
}

func (c *libraryCore) Sync() error {
	return sink.Load().Sync()
}

// WithPackage adds a package tag to the logger, using the package name of the caller.
func WithPackage(logger *zap.Logger) *zap.Logger {
	const skipOffset = 1 // skip WithPackage

	_, file, _, ok := runtime.Caller(skipOffset)
	if !ok {
		return logger
	}

	packageName := filepath.Base(filepath.Dir(file))
	return logger.With(zap.String("package", packageName))
}

// WithSpan adds datadog span trace id for datadog https://docs.datadoghq.com/tracing/connect_logs_and_traces/go/
func WithSpan(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if span, ok := tracer.SpanFromContext(ctx); ok {
		spanContext := span.Context()
		return logger.With(
			zap.String("dd.trace_id", strconv.FormatUint(spanContext.TraceID(), 10)),
			zap.String("dd.span_id", strconv.FormatUint(spanContext.SpanID(), 10)),
		)
	}

	return logger
}
