package log

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/coinbase/cloudsession/internal/utils/testutil"
)

func TestLibrary_SilentByDefault(t *testing.T) {
	require := testutil.Require(t)

	logger := Library()
	require.NotNil(logger)
	require.Nil(logger.Check(zap.ErrorLevel, "discarded"))
}

func TestSetLibraryLogger(t *testing.T) {
	require := testutil.Require(t)
	defer SetLibraryLogger(nil)

	core, logs := observer.New(zap.DebugLevel)
	SetLibraryLogger(zap.New(core))

	Library().Info("session created", zap.String("region", "us-west-2"))
	entries := logs.All()
	require.Len(entries, 1)
	require.Equal(LoggerName, entries[0].LoggerName)
	require.Equal("session created", entries[0].Message)

	SetLibraryLogger(nil)
	Library().Info("dropped")
	require.Len(logs.All(), 1)
}

func TestSetLibraryLogger_DerivedLoggers(t *testing.T) {
	require := testutil.Require(t)
	defer SetLibraryLogger(nil)

	// Derived before the host opts in.
	derived := Library().Named("s3").With(zap.String("bucket", "foo"))

	core, logs := observer.New(zap.InfoLevel)
	SetLibraryLogger(zap.New(core))

	derived.Debug("below level")
	derived.Info("uploaded")

	entries := logs.All()
	require.Len(entries, 1)
	require.Equal(LoggerName+".s3", entries[0].LoggerName)
	require.Equal("foo", entries[0].ContextMap()["bucket"])
}

func TestSetLibraryLogger_TeeLevels(t *testing.T) {
	require := testutil.Require(t)
	defer SetLibraryLogger(nil)

	errorCore, errorLogs := observer.New(zap.ErrorLevel)
	debugCore, debugLogs := observer.New(zap.DebugLevel)
	SetLibraryLogger(zap.New(zapcore.NewTee(errorCore, debugCore)))

	Library().Debug("created client", zap.String("service", "s3"))
	require.Equal(0, errorLogs.Len())
	require.Equal(1, debugLogs.Len())

	Library().With(zap.String("service", "sqs")).Error("failed to create client")
	require.Equal(1, errorLogs.Len())
	require.Equal(2, debugLogs.Len())
	require.Equal("sqs", errorLogs.All()[0].ContextMap()["service"])
}

func TestSetLibraryLogger_Sampler(t *testing.T) {
	require := testutil.Require(t)
	defer SetLibraryLogger(nil)

	core, logs := observer.New(zap.DebugLevel)
	sampled := zapcore.NewSamplerWithOptions(core, time.Minute, 1, 0)
	SetLibraryLogger(zap.New(sampled))

	for i := 0; i < 5; i++ {
		Library().Info("sent message")
	}
	require.Equal(1, logs.Len())
}

func TestWithPackage(t *testing.T) {
	require := testutil.Require(t)

	core, logs := observer.New(zap.DebugLevel)
	WithPackage(zap.New(core)).Debug("hello")

	entries := logs.All()
	require.Len(entries, 1)
	require.Equal("log", entries[0].ContextMap()["package"])
}
