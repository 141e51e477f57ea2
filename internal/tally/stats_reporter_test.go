package tally

import (
	"sync"
	"testing"
	"time"

	smirastatsd "github.com/smira/go-statsd"
	"github.com/uber-go/tally/v4"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/coinbase/cloudsession/internal/config"
	"github.com/coinbase/cloudsession/internal/utils/testapp"
	"github.com/coinbase/cloudsession/internal/utils/testutil"
)

func TestNewReporterDefaultNoStatsD(t *testing.T) {
	testapp.TestAllEnvs(t, func(t *testing.T, cfg *config.Config) {
		require := testutil.Require(t)

		var reporter tally.StatsReporter
		app := testapp.New(
			t,
			testapp.WithConfig(cfg),
			fx.Provide(NewStatsReporter),
			fx.Populate(&reporter),
		)
		defer app.Close()

		require.Equal(tally.NullStatsReporter, reporter)
		require.False(reporter.Capabilities().Reporting())
		require.False(reporter.Capabilities().Tagging())
	})
}

func TestNewReporterWithStatsD(t *testing.T) {
	testapp.TestAllEnvs(t, func(t *testing.T, cfg *config.Config) {
		require := testutil.Require(t)

		cfg.StatsD = &config.StatsDConfig{
			Address: "localhost:8125",
			Prefix:  "test",
		}
		var reporter tally.StatsReporter
		app := testapp.New(
			t,
			testapp.WithConfig(cfg),
			fx.Provide(NewStatsReporter),
			fx.Populate(&reporter),
		)
		defer app.Close()

		require.NotEqual(tally.NullStatsReporter, reporter)
		require.True(reporter.Capabilities().Reporting())
		require.True(reporter.Capabilities().Tagging())
	})
}

func TestNewRootScope_NullReporter(t *testing.T) {
	require := testutil.Require(t)

	cfg, err := config.New(config.WithRegion("us-west-2"), config.WithEnvironment(config.EnvDevelopment))
	require.NoError(err)

	lifecycle := fxtest.NewLifecycle(t)
	scope := NewRootScope(MetricParams{
		Lifecycle: lifecycle,
		Config:    cfg,
		Reporter:  tally.NullStatsReporter,
	})
	require.Equal(tally.NoopScope, scope)
	lifecycle.RequireStart().RequireStop()
}

func TestNewRootScope_FlushesOnStop(t *testing.T) {
	require := testutil.Require(t)

	cfg, err := config.New(config.WithRegion("us-west-2"), config.WithEnvironment(config.EnvDevelopment))
	require.NoError(err)

	reporter := &capturingReporter{counters: make(map[string]int64)}
	lifecycle := fxtest.NewLifecycle(t)
	scope := NewRootScope(MetricParams{
		Lifecycle: lifecycle,
		Config:    cfg,
		Reporter:  reporter,
	})
	lifecycle.RequireStart()
	scope.Tagged(map[string]string{"service": "s3"}).Counter("requests").Inc(2)
	lifecycle.RequireStop()

	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	require.Equal(int64(2), reporter.counters["cloudsession.requests"])
	require.Equal(map[string]string{
		"region":  "us-west-2",
		"env":     "development",
		"service": "s3",
	}, reporter.tags["cloudsession.requests"])
}

type capturingReporter struct {
	mu       sync.Mutex
	counters map[string]int64
	tags     map[string]map[string]string
}

func (r *capturingReporter) ReportCounter(name string, tags map[string]string, value int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name] += value
	if r.tags == nil {
		r.tags = make(map[string]map[string]string)
	}
	r.tags[name] = tags
}

func (r *capturingReporter) ReportGauge(string, map[string]string, float64) {}

func (r *capturingReporter) ReportTimer(string, map[string]string, time.Duration) {}

func (r *capturingReporter) ReportHistogramValueSamples(string, map[string]string, tally.Buckets, float64, float64, int64) {
}

func (r *capturingReporter) ReportHistogramDurationSamples(string, map[string]string, tally.Buckets, time.Duration, time.Duration, int64) {
}

func (r *capturingReporter) Capabilities() tally.Capabilities { return r }

func (r *capturingReporter) Reporting() bool { return true }

func (r *capturingReporter) Tagging() bool { return true }

func (r *capturingReporter) Flush() {}

func TestStatsdTags(t *testing.T) {
	require := testutil.Require(t)

	tags := statsdTags(map[string]string{
		"service": "s3",
		"env":     "local",
		"region":  "us-east-1",
	})
	require.Len(tags, 3)
	require.Equal(smirastatsd.StringTag("env", "local"), tags[0])
	require.Equal(smirastatsd.StringTag("region", "us-east-1"), tags[1])
	require.Equal(smirastatsd.StringTag("service", "s3"), tags[2])

	require.Empty(statsdTags(nil))
}
