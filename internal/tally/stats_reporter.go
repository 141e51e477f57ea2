package tally

import (
	"context"
	"sort"
	"time"

	smirastatsd "github.com/smira/go-statsd"
	"github.com/uber-go/tally/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/coinbase/cloudsession/internal/config"
)

type (
	StatsReporterParams struct {
		fx.In
		Lifecycle fx.Lifecycle
		Logger    *zap.Logger
		Config    *config.Config
	}

	// statsdReporter forwards counters, gauges and timers to a datadog flavored statsd agent.
	statsdReporter struct {
		client *smirastatsd.Client
	}
)

const (
	flushInterval = time.Second
)

var _ tally.StatsReporter = (*statsdReporter)(nil)

// NewStatsReporter returns tally.NullStatsReporter unless a statsd address is configured,
// so that a Session emits nothing by default.
func NewStatsReporter(params StatsReporterParams) tally.StatsReporter {
	cfg := params.Config.StatsD
	if cfg == nil {
		return tally.NullStatsReporter
	}

	client := smirastatsd.NewClient(
		cfg.Address,
		smirastatsd.MetricPrefix(cfg.Prefix),
		smirastatsd.TagStyle(smirastatsd.TagFormatDatadog),
		smirastatsd.ReportInterval(flushInterval),
	)
	params.Logger.Debug("reporting metrics to statsd", zap.String("address", cfg.Address), zap.String("prefix", cfg.Prefix))
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return &statsdReporter{client: client}
}

// statsdTags converts the tally tags in key order, so that the same series always renders the same line.
func statsdTags(tags map[string]string) []smirastatsd.Tag {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]smirastatsd.Tag, len(keys))
	for i, key := range keys {
		result[i] = smirastatsd.StringTag(key, tags[key])
	}
	return result
}

func (r *statsdReporter) ReportCounter(name string, tags map[string]string, value int64) {
	r.client.Incr(name, value, statsdTags(tags)...)
}

func (r *statsdReporter) ReportGauge(name string, tags map[string]string, value float64) {
	r.client.FGauge(name, value, statsdTags(tags)...)
}

func (r *statsdReporter) ReportTimer(name string, tags map[string]string, interval time.Duration) {
	r.client.PrecisionTiming(name, interval, statsdTags(tags)...)
}

// ReportHistogramValueSamples is a no-op, the resources only record counters and timers.
func (r *statsdReporter) ReportHistogramValueSamples(string, map[string]string, tally.Buckets, float64, float64, int64) {
}

// ReportHistogramDurationSamples is a no-op, the resources only record counters and timers.
func (r *statsdReporter) ReportHistogramDurationSamples(string, map[string]string, tally.Buckets, time.Duration, time.Duration, int64) {
}

func (r *statsdReporter) Capabilities() tally.Capabilities {
	return r
}

func (r *statsdReporter) Reporting() bool {
	return true
}

func (r *statsdReporter) Tagging() bool {
	return true
}

// Flush is a no-op, the statsd client flushes on its own interval.
func (r *statsdReporter) Flush() {
}
