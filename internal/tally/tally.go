package tally

import (
	"context"
	"time"

	"github.com/uber-go/tally/v4"
	"go.uber.org/fx"

	"github.com/coinbase/cloudsession/internal/config"
	"github.com/coinbase/cloudsession/internal/utils/consts"
)

type (
	MetricParams struct {
		fx.In
		Lifecycle fx.Lifecycle
		Config    *config.Config
		Reporter  tally.StatsReporter
	}
)

const (
	scopeReportInterval = time.Second
)

// NewRootScope returns the scope every resource of a Session records into, prefixed with "cloudsession"
// and tagged with the region and env. Without a reporter it is tally.NoopScope.
// The scope flushes to the reporter every second and once more when the Session is closed.
func NewRootScope(params MetricParams) tally.Scope {
	if params.Reporter == nil || params.Reporter == tally.NullStatsReporter {
		return tally.NoopScope
	}

	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix:   consts.ServiceName,
		Tags:     params.Config.GetCommonTags(),
		Reporter: params.Reporter,
	}, scopeReportInterval)
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return closer.Close()
		},
	})

	return scope
}
