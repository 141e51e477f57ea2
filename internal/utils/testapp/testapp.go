package testapp

import (
	"testing"

	"github.com/uber-go/tally/v4"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/coinbase/cloudsession/internal/aws"
	"github.com/coinbase/cloudsession/internal/config"
	"github.com/coinbase/cloudsession/internal/utils/fxparams"
	"github.com/coinbase/cloudsession/internal/utils/testutil"
)

type (
	TestApp interface {
		Close()
		Logger() *zap.Logger
		Config() *config.Config
	}

	TestFn func(t *testing.T, cfg *config.Config)

	testAppImpl struct {
		app    *fxtest.App
		logger *zap.Logger
		config *config.Config
	}
)

var EnvsToTest = []config.Env{
	config.EnvLocal,
	config.EnvDevelopment,
	config.EnvProduction,
}

// New starts an fx app with the config, aws and common params modules, plus the given options.
func New(t testing.TB, opts ...fx.Option) TestApp {
	logger := zaptest.NewLogger(t)

	var cfg *config.Config
	opts = append(
		opts,
		aws.Module,
		config.Module,
		fxparams.Module,
		fx.NopLogger,
		fx.Provide(func() testing.TB { return t }),
		fx.Provide(func() *zap.Logger { return logger }),
		fx.Provide(func() tally.Scope { return tally.NoopScope }),
		fx.Populate(&cfg),
	)

	app := fxtest.New(t, opts...)
	app.RequireStart()
	return &testAppImpl{
		app:    app,
		logger: logger,
		config: cfg,
	}
}

// WithConfig overrides the default config.
func WithConfig(cfg *config.Config) fx.Option {
	return config.WithCustomConfig(cfg)
}

// WithIntegration runs the test only if $TEST_TYPE is integration.
func WithIntegration() fx.Option {
	return fx.Invoke(func(tb testing.TB, cfg *config.Config, logger *zap.Logger) {
		if !cfg.IsIntegrationTest() {
			logger.Warn("skipping integration test", zap.String("test", tb.Name()))
			tb.Skip()
		}
	})
}

func (a *testAppImpl) Close() {
	a.app.RequireStop()
}

func (a *testAppImpl) Logger() *zap.Logger {
	return a.logger
}

func (a *testAppImpl) Config() *config.Config {
	return a.config
}

// TestAllEnvs runs fn once per environment with a freshly loaded config.
func TestAllEnvs(t *testing.T, fn TestFn) {
	for _, env := range EnvsToTest {
		t.Run(string(env), func(t *testing.T) {
			require := testutil.Require(t)

			cfg, err := config.New(
				config.WithEnvironment(env),
				config.WithRegion("us-east-1"),
				config.WithStaticCredentials("AKID", "SECRET", ""),
			)
			require.NoError(err)
			require.Equal(env, cfg.Env())

			fn(t, cfg)
		})
	}
}
