package config

import (
	"go.uber.org/fx"
)

type (
	ProviderParams struct {
		fx.In
		Override *override `optional:"true"`
	}

	override struct {
		config *Config
	}
)

// Module provides *Config, loaded from the embedded files and the environment
// unless WithCustomConfig supplies one.
var Module = fx.Options(
	fx.Provide(NewProvider),
)

func NewProvider(params ProviderParams) (*Config, error) {
	if params.Override != nil {
		return params.Override.config, nil
	}

	return New()
}

// WithCustomConfig injects a config built by the caller, e.g. from the options of a Session.
func WithCustomConfig(cfg *Config) fx.Option {
	return fx.Supply(&override{config: cfg})
}
