package sdk

import (
	"github.com/go-playground/validator/v10"

	"github.com/coinbase/cloudsession/internal/config"
)

type (
	// Config describes how a Session is constructed.
	// A nil or zero Config resolves everything from the environment and the AWS shared config files.
	Config struct {
		// Region overrides the region, e.g. us-west-2.
		Region string
		// Profile selects a named profile from the shared config files.
		Profile string
		// AccessKeyID, SecretAccessKey and SessionToken provide static credentials.
		// AccessKeyID and SecretAccessKey must be set together.
		AccessKeyID     string `validate:"required_with=SecretAccessKey"`
		SecretAccessKey string `validate:"required_with=AccessKeyID"`
		SessionToken    string
		// Endpoint overrides the endpoint of every service, e.g. a local emulator.
		Endpoint string `validate:"omitempty,url"`
		// MaxRetries overrides the number of retries of a throttled or failed request.
		MaxRetries *int `validate:"omitempty,gte=0"`
		// LocalStack targets a LocalStack instance, defaulting Endpoint to http://localhost:4566.
		LocalStack bool
		// Env selects the config file layered over base.yml.
		Env Env `validate:"omitempty,oneof=production development local"`
	}

	Env = config.Env
)

const (
	EnvProduction  = config.EnvProduction
	EnvDevelopment = config.EnvDevelopment
	EnvLocal       = config.EnvLocal
)

func (c *Config) validate() error {
	v := validator.New()
	return v.Struct(c)
}

// options translates the non-zero fields into overrides of the internal config.
func (c *Config) options() []config.ConfigOption {
	var opts []config.ConfigOption
	if c.Env != "" {
		opts = append(opts, config.WithEnvironment(c.Env))
	}
	if c.Region != "" {
		opts = append(opts, config.WithRegion(c.Region))
	}
	if c.Profile != "" {
		opts = append(opts, config.WithProfile(c.Profile))
	}
	if c.Endpoint != "" {
		opts = append(opts, config.WithEndpoint(c.Endpoint))
	}
	if c.AccessKeyID != "" {
		opts = append(opts, config.WithStaticCredentials(c.AccessKeyID, c.SecretAccessKey, c.SessionToken))
	}
	if c.MaxRetries != nil {
		opts = append(opts, config.WithMaxRetries(*c.MaxRetries))
	}
	if c.LocalStack {
		opts = append(opts, config.WithLocalStack(true))
	}
	return opts
}
