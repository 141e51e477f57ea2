package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"

	"github.com/coinbase/cloudsession/config"
)

type (
	Config struct {
		ConfigName string        `mapstructure:"config_name" validate:"required"`
		AWS        AwsConfig     `mapstructure:"aws"`
		StatsD     *StatsDConfig `mapstructure:"statsd"`

		env Env
	}

	AwsConfig struct {
		Region        string            `mapstructure:"region"`
		Profile       string            `mapstructure:"profile"`
		Endpoint      string            `mapstructure:"endpoint" validate:"omitempty,url"`
		IsLocalStack  bool              `mapstructure:"local_stack"`
		MaxRetries    int               `mapstructure:"max_retries" validate:"gte=0"`
		MinRetryDelay time.Duration     `mapstructure:"min_retry_delay"`
		Credentials   CredentialsConfig `mapstructure:"credentials"`
	}

	// CredentialsConfig holds static credentials. When empty, the AWS SDK resolves
	// credentials through its own provider chain.
	CredentialsConfig struct {
		AccessKeyID     string `mapstructure:"access_key_id" validate:"required_with=SecretAccessKey"`
		SecretAccessKey string `mapstructure:"secret_access_key" validate:"required_with=AccessKeyID"`
		SessionToken    string `mapstructure:"session_token"`
	}

	StatsDConfig struct {
		Address string `mapstructure:"address" validate:"required"`
		Prefix  string `mapstructure:"prefix"`
	}

	ConfigOption func(options *configOptions)

	Env string

	configOptions struct {
		Env         Env `validate:"required,oneof=production development local"`
		Region      *string
		Profile     *string
		Endpoint    *string
		Credentials *CredentialsConfig
		MaxRetries  *int
		LocalStack  *bool
	}

	// derivedConfig defines a callback where a config struct can override its fields based on the global config.
	derivedConfig interface {
		DeriveConfig(cfg *Config)
	}
)

var (
	_ derivedConfig = (*AwsConfig)(nil)

	// envOnlyKeys are optional keys left out of base.yml, so that StatsD stays nil unless configured.
	envOnlyKeys = []string{
		"statsd.address",
		"statsd.prefix",
	}

	envValues = map[string]Env{
		string(EnvLocal):       EnvLocal,
		string(EnvDevelopment): EnvDevelopment,
		string(EnvProduction):  EnvProduction,
	}
)

const (
	EnvVarConfigRoot  = "CLOUDSESSION_CONFIG_ROOT"
	EnvVarConfigPath  = "CLOUDSESSION_CONFIG_PATH"
	EnvVarEnvironment = "CLOUDSESSION_ENVIRONMENT"
	EnvVarTestType    = "TEST_TYPE"

	envPrefix = "CLOUDSESSION"

	EnvBase        Env = "base"
	EnvLocal       Env = "local"
	EnvDevelopment Env = "development"
	EnvProduction  Env = "production"

	LocalStackEndpoint = "http://localhost:4566"
	LocalStackRegion   = "us-east-1"
	DefaultProfile     = "default"

	tagRegion = "region"
	tagEnv    = "env"
)

// New loads base.yml, merges the env-specific file and the optional file at $CLOUDSESSION_CONFIG_PATH,
// applies CLOUDSESSION_* environment variables, and finally the given options.
func New(opts ...ConfigOption) (*Config, error) {
	validate := validator.New()

	configOpts, err := getConfigOptions(opts...)
	if err != nil {
		return nil, xerrors.Errorf("failed to get config options: %w", err)
	}

	if err := validate.Struct(configOpts); err != nil {
		return nil, xerrors.Errorf("failed to validate config options: %w", err)
	}

	configReader, err := getConfigData(EnvBase)
	if err != nil {
		return nil, xerrors.Errorf("failed to locate config file: %w", err)
	}

	cfg := Config{
		env: configOpts.Env,
	}

	v := viper.New()
	v.SetConfigName(string(EnvBase))
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.AllowEmptyEnv(false)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// AutomaticEnv only applies to keys viper already knows, and these have no default in base.yml.
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, xerrors.Errorf("failed to bind env for %v: %w", key, err)
		}
	}

	if err := v.ReadConfig(configReader); err != nil {
		return nil, xerrors.Errorf("failed to read config: %w", err)
	}

	// Merge in the env-specific config, such as development.yml
	if err := mergeInConfig(v, configOpts.Env); err != nil {
		return nil, xerrors.Errorf("failed to merge in %v config: %w", configOpts.Env, err)
	}

	if configPath := GetConfigPath(); configPath != "" {
		reader, err := os.Open(configPath)
		if err != nil {
			return nil, xerrors.Errorf("failed to read config file %v: %w", configPath, err)
		}
		defer reader.Close()

		if err := v.MergeConfig(reader); err != nil {
			return nil, xerrors.Errorf("failed to merge config %v: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, xerrors.Errorf("failed to unmarshal config: %w", err)
	}

	configOpts.apply(&cfg)
	cfg.setDerivedConfigs(reflect.ValueOf(&cfg))

	if err := validate.Struct(&cfg); err != nil {
		return nil, xerrors.Errorf("failed to validate config: %w", err)
	}

	return &cfg, nil
}

// GetEnv returns the environment named by $CLOUDSESSION_ENVIRONMENT, defaulting to local.
func GetEnv() Env {
	env, ok := envValues[os.Getenv(EnvVarEnvironment)]
	if !ok {
		return EnvLocal
	}

	return env
}

func GetConfigRoot() string {
	return os.Getenv(EnvVarConfigRoot)
}

func GetConfigPath() string {
	return os.Getenv(EnvVarConfigPath)
}

func mergeInConfig(v *viper.Viper, env Env) error {
	// Merge in the env-specific config if available.
	if configReader, err := getConfigData(env); err == nil {
		v.SetConfigName(string(env))
		if err := v.MergeConfig(configReader); err != nil {
			return xerrors.Errorf("failed to merge config %v: %w", env, err)
		}
	}
	return nil
}

func getConfigData(env Env) (io.Reader, error) {
	fileName := fmt.Sprintf("%v.yml", env)

	// If configRoot is set, read the config from the file system.
	if configRoot := GetConfigRoot(); len(configRoot) > 0 {
		configPath := fmt.Sprintf("%v/%v", configRoot, fileName)
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, xerrors.Errorf("failed to read config file %v: %w", configPath, err)
		}
		return bytes.NewBuffer(data), nil
	}

	data, err := config.Store.ReadFile(fileName)
	if err != nil {
		return nil, xerrors.Errorf("failed to read config file %v: %w", fileName, err)
	}
	return bytes.NewBuffer(data), nil
}

func (c *Config) Env() Env {
	return c.env
}

func (c *Config) GetCommonTags() map[string]string {
	region := c.AWS.Region
	if region == "" {
		region = "unknown"
	}

	return map[string]string{
		tagRegion: region,
		tagEnv:    string(c.env),
	}
}

func (c *Config) IsIntegrationTest() bool {
	return os.Getenv(EnvVarTestType) == "integration"
}

// setDerivedConfigs recursively calls DeriveConfig on all the derivedConfig.
func (c *Config) setDerivedConfigs(v reflect.Value) {
	if v.CanInterface() {
		if oc, ok := v.Interface().(derivedConfig); ok {
			oc.DeriveConfig(c)
			return
		}
	}

	elem := v.Elem()
	for i := 0; i < elem.NumField(); i++ {
		field := elem.Field(i)
		if field.Kind() == reflect.Struct && field.CanAddr() && field.Addr().CanInterface() {
			c.setDerivedConfigs(field.Addr())
		}
	}
}

func (c *AwsConfig) DeriveConfig(cfg *Config) {
	if !c.IsLocalStack {
		return
	}

	if c.Endpoint == "" {
		c.Endpoint = LocalStackEndpoint
	}
	if c.Region == "" {
		c.Region = LocalStackRegion
	}
}

// EffectiveProfile returns the shared config profile the session loads.
func (c *AwsConfig) EffectiveProfile() string {
	if c.Profile == "" {
		return DefaultProfile
	}
	return c.Profile
}

func (c *CredentialsConfig) IsStatic() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

func WithEnvironment(env Env) ConfigOption {
	return func(opts *configOptions) {
		opts.Env = env
	}
}

func WithRegion(region string) ConfigOption {
	return func(opts *configOptions) {
		opts.Region = &region
	}
}

func WithProfile(profile string) ConfigOption {
	return func(opts *configOptions) {
		opts.Profile = &profile
	}
}

func WithEndpoint(endpoint string) ConfigOption {
	return func(opts *configOptions) {
		opts.Endpoint = &endpoint
	}
}

func WithStaticCredentials(accessKeyID string, secretAccessKey string, sessionToken string) ConfigOption {
	return func(opts *configOptions) {
		opts.Credentials = &CredentialsConfig{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
			SessionToken:    sessionToken,
		}
	}
}

func WithMaxRetries(maxRetries int) ConfigOption {
	return func(opts *configOptions) {
		opts.MaxRetries = &maxRetries
	}
}

func WithLocalStack(enabled bool) ConfigOption {
	return func(opts *configOptions) {
		opts.LocalStack = &enabled
	}
}

func getConfigOptions(opts ...ConfigOption) (*configOptions, error) {
	configOpts := &configOptions{}
	for _, opt := range opts {
		opt(configOpts)
	}

	if configOpts.Env == "" {
		configOpts.Env = GetEnv()
	}

	return configOpts, nil
}

func (o *configOptions) apply(cfg *Config) {
	if o.Region != nil {
		cfg.AWS.Region = *o.Region
	}
	if o.Profile != nil {
		cfg.AWS.Profile = *o.Profile
	}
	if o.Endpoint != nil {
		cfg.AWS.Endpoint = *o.Endpoint
	}
	if o.Credentials != nil {
		cfg.AWS.Credentials = *o.Credentials
	}
	if o.MaxRetries != nil {
		cfg.AWS.MaxRetries = *o.MaxRetries
	}
	if o.LocalStack != nil {
		cfg.AWS.IsLocalStack = *o.LocalStack
	}
}
