package aws

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"go.uber.org/fx"

	"github.com/coinbase/cloudsession/internal/utils/fxparams"
)

type (
	ConfigParams struct {
		fx.In
		fxparams.Params
	}
)

// NewConfig translates the resolved config into an aws.Config.
// Unset fields are left nil so the SDK falls back to its own resolution chain.
func NewConfig(params ConfigParams) *aws.Config {
	awsCfg := params.Config.AWS
	cfg := &aws.Config{
		Retryer: newCustomRetryer(awsCfg.MaxRetries, awsCfg.MinRetryDelay),
	}
	if awsCfg.Region != "" {
		cfg.Region = aws.String(awsCfg.Region)
	}
	if awsCfg.Endpoint != "" {
		cfg.Endpoint = aws.String(awsCfg.Endpoint)
	}
	if awsCfg.Credentials.IsStatic() {
		cfg.Credentials = credentials.NewStaticCredentials(
			awsCfg.Credentials.AccessKeyID,
			awsCfg.Credentials.SecretAccessKey,
			awsCfg.Credentials.SessionToken,
		)
	}
	if awsCfg.IsLocalStack {
		if cfg.Credentials == nil {
			cfg.Credentials = credentials.NewStaticCredentials("THESE", "ARE", "IGNORED")
		}
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	return cfg
}
