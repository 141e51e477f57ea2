package aws

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
	awstrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/aws/aws-sdk-go/aws"

	"github.com/coinbase/cloudsession/internal/utils/fxparams"
)

type (
	SessionParams struct {
		fx.In
		fxparams.Params
		AWSConfig *aws.Config
	}
)

// NewSession creates the SDK session shared by every client and resource of a Session.
// Shared config files are always loaded so that profiles, regions and credential processes resolve
// the same way the AWS CLI does.
func NewSession(params SessionParams) (*session.Session, error) {
	awsSession, err := session.NewSessionWithOptions(session.Options{
		Config:            *params.AWSConfig,
		Profile:           params.Config.AWS.Profile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to create AWS session: %w", err)
	}

	// wrap aws session for tracing requests and responses
	awsSession = awstrace.WrapSession(awsSession)

	params.Logger.Debug(
		"created aws session",
		zap.String("region", aws.StringValue(awsSession.Config.Region)),
		zap.String("profile", params.Config.AWS.EffectiveProfile()),
		zap.Bool("local_stack", params.Config.AWS.IsLocalStack),
	)
	return awsSession, nil
}
