package aws_test

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"go.uber.org/fx"

	"github.com/coinbase/cloudsession/internal/config"
	"github.com/coinbase/cloudsession/internal/utils/testapp"
	"github.com/coinbase/cloudsession/internal/utils/testutil"
)

func TestNewSession(t *testing.T) {
	testapp.TestAllEnvs(t, func(t *testing.T, cfg *config.Config) {
		require := testutil.Require(t)

		var sess *session.Session
		app := testapp.New(t, testapp.WithConfig(cfg), fx.Populate(&sess))
		defer app.Close()

		require.NotNil(sess)
		require.Equal("us-east-1", aws.StringValue(sess.Config.Region))
		require.Nil(sess.Config.Endpoint)
		require.False(aws.BoolValue(sess.Config.S3ForcePathStyle))

		creds, err := sess.Config.Credentials.Get()
		require.NoError(err)
		require.Equal("AKID", creds.AccessKeyID)
		require.Equal("SECRET", creds.SecretAccessKey)
	})
}

func TestNewSession_LocalStack(t *testing.T) {
	require := testutil.Require(t)

	cfg, err := config.New(config.WithEnvironment(config.EnvLocal), config.WithLocalStack(true))
	require.NoError(err)

	var sess *session.Session
	app := testapp.New(t, testapp.WithConfig(cfg), fx.Populate(&sess))
	defer app.Close()

	require.Equal(config.LocalStackRegion, aws.StringValue(sess.Config.Region))
	require.Equal(config.LocalStackEndpoint, aws.StringValue(sess.Config.Endpoint))
	require.True(aws.BoolValue(sess.Config.S3ForcePathStyle))

	creds, err := sess.Config.Credentials.Get()
	require.NoError(err)
	require.NotEmpty(creds.AccessKeyID)
}

func TestNewSession_MaxRetries(t *testing.T) {
	require := testutil.Require(t)

	cfg, err := config.New(
		config.WithEnvironment(config.EnvLocal),
		config.WithRegion("us-west-2"),
		config.WithMaxRetries(2),
	)
	require.NoError(err)

	var sess *session.Session
	app := testapp.New(t, testapp.WithConfig(cfg), fx.Populate(&sess))
	defer app.Close()

	require.Equal(2, sess.Config.Retryer.(interface{ MaxRetries() int }).MaxRetries())
}
