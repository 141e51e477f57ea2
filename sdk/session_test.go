package sdk_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	"golang.org/x/xerrors"

	"github.com/coinbase/cloudsession/internal/config"
	"github.com/coinbase/cloudsession/internal/utils/pointer"
	"github.com/coinbase/cloudsession/internal/utils/testutil"
	"github.com/coinbase/cloudsession/sdk"
)

func newTestSession(t *testing.T, cfg *sdk.Config) sdk.Session {
	require := testutil.Require(t)

	session, err := sdk.New(cfg)
	require.NoError(err)
	t.Cleanup(func() {
		require.NoError(session.Close())
	})
	return session
}

func TestNew(t *testing.T) {
	for _, env := range []sdk.Env{sdk.EnvLocal, sdk.EnvDevelopment, sdk.EnvProduction} {
		t.Run(string(env), func(t *testing.T) {
			require := testutil.Require(t)

			session := newTestSession(t, &sdk.Config{
				Region:          "us-west-2",
				AccessKeyID:     "AKID",
				SecretAccessKey: "SECRET",
				SessionToken:    "TOKEN",
				Env:             env,
			})
			require.Equal("us-west-2", session.RegionName())
			require.Equal(config.DefaultProfile, session.ProfileName())
			require.NotNil(session.AWSSession())

			value, err := session.Credentials()
			require.NoError(err)
			require.Equal("AKID", value.AccessKeyID)
			require.Equal("SECRET", value.SecretAccessKey)
			require.Equal("TOKEN", value.SessionToken)
		})
	}
}

func TestNew_Client(t *testing.T) {
	require := testutil.Require(t)

	session := newTestSession(t, &sdk.Config{
		Region:          "eu-west-1",
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
	})

	client, err := session.Client("s3")
	require.NoError(err)
	s3Client, ok := client.(*s3.S3)
	require.True(ok)
	require.Equal("eu-west-1", aws.StringValue(s3Client.Config.Region))

	client, err = session.Client("DynamoDB")
	require.NoError(err)
	require.IsType(&dynamodb.DynamoDB{}, client)

	_, err = session.Client("foo")
	require.Error(err)
	require.True(xerrors.Is(err, sdk.ErrUnknownService))

	require.Contains(session.AvailableServices(), "s3")
	require.Equal([]string{"dynamodb", "s3", "sns", "sqs"}, session.AvailableResources())
}

func TestNew_Resource(t *testing.T) {
	require := testutil.Require(t)

	session := newTestSession(t, &sdk.Config{
		Region:          "eu-west-1",
		AccessKeyID:     "AKID",
		SecretAccessKey: "SECRET",
	})

	resource, err := session.Resource("s3")
	require.NoError(err)
	require.IsType(&sdk.S3Resource{}, resource)
	require.Equal("s3", resource.ServiceName())

	resource, err = session.Resource("dynamodb")
	require.NoError(err)
	require.IsType(&sdk.DynamoDBResource{}, resource)

	resource, err = session.Resource("sns")
	require.NoError(err)
	require.IsType(&sdk.SNSResource{}, resource)

	_, err = session.Resource("ec2")
	require.Error(err)
	require.True(xerrors.Is(err, sdk.ErrUnknownService))
}

func TestNew_Profile(t *testing.T) {
	require := testutil.Require(t)

	dir := t.TempDir()
	configFile := filepath.Join(dir, "config")
	credentialsFile := filepath.Join(dir, "credentials")
	require.NoError(os.WriteFile(configFile, []byte("[profile ops]\nregion = ap-northeast-1\n"), 0o600))
	require.NoError(os.WriteFile(credentialsFile, []byte("[ops]\naws_access_key_id = OPSKEY\naws_secret_access_key = OPSSECRET\n"), 0o600))
	t.Setenv("AWS_CONFIG_FILE", configFile)
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", credentialsFile)

	session := newTestSession(t, &sdk.Config{Profile: "ops"})
	require.Equal("ops", session.ProfileName())
	require.Equal("ap-northeast-1", session.RegionName())

	value, err := session.Credentials()
	require.NoError(err)
	require.Equal("OPSKEY", value.AccessKeyID)
}

func TestNew_LocalStack(t *testing.T) {
	require := testutil.Require(t)

	session := newTestSession(t, &sdk.Config{LocalStack: true})
	require.Equal(config.LocalStackRegion, session.RegionName())
	require.Equal(config.LocalStackEndpoint, aws.StringValue(session.AWSSession().Config.Endpoint))
	require.True(aws.BoolValue(session.AWSSession().Config.S3ForcePathStyle))

	value, err := session.Credentials()
	require.NoError(err)
	require.NotEmpty(value.AccessKeyID)
}

func TestNew_MaxRetries(t *testing.T) {
	require := testutil.Require(t)

	session := newTestSession(t, &sdk.Config{
		Region:     "us-east-1",
		MaxRetries: pointer.Ref(2),
		LocalStack: true,
	})
	require.Equal(2, session.AWSSession().Config.Retryer.(interface{ MaxRetries() int }).MaxRetries())
}

func TestNew_InvalidConfig(t *testing.T) {
	testCases := []struct {
		name string
		cfg  *sdk.Config
	}{
		{name: "partial credentials", cfg: &sdk.Config{AccessKeyID: "AKID"}},
		{name: "invalid env", cfg: &sdk.Config{Env: "prod"}},
		{name: "negative retries", cfg: &sdk.Config{MaxRetries: pointer.Ref(-1)}},
		{name: "invalid endpoint", cfg: &sdk.Config{Endpoint: "not a url"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require := testutil.Require(t)

			_, err := sdk.New(tc.cfg)
			require.Error(err)
		})
	}
}

func TestClose(t *testing.T) {
	require := testutil.Require(t)

	session, err := sdk.New(&sdk.Config{LocalStack: true})
	require.NoError(err)
	require.NoError(session.Close())
	require.NoError(session.Close())
}
