package sdk_test

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/coinbase/cloudsession/internal/utils/testutil"
	"github.com/coinbase/cloudsession/sdk"
)

func TestLogger_SilentByDefault(t *testing.T) {
	require := testutil.Require(t)

	require.NotNil(sdk.Logger())
	require.Nil(sdk.Logger().Check(zap.ErrorLevel, "discarded"))
}

func TestSetLogger(t *testing.T) {
	require := testutil.Require(t)
	defer sdk.SetLogger(nil)

	core, logs := observer.New(zap.DebugLevel)
	sdk.SetLogger(zap.New(core))

	session, err := sdk.New(&sdk.Config{LocalStack: true})
	require.NoError(err)
	defer session.Close()

	entries := logs.FilterMessage("created aws session").All()
	require.Len(entries, 1)
	require.Equal("cloudsession", entries[0].LoggerName)
	require.Equal("us-east-1", entries[0].ContextMap()["region"])

	_, err = session.Client("s3")
	require.NoError(err)
	require.Equal(1, logs.FilterMessage("created client").Len())

	sdk.SetLogger(nil)
	_, err = session.Client("s3")
	require.NoError(err)
	require.Equal(1, logs.FilterMessage("created client").Len())
}
