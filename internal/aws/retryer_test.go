package aws

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/request"

	"github.com/coinbase/cloudsession/internal/utils/testutil"
)

var errReadConnectionReset = awserr.New(
	request.ErrCodeRequestError,
	"send request failed",
	&net.OpError{
		Op:  "read",
		Err: errors.New("connection reset"),
	},
)

func TestDefaultRetryer(t *testing.T) {
	require := testutil.Require(t)
	req := &request.Request{
		Error: errReadConnectionReset,
	}
	retryer := client.DefaultRetryer{NumMaxRetries: 3}
	require.False(retryer.ShouldRetry(req))
}

func TestCustomRetryer(t *testing.T) {
	require := testutil.Require(t)
	req := &request.Request{
		Error: errReadConnectionReset,
	}
	retryer := newCustomRetryer(3, time.Millisecond)
	require.True(retryer.ShouldRetry(req))
	require.Equal(3, retryer.MaxRetries())
}

func TestCustomRetryer_Defaults(t *testing.T) {
	require := testutil.Require(t)

	retryer := newCustomRetryer(-1, 0).(*customRetryer)
	require.Equal(defaultMaxRetries, retryer.MaxRetries())
	require.Equal(defaultMinRetryDelay, retryer.MinRetryDelay)

	// Zero disables retries.
	retryer = newCustomRetryer(0, time.Millisecond).(*customRetryer)
	require.Equal(0, retryer.MaxRetries())
}
