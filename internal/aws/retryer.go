package aws

import (
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/request"
)

type customRetryer struct {
	client.DefaultRetryer
}

const (
	// Same defaults as the DynamoDB client.
	// Ref: https://github.com/aws/aws-sdk-go/blob/6fcfde5b3429cb00ea9dfc16157299cc6ec0bcaf/service/dynamodb/customizations.go#L33
	defaultMaxRetries    = 10
	defaultMinRetryDelay = 50 * time.Millisecond
)

var _ request.Retryer = &customRetryer{}

func newCustomRetryer(maxRetries int, minRetryDelay time.Duration) request.Retryer {
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	if minRetryDelay <= 0 {
		minRetryDelay = defaultMinRetryDelay
	}

	return &customRetryer{
		DefaultRetryer: client.DefaultRetryer{
			NumMaxRetries: maxRetries,
			MinRetryDelay: minRetryDelay,
		},
	}
}

// isErrReadConnectionReset returns true if the underlying error is a read connection reset error.
//
// The DefaultRetryer does not retry it since the SDK cannot know whether the operation is idempotent.
// Ref: https://github.com/aws/aws-sdk-go/pull/2926#issuecomment-553637658.
// Handles minted by a session are expected to be used for idempotent reads and puts,
// so the error is treated as retryable.
func isErrReadConnectionReset(err error) bool {
	// The error string must match the one in
	// https://github.com/aws/aws-sdk-go/blob/main/aws/request/connection_reset_error.go.
	return err != nil && strings.Contains(err.Error(), "read: connection reset")
}

// ShouldRetry overrides the implementation defined in client.DefaultRetryer.
func (sr *customRetryer) ShouldRetry(r *request.Request) bool {
	return sr.DefaultRetryer.ShouldRetry(r) || isErrReadConnectionReset(r.Error)
}
