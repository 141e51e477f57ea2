package catalog

import (
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sqs"
	"golang.org/x/xerrors"

	resourcedynamodb "github.com/coinbase/cloudsession/internal/resource/dynamodb"
	resources3 "github.com/coinbase/cloudsession/internal/resource/s3"
	resourcesns "github.com/coinbase/cloudsession/internal/resource/sns"
	resourcesqs "github.com/coinbase/cloudsession/internal/resource/sqs"
)

var resourceFactories = map[string]resourceFactory{
	ServiceDynamoDB: func(c *catalogImpl) (Resource, error) {
		client, err := clientAs[*dynamodb.DynamoDB](c, ServiceDynamoDB)
		if err != nil {
			return nil, err
		}

		return resourcedynamodb.New(resourcedynamodb.Params{
			Client:  client,
			Logger:  c.logger,
			Metrics: c.metrics,
		}), nil
	},
	ServiceS3: func(c *catalogImpl) (Resource, error) {
		client, err := clientAs[*s3.S3](c, ServiceS3)
		if err != nil {
			return nil, err
		}

		return resources3.New(resources3.Params{
			Client:     client,
			Uploader:   s3manager.NewUploaderWithClient(client),
			Downloader: s3manager.NewDownloaderWithClient(client),
			Region:     c.region(),
			Logger:     c.logger,
			Metrics:    c.metrics,
		}), nil
	},
	ServiceSNS: func(c *catalogImpl) (Resource, error) {
		client, err := clientAs[*sns.SNS](c, ServiceSNS)
		if err != nil {
			return nil, err
		}

		return resourcesns.New(resourcesns.Params{
			Client:  client,
			Logger:  c.logger,
			Metrics: c.metrics,
		}), nil
	},
	ServiceSQS: func(c *catalogImpl) (Resource, error) {
		client, err := clientAs[*sqs.SQS](c, ServiceSQS)
		if err != nil {
			return nil, err
		}

		return resourcesqs.New(resourcesqs.Params{
			Client:  client,
			Logger:  c.logger,
			Metrics: c.metrics,
		}), nil
	},
}

func clientAs[T any](c *catalogImpl, name string) (T, error) {
	var zero T
	svc, err := c.Client(name)
	if err != nil {
		return zero, err
	}

	client, ok := svc.(T)
	if !ok {
		return zero, xerrors.Errorf("unexpected client type for %v: %T", name, svc)
	}

	return client, nil
}
