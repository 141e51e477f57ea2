package sdk

import (
	"github.com/coinbase/cloudsession/internal/catalog"
	"github.com/coinbase/cloudsession/internal/resource/dynamodb"
	"github.com/coinbase/cloudsession/internal/resource/s3"
	"github.com/coinbase/cloudsession/internal/resource/sns"
	"github.com/coinbase/cloudsession/internal/resource/sqs"
)

type (
	// ResourceHandle is the object-oriented view of a service, see Session.Resource.
	ResourceHandle = catalog.Resource

	S3Resource = s3.ServiceResource
	S3Bucket   = s3.Bucket
	S3Object   = s3.Object

	SQSResource = sqs.ServiceResource
	SQSQueue    = sqs.Queue
	SQSMessage  = sqs.Message

	DynamoDBResource = dynamodb.ServiceResource
	DynamoDBTable    = dynamodb.Table

	SNSResource = sns.ServiceResource
	SNSTopic    = sns.Topic
)

var (
	ErrUnknownService  = catalog.ErrUnknownService
	ErrObjectNotFound  = s3.ErrObjectNotFound
	ErrBucketNotFound  = s3.ErrBucketNotFound
	ErrQueueNotFound   = sqs.ErrQueueNotFound
	ErrItemNotFound    = dynamodb.ErrItemNotFound
	ErrTopicNotFound   = sns.ErrTopicNotFound
	ErrRequestCanceled = s3.ErrRequestCanceled
)
