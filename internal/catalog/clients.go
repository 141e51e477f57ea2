package catalog

import (
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/iam"
	"github.com/aws/aws-sdk-go/service/kinesis"
	"github.com/aws/aws-sdk-go/service/kms"
	"github.com/aws/aws-sdk-go/service/lambda"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/sts"
	otaws "github.com/opentracing-contrib/go-aws-sdk"
)

const (
	ServiceCloudWatch     = "cloudwatch"
	ServiceDynamoDB       = "dynamodb"
	ServiceEC2            = "ec2"
	ServiceIAM            = "iam"
	ServiceKinesis        = "kinesis"
	ServiceKMS            = "kms"
	ServiceLambda         = "lambda"
	ServiceS3             = "s3"
	ServiceSecretsManager = "secretsmanager"
	ServiceSNS            = "sns"
	ServiceSQS            = "sqs"
	ServiceSSM            = "ssm"
	ServiceSTS            = "sts"
)

var clientFactories = map[string]clientFactory{
	ServiceCloudWatch: func(sess *session.Session) (interface{}, *client.Client) {
		c := cloudwatch.New(sess)
		return c, c.Client
	},
	ServiceDynamoDB: func(sess *session.Session) (interface{}, *client.Client) {
		c := dynamodb.New(sess)
		return c, c.Client
	},
	ServiceEC2: func(sess *session.Session) (interface{}, *client.Client) {
		c := ec2.New(sess)
		return c, c.Client
	},
	ServiceIAM: func(sess *session.Session) (interface{}, *client.Client) {
		c := iam.New(sess)
		return c, c.Client
	},
	ServiceKinesis: func(sess *session.Session) (interface{}, *client.Client) {
		c := kinesis.New(sess)
		return c, c.Client
	},
	ServiceKMS: func(sess *session.Session) (interface{}, *client.Client) {
		c := kms.New(sess)
		return c, c.Client
	},
	ServiceLambda: func(sess *session.Session) (interface{}, *client.Client) {
		c := lambda.New(sess)
		return c, c.Client
	},
	ServiceS3: func(sess *session.Session) (interface{}, *client.Client) {
		c := s3.New(sess)
		return c, c.Client
	},
	ServiceSecretsManager: func(sess *session.Session) (interface{}, *client.Client) {
		c := secretsmanager.New(sess)
		return c, c.Client
	},
	ServiceSNS: func(sess *session.Session) (interface{}, *client.Client) {
		c := sns.New(sess)
		return c, c.Client
	},
	ServiceSQS: func(sess *session.Session) (interface{}, *client.Client) {
		c := sqs.New(sess)
		return c, c.Client
	},
	ServiceSSM: func(sess *session.Session) (interface{}, *client.Client) {
		c := ssm.New(sess)
		return c, c.Client
	},
	ServiceSTS: func(sess *session.Session) (interface{}, *client.Client) {
		c := sts.New(sess)
		return c, c.Client
	},
}

// addHandlers attaches opentracing request handlers to the client.
// The session is already traced, but the client-level span carries the operation name.
func addHandlers(cl *client.Client) {
	otaws.AddOTHandlers(cl)
}
