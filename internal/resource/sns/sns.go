package sns

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/arn"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/coinbase/cloudsession/internal/resource/internal/errors"
	"github.com/coinbase/cloudsession/internal/utils/instrument"
	"github.com/coinbase/cloudsession/internal/utils/log"
	"github.com/coinbase/cloudsession/internal/utils/pointer"
)

type (
	Params struct {
		Client  snsiface.SNSAPI
		Logger  *zap.Logger
		Metrics tally.Scope
	}

	ServiceResource struct {
		client  snsiface.SNSAPI
		logger  *zap.Logger
		metrics *resourceMetrics
	}

	Topic struct {
		arn      string
		resource *ServiceResource
	}

	resourceMetrics struct {
		instrumentCreateTopic instrument.Call[string]
		instrumentListTopics  instrument.Call[[]*Topic]
		instrumentDeleteTopic instrument.Call[struct{}]
		instrumentPublish     instrument.Call[string]
	}
)

const (
	ServiceName = "sns"
)

var (
	ErrTopicNotFound   = errors.ErrTopicNotFound
	ErrRequestCanceled = errors.ErrRequestCanceled
)

func New(params Params) *ServiceResource {
	logger := log.WithPackage(params.Logger)
	metrics := params.Metrics.SubScope(ServiceName)

	return &ServiceResource{
		client: params.Client,
		logger: logger,
		metrics: &resourceMetrics{
			instrumentCreateTopic: instrument.New[string](metrics, "create_topic", instrument.WithLogger(logger)),
			instrumentListTopics:  instrument.New[[]*Topic](metrics, "list_topics", instrument.WithLogger(logger)),
			instrumentDeleteTopic: instrument.New[struct{}](metrics, "delete_topic", instrument.WithLogger(logger)),
			instrumentPublish:     instrument.New[string](metrics, "publish", instrument.WithLogger(logger)),
		},
	}
}

func (r *ServiceResource) ServiceName() string {
	return ServiceName
}

// Client returns the low-level client the resource is layered on.
func (r *ServiceResource) Client() snsiface.SNSAPI {
	return r.client
}

// Topic returns a handle for the topic identified by topicARN. No request is made.
func (r *ServiceResource) Topic(topicARN string) *Topic {
	return &Topic{
		arn:      topicARN,
		resource: r,
	}
}

// CreateTopic creates the topic, or returns the existing one with the same name.
func (r *ServiceResource) CreateTopic(ctx context.Context, name string) (*Topic, error) {
	topicARN, err := r.metrics.instrumentCreateTopic.Instrument(ctx, func(ctx context.Context) (string, error) {
		output, err := r.client.CreateTopicWithContext(ctx, &sns.CreateTopicInput{
			Name: aws.String(name),
		})
		if err != nil {
			return "", xerrors.Errorf("failed to create topic %v: %w", name, mapError(err))
		}

		return pointer.Deref(output.TopicArn), nil
	}, zap.String("topic", name))
	if err != nil {
		return nil, err
	}

	return r.Topic(topicARN), nil
}

func (r *ServiceResource) Topics(ctx context.Context) ([]*Topic, error) {
	return r.metrics.instrumentListTopics.Instrument(ctx, func(ctx context.Context) ([]*Topic, error) {
		var topics []*Topic
		if err := r.client.ListTopicsPagesWithContext(ctx, &sns.ListTopicsInput{}, func(page *sns.ListTopicsOutput, lastPage bool) bool {
			for _, topic := range page.Topics {
				topics = append(topics, r.Topic(pointer.Deref(topic.TopicArn)))
			}
			return true
		}); err != nil {
			return nil, xerrors.Errorf("failed to list topics: %w", mapError(err))
		}

		return topics, nil
	})
}

func (t *Topic) ARN() string {
	return t.arn
}

// Name returns the last component of the topic ARN, or the ARN itself if it cannot be parsed.
func (t *Topic) Name() string {
	parsed, err := arn.Parse(t.arn)
	if err != nil {
		return t.arn
	}

	return parsed.Resource
}

// Publish publishes message to the topic and returns the message id. An empty subject is omitted.
func (t *Topic) Publish(ctx context.Context, message string, subject string) (string, error) {
	return t.resource.metrics.instrumentPublish.Instrument(ctx, func(ctx context.Context) (string, error) {
		input := &sns.PublishInput{
			TopicArn: aws.String(t.arn),
			Message:  aws.String(message),
		}
		if subject != "" {
			input.Subject = aws.String(subject)
		}

		output, err := t.resource.client.PublishWithContext(ctx, input)
		if err != nil {
			return "", xerrors.Errorf("failed to publish to topic %v: %w", t.arn, mapError(err))
		}

		return pointer.Deref(output.MessageId), nil
	}, zap.String("topic", t.arn))
}

func (t *Topic) Delete(ctx context.Context) error {
	return instrument.Wrap(ctx, t.resource.metrics.instrumentDeleteTopic, func(ctx context.Context) error {
		if _, err := t.resource.client.DeleteTopicWithContext(ctx, &sns.DeleteTopicInput{
			TopicArn: aws.String(t.arn),
		}); err != nil {
			return xerrors.Errorf("failed to delete topic %v: %w", t.arn, mapError(err))
		}

		return nil
	}, zap.String("topic", t.arn))
}

func mapError(err error) error {
	switch errors.Code(err) {
	case sns.ErrCodeNotFoundException:
		return errors.Mark(err, ErrTopicNotFound)
	}

	return errors.MarkCanceled(err)
}
