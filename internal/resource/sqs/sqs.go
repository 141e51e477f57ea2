package sqs

import (
	"context"
	"path"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
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
		Client  sqsiface.SQSAPI
		Logger  *zap.Logger
		Metrics tally.Scope
	}

	ServiceResource struct {
		client  sqsiface.SQSAPI
		logger  *zap.Logger
		metrics *resourceMetrics
	}

	Queue struct {
		name     string
		url      string
		resource *ServiceResource
	}

	Message struct {
		ID            string
		Body          string
		ReceiptHandle string
		Attributes    map[string]string
		SentTimestamp time.Time
		queue         *Queue
	}

	resourceMetrics struct {
		instrumentGetQueueURL      instrument.Call[string]
		instrumentCreateQueue      instrument.Call[string]
		instrumentListQueues       instrument.Call[[]*Queue]
		instrumentDeleteQueue      instrument.Call[struct{}]
		instrumentPurgeQueue       instrument.Call[struct{}]
		instrumentSendMessage      instrument.Call[string]
		instrumentReceiveMessages  instrument.Call[[]*Message]
		instrumentDeleteMessage    instrument.Call[struct{}]
		instrumentChangeVisibility instrument.Call[struct{}]
	}
)

const (
	ServiceName = "sqs"

	MaxReceiveMessages = 10
	MaxWaitTime        = 20 * time.Second

	stringDataType = "String"
)

var (
	ErrQueueNotFound   = errors.ErrQueueNotFound
	ErrRequestCanceled = errors.ErrRequestCanceled
)

func New(params Params) *ServiceResource {
	logger := log.WithPackage(params.Logger)
	metrics := params.Metrics.SubScope(ServiceName)
	queueNotFound := func(err error) bool {
		return xerrors.Is(err, ErrQueueNotFound)
	}

	return &ServiceResource{
		client: params.Client,
		logger: logger,
		metrics: &resourceMetrics{
			instrumentGetQueueURL:      instrument.New[string](metrics, "get_queue_url", instrument.WithLogger(logger), instrument.WithFilter(queueNotFound)),
			instrumentCreateQueue:      instrument.New[string](metrics, "create_queue", instrument.WithLogger(logger)),
			instrumentListQueues:       instrument.New[[]*Queue](metrics, "list_queues", instrument.WithLogger(logger)),
			instrumentDeleteQueue:      instrument.New[struct{}](metrics, "delete_queue", instrument.WithLogger(logger)),
			instrumentPurgeQueue:       instrument.New[struct{}](metrics, "purge_queue", instrument.WithLogger(logger)),
			instrumentSendMessage:      instrument.New[string](metrics, "send_message", instrument.WithLogger(logger)),
			instrumentReceiveMessages:  instrument.New[[]*Message](metrics, "receive_messages", instrument.WithLogger(logger)),
			instrumentDeleteMessage:    instrument.New[struct{}](metrics, "delete_message", instrument.WithLogger(logger)),
			instrumentChangeVisibility: instrument.New[struct{}](metrics, "change_message_visibility", instrument.WithLogger(logger)),
		},
	}
}

func (r *ServiceResource) ServiceName() string {
	return ServiceName
}

// Client returns the low-level client the resource is layered on.
func (r *ServiceResource) Client() sqsiface.SQSAPI {
	return r.client
}

// Queue resolves the URL of an existing queue.
func (r *ServiceResource) Queue(ctx context.Context, name string) (*Queue, error) {
	url, err := r.metrics.instrumentGetQueueURL.Instrument(ctx, func(ctx context.Context) (string, error) {
		output, err := r.client.GetQueueUrlWithContext(ctx, &sqs.GetQueueUrlInput{
			QueueName: aws.String(name),
		})
		if err != nil {
			return "", xerrors.Errorf("failed to get queue url (name=%v): %w", name, mapError(err))
		}

		url := pointer.Deref(output.QueueUrl)
		if url == "" {
			return "", xerrors.Errorf("empty queue url (name=%v)", name)
		}
		return url, nil
	}, zap.String("queue", name))
	if err != nil {
		return nil, err
	}

	return r.newQueue(name, url), nil
}

// QueueFromURL returns a handle for a queue whose URL is already known.
func (r *ServiceResource) QueueFromURL(url string) *Queue {
	return r.newQueue(path.Base(url), url)
}

// CreateQueue creates the queue, or returns the existing one if its attributes match.
func (r *ServiceResource) CreateQueue(ctx context.Context, name string, attributes map[string]string) (*Queue, error) {
	url, err := r.metrics.instrumentCreateQueue.Instrument(ctx, func(ctx context.Context) (string, error) {
		input := &sqs.CreateQueueInput{
			QueueName: aws.String(name),
		}
		if len(attributes) > 0 {
			input.Attributes = aws.StringMap(attributes)
		}

		output, err := r.client.CreateQueueWithContext(ctx, input)
		if err != nil {
			return "", xerrors.Errorf("failed to create queue %v: %w", name, mapError(err))
		}

		return pointer.Deref(output.QueueUrl), nil
	}, zap.String("queue", name))
	if err != nil {
		return nil, err
	}

	return r.newQueue(name, url), nil
}

// Queues lists the queues whose name starts with prefix, sorted by URL.
func (r *ServiceResource) Queues(ctx context.Context, prefix string) ([]*Queue, error) {
	return r.metrics.instrumentListQueues.Instrument(ctx, func(ctx context.Context) ([]*Queue, error) {
		input := &sqs.ListQueuesInput{}
		if prefix != "" {
			input.QueueNamePrefix = aws.String(prefix)
		}

		var urls []string
		if err := r.client.ListQueuesPagesWithContext(ctx, input, func(page *sqs.ListQueuesOutput, lastPage bool) bool {
			urls = append(urls, aws.StringValueSlice(page.QueueUrls)...)
			return true
		}); err != nil {
			return nil, xerrors.Errorf("failed to list queues: %w", mapError(err))
		}

		sort.Strings(urls)
		queues := make([]*Queue, len(urls))
		for i, url := range urls {
			queues[i] = r.QueueFromURL(url)
		}
		return queues, nil
	}, zap.String("prefix", prefix))
}

func (r *ServiceResource) newQueue(name string, url string) *Queue {
	return &Queue{
		name:     name,
		url:      url,
		resource: r,
	}
}

func (q *Queue) Name() string {
	return q.name
}

func (q *Queue) URL() string {
	return q.url
}

// SendMessage sends body with optional string attributes and returns the message id.
func (q *Queue) SendMessage(ctx context.Context, body string, attributes map[string]string) (string, error) {
	return q.resource.metrics.instrumentSendMessage.Instrument(ctx, func(ctx context.Context) (string, error) {
		input := &sqs.SendMessageInput{
			QueueUrl:    aws.String(q.url),
			MessageBody: aws.String(body),
		}
		if len(attributes) > 0 {
			input.MessageAttributes = make(map[string]*sqs.MessageAttributeValue, len(attributes))
			for k, v := range attributes {
				input.MessageAttributes[k] = &sqs.MessageAttributeValue{
					DataType:    aws.String(stringDataType),
					StringValue: aws.String(v),
				}
			}
		}

		output, err := q.resource.client.SendMessageWithContext(ctx, input)
		if err != nil {
			return "", xerrors.Errorf("failed to send message: %w", mapError(err))
		}

		return pointer.Deref(output.MessageId), nil
	}, zap.String("queue", q.name))
}

// ReceiveMessages receives up to maxMessages messages, long-polling for at most wait.
// maxMessages is clamped to [1, MaxReceiveMessages] and wait to [0, MaxWaitTime].
func (q *Queue) ReceiveMessages(ctx context.Context, maxMessages int, wait time.Duration) ([]*Message, error) {
	if maxMessages < 1 {
		maxMessages = 1
	} else if maxMessages > MaxReceiveMessages {
		maxMessages = MaxReceiveMessages
	}

	if wait < 0 {
		wait = 0
	} else if wait > MaxWaitTime {
		wait = MaxWaitTime
	}

	return q.resource.metrics.instrumentReceiveMessages.Instrument(ctx, func(ctx context.Context) ([]*Message, error) {
		output, err := q.resource.client.ReceiveMessageWithContext(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(q.url),
			MaxNumberOfMessages: aws.Int64(int64(maxMessages)),
			WaitTimeSeconds:     aws.Int64(int64(wait / time.Second)),
			AttributeNames: []*string{
				aws.String(sqs.MessageSystemAttributeNameSentTimestamp),
			},
			MessageAttributeNames: []*string{
				aws.String(sqs.QueueAttributeNameAll),
			},
		})
		if err != nil {
			return nil, xerrors.Errorf("failed to receive messages: %w", mapError(err))
		}

		messages := make([]*Message, 0, len(output.Messages))
		for _, m := range output.Messages {
			message := &Message{
				ID:            pointer.Deref(m.MessageId),
				Body:          pointer.Deref(m.Body),
				ReceiptHandle: pointer.Deref(m.ReceiptHandle),
				Attributes:    make(map[string]string, len(m.MessageAttributes)),
				queue:         q,
			}
			for k, v := range m.MessageAttributes {
				message.Attributes[k] = pointer.Deref(v.StringValue)
			}
			if sentTimestamp, err := parseTimestamp(pointer.Deref(m.Attributes[sqs.MessageSystemAttributeNameSentTimestamp])); err == nil {
				message.SentTimestamp = sentTimestamp
			}
			messages = append(messages, message)
		}

		return messages, nil
	}, zap.String("queue", q.name))
}

// Purge deletes every message in the queue.
func (q *Queue) Purge(ctx context.Context) error {
	return instrument.Wrap(ctx, q.resource.metrics.instrumentPurgeQueue, func(ctx context.Context) error {
		if _, err := q.resource.client.PurgeQueueWithContext(ctx, &sqs.PurgeQueueInput{
			QueueUrl: aws.String(q.url),
		}); err != nil {
			return xerrors.Errorf("failed to purge queue %v: %w", q.name, mapError(err))
		}

		return nil
	}, zap.String("queue", q.name))
}

func (q *Queue) Delete(ctx context.Context) error {
	return instrument.Wrap(ctx, q.resource.metrics.instrumentDeleteQueue, func(ctx context.Context) error {
		if _, err := q.resource.client.DeleteQueueWithContext(ctx, &sqs.DeleteQueueInput{
			QueueUrl: aws.String(q.url),
		}); err != nil {
			return xerrors.Errorf("failed to delete queue %v: %w", q.name, mapError(err))
		}

		return nil
	}, zap.String("queue", q.name))
}

func (m *Message) Queue() *Queue {
	return m.queue
}

func (m *Message) Delete(ctx context.Context) error {
	q := m.queue
	return instrument.Wrap(ctx, q.resource.metrics.instrumentDeleteMessage, func(ctx context.Context) error {
		if _, err := q.resource.client.DeleteMessageWithContext(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(q.url),
			ReceiptHandle: aws.String(m.ReceiptHandle),
		}); err != nil {
			return xerrors.Errorf("failed to delete message %v: %w", m.ID, mapError(err))
		}

		return nil
	}, zap.String("queue", q.name), zap.String("message_id", m.ID))
}

// ChangeVisibility makes the message invisible to other consumers for timeout, counted from now.
func (m *Message) ChangeVisibility(ctx context.Context, timeout time.Duration) error {
	q := m.queue
	return instrument.Wrap(ctx, q.resource.metrics.instrumentChangeVisibility, func(ctx context.Context) error {
		if _, err := q.resource.client.ChangeMessageVisibilityWithContext(ctx, &sqs.ChangeMessageVisibilityInput{
			QueueUrl:          aws.String(q.url),
			ReceiptHandle:     aws.String(m.ReceiptHandle),
			VisibilityTimeout: aws.Int64(int64(timeout / time.Second)),
		}); err != nil {
			return xerrors.Errorf("failed to change visibility of message %v: %w", m.ID, mapError(err))
		}

		return nil
	}, zap.String("queue", q.name), zap.String("message_id", m.ID), zap.Duration("timeout", timeout))
}

func parseTimestamp(epochMillis string) (time.Time, error) {
	ms, err := strconv.ParseInt(epochMillis, 10, 64)
	if err != nil {
		return time.Time{}, xerrors.Errorf("failed to parse timestamp %q: %w", epochMillis, err)
	}

	return time.UnixMilli(ms), nil
}

func mapError(err error) error {
	switch errors.Code(err) {
	case sqs.ErrCodeQueueDoesNotExist:
		return errors.Mark(err, ErrQueueNotFound)
	}

	return errors.MarkCanceled(err)
}
