package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/coinbase/cloudsession/internal/resource/internal/errors"
	"github.com/coinbase/cloudsession/internal/utils/instrument"
	"github.com/coinbase/cloudsession/internal/utils/log"
	"github.com/coinbase/cloudsession/internal/utils/retry"
	"github.com/coinbase/cloudsession/internal/utils/syncgroup"
)

type (
	Params struct {
		Client  dynamodbiface.DynamoDBAPI
		Logger  *zap.Logger
		Metrics tally.Scope
	}

	ServiceResource struct {
		client    dynamodbiface.DynamoDBAPI
		logger    *zap.Logger
		metrics   *resourceMetrics
		retryOpts []retry.Option
	}

	Table struct {
		name     string
		resource *ServiceResource
	}

	resourceMetrics struct {
		instrumentListTables      instrument.Call[[]*Table]
		instrumentDescribeTable   instrument.Call[*dynamodb.TableDescription]
		instrumentPutItem         instrument.Call[struct{}]
		instrumentGetItem         instrument.Call[struct{}]
		instrumentDeleteItem      instrument.Call[struct{}]
		instrumentBatchWriteItems instrument.Call[struct{}]
	}
)

const (
	ServiceName = "dynamodb"

	// MaxBatchWriteItems is the largest batch accepted by BatchWriteItem.
	MaxBatchWriteItems = 25

	maxWriteWorkers = 4
)

var (
	ErrItemNotFound    = errors.ErrItemNotFound
	ErrRequestCanceled = errors.ErrRequestCanceled
)

func New(params Params) *ServiceResource {
	logger := log.WithPackage(params.Logger)
	metrics := params.Metrics.SubScope(ServiceName)
	itemNotFound := func(err error) bool {
		return xerrors.Is(err, ErrItemNotFound)
	}

	return &ServiceResource{
		client: params.Client,
		logger: logger,
		metrics: &resourceMetrics{
			instrumentListTables:      instrument.New[[]*Table](metrics, "list_tables", instrument.WithLogger(logger)),
			instrumentDescribeTable:   instrument.New[*dynamodb.TableDescription](metrics, "describe_table", instrument.WithLogger(logger)),
			instrumentPutItem:         instrument.New[struct{}](metrics, "put_item", instrument.WithLogger(logger)),
			instrumentGetItem:         instrument.New[struct{}](metrics, "get_item", instrument.WithLogger(logger), instrument.WithFilter(itemNotFound)),
			instrumentDeleteItem:      instrument.New[struct{}](metrics, "delete_item", instrument.WithLogger(logger)),
			instrumentBatchWriteItems: instrument.New[struct{}](metrics, "batch_write_items", instrument.WithLogger(logger)),
		},
		retryOpts: []retry.Option{
			retry.WithLogger(logger),
		},
	}
}

func (r *ServiceResource) ServiceName() string {
	return ServiceName
}

// Client returns the low-level client the resource is layered on.
func (r *ServiceResource) Client() dynamodbiface.DynamoDBAPI {
	return r.client
}

func (r *ServiceResource) Table(name string) *Table {
	return &Table{
		name:     name,
		resource: r,
	}
}

func (r *ServiceResource) Tables(ctx context.Context) ([]*Table, error) {
	return r.metrics.instrumentListTables.Instrument(ctx, func(ctx context.Context) ([]*Table, error) {
		var tables []*Table
		if err := r.client.ListTablesPagesWithContext(ctx, &dynamodb.ListTablesInput{}, func(page *dynamodb.ListTablesOutput, lastPage bool) bool {
			for _, name := range page.TableNames {
				tables = append(tables, r.Table(aws.StringValue(name)))
			}
			return true
		}); err != nil {
			return nil, xerrors.Errorf("failed to list tables: %w", mapError(err))
		}

		return tables, nil
	})
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Describe(ctx context.Context) (*dynamodb.TableDescription, error) {
	return t.resource.metrics.instrumentDescribeTable.Instrument(ctx, func(ctx context.Context) (*dynamodb.TableDescription, error) {
		output, err := t.resource.client.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(t.name),
		})
		if err != nil {
			return nil, xerrors.Errorf("failed to describe table %v: %w", t.name, mapError(err))
		}

		return output.Table, nil
	}, zap.String("table", t.name))
}

// PutItem marshals item with dynamodbattribute and writes it, replacing any item with the same key.
func (t *Table) PutItem(ctx context.Context, item any) error {
	return instrument.Wrap(ctx, t.resource.metrics.instrumentPutItem, func(ctx context.Context) error {
		attributes, err := dynamodbattribute.MarshalMap(item)
		if err != nil {
			return xerrors.Errorf("failed to marshal item (%v): %w", item, err)
		}

		if _, err := t.resource.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(t.name),
			Item:      attributes,
		}); err != nil {
			return xerrors.Errorf("failed to put item: %w", mapError(err))
		}

		return nil
	}, zap.String("table", t.name))
}

// GetItem reads the item identified by key into out with a consistent read.
// ErrItemNotFound is returned if no such item exists.
func (t *Table) GetItem(ctx context.Context, key any, out any) error {
	return instrument.Wrap(ctx, t.resource.metrics.instrumentGetItem, func(ctx context.Context) error {
		attributes, err := dynamodbattribute.MarshalMap(key)
		if err != nil {
			return xerrors.Errorf("failed to marshal key (%v): %w", key, err)
		}

		output, err := t.resource.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
			TableName:      aws.String(t.name),
			Key:            attributes,
			ConsistentRead: aws.Bool(true),
		})
		if err != nil {
			return xerrors.Errorf("failed to get item for key (%v): %w", key, mapError(err))
		}

		if len(output.Item) == 0 {
			return xerrors.Errorf("missing item for key (%v): %w", key, ErrItemNotFound)
		}

		if err := dynamodbattribute.UnmarshalMap(output.Item, out); err != nil {
			return xerrors.Errorf("failed to unmarshal item (%v): %w", output.Item, err)
		}

		return nil
	}, zap.String("table", t.name))
}

func (t *Table) DeleteItem(ctx context.Context, key any) error {
	return instrument.Wrap(ctx, t.resource.metrics.instrumentDeleteItem, func(ctx context.Context) error {
		attributes, err := dynamodbattribute.MarshalMap(key)
		if err != nil {
			return xerrors.Errorf("failed to marshal key (%v): %w", key, err)
		}

		if _, err := t.resource.client.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(t.name),
			Key:       attributes,
		}); err != nil {
			return xerrors.Errorf("failed to delete item for key (%v): %w", key, mapError(err))
		}

		return nil
	}, zap.String("table", t.name))
}

// BatchWriteItems writes items in batches of MaxBatchWriteItems, a few batches at a time.
// Unprocessed items are retried with exponential backoff. Order across batches is not guaranteed.
func (t *Table) BatchWriteItems(ctx context.Context, items []any) error {
	return instrument.Wrap(ctx, t.resource.metrics.instrumentBatchWriteItems, func(ctx context.Context) error {
		writeRequests := make([]*dynamodb.WriteRequest, len(items))
		for i, item := range items {
			attributes, err := dynamodbattribute.MarshalMap(item)
			if err != nil {
				return xerrors.Errorf("failed to marshal item (%v): %w", item, err)
			}

			writeRequests[i] = &dynamodb.WriteRequest{
				PutRequest: &dynamodb.PutRequest{
					Item: attributes,
				},
			}
		}

		// Limit parallel writes to reduce the chance of getting throttled.
		g, ctx := syncgroup.New(ctx, syncgroup.WithThrottling(maxWriteWorkers))
		for i := 0; i < len(writeRequests); i += MaxBatchWriteItems {
			begin, end := i, i+MaxBatchWriteItems
			if end > len(writeRequests) {
				end = len(writeRequests)
			}

			batch := writeRequests[begin:end]
			g.Go(func() error {
				return t.batchWriteWithLimit(ctx, batch)
			})
		}

		return g.Wait()
	}, zap.String("table", t.name), zap.Int("items", len(items)))
}

func (t *Table) batchWriteWithLimit(ctx context.Context, writeRequests []*dynamodb.WriteRequest) error {
	numItems := len(writeRequests)
	if numItems > MaxBatchWriteItems {
		return xerrors.Errorf("too many items: %v", numItems)
	}

	numProcessed := 0
	return retry.Do(ctx, func(ctx context.Context) error {
		output, err := t.resource.client.BatchWriteItemWithContext(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]*dynamodb.WriteRequest{
				t.name: writeRequests,
			},
		})
		if err != nil {
			if errors.Code(err) == dynamodb.ErrCodeProvisionedThroughputExceededException {
				return retry.Throttled(xerrors.Errorf("throttled during batch write items: %w", err))
			}

			return xerrors.Errorf("failed to batch write items: %w", mapError(err))
		}

		unprocessed := output.UnprocessedItems[t.name]
		numProcessed += len(writeRequests) - len(unprocessed)
		if len(unprocessed) > 0 {
			// If DynamoDB returns any unprocessed items, back off and then retry the batch operation on those items.
			// Ref: https://docs.aws.amazon.com/amazondynamodb/latest/APIReference/API_BatchWriteItem.html
			writeRequests = unprocessed
			return retry.Retryable(xerrors.Errorf("failed to process %v items during batch write items", len(unprocessed)))
		}

		if numItems != numProcessed {
			return xerrors.Errorf("failed to write all items: expected=%v, actual=%v", numItems, numProcessed)
		}

		return nil
	}, t.resource.retryOpts...)
}

func mapError(err error) error {
	return errors.MarkCanceled(err)
}
