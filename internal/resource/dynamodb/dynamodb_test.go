package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/suite"
	"github.com/uber-go/tally/v4"
	"go.uber.org/zap/zaptest"
	"golang.org/x/xerrors"

	"github.com/coinbase/cloudsession/internal/utils/retry"
	"github.com/coinbase/cloudsession/internal/utils/testutil"
)

type (
	resourceTestSuite struct {
		suite.Suite
		fake     *fakeDynamoDB
		scope    tally.TestScope
		resource *ServiceResource
	}

	fakeDynamoDB struct {
		dynamodbiface.DynamoDBAPI
		mu              sync.Mutex
		items           map[string]map[string]*dynamodb.AttributeValue
		batchSizes      []int
		unprocessedLeft int
		throttledLeft   int
		err             error
	}

	testItem struct {
		ID    string `dynamodbav:"id"`
		Value int    `dynamodbav:"value"`
	}

	testKey struct {
		ID string `dynamodbav:"id"`
	}
)

const tableName = "items"

func TestResourceTestSuite(t *testing.T) {
	suite.Run(t, new(resourceTestSuite))
}

func (s *resourceTestSuite) SetupTest() {
	s.fake = &fakeDynamoDB{items: make(map[string]map[string]*dynamodb.AttributeValue)}
	s.scope = tally.NewTestScope("cloudsession", nil)
	s.resource = New(Params{
		Client:  s.fake,
		Logger:  zaptest.NewLogger(s.T()),
		Metrics: s.scope,
	})
	s.resource.retryOpts = append(s.resource.retryOpts,
		retry.WithBackoffFactory(func() backoff.BackOff {
			return backoff.NewConstantBackOff(time.Millisecond)
		}),
		retry.WithThrottleDelay(time.Millisecond),
	)
}

func (s *resourceTestSuite) TestServiceName() {
	require := testutil.Require(s.T())
	require.Equal("dynamodb", s.resource.ServiceName())
	require.Equal(s.fake, s.resource.Client())
	require.Equal(tableName, s.resource.Table(tableName).Name())
}

func (s *resourceTestSuite) TestPutGetDeleteItem() {
	require := testutil.Require(s.T())
	ctx := context.Background()
	table := s.resource.Table(tableName)

	require.NoError(table.PutItem(ctx, &testItem{ID: "a", Value: 1}))

	var actual testItem
	require.NoError(table.GetItem(ctx, &testKey{ID: "a"}, &actual))
	require.Equal(testItem{ID: "a", Value: 1}, actual)

	require.NoError(table.DeleteItem(ctx, &testKey{ID: "a"}))
	err := table.GetItem(ctx, &testKey{ID: "a"}, &actual)
	require.Error(err)
	require.True(xerrors.Is(err, ErrItemNotFound))

	snapshot := s.scope.Snapshot()
	require.Contains(snapshot.Counters(), "cloudsession.dynamodb.put_item+result_type=success")
	require.Contains(snapshot.Counters(), "cloudsession.dynamodb.get_item+filtered=true,result_type=success")
}

func (s *resourceTestSuite) TestPutItem_Canceled() {
	require := testutil.Require(s.T())

	s.fake.err = awserr.New(request.CanceledErrorCode, "context canceled", nil)
	err := s.resource.Table(tableName).PutItem(context.Background(), &testItem{ID: "a"})
	require.Error(err)
	require.True(xerrors.Is(err, ErrRequestCanceled))
}

func (s *resourceTestSuite) TestBatchWriteItems() {
	require := testutil.Require(s.T())
	ctx := context.Background()
	table := s.resource.Table(tableName)

	items := make([]any, 60)
	for i := range items {
		items[i] = &testItem{ID: fmt.Sprintf("item-%02d", i), Value: i}
	}

	require.NoError(table.BatchWriteItems(ctx, items))
	require.Len(s.fake.items, 60)

	sizes := append([]int(nil), s.fake.batchSizes...)
	sort.Ints(sizes)
	require.Equal([]int{10, 25, 25}, sizes)

	var actual testItem
	require.NoError(table.GetItem(ctx, &testKey{ID: "item-42"}, &actual))
	require.Equal(42, actual.Value)
}

func (s *resourceTestSuite) TestBatchWriteItems_RetryUnprocessed() {
	require := testutil.Require(s.T())
	ctx := context.Background()

	s.fake.unprocessedLeft = 2
	items := make([]any, 5)
	for i := range items {
		items[i] = &testItem{ID: fmt.Sprintf("item-%v", i), Value: i}
	}

	require.NoError(s.resource.Table(tableName).BatchWriteItems(ctx, items))
	require.Len(s.fake.items, 5)
	// The first attempt leaves one item unprocessed twice, then succeeds.
	require.Equal([]int{5, 1, 1}, s.fake.batchSizes)
}

func (s *resourceTestSuite) TestBatchWriteItems_Throttled() {
	require := testutil.Require(s.T())
	ctx := context.Background()

	s.fake.throttledLeft = 1
	require.NoError(s.resource.Table(tableName).BatchWriteItems(ctx, []any{&testItem{ID: "a"}}))
	require.Len(s.fake.items, 1)
}

func (s *resourceTestSuite) TestBatchWriteItems_MaxAttempts() {
	require := testutil.Require(s.T())
	ctx := context.Background()

	s.fake.unprocessedLeft = 100
	err := s.resource.Table(tableName).BatchWriteItems(ctx, []any{&testItem{ID: "a"}, &testItem{ID: "b"}})
	require.Error(err)
	require.True(retry.IsRetryable(err))
	require.Len(s.fake.batchSizes, retry.DefaultMaxAttempts)
}

func (s *resourceTestSuite) TestBatchWriteItems_Empty() {
	require := testutil.Require(s.T())

	require.NoError(s.resource.Table(tableName).BatchWriteItems(context.Background(), nil))
	require.Empty(s.fake.batchSizes)
}

func (s *resourceTestSuite) TestDescribe() {
	require := testutil.Require(s.T())

	description, err := s.resource.Table(tableName).Describe(context.Background())
	require.NoError(err)
	require.Equal(tableName, aws.StringValue(description.TableName))

	_, err = s.resource.Table("missing").Describe(context.Background())
	require.Error(err)
}

func (s *resourceTestSuite) TestTables() {
	require := testutil.Require(s.T())

	tables, err := s.resource.Tables(context.Background())
	require.NoError(err)
	require.Len(tables, 1)
	require.Equal(tableName, tables[0].Name())
}

func (f *fakeDynamoDB) key(attributes map[string]*dynamodb.AttributeValue) string {
	return aws.StringValue(attributes["id"].S)
}

func (f *fakeDynamoDB) PutItemWithContext(_ aws.Context, input *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	f.items[f.key(input.Item)] = input.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) GetItemWithContext(_ aws.Context, input *dynamodb.GetItemInput, _ ...request.Option) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !aws.BoolValue(input.ConsistentRead) {
		return nil, xerrors.New("expected consistent read")
	}
	return &dynamodb.GetItemOutput{Item: f.items[f.key(input.Key)]}, nil
}

func (f *fakeDynamoDB) DeleteItemWithContext(_ aws.Context, input *dynamodb.DeleteItemInput, _ ...request.Option) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.items, f.key(input.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamoDB) BatchWriteItemWithContext(_ aws.Context, input *dynamodb.BatchWriteItemInput, _ ...request.Option) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.throttledLeft > 0 {
		f.throttledLeft--
		return nil, awserr.New(dynamodb.ErrCodeProvisionedThroughputExceededException, "slow down", nil)
	}

	requests := input.RequestItems[tableName]
	f.batchSizes = append(f.batchSizes, len(requests))

	output := &dynamodb.BatchWriteItemOutput{}
	if f.unprocessedLeft > 0 && len(requests) > 0 {
		f.unprocessedLeft--
		last := len(requests) - 1
		output.UnprocessedItems = map[string][]*dynamodb.WriteRequest{
			tableName: requests[last:],
		}
		requests = requests[:last]
	}

	for _, r := range requests {
		f.items[f.key(r.PutRequest.Item)] = r.PutRequest.Item
	}
	return output, nil
}

func (f *fakeDynamoDB) DescribeTableWithContext(_ aws.Context, input *dynamodb.DescribeTableInput, _ ...request.Option) (*dynamodb.DescribeTableOutput, error) {
	if aws.StringValue(input.TableName) != tableName {
		return nil, awserr.New(dynamodb.ErrCodeResourceNotFoundException, "table not found", nil)
	}
	return &dynamodb.DescribeTableOutput{
		Table: &dynamodb.TableDescription{
			TableName:   input.TableName,
			TableStatus: aws.String(dynamodb.TableStatusActive),
		},
	}, nil
}

func (f *fakeDynamoDB) ListTablesPagesWithContext(_ aws.Context, _ *dynamodb.ListTablesInput, fn func(*dynamodb.ListTablesOutput, bool) bool, _ ...request.Option) error {
	fn(&dynamodb.ListTablesOutput{TableNames: []*string{aws.String(tableName)}}, true)
	return nil
}
