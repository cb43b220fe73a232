// ABOUTME: Tests for the DynamoDB store against an in-memory fake client
// ABOUTME: Covers GSI query pagination, conditional writes, and table bootstrap

package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo keeps items keyed by todoId and serves UpdatedAtIndex queries
// pageSize items at a time.
type fakeDynamo struct {
	mu          sync.Mutex
	items       map[string]map[string]types.AttributeValue
	pageSize    int
	tableExists bool
	queryCalls  int
	created     *dynamodb.CreateTableInput
	failWith    error
}

func newFakeDynamo(pageSize int) *fakeDynamo {
	return &fakeDynamo{
		items:       make(map[string]map[string]types.AttributeValue),
		pageSize:    pageSize,
		tableExists: true,
	}
}

func attrString(item map[string]types.AttributeValue, name string) string {
	if s, ok := item[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

// firstValue returns the only placeholder value the store's expressions use.
func firstValue(values map[string]types.AttributeValue) string {
	for _, v := range values {
		if s, ok := v.(*types.AttributeValueMemberS); ok {
			return s.Value
		}
	}
	return ""
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}

	id := attrString(in.Item, attrID)
	if in.ConditionExpression != nil {
		current, ok := f.items[id]
		if !ok || attrString(current, attrUpdatedAt) != firstValue(in.ExpressionAttributeValues) {
			ccf := &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
			if ok && in.ReturnValuesOnConditionCheckFailure == types.ReturnValuesOnConditionCheckFailureAllOld {
				ccf.Item = current
			}
			return nil, ccf
		}
	}
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &dynamodb.GetItemOutput{Item: f.items[attrString(in.Key, attrID)]}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := attrString(in.Key, attrID)
	if _, ok := f.items[id]; !ok && in.ConditionExpression != nil {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	delete(f.items, id)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	if aws.ToString(in.IndexName) != IndexName {
		return nil, errors.New("query must use " + IndexName)
	}

	partition := firstValue(in.ExpressionAttributeValues)
	var matched []map[string]types.AttributeValue
	for _, item := range f.items {
		if attrString(item, attrPartition) == partition {
			matched = append(matched, item)
		}
	}
	// Equal stamps come back in ascending id order, unlike the store's contract
	sort.Slice(matched, func(i, j int) bool {
		a, b := attrString(matched[i], attrUpdatedAt), attrString(matched[j], attrUpdatedAt)
		if a != b {
			if aws.ToBool(in.ScanIndexForward) {
				return a < b
			}
			return a > b
		}
		return attrString(matched[i], attrID) < attrString(matched[j], attrID)
	})

	start := 0
	if in.ExclusiveStartKey != nil {
		last := attrString(in.ExclusiveStartKey, attrID)
		for i, item := range matched {
			if attrString(item, attrID) == last {
				start = i + 1
				break
			}
		}
	}
	end := min(start+f.pageSize, len(matched))

	out := &dynamodb.QueryOutput{Items: matched[start:end]}
	if end < len(matched) {
		out.LastEvaluatedKey = itemKey(attrString(matched[end-1], attrID))
	}
	return out, nil
}

func (f *fakeDynamo) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.tableExists {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   in.TableName,
			TableStatus: types.TableStatusActive,
		},
	}, nil
}

func (f *fakeDynamo) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = in
	f.tableExists = true
	return &dynamodb.CreateTableOutput{}, nil
}

func TestDynamoStore_ListFollowsPages(t *testing.T) {
	fake := newFakeDynamo(2)
	s := NewDynamoStoreWithClient(fake, "todos")
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, s.Insert(ctx, newItem(id, id, i)))
	}

	items, err := s.ListAllOrderedByRecency(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "d", "c", "b", "a"}, ids(items))
	assert.Equal(t, 3, fake.queryCalls)
}

func TestDynamoStore_ItemAttributes(t *testing.T) {
	fake := newFakeDynamo(10)
	s := NewDynamoStoreWithClient(fake, "todos")

	item := newItem("a", "Buy milk", 1)
	item.Completed = true
	require.NoError(t, s.Insert(context.Background(), item))

	stored := fake.items["a"]
	require.NotNil(t, stored)
	assert.Equal(t, "a", attrString(stored, "todoId"))
	assert.Equal(t, IndexPartition, attrString(stored, "GSI_PK"))
	assert.Equal(t, stamp(1), attrString(stored, "updatedAt"))
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: true}, stored["completed"])
}

func TestDynamoStore_WrapsServiceErrors(t *testing.T) {
	fake := newFakeDynamo(10)
	fake.failWith = &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}
	s := NewDynamoStoreWithClient(fake, "todos")

	_, err := s.GetByID(context.Background(), "a")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "ThrottlingException")

	var apiErr smithy.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestDynamoStore_EnsureTableCreatesIndex(t *testing.T) {
	fake := newFakeDynamo(10)
	fake.tableExists = false
	s := NewDynamoStoreWithClient(fake, "todos")

	require.NoError(t, s.EnsureTable(context.Background()))
	require.NotNil(t, fake.created)

	assert.Equal(t, "todos", aws.ToString(fake.created.TableName))
	assert.Equal(t, types.BillingModePayPerRequest, fake.created.BillingMode)
	require.Len(t, fake.created.GlobalSecondaryIndexes, 1)

	gsi := fake.created.GlobalSecondaryIndexes[0]
	assert.Equal(t, IndexName, aws.ToString(gsi.IndexName))
	require.Len(t, gsi.KeySchema, 2)
	assert.Equal(t, "GSI_PK", aws.ToString(gsi.KeySchema[0].AttributeName))
	assert.Equal(t, types.KeyTypeHash, gsi.KeySchema[0].KeyType)
	assert.Equal(t, "updatedAt", aws.ToString(gsi.KeySchema[1].AttributeName))
	assert.Equal(t, types.KeyTypeRange, gsi.KeySchema[1].KeyType)
}

func TestDynamoStore_EnsureTableExisting(t *testing.T) {
	fake := newFakeDynamo(10)
	s := NewDynamoStoreWithClient(fake, "todos")

	require.NoError(t, s.EnsureTable(context.Background()))
	assert.Nil(t, fake.created)
}

func TestNewDynamoStore_RequiresTable(t *testing.T) {
	_, err := NewDynamoStore(context.Background(), DynamoOptions{})
	assert.Error(t, err)
}
