// ABOUTME: DynamoDB implementation of the ItemStore interface using aws-sdk-go-v2
// ABOUTME: Lists through the UpdatedAtIndex GSI, a single partition queried in descending order

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// Attribute names on the DynamoDB table.
const (
	attrID        = "todoId"
	attrPartition = "GSI_PK"
	attrUpdatedAt = "updatedAt"
)

// tableReadyTimeout bounds how long EnsureTable waits for a new table.
const tableReadyTimeout = 2 * time.Minute

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// DynamoOptions configures a DynamoStore built from the default AWS chain.
type DynamoOptions struct {
	Table    string
	Region   string
	Endpoint string // empty uses the SDK's resolved endpoint
}

// DynamoStore implements the ItemStore interface using Amazon DynamoDB
type DynamoStore struct {
	client DynamoAPI
	table  string
	logger *slog.Logger
}

// NewDynamoStore loads the default AWS configuration and returns a store for
// opts.Table. Credentials come from the usual environment/profile chain.
func NewDynamoStore(ctx context.Context, opts DynamoOptions) (*DynamoStore, error) {
	if opts.Table == "" {
		return nil, errors.New("dynamodb table name is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	s := NewDynamoStoreWithClient(client, opts.Table)
	s.logger.Info("DynamoDB store initialized", "table", opts.Table, "region", cfg.Region, "endpoint", opts.Endpoint)
	return s, nil
}

// NewDynamoStoreWithClient wraps an existing client.
func NewDynamoStoreWithClient(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{
		client: client,
		table:  table,
		logger: slog.Default().With("component", "store", "backend", "dynamodb"),
	}
}

func itemKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrID: &types.AttributeValueMemberS{Value: id},
	}
}

// wrapDynamoError annotates err with the operation and, when available, the
// service error code.
func wrapDynamoError(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s (%s): %w", op, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *DynamoStore) put(ctx context.Context, item *Item) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshalling item: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	return err
}

// Insert writes a new item. An item with the same id is overwritten.
func (s *DynamoStore) Insert(ctx context.Context, item *Item) error {
	if err := s.put(ctx, item); err != nil {
		return wrapDynamoError("inserting item", err)
	}
	return nil
}

// GetByID retrieves an item by ID with a strongly consistent read.
// Returns ErrNotFound if the item doesn't exist.
func (s *DynamoStore) GetByID(ctx context.Context, id string) (*Item, error) {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            itemKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, wrapDynamoError("getting item", err)
	}
	if len(resp.Item) == 0 {
		return nil, ErrNotFound
	}

	var item Item
	if err := attributevalue.UnmarshalMap(resp.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshalling item: %w", err)
	}
	return &item, nil
}

// Update overwrites the full record keyed by item.ID.
func (s *DynamoStore) Update(ctx context.Context, item *Item) error {
	if err := s.put(ctx, item); err != nil {
		return wrapDynamoError("updating item", err)
	}
	return nil
}

// UpdateIfUnchanged overwrites the item only while the stored updatedAt still
// equals expectedUpdatedAt. The old image returned on a failed check tells a
// stale stamp apart from a missing item.
func (s *DynamoStore) UpdateIfUnchanged(ctx context.Context, item *Item, expectedUpdatedAt string) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshalling item: %w", err)
	}

	cond := expression.Name(attrUpdatedAt).Equal(expression.Value(expectedUpdatedAt))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("building condition: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                           aws.String(s.table),
		Item:                                av,
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		if len(ccf.Item) == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	if err != nil {
		return wrapDynamoError("updating item", err)
	}
	return nil
}

// Delete deletes an item by ID, conditioned on the item existing.
// Returns ErrNotFound if the item doesn't exist.
func (s *DynamoStore) Delete(ctx context.Context, id string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name(attrID))).
		Build()
	if err != nil {
		return fmt.Errorf("building condition: %w", err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.table),
		Key:                      itemKey(id),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ErrNotFound
	}
	if err != nil {
		return wrapDynamoError("deleting item", err)
	}
	return nil
}

// ListAllOrderedByRecency queries the IndexPartition partition of
// UpdatedAtIndex with ScanIndexForward=false, following every page.
func (s *DynamoStore) ListAllOrderedByRecency(ctx context.Context) ([]*Item, error) {
	keyCond := expression.Key(attrPartition).Equal(expression.Value(IndexPartition))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("building key condition: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		IndexName:                 aws.String(IndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	})

	items := []*Item{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapDynamoError("querying items", err)
		}

		var batch []*Item
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshalling items: %w", err)
		}
		items = append(items, batch...)
	}

	// The GSI leaves equal stamps in arbitrary order
	slices.SortStableFunc(items, func(a, b *Item) int {
		if c := strings.Compare(b.UpdatedAt, a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return items, nil
}

// Ping verifies the table is reachable with a DescribeTable call.
func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err != nil {
		return wrapDynamoError("describing table", err)
	}
	return nil
}

// EnsureTable creates the table and its UpdatedAtIndex if they are missing,
// then waits until the table is active. Intended for local emulators and
// first-run setup; production tables are usually provisioned separately.
func (s *DynamoStore) EnsureTable(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return wrapDynamoError("describing table", err)
	}

	s.logger.Info("creating DynamoDB table", "table", s.table, "index", IndexName)
	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrID), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrPartition), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrUpdatedAt), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrID), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(IndexName),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(attrPartition), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String(attrUpdatedAt), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		return wrapDynamoError("creating table", err)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)}, tableReadyTimeout); err != nil {
		return fmt.Errorf("waiting for table %s: %w", s.table, err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *DynamoStore) Close() error {
	s.logger.Info("closing DynamoDB store")
	return nil
}
