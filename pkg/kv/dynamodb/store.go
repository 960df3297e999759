package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/treeverse/gitvfs/pkg/kv"
	"github.com/treeverse/gitvfs/pkg/kv/kvparams"
	"github.com/treeverse/gitvfs/pkg/logging"
)

type Driver struct{}

type Store struct {
	svc    *dynamodb.Client
	params *kvparams.DynamoDB
	logger logging.Logger
}

type EntriesIterator struct {
	scanCtx      context.Context
	store        *Store
	partitionKey []byte
	start        []byte
	exclusive    map[string]types.AttributeValue
	queryResult  *dynamodb.QueryOutput
	currEntryIdx int
	entry        *kv.Entry
	err          error
}

// DynKVItem is the item stored for each key
type DynKVItem struct {
	PartitionKey []byte `dynamodbav:"PartitionKey"`
	ItemKey      []byte `dynamodbav:"ItemKey"`
	ItemValue    []byte `dynamodbav:"ItemValue"`
}

const (
	DriverName = "dynamodb"

	PartitionKeyAttr = "PartitionKey"
	ItemKeyAttr      = "ItemKey"
	ItemValueAttr    = "ItemValue"

	DefaultScanLimit   = 1024
	tableReadyDuration = 2 * time.Minute
)

//nolint:gochecknoinits
func init() {
	kv.Register(DriverName, &Driver{})
}

// Open MUST be called only once per table, as it might create the table.
func (d *Driver) Open(ctx context.Context, kvParams kvparams.Config) (kv.Store, error) {
	params := kvParams.DynamoDB
	if params == nil || params.TableName == "" {
		return nil, fmt.Errorf("missing %s settings: %w", DriverName, kv.ErrDriverConfiguration)
	}
	var opts []func(*config.LoadOptions) error
	if params.AwsRegion != "" {
		opts = append(opts, config.WithRegion(params.AwsRegion))
	}
	if params.AwsProfile != "" {
		opts = append(opts, config.WithSharedConfigProfile(params.AwsProfile))
	}
	if params.AwsAccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(params.AwsAccessKeyID, params.AwsSecretAccessKey, "")))
	}
	if params.MaxAttempts > 0 {
		opts = append(opts, config.WithRetryMaxAttempts(params.MaxAttempts))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %s", kv.ErrDriverConfiguration, err)
	}
	svc := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if params.Endpoint != "" {
			o.BaseEndpoint = aws.String(params.Endpoint)
		}
	})
	p := *params
	if p.ScanLimit <= 0 {
		p.ScanLimit = DefaultScanLimit
	}
	store := &Store{
		svc:    svc,
		params: &p,
		logger: logging.FromContext(ctx).WithField(logging.ServiceNameFieldKey, "kv_dynamodb"),
	}
	if err := store.setupKeyValueDatabase(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s", kv.ErrSetupFailed, err)
	}
	return store, nil
}

// setupKeyValueDatabase creates the table if missing and waits for it to become active.
func (s *Store) setupKeyValueDatabase(ctx context.Context) error {
	_, err := s.svc.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.params.TableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(PartitionKeyAttr), AttributeType: types.ScalarAttributeTypeB},
			{AttributeName: aws.String(ItemKeyAttr), AttributeType: types.ScalarAttributeTypeB},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(PartitionKeyAttr), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(ItemKeyAttr), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		return err
	}
	waiter := dynamodb.NewTableExistsWaiter(s.svc)
	err = waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.params.TableName)}, tableReadyDuration)
	if err != nil {
		return err
	}
	s.logger.WithField("table", s.params.TableName).Debug("kv table ready")
	return nil
}

func itemKey(partitionKey, key []byte) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		PartitionKeyAttr: &types.AttributeValueMemberB{Value: partitionKey},
		ItemKeyAttr:      &types.AttributeValueMemberB{Value: key},
	}
}

func (s *Store) Get(ctx context.Context, partitionKey, key []byte) (*kv.ValueWithPredicate, error) {
	if len(partitionKey) == 0 {
		return nil, kv.ErrMissingPartitionKey
	}
	if len(key) == 0 {
		return nil, kv.ErrMissingKey
	}
	result, err := s.svc.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.params.TableName),
		Key:            itemKey(partitionKey, key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %s: %w", err, kv.ErrOperationFailed)
	}
	if result.Item == nil {
		return nil, kv.ErrNotFound
	}
	var item DynKVItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal item: %s: %w", err, kv.ErrOperationFailed)
	}
	return &kv.ValueWithPredicate{
		Value:     item.ItemValue,
		Predicate: kv.Predicate(item.ItemValue),
	}, nil
}

func (s *Store) Set(ctx context.Context, partitionKey, key, value []byte) error {
	return s.setWithOptionalPredicate(ctx, partitionKey, key, value, nil, false)
}

func (s *Store) SetIf(ctx context.Context, partitionKey, key, value []byte, valuePredicate kv.Predicate) error {
	return s.setWithOptionalPredicate(ctx, partitionKey, key, value, valuePredicate, true)
}

func (s *Store) setWithOptionalPredicate(ctx context.Context, partitionKey, key, value []byte, valuePredicate kv.Predicate, usePredicate bool) error {
	if len(partitionKey) == 0 {
		return kv.ErrMissingPartitionKey
	}
	if len(key) == 0 {
		return kv.ErrMissingKey
	}
	if value == nil {
		return kv.ErrMissingValue
	}
	item, err := attributevalue.MarshalMap(DynKVItem{
		PartitionKey: partitionKey,
		ItemKey:      key,
		ItemValue:    value,
	})
	if err != nil {
		return fmt.Errorf("marshal item: %s: %w", err, kv.ErrOperationFailed)
	}
	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.params.TableName),
		Item:      item,
	}
	if usePredicate {
		var cond expression.ConditionBuilder
		if valuePredicate == nil {
			cond = expression.AttributeNotExists(expression.Name(ItemValueAttr))
		} else {
			cond = expression.Name(ItemValueAttr).Equal(expression.Value(valuePredicate.([]byte)))
		}
		expr, err := expression.NewBuilder().WithCondition(cond).Build()
		if err != nil {
			return fmt.Errorf("build condition: %s: %w", err, kv.ErrOperationFailed)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}
	_, err = s.svc.PutItem(ctx, input)
	var condFailed *types.ConditionalCheckFailedException
	if usePredicate && errors.As(err, &condFailed) {
		return kv.ErrPredicateFailed
	}
	if err != nil {
		return fmt.Errorf("put item: %s: %w", err, kv.ErrOperationFailed)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, partitionKey, key []byte) error {
	if len(partitionKey) == 0 {
		return kv.ErrMissingPartitionKey
	}
	if len(key) == 0 {
		return kv.ErrMissingKey
	}
	_, err := s.svc.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.params.TableName),
		Key:       itemKey(partitionKey, key),
	})
	if err != nil {
		return fmt.Errorf("delete item: %s: %w", err, kv.ErrOperationFailed)
	}
	return nil
}

func (s *Store) Scan(ctx context.Context, partitionKey []byte, options kv.ScanOptions) (kv.EntriesIterator, error) {
	if len(partitionKey) == 0 {
		return nil, kv.ErrMissingPartitionKey
	}
	it := &EntriesIterator{
		scanCtx:      ctx,
		store:        s,
		partitionKey: partitionKey,
		start:        options.KeyStart,
	}
	if err := it.runQuery(); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Store) Close() {}

// DropTable deletes the store table.  Used by tests.
func (s *Store) DropTable() error {
	_, err := s.svc.DeleteTable(context.Background(), &dynamodb.DeleteTableInput{
		TableName: aws.String(s.params.TableName),
	})
	return err
}

func (e *EntriesIterator) runQuery() error {
	keyCond := expression.Key(PartitionKeyAttr).Equal(expression.Value(e.partitionKey))
	if len(e.start) > 0 {
		keyCond = keyCond.And(expression.Key(ItemKeyAttr).GreaterThanEqual(expression.Value(e.start)))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return fmt.Errorf("build key condition: %s: %w", err, kv.ErrOperationFailed)
	}
	result, err := e.store.svc.Query(e.scanCtx, &dynamodb.QueryInput{
		TableName:                 aws.String(e.store.params.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ExclusiveStartKey:         e.exclusive,
		ConsistentRead:            aws.Bool(true),
		Limit:                     aws.Int32(int32(e.store.params.ScanLimit)),
	})
	if err != nil {
		return fmt.Errorf("query: %s: %w", err, kv.ErrOperationFailed)
	}
	e.queryResult = result
	e.currEntryIdx = 0
	return nil
}

func (e *EntriesIterator) Next() bool {
	if e.err != nil || e.queryResult == nil {
		return false
	}
	for e.currEntryIdx >= len(e.queryResult.Items) {
		if e.queryResult.LastEvaluatedKey == nil {
			e.entry = nil
			return false
		}
		e.exclusive = e.queryResult.LastEvaluatedKey
		if err := e.runQuery(); err != nil {
			e.err = err
			return false
		}
	}
	var item DynKVItem
	if err := attributevalue.UnmarshalMap(e.queryResult.Items[e.currEntryIdx], &item); err != nil {
		e.err = fmt.Errorf("unmarshal item: %s: %w", err, kv.ErrOperationFailed)
		return false
	}
	e.entry = &kv.Entry{
		PartitionKey: item.PartitionKey,
		Key:          item.ItemKey,
		Value:        item.ItemValue,
	}
	e.currEntryIdx++
	return true
}

func (e *EntriesIterator) Entry() *kv.Entry {
	return e.entry
}

func (e *EntriesIterator) Err() error {
	return e.err
}

func (e *EntriesIterator) Close() {
	e.queryResult = nil
	e.entry = nil
	e.err = kv.ErrClosedEntries
}
