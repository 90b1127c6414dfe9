// Package dynamo stores job applications as DynamoDB items, one item per
// document keyed by a string "id" partition key.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	appconfig "github.com/ignite/jobtracker/internal/config"
	"github.com/ignite/jobtracker/internal/domain"
	"github.com/ignite/jobtracker/internal/pkg/logger"
	"github.com/ignite/jobtracker/internal/service/application"
)

// keyAttr is the table's partition key.
const keyAttr = "id"

// API is the subset of the DynamoDB client the store uses.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	ListTables(ctx context.Context, in *dynamodb.ListTablesInput, opts ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
}

// Store is a DynamoDB-backed application store.
type Store struct {
	api   API
	table string
}

// New loads AWS configuration and creates a store for cfg.Table. A custom
// endpoint (DynamoDB Local, LocalStack) gets static credentials when no
// profile or keys are configured.
func New(ctx context.Context, cfg appconfig.DynamoDBConfig) (*Store, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	switch {
	case cfg.Profile != "":
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	case cfg.AccessKey != "":
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	case cfg.Endpoint != "":
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	logger.Info("dynamodb store ready", "table", cfg.Table, "region", cfg.Region, "endpoint", cfg.Endpoint)
	return NewWithAPI(client, cfg.Table), nil
}

// NewWithAPI creates a store over an existing client.
func NewWithAPI(api API, table string) *Store {
	if table == "" {
		table = domain.Collection
	}
	return &Store{api: api, table: table}
}

func (s *Store) Name() string { return "dynamodb" }

func (s *Store) Insert(ctx context.Context, doc domain.Document) (string, error) {
	id := application.NewID()

	body := doc.Clone().Compact()
	delete(body, domain.IDKey)
	item, err := marshalDocument(body)
	if err != nil {
		return "", fmt.Errorf("marshaling application: %w", err)
	}
	item[keyAttr] = &types.AttributeValueMemberS{Value: id}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": keyAttr},
	})
	if err != nil {
		return "", fmt.Errorf("putting application to DynamoDB: %w", err)
	}
	return id, nil
}

func (s *Store) Find(ctx context.Context, f domain.Filter, limit int) ([]domain.Document, error) {
	in := &dynamodb.ScanInput{TableName: aws.String(s.table)}
	if f.Status != "" {
		in.FilterExpression = aws.String("#status = :status")
		in.ExpressionAttributeNames = map[string]string{"#status": domain.FieldStatus}
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: f.Status},
		}
	}

	out := make([]domain.Document, 0)
	for {
		page, err := s.api.Scan(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("scanning applications: %w", err)
		}
		for _, item := range page.Items {
			doc, err := unmarshalItem(item)
			if err != nil {
				return nil, err
			}
			if !f.Matches(doc) {
				continue
			}
			out = append(out, doc)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		in.ExclusiveStartKey = page.LastEvaluatedKey
	}
}

func (s *Store) FindByID(ctx context.Context, id string) (domain.Document, error) {
	id, err := application.ValidateID(id)
	if err != nil {
		return nil, err
	}

	result, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting application from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, application.ErrNotFound
	}
	return unmarshalItem(result.Item)
}

func (s *Store) UpdateByID(ctx context.Context, id string, patch domain.Patch) error {
	id, err := application.ValidateID(id)
	if err != nil {
		return err
	}

	expr, names, values, err := updateExpression(patch)
	if err != nil {
		return err
	}
	names["#pk"] = keyAttr

	in := &dynamodb.UpdateItemInput{
		TableName:                aws.String(s.table),
		Key:                      key(id),
		UpdateExpression:         aws.String(expr),
		ConditionExpression:      aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: names,
	}
	if len(values) > 0 {
		in.ExpressionAttributeValues = values
	}

	if _, err := s.api.UpdateItem(ctx, in); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return application.ErrNotFound
		}
		return fmt.Errorf("updating application in DynamoDB: %w", err)
	}
	return nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) (int64, error) {
	id, err := application.ValidateID(id)
	if err != nil {
		return 0, err
	}

	result, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.table),
		Key:          key(id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return 0, fmt.Errorf("deleting application from DynamoDB: %w", err)
	}
	if len(result.Attributes) == 0 {
		return 0, nil
	}
	return 1, nil
}

func (s *Store) CollectionNames(ctx context.Context) ([]string, error) {
	result, err := s.api.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(100)})
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return result.TableNames, nil
}

func key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttr: &types.AttributeValueMemberS{Value: id},
	}
}

// updateExpression renders a patch as "SET #f0 = :v0, ... REMOVE #f1, ...".
// Keys are sorted so the expression is stable.
func updateExpression(patch domain.Patch) (string, map[string]string, map[string]types.AttributeValue, error) {
	names := make(map[string]string)
	values := make(map[string]types.AttributeValue)

	fields := make([]string, 0, len(patch.Set))
	for k := range patch.Set {
		if k == domain.IDKey || k == keyAttr {
			continue
		}
		fields = append(fields, k)
	}
	sort.Strings(fields)

	n := 0
	var sets, removes []string
	for _, k := range fields {
		v := patch.Set[k]
		if v == nil {
			removes = append(removes, k)
			continue
		}
		av, err := attributevalue.Marshal(storable(v))
		if err != nil {
			return "", nil, nil, fmt.Errorf("marshaling %s: %w", k, err)
		}
		name, value := fmt.Sprintf("#f%d", n), fmt.Sprintf(":v%d", n)
		n++
		names[name] = k
		values[value] = av
		sets = append(sets, name+" = "+value)
	}

	unset := append([]string(nil), patch.Unset...)
	sort.Strings(unset)
	removes = append(removes, unset...)
	var removeNames []string
	for _, k := range removes {
		name := fmt.Sprintf("#f%d", n)
		n++
		names[name] = k
		removeNames = append(removeNames, name)
	}

	var parts []string
	if len(sets) > 0 {
		parts = append(parts, "SET "+strings.Join(sets, ", "))
	}
	if len(removeNames) > 0 {
		parts = append(parts, "REMOVE "+strings.Join(removeNames, ", "))
	}
	if len(parts) == 0 {
		return "", nil, nil, fmt.Errorf("%w: no fields to update", application.ErrInvalidInput)
	}
	return strings.Join(parts, " "), names, values, nil
}

func marshalDocument(doc domain.Document) (map[string]types.AttributeValue, error) {
	plain := make(map[string]any, len(doc))
	for k, v := range doc {
		plain[k] = storable(v)
	}
	return attributevalue.MarshalMap(plain)
}

// storable converts values with no natural DynamoDB form. Timestamps are
// kept as RFC 3339 text.
func storable(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case domain.Date:
		return t.String()
	default:
		return v
	}
}

func unmarshalItem(item map[string]types.AttributeValue) (domain.Document, error) {
	var doc map[string]any
	if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling application: %w", err)
	}
	out := domain.Document(doc)
	if id, ok := out[keyAttr]; ok {
		out[domain.IDKey] = id
		delete(out, keyAttr)
	}
	return out, nil
}
