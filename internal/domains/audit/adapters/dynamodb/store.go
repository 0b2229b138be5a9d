package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/audit/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/audit/ports"
)

// DefaultTableName is used when no table is configured.
const DefaultTableName = "audit_logs"

// sortKeyLayout is fixed width so that lexical order matches time order.
const sortKeyLayout = "20060102T150405.000000000Z"

// noSubject stands in for records without a subject; key attributes cannot be empty.
const noSubject = "-"

// API is the subset of the DynamoDB client used by the store.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type auditItem struct {
	Subject         string `dynamodbav:"subject"`
	SortKey         string `dynamodbav:"sk"`
	ActorEmployeeID *int64 `dynamodbav:"actor_employee_id,omitempty"`
	Action          string `dynamodbav:"action"`
	Detail          string `dynamodbav:"detail"`
	Timestamp       string `dynamodbav:"timestamp"`
}

var _ ports.Store = (*Store)(nil)

// Store keeps the audit trail in a DynamoDB table.
//
// Table requirements:
//   - PK: subject (string)
//   - SK: sk (string), "<utc timestamp>#<uuid>"
type Store struct {
	ddb       API
	tableName string
}

// NewStore returns a Store writing to tableName, or DefaultTableName when empty.
func NewStore(ddb API, tableName string) *Store {
	if strings.TrimSpace(tableName) == "" {
		tableName = DefaultTableName
	}
	return &Store{ddb: ddb, tableName: tableName}
}

// Append writes one item per record.
func (s *Store) Append(ctx context.Context, records ...domain.Record) error {
	for _, rec := range records {
		av, err := attributevalue.MarshalMap(toItem(rec))
		if err != nil {
			return err
		}
		_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.tableName),
			Item:      av,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// LatestActor walks the subject partition newest first.
func (s *Store) LatestActor(ctx context.Context, action, subject string) (*int64, error) {
	records, err := s.query(ctx, ports.Filter{Action: action, Subject: subject, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || records[0].ActorEmployeeID == nil {
		return nil, nil
	}
	actor := *records[0].ActorEmployeeID
	return &actor, nil
}

// List queries the subject partition when a subject is given and scans the
// table otherwise.
func (s *Store) List(ctx context.Context, filter ports.Filter) ([]domain.Record, error) {
	if filter.Subject != "" {
		return s.query(ctx, filter)
	}
	return s.scan(ctx, filter)
}

func (s *Store) query(ctx context.Context, filter ports.Filter) ([]domain.Record, error) {
	values := map[string]types.AttributeValue{
		":subject": &types.AttributeValueMemberS{Value: filter.Subject},
	}
	names := map[string]string{"#subject": "subject"}
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("#subject = :subject"),
		ScanIndexForward:       aws.Bool(false),
	}
	if filter.Action != "" {
		input.FilterExpression = aws.String("#action = :action")
		values[":action"] = &types.AttributeValueMemberS{Value: filter.Action}
		names["#action"] = "action"
	}
	input.ExpressionAttributeValues = values
	input.ExpressionAttributeNames = names

	out := make([]domain.Record, 0)
	for {
		page, err := s.ddb.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		records, err := fromItems(page.Items)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			out = append(out, rec)
			if filter.Limit > 0 && len(out) == filter.Limit {
				return out, nil
			}
		}
		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
}

func (s *Store) scan(ctx context.Context, filter ports.Filter) ([]domain.Record, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.tableName)}
	if filter.Action != "" {
		input.FilterExpression = aws.String("#action = :action")
		input.ExpressionAttributeNames = map[string]string{"#action": "action"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":action": &types.AttributeValueMemberS{Value: filter.Action},
		}
	}
	var items []auditItem
	for {
		page, err := s.ddb.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		var batch []auditItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		items = append(items, batch...)
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SortKey > items[j].SortKey })
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	out := make([]domain.Record, 0, len(items))
	for _, it := range items {
		rec, err := fromItem(it)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func toItem(rec domain.Record) auditItem {
	subject := rec.Subject
	if subject == "" {
		subject = noSubject
	}
	ts := rec.Timestamp.UTC()
	return auditItem{
		Subject:         subject,
		SortKey:         ts.Format(sortKeyLayout) + "#" + uuid.NewString(),
		ActorEmployeeID: rec.ActorEmployeeID,
		Action:          rec.Action,
		Detail:          rec.Detail,
		Timestamp:       ts.Format(time.RFC3339Nano),
	}
}

func fromItems(raw []map[string]types.AttributeValue) ([]domain.Record, error) {
	out := make([]domain.Record, 0, len(raw))
	for _, item := range raw {
		var it auditItem
		if err := attributevalue.UnmarshalMap(item, &it); err != nil {
			return nil, err
		}
		rec, err := fromItem(it)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func fromItem(it auditItem) (domain.Record, error) {
	ts, err := time.Parse(time.RFC3339Nano, it.Timestamp)
	if err != nil {
		return domain.Record{}, fmt.Errorf("audit item has an invalid timestamp: %w", err)
	}
	subject := it.Subject
	if subject == noSubject {
		subject = ""
	}
	return domain.Record{
		ActorEmployeeID: it.ActorEmployeeID,
		Action:          it.Action,
		Subject:         subject,
		Detail:          it.Detail,
		Timestamp:       ts,
	}, nil
}

// TableAPI is the subset of the DynamoDB client used to provision the table.
type TableAPI interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// EnsureTable creates the audit table with on-demand billing when missing.
func EnsureTable(ctx context.Context, ddb TableAPI, tableName string) error {
	if strings.TrimSpace(tableName) == "" {
		tableName = DefaultTableName
	}
	_, err := ddb.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return err
	}
	_, err = ddb.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("subject"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("sk"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("subject"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("sk"), KeyType: types.KeyTypeRange},
		},
	})
	return err
}
