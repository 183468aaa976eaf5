package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"focusloop/domain/events"
	pkgerrors "focusloop/pkg/errors"
)

// publish status of an outbox record
const (
	publishStatusPending   = "pending"
	publishStatusPublished = "published"
	publishStatusFailed    = "failed"
)

const maxBatchSize = 25

// EventStore implements ports.EventStore with an outbox: events are
// written as pending and a relay publishes them later, so a bus outage
// never loses a transition.
//
// Key layout: PK = EVENTS#<aggregate_id>, SK = EVENT#<timestamp>#<event_id>.
// GSI1 indexes pending records for the relay sweep.
type EventStore struct {
	client    *dynamodb.Client
	tableName string
}

type eventRecord struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	EventID         string `dynamodbav:"EventID"`
	EventType       string `dynamodbav:"EventType"`
	AggregateID     string `dynamodbav:"AggregateID"`
	Timestamp       string `dynamodbav:"Timestamp"`
	Version         int    `dynamodbav:"Version"`
	PublishStatus   string `dynamodbav:"PublishStatus"`
	PublishAttempts int    `dynamodbav:"PublishAttempts"`
	PublishedAt     string `dynamodbav:"PublishedAt,omitempty"`
	ErrorMessage    string `dynamodbav:"ErrorMessage,omitempty"`
	GSI1PK          string `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK          string `dynamodbav:"GSI1SK,omitempty"`
}

// NewEventStore creates the store
func NewEventStore(client *dynamodb.Client, tableName string) *EventStore {
	return &EventStore{client: client, tableName: tableName}
}

// SaveEvents persists domain events as pending outbox records
func (es *EventStore) SaveEvents(ctx context.Context, domainEvents []events.DomainEvent) error {
	if len(domainEvents) == 0 {
		return nil
	}

	writes := make([]types.WriteRequest, 0, len(domainEvents))
	for _, event := range domainEvents {
		record := es.toRecord(event)
		item, err := attributevalue.MarshalMap(record)
		if err != nil {
			return pkgerrors.NewDatabaseError("marshal event", err)
		}
		writes = append(writes, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	for i := 0; i < len(writes); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(writes) {
			end = len(writes)
		}

		result, err := es.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{es.tableName: writes[i:end]},
		})
		if err != nil {
			return pkgerrors.NewDatabaseError("write events", err)
		}
		if len(result.UnprocessedItems) > 0 {
			return pkgerrors.NewDatabaseError("write events",
				fmt.Errorf("%d events were not written", len(result.UnprocessedItems[es.tableName])))
		}
	}
	return nil
}

// GetEvents retrieves all events for an aggregate in timestamp order
func (es *EventStore) GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(es.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: "EVENTS#" + aggregateID},
		},
		ScanIndexForward: aws.Bool(true),
	}

	var loaded []events.DomainEvent
	for {
		result, err := es.client.Query(ctx, input)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query events", err)
		}
		for _, item := range result.Items {
			var record eventRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				return nil, pkgerrors.NewDatabaseError("unmarshal event", err)
			}
			event, err := es.toEvent(record)
			if err != nil {
				return nil, err
			}
			loaded = append(loaded, event)
		}
		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	return loaded, nil
}

// DeleteEvents removes all events for an aggregate
func (es *EventStore) DeleteEvents(ctx context.Context, aggregateID string) error {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(es.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ProjectionExpression:   aws.String("PK, SK"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: "EVENTS#" + aggregateID},
		},
	}

	for {
		result, err := es.client.Query(ctx, input)
		if err != nil {
			return pkgerrors.NewDatabaseError("query events", err)
		}

		writes := make([]types.WriteRequest, 0, len(result.Items))
		for _, item := range result.Items {
			writes = append(writes, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{"PK": item["PK"], "SK": item["SK"]},
				},
			})
		}
		for i := 0; i < len(writes); i += maxBatchSize {
			end := i + maxBatchSize
			if end > len(writes) {
				end = len(writes)
			}
			_, err := es.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{es.tableName: writes[i:end]},
			})
			if err != nil {
				return pkgerrors.NewDatabaseError("delete events", err)
			}
		}

		if result.LastEvaluatedKey == nil {
			return nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// PendingEvents returns up to limit unpublished records for the relay
func (es *EventStore) PendingEvents(ctx context.Context, limit int32) ([]eventRecord, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI1PK").Equal(expression.Value("OUTBOX#" + publishStatusPending))).
		Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build pending query", err)
	}

	result, err := es.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(es.tableName),
		IndexName:                 aws.String("GSI1"),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
		Limit:                     aws.Int32(limit),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query pending events", err)
	}

	records := make([]eventRecord, 0, len(result.Items))
	for _, item := range result.Items {
		var record eventRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			return nil, pkgerrors.NewDatabaseError("unmarshal event", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// MarkPublished flags a record as delivered and drops it from the pending
// index
func (es *EventStore) MarkPublished(ctx context.Context, record eventRecord) error {
	_, err := es.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(es.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: record.PK},
			"SK": &types.AttributeValueMemberS{Value: record.SK},
		},
		UpdateExpression: aws.String("SET PublishStatus = :status, PublishedAt = :at REMOVE GSI1PK, GSI1SK"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: publishStatusPublished},
			":at":     &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("mark event published", err)
	}
	return nil
}

// MarkFailed records a delivery failure. The record stays pending until the
// attempt budget runs out, then flips to failed and leaves the index.
func (es *EventStore) MarkFailed(ctx context.Context, record eventRecord, cause error, maxAttempts int) error {
	attempts := record.PublishAttempts + 1
	update := "SET PublishStatus = :status, PublishAttempts = :attempts, ErrorMessage = :message"
	status := publishStatusPending
	if attempts >= maxAttempts {
		status = publishStatusFailed
		update += " REMOVE GSI1PK, GSI1SK"
	}

	_, err := es.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(es.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: record.PK},
			"SK": &types.AttributeValueMemberS{Value: record.SK},
		},
		UpdateExpression: aws.String(update),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":   &types.AttributeValueMemberS{Value: status},
			":attempts": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", attempts)},
			":message":  &types.AttributeValueMemberS{Value: cause.Error()},
		},
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("mark event failed", err)
	}
	return nil
}

func (es *EventStore) toRecord(event events.DomainEvent) eventRecord {
	eventID := uuid.New().String()
	timestamp := event.GetTimestamp().UTC().Format(time.RFC3339Nano)
	return eventRecord{
		PK:            "EVENTS#" + event.GetAggregateID(),
		SK:            fmt.Sprintf("EVENT#%s#%s", timestamp, eventID),
		EventID:       eventID,
		EventType:     event.GetEventType(),
		AggregateID:   event.GetAggregateID(),
		Timestamp:     timestamp,
		Version:       event.GetVersion(),
		PublishStatus: publishStatusPending,
		GSI1PK:        "OUTBOX#" + publishStatusPending,
		GSI1SK:        "EVENT#" + timestamp,
	}
}

func (es *EventStore) toEvent(record eventRecord) (events.DomainEvent, error) {
	timestamp, err := time.Parse(time.RFC3339Nano, record.Timestamp)
	if err != nil {
		return nil, pkgerrors.NewInternalError(
			fmt.Sprintf("event %s carries an invalid timestamp: %v", record.EventID, err))
	}
	return events.BaseEvent{
		AggregateID: record.AggregateID,
		EventType:   record.EventType,
		Timestamp:   timestamp,
		Version:     record.Version,
	}, nil
}
