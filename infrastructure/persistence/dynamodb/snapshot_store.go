// Package dynamodb persists exported topic snapshots and the attempt event
// log in a single-table layout.
package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"focusloop/domain/versioning"
	"focusloop/infrastructure/persistence/schema"
	pkgerrors "focusloop/pkg/errors"
)

const snapshotLockDuration = 30 * time.Second

// SnapshotStore implements ports.SnapshotStore on DynamoDB. Saves take a
// distributed lock per topic so concurrent exports of the same topic do not
// interleave. Reads upgrade documents written by older schema versions.
type SnapshotStore struct {
	client    *dynamodb.Client
	tableName string
	lock      *DistributedLock
	evolution *schema.Evolution
	logger    *zap.Logger
}

// snapshotRecord is the stored shape of one export.
// Key layout: PK = SNAPSHOT#<user_id>, SK = TOPIC#<topic_id>
type snapshotRecord struct {
	PK            string                   `dynamodbav:"PK"`
	SK            string                   `dynamodbav:"SK"`
	UserID        string                   `dynamodbav:"UserID"`
	TopicID       string                   `dynamodbav:"TopicID"`
	SchemaVersion int                      `dynamodbav:"SchemaVersion"`
	Checksum      string                   `dynamodbav:"Checksum"`
	Snapshot      versioning.TopicSnapshot `dynamodbav:"Snapshot"`
	ExportedAt    string                   `dynamodbav:"ExportedAt"`
}

// NewSnapshotStore creates the store
func NewSnapshotStore(client *dynamodb.Client, tableName string, lock *DistributedLock, logger *zap.Logger) *SnapshotStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotStore{
		client:    client,
		tableName: tableName,
		lock:      lock,
		evolution: schema.NewEvolution(versioning.SchemaVersion),
		logger:    logger,
	}
}

// SaveSnapshot writes the export, overwriting any previous one for the topic
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snapshot *versioning.TopicSnapshot) error {
	if snapshot == nil {
		return pkgerrors.NewValidationError("snapshot cannot be nil")
	}

	if s.lock != nil {
		resource := fmt.Sprintf("snapshot:%s", snapshot.TopicID)
		lock, err := s.lock.Acquire(ctx, resource, snapshot.UserID, snapshotLockDuration)
		if err != nil {
			return err
		}
		defer func() {
			if err := s.lock.Release(ctx, lock); err != nil {
				s.logger.Warn("snapshot lock release failed", zap.String("resource", resource), zap.Error(err))
			}
		}()
	}

	checksum, err := snapshot.Checksum()
	if err != nil {
		return pkgerrors.NewInternalError(fmt.Sprintf("failed to checksum snapshot: %v", err))
	}

	record := snapshotRecord{
		PK:            fmt.Sprintf("SNAPSHOT#%s", snapshot.UserID),
		SK:            fmt.Sprintf("TOPIC#%s", snapshot.TopicID),
		UserID:        snapshot.UserID,
		TopicID:       snapshot.TopicID,
		SchemaVersion: versioning.SchemaVersion,
		Checksum:      checksum,
		Snapshot:      *snapshot,
		ExportedAt:    time.Now().UTC().Format(time.RFC3339),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal snapshot", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("save snapshot", err)
	}

	s.logger.Info("snapshot saved",
		zap.String("topic_id", snapshot.TopicID),
		zap.String("checksum", record.Checksum),
	)
	return nil
}

// GetSnapshot reads the stored export, or nil when none exists. Stored
// payloads are verified against their checksum before being returned.
func (s *SnapshotStore) GetSnapshot(ctx context.Context, userID, topicID string) (*versioning.TopicSnapshot, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("SNAPSHOT#%s", userID)},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("TOPIC#%s", topicID)},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get snapshot", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var record snapshotRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal snapshot", err)
	}
	if record.SchemaVersion != versioning.SchemaVersion {
		upgraded, err := s.upgrade(&record.Snapshot, record.SchemaVersion)
		if err != nil {
			return nil, err
		}
		return upgraded, nil
	}
	checksum, err := record.Snapshot.Checksum()
	if err != nil {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("failed to checksum snapshot: %v", err))
	}
	if record.Checksum != checksum {
		return nil, pkgerrors.NewInternalError(
			fmt.Sprintf("snapshot for topic %s failed checksum verification", topicID))
	}
	return &record.Snapshot, nil
}

// ListSnapshots lists all stored exports for a user
func (s *SnapshotStore) ListSnapshots(ctx context.Context, userID string) ([]*versioning.TopicSnapshot, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("SNAPSHOT#%s", userID)},
		},
	}

	var snapshots []*versioning.TopicSnapshot
	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("list snapshots", err)
		}
		for _, item := range result.Items {
			var record snapshotRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				return nil, pkgerrors.NewDatabaseError("unmarshal snapshot", err)
			}
			snapshot := record.Snapshot
			snapshots = append(snapshots, &snapshot)
		}
		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	return snapshots, nil
}

// upgrade walks an older document to the current schema through the
// registered migrations
func (s *SnapshotStore) upgrade(snapshot *versioning.TopicSnapshot, fromVersion int) (*versioning.TopicSnapshot, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("failed to encode snapshot for upgrade: %v", err))
	}
	var doc schema.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("failed to decode snapshot for upgrade: %v", err))
	}

	upgraded, err := s.evolution.Upgrade(doc, fromVersion)
	if err != nil {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("snapshot upgrade failed: %v", err))
	}

	encoded, err := json.Marshal(upgraded)
	if err != nil {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("failed to encode upgraded snapshot: %v", err))
	}
	var out versioning.TopicSnapshot
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("failed to decode upgraded snapshot: %v", err))
	}
	return &out, nil
}
