package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	pkgerrors "focusloop/pkg/errors"
)

// DistributedLock provides per-resource locking through DynamoDB
// conditional writes. Expired locks are reclaimable immediately; the TTL
// attribute cleans up abandoned records.
type DistributedLock struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// Lock is a held lock, needed to release it
type Lock struct {
	Resource  string
	LockID    string
	Owner     string
	ExpiresAt time.Time
}

// NewDistributedLock creates the lock manager
func NewDistributedLock(client *dynamodb.Client, tableName string, logger *zap.Logger) *DistributedLock {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DistributedLock{client: client, tableName: tableName, logger: logger}
}

// Acquire takes the lock for a resource, failing when another owner holds
// an unexpired lock on it
func (dl *DistributedLock) Acquire(ctx context.Context, resource, owner string, duration time.Duration) (*Lock, error) {
	now := time.Now()
	expiresAt := now.Add(duration)
	lockID := fmt.Sprintf("%s_%d", owner, now.UnixNano())

	item := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: "LOCK#" + resource},
		"SK":         &types.AttributeValueMemberS{Value: "LOCK"},
		"LockID":     &types.AttributeValueMemberS{Value: lockID},
		"Owner":      &types.AttributeValueMemberS{Value: owner},
		"AcquiredAt": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		"ExpiresAt":  &types.AttributeValueMemberS{Value: expiresAt.Format(time.RFC3339)},
		"TTL":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt.Unix())},
	}

	_, err := dl.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(dl.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil, pkgerrors.NewConflictError(fmt.Sprintf("resource %s is locked", resource))
		}
		return nil, pkgerrors.NewDatabaseError("acquire lock", err)
	}

	dl.logger.Debug("lock acquired", zap.String("resource", resource), zap.String("owner", owner))
	return &Lock{Resource: resource, LockID: lockID, Owner: owner, ExpiresAt: expiresAt}, nil
}

// Release frees the lock. Only the holder identified by the lock ID can
// release it; a lock reclaimed by someone else is left alone.
func (dl *DistributedLock) Release(ctx context.Context, lock *Lock) error {
	if lock == nil {
		return nil
	}

	_, err := dl.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(dl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "LOCK#" + lock.Resource},
			"SK": &types.AttributeValueMemberS{Value: "LOCK"},
		},
		ConditionExpression: aws.String("LockID = :lock_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lock_id": &types.AttributeValueMemberS{Value: lock.LockID},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			dl.logger.Warn("lock already reclaimed", zap.String("resource", lock.Resource))
			return nil
		}
		return pkgerrors.NewDatabaseError("release lock", err)
	}

	dl.logger.Debug("lock released", zap.String("resource", lock.Resource))
	return nil
}
