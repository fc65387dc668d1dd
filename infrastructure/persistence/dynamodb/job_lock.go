package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/application/ports"
)

// JobLock serializes background jobs across workers using DynamoDB
// conditional writes. The in-process scheduler already suppresses
// overlapping runs on one worker; this lock extends the guarantee to a
// fleet where the same trigger can reach more than one consumer.
type JobLock struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewJobLock creates a fleet-wide job lock.
func NewJobLock(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.JobLock {
	return &JobLock{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

type lockItem struct {
	PK         string `dynamodbav:"PK"`
	Owner      string `dynamodbav:"Owner"`
	AcquiredAt string `dynamodbav:"AcquiredAt"`
	LeaseUntil int64  `dynamodbav:"LeaseUntil"`
	ExpiresAt  int64  `dynamodbav:"ExpiresAt"`
}

// TryAcquire claims the lock for a job unless another owner holds an
// unexpired lease. A held lock reports false without error; the caller
// skips the run rather than waiting.
func (l *JobLock) TryAcquire(ctx context.Context, job, owner string, ttl time.Duration) (bool, error) {
	now := time.Now()
	item := lockItem{
		PK:         lockKey(job),
		Owner:      owner,
		AcquiredAt: now.UTC().Format(time.RFC3339),
		LeaseUntil: now.Add(ttl).Unix(),
		// DynamoDB TTL reaps abandoned locks well after the lease lapses.
		ExpiresAt: now.Add(ttl + time.Hour).Unix(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return false, fmt.Errorf("failed to marshal lock for %s: %w", job, err)
	}

	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(l.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR LeaseUntil < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Unix())},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			l.logger.Debug("Job lock held elsewhere",
				zap.String("job", job),
				zap.String("owner", owner),
			)
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire lock for %s: %w", job, err)
	}
	return true, nil
}

// Release deletes the lock if this owner still holds it. A lost or
// expired lock is not an error; the lease expiry already unblocked the
// next acquirer.
func (l *JobLock) Release(ctx context.Context, job, owner string) error {
	_, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lockKey(job)},
		},
		// Owner is a DynamoDB reserved word.
		ConditionExpression:      aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{"#owner": "Owner"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil
		}
		return fmt.Errorf("failed to release lock for %s: %w", job, err)
	}
	return nil
}

func lockKey(job string) string {
	return "LOCK#" + job
}
