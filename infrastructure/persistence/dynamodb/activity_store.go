package dynamodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/application/ports"
	"github.com/rawcontext/engram-sub005/domain/core/entities"
	appErrors "github.com/rawcontext/engram-sub005/pkg/errors"
)

// ActivityStore keeps per-project activity counters in DynamoDB. Every
// item carries a TTL so counters for abandoned projects age out of the
// table instead of accumulating forever.
type ActivityStore struct {
	client    *dynamodb.Client
	tableName string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewActivityStore creates an activity state store.
func NewActivityStore(client *dynamodb.Client, tableName string, ttl time.Duration, logger *zap.Logger) ports.ActivityStateStore {
	return &ActivityStore{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		logger:    logger,
	}
}

// activityItem represents the DynamoDB item structure for counter state
type activityItem struct {
	PK              string `dynamodbav:"PK"`
	EntityCount     int    `dynamodbav:"EntityCount"`
	MemoryCount     int    `dynamodbav:"MemoryCount"`
	LastTriggerTime string `dynamodbav:"LastTriggerTime,omitempty"`
	UpdatedAt       string `dynamodbav:"UpdatedAt"`
	ExpiresAt       int64  `dynamodbav:"ExpiresAt"`
}

// Get returns the counter state for a project, nil when absent. An item
// that fails to decode surfaces as a CORRUPTED error so the caller can
// fall back to a zero baseline.
func (s *ActivityStore) Get(ctx context.Context, project string) (*entities.ActivityCounterState, error) {
	key := activityKey(project)

	output, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read activity state %s: %w", key, err)
	}
	if output.Item == nil {
		return nil, nil
	}

	var item activityItem
	if err := attributevalue.UnmarshalMap(output.Item, &item); err != nil {
		return nil, appErrors.NewCorruptedStateError(key).WithCause(err)
	}

	state := &entities.ActivityCounterState{
		EntityCount: item.EntityCount,
		MemoryCount: item.MemoryCount,
	}
	if item.UpdatedAt != "" {
		updatedAt, err := time.Parse(time.RFC3339, item.UpdatedAt)
		if err != nil {
			return nil, appErrors.NewCorruptedStateError(key).WithCause(err)
		}
		state.UpdatedAt = updatedAt
	}
	if item.LastTriggerTime != "" {
		triggered, err := time.Parse(time.RFC3339, item.LastTriggerTime)
		if err != nil {
			return nil, appErrors.NewCorruptedStateError(key).WithCause(err)
		}
		state.LastTriggerTime = &triggered
	}
	return state, nil
}

// Put writes the counter state for a project, refreshing the TTL.
func (s *ActivityStore) Put(ctx context.Context, project string, state entities.ActivityCounterState) error {
	key := activityKey(project)

	item := activityItem{
		PK:          key,
		EntityCount: state.EntityCount,
		MemoryCount: state.MemoryCount,
		UpdatedAt:   state.UpdatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:   time.Now().Add(s.ttl).Unix(),
	}
	if state.LastTriggerTime != nil {
		item.LastTriggerTime = state.LastTriggerTime.UTC().Format(time.RFC3339)
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal activity state %s: %w", key, err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to write activity state %s: %w", key, err)
	}
	return nil
}

// activityKey namespaces and sanitizes a project identifier into a
// stable partition key.
func activityKey(project string) string {
	return "ACTIVITY#" + SanitizeProject(project)
}

// SanitizeProject normalizes a project identifier into a bounded,
// key-safe form.
func SanitizeProject(project string) string {
	if project == "" {
		return "default"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(project) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	key := b.String()
	if len(key) > 128 {
		key = key[:128]
	}
	return key
}
