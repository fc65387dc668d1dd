package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/domain/events"
)

// Source identifies this service on the event bus.
const Source = "engram.jobs"

// Dispatcher consumes triggers in-process, bypassing the remote bus.
type Dispatcher interface {
	Dispatch(ctx context.Context, trigger events.JobTrigger) error
}

// Publisher sends Job Trigger messages to AWS EventBridge, keyed by job
// name via the detail type. When a local dispatcher is attached (worker
// mode) triggers are handled in-process instead, synchronously, so the
// scheduler's overlap suppression covers the job run itself.
type Publisher struct {
	client       *eventbridge.Client
	eventBusName string
	local        Dispatcher
	logger       *zap.Logger
}

// NewPublisher creates an EventBridge trigger publisher.
func NewPublisher(client *eventbridge.Client, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		logger:       logger,
	}
}

// SetLocalDispatcher attaches an in-process consumer.
func (p *Publisher) SetLocalDispatcher(d Dispatcher) {
	p.local = d
	p.logger.Info("Local trigger dispatcher configured")
}

// Publish delivers one Job Trigger.
func (p *Publisher) Publish(ctx context.Context, trigger events.JobTrigger) error {
	if p.local != nil {
		return p.local.Dispatch(ctx, trigger)
	}

	detail, err := json.Marshal(trigger)
	if err != nil {
		return fmt.Errorf("failed to marshal job trigger: %w", err)
	}

	input := &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.eventBusName),
				Source:       aws.String(Source),
				DetailType:   aws.String(trigger.Job),
				Detail:       aws.String(string(detail)),
			},
		},
	}

	result, err := p.client.PutEvents(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to publish job trigger to EventBridge: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for _, entry := range result.Entries {
			if entry.ErrorCode != nil {
				p.logger.Error("Failed to publish job trigger",
					zap.String("job", trigger.Job),
					zap.String("errorCode", aws.ToString(entry.ErrorCode)),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d job triggers failed to publish", result.FailedEntryCount)
	}

	p.logger.Debug("Job trigger published",
		zap.String("job", trigger.Job),
		zap.String("executionID", trigger.ExecutionID),
		zap.String("eventBus", p.eventBusName),
	)
	return nil
}
