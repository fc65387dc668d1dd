package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	domainevents "github.com/rawcontext/engram-sub005/domain/events"
	"github.com/rawcontext/engram-sub005/infrastructure/config"
	"github.com/rawcontext/engram-sub005/infrastructure/di"
)

var container *di.Container

func init() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
}

// handleTrigger consumes one Job Trigger event from EventBridge and
// runs the matching job to completion. Returning an error hands retry
// handling to the bus's redelivery and dead-letter configuration.
func handleTrigger(ctx context.Context, event events.CloudWatchEvent) error {
	var trigger domainevents.JobTrigger
	if err := json.Unmarshal(event.Detail, &trigger); err != nil {
		return fmt.Errorf("failed to decode job trigger detail: %w", err)
	}

	container.Logger.Info("Received job trigger",
		zap.String("job", trigger.Job),
		zap.String("executionID", trigger.ExecutionID),
		zap.String("source", event.Source),
	)

	return container.Dispatcher.Dispatch(ctx, trigger)
}

func main() {
	lambda.Start(handleTrigger)
}
