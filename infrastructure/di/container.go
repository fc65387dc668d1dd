package di

import (
	"context"
	"fmt"

	neo4jdriver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/application/jobs"
	"github.com/rawcontext/engram-sub005/application/services"
	"github.com/rawcontext/engram-sub005/infrastructure/config"
	"github.com/rawcontext/engram-sub005/infrastructure/messaging/eventbridge"
	"github.com/rawcontext/engram-sub005/interfaces/http/rest/handlers"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	GraphDriver     neo4jdriver.DriverWithContext
	Publisher       *eventbridge.Publisher
	Dispatcher      *jobs.Dispatcher
	Scheduler       *jobs.Scheduler
	ActivityTracker *services.ActivityTracker
	AdminHandler    *handlers.AdminHandler
}

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	awsCfg, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	dynamoClient := ProvideDynamoDBClient(awsCfg)
	eventBridgeClient := ProvideEventBridgeClient(awsCfg)
	cloudWatchClient := ProvideCloudWatchClient(awsCfg)

	driver, err := ProvideGraphDriver(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to graph store: %w", err)
	}

	entityReader := ProvideEntityGraphReader(driver, logger)
	memoryRepo := ProvideMemoryRepository(driver, logger)
	communityRepo := ProvideCommunityRepository(driver, logger)
	conflictRepo := ProvideConflictRepository(driver, logger)
	activityStore := ProvideActivityStore(dynamoClient, cfg, logger)
	jobLock := ProvideJobLock(dynamoClient, cfg, logger)

	publisher := ProvideTriggerPublisher(eventBridgeClient, cfg, logger)
	metrics := ProvideMetrics(cloudWatchClient, cfg, logger)
	tracer := ProvideTracer(cfg)

	searchSvc := ProvideCandidateSearch(cfg, logger)
	classifier := ProvideClassifier(ProvideClassifierProvider(cfg), logger)

	detector := ProvideCommunityDetector(entityReader, communityRepo, metrics, cfg, logger)
	decay := ProvideDecayCalculator(memoryRepo, metrics, cfg, logger)
	scanner := ProvideConflictScanner(memoryRepo, searchSvc, classifier, conflictRepo, metrics, cfg, logger)

	dispatcher := ProvideDispatcher(detector, decay, scanner, jobLock, tracer, cfg, logger)
	scheduler := ProvideScheduler(publisher, cfg, logger)
	tracker := ProvideActivityTracker(activityStore, publisher, cfg, logger)
	admin := ProvideAdminHandler(tracker, scheduler, publisher, cfg, logger)

	return &Container{
		Config:          cfg,
		Logger:          logger,
		GraphDriver:     driver,
		Publisher:       publisher,
		Dispatcher:      dispatcher,
		Scheduler:       scheduler,
		ActivityTracker: tracker,
		AdminHandler:    admin,
	}, nil
}

// Close releases held connections.
func (c *Container) Close(ctx context.Context) error {
	if c.GraphDriver != nil {
		return c.GraphDriver.Close(ctx)
	}
	return nil
}
