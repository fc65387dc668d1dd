package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	neo4jdriver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/application/jobs"
	"github.com/rawcontext/engram-sub005/application/ports"
	"github.com/rawcontext/engram-sub005/application/services"
	"github.com/rawcontext/engram-sub005/domain/events"
	"github.com/rawcontext/engram-sub005/infrastructure/config"
	"github.com/rawcontext/engram-sub005/infrastructure/llm"
	"github.com/rawcontext/engram-sub005/infrastructure/messaging/eventbridge"
	dynamostore "github.com/rawcontext/engram-sub005/infrastructure/persistence/dynamodb"
	"github.com/rawcontext/engram-sub005/infrastructure/persistence/neo4j"
	"github.com/rawcontext/engram-sub005/infrastructure/search"
	"github.com/rawcontext/engram-sub005/interfaces/http/rest/handlers"
	"github.com/rawcontext/engram-sub005/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideGraphDriver connects to the Neo4j graph store
func ProvideGraphDriver(ctx context.Context, cfg *config.Config) (neo4jdriver.DriverWithContext, error) {
	return neo4j.NewDriver(ctx, cfg.Neo4jURI, cfg.Neo4jUsername, cfg.Neo4jPassword)
}

// ProvideEntityGraphReader creates the entity edge reader
func ProvideEntityGraphReader(driver neo4jdriver.DriverWithContext, logger *zap.Logger) ports.EntityGraphReader {
	return neo4j.NewEntityRepository(driver, logger)
}

// ProvideMemoryRepository creates the memory repository
func ProvideMemoryRepository(driver neo4jdriver.DriverWithContext, logger *zap.Logger) ports.MemoryRepository {
	return neo4j.NewMemoryRepository(driver, logger)
}

// ProvideCommunityRepository creates the community repository
func ProvideCommunityRepository(driver neo4jdriver.DriverWithContext, logger *zap.Logger) ports.CommunityRepository {
	return neo4j.NewCommunityRepository(driver, logger)
}

// ProvideConflictRepository creates the conflict report repository
func ProvideConflictRepository(driver neo4jdriver.DriverWithContext, logger *zap.Logger) ports.ConflictReportRepository {
	return neo4j.NewConflictRepository(driver, logger)
}

// ProvideActivityStore creates the DynamoDB-backed counter store
func ProvideActivityStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ActivityStateStore {
	return dynamostore.NewActivityStore(client, cfg.ActivityTable, cfg.ActivityStateTTL, logger)
}

// ProvideJobLock creates the fleet-wide job lock, sharing the activity
// table since both use a bare partition-key schema
func ProvideJobLock(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.JobLock {
	return dynamostore.NewJobLock(client, cfg.ActivityTable, logger)
}

// ProvideTriggerPublisher creates the EventBridge trigger publisher
func ProvideTriggerPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) *eventbridge.Publisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideCandidateSearch creates the candidate search client
func ProvideCandidateSearch(cfg *config.Config, logger *zap.Logger) ports.CandidateSearchService {
	return search.NewClient(cfg.SearchServiceURL, cfg.SearchServiceTimeout, logger)
}

// ProvideClassifierProvider selects the LLM provider
func ProvideClassifierProvider(cfg *config.Config) llm.Provider {
	if cfg.UseMockClassifier {
		return llm.NewMockProvider()
	}
	return llm.NewOpenAIProvider(cfg.ClassifierURL, cfg.ClassifierAPIKey, cfg.ClassifierModel, cfg.ClassifierTimeout)
}

// ProvideClassifier creates the classification service
func ProvideClassifier(provider llm.Provider, logger *zap.Logger) ports.ClassificationService {
	return llm.NewClassifier(provider, logger)
}

// ProvideMetrics creates the CloudWatch metrics sink
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) ports.MetricsSink {
	return observability.NewCloudWatchMetrics(client, cfg.EnableMetrics, logger)
}

// ProvideTracer creates the job tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer("engram", cfg.IsLambda)
}

// ProvideCommunityDetector creates the community detection job
func ProvideCommunityDetector(
	graph ports.EntityGraphReader,
	communities ports.CommunityRepository,
	metrics ports.MetricsSink,
	cfg *config.Config,
	logger *zap.Logger,
) *jobs.CommunityDetector {
	return jobs.NewCommunityDetector(graph, communities, metrics, jobs.CommunityDetectorOptions{
		MinCommunitySize: cfg.MinCommunitySize,
		MergeOverlap:     cfg.MergeOverlap,
		MaxIterations:    cfg.MaxIterations,
	}, logger)
}

// ProvideDecayCalculator creates the decay job
func ProvideDecayCalculator(
	memories ports.MemoryRepository,
	metrics ports.MetricsSink,
	cfg *config.Config,
	logger *zap.Logger,
) *jobs.DecayCalculator {
	return jobs.NewDecayCalculator(memories, metrics, jobs.DecayCalculatorOptions{
		Model: jobs.DecayModel{
			HalfLifeDays: cfg.DecayHalfLifeDays,
			MaxBoost:     cfg.DecayMaxBoost,
		},
		MinDelta:  cfg.DecayMinDelta,
		BatchSize: cfg.DecayBatchSize,
	}, logger)
}

// ProvideConflictScanner creates the conflict scanning job
func ProvideConflictScanner(
	memories ports.MemoryRepository,
	searchSvc ports.CandidateSearchService,
	classifier ports.ClassificationService,
	reports ports.ConflictReportRepository,
	metrics ports.MetricsSink,
	cfg *config.Config,
	logger *zap.Logger,
) *jobs.ConflictScanner {
	return jobs.NewConflictScanner(memories, searchSvc, classifier, reports, metrics, jobs.ConflictScannerOptions{
		MinSimilarity:  cfg.MinSimilarity,
		MaxCandidates:  cfg.MaxCandidates,
		RateLimitDelay: cfg.RateLimitDelay,
	}, logger)
}

// ProvideDispatcher registers every job handler
func ProvideDispatcher(
	detector *jobs.CommunityDetector,
	decay *jobs.DecayCalculator,
	scanner *jobs.ConflictScanner,
	lock ports.JobLock,
	tracer *observability.Tracer,
	cfg *config.Config,
	logger *zap.Logger,
) *jobs.Dispatcher {
	dispatcher := jobs.NewDispatcher(tracer, logger, detector, decay, scanner)
	if cfg.EnableJobLock {
		dispatcher.WithJobLock(lock, cfg.WorkerName, cfg.JobLockTTL)
	}
	return dispatcher
}

// ProvideScheduler creates the calendar scheduler
func ProvideScheduler(publisher *eventbridge.Publisher, cfg *config.Config, logger *zap.Logger) *jobs.Scheduler {
	return jobs.NewScheduler(publisher, jobs.DefaultSchedules, cfg.DefaultOrgID, logger)
}

// ProvideActivityTracker creates the activity tracker, wired to publish
// threshold triggers on the event bus
func ProvideActivityTracker(
	store ports.ActivityStateStore,
	publisher *eventbridge.Publisher,
	cfg *config.Config,
	logger *zap.Logger,
) *services.ActivityTracker {
	onThreshold := func(ctx context.Context, job, project, reason string) error {
		trigger := events.NewJobTrigger(job, events.TriggeredByThreshold)
		trigger.OrgID = cfg.DefaultOrgID
		trigger.Project = project
		trigger.Reason = reason
		return publisher.Publish(ctx, trigger)
	}
	return services.NewActivityTracker(store, onThreshold, services.ActivityTrackerOptions{
		EntityThreshold: cfg.EntityThreshold,
		MemoryThreshold: cfg.MemoryThreshold,
		Cooldown:        cfg.TriggerCooldown,
		EntityJob:       events.JobCommunityDetection,
		MemoryJob:       events.JobConflictScan,
	}, logger)
}

// ProvideAdminHandler creates the admin HTTP handler
func ProvideAdminHandler(
	tracker *services.ActivityTracker,
	scheduler *jobs.Scheduler,
	publisher *eventbridge.Publisher,
	cfg *config.Config,
	logger *zap.Logger,
) *handlers.AdminHandler {
	return handlers.NewAdminHandler(tracker, scheduler, publisher, cfg.DefaultOrgID, logger)
}
