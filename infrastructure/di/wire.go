//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/rawcontext/engram-sub005/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideGraphDriver,
	ProvideEntityGraphReader,
	ProvideMemoryRepository,
	ProvideCommunityRepository,
	ProvideConflictRepository,
	ProvideActivityStore,
	ProvideJobLock,
	ProvideTriggerPublisher,
	ProvideCandidateSearch,
	ProvideClassifierProvider,
	ProvideClassifier,
	ProvideMetrics,
	ProvideTracer,
	ProvideCommunityDetector,
	ProvideDecayCalculator,
	ProvideConflictScanner,
	ProvideDispatcher,
	ProvideScheduler,
	ProvideActivityTracker,
	ProvideAdminHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainerWire creates a fully wired container via wire
func InitializeContainerWire(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil
}
