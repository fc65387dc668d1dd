// Package mocks provides testify mocks for the application ports.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rawcontext/engram-sub005/application/ports"
	"github.com/rawcontext/engram-sub005/domain/core/entities"
	"github.com/rawcontext/engram-sub005/domain/events"
)

// MockEntityGraphReader mocks ports.EntityGraphReader
type MockEntityGraphReader struct {
	mock.Mock
}

func (m *MockEntityGraphReader) Edges(ctx context.Context, orgID, project string) ([]entities.EntityEdge, error) {
	args := m.Called(ctx, orgID, project)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.EntityEdge), args.Error(1)
}

// MockMemoryRepository mocks ports.MemoryRepository
type MockMemoryRepository struct {
	mock.Mock
}

func (m *MockMemoryRepository) ActiveForDecay(ctx context.Context, orgID, project string) ([]entities.Memory, error) {
	args := m.Called(ctx, orgID, project)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Memory), args.Error(1)
}

func (m *MockMemoryRepository) ForProject(ctx context.Context, orgID, project string) ([]entities.Memory, error) {
	args := m.Called(ctx, orgID, project)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Memory), args.Error(1)
}

func (m *MockMemoryRepository) UpdateDecayScores(ctx context.Context, updates []entities.DecayUpdate) error {
	args := m.Called(ctx, updates)
	return args.Error(0)
}

// MockCommunityRepository mocks ports.CommunityRepository
type MockCommunityRepository struct {
	mock.Mock
}

func (m *MockCommunityRepository) FindByMemberOverlap(ctx context.Context, orgID string, memberIDs []string, project string) ([]entities.CommunityOverlap, error) {
	args := m.Called(ctx, orgID, memberIDs, project)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.CommunityOverlap), args.Error(1)
}

func (m *MockCommunityRepository) Create(ctx context.Context, community entities.Community) error {
	args := m.Called(ctx, community)
	return args.Error(0)
}

func (m *MockCommunityRepository) Update(ctx context.Context, id string, update entities.CommunityUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockCommunityRepository) UpsertMembers(ctx context.Context, communityID string, memberIDs []string) error {
	args := m.Called(ctx, communityID, memberIDs)
	return args.Error(0)
}

// MockConflictReportRepository mocks ports.ConflictReportRepository
type MockConflictReportRepository struct {
	mock.Mock
}

func (m *MockConflictReportRepository) CreateMany(ctx context.Context, reports []entities.ConflictReport) ([]entities.ConflictReport, error) {
	args := m.Called(ctx, reports)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ConflictReport), args.Error(1)
}

// MockCandidateSearch mocks ports.CandidateSearchService
type MockCandidateSearch struct {
	mock.Mock
}

func (m *MockCandidateSearch) Similar(ctx context.Context, memory entities.Memory) ([]entities.Candidate, error) {
	args := m.Called(ctx, memory)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Candidate), args.Error(1)
}

// MockClassifier mocks ports.ClassificationService
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, a, b entities.Memory) (entities.Classification, error) {
	args := m.Called(ctx, a, b)
	return args.Get(0).(entities.Classification), args.Error(1)
}

// MockActivityStateStore mocks ports.ActivityStateStore
type MockActivityStateStore struct {
	mock.Mock
}

func (m *MockActivityStateStore) Get(ctx context.Context, project string) (*entities.ActivityCounterState, error) {
	args := m.Called(ctx, project)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ActivityCounterState), args.Error(1)
}

func (m *MockActivityStateStore) Put(ctx context.Context, project string, state entities.ActivityCounterState) error {
	args := m.Called(ctx, project, state)
	return args.Error(0)
}

// MockJobLock mocks ports.JobLock
type MockJobLock struct {
	mock.Mock
}

func (m *MockJobLock) TryAcquire(ctx context.Context, job, owner string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, job, owner, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockJobLock) Release(ctx context.Context, job, owner string) error {
	args := m.Called(ctx, job, owner)
	return args.Error(0)
}

// MockTriggerPublisher mocks ports.TriggerPublisher
type MockTriggerPublisher struct {
	mock.Mock
}

func (m *MockTriggerPublisher) Publish(ctx context.Context, trigger events.JobTrigger) error {
	args := m.Called(ctx, trigger)
	return args.Error(0)
}

// NoopMetrics is a no-op metrics sink for tests.
type NoopMetrics struct{}

func (NoopMetrics) RecordJobSummary(context.Context, ports.JobSummary) {}
