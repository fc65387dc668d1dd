package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/domain/core/entities"
	"github.com/rawcontext/engram-sub005/domain/events"
	appErrors "github.com/rawcontext/engram-sub005/pkg/errors"
	"github.com/rawcontext/engram-sub005/tests/mocks"
)

type firedTrigger struct {
	job     string
	project string
	reason  string
}

type triggerRecorder struct {
	fired []firedTrigger
	err   error
}

func (r *triggerRecorder) fire(_ context.Context, job, project, reason string) error {
	if r.err != nil {
		return r.err
	}
	r.fired = append(r.fired, firedTrigger{job: job, project: project, reason: reason})
	return nil
}

func testOptions() ActivityTrackerOptions {
	return ActivityTrackerOptions{
		EntityThreshold: 100,
		MemoryThreshold: 500,
		Cooldown:        time.Hour,
		EntityJob:       events.JobCommunityDetection,
		MemoryJob:       events.JobConflictScan,
	}
}

func newTracker(store *mocks.MockActivityStateStore, recorder *triggerRecorder) *ActivityTracker {
	return NewActivityTracker(store, recorder.fire, testOptions(), zap.NewNop())
}

func TestActivityTracker_TrackEntityCreation_BelowThresholdOnlyPersists(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := new(mocks.MockActivityStateStore)
	recorder := &triggerRecorder{}

	store.On("Get", ctx, "proj1").Return(nil, nil)
	store.On("Put", ctx, "proj1", mock.MatchedBy(func(s entities.ActivityCounterState) bool {
		return s.EntityCount == 5 && s.MemoryCount == 0 && s.LastTriggerTime == nil
	})).Return(nil)

	tracker := newTracker(store, recorder)

	// Act
	err := tracker.TrackEntityCreation(ctx, "proj1", 5)

	// Assert
	assert.NoError(t, err)
	assert.Empty(t, recorder.fired)
	store.AssertExpectations(t)
}

func TestActivityTracker_TrackEntityCreation_ThresholdFiresAndResets(t *testing.T) {
	// Arrange: counter reaches exactly the threshold on this call
	ctx := context.Background()
	store := new(mocks.MockActivityStateStore)
	recorder := &triggerRecorder{}

	store.On("Get", ctx, "proj1").
		Return(&entities.ActivityCounterState{EntityCount: 99}, nil)
	store.On("Put", ctx, "proj1", mock.MatchedBy(func(s entities.ActivityCounterState) bool {
		return s.EntityCount == 0 && s.LastTriggerTime != nil
	})).Return(nil)

	tracker := newTracker(store, recorder)

	// Act
	err := tracker.TrackEntityCreation(ctx, "proj1", 1)

	// Assert
	require.NoError(t, err)
	require.Len(t, recorder.fired, 1)
	assert.Equal(t, events.JobCommunityDetection, recorder.fired[0].job)
	assert.Equal(t, "proj1", recorder.fired[0].project)
	assert.Equal(t, "entity_count=100", recorder.fired[0].reason)
	store.AssertExpectations(t)
}

func TestActivityTracker_TrackMemoryCreation_MapsToConflictScan(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := new(mocks.MockActivityStateStore)
	recorder := &triggerRecorder{}

	store.On("Get", ctx, "proj1").
		Return(&entities.ActivityCounterState{MemoryCount: 499}, nil)
	store.On("Put", ctx, "proj1", mock.Anything).Return(nil)

	tracker := newTracker(store, recorder)

	// Act
	err := tracker.TrackMemoryCreation(ctx, "proj1", 1)

	// Assert
	require.NoError(t, err)
	require.Len(t, recorder.fired, 1)
	assert.Equal(t, events.JobConflictScan, recorder.fired[0].job)
	assert.Equal(t, "memory_count=500", recorder.fired[0].reason)
}

func TestActivityTracker_Track_CooldownSuppressesTrigger(t *testing.T) {
	// Arrange: threshold crossed but a trigger fired 10 minutes ago
	ctx := context.Background()
	store := new(mocks.MockActivityStateStore)
	recorder := &triggerRecorder{}

	lastTrigger := time.Now().Add(-10 * time.Minute)
	store.On("Get", ctx, "proj1").
		Return(&entities.ActivityCounterState{EntityCount: 150, LastTriggerTime: &lastTrigger}, nil)
	store.On("Put", ctx, "proj1", mock.MatchedBy(func(s entities.ActivityCounterState) bool {
		// Counter keeps accumulating while suppressed
		return s.EntityCount == 151
	})).Return(nil)

	tracker := newTracker(store, recorder)

	// Act
	err := tracker.TrackEntityCreation(ctx, "proj1", 1)

	// Assert
	assert.NoError(t, err)
	assert.Empty(t, recorder.fired)
	store.AssertExpectations(t)
}

func TestActivityTracker_Track_RetriggersAfterCooldown(t *testing.T) {
	// Arrange: last trigger is past the cooldown window
	ctx := context.Background()
	store := new(mocks.MockActivityStateStore)
	recorder := &triggerRecorder{}

	lastTrigger := time.Now().Add(-2 * time.Hour)
	store.On("Get", ctx, "proj1").
		Return(&entities.ActivityCounterState{EntityCount: 150, LastTriggerTime: &lastTrigger}, nil)
	store.On("Put", ctx, "proj1", mock.MatchedBy(func(s entities.ActivityCounterState) bool {
		return s.EntityCount == 0 && s.LastTriggerTime != nil && s.LastTriggerTime.After(lastTrigger)
	})).Return(nil)

	tracker := newTracker(store, recorder)

	// Act
	err := tracker.TrackEntityCreation(ctx, "proj1", 1)

	// Assert
	assert.NoError(t, err)
	assert.Len(t, recorder.fired, 1)
	store.AssertExpectations(t)
}

func TestActivityTracker_Track_TriggerFailureKeepsCounter(t *testing.T) {
	// Arrange: callback fails, counter must survive for the next attempt
	ctx := context.Background()
	store := new(mocks.MockActivityStateStore)
	recorder := &triggerRecorder{err: errors.New("bus unavailable")}

	store.On("Get", ctx, "proj1").
		Return(&entities.ActivityCounterState{EntityCount: 99}, nil)
	store.On("Put", ctx, "proj1", mock.MatchedBy(func(s entities.ActivityCounterState) bool {
		return s.EntityCount == 100 && s.LastTriggerTime == nil
	})).Return(nil)

	tracker := newTracker(store, recorder)

	// Act
	err := tracker.TrackEntityCreation(ctx, "proj1", 1)

	// Assert: tracking itself succeeds, state persisted with the counter intact
	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestActivityTracker_Track_CorruptedStateResetsToZeroBaseline(t *testing.T) {
	// Arrange: stored state is unreadable
	ctx := context.Background()
	store := new(mocks.MockActivityStateStore)
	recorder := &triggerRecorder{}

	store.On("Get", ctx, "proj1").
		Return(nil, appErrors.NewCorruptedStateError("ACTIVITY#proj1"))
	store.On("Put", ctx, "proj1", mock.MatchedBy(func(s entities.ActivityCounterState) bool {
		return s.EntityCount == 3 && s.MemoryCount == 0
	})).Return(nil)

	tracker := newTracker(store, recorder)

	// Act
	err := tracker.TrackEntityCreation(ctx, "proj1", 3)

	// Assert
	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestActivityTracker_Track_TransientReadFailurePreservesState(t *testing.T) {
	// Arrange: the store read fails for a reason other than corruption
	ctx := context.Background()
	store := new(mocks.MockActivityStateStore)
	recorder := &triggerRecorder{}

	store.On("Get", ctx, "proj1").
		Return(nil, errors.New("dynamodb: request throttled"))

	tracker := newTracker(store, recorder)

	// Act
	err := tracker.TrackEntityCreation(ctx, "proj1", 1)

	// Assert: the error surfaces and no zero baseline overwrites the
	// accumulated counters
	assert.Error(t, err)
	assert.Empty(t, recorder.fired)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func TestActivityTracker_ResetCounters_TransientReadFailureSurfaces(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := new(mocks.MockActivityStateStore)

	store.On("Get", ctx, "proj1").
		Return(nil, errors.New("dynamodb: request throttled"))

	tracker := newTracker(store, &triggerRecorder{})

	// Act
	err := tracker.ResetCounters(ctx, "proj1")

	// Assert
	assert.Error(t, err)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func TestActivityTracker_Track_PutFailureSurfaces(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := new(mocks.MockActivityStateStore)
	recorder := &triggerRecorder{}

	store.On("Get", ctx, "proj1").Return(nil, nil)
	store.On("Put", ctx, "proj1", mock.Anything).Return(errors.New("dynamo throttled"))

	tracker := newTracker(store, recorder)

	// Act
	err := tracker.TrackEntityCreation(ctx, "proj1", 1)

	// Assert
	assert.Error(t, err)
}

func TestActivityTracker_GetStats_UnknownProjectIsZero(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := new(mocks.MockActivityStateStore)
	store.On("Get", ctx, "never-seen").Return(nil, nil)

	tracker := newTracker(store, &triggerRecorder{})

	// Act
	stats, err := tracker.GetStats(ctx, "never-seen")

	// Assert
	assert.NoError(t, err)
	assert.Zero(t, stats.EntityCount)
	assert.Zero(t, stats.MemoryCount)
}

func TestActivityTracker_ResetCounters_KeepsCooldown(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := new(mocks.MockActivityStateStore)

	lastTrigger := time.Now().Add(-5 * time.Minute)
	store.On("Get", ctx, "proj1").
		Return(&entities.ActivityCounterState{EntityCount: 42, MemoryCount: 7, LastTriggerTime: &lastTrigger}, nil)
	store.On("Put", ctx, "proj1", mock.MatchedBy(func(s entities.ActivityCounterState) bool {
		return s.EntityCount == 0 && s.MemoryCount == 0 &&
			s.LastTriggerTime != nil && s.LastTriggerTime.Equal(lastTrigger)
	})).Return(nil)

	tracker := newTracker(store, &triggerRecorder{})

	// Act
	err := tracker.ResetCounters(ctx, "proj1")

	// Assert
	assert.NoError(t, err)
	store.AssertExpectations(t)
}
