package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/application/ports"
	"github.com/rawcontext/engram-sub005/domain/core/entities"
	appErrors "github.com/rawcontext/engram-sub005/pkg/errors"
)

// TriggerFunc fires a threshold-crossing job trigger. The reason is a
// human-readable description like "entity_count=100".
type TriggerFunc func(ctx context.Context, job, project, reason string) error

// ActivityTrackerOptions configures thresholds, cooldown, and which job
// each counter kind triggers.
type ActivityTrackerOptions struct {
	EntityThreshold int
	MemoryThreshold int
	Cooldown        time.Duration
	EntityJob       string
	MemoryJob       string
}

// ActivityTracker maintains per-project creation counters in a durable
// key-value store and fires a job trigger when organic growth crosses a
// threshold. The read-modify-write is not atomic across concurrent
// callers; a dropped increment under race is acceptable because only
// eventual threshold-crossing matters.
type ActivityTracker struct {
	store       ports.ActivityStateStore
	onThreshold TriggerFunc
	opts        ActivityTrackerOptions
	logger      *zap.Logger
	now         func() time.Time
}

// NewActivityTracker creates an activity tracker.
func NewActivityTracker(
	store ports.ActivityStateStore,
	onThreshold TriggerFunc,
	opts ActivityTrackerOptions,
	logger *zap.Logger,
) *ActivityTracker {
	return &ActivityTracker{
		store:       store,
		onThreshold: onThreshold,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

// TrackEntityCreation records count new entities for a project.
func (t *ActivityTracker) TrackEntityCreation(ctx context.Context, project string, count int) error {
	return t.track(ctx, project, count, false)
}

// TrackMemoryCreation records count new memories for a project.
func (t *ActivityTracker) TrackMemoryCreation(ctx context.Context, project string, count int) error {
	return t.track(ctx, project, count, true)
}

func (t *ActivityTracker) track(ctx context.Context, project string, count int, isMemory bool) error {
	state, err := t.loadOrZero(ctx, project)
	if err != nil {
		// A transient store failure must not reach Put: writing a fresh
		// baseline would wipe the counters accumulated so far.
		return fmt.Errorf("failed to read activity state for %q: %w", project, err)
	}
	now := t.now()

	if isMemory {
		state.MemoryCount += count
	} else {
		state.EntityCount += count
	}

	counter, threshold, job, reasonKey := state.EntityCount, t.opts.EntityThreshold, t.opts.EntityJob, "entity_count"
	if isMemory {
		counter, threshold, job, reasonKey = state.MemoryCount, t.opts.MemoryThreshold, t.opts.MemoryJob, "memory_count"
	}

	if counter >= threshold && !state.InCooldown(now, t.opts.Cooldown) {
		reason := fmt.Sprintf("%s=%d", reasonKey, counter)
		if err := t.onThreshold(ctx, job, project, reason); err != nil {
			// The counter keeps accumulating; the next call retries.
			t.logger.Warn("Threshold trigger failed",
				zap.Error(err),
				zap.String("job", job),
				zap.String("project", project),
				zap.String("reason", reason),
			)
		} else {
			t.logger.Info("Activity threshold triggered",
				zap.String("job", job),
				zap.String("project", project),
				zap.String("reason", reason),
			)
			if isMemory {
				state.MemoryCount = 0
			} else {
				state.EntityCount = 0
			}
			state.LastTriggerTime = &now
		}
	}

	// State is persisted regardless of trigger outcome.
	state.UpdatedAt = now
	if err := t.store.Put(ctx, project, *state); err != nil {
		return fmt.Errorf("failed to persist activity state for %q: %w", project, err)
	}
	return nil
}

// GetStats returns the current counter state for a project, zero state
// when the project has never been seen.
func (t *ActivityTracker) GetStats(ctx context.Context, project string) (entities.ActivityCounterState, error) {
	state, err := t.store.Get(ctx, project)
	if err != nil {
		return entities.ActivityCounterState{}, fmt.Errorf("failed to read activity state for %q: %w", project, err)
	}
	if state == nil {
		return entities.ActivityCounterState{}, nil
	}
	return *state, nil
}

// ResetCounters zeroes both counters for a project, keeping the last
// trigger time so the cooldown still applies.
func (t *ActivityTracker) ResetCounters(ctx context.Context, project string) error {
	state, err := t.loadOrZero(ctx, project)
	if err != nil {
		return fmt.Errorf("failed to read activity state for %q: %w", project, err)
	}
	state.EntityCount = 0
	state.MemoryCount = 0
	state.UpdatedAt = t.now()
	if err := t.store.Put(ctx, project, *state); err != nil {
		return fmt.Errorf("failed to reset activity state for %q: %w", project, err)
	}
	return nil
}

// loadOrZero reads a project's state. Missing or corrupted state becomes
// a zero baseline; any other read failure is returned so the caller does
// not overwrite accumulated counters on a transient store error.
func (t *ActivityTracker) loadOrZero(ctx context.Context, project string) (*entities.ActivityCounterState, error) {
	state, err := t.store.Get(ctx, project)
	if err != nil {
		if !appErrors.IsType(err, appErrors.ErrorTypeCorrupted) {
			return nil, err
		}
		t.logger.Warn("Activity state corrupted, resetting to zero baseline",
			zap.Error(err),
			zap.String("project", project),
		)
		return &entities.ActivityCounterState{}, nil
	}
	if state == nil {
		return &entities.ActivityCounterState{}, nil
	}
	return state, nil
}
