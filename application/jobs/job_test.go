package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/domain/events"
	appErrors "github.com/rawcontext/engram-sub005/pkg/errors"
	"github.com/rawcontext/engram-sub005/pkg/observability"
	"github.com/rawcontext/engram-sub005/tests/mocks"
)

// stubHandler records its last input for dispatch assertions.
type stubHandler struct {
	name string
	runs int
	last Input
	err  error
}

func (h *stubHandler) Name() string { return h.name }

func (h *stubHandler) Process(_ context.Context, in Input) error {
	h.runs++
	h.last = in
	return h.err
}

func newTestDispatcher(handlers ...Handler) *Dispatcher {
	return NewDispatcher(observability.NewTracer("test", false), zap.NewNop(), handlers...)
}

func validTrigger(job string) events.JobTrigger {
	trigger := events.NewJobTrigger(job, events.TriggeredByManual)
	trigger.OrgID = "org1"
	trigger.Project = "proj1"
	return trigger
}

func TestDispatcher_Dispatch_RoutesToMatchingHandler(t *testing.T) {
	// Arrange
	handler := &stubHandler{name: events.JobMemoryDecay}
	dispatcher := newTestDispatcher(handler)
	trigger := validTrigger(events.JobMemoryDecay)

	// Act
	err := dispatcher.Dispatch(context.Background(), trigger)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 1, handler.runs)
	assert.Equal(t, "org1", handler.last.OrgID)
	assert.Equal(t, "proj1", handler.last.Project)
	assert.Equal(t, events.TriggeredByManual, handler.last.TriggeredBy)
	assert.Equal(t, trigger.ExecutionID, handler.last.ExecutionID)
}

func TestDispatcher_Dispatch_UnknownJob(t *testing.T) {
	// Arrange
	dispatcher := newTestDispatcher(&stubHandler{name: events.JobMemoryDecay})

	// Act
	err := dispatcher.Dispatch(context.Background(), validTrigger("no_such_job"))

	// Assert
	assert.Error(t, err)
	assert.True(t, appErrors.IsType(err, appErrors.ErrorTypeNotFound))
}

func TestDispatcher_Dispatch_RejectsMalformedTrigger(t *testing.T) {
	// Arrange
	handler := &stubHandler{name: events.JobMemoryDecay}
	dispatcher := newTestDispatcher(handler)

	cases := map[string]events.JobTrigger{
		"missing job":          {ExecutionID: "x", Timestamp: 1, TriggeredBy: "cron"},
		"missing execution id": {Job: events.JobMemoryDecay, Timestamp: 1, TriggeredBy: "cron"},
		"missing timestamp":    {Job: events.JobMemoryDecay, ExecutionID: "x", TriggeredBy: "cron"},
		"bad trigger source":   {Job: events.JobMemoryDecay, ExecutionID: "x", Timestamp: 1, TriggeredBy: "webhook"},
	}

	for name, trigger := range cases {
		t.Run(name, func(t *testing.T) {
			// Act
			err := dispatcher.Dispatch(context.Background(), trigger)

			// Assert
			assert.Error(t, err)
			assert.True(t, appErrors.IsType(err, appErrors.ErrorTypeValidation))
			assert.Equal(t, 0, handler.runs)
		})
	}
}

func TestDispatcher_Dispatch_RejectsMissingOrgID(t *testing.T) {
	// Arrange
	handler := &stubHandler{name: events.JobMemoryDecay}
	dispatcher := newTestDispatcher(handler)
	trigger := events.NewJobTrigger(events.JobMemoryDecay, events.TriggeredByCron)

	// Act
	err := dispatcher.Dispatch(context.Background(), trigger)

	// Assert
	assert.Error(t, err)
	assert.True(t, appErrors.IsType(err, appErrors.ErrorTypeValidation))
	assert.Equal(t, 0, handler.runs)
}

func TestDispatcher_Dispatch_PropagatesHandlerError(t *testing.T) {
	// Arrange
	handler := &stubHandler{name: events.JobConflictScan, err: assert.AnError}
	dispatcher := newTestDispatcher(handler)

	// Act
	err := dispatcher.Dispatch(context.Background(), validTrigger(events.JobConflictScan))

	// Assert
	assert.ErrorIs(t, err, assert.AnError)
}

func TestDispatcher_Dispatch_SkipsWhenLockHeldElsewhere(t *testing.T) {
	// Arrange
	handler := &stubHandler{name: events.JobMemoryDecay}
	lock := new(mocks.MockJobLock)
	lock.On("TryAcquire", mock.Anything, events.JobMemoryDecay, "worker-1", time.Hour).
		Return(false, nil)

	dispatcher := newTestDispatcher(handler).WithJobLock(lock, "worker-1", time.Hour)

	// Act
	err := dispatcher.Dispatch(context.Background(), validTrigger(events.JobMemoryDecay))

	// Assert: suppressed run is not an error
	assert.NoError(t, err)
	assert.Equal(t, 0, handler.runs)
	lock.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_Dispatch_AcquiresAndReleasesLock(t *testing.T) {
	// Arrange
	handler := &stubHandler{name: events.JobMemoryDecay}
	lock := new(mocks.MockJobLock)
	lock.On("TryAcquire", mock.Anything, events.JobMemoryDecay, "worker-1", time.Hour).
		Return(true, nil)
	lock.On("Release", mock.Anything, events.JobMemoryDecay, "worker-1").Return(nil)

	dispatcher := newTestDispatcher(handler).WithJobLock(lock, "worker-1", time.Hour)

	// Act
	err := dispatcher.Dispatch(context.Background(), validTrigger(events.JobMemoryDecay))

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 1, handler.runs)
	lock.AssertExpectations(t)
}

func TestDispatcher_Dispatch_LockStoreFailureDoesNotBlockJob(t *testing.T) {
	// Arrange
	handler := &stubHandler{name: events.JobMemoryDecay}
	lock := new(mocks.MockJobLock)
	lock.On("TryAcquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(false, assert.AnError)

	dispatcher := newTestDispatcher(handler).WithJobLock(lock, "worker-1", time.Hour)

	// Act
	err := dispatcher.Dispatch(context.Background(), validTrigger(events.JobMemoryDecay))

	// Assert: job still runs with local-only suppression
	assert.NoError(t, err)
	assert.Equal(t, 1, handler.runs)
}

func TestDispatcher_Jobs_ListsRegisteredHandlers(t *testing.T) {
	dispatcher := newTestDispatcher(
		&stubHandler{name: events.JobMemoryDecay},
		&stubHandler{name: events.JobConflictScan},
	)

	assert.ElementsMatch(t, []string{events.JobMemoryDecay, events.JobConflictScan}, dispatcher.Jobs())
}
