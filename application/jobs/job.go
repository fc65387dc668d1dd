package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/application/ports"
	"github.com/rawcontext/engram-sub005/domain/events"
	appErrors "github.com/rawcontext/engram-sub005/pkg/errors"
	"github.com/rawcontext/engram-sub005/pkg/observability"
)

// Input carries the metadata a job run receives from its trigger.
type Input struct {
	OrgID       string `validate:"required"`
	Project     string
	TriggeredBy string
	ExecutionID string
	ScanID      string
}

// Handler is a background job keyed by name. Process runs to completion
// inside a single worker task; it either finishes with a logged summary
// or returns an error for the message bus to redeliver.
type Handler interface {
	Name() string
	Process(ctx context.Context, in Input) error
}

// Dispatcher routes Job Trigger messages to the matching handler.
type Dispatcher struct {
	handlers map[string]Handler
	validate *validator.Validate
	tracer   *observability.Tracer
	logger   *zap.Logger

	lock     ports.JobLock
	lockTTL  time.Duration
	lockName string
}

// NewDispatcher registers the given handlers by name.
func NewDispatcher(tracer *observability.Tracer, logger *zap.Logger, handlers ...Handler) *Dispatcher {
	registry := make(map[string]Handler, len(handlers))
	for _, h := range handlers {
		registry[h.Name()] = h
	}
	return &Dispatcher{
		handlers: registry,
		validate: validator.New(),
		tracer:   tracer,
		logger:   logger,
	}
}

// WithJobLock makes every dispatch acquire a fleet-wide lock first, so
// the same trigger consumed by more than one worker runs exactly once.
// ownerName identifies this consumer in the lock record.
func (d *Dispatcher) WithJobLock(lock ports.JobLock, ownerName string, ttl time.Duration) *Dispatcher {
	d.lock = lock
	d.lockName = ownerName
	d.lockTTL = ttl
	return d
}

// Dispatch validates a trigger and runs the matching job to completion.
// A malformed trigger fails outright; it cannot produce a meaningful run.
func (d *Dispatcher) Dispatch(ctx context.Context, trigger events.JobTrigger) error {
	if err := d.validate.Struct(trigger); err != nil {
		return appErrors.NewValidationError("invalid job trigger").WithCause(err)
	}

	handler, ok := d.handlers[trigger.Job]
	if !ok {
		return appErrors.NewNotFoundError(fmt.Sprintf("job handler %q", trigger.Job))
	}

	in := Input{
		OrgID:       trigger.OrgID,
		Project:     trigger.Project,
		TriggeredBy: trigger.TriggeredBy,
		ExecutionID: trigger.ExecutionID,
	}
	if err := d.validate.Struct(in); err != nil {
		return appErrors.NewValidationError("job trigger missing org id").WithCause(err)
	}

	d.logger.Info("Dispatching job",
		zap.String("job", trigger.Job),
		zap.String("executionID", trigger.ExecutionID),
		zap.String("triggeredBy", trigger.TriggeredBy),
	)

	if d.lock != nil {
		acquired, err := d.lock.TryAcquire(ctx, trigger.Job, d.lockName, d.lockTTL)
		if err != nil {
			// The lock store being down must not stop jobs entirely; the
			// run proceeds with only local overlap suppression.
			d.logger.Warn("Job lock unavailable, proceeding without it",
				zap.Error(err),
				zap.String("job", trigger.Job),
			)
		} else if !acquired {
			d.logger.Info("Job already running elsewhere, skipping",
				zap.String("job", trigger.Job),
				zap.String("executionID", trigger.ExecutionID),
			)
			return nil
		} else {
			defer func() {
				if err := d.lock.Release(context.WithoutCancel(ctx), trigger.Job, d.lockName); err != nil {
					d.logger.Warn("Failed to release job lock",
						zap.Error(err),
						zap.String("job", trigger.Job),
					)
				}
			}()
		}
	}

	return d.tracer.TraceJob(ctx, trigger.Job, trigger.ExecutionID, func(ctx context.Context) error {
		return handler.Process(ctx, in)
	})
}

// Jobs returns the registered job names.
func (d *Dispatcher) Jobs() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}
