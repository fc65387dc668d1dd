package observability

import (
	"context"
	"fmt"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer provides distributed tracing around job runs.
type Tracer struct {
	serviceName string
	enabled     bool
}

// NewTracer creates a new tracer instance. When disabled every call is
// a pass-through.
func NewTracer(serviceName string, enabled bool) *Tracer {
	return &Tracer{
		serviceName: serviceName,
		enabled:     enabled,
	}
}

// TraceJob wraps a job run in a trace segment annotated with the job
// name and execution id.
func (t *Tracer) TraceJob(ctx context.Context, job, executionID string, fn func(context.Context) error) error {
	if !t.enabled {
		return fn(ctx)
	}

	ctx, seg := xray.BeginSegment(ctx, fmt.Sprintf("%s.%s", t.serviceName, job))
	_ = seg.AddAnnotation("job", job)
	_ = seg.AddAnnotation("execution_id", executionID)

	err := fn(ctx)
	seg.Close(err)
	return err
}

// TraceCall wraps an external call in a subsegment.
func (t *Tracer) TraceCall(ctx context.Context, name string, fn func(context.Context) error) error {
	if !t.enabled {
		return fn(ctx)
	}

	ctx, seg := xray.BeginSubsegment(ctx, name)
	err := fn(ctx)
	seg.Close(err)
	return err
}
