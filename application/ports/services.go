package ports

import (
	"context"
	"time"

	"github.com/rawcontext/engram-sub005/domain/core/entities"
	"github.com/rawcontext/engram-sub005/domain/events"
)

// TriggerPublisher publishes Job Trigger messages on the event bus,
// keyed by job name.
type TriggerPublisher interface {
	Publish(ctx context.Context, trigger events.JobTrigger) error
}

// CandidateSearchService returns semantically similar memories for a
// query memory.
type CandidateSearchService interface {
	Similar(ctx context.Context, memory entities.Memory) ([]entities.Candidate, error)
}

// ClassificationService judges the relationship between two memories.
type ClassificationService interface {
	Classify(ctx context.Context, a, b entities.Memory) (entities.Classification, error)
}

// JobLock serializes a job across the whole fleet. TryAcquire returns
// false without error when another holder owns the lock; Release is
// best effort since every lock carries its own expiry.
type JobLock interface {
	TryAcquire(ctx context.Context, job, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, job, owner string) error
}

// JobSummary captures the outcome of one job run for metrics emission.
type JobSummary struct {
	Job       string
	Evaluated int
	Mutated   int
	Skipped   int
	Elapsed   time.Duration
}

// MetricsSink records job outcomes. Implementations are fire-and-forget:
// a metrics failure must never fail the job it describes.
type MetricsSink interface {
	RecordJobSummary(ctx context.Context, summary JobSummary)
}
