package jobs

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/application/ports"
	"github.com/rawcontext/engram-sub005/domain/core/entities"
	"github.com/rawcontext/engram-sub005/domain/events"
)

// DecayCalculatorOptions tunes the aging model and write batching.
type DecayCalculatorOptions struct {
	Model     DecayModel
	MinDelta  float64
	BatchSize int
}

// DecayCalculator recomputes relevance scores for active memories and
// writes the changed ones back in bounded batches.
type DecayCalculator struct {
	memories ports.MemoryRepository
	metrics  ports.MetricsSink
	opts     DecayCalculatorOptions
	logger   *zap.Logger
	now      func() time.Time
}

// NewDecayCalculator creates the decay job.
func NewDecayCalculator(
	memories ports.MemoryRepository,
	metrics ports.MetricsSink,
	opts DecayCalculatorOptions,
	logger *zap.Logger,
) *DecayCalculator {
	return &DecayCalculator{
		memories: memories,
		metrics:  metrics,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Name implements Handler.
func (c *DecayCalculator) Name() string {
	return events.JobMemoryDecay
}

// Process recomputes decay scores for every active, non-pinned memory.
// Scores that moved less than MinDelta are skipped to avoid write
// amplification on stable memories; the rest are flushed in multi-row
// batches, never one write per memory.
func (c *DecayCalculator) Process(ctx context.Context, in Input) error {
	start := c.now()
	c.logger.Info("Decay calculation started",
		zap.String("orgID", in.OrgID),
		zap.String("project", in.Project),
		zap.String("triggeredBy", in.TriggeredBy),
	)

	memories, err := c.memories.ActiveForDecay(ctx, in.OrgID, in.Project)
	if err != nil {
		return fmt.Errorf("failed to load memories for decay: %w", err)
	}
	if len(memories) == 0 {
		c.logger.Info("No active memories found, nothing to decay",
			zap.String("project", in.Project))
		return nil
	}

	now := c.now()
	updates := make([]entities.DecayUpdate, 0, len(memories))
	skipped := 0
	for i := range memories {
		m := &memories[i]
		newScore := c.opts.Model.Score(m, now)
		if math.Abs(newScore-m.DecayScore) < c.opts.MinDelta {
			skipped++
			continue
		}
		updates = append(updates, entities.DecayUpdate{
			MemoryID: m.ID,
			Score:    newScore,
		})
	}

	written, failedBatches := c.flush(ctx, updates)

	elapsed := time.Since(start)
	c.logger.Info("Decay calculation complete",
		zap.Int("evaluated", len(memories)),
		zap.Int("updated", written),
		zap.Int("skipped", skipped),
		zap.Int("failedBatches", failedBatches),
		zap.Duration("elapsed", elapsed),
	)
	c.metrics.RecordJobSummary(ctx, ports.JobSummary{
		Job:       c.Name(),
		Evaluated: len(memories),
		Mutated:   written,
		Skipped:   skipped,
		Elapsed:   elapsed,
	})
	return nil
}

// flush writes updates in batches of at most BatchSize. A failed batch
// is logged and dropped; the remaining batches still go through and the
// next run recomputes whatever went stale.
func (c *DecayCalculator) flush(ctx context.Context, updates []entities.DecayUpdate) (written, failedBatches int) {
	for start := 0; start < len(updates); start += c.opts.BatchSize {
		end := start + c.opts.BatchSize
		if end > len(updates) {
			end = len(updates)
		}
		batch := updates[start:end]
		if err := c.memories.UpdateDecayScores(ctx, batch); err != nil {
			c.logger.Warn("Decay batch write failed",
				zap.Error(err),
				zap.Int("batchSize", len(batch)),
			)
			failedBatches++
			continue
		}
		written += len(batch)
	}
	return written, failedBatches
}
