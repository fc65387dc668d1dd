package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/application/ports"
	"github.com/rawcontext/engram-sub005/domain/core/entities"
	"github.com/rawcontext/engram-sub005/domain/events"
	appErrors "github.com/rawcontext/engram-sub005/pkg/errors"
)

// ConflictScannerOptions tunes candidate filtering and rate control.
type ConflictScannerOptions struct {
	MinSimilarity  float64
	MaxCandidates  int
	RateLimitDelay time.Duration
}

// ConflictScanner surfaces candidate conflicting memory pairs via the
// search service, classifies each unique pair once, and persists the
// confirmed conflicts.
type ConflictScanner struct {
	memories   ports.MemoryRepository
	search     ports.CandidateSearchService
	classifier ports.ClassificationService
	reports    ports.ConflictReportRepository
	metrics    ports.MetricsSink
	opts       ConflictScannerOptions
	logger     *zap.Logger
}

// NewConflictScanner creates the conflict scanning job.
func NewConflictScanner(
	memories ports.MemoryRepository,
	search ports.CandidateSearchService,
	classifier ports.ClassificationService,
	reports ports.ConflictReportRepository,
	metrics ports.MetricsSink,
	opts ConflictScannerOptions,
	logger *zap.Logger,
) *ConflictScanner {
	return &ConflictScanner{
		memories:   memories,
		search:     search,
		classifier: classifier,
		reports:    reports,
		metrics:    metrics,
		opts:       opts,
		logger:     logger,
	}
}

// Name implements Handler.
func (s *ConflictScanner) Name() string {
	return events.JobConflictScan
}

// Process scans one project for conflicting memories. Candidate lookups
// and pair classifications fail per item, never the whole scan; only a
// failure to persist the confirmed conflicts fails the run.
func (s *ConflictScanner) Process(ctx context.Context, in Input) error {
	if in.Project == "" {
		return appErrors.NewValidationError("conflict scan requires a project")
	}
	scanID := in.ScanID
	if scanID == "" {
		scanID = uuid.NewString()
	}

	start := time.Now()
	s.logger.Info("Conflict scan started",
		zap.String("scanID", scanID),
		zap.String("orgID", in.OrgID),
		zap.String("project", in.Project),
		zap.String("triggeredBy", in.TriggeredBy),
	)

	memories, err := s.memories.ForProject(ctx, in.OrgID, in.Project)
	if err != nil {
		return fmt.Errorf("failed to load memories for scan: %w", err)
	}
	if len(memories) == 0 {
		s.logger.Info("No memories found, nothing to scan",
			zap.String("project", in.Project))
		return nil
	}

	seen := make(map[string]struct{})
	var confirmed []entities.ConflictReport
	scanned, candidatesFound, pairsClassified := 0, 0, 0

	for i := range memories {
		memory := &memories[i]
		if memory.Pinned {
			continue
		}
		scanned++

		// The search service rate limit is respected by pacing every
		// lookup, so total scan time grows linearly with memory count.
		if err := s.pace(ctx); err != nil {
			return err
		}

		candidates, err := s.search.Similar(ctx, *memory)
		if err != nil {
			s.logger.Warn("Candidate lookup failed, treating as no candidates",
				zap.Error(err),
				zap.String("memoryID", memory.ID),
			)
			continue
		}
		candidates = s.filterCandidates(memory.ID, candidates)
		candidatesFound += len(candidates)

		for _, candidate := range candidates {
			key := pairKey(memory.ID, candidate.MemoryID)
			if _, done := seen[key]; done {
				continue
			}
			seen[key] = struct{}{}

			other := candidateMemory(candidate)
			classification, err := s.classifier.Classify(ctx, *memory, other)
			if err != nil {
				s.logger.Warn("Pair classification failed",
					zap.Error(err),
					zap.String("memoryIDA", memory.ID),
					zap.String("memoryIDB", candidate.MemoryID),
				)
				continue
			}
			pairsClassified++

			if !classification.Relation.IsConflict() {
				continue
			}
			idA, idB := orderPair(memory.ID, candidate.MemoryID)
			confirmed = append(confirmed, entities.ConflictReport{
				ID:              uuid.NewString(),
				ScanID:          scanID,
				OrgID:           in.OrgID,
				Project:         in.Project,
				MemoryIDA:       idA,
				MemoryIDB:       idB,
				Relation:        classification.Relation,
				Confidence:      classification.Confidence,
				Reasoning:       classification.Reasoning,
				SuggestedAction: classification.SuggestedAction,
				CreatedAt:       time.Now(),
			})
		}
	}

	if len(confirmed) > 0 {
		if _, err := s.reports.CreateMany(ctx, confirmed); err != nil {
			return fmt.Errorf("failed to persist conflict reports: %w", err)
		}
	}

	elapsed := time.Since(start)
	s.logger.Info("Conflict scan complete",
		zap.String("scanID", scanID),
		zap.Int("scanned", scanned),
		zap.Int("candidates", candidatesFound),
		zap.Int("pairsClassified", pairsClassified),
		zap.Int("conflicts", len(confirmed)),
		zap.Duration("elapsed", elapsed),
	)
	s.metrics.RecordJobSummary(ctx, ports.JobSummary{
		Job:       s.Name(),
		Evaluated: scanned,
		Mutated:   len(confirmed),
		Skipped:   scanned - pairsClassified,
		Elapsed:   elapsed,
	})
	return nil
}

// filterCandidates drops self-matches and weak matches, then keeps only
// the highest-similarity candidates up to the configured cap.
func (s *ConflictScanner) filterCandidates(sourceID string, candidates []entities.Candidate) []entities.Candidate {
	kept := candidates[:0]
	for _, c := range candidates {
		if c.MemoryID == sourceID {
			continue
		}
		if c.Similarity < s.opts.MinSimilarity {
			continue
		}
		kept = append(kept, c)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Similarity > kept[j].Similarity })
	if len(kept) > s.opts.MaxCandidates {
		kept = kept[:s.opts.MaxCandidates]
	}
	return kept
}

// pace sleeps for the rate-limit delay, aborting early on cancellation.
func (s *ConflictScanner) pace(ctx context.Context) error {
	if s.opts.RateLimitDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.opts.RateLimitDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// pairKey canonicalizes a memory pair so a pair discovered from either
// direction is classified exactly once.
func pairKey(a, b string) string {
	a, b = orderPair(a, b)
	return a + "|" + b
}

func orderPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// candidateMemory lifts a search candidate into the memory shape the
// classifier consumes.
func candidateMemory(c entities.Candidate) entities.Memory {
	return entities.Memory{
		ID:        c.MemoryID,
		Content:   c.Content,
		Type:      entities.MemoryType(c.Type),
		ValidFrom: c.ValidFrom,
		ValidTo:   c.ValidTo,
	}
}
