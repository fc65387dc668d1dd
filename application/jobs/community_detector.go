package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/application/ports"
	"github.com/rawcontext/engram-sub005/domain/core/entities"
	"github.com/rawcontext/engram-sub005/domain/events"
)

// CommunityDetectorOptions tunes clustering and merge behavior.
type CommunityDetectorOptions struct {
	MinCommunitySize int
	MergeOverlap     float64
	MaxIterations    int
}

// CommunityDetector clusters entities via label propagation and
// reconciles the resulting clusters with persisted communities.
type CommunityDetector struct {
	graph       ports.EntityGraphReader
	communities ports.CommunityRepository
	metrics     ports.MetricsSink
	opts        CommunityDetectorOptions
	logger      *zap.Logger
}

// NewCommunityDetector creates the community detection job.
func NewCommunityDetector(
	graph ports.EntityGraphReader,
	communities ports.CommunityRepository,
	metrics ports.MetricsSink,
	opts CommunityDetectorOptions,
	logger *zap.Logger,
) *CommunityDetector {
	return &CommunityDetector{
		graph:       graph,
		communities: communities,
		metrics:     metrics,
		opts:        opts,
		logger:      logger,
	}
}

// Name implements Handler.
func (d *CommunityDetector) Name() string {
	return events.JobCommunityDetection
}

// Process runs one community detection pass. The whole graph is held in
// memory; store round trips are one edge load plus a small number of
// batched queries per surviving cluster.
func (d *CommunityDetector) Process(ctx context.Context, in Input) error {
	start := time.Now()
	d.logger.Info("Community detection started",
		zap.String("orgID", in.OrgID),
		zap.String("project", in.Project),
		zap.String("triggeredBy", in.TriggeredBy),
	)

	edges, err := d.graph.Edges(ctx, in.OrgID, in.Project)
	if err != nil {
		return fmt.Errorf("failed to load entity edges: %w", err)
	}
	if len(edges) == 0 {
		d.logger.Info("No entity edges found, nothing to cluster",
			zap.String("project", in.Project))
		return nil
	}

	adj := buildAdjacency(edges)
	d.logger.Info("Entity graph built",
		zap.Int("nodes", len(adj.order)),
		zap.Int("edges", adj.edgeCount),
	)

	labels, iterations := propagateLabels(adj, d.opts.MaxIterations)
	groups := clusters(labels, d.opts.MinCommunitySize)
	d.logger.Info("Label propagation complete",
		zap.Int("iterations", iterations),
		zap.Int("clusters", len(groups)),
	)

	created, merged, skipped := 0, 0, 0
	for _, members := range groups {
		wasCreated, err := d.reconcile(ctx, in, members)
		if err != nil {
			// One failed cluster must not abort the rest of the run.
			d.logger.Warn("Failed to reconcile cluster",
				zap.Error(err),
				zap.Int("clusterSize", len(members)),
			)
			skipped++
			continue
		}
		if wasCreated {
			created++
		} else {
			merged++
		}
	}

	elapsed := time.Since(start)
	d.logger.Info("Community detection complete",
		zap.Int("entities", len(adj.order)),
		zap.Int("edges", adj.edgeCount),
		zap.Int("clusters", len(groups)),
		zap.Int("created", created),
		zap.Int("merged", merged),
		zap.Int("skipped", skipped),
		zap.Duration("elapsed", elapsed),
	)
	d.metrics.RecordJobSummary(ctx, ports.JobSummary{
		Job:       d.Name(),
		Evaluated: len(groups),
		Mutated:   created + merged,
		Skipped:   skipped,
		Elapsed:   elapsed,
	})
	return nil
}

// reconcile merges a detected cluster into its best-overlapping existing
// community, or creates a new one when no overlap clears the threshold.
// Membership edges are upserted either way, so re-runs are idempotent.
func (d *CommunityDetector) reconcile(ctx context.Context, in Input, members []string) (created bool, err error) {
	now := time.Now()

	overlaps, err := d.communities.FindByMemberOverlap(ctx, in.OrgID, members, in.Project)
	if err != nil {
		return false, fmt.Errorf("overlap query failed: %w", err)
	}

	if best, ok := bestOverlap(overlaps, len(members), d.opts.MergeOverlap); ok {
		newMembers := len(members) - best.OverlapCount
		update := entities.CommunityUpdate{
			MemberCount: best.Community.MemberCount + newMembers,
			LastUpdated: now,
		}
		if err := d.communities.Update(ctx, best.Community.ID, update); err != nil {
			return false, fmt.Errorf("community update failed: %w", err)
		}
		if err := d.communities.UpsertMembers(ctx, best.Community.ID, members); err != nil {
			return false, fmt.Errorf("membership upsert failed: %w", err)
		}
		return false, nil
	}

	community := entities.Community{
		ID:          uuid.NewString(),
		Name:        fmt.Sprintf("community-%s", shortID(members[0])),
		MemberCount: len(members),
		Project:     in.Project,
		OrgID:       in.OrgID,
		LastUpdated: now,
		ValidFrom:   now,
	}
	if err := d.communities.Create(ctx, community); err != nil {
		return false, fmt.Errorf("community create failed: %w", err)
	}
	if err := d.communities.UpsertMembers(ctx, community.ID, members); err != nil {
		return false, fmt.Errorf("membership upsert failed: %w", err)
	}
	return true, nil
}

// bestOverlap picks the highest-overlap community whose overlap ratio
// against the cluster size clears the merge threshold.
func bestOverlap(overlaps []entities.CommunityOverlap, clusterSize int, threshold float64) (entities.CommunityOverlap, bool) {
	var best entities.CommunityOverlap
	found := false
	for _, o := range overlaps {
		if float64(o.OverlapCount)/float64(clusterSize) < threshold {
			continue
		}
		if !found || o.OverlapCount > best.OverlapCount {
			best = o
			found = true
		}
	}
	return best, found
}

func shortID(seed string) string {
	if len(seed) > 8 {
		return seed[:8]
	}
	return seed
}
