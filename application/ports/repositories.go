package ports

import (
	"context"

	"github.com/rawcontext/engram-sub005/domain/core/entities"
)

// EntityGraphReader loads entity relationship edges from the graph
// store. This is a port in hexagonal architecture - the jobs don't know
// about the implementation.
type EntityGraphReader interface {
	// Edges returns all relationship edges visible to a project, or
	// every edge when project is empty.
	Edges(ctx context.Context, orgID, project string) ([]entities.EntityEdge, error)
}

// MemoryRepository reads memories and batch-writes recomputed decay
// scores. No other memory field is ever written by this service.
type MemoryRepository interface {
	// ActiveForDecay retrieves active, non-pinned memories for decay
	// recomputation, optionally scoped to a project.
	ActiveForDecay(ctx context.Context, orgID, project string) ([]entities.Memory, error)

	// ForProject retrieves all active memories for a project.
	ForProject(ctx context.Context, orgID, project string) ([]entities.Memory, error)

	// UpdateDecayScores writes a batch of score updates in a single
	// round trip. Callers bound the batch size.
	UpdateDecayScores(ctx context.Context, updates []entities.DecayUpdate) error
}

// CommunityRepository persists detected communities and their
// membership edges.
type CommunityRepository interface {
	// FindByMemberOverlap returns existing communities within the org
	// that already contain any of the given members, with per-community
	// overlap counts, ordered by overlap descending.
	FindByMemberOverlap(ctx context.Context, orgID string, memberIDs []string, project string) ([]entities.CommunityOverlap, error)

	// Create persists a new community.
	Create(ctx context.Context, community entities.Community) error

	// Update refreshes an existing community after a merge.
	Update(ctx context.Context, id string, update entities.CommunityUpdate) error

	// UpsertMembers idempotently links every member to the community.
	// Re-running with the same members must not create duplicate edges.
	UpsertMembers(ctx context.Context, communityID string, memberIDs []string) error
}

// ConflictReportRepository persists classified conflicts.
type ConflictReportRepository interface {
	// CreateMany persists reports in batched multi-row writes and
	// returns the created records.
	CreateMany(ctx context.Context, reports []entities.ConflictReport) ([]entities.ConflictReport, error)
}

// ActivityStateStore is the durable key-value store backing per-project
// activity counters. Entries carry a bounded lifetime so abandoned
// projects age out of the store.
type ActivityStateStore interface {
	// Get returns the counter state for a project, or nil when absent.
	// A stored value that fails to decode returns a CORRUPTED error.
	Get(ctx context.Context, project string) (*entities.ActivityCounterState, error)

	// Put writes the counter state for a project.
	Put(ctx context.Context, project string, state entities.ActivityCounterState) error
}
