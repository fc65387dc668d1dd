package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/application/ports"
	"github.com/rawcontext/engram-sub005/domain/core/entities"
)

// CommunityRepository persists communities and membership edges.
type CommunityRepository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewCommunityRepository creates a community repository.
func NewCommunityRepository(driver neo4j.DriverWithContext, logger *zap.Logger) ports.CommunityRepository {
	return &CommunityRepository{driver: driver, logger: logger}
}

// FindByMemberOverlap returns existing communities within the org that
// contain any of the given members, ordered by overlap count descending.
func (r *CommunityRepository) FindByMemberOverlap(ctx context.Context, orgID string, memberIDs []string, project string) ([]entities.CommunityOverlap, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (e:Entity)-[:MEMBER_OF]->(c:Community)
		WHERE e.id IN $memberIds
		  AND c.org_id = $orgId
		  AND ($project = '' OR c.project = $project)
		WITH c, count(DISTINCT e) AS overlap
		ORDER BY overlap DESC
		RETURN c.id AS id, c.name AS name, c.member_count AS member_count,
		       c.memory_count AS memory_count, c.org_id AS org_id,
		       c.project AS project, c.last_updated AS last_updated,
		       overlap
	`

	records, err := readRecords(ctx, session, query, map[string]interface{}{
		"memberIds": toInterfaceSlice(memberIDs),
		"orgId":     orgID,
		"project":   project,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query community overlap: %w", err)
	}

	overlaps := make([]entities.CommunityOverlap, 0, len(records))
	for _, record := range records {
		overlaps = append(overlaps, entities.CommunityOverlap{
			Community: entities.Community{
				ID:          getString(record, "id"),
				Name:        getString(record, "name"),
				MemberCount: getInt(record, "member_count"),
				MemoryCount: getInt(record, "memory_count"),
				OrgID:       getString(record, "org_id"),
				Project:     getString(record, "project"),
				LastUpdated: getTime(record, "last_updated"),
			},
			OverlapCount: getInt(record, "overlap"),
		})
	}
	return overlaps, nil
}

// Create persists a new community node.
func (r *CommunityRepository) Create(ctx context.Context, community entities.Community) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		CREATE (c:Community {
			id: $id,
			name: $name,
			summary: $summary,
			keywords: $keywords,
			member_count: $memberCount,
			memory_count: $memoryCount,
			org_id: $orgId,
			project: $project,
			last_updated: datetime($now),
			valid_from: datetime($now)
		})
	`

	err := writeQuery(ctx, session, query, map[string]interface{}{
		"id":          community.ID,
		"name":        community.Name,
		"summary":     community.Summary,
		"keywords":    toInterfaceSlice(community.Keywords),
		"memberCount": community.MemberCount,
		"memoryCount": community.MemoryCount,
		"orgId":       community.OrgID,
		"project":     community.Project,
		"now":         community.LastUpdated.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to create community %s: %w", community.ID, err)
	}
	return nil
}

// Update refreshes an existing community after a cluster merge.
func (r *CommunityRepository) Update(ctx context.Context, id string, update entities.CommunityUpdate) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (c:Community {id: $id})
		SET c.member_count = $memberCount,
		    c.last_updated = datetime($now)
	`

	err := writeQuery(ctx, session, query, map[string]interface{}{
		"id":          id,
		"memberCount": update.MemberCount,
		"now":         update.LastUpdated.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to update community %s: %w", id, err)
	}
	return nil
}

// UpsertMembers links every member to the community via MERGE, one
// UNWIND round trip per cluster. Re-running never duplicates edges.
func (r *CommunityRepository) UpsertMembers(ctx context.Context, communityID string, memberIDs []string) error {
	if len(memberIDs) == 0 {
		return nil
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (c:Community {id: $communityId})
		UNWIND $memberIds AS memberId
		MATCH (e:Entity {id: memberId})
		MERGE (e)-[:MEMBER_OF]->(c)
	`

	err := writeQuery(ctx, session, query, map[string]interface{}{
		"communityId": communityID,
		"memberIds":   toInterfaceSlice(memberIDs),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d members into community %s: %w", len(memberIDs), communityID, err)
	}
	return nil
}

func toInterfaceSlice(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
